package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/property-assistant/internal/config"
	"github.com/Rrens/property-assistant/internal/domain"
	"github.com/Rrens/property-assistant/internal/llm"
	"github.com/Rrens/property-assistant/internal/ratelimit"
)

var validate = validator.New()

// ErrPropertyNotFound is returned when the chat targets an unknown property
var ErrPropertyNotFound = errors.New("property not found")

// DefaultFallbackReply is used when the model produces no text for a turn
const DefaultFallbackReply = "Perfeito, registrei suas informações! Posso ajudar com mais alguma coisa sobre o imóvel?"

// PropertyCache stores assembled property facts between turns
type PropertyCache interface {
	Get(ctx context.Context, propertyID string) (*domain.PropertyContext, error)
	Set(ctx context.Context, propertyID string, pc *domain.PropertyContext) error
	Invalidate(ctx context.Context, propertyID string) error
}

// ChatService runs one conversational turn: rate limit, context assembly,
// the two-phase model call with tool execution, and persistence.
type ChatService struct {
	limiter    *ratelimit.Limiter
	limits     config.RateLimitConfig
	sessions   domain.SessionRepository
	messages   domain.MessageRepository
	properties domain.PropertyRepository
	cache      PropertyCache
	assembler  *ContextAssembler
	dispatcher *Dispatcher
	llmRouter  *llm.Router
	cfg        config.ChatConfig
	now        func() time.Time
}

// NewChatService creates a new chat service. cache may be nil.
func NewChatService(
	limiter *ratelimit.Limiter,
	limits config.RateLimitConfig,
	sessions domain.SessionRepository,
	messages domain.MessageRepository,
	properties domain.PropertyRepository,
	cache PropertyCache,
	dispatcher *Dispatcher,
	llmRouter *llm.Router,
	cfg config.ChatConfig,
) *ChatService {
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 10
	}
	if strings.TrimSpace(cfg.FallbackReply) == "" {
		cfg.FallbackReply = DefaultFallbackReply
	}
	return &ChatService{
		limiter:    limiter,
		limits:     limits,
		sessions:   sessions,
		messages:   messages,
		properties: properties,
		cache:      cache,
		assembler:  NewContextAssembler(cfg.KnowledgeLimit),
		dispatcher: dispatcher,
		llmRouter:  llmRouter,
		cfg:        cfg,
		now:        time.Now,
	}
}

// CountRejected charges a request whose body could not be decoded against
// identity's window. It returns a RateLimitError once the window is exhausted.
func (s *ChatService) CountRejected(ctx context.Context, identity string) error {
	return s.admit(ctx, identity)
}

func (s *ChatService) admit(ctx context.Context, identity string) error {
	decision := s.limiter.CheckAndIncrement(ctx, identity, s.limits.Operation, s.limits.Window, s.limits.MaxRequests)
	if !decision.Allowed {
		return &RateLimitError{RetryAfter: decision.RetryAfter(s.now()), Limit: s.limits.MaxRequests}
	}
	return nil
}

// HandleMessage processes one inbound visitor message for identity
func (s *ChatService) HandleMessage(ctx context.Context, identity string, req domain.ChatRequest) (*domain.ChatResponse, error) {
	// Client disconnects must not abort a turn that may already have side effects;
	// the hosting deadline still applies.
	work := context.WithoutCancel(ctx)
	if deadline, ok := ctx.Deadline(); ok {
		var cancel context.CancelFunc
		work, cancel = context.WithDeadline(work, deadline)
		defer cancel()
	}
	ctx = work

	if err := s.admit(ctx, identity); err != nil {
		return nil, err
	}

	req.SessionID = strings.TrimSpace(req.SessionID)
	req.Message = strings.TrimSpace(req.Message)
	req.PropertyID = strings.TrimSpace(req.PropertyID)
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	pc, err := s.propertyContext(ctx, req.PropertyID)
	if err != nil {
		return nil, err
	}

	session, err := s.loadSession(ctx, req, pc.Property.OrgID)
	if err != nil {
		return nil, err
	}

	history, err := s.messages.ListBySession(ctx, session.ID, s.cfg.HistoryLimit)
	if err != nil {
		log.Warn().Err(err).Str("session_id", session.ID).Msg("failed to load history, continuing without it")
		history = nil
	}

	provider, err := s.llmRouter.GetProvider(s.cfg.Provider)
	if err != nil {
		return nil, &GatewayError{Kind: GatewayFailed, Provider: s.cfg.Provider, Err: err}
	}

	userAt := s.now().UTC()
	turn, err := s.converse(ctx, provider, pc, session, history, req.Message)
	if err != nil {
		return nil, err
	}

	inputMode := req.InputMode
	if inputMode == "" {
		inputMode = domain.InputModeText
	}

	userMsg := &domain.Message{
		ID:        uuid.New(),
		SessionID: session.ID,
		Role:      domain.RoleUser,
		Content:   req.Message,
		CreatedAt: userAt,
	}
	assistantMsg := &domain.Message{
		ID:        uuid.New(),
		SessionID: session.ID,
		Role:      domain.RoleAssistant,
		Content:   turn.reply,
		Metadata: &domain.MessageMetadata{
			Provider:    provider.Name(),
			Model:       turn.model,
			TokensUsed:  turn.tokens,
			LatencyMs:   turn.latencyMs,
			ToolCalls:   turn.state.ToolCalls,
			SideEffects: turn.state.SideEffects,
			Fallback:    turn.fallback,
			InputMode:   inputMode,
		},
		CreatedAt: s.now().UTC(),
	}
	// Ordering is append order, so the user message must land first
	if err := s.messages.Create(ctx, userMsg); err != nil {
		log.Error().Err(err).Str("session_id", session.ID).Msg("failed to save user message")
	}
	if err := s.messages.Create(ctx, assistantMsg); err != nil {
		log.Error().Err(err).Str("session_id", session.ID).Msg("failed to save assistant message")
	}

	log.Info().
		Str("session_id", session.ID).
		Str("provider", provider.Name()).
		Strs("tool_calls", turn.state.ToolCalls).
		Int("side_effects", len(turn.state.SideEffects)).
		Bool("fallback", turn.fallback).
		Int64("latency_ms", turn.latencyMs).
		Msg("chat turn completed")

	return &domain.ChatResponse{
		Success:     true,
		Reply:       turn.reply,
		MessageID:   assistantMsg.ID.String(),
		SideEffects: turn.state.SideEffects,
		ShouldSpeak: inputMode == domain.InputModeVoice,
	}, nil
}

type turnResult struct {
	reply     string
	model     string
	tokens    int
	latencyMs int64
	fallback  bool
	state     *TurnState
}

// converse runs the Drafting, Executing and Resolving states of one turn
func (s *ChatService) converse(
	ctx context.Context,
	provider llm.Provider,
	pc *domain.PropertyContext,
	session *domain.Session,
	history []domain.Message,
	userText string,
) (*turnResult, error) {
	msgs := make([]llm.Message, 0, len(history)+2)
	msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: s.assembler.Build(*pc, *session)})
	for _, m := range history {
		msgs = append(msgs, llm.Message{Role: string(m.Role), Content: m.Content})
	}
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: userText})

	// Drafting
	first, err := provider.Chat(ctx, llm.ChatRequest{
		Model:       s.cfg.Model,
		Messages:    msgs,
		Tools:       ToolDefinitions(),
		ToolChoice:  llm.ToolChoiceAuto,
		Temperature: s.cfg.Temperature,
		MaxTokens:   s.cfg.MaxTokens,
	})
	if err != nil {
		return nil, classifyGatewayError(provider.Name(), err)
	}

	turn := &turnResult{
		reply:     strings.TrimSpace(first.Content),
		model:     first.Model,
		tokens:    first.TokensUsed,
		latencyMs: first.LatencyMs,
		state:     &TurnState{Session: session},
	}

	// Executing
	toolMsgs := make([]llm.Message, 0, len(first.ToolCalls))
	for _, call := range first.ToolCalls {
		outcome := s.dispatcher.Execute(ctx, turn.state, call)
		toolMsgs = append(toolMsgs, llm.Message{
			Role:       llm.RoleTool,
			Content:    outcome.Content(),
			ToolCallID: call.ID,
			Name:       call.Name,
		})
	}

	// Resolving
	if turn.reply == "" && len(first.ToolCalls) > 0 {
		followUp := append(msgs, llm.Message{Role: llm.RoleAssistant, ToolCalls: first.ToolCalls})
		followUp = append(followUp, toolMsgs...)

		second, err := provider.Chat(ctx, llm.ChatRequest{
			Model:       s.cfg.Model,
			Messages:    followUp,
			Temperature: s.cfg.Temperature,
			MaxTokens:   s.cfg.MaxTokens,
		})
		if err != nil {
			// Side effects are already committed; answer with the acknowledgement
			log.Warn().Err(err).Str("session_id", session.ID).Msg("follow-up model call failed, using fallback reply")
		} else {
			turn.reply = strings.TrimSpace(second.Content)
			turn.tokens += second.TokensUsed
			turn.latencyMs += second.LatencyMs
		}
	}

	if turn.reply == "" {
		turn.reply = s.cfg.FallbackReply
		turn.fallback = true
	}

	return turn, nil
}

// propertyContext returns cached facts or loads them from the store
func (s *ChatService) propertyContext(ctx context.Context, propertyID string) (*domain.PropertyContext, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, propertyID)
		if err != nil {
			log.Warn().Err(err).Str("property_id", propertyID).Msg("property cache unavailable")
		} else if cached != nil {
			return cached, nil
		}
	}

	property, err := s.properties.GetByID(ctx, propertyID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrPropertyNotFound
		}
		return nil, fmt.Errorf("failed to load property: %w", err)
	}

	knowledge, err := s.properties.ListKnowledge(ctx, property.ID, property.OrgID, s.assembler.knowledgeLimit)
	if err != nil {
		log.Warn().Err(err).Str("property_id", propertyID).Msg("failed to load knowledge base")
		knowledge = nil
	}

	pc := &domain.PropertyContext{Property: *property, Knowledge: knowledge}
	if s.cache != nil {
		if err := s.cache.Set(ctx, propertyID, pc); err != nil {
			log.Warn().Err(err).Str("property_id", propertyID).Msg("failed to cache property context")
		}
	}
	return pc, nil
}

// loadSession gets the session or creates it on the first message
func (s *ChatService) loadSession(ctx context.Context, req domain.ChatRequest, propertyOrg string) (*domain.Session, error) {
	session, err := s.sessions.Get(ctx, req.SessionID)
	if err == nil {
		return session, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	owner := strings.TrimSpace(req.OwnerOrgID)
	if owner == "" {
		owner = propertyOrg
	}
	now := s.now().UTC()
	created := &domain.Session{
		ID:            req.SessionID,
		PropertyID:    req.PropertyID,
		OwnerOrgID:    owner,
		ResellerOrgID: strings.TrimSpace(req.ResellerOrgID),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.sessions.Create(ctx, created); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	// Re-read: a concurrent first message may have created it
	session, err = s.sessions.Get(ctx, req.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return session, nil
}

func validateRequest(req domain.ChatRequest) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fe.Field())
		}
		return &ValidationError{Fields: fields}
	}
	return &ValidationError{}
}

func classifyGatewayError(provider string, err error) *GatewayError {
	switch {
	case errors.Is(err, llm.ErrQuotaExceeded):
		return &GatewayError{Kind: GatewayQuota, Provider: provider, Err: err}
	case errors.Is(err, llm.ErrRateLimited):
		return &GatewayError{Kind: GatewayThrottled, Provider: provider, Err: err}
	default:
		return &GatewayError{Kind: GatewayFailed, Provider: provider, Err: err}
	}
}
