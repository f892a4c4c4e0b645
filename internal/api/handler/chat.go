package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/Rrens/property-assistant/internal/api/response"
	"github.com/Rrens/property-assistant/internal/domain"
	"github.com/Rrens/property-assistant/internal/ratelimit"
	"github.com/Rrens/property-assistant/internal/service"
)

// maxChatBody bounds the request body; messages are capped far below this
const maxChatBody = 64 << 10

// gatewayRetryAfter is the Retry-After hint, in seconds, when the model provider throttles us
const gatewayRetryAfter = 30

// Error codes returned to the chat widget
const (
	CodeInvalidRequest   = "invalid_request"
	CodeRateLimited      = "rate_limited"
	CodeAIRateLimited    = "ai_rate_limited"
	CodeAIQuotaExceeded  = "ai_quota_exceeded"
	CodePropertyNotFound = "property_not_found"
	CodeInternalError    = "internal_error"
)

// Visitor-facing replies for each failure class
const (
	replyInvalidRequest   = "Não consegui entender sua mensagem. Pode tentar novamente?"
	replyRateLimited      = "Você enviou muitas mensagens em pouco tempo. Aguarde um instante e tente de novo."
	replyAIRateLimited    = "Estou recebendo muitas conversas agora. Tente novamente em alguns segundos."
	replyAIQuotaExceeded  = "O assistente está temporariamente indisponível. Deixe seu contato que um corretor retorna em breve."
	replyPropertyNotFound = "Não encontrei este imóvel. Ele pode ter sido removido do ar."
	replyInternalError    = "Desculpe, tive um problema para responder agora. Pode tentar novamente?"
)

// ChatService is the conversational core used by ChatHandler
type ChatService interface {
	HandleMessage(ctx context.Context, identity string, req domain.ChatRequest) (*domain.ChatResponse, error)
	CountRejected(ctx context.Context, identity string) error
}

// ChatHandler serves the public chat widget endpoint
type ChatHandler struct {
	chatService ChatService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// Send handles one visitor message
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req domain.ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxChatBody)).Decode(&req); err != nil {
		// undecodable bodies still count against the caller's origin
		identity := ratelimit.ResolveIdentity("", r.Header)
		if rateErr := h.chatService.CountRejected(r.Context(), identity); rateErr != nil {
			writeChatError(w, r, rateErr)
			return
		}
		response.Reply(w, http.StatusBadRequest, CodeInvalidRequest, replyInvalidRequest, 0)
		return
	}

	identity := ratelimit.ResolveIdentity(req.SessionID, r.Header)

	resp, err := h.chatService.HandleMessage(r.Context(), identity, req)
	if err != nil {
		writeChatError(w, r, err)
		return
	}

	response.Raw(w, http.StatusOK, resp)
}

func writeChatError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *service.ValidationError
	var rateErr *service.RateLimitError
	var gatewayErr *service.GatewayError

	switch {
	case errors.As(err, &validationErr):
		response.Reply(w, http.StatusBadRequest, CodeInvalidRequest, replyInvalidRequest, 0)
	case errors.As(err, &rateErr):
		response.Reply(w, http.StatusTooManyRequests, CodeRateLimited, replyRateLimited, rateErr.RetryAfter)
	case errors.Is(err, service.ErrPropertyNotFound):
		response.Reply(w, http.StatusNotFound, CodePropertyNotFound, replyPropertyNotFound, 0)
	case errors.As(err, &gatewayErr) && gatewayErr.Kind == service.GatewayThrottled:
		log.Warn().Err(err).Msg("llm provider throttled chat turn")
		response.Reply(w, http.StatusServiceUnavailable, CodeAIRateLimited, replyAIRateLimited, gatewayRetryAfter)
	case errors.As(err, &gatewayErr) && gatewayErr.Kind == service.GatewayQuota:
		log.Error().Err(err).Msg("llm provider quota exhausted")
		response.Reply(w, http.StatusPaymentRequired, CodeAIQuotaExceeded, replyAIQuotaExceeded, 0)
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("chat turn failed")
		response.Reply(w, http.StatusInternalServerError, CodeInternalError, replyInternalError, 0)
	}
}
