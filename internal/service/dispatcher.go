package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/property-assistant/internal/domain"
	"github.com/Rrens/property-assistant/internal/llm"
	"github.com/Rrens/property-assistant/internal/notify"
)

// EventPublisher delivers downstream notifications without blocking
type EventPublisher interface {
	Publish(event notify.Event)
}

// TurnState is the mutable state of one chat turn. The dispatcher keeps
// Session current as tool calls merge contact data into it.
type TurnState struct {
	Session     *domain.Session
	ToolCalls   []string
	SideEffects []domain.SideEffect
}

// ToolOutcome is the result of executing one tool invocation
type ToolOutcome struct {
	Success bool
	Result  map[string]any
	Effects []domain.SideEffect
}

// Content renders the result as the tool message returned to the model
func (o ToolOutcome) Content() string {
	data, err := json.Marshal(o.Result)
	if err != nil {
		return `{"success":false}`
	}
	return string(data)
}

// Dispatcher turns tool invocations into idempotent mutations
type Dispatcher struct {
	sessions   domain.SessionRepository
	leads      domain.LeadRepository
	scheduling domain.SchedulingRepository
	events     EventPublisher
	location   *time.Location
	now        func() time.Time
}

// NewDispatcher creates a dispatcher. events may be nil.
func NewDispatcher(
	sessions domain.SessionRepository,
	leads domain.LeadRepository,
	scheduling domain.SchedulingRepository,
	events EventPublisher,
) *Dispatcher {
	return &Dispatcher{
		sessions:   sessions,
		leads:      leads,
		scheduling: scheduling,
		events:     events,
		location:   time.FixedZone("BRT", -3*60*60),
		now:        time.Now,
	}
}

// Execute runs one tool invocation. It never returns an error: failures are
// logged and reported to the model in the outcome, and only successful
// effects are recorded on the turn.
func (d *Dispatcher) Execute(ctx context.Context, state *TurnState, call llm.ToolCall) ToolOutcome {
	state.ToolCalls = append(state.ToolCalls, call.Name)

	var outcome ToolOutcome
	switch call.Name {
	case ToolCaptureContact:
		outcome = d.captureContact(ctx, state, call)
	case ToolRequestScheduling:
		outcome = d.requestScheduling(ctx, state, call)
	default:
		log.Warn().
			Str("session_id", state.Session.ID).
			Str("tool", call.Name).
			Msg("model called unknown tool")
		outcome = failed("ferramenta desconhecida")
	}

	state.SideEffects = append(state.SideEffects, outcome.Effects...)
	return outcome
}

func (d *Dispatcher) captureContact(ctx context.Context, state *TurnState, call llm.ToolCall) ToolOutcome {
	logger := log.With().Str("session_id", state.Session.ID).Str("tool", call.Name).Logger()

	args, err := parseContactArgs(call.Arguments)
	if err != nil {
		logger.Warn().Err(err).Str("arguments", call.Arguments).Msg("ignoring tool call with malformed arguments")
		return failed("argumentos inválidos")
	}
	if len(args.Rejected) > 0 {
		logger.Info().Strs("fields", args.Rejected).Msg("ignored invalid contact values")
	}

	outcome := ToolOutcome{
		Success: true,
		Result: map[string]any{
			"success":      true,
			"saved_fields": nonNil(args.Fields),
		},
	}
	if len(args.Rejected) > 0 {
		outcome.Result["invalid_fields"] = args.Rejected
	}

	if !args.Patch.Empty() {
		merged, err := d.sessions.MergeContact(ctx, state.Session.ID, args.Patch)
		if err != nil {
			logger.Error().Err(err).Msg("failed to merge contact")
			return failed("não foi possível salvar os dados agora")
		}
		state.Session = merged
		outcome.Effects = append(outcome.Effects, domain.SideEffect{
			Type:   domain.EffectContactUpdated,
			Tool:   call.Name,
			Fields: args.Fields,
		})
	}

	session := state.Session
	if !session.Contact.HasChannel() || session.LeadPromoted {
		outcome.Result["lead_registered"] = session.LeadPromoted
		return outcome
	}

	lead := domain.NewLeadFromSession(session, d.now().UTC())
	created, err := d.leads.Promote(ctx, session.ID, lead)
	if err != nil {
		logger.Error().Err(err).Msg("failed to promote lead")
		outcome.Result["lead_registered"] = false
		return outcome
	}

	session.LeadPromoted = true
	outcome.Result["lead_registered"] = true
	if !created {
		logger.Debug().Msg("lead already promoted by a concurrent turn")
		return outcome
	}

	session.LeadID = lead.ID.String()
	outcome.Effects = append(outcome.Effects, domain.SideEffect{
		Type:   domain.EffectLeadCreated,
		Tool:   call.Name,
		LeadID: session.LeadID,
	})
	logger.Info().Str("lead_id", session.LeadID).Int("score", lead.QualificationScore).Msg("lead created")

	d.publish(notify.EventLeadCreated, session, session.LeadID)
	return outcome
}

func (d *Dispatcher) requestScheduling(ctx context.Context, state *TurnState, call llm.ToolCall) ToolOutcome {
	logger := log.With().Str("session_id", state.Session.ID).Str("tool", call.Name).Logger()
	session := state.Session

	args, err := parseSchedulingArgs(call.Arguments, d.now().In(d.location), d.location)
	if err != nil {
		logger.Warn().Err(err).Str("arguments", call.Arguments).Msg("ignoring tool call with malformed arguments")
		return failed("argumentos inválidos")
	}

	if session.SchedulingCreated {
		return alreadyRequested(call.Name, session.SchedulingID)
	}

	if missing := missingForScheduling(session.Contact); len(missing) > 0 {
		return ToolOutcome{
			Result: map[string]any{
				"success": false,
				"status":  "pending",
				"reason":  "insufficient_contact_data",
				"missing": missing,
			},
			Effects: []domain.SideEffect{{
				Type:   domain.EffectSchedulingPending,
				Tool:   call.Name,
				Reason: "insufficient_contact_data",
				Fields: missing,
			}},
		}
	}

	if len(args.Defaulted) > 0 {
		logger.Info().Strs("options", args.Defaulted).Msg("scheduling option missing or unreadable, defaulted to now")
	}

	req := &domain.SchedulingRequest{
		ID:            uuid.New(),
		SessionID:     session.ID,
		PropertyID:    session.PropertyID,
		OwnerOrgID:    session.OwnerOrgID,
		ResellerOrgID: session.ResellerOrgID,
		LeadID:        session.LeadID,
		ContactName:   session.Contact.Name,
		ContactEmail:  session.Contact.Email,
		ContactPhone:  session.Contact.Phone,
		Option1:       args.Option1.UTC(),
		Option2:       args.Option2.UTC(),
		Notes:         args.Notes,
		Status:        domain.SchedulingStatusPending,
		CreatedAt:     d.now().UTC(),
	}

	created, err := d.scheduling.Create(ctx, session.ID, req)
	if err != nil {
		logger.Error().Err(err).Msg("failed to create scheduling request")
		return failed("não foi possível registrar a visita agora")
	}

	session.SchedulingCreated = true
	if !created {
		logger.Debug().Msg("scheduling already created by a concurrent turn")
		return alreadyRequested(call.Name, session.SchedulingID)
	}

	session.SchedulingID = req.ID.String()
	logger.Info().Str("scheduling_id", session.SchedulingID).Msg("scheduling request created")
	d.publish(notify.EventVisitRequested, session, session.SchedulingID)

	return ToolOutcome{
		Success: true,
		Result: map[string]any{
			"success":  true,
			"status":   string(domain.SchedulingStatusPending),
			"option_1": args.Option1.Format("02/01/2006 15:04"),
			"option_2": args.Option2.Format("02/01/2006 15:04"),
		},
		Effects: []domain.SideEffect{{
			Type:         domain.EffectSchedulingCreated,
			Tool:         call.Name,
			SchedulingID: session.SchedulingID,
		}},
	}
}

func (d *Dispatcher) publish(eventType notify.EventType, s *domain.Session, entityID string) {
	if d.events == nil {
		return
	}
	d.events.Publish(notify.Event{
		Type:          eventType,
		SessionID:     s.ID,
		PropertyID:    s.PropertyID,
		OwnerOrgID:    s.OwnerOrgID,
		ResellerOrgID: s.ResellerOrgID,
		EntityID:      entityID,
		Contact:       s.Contact,
		Score:         s.QualificationScore,
		OccurredAt:    d.now().UTC(),
	})
}

func missingForScheduling(c domain.ContactInfo) []string {
	var missing []string
	if c.Name == "" {
		missing = append(missing, "name")
	}
	if !c.HasChannel() {
		missing = append(missing, "email_or_phone")
	}
	return missing
}

func alreadyRequested(tool, schedulingID string) ToolOutcome {
	return ToolOutcome{
		Result: map[string]any{
			"success": false,
			"status":  "already_requested",
		},
		Effects: []domain.SideEffect{{
			Type:         domain.EffectSchedulingExisting,
			Tool:         tool,
			SchedulingID: schedulingID,
		}},
	}
}

func failed(message string) ToolOutcome {
	return ToolOutcome{Result: map[string]any{"success": false, "error": message}}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
