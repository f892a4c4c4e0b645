package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/property-assistant/internal/api/middleware"
	"github.com/Rrens/property-assistant/internal/api/response"
	"github.com/Rrens/property-assistant/internal/domain"
)

// SessionService is the operator read API over conversations
type SessionService interface {
	GetSession(ctx context.Context, orgID, sessionID string) (*domain.Session, error)
	ListMessages(ctx context.Context, orgID, sessionID string, limit int) ([]domain.Message, error)
	InvalidatePropertyCache(ctx context.Context, orgID, propertyID string) error
}

// SessionHandler serves operator endpoints
type SessionHandler struct {
	sessionService SessionService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessionService SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// Get returns a session's captured contact and flags
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	orgID, ok := middleware.GetOrgID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	session, err := h.sessionService.GetSession(r.Context(), orgID, chi.URLParam(r, "sessionID"))
	if err != nil {
		writeLookupError(w, err, "session")
		return
	}

	response.OK(w, session)
}

// Messages returns a session's latest messages, oldest first
func (h *SessionHandler) Messages(w http.ResponseWriter, r *http.Request) {
	orgID, ok := middleware.GetOrgID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		v, err := strconv.Atoi(l)
		if err != nil || v <= 0 {
			response.BadRequest(w, "limit must be a positive integer")
			return
		}
		limit = v
	}

	messages, err := h.sessionService.ListMessages(r.Context(), orgID, chi.URLParam(r, "sessionID"), limit)
	if err != nil {
		writeLookupError(w, err, "session")
		return
	}

	response.OK(w, map[string]any{
		"messages": messages,
		"count":    len(messages),
	})
}

// InvalidateCache drops the cached context of a property
func (h *SessionHandler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	orgID, ok := middleware.GetOrgID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	propertyID := chi.URLParam(r, "propertyID")
	if err := h.sessionService.InvalidatePropertyCache(r.Context(), orgID, propertyID); err != nil {
		writeLookupError(w, err, "property")
		return
	}

	response.OK(w, map[string]string{
		"message":     "cache invalidated",
		"property_id": propertyID,
	})
}

func writeLookupError(w http.ResponseWriter, err error, resource string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		response.NotFound(w, resource+" not found")
	case errors.Is(err, domain.ErrForbidden):
		response.Forbidden(w, "access denied")
	default:
		log.Error().Err(err).Str("resource", resource).Msg("operator lookup failed")
		response.InternalError(w, "internal error")
	}
}
