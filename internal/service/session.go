package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Rrens/property-assistant/internal/domain"
)

const (
	defaultMessagePage = 50
	maxMessagePage     = 200
)

// SessionService serves operator reads over conversations
type SessionService struct {
	sessions   domain.SessionRepository
	messages   domain.MessageRepository
	properties domain.PropertyRepository
	cache      PropertyCache
}

// NewSessionService creates a new session service. cache may be nil.
func NewSessionService(
	sessions domain.SessionRepository,
	messages domain.MessageRepository,
	properties domain.PropertyRepository,
	cache PropertyCache,
) *SessionService {
	return &SessionService{
		sessions:   sessions,
		messages:   messages,
		properties: properties,
		cache:      cache,
	}
}

// GetSession returns a session visible to orgID
func (s *SessionService) GetSession(ctx context.Context, orgID, sessionID string) (*domain.Session, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if !session.BelongsTo(orgID) {
		return nil, domain.ErrForbidden
	}
	return session, nil
}

// ListMessages returns the latest messages of a session visible to orgID
func (s *SessionService) ListMessages(ctx context.Context, orgID, sessionID string, limit int) ([]domain.Message, error) {
	if _, err := s.GetSession(ctx, orgID, sessionID); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = defaultMessagePage
	}
	if limit > maxMessagePage {
		limit = maxMessagePage
	}

	messages, err := s.messages.ListBySession(ctx, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	if messages == nil {
		messages = []domain.Message{}
	}
	return messages, nil
}

// InvalidatePropertyCache drops cached facts for a property owned by orgID
func (s *SessionService) InvalidatePropertyCache(ctx context.Context, orgID, propertyID string) error {
	property, err := s.properties.GetByID(ctx, propertyID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("failed to get property: %w", err)
	}

	if property.OrgID != orgID {
		return domain.ErrForbidden
	}

	if s.cache == nil {
		return nil
	}
	if err := s.cache.Invalidate(ctx, propertyID); err != nil {
		return fmt.Errorf("failed to invalidate cache: %w", err)
	}
	return nil
}
