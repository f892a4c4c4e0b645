package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/property-assistant/internal/domain"
)

func TestSessionService_GetSession(t *testing.T) {
	sessions := new(MockSessionRepository)
	svc := NewSessionService(sessions, nil, nil, nil)
	ctx := context.Background()

	sessions.On("Get", ctx, "s1").Return(&domain.Session{ID: "s1", OwnerOrgID: "org-a", ResellerOrgID: "org-r"}, nil)
	sessions.On("Get", ctx, "missing").Return(nil, domain.ErrNotFound)
	sessions.On("Get", ctx, "broken").Return(nil, errors.New("db down"))

	t.Run("owner", func(t *testing.T) {
		s, err := svc.GetSession(ctx, "org-a", "s1")
		require.NoError(t, err)
		assert.Equal(t, "s1", s.ID)
	})

	t.Run("reseller", func(t *testing.T) {
		_, err := svc.GetSession(ctx, "org-r", "s1")
		assert.NoError(t, err)
	})

	t.Run("other organization", func(t *testing.T) {
		_, err := svc.GetSession(ctx, "org-x", "s1")
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := svc.GetSession(ctx, "org-a", "missing")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("store error", func(t *testing.T) {
		_, err := svc.GetSession(ctx, "org-a", "broken")
		require.Error(t, err)
		assert.False(t, errors.Is(err, domain.ErrNotFound))
	})
}

func TestSessionService_ListMessagesClampsLimit(t *testing.T) {
	sessions := new(MockSessionRepository)
	messages := new(MockMessageRepository)
	svc := NewSessionService(sessions, messages, nil, nil)
	ctx := context.Background()

	sessions.On("Get", ctx, "s1").Return(&domain.Session{ID: "s1", OwnerOrgID: "org-a"}, nil)
	messages.On("ListBySession", ctx, "s1", 50).Return(nil, nil).Once()
	messages.On("ListBySession", ctx, "s1", 200).Return([]domain.Message{{Content: "oi"}}, nil).Once()

	got, err := svc.ListMessages(ctx, "org-a", "s1", 0)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	got, err = svc.ListMessages(ctx, "org-a", "s1", 5000)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = svc.ListMessages(ctx, "org-b", "s1", 10)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	messages.AssertExpectations(t)
}

func TestSessionService_InvalidatePropertyCache(t *testing.T) {
	properties := new(MockPropertyRepository)
	cache := new(MockPropertyCache)
	svc := NewSessionService(nil, nil, properties, cache)
	ctx := context.Background()

	properties.On("GetByID", ctx, "p1").Return(&domain.Property{ID: "p1", OrgID: "org-a"}, nil)
	properties.On("GetByID", ctx, "p404").Return(nil, domain.ErrNotFound)
	cache.On("Invalidate", ctx, "p1").Return(nil).Once()

	require.NoError(t, svc.InvalidatePropertyCache(ctx, "org-a", "p1"))
	assert.ErrorIs(t, svc.InvalidatePropertyCache(ctx, "org-b", "p1"), domain.ErrForbidden)
	assert.ErrorIs(t, svc.InvalidatePropertyCache(ctx, "org-a", "p404"), domain.ErrNotFound)
	cache.AssertNumberOfCalls(t, "Invalidate", 1)
	cache.AssertExpectations(t)

	// Nil cache is a no-op
	noCache := NewSessionService(nil, nil, properties, nil)
	assert.NoError(t, noCache.InvalidatePropertyCache(ctx, "org-a", "p1"))
}
