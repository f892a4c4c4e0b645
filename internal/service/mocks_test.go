package service

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/Rrens/property-assistant/internal/domain"
	"github.com/Rrens/property-assistant/internal/llm"
	"github.com/Rrens/property-assistant/internal/notify"
)

// MockSessionRepository mocks the SessionRepository interface
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) Get(ctx context.Context, id string) (*domain.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *MockSessionRepository) Create(ctx context.Context, session *domain.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionRepository) MergeContact(ctx context.Context, id string, patch domain.ContactPatch) (*domain.Session, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *MockSessionRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockMessageRepository mocks the MessageRepository interface
type MockMessageRepository struct {
	mock.Mock
}

func (m *MockMessageRepository) Create(ctx context.Context, message *domain.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockMessageRepository) ListBySession(ctx context.Context, sessionID string, limit int) ([]domain.Message, error) {
	args := m.Called(ctx, sessionID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Message), args.Error(1)
}

// MockPropertyRepository mocks the PropertyRepository interface
type MockPropertyRepository struct {
	mock.Mock
}

func (m *MockPropertyRepository) GetByID(ctx context.Context, id string) (*domain.Property, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Property), args.Error(1)
}

func (m *MockPropertyRepository) ListKnowledge(ctx context.Context, propertyID, orgID string, limit int) ([]domain.KnowledgeEntry, error) {
	args := m.Called(ctx, propertyID, orgID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.KnowledgeEntry), args.Error(1)
}

// MockLeadRepository mocks the LeadRepository interface
type MockLeadRepository struct {
	mock.Mock
}

func (m *MockLeadRepository) Promote(ctx context.Context, sessionID string, lead *domain.Lead) (bool, error) {
	args := m.Called(ctx, sessionID, lead)
	return args.Bool(0), args.Error(1)
}

// MockSchedulingRepository mocks the SchedulingRepository interface
type MockSchedulingRepository struct {
	mock.Mock
}

func (m *MockSchedulingRepository) Create(ctx context.Context, sessionID string, req *domain.SchedulingRequest) (bool, error) {
	args := m.Called(ctx, sessionID, req)
	return args.Bool(0), args.Error(1)
}

// MockPropertyCache mocks the PropertyCache interface
type MockPropertyCache struct {
	mock.Mock
}

func (m *MockPropertyCache) Get(ctx context.Context, propertyID string) (*domain.PropertyContext, error) {
	args := m.Called(ctx, propertyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PropertyContext), args.Error(1)
}

func (m *MockPropertyCache) Set(ctx context.Context, propertyID string, pc *domain.PropertyContext) error {
	args := m.Called(ctx, propertyID, pc)
	return args.Error(0)
}

func (m *MockPropertyCache) Invalidate(ctx context.Context, propertyID string) error {
	args := m.Called(ctx, propertyID)
	return args.Error(0)
}

// MockProvider mocks the llm.Provider interface
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Name() string              { return "mock" }
func (m *MockProvider) AvailableModels() []string { return []string{"mock-1"} }
func (m *MockProvider) DefaultModel() string      { return "mock-1" }
func (m *MockProvider) IsConfigured() bool        { return true }

func (m *MockProvider) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*llm.ChatResponse), args.Error(1)
}

// recordingPublisher collects published events
type recordingPublisher struct {
	mu     sync.Mutex
	events []notify.Event
}

func (p *recordingPublisher) Publish(e notify.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) Events() []notify.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]notify.Event(nil), p.events...)
}

// withTools matches a chat request that offers tool definitions
func withTools(req llm.ChatRequest) bool {
	return len(req.Tools) > 0 && req.ToolChoice == llm.ToolChoiceAuto
}

// withoutTools matches the forced text follow-up
func withoutTools(req llm.ChatRequest) bool {
	return len(req.Tools) == 0
}
