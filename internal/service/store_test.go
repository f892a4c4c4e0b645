package service

import (
	"context"
	"sync"

	"github.com/Rrens/property-assistant/internal/domain"
)

// memoryStore is an in-process store with the same conditional-write
// semantics as the SQL repositories, used by scenario tests.
type memoryStore struct {
	mu         sync.Mutex
	sessions   map[string]domain.Session
	messages   map[string][]domain.Message
	properties map[string]domain.Property
	knowledge  map[string][]domain.KnowledgeEntry
	leads      []domain.Lead
	visits     []domain.SchedulingRequest
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		sessions:   make(map[string]domain.Session),
		messages:   make(map[string][]domain.Message),
		properties: make(map[string]domain.Property),
		knowledge:  make(map[string][]domain.KnowledgeEntry),
	}
}

type memSessions struct{ *memoryStore }
type memMessages struct{ *memoryStore }
type memProperties struct{ *memoryStore }
type memLeads struct{ *memoryStore }
type memScheduling struct{ *memoryStore }

func (s memSessions) Get(_ context.Context, id string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &session, nil
}

func (s memSessions) Create(_ context.Context, session *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[session.ID]; !ok {
		s.sessions[session.ID] = *session
	}
	return nil
}

func (s memSessions) MergeContact(_ context.Context, id string, patch domain.ContactPatch) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	merged := patch.Apply(session)
	s.sessions[id] = merged
	return &merged, nil
}

func (s memSessions) Ping(context.Context) error { return nil }

func (s memMessages) Create(_ context.Context, m *domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[m.SessionID] = append(s.messages[m.SessionID], *m)
	return nil
}

func (s memMessages) ListBySession(_ context.Context, sessionID string, limit int) ([]domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.messages[sessionID]
	if len(all) > limit {
		all = all[len(all)-limit:]
	}
	return append([]domain.Message(nil), all...), nil
}

func (s memProperties) GetByID(_ context.Context, id string) (*domain.Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.properties[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (s memProperties) ListKnowledge(_ context.Context, propertyID, _ string, limit int) ([]domain.KnowledgeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.knowledge[propertyID]
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (s memLeads) Promote(_ context.Context, sessionID string, lead *domain.Lead) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok || session.LeadPromoted {
		return false, nil
	}
	session.LeadPromoted = true
	session.LeadID = lead.ID.String()
	s.sessions[sessionID] = session
	s.leads = append(s.leads, *lead)
	return true, nil
}

func (s memScheduling) Create(_ context.Context, sessionID string, req *domain.SchedulingRequest) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok || session.SchedulingCreated {
		return false, nil
	}
	session.SchedulingCreated = true
	session.SchedulingID = req.ID.String()
	s.sessions[sessionID] = session
	s.visits = append(s.visits, *req)
	return true, nil
}

func (s *memoryStore) leadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.leads)
}

func (s *memoryStore) visitCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.visits)
}

func (s *memoryStore) session(id string) domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[id]
}
