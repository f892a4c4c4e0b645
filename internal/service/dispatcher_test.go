package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/property-assistant/internal/domain"
	"github.com/Rrens/property-assistant/internal/llm"
	"github.com/Rrens/property-assistant/internal/notify"
)

type dispatcherFixture struct {
	sessions   *MockSessionRepository
	leads      *MockLeadRepository
	scheduling *MockSchedulingRepository
	events     *recordingPublisher
	dispatcher *Dispatcher
}

func newDispatcherFixture() *dispatcherFixture {
	f := &dispatcherFixture{
		sessions:   new(MockSessionRepository),
		leads:      new(MockLeadRepository),
		scheduling: new(MockSchedulingRepository),
		events:     &recordingPublisher{},
	}
	f.dispatcher = NewDispatcher(f.sessions, f.leads, f.scheduling, f.events)
	f.dispatcher.now = func() time.Time { return time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC) }
	return f
}

func captureCall(args string) llm.ToolCall {
	return llm.ToolCall{ID: "call_1", Name: ToolCaptureContact, Arguments: args}
}

func schedulingCall(args string) llm.ToolCall {
	return llm.ToolCall{ID: "call_2", Name: ToolRequestScheduling, Arguments: args}
}

func TestDispatcher_CaptureNameOnlyDoesNotPromote(t *testing.T) {
	f := newDispatcherFixture()
	ctx := context.Background()
	session := &domain.Session{ID: "s1"}
	merged := &domain.Session{ID: "s1", Contact: domain.ContactInfo{Name: "João"}}

	f.sessions.On("MergeContact", ctx, "s1", mock.MatchedBy(func(p domain.ContactPatch) bool {
		return p.Name != nil && *p.Name == "João" && p.Phone == nil && p.Email == nil
	})).Return(merged, nil)

	state := &TurnState{Session: session}
	out := f.dispatcher.Execute(ctx, state, captureCall(`{"name":"João"}`))

	assert.True(t, out.Success)
	assert.Equal(t, "João", state.Session.Contact.Name)
	require.Len(t, state.SideEffects, 1)
	assert.Equal(t, domain.EffectContactUpdated, state.SideEffects[0].Type)
	assert.Equal(t, []string{ToolCaptureContact}, state.ToolCalls)
	f.leads.AssertNotCalled(t, "Promote", mock.Anything, mock.Anything, mock.Anything)
	f.sessions.AssertExpectations(t)
}

func TestDispatcher_CapturePhonePromotesLeadOnce(t *testing.T) {
	f := newDispatcherFixture()
	ctx := context.Background()
	session := &domain.Session{ID: "s1", PropertyID: "p1", OwnerOrgID: "org-a", Contact: domain.ContactInfo{Name: "João"}}
	merged := &domain.Session{
		ID:            "s1",
		PropertyID:    "p1",
		OwnerOrgID:    "org-a",
		Contact:       domain.ContactInfo{Name: "João", Phone: "11999999999"},
		InterestLevel: domain.InterestHigh,
	}
	merged.QualificationScore = 90

	f.sessions.On("MergeContact", ctx, "s1", mock.Anything).Return(merged, nil)
	f.leads.On("Promote", ctx, "s1", mock.MatchedBy(func(l *domain.Lead) bool {
		return l.Name == "João" && l.Phone == "11999999999" && l.QualificationScore == 90
	})).Return(true, nil).Once()

	state := &TurnState{Session: session}
	out := f.dispatcher.Execute(ctx, state, captureCall(`{"phone":"11999999999","interest_level":"high"}`))

	assert.True(t, out.Success)
	assert.Equal(t, true, out.Result["lead_registered"])
	assert.True(t, state.Session.LeadPromoted)
	require.Len(t, state.SideEffects, 2)
	assert.Equal(t, domain.EffectLeadCreated, state.SideEffects[1].Type)
	assert.Equal(t, state.Session.LeadID, state.SideEffects[1].LeadID)

	events := f.events.Events()
	require.Len(t, events, 1)
	assert.Equal(t, notify.EventLeadCreated, events[0].Type)
	assert.Equal(t, "org-a", events[0].OwnerOrgID)

	// A later capture on the same turn sees the promoted flag and skips promotion
	f.dispatcher.Execute(ctx, state, captureCall(`{"email":"joao@example.com"}`))
	f.leads.AssertNumberOfCalls(t, "Promote", 1)
}

func TestDispatcher_PromoteAlreadyDoneIsBenign(t *testing.T) {
	f := newDispatcherFixture()
	ctx := context.Background()
	merged := &domain.Session{ID: "s1", Contact: domain.ContactInfo{Email: "a@b.com"}}

	f.sessions.On("MergeContact", ctx, "s1", mock.Anything).Return(merged, nil)
	f.leads.On("Promote", ctx, "s1", mock.Anything).Return(false, nil)

	state := &TurnState{Session: &domain.Session{ID: "s1"}}
	out := f.dispatcher.Execute(ctx, state, captureCall(`{"email":"a@b.com"}`))

	assert.True(t, out.Success)
	assert.True(t, state.Session.LeadPromoted)
	require.Len(t, state.SideEffects, 1)
	assert.Equal(t, domain.EffectContactUpdated, state.SideEffects[0].Type)
	assert.Empty(t, f.events.Events())
}

func TestDispatcher_PromoteFailureOmitsLeadEffect(t *testing.T) {
	f := newDispatcherFixture()
	ctx := context.Background()
	merged := &domain.Session{ID: "s1", Contact: domain.ContactInfo{Phone: "11999999999"}}

	f.sessions.On("MergeContact", ctx, "s1", mock.Anything).Return(merged, nil)
	f.leads.On("Promote", ctx, "s1", mock.Anything).Return(false, errors.New("db down"))

	state := &TurnState{Session: &domain.Session{ID: "s1"}}
	out := f.dispatcher.Execute(ctx, state, captureCall(`{"phone":"11999999999"}`))

	assert.True(t, out.Success)
	assert.Equal(t, false, out.Result["lead_registered"])
	assert.False(t, state.Session.LeadPromoted)
	require.Len(t, state.SideEffects, 1)
	assert.Equal(t, domain.EffectContactUpdated, state.SideEffects[0].Type)
}

func TestDispatcher_MergeFailureRecordsNothing(t *testing.T) {
	f := newDispatcherFixture()
	ctx := context.Background()
	f.sessions.On("MergeContact", ctx, "s1", mock.Anything).Return(nil, errors.New("db down"))

	state := &TurnState{Session: &domain.Session{ID: "s1"}}
	out := f.dispatcher.Execute(ctx, state, captureCall(`{"name":"Ana"}`))

	assert.False(t, out.Success)
	assert.Contains(t, out.Content(), `"success":false`)
	assert.Empty(t, state.SideEffects)
	f.leads.AssertNotCalled(t, "Promote", mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatcher_MalformedArgumentsSkipped(t *testing.T) {
	f := newDispatcherFixture()
	state := &TurnState{Session: &domain.Session{ID: "s1"}}

	out := f.dispatcher.Execute(context.Background(), state, captureCall(`{"name":`))

	assert.False(t, out.Success)
	assert.Empty(t, state.SideEffects)
	assert.Equal(t, []string{ToolCaptureContact}, state.ToolCalls)
	f.sessions.AssertNotCalled(t, "MergeContact", mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatcher_UnknownTool(t *testing.T) {
	f := newDispatcherFixture()
	state := &TurnState{Session: &domain.Session{ID: "s1"}}

	out := f.dispatcher.Execute(context.Background(), state, llm.ToolCall{Name: "send_brochure"})

	assert.False(t, out.Success)
	assert.Empty(t, state.SideEffects)
}

func TestDispatcher_SchedulingPendingWithoutChannel(t *testing.T) {
	f := newDispatcherFixture()
	state := &TurnState{Session: &domain.Session{ID: "s1", Contact: domain.ContactInfo{Name: "João"}}}

	out := f.dispatcher.Execute(context.Background(), state, schedulingCall(`{"option_1":"2026-10-24 10:00"}`))

	assert.False(t, out.Success)
	assert.Equal(t, "pending", out.Result["status"])
	require.Len(t, state.SideEffects, 1)
	assert.Equal(t, domain.EffectSchedulingPending, state.SideEffects[0].Type)
	assert.Equal(t, []string{"email_or_phone"}, state.SideEffects[0].Fields)
	f.scheduling.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatcher_SchedulingPendingWithoutName(t *testing.T) {
	f := newDispatcherFixture()
	state := &TurnState{Session: &domain.Session{ID: "s1", Contact: domain.ContactInfo{Phone: "11999999999"}}}

	f.dispatcher.Execute(context.Background(), state, schedulingCall(`{}`))

	require.Len(t, state.SideEffects, 1)
	assert.Equal(t, []string{"name"}, state.SideEffects[0].Fields)
}

func TestDispatcher_SchedulingCreated(t *testing.T) {
	f := newDispatcherFixture()
	ctx := context.Background()
	session := &domain.Session{
		ID:         "s1",
		PropertyID: "p1",
		OwnerOrgID: "org-a",
		LeadID:     "lead-1",
		Contact:    domain.ContactInfo{Name: "João", Phone: "11999999999"},
	}

	f.scheduling.On("Create", ctx, "s1", mock.MatchedBy(func(r *domain.SchedulingRequest) bool {
		return r.ContactName == "João" &&
			r.LeadID == "lead-1" &&
			r.Status == domain.SchedulingStatusPending &&
			r.Option1.Equal(time.Date(2026, 10, 24, 13, 0, 0, 0, time.UTC))
	})).Return(true, nil)

	state := &TurnState{Session: session}
	out := f.dispatcher.Execute(ctx, state, schedulingCall(`{"option_1":"2026-10-24 10:00","option_2":"2026-10-24 15:00"}`))

	assert.True(t, out.Success)
	assert.True(t, state.Session.SchedulingCreated)
	require.Len(t, state.SideEffects, 1)
	assert.Equal(t, domain.EffectSchedulingCreated, state.SideEffects[0].Type)
	assert.NotEmpty(t, state.SideEffects[0].SchedulingID)

	events := f.events.Events()
	require.Len(t, events, 1)
	assert.Equal(t, notify.EventVisitRequested, events[0].Type)
	f.scheduling.AssertExpectations(t)
}

func TestDispatcher_SchedulingAlreadyRequested(t *testing.T) {
	f := newDispatcherFixture()
	state := &TurnState{Session: &domain.Session{
		ID:                "s1",
		Contact:           domain.ContactInfo{Name: "João", Phone: "11999999999"},
		SchedulingCreated: true,
		SchedulingID:      "visit-1",
	}}

	out := f.dispatcher.Execute(context.Background(), state, schedulingCall(`{}`))

	assert.Equal(t, "already_requested", out.Result["status"])
	require.Len(t, state.SideEffects, 1)
	assert.Equal(t, domain.EffectSchedulingExisting, state.SideEffects[0].Type)
	assert.Equal(t, "visit-1", state.SideEffects[0].SchedulingID)
	f.scheduling.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatcher_SchedulingConditionalWriteLost(t *testing.T) {
	f := newDispatcherFixture()
	ctx := context.Background()
	f.scheduling.On("Create", ctx, "s1", mock.Anything).Return(false, nil)

	state := &TurnState{Session: &domain.Session{ID: "s1", Contact: domain.ContactInfo{Name: "Ana", Email: "ana@x.com"}}}
	out := f.dispatcher.Execute(ctx, state, schedulingCall(`{}`))

	assert.Equal(t, "already_requested", out.Result["status"])
	assert.True(t, state.Session.SchedulingCreated)
	assert.Empty(t, f.events.Events())
}

func TestDispatcher_SchedulingStoreFailureOmitted(t *testing.T) {
	f := newDispatcherFixture()
	ctx := context.Background()
	f.scheduling.On("Create", ctx, "s1", mock.Anything).Return(false, errors.New("timeout"))

	state := &TurnState{Session: &domain.Session{ID: "s1", Contact: domain.ContactInfo{Name: "Ana", Email: "ana@x.com"}}}
	out := f.dispatcher.Execute(ctx, state, schedulingCall(`{}`))

	assert.False(t, out.Success)
	assert.Empty(t, state.SideEffects)
	assert.False(t, state.Session.SchedulingCreated)
}
