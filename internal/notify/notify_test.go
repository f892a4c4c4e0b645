package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/property-assistant/internal/domain"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []Event
	err    error
	delay  time.Duration
}

func (r *recordingNotifier) Name() string { return "recording" }

func (r *recordingNotifier) Notify(ctx context.Context, e Event) error {
	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return r.err
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestDispatcher_PublishFansOut(t *testing.T) {
	a := &recordingNotifier{}
	b := &recordingNotifier{err: errors.New("downstream down")}
	d := NewDispatcher(time.Second, a, b)

	d.Publish(Event{Type: EventLeadCreated, SessionID: "s1"})
	d.Wait()

	require.Equal(t, 1, a.count())
	assert.Equal(t, 1, b.count())
	assert.NotEqual(t, "", a.events[0].ID.String())
	assert.False(t, a.events[0].OccurredAt.IsZero())
}

type panickingNotifier struct{}

func (panickingNotifier) Name() string { return "panicking" }

func (panickingNotifier) Notify(context.Context, Event) error {
	panic("nil map write")
}

func TestDispatcher_NotifierPanicIsContained(t *testing.T) {
	ok := &recordingNotifier{}
	d := NewDispatcher(time.Second, panickingNotifier{}, ok)

	assert.NotPanics(t, func() {
		d.Publish(Event{Type: EventLeadCreated, SessionID: "s1"})
		d.Wait()
	})
	assert.Equal(t, 1, ok.count())
}

func TestDispatcher_TimeoutBoundsSlowNotifier(t *testing.T) {
	slow := &recordingNotifier{delay: time.Second}
	d := NewDispatcher(20*time.Millisecond, slow)

	start := time.Now()
	d.Publish(Event{Type: EventVisitRequested})
	d.Wait()

	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, 0, slow.count())
}

func TestDispatcher_PublishDoesNotBlock(t *testing.T) {
	slow := &recordingNotifier{delay: 200 * time.Millisecond}
	d := NewDispatcher(time.Second, slow)

	start := time.Now()
	d.Publish(Event{Type: EventLeadCreated})
	assert.Less(t, time.Since(start), 100*time.Millisecond)
	d.Wait()
}

func TestWebhookNotifier_Notify(t *testing.T) {
	var got Event
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "lead.created", r.Header.Get("X-Event-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL)
	err := n.Notify(context.Background(), Event{
		Type:      EventLeadCreated,
		SessionID: "s1",
		Contact:   domain.ContactInfo{Name: "João", Phone: "11999999999"},
	})
	require.NoError(t, err)
	assert.Equal(t, "s1", got.SessionID)
	assert.Equal(t, "João", got.Contact.Name)
}

func TestWebhookNotifier_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewWebhookNotifier(srv.URL).Notify(context.Background(), Event{Type: EventLeadCreated})
	assert.ErrorContains(t, err, "502")
}
