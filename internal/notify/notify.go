// Package notify fans domain events out to downstream systems. Delivery is
// best effort: failures are logged and never reach the chat request.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/property-assistant/internal/domain"
)

// EventType names a downstream event
type EventType string

const (
	EventLeadCreated    EventType = "lead.created"
	EventVisitRequested EventType = "visit.requested"
)

// Event is the payload delivered to every notifier
type Event struct {
	ID            uuid.UUID          `json:"id"`
	Type          EventType          `json:"type"`
	SessionID     string             `json:"session_id"`
	PropertyID    string             `json:"property_id"`
	OwnerOrgID    string             `json:"owner_org_id"`
	ResellerOrgID string             `json:"reseller_org_id,omitempty"`
	EntityID      string             `json:"entity_id"`
	Contact       domain.ContactInfo `json:"contact"`
	Score         int                `json:"qualification_score,omitempty"`
	OccurredAt    time.Time          `json:"occurred_at"`
}

// Notifier delivers one event to one downstream system
type Notifier interface {
	Name() string
	Notify(ctx context.Context, event Event) error
}

// Dispatcher publishes events to all notifiers without blocking the caller
type Dispatcher struct {
	notifiers []Notifier
	timeout   time.Duration
	wg        sync.WaitGroup
}

// NewDispatcher creates a dispatcher; each delivery gets its own timeout
func NewDispatcher(timeout time.Duration, notifiers ...Notifier) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{notifiers: notifiers, timeout: timeout}
}

// Publish delivers event to every notifier in the background
func (d *Dispatcher) Publish(event Event) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	for _, n := range d.notifiers {
		d.wg.Add(1)
		go func(n Notifier) {
			defer d.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.Error().
						Interface("panic", r).
						Str("notifier", n.Name()).
						Str("event", string(event.Type)).
						Str("session_id", event.SessionID).
						Msg("notifier panicked")
				}
			}()

			ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
			defer cancel()

			if err := n.Notify(ctx, event); err != nil {
				log.Warn().
					Err(err).
					Str("notifier", n.Name()).
					Str("event", string(event.Type)).
					Str("session_id", event.SessionID).
					Msg("failed to deliver notification")
				return
			}
			log.Debug().
				Str("notifier", n.Name()).
				Str("event", string(event.Type)).
				Msg("notification delivered")
		}(n)
	}
}

// Wait blocks until in-flight deliveries finish
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Len returns the number of configured notifiers
func (d *Dispatcher) Len() int {
	return len(d.notifiers)
}
