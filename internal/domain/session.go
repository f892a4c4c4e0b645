package domain

import (
	"context"
	"time"
)

// InterestLevel is the model's estimate of how ready a visitor is to buy or rent
type InterestLevel string

const (
	InterestHigh   InterestLevel = "high"
	InterestMedium InterestLevel = "medium"
	InterestLow    InterestLevel = "low"
)

// Valid reports whether the level is one of the known tiers
func (l InterestLevel) Valid() bool {
	switch l {
	case InterestHigh, InterestMedium, InterestLow:
		return true
	}
	return false
}

// Score maps an interest tier to the qualification score band stored on the session
func (l InterestLevel) Score() int {
	switch l {
	case InterestHigh:
		return 90
	case InterestMedium:
		return 60
	case InterestLow:
		return 30
	}
	return 0
}

// ContactInfo holds the contact fields captured during a conversation.
// Empty strings mean "not yet provided".
type ContactInfo struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// HasChannel reports whether at least one way to reach the visitor is known
func (c ContactInfo) HasChannel() bool {
	return c.Email != "" || c.Phone != ""
}

// ContactPatch is a partial update to a session's captured contact.
// Nil fields leave the stored value untouched.
type ContactPatch struct {
	Name          *string
	Email         *string
	Phone         *string
	InterestLevel *InterestLevel
	Context       *string
}

// Empty reports whether the patch changes nothing
func (p ContactPatch) Empty() bool {
	return p.Name == nil && p.Email == nil && p.Phone == nil && p.InterestLevel == nil && p.Context == nil
}

// Apply merges the patch into a copy of the session state and returns it
func (p ContactPatch) Apply(s Session) Session {
	if p.Name != nil {
		s.Contact.Name = *p.Name
	}
	if p.Email != nil {
		s.Contact.Email = *p.Email
	}
	if p.Phone != nil {
		s.Contact.Phone = *p.Phone
	}
	if p.InterestLevel != nil {
		s.InterestLevel = *p.InterestLevel
		s.QualificationScore = p.InterestLevel.Score()
	}
	if p.Context != nil {
		s.ContactContext = *p.Context
	}
	return s
}

// Session is the multi-turn conversation state for one visitor on one property.
// The ID is chosen by the caller and is opaque to the server.
type Session struct {
	ID                 string        `json:"id"`
	PropertyID         string        `json:"property_id"`
	OwnerOrgID         string        `json:"owner_org_id"`
	ResellerOrgID      string        `json:"reseller_org_id,omitempty"`
	Contact            ContactInfo   `json:"contact"`
	ContactContext     string        `json:"contact_context,omitempty"`
	InterestLevel      InterestLevel `json:"interest_level,omitempty"`
	QualificationScore int           `json:"qualification_score"`
	LeadPromoted       bool          `json:"lead_promoted"`
	LeadID             string        `json:"lead_id,omitempty"`
	SchedulingCreated  bool          `json:"scheduling_created"`
	SchedulingID       string        `json:"scheduling_id,omitempty"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

// BelongsTo reports whether an organization owns or resells the session's property
func (s *Session) BelongsTo(orgID string) bool {
	if orgID == "" {
		return false
	}
	return s.OwnerOrgID == orgID || (s.ResellerOrgID != "" && s.ResellerOrgID == orgID)
}

// SessionRepository defines the interface for session storage
type SessionRepository interface {
	// Get returns ErrNotFound when no session exists for id
	Get(ctx context.Context, id string) (*Session, error)

	// Create inserts the session; an existing row with the same id is left untouched
	Create(ctx context.Context, session *Session) error

	// MergeContact applies the non-nil fields of patch and returns the merged session
	MergeContact(ctx context.Context, id string, patch ContactPatch) (*Session, error)

	// Ping verifies store connectivity
	Ping(ctx context.Context) error
}
