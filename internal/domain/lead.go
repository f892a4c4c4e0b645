package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// LeadStatus is the pipeline stage of a lead
type LeadStatus string

const (
	LeadStatusNew LeadStatus = "new"

	LeadSourceChatbot = "chatbot"
)

// Lead is a qualified contact promoted from a conversation
type Lead struct {
	ID                 uuid.UUID     `json:"id"`
	SessionID          string        `json:"session_id"`
	PropertyID         string        `json:"property_id"`
	OwnerOrgID         string        `json:"owner_org_id"`
	ResellerOrgID      string        `json:"reseller_org_id,omitempty"`
	Name               string        `json:"name,omitempty"`
	Email              string        `json:"email,omitempty"`
	Phone              string        `json:"phone,omitempty"`
	InterestLevel      InterestLevel `json:"interest_level,omitempty"`
	QualificationScore int           `json:"qualification_score"`
	Notes              string        `json:"notes,omitempty"`
	Source             string        `json:"source"`
	Status             LeadStatus    `json:"status"`
	CreatedAt          time.Time     `json:"created_at"`
}

// NewLeadFromSession builds a lead from a session's merged contact state
func NewLeadFromSession(s *Session, now time.Time) *Lead {
	return &Lead{
		ID:                 uuid.New(),
		SessionID:          s.ID,
		PropertyID:         s.PropertyID,
		OwnerOrgID:         s.OwnerOrgID,
		ResellerOrgID:      s.ResellerOrgID,
		Name:               s.Contact.Name,
		Email:              s.Contact.Email,
		Phone:              s.Contact.Phone,
		InterestLevel:      s.InterestLevel,
		QualificationScore: s.QualificationScore,
		Notes:              s.ContactContext,
		Source:             LeadSourceChatbot,
		Status:             LeadStatusNew,
		CreatedAt:          now,
	}
}

// LeadRepository defines the interface for lead storage
type LeadRepository interface {
	// Promote flips the session's promoted flag and inserts the lead in one
	// conditional write. It returns false, nil when the session was already promoted.
	Promote(ctx context.Context, sessionID string, lead *Lead) (bool, error)
}

// SchedulingStatus is the lifecycle of a visit request
type SchedulingStatus string

const SchedulingStatusPending SchedulingStatus = "pending"

// SchedulingRequest is a visit request awaiting confirmation by a human operator
type SchedulingRequest struct {
	ID            uuid.UUID        `json:"id"`
	SessionID     string           `json:"session_id"`
	PropertyID    string           `json:"property_id"`
	OwnerOrgID    string           `json:"owner_org_id"`
	ResellerOrgID string           `json:"reseller_org_id,omitempty"`
	LeadID        string           `json:"lead_id,omitempty"`
	ContactName   string           `json:"contact_name"`
	ContactEmail  string           `json:"contact_email,omitempty"`
	ContactPhone  string           `json:"contact_phone,omitempty"`
	Option1       time.Time        `json:"option_1"`
	Option2       time.Time        `json:"option_2"`
	Notes         string           `json:"notes,omitempty"`
	Status        SchedulingStatus `json:"status"`
	CreatedAt     time.Time        `json:"created_at"`
}

// SchedulingRepository defines the interface for visit request storage
type SchedulingRepository interface {
	// Create flips the session's scheduling flag and inserts the request in one
	// conditional write. It returns false, nil when a request already exists.
	Create(ctx context.Context, sessionID string, req *SchedulingRequest) (bool, error)
}
