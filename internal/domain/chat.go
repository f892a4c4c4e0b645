package domain

// Input modes accepted from the chat widget
const (
	InputModeText  = "text"
	InputModeVoice = "voice"
)

// ChatRequest is one inbound visitor message
type ChatRequest struct {
	SessionID     string `json:"sessionId" validate:"required,max=128"`
	Message       string `json:"message" validate:"required,max=4000"`
	PropertyID    string `json:"propertyId" validate:"required,max=128"`
	OwnerOrgID    string `json:"ownerOrgId" validate:"max=128"`
	ResellerOrgID string `json:"resellerOrgId,omitempty" validate:"omitempty,max=128"`
	InputMode     string `json:"inputMode,omitempty" validate:"omitempty,oneof=text voice"`
}

// ChatResponse is returned to the widget after a successful turn
type ChatResponse struct {
	Success     bool         `json:"success"`
	Reply       string       `json:"reply"`
	MessageID   string       `json:"messageId"`
	SideEffects []SideEffect `json:"sideEffects,omitempty"`
	ShouldSpeak bool         `json:"shouldSpeak"`
}

// SideEffect kinds
const (
	EffectContactUpdated     = "contact_updated"
	EffectLeadCreated        = "lead_created"
	EffectSchedulingCreated  = "scheduling_created"
	EffectSchedulingPending  = "scheduling_pending"
	EffectSchedulingExisting = "scheduling_already_requested"
)

// SideEffect is the structured outcome of one executed tool invocation
type SideEffect struct {
	Type         string   `json:"type"`
	Tool         string   `json:"tool"`
	LeadID       string   `json:"leadId,omitempty"`
	SchedulingID string   `json:"schedulingId,omitempty"`
	Reason       string   `json:"reason,omitempty"`
	Fields       []string `json:"fields,omitempty"`
}
