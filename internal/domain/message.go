package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MessageRole represents the sender of a message
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Message represents one exchanged chat message. Messages are append-only.
type Message struct {
	ID        uuid.UUID        `json:"id"`
	SessionID string           `json:"session_id"`
	Role      MessageRole      `json:"role"`
	Content   string           `json:"content"`
	Metadata  *MessageMetadata `json:"metadata,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// MessageMetadata records what the model did to produce an assistant message
type MessageMetadata struct {
	Provider    string       `json:"provider,omitempty"`
	Model       string       `json:"model,omitempty"`
	TokensUsed  int          `json:"tokens_used,omitempty"`
	LatencyMs   int64        `json:"latency_ms,omitempty"`
	ToolCalls   []string     `json:"tool_calls,omitempty"`
	SideEffects []SideEffect `json:"side_effects,omitempty"`
	Fallback    bool         `json:"fallback,omitempty"`
	InputMode   string       `json:"input_mode,omitempty"`
}

// MessageRepository defines the interface for message storage
type MessageRepository interface {
	// Create appends a message to its session
	Create(ctx context.Context, message *Message) error

	// ListBySession returns the latest limit messages in chronological order
	ListBySession(ctx context.Context, sessionID string, limit int) ([]Message, error)
}
