package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/Rrens/property-assistant/internal/domain"
)

// MessageRepository implements domain.MessageRepository
type MessageRepository struct {
	store *Store
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(store *Store) *MessageRepository {
	return &MessageRepository{store: store}
}

// Create appends a message
func (r *MessageRepository) Create(ctx context.Context, message *domain.Message) error {
	var metadata sql.NullString
	if message.Metadata != nil {
		raw, err := json.Marshal(message.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
		metadata = sql.NullString{String: string(raw), Valid: true}
	}

	_, err := r.store.db.ExecContext(ctx, `
		INSERT INTO messages (id, session_id, role, content, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		message.ID.String(),
		message.SessionID,
		string(message.Role),
		message.Content,
		metadata,
		toMillis(message.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

// ListBySession returns the latest limit messages, oldest first
func (r *MessageRepository) ListBySession(ctx context.Context, sessionID string, limit int) ([]domain.Message, error) {
	rows, err := r.store.db.QueryContext(ctx, `
		SELECT id, session_id, role, content, metadata, created_at
		FROM (
			SELECT seq, id, session_id, role, content, metadata, created_at
			FROM messages
			WHERE session_id = ?
			ORDER BY seq DESC
			LIMIT ?
		) latest
		ORDER BY seq ASC`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	messages := make([]domain.Message, 0, limit)
	for rows.Next() {
		var m domain.Message
		var id, role string
		var metadata sql.NullString
		var createdAt int64

		if err := rows.Scan(&id, &m.SessionID, &role, &m.Content, &metadata, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}

		m.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("invalid message id %q: %w", id, err)
		}
		m.Role = domain.MessageRole(role)
		m.CreatedAt = fromMillis(createdAt)

		if metadata.Valid && metadata.String != "" {
			var meta domain.MessageMetadata
			if err := json.Unmarshal([]byte(metadata.String), &meta); err != nil {
				return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
			}
			m.Metadata = &meta
		}
		messages = append(messages, m)
	}

	return messages, rows.Err()
}
