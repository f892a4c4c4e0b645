package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/Rrens/property-assistant/internal/domain"
)

// SchedulingRepository implements domain.SchedulingRepository
type SchedulingRepository struct {
	store *Store
}

// NewSchedulingRepository creates a new scheduling repository
func NewSchedulingRepository(store *Store) *SchedulingRepository {
	return &SchedulingRepository{store: store}
}

// Create claims the session's scheduling flag and inserts the visit request
// in one transaction
func (r *SchedulingRepository) Create(ctx context.Context, sessionID string, req *domain.SchedulingRequest) (bool, error) {
	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE sessions
		SET scheduling_created = 1, scheduling_id = ?, updated_at = ?
		WHERE id = ? AND scheduling_created = 0`,
		req.ID.String(), time.Now().UnixMilli(), sessionID)
	if err != nil {
		return false, fmt.Errorf("failed to claim scheduling: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil || n == 0 {
		return false, err
	}

	var leadID any
	if req.LeadID != "" {
		leadID = req.LeadID
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO scheduling_requests (
			id, session_id, property_id, owner_org_id, reseller_org_id, lead_id,
			contact_name, contact_email, contact_phone,
			option_1, option_2, notes, status, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.ID.String(),
		sessionID,
		req.PropertyID,
		req.OwnerOrgID,
		req.ResellerOrgID,
		leadID,
		req.ContactName,
		req.ContactEmail,
		req.ContactPhone,
		req.Option1.UnixMilli(),
		req.Option2.UnixMilli(),
		req.Notes,
		string(req.Status),
		toMillis(req.CreatedAt),
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert scheduling request: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit scheduling request: %w", err)
	}
	return true, nil
}
