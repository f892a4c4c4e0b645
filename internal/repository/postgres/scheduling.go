package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Rrens/property-assistant/internal/domain"
)

// SchedulingRepository implements domain.SchedulingRepository
type SchedulingRepository struct {
	pool *pgxpool.Pool
}

// NewSchedulingRepository creates a new scheduling repository
func NewSchedulingRepository(pool *pgxpool.Pool) *SchedulingRepository {
	return &SchedulingRepository{pool: pool}
}

// Create claims the session's scheduling flag and inserts the visit request in
// one transaction
func (r *SchedulingRepository) Create(ctx context.Context, sessionID string, req *domain.SchedulingRequest) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE sessions
		SET scheduling_created = TRUE, scheduling_id = $2, updated_at = NOW()
		WHERE id = $1 AND scheduling_created = FALSE
	`, sessionID, req.ID.String())
	if err != nil {
		return false, fmt.Errorf("failed to claim scheduling: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO scheduling_requests (
			id, session_id, property_id, owner_org_id, reseller_org_id, lead_id,
			contact_name, contact_email, contact_phone,
			option_1, option_2, notes, status, created_at
		) VALUES ($1, $2, $3, $4, $5, NULLIF($6, '')::uuid, $7, $8, $9, $10, $11, $12, $13, $14)
	`,
		req.ID,
		sessionID,
		req.PropertyID,
		req.OwnerOrgID,
		req.ResellerOrgID,
		req.LeadID,
		req.ContactName,
		req.ContactEmail,
		req.ContactPhone,
		req.Option1,
		req.Option2,
		req.Notes,
		string(req.Status),
		req.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert scheduling request: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit scheduling request: %w", err)
	}
	return true, nil
}
