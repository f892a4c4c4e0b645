package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Rrens/property-assistant/internal/domain"
)

// LeadRepository implements domain.LeadRepository
type LeadRepository struct {
	pool *pgxpool.Pool
}

// NewLeadRepository creates a new lead repository
func NewLeadRepository(pool *pgxpool.Pool) *LeadRepository {
	return &LeadRepository{pool: pool}
}

// Promote claims the session's promotion flag and inserts the lead in one
// transaction. Only the caller whose UPDATE flips the flag inserts a row.
func (r *LeadRepository) Promote(ctx context.Context, sessionID string, lead *domain.Lead) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE sessions
		SET lead_promoted = TRUE, lead_id = $2, updated_at = NOW()
		WHERE id = $1 AND lead_promoted = FALSE
	`, sessionID, lead.ID.String())
	if err != nil {
		return false, fmt.Errorf("failed to claim lead promotion: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO leads (
			id, session_id, property_id, owner_org_id, reseller_org_id,
			name, email, phone, interest_level, qualification_score,
			notes, source, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`,
		lead.ID,
		sessionID,
		lead.PropertyID,
		lead.OwnerOrgID,
		lead.ResellerOrgID,
		lead.Name,
		lead.Email,
		lead.Phone,
		string(lead.InterestLevel),
		lead.QualificationScore,
		lead.Notes,
		lead.Source,
		string(lead.Status),
		lead.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert lead: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit lead: %w", err)
	}
	return true, nil
}
