package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/Rrens/property-assistant/internal/domain"
)

// LeadRepository implements domain.LeadRepository
type LeadRepository struct {
	store *Store
}

// NewLeadRepository creates a new lead repository
func NewLeadRepository(store *Store) *LeadRepository {
	return &LeadRepository{store: store}
}

// Promote claims the session's promotion flag and inserts the lead in one
// transaction
func (r *LeadRepository) Promote(ctx context.Context, sessionID string, lead *domain.Lead) (bool, error) {
	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE sessions
		SET lead_promoted = 1, lead_id = ?, updated_at = ?
		WHERE id = ? AND lead_promoted = 0`,
		lead.ID.String(), time.Now().UnixMilli(), sessionID)
	if err != nil {
		return false, fmt.Errorf("failed to claim lead promotion: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil || n == 0 {
		return false, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO leads (
			id, session_id, property_id, owner_org_id, reseller_org_id,
			name, email, phone, interest_level, qualification_score,
			notes, source, status, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		lead.ID.String(),
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
		toMillis(lead.CreatedAt),
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert lead: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit lead: %w", err)
	}
	return true, nil
}
