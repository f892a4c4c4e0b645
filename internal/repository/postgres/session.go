package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Rrens/property-assistant/internal/domain"
)

const sessionColumns = `
	id, property_id, owner_org_id, reseller_org_id,
	contact_name, contact_email, contact_phone, contact_context,
	interest_level, qualification_score,
	lead_promoted, lead_id, scheduling_created, scheduling_id,
	created_at, updated_at`

// SessionRepository implements domain.SessionRepository
type SessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// Create inserts a session; a concurrent insert of the same id wins silently
func (r *SessionRepository) Create(ctx context.Context, session *domain.Session) error {
	query := `
		INSERT INTO sessions (id, property_id, owner_org_id, reseller_org_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := r.pool.Exec(ctx, query,
		session.ID,
		session.PropertyID,
		session.OwnerOrgID,
		session.ResellerOrgID,
		session.CreatedAt,
		session.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// Get retrieves a session by id
func (r *SessionRepository) Get(ctx context.Context, id string) (*domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`

	s, err := scanSession(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return s, nil
}

// MergeContact applies the non-nil fields of patch in a single statement
func (r *SessionRepository) MergeContact(ctx context.Context, id string, patch domain.ContactPatch) (*domain.Session, error) {
	var interest *string
	var score *int
	if patch.InterestLevel != nil {
		level := string(*patch.InterestLevel)
		points := patch.InterestLevel.Score()
		interest, score = &level, &points
	}

	query := `
		UPDATE sessions
		SET contact_name = COALESCE($2, contact_name),
		    contact_email = COALESCE($3, contact_email),
		    contact_phone = COALESCE($4, contact_phone),
		    interest_level = COALESCE($5, interest_level),
		    qualification_score = COALESCE($6, qualification_score),
		    contact_context = COALESCE($7, contact_context),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + sessionColumns

	s, err := scanSession(r.pool.QueryRow(ctx, query,
		id,
		patch.Name,
		patch.Email,
		patch.Phone,
		interest,
		score,
		patch.Context,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to merge contact: %w", err)
	}
	return s, nil
}

// Ping verifies database connectivity
func (r *SessionRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func scanSession(row pgx.Row) (*domain.Session, error) {
	var s domain.Session
	var interest string
	err := row.Scan(
		&s.ID,
		&s.PropertyID,
		&s.OwnerOrgID,
		&s.ResellerOrgID,
		&s.Contact.Name,
		&s.Contact.Email,
		&s.Contact.Phone,
		&s.ContactContext,
		&interest,
		&s.QualificationScore,
		&s.LeadPromoted,
		&s.LeadID,
		&s.SchedulingCreated,
		&s.SchedulingID,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.InterestLevel = domain.InterestLevel(interest)
	return &s, nil
}
