package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Rrens/property-assistant/internal/domain"
)

const sessionColumns = `id, property_id, owner_org_id, reseller_org_id,
	contact_name, contact_email, contact_phone, contact_context,
	interest_level, qualification_score,
	lead_promoted, lead_id, scheduling_created, scheduling_id,
	created_at, updated_at`

// SessionRepository implements domain.SessionRepository
type SessionRepository struct {
	store *Store
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(store *Store) *SessionRepository {
	return &SessionRepository{store: store}
}

// Create inserts a session unless one with the same id already exists
func (r *SessionRepository) Create(ctx context.Context, session *domain.Session) error {
	query := r.store.dialect.insertIgnore + ` INTO sessions (` + sessionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.store.db.ExecContext(ctx, query,
		session.ID,
		session.PropertyID,
		session.OwnerOrgID,
		session.ResellerOrgID,
		session.Contact.Name,
		session.Contact.Email,
		session.Contact.Phone,
		session.ContactContext,
		string(session.InterestLevel),
		session.QualificationScore,
		boolInt(session.LeadPromoted),
		session.LeadID,
		boolInt(session.SchedulingCreated),
		session.SchedulingID,
		toMillis(session.CreatedAt),
		toMillis(session.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// Get retrieves a session by id
func (r *SessionRepository) Get(ctx context.Context, id string) (*domain.Session, error) {
	return getSession(ctx, r.store.db, id)
}

// MergeContact applies the non-nil fields of patch and reads the merged row back
func (r *SessionRepository) MergeContact(ctx context.Context, id string, patch domain.ContactPatch) (*domain.Session, error) {
	var interest, score any
	if patch.InterestLevel != nil {
		interest = string(*patch.InterestLevel)
		score = patch.InterestLevel.Score()
	}

	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		UPDATE sessions
		SET contact_name = COALESCE(?, contact_name),
		    contact_email = COALESCE(?, contact_email),
		    contact_phone = COALESCE(?, contact_phone),
		    interest_level = COALESCE(?, interest_level),
		    qualification_score = COALESCE(?, qualification_score),
		    contact_context = COALESCE(?, contact_context),
		    updated_at = ?
		WHERE id = ?`,
		nullable(patch.Name),
		nullable(patch.Email),
		nullable(patch.Phone),
		interest,
		score,
		nullable(patch.Context),
		time.Now().UnixMilli(),
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to merge contact: %w", err)
	}

	s, err := getSession(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit contact merge: %w", err)
	}
	return s, nil
}

// Ping verifies database connectivity
func (r *SessionRepository) Ping(ctx context.Context) error {
	return r.store.Ping(ctx)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getSession(ctx context.Context, q queryRower, id string) (*domain.Session, error) {
	var s domain.Session
	var interest string
	var createdAt, updatedAt int64

	err := q.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id).Scan(
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
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	s.InterestLevel = domain.InterestLevel(interest)
	s.CreatedAt = fromMillis(createdAt)
	s.UpdatedAt = fromMillis(updatedAt)
	return &s, nil
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
