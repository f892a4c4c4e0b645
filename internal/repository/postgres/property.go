package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Rrens/property-assistant/internal/domain"
)

// PropertyRepository implements domain.PropertyRepository
type PropertyRepository struct {
	pool *pgxpool.Pool
}

// NewPropertyRepository creates a new property repository
func NewPropertyRepository(pool *pgxpool.Pool) *PropertyRepository {
	return &PropertyRepository{pool: pool}
}

// GetByID retrieves a property by id
func (r *PropertyRepository) GetByID(ctx context.Context, id string) (*domain.Property, error) {
	query := `
		SELECT id, org_id, title, property_type, address, neighborhood, city, state,
		       price, bedrooms, bathrooms, parking_spots, area_m2, description,
		       highlights, amenities, assistant_note
		FROM properties
		WHERE id = $1
	`

	var p domain.Property
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.OrgID,
		&p.Title,
		&p.PropertyType,
		&p.Address,
		&p.Neighborhood,
		&p.City,
		&p.State,
		&p.Price,
		&p.Bedrooms,
		&p.Bathrooms,
		&p.ParkingSpots,
		&p.AreaM2,
		&p.Description,
		&p.Highlights,
		&p.Amenities,
		&p.AssistantNote,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get property: %w", err)
	}
	return &p, nil
}

// ListKnowledge returns active entries scoped to the property or to its whole organization
func (r *PropertyRepository) ListKnowledge(ctx context.Context, propertyID, orgID string, limit int) ([]domain.KnowledgeEntry, error) {
	query := `
		SELECT id, category, title, content, priority
		FROM knowledge_entries
		WHERE active
		  AND (property_id = $1 OR (property_id IS NULL AND org_id = $2))
		ORDER BY priority DESC, created_at ASC
		LIMIT $3
	`

	rows, err := r.pool.Query(ctx, query, propertyID, orgID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list knowledge: %w", err)
	}
	defer rows.Close()

	var entries []domain.KnowledgeEntry
	for rows.Next() {
		var e domain.KnowledgeEntry
		if err := rows.Scan(&e.ID, &e.Category, &e.Title, &e.Content, &e.Priority); err != nil {
			return nil, fmt.Errorf("failed to scan knowledge entry: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
