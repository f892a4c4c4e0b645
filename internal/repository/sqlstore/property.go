package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Rrens/property-assistant/internal/domain"
)

// PropertyRepository implements domain.PropertyRepository
type PropertyRepository struct {
	store *Store
}

// NewPropertyRepository creates a new property repository
func NewPropertyRepository(store *Store) *PropertyRepository {
	return &PropertyRepository{store: store}
}

// GetByID retrieves a property by id
func (r *PropertyRepository) GetByID(ctx context.Context, id string) (*domain.Property, error) {
	var p domain.Property
	var highlights, amenities string

	err := r.store.db.QueryRowContext(ctx, `
		SELECT id, org_id, title, property_type, address, neighborhood, city, state,
		       price, bedrooms, bathrooms, parking_spots, area_m2, description,
		       highlights, amenities, assistant_note
		FROM properties
		WHERE id = ?`, id).Scan(
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
		&highlights,
		&amenities,
		&p.AssistantNote,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get property: %w", err)
	}

	if err := decodeList(highlights, &p.Highlights); err != nil {
		return nil, fmt.Errorf("failed to decode highlights: %w", err)
	}
	if err := decodeList(amenities, &p.Amenities); err != nil {
		return nil, fmt.Errorf("failed to decode amenities: %w", err)
	}
	return &p, nil
}

// ListKnowledge returns active entries scoped to the property or to its whole organization
func (r *PropertyRepository) ListKnowledge(ctx context.Context, propertyID, orgID string, limit int) ([]domain.KnowledgeEntry, error) {
	rows, err := r.store.db.QueryContext(ctx, `
		SELECT id, category, title, content, priority
		FROM knowledge_entries
		WHERE active = 1
		  AND (property_id = ? OR (property_id IS NULL AND org_id = ?))
		ORDER BY priority DESC, created_at ASC
		LIMIT ?`, propertyID, orgID, limit)
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

// Create inserts a property listing
func (r *PropertyRepository) Create(ctx context.Context, p *domain.Property) error {
	highlights, err := encodeList(p.Highlights)
	if err != nil {
		return err
	}
	amenities, err := encodeList(p.Amenities)
	if err != nil {
		return err
	}

	_, err = r.store.db.ExecContext(ctx, `
		INSERT INTO properties (
			id, org_id, title, property_type, address, neighborhood, city, state,
			price, bedrooms, bathrooms, parking_spots, area_m2, description,
			highlights, amenities, assistant_note
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.OrgID, p.Title, p.PropertyType, p.Address, p.Neighborhood, p.City, p.State,
		p.Price, p.Bedrooms, p.Bathrooms, p.ParkingSpots, p.AreaM2, p.Description,
		highlights, amenities, p.AssistantNote,
	)
	if err != nil {
		return fmt.Errorf("failed to create property: %w", err)
	}
	return nil
}

// AddKnowledge inserts a knowledge entry. An empty propertyID scopes the
// entry to every property of the organization.
func (r *PropertyRepository) AddKnowledge(ctx context.Context, orgID, propertyID string, e domain.KnowledgeEntry, active bool) error {
	var scope any
	if propertyID != "" {
		scope = propertyID
	}

	_, err := r.store.db.ExecContext(ctx, `
		INSERT INTO knowledge_entries (id, org_id, property_id, category, title, content, priority, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, orgID, scope, e.Category, e.Title, e.Content, e.Priority, boolInt(active), time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to add knowledge entry: %w", err)
	}
	return nil
}

func encodeList(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("failed to encode list: %w", err)
	}
	return string(raw), nil
}

func decodeList(raw string, dst *[]string) error {
	if raw == "" || raw == "[]" {
		return nil
	}
	return json.Unmarshal([]byte(raw), dst)
}
