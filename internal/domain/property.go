package domain

import (
	"context"
)

// Property holds the listing facts the assistant is allowed to talk about
type Property struct {
	ID            string   `json:"id"`
	OrgID         string   `json:"org_id"`
	Title         string   `json:"title"`
	PropertyType  string   `json:"property_type,omitempty"`
	Address       string   `json:"address,omitempty"`
	Neighborhood  string   `json:"neighborhood,omitempty"`
	City          string   `json:"city,omitempty"`
	State         string   `json:"state,omitempty"`
	Price         float64  `json:"price,omitempty"`
	Bedrooms      int      `json:"bedrooms,omitempty"`
	Bathrooms     int      `json:"bathrooms,omitempty"`
	ParkingSpots  int      `json:"parking_spots,omitempty"`
	AreaM2        float64  `json:"area_m2,omitempty"`
	Description   string   `json:"description,omitempty"`
	Highlights    []string `json:"highlights,omitempty"`
	Amenities     []string `json:"amenities,omitempty"`
	AssistantNote string   `json:"assistant_note,omitempty"`
}

// KnowledgeEntry is a curated fact used to ground the assistant's answers
type KnowledgeEntry struct {
	ID       string `json:"id"`
	Category string `json:"category"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Priority int    `json:"priority"`
}

// PropertyContext bundles everything the context assembler needs about a property
type PropertyContext struct {
	Property  Property         `json:"property"`
	Knowledge []KnowledgeEntry `json:"knowledge"`
}

// PropertyRepository defines the interface for property reads
type PropertyRepository interface {
	// GetByID returns ErrNotFound when the property does not exist
	GetByID(ctx context.Context, id string) (*Property, error)

	// ListKnowledge returns active entries for the property and its organization,
	// ordered by descending priority, at most limit entries
	ListKnowledge(ctx context.Context, propertyID, orgID string, limit int) ([]KnowledgeEntry, error)
}
