package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Rrens/property-assistant/internal/domain"
)

func testPropertyContext() domain.PropertyContext {
	return domain.PropertyContext{
		Property: domain.Property{
			ID:            "p1",
			OrgID:         "org-a",
			Title:         "Apartamento 3 quartos no Jardins",
			PropertyType:  "apartamento",
			Neighborhood:  "Jardins",
			City:          "São Paulo",
			State:         "SP",
			Price:         1250000,
			Bedrooms:      3,
			Bathrooms:     2,
			ParkingSpots:  2,
			AreaM2:        98.5,
			Description:   "Reformado, andar alto.",
			Highlights:    []string{"Vista livre", "Varanda gourmet"},
			Amenities:     []string{"piscina", "academia"},
			AssistantNote: "Aceita financiamento.",
		},
		Knowledge: []domain.KnowledgeEntry{
			{Category: "Condomínio", Title: "Taxa", Content: "R$ 1.200/mês", Priority: 5},
			{Category: "Região", Title: "Metrô", Content: "Estação a 400m", Priority: 9},
			{Category: "Condomínio", Title: "Pets", Content: "Permitidos", Priority: 7},
			{Category: "Região", Title: "Escolas", Content: "Várias próximas", Priority: 1},
		},
	}
}

func TestContextAssembler_BuildIncludesPropertyFacts(t *testing.T) {
	a := NewContextAssembler(15)
	out := a.Build(testPropertyContext(), domain.Session{})

	assert.Contains(t, out, "Apartamento 3 quartos no Jardins")
	assert.Contains(t, out, "Jardins, São Paulo, SP")
	assert.Contains(t, out, "R$ 1.250.000,00")
	assert.Contains(t, out, "98.5 m²")
	assert.Contains(t, out, "Vista livre; Varanda gourmet")
	assert.Contains(t, out, "piscina, academia")
	assert.Contains(t, out, "Aceita financiamento.")
	assert.Contains(t, out, "capture_contact")
	assert.Contains(t, out, "request_scheduling")
}

func TestContextAssembler_KnowledgeOrderedGroupedAndCapped(t *testing.T) {
	a := NewContextAssembler(3)
	out := a.Build(testPropertyContext(), domain.Session{})

	// Highest priority entry decides the first category
	assert.Less(t, strings.Index(out, "### Região"), strings.Index(out, "### Condomínio"))
	assert.Less(t, strings.Index(out, "Pets"), strings.Index(out, "Taxa"))
	assert.NotContains(t, out, "Escolas")
	assert.Equal(t, 1, strings.Count(out, "### Região"))
}

func TestContextAssembler_ContactMarkedNotProvided(t *testing.T) {
	a := NewContextAssembler(15)

	out := a.Build(testPropertyContext(), domain.Session{Contact: domain.ContactInfo{Name: "João"}})
	assert.Contains(t, out, "- Nome: João")
	assert.Contains(t, out, "- E-mail: não informado")
	assert.Contains(t, out, "- Telefone: não informado")

	out = a.Build(testPropertyContext(), domain.Session{
		Contact:           domain.ContactInfo{Name: "João", Phone: "11999999999"},
		InterestLevel:     domain.InterestHigh,
		SchedulingCreated: true,
	})
	assert.Contains(t, out, "- Telefone: 11999999999")
	assert.Contains(t, out, "- Nível de interesse: high")
	assert.Contains(t, out, "já solicitada")
}

func TestContextAssembler_OmitsEmptySections(t *testing.T) {
	a := NewContextAssembler(0)
	out := a.Build(domain.PropertyContext{Property: domain.Property{Title: "Casa"}}, domain.Session{})

	assert.NotContains(t, out, "Base de conhecimento")
	assert.NotContains(t, out, "Orientações do anunciante")
	assert.NotContains(t, out, "Preço")
	assert.Equal(t, 15, a.knowledgeLimit)
}

func TestFormatBRL(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "R$ 0,00"},
		{999.9, "R$ 999,90"},
		{1000, "R$ 1.000,00"},
		{850000.5, "R$ 850.000,50"},
		{12345678, "R$ 12.345.678,00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatBRL(tt.in))
	}
}
