package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Rrens/property-assistant/internal/domain"
)

const notProvided = "não informado"

// ContextAssembler builds the instruction block sent as the first message of
// every model call. It holds no per-session state.
type ContextAssembler struct {
	knowledgeLimit int
}

// NewContextAssembler creates an assembler that keeps at most knowledgeLimit entries
func NewContextAssembler(knowledgeLimit int) *ContextAssembler {
	if knowledgeLimit <= 0 {
		knowledgeLimit = 15
	}
	return &ContextAssembler{knowledgeLimit: knowledgeLimit}
}

// Build renders the instruction block for one turn
func (a *ContextAssembler) Build(pc domain.PropertyContext, s domain.Session) string {
	var b strings.Builder

	b.WriteString("Você é o assistente virtual de vendas deste imóvel. Atenda o visitante em português do Brasil, ")
	b.WriteString("de forma cordial, objetiva e consultiva. Responda apenas com base nas informações abaixo; ")
	b.WriteString("quando não souber algo, diga que vai verificar com o corretor.\n")

	a.writeProperty(&b, pc.Property)

	if note := strings.TrimSpace(pc.Property.AssistantNote); note != "" {
		b.WriteString("\n## Orientações do anunciante\n")
		b.WriteString(note)
		b.WriteString("\n")
	}

	a.writeKnowledge(&b, pc.Knowledge)
	writeContact(&b, s)
	b.WriteString(behaviorRules)

	return b.String()
}

func (a *ContextAssembler) writeProperty(b *strings.Builder, p domain.Property) {
	b.WriteString("\n## Imóvel\n")
	writeFact(b, "Título", p.Title)
	writeFact(b, "Tipo", p.PropertyType)
	writeFact(b, "Localização", joinNonEmpty(", ", p.Address, p.Neighborhood, p.City, p.State))
	if p.Price > 0 {
		writeFact(b, "Preço", formatBRL(p.Price))
	}
	if p.AreaM2 > 0 {
		writeFact(b, "Área", fmt.Sprintf("%s m²", trimFloat(p.AreaM2)))
	}
	if p.Bedrooms > 0 {
		writeFact(b, "Quartos", fmt.Sprint(p.Bedrooms))
	}
	if p.Bathrooms > 0 {
		writeFact(b, "Banheiros", fmt.Sprint(p.Bathrooms))
	}
	if p.ParkingSpots > 0 {
		writeFact(b, "Vagas", fmt.Sprint(p.ParkingSpots))
	}
	writeFact(b, "Descrição", strings.TrimSpace(p.Description))
	if len(p.Highlights) > 0 {
		writeFact(b, "Destaques", strings.Join(p.Highlights, "; "))
	}
	if len(p.Amenities) > 0 {
		writeFact(b, "Comodidades", strings.Join(p.Amenities, ", "))
	}
}

// writeKnowledge keeps the highest-priority entries and groups them by category
func (a *ContextAssembler) writeKnowledge(b *strings.Builder, entries []domain.KnowledgeEntry) {
	if len(entries) == 0 {
		return
	}

	sorted := make([]domain.KnowledgeEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Priority > sorted[j].Priority })
	if len(sorted) > a.knowledgeLimit {
		sorted = sorted[:a.knowledgeLimit]
	}

	var order []string
	groups := make(map[string][]domain.KnowledgeEntry)
	for _, e := range sorted {
		category := strings.TrimSpace(e.Category)
		if category == "" {
			category = "Geral"
		}
		if _, ok := groups[category]; !ok {
			order = append(order, category)
		}
		groups[category] = append(groups[category], e)
	}

	b.WriteString("\n## Base de conhecimento\n")
	for _, category := range order {
		fmt.Fprintf(b, "### %s\n", category)
		for _, e := range groups[category] {
			if e.Title != "" {
				fmt.Fprintf(b, "- %s: %s\n", e.Title, strings.TrimSpace(e.Content))
			} else {
				fmt.Fprintf(b, "- %s\n", strings.TrimSpace(e.Content))
			}
		}
	}
}

func writeContact(b *strings.Builder, s domain.Session) {
	b.WriteString("\n## Dados já coletados do visitante\n")
	writeFact(b, "Nome", orNotProvided(s.Contact.Name))
	writeFact(b, "E-mail", orNotProvided(s.Contact.Email))
	writeFact(b, "Telefone", orNotProvided(s.Contact.Phone))
	if s.InterestLevel != "" {
		writeFact(b, "Nível de interesse", string(s.InterestLevel))
	}
	if s.SchedulingCreated {
		writeFact(b, "Visita", "já solicitada nesta conversa")
	}
}

const behaviorRules = `
## Regras
- Nunca invente dados do visitante. Campos marcados como "não informado" ainda não foram fornecidos.
- Sempre que o visitante informar nome, e-mail, telefone ou algo sobre o que procura, chame a ferramenta capture_contact apenas com os campos novos.
- Ao perceber o nível de interesse (high, medium ou low), inclua interest_level em capture_contact.
- Quando o visitante quiser visitar o imóvel, chame request_scheduling com duas opções de data e hora.
- Para agendar é preciso ter o nome e ao menos um contato (e-mail ou telefone). Se faltar, peça esses dados antes.
- Não solicite uma segunda visita se uma já foi solicitada nesta conversa.
- Não negocie preço nem prometa condições que não estejam descritas acima.
- Respostas curtas: no máximo três parágrafos.
`

func writeFact(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "- %s: %s\n", label, value)
}

func orNotProvided(v string) string {
	if strings.TrimSpace(v) == "" {
		return notProvided
	}
	return v
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

// formatBRL renders 850000.5 as "R$ 850.000,50"
func formatBRL(v float64) string {
	cents := int64(v*100 + 0.5)
	whole := cents / 100
	frac := cents % 100

	digits := fmt.Sprint(whole)
	var grouped strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			grouped.WriteByte('.')
		}
		grouped.WriteRune(r)
	}
	return fmt.Sprintf("R$ %s,%02d", grouped.String(), frac)
}

func trimFloat(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
