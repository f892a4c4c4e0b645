package service

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Rrens/property-assistant/internal/domain"
	"github.com/Rrens/property-assistant/internal/llm"
	"github.com/Rrens/property-assistant/internal/security"
)

// Tool names exposed to the model
const (
	ToolCaptureContact    = "capture_contact"
	ToolRequestScheduling = "request_scheduling"
)

// ToolDefinitions returns the tool schemas offered on the first model call
func ToolDefinitions() []llm.Tool {
	return []llm.Tool{
		{
			Name:        ToolCaptureContact,
			Description: "Registra dados de contato e de interesse do visitante. Envie apenas os campos que o visitante acabou de informar.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name":  map[string]any{"type": "string", "description": "Nome do visitante"},
					"email": map[string]any{"type": "string", "description": "E-mail do visitante"},
					"phone": map[string]any{"type": "string", "description": "Telefone ou WhatsApp, com DDD"},
					"interest_level": map[string]any{
						"type":        "string",
						"enum":        []string{"high", "medium", "low"},
						"description": "Nível de interesse percebido",
					},
					"context": map[string]any{"type": "string", "description": "Resumo do que o visitante procura"},
				},
			},
		},
		{
			Name:        ToolRequestScheduling,
			Description: "Solicita uma visita ao imóvel com duas opções de data e hora. Use somente quando nome e um contato já forem conhecidos.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"option_1": map[string]any{"type": "string", "description": "Primeira opção, formato AAAA-MM-DD HH:MM"},
					"option_2": map[string]any{"type": "string", "description": "Segunda opção, formato AAAA-MM-DD HH:MM"},
					"notes":    map[string]any{"type": "string", "description": "Observações do visitante"},
				},
				"required": []string{"option_1"},
			},
		},
	}
}

// decodeArgs parses a tool argument object. Empty input is an empty object.
func decodeArgs(raw string) (map[string]any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("malformed tool arguments: %w", err)
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}

// stringArg reads a string-ish argument; numbers are accepted for fields like phone
func stringArg(args map[string]any, key string) (string, bool) {
	switch v := args[key].(type) {
	case string:
		v = strings.TrimSpace(v)
		return v, v != ""
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	}
	return "", false
}

// contactArgs is the parsed form of a capture_contact invocation
type contactArgs struct {
	Patch    domain.ContactPatch
	Fields   []string
	Rejected []string
}

var interestAliases = map[string]domain.InterestLevel{
	"high":   domain.InterestHigh,
	"alto":   domain.InterestHigh,
	"alta":   domain.InterestHigh,
	"medium": domain.InterestMedium,
	"médio":  domain.InterestMedium,
	"medio":  domain.InterestMedium,
	"média":  domain.InterestMedium,
	"media":  domain.InterestMedium,
	"low":    domain.InterestLow,
	"baixo":  domain.InterestLow,
	"baixa":  domain.InterestLow,
}

func parseContactArgs(raw string) (contactArgs, error) {
	args, err := decodeArgs(raw)
	if err != nil {
		return contactArgs{}, err
	}

	var out contactArgs
	if v, ok := stringArg(args, "name"); ok {
		if name, err := security.NormalizeName(v); err == nil {
			out.Patch.Name = &name
			out.Fields = append(out.Fields, "name")
		} else {
			out.Rejected = append(out.Rejected, "name")
		}
	}
	if v, ok := stringArg(args, "email"); ok {
		if email, err := security.NormalizeEmail(v); err == nil {
			out.Patch.Email = &email
			out.Fields = append(out.Fields, "email")
		} else {
			out.Rejected = append(out.Rejected, "email")
		}
	}
	if v, ok := stringArg(args, "phone"); ok {
		if phone, err := security.NormalizePhone(v); err == nil {
			out.Patch.Phone = &phone
			out.Fields = append(out.Fields, "phone")
		} else {
			out.Rejected = append(out.Rejected, "phone")
		}
	}
	if v, ok := stringArg(args, "interest_level"); ok {
		if level, found := interestAliases[strings.ToLower(v)]; found {
			out.Patch.InterestLevel = &level
			out.Fields = append(out.Fields, "interest_level")
		} else {
			out.Rejected = append(out.Rejected, "interest_level")
		}
	}
	if v, ok := stringArg(args, "context"); ok {
		out.Patch.Context = &v
		out.Fields = append(out.Fields, "context")
	}

	return out, nil
}

// schedulingArgs is the parsed form of a request_scheduling invocation
type schedulingArgs struct {
	Option1   time.Time
	Option2   time.Time
	Notes     string
	Defaulted []string
}

var scheduleLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"02/01/2006 15:04",
	"02/01/2006 15h04",
	"02/01/2006 15h",
	"2006-01-02",
	"02/01/2006",
}

// parseScheduleTime accepts the layouts the model commonly produces
func parseScheduleTime(v string, loc *time.Location) (time.Time, bool) {
	for _, layout := range scheduleLayouts {
		if t, err := time.ParseInLocation(layout, v, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseSchedulingArgs reads both options. A missing or unreadable option
// defaults to now; the raw text is kept in the notes for the operator.
func parseSchedulingArgs(raw string, now time.Time, loc *time.Location) (schedulingArgs, error) {
	args, err := decodeArgs(raw)
	if err != nil {
		return schedulingArgs{}, err
	}

	out := schedulingArgs{}
	out.Notes, _ = stringArg(args, "notes")

	var unparsed []string
	option := func(key string) time.Time {
		v, ok := stringArg(args, key)
		if !ok {
			out.Defaulted = append(out.Defaulted, key)
			return now
		}
		if t, ok := parseScheduleTime(v, loc); ok {
			return t
		}
		out.Defaulted = append(out.Defaulted, key)
		unparsed = append(unparsed, fmt.Sprintf("%s: %s", key, v))
		return now
	}
	out.Option1 = option("option_1")
	out.Option2 = option("option_2")

	if len(unparsed) > 0 {
		extra := "Preferência informada: " + strings.Join(unparsed, "; ")
		if out.Notes == "" {
			out.Notes = extra
		} else {
			out.Notes += "\n" + extra
		}
	}

	return out, nil
}
