package security

import (
	"regexp"
	"strings"
	"unicode"
)

const (
	minPhoneDigits = 8
	maxPhoneDigits = 15
	maxNameLength  = 120
)

var emailPattern = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`)

// ContactError describes a captured contact value that was rejected
type ContactError struct {
	Field   string
	Message string
}

func (e *ContactError) Error() string {
	return e.Field + ": " + e.Message
}

// NormalizeEmail lower-cases and trims an email and checks its shape
func NormalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", &ContactError{Field: "email", Message: "empty"}
	}
	if !emailPattern.MatchString(email) {
		return "", &ContactError{Field: "email", Message: "not an email address"}
	}
	return email, nil
}

// NormalizePhone keeps digits and an optional leading +
func NormalizePhone(raw string) (string, error) {
	raw = strings.TrimSpace(raw)

	var b strings.Builder
	if strings.HasPrefix(raw, "+") {
		b.WriteByte('+')
	}
	digits := 0
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			digits++
		}
	}

	if digits < minPhoneDigits {
		return "", &ContactError{Field: "phone", Message: "too few digits"}
	}
	if digits > maxPhoneDigits {
		return "", &ContactError{Field: "phone", Message: "too many digits"}
	}
	return b.String(), nil
}

// NormalizeName collapses whitespace and drops control characters
func NormalizeName(raw string) (string, error) {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, raw)
	name := strings.Join(strings.Fields(cleaned), " ")

	if name == "" {
		return "", &ContactError{Field: "name", Message: "empty"}
	}
	if len([]rune(name)) > maxNameLength {
		name = string([]rune(name)[:maxNameLength])
	}
	return name, nil
}
