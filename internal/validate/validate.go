// Package validate checks contact form fields and sanitizes them for storage.
package validate

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/portfolio/backend/internal/apperr"
	"github.com/portfolio/backend/internal/model"
	"golang.org/x/text/unicode/norm"
)

// Field length limits, counted in characters.
const (
	NameMax       = 100
	EmailMax      = 254
	SubjectMax    = 200
	MessageMin    = 10
	MessageMax    = 5000
	fieldName     = "name"
	fieldEmail    = "email"
	fieldSubject  = "subject"
	fieldMessage  = "message"
	htmlMarkupSet = "<>"
	nameRejectSet = `<>"&`
)

var (
	emailPattern      = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	suspiciousScheme  = regexp.MustCompile(`(?i)(javascript|data|vbscript):`)
	embeddedMarkupTag = regexp.MustCompile(`(?i)<\s*(script|iframe|object)`)
)

// Validate checks in field by field in the order name, email, subject,
// message and returns the first failure as a ClientInput *apperr.Error.
func Validate(in model.ContactInput) error {
	if err := checkName(normalize(in.Name)); err != nil {
		return err
	}
	if err := checkEmail(normalize(in.Email)); err != nil {
		return err
	}
	if err := checkSubject(normalize(in.Subject)); err != nil {
		return err
	}
	return checkMessage(normalize(in.Message))
}

func checkName(s string) error {
	n := utf8.RuneCountInString(s)
	switch {
	case n == 0:
		return apperr.Invalid(fieldName, "Name is required")
	case n > NameMax:
		return apperr.Invalid(fieldName, "Name must be 100 characters or fewer")
	case strings.ContainsAny(s, nameRejectSet) || suspiciousScheme.MatchString(s):
		return apperr.Invalid(fieldName, "Name contains invalid characters")
	}
	for _, r := range s {
		if !nameRune(r) {
			return apperr.Invalid(fieldName, "Name may only contain letters, spaces, apostrophes, and hyphens")
		}
	}
	return nil
}

func nameRune(r rune) bool {
	switch r {
	case ' ', '\'', '’', '-':
		return true
	}
	return unicode.IsLetter(r) || unicode.Is(unicode.Mn, r)
}

func checkEmail(s string) error {
	n := utf8.RuneCountInString(s)
	switch {
	case n == 0:
		return apperr.Invalid(fieldEmail, "Email is required")
	case n > EmailMax:
		return apperr.Invalid(fieldEmail, "Email must be 254 characters or fewer")
	case strings.ContainsAny(s, htmlMarkupSet) || suspiciousScheme.MatchString(s):
		return apperr.Invalid(fieldEmail, "Email contains invalid content")
	case !emailPattern.MatchString(s):
		return apperr.Invalid(fieldEmail, "Invalid email")
	}
	return nil
}

func checkSubject(s string) error {
	n := utf8.RuneCountInString(s)
	switch {
	case n == 0:
		return apperr.Invalid(fieldSubject, "Subject is required")
	case n > SubjectMax:
		return apperr.Invalid(fieldSubject, "Subject must be 200 characters or fewer")
	case strings.ContainsAny(s, htmlMarkupSet) || suspiciousScheme.MatchString(s):
		return apperr.Invalid(fieldSubject, "Subject contains invalid content")
	}
	return nil
}

func checkMessage(s string) error {
	n := utf8.RuneCountInString(s)
	switch {
	case n == 0:
		return apperr.Invalid(fieldMessage, "Message is required")
	case n < MessageMin:
		return apperr.Invalid(fieldMessage, "Message must be at least 10 characters")
	case n > MessageMax:
		return apperr.Invalid(fieldMessage, "Message must be 5000 characters or fewer")
	case embeddedMarkupTag.MatchString(s):
		return apperr.Invalid(fieldMessage, "Message contains disallowed markup")
	case strings.ContainsAny(s, htmlMarkupSet) || suspiciousScheme.MatchString(s):
		return apperr.Invalid(fieldMessage, "Message contains invalid content")
	}
	return nil
}

// normalize trims surrounding whitespace and composes the text to NFC so that
// length checks count user-perceived characters consistently.
func normalize(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}
