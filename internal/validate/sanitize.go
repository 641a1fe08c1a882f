package validate

import (
	"regexp"
	"strings"
	"time"

	"github.com/portfolio/backend/internal/model"
)

var markupTag = regexp.MustCompile(`<[^>]*>?`)

// Sanitize strips tag-shaped substrings and dangerous URI scheme prefixes and
// trims the result. It runs on already-validated text before persistence.
func Sanitize(s string) string {
	s = normalize(s)
	s = markupTag.ReplaceAllString(s, "")
	// Stripping can join fragments into a new scheme ("javajavascript:script:").
	for suspiciousScheme.MatchString(s) {
		s = suspiciousScheme.ReplaceAllString(s, "")
	}
	return strings.TrimSpace(s)
}

// Submission builds the record persisted for a validated input.
func Submission(in model.ContactInput, clientID string, now time.Time) *model.ContactSubmission {
	return &model.ContactSubmission{
		Name:             Sanitize(in.Name),
		Email:            strings.ToLower(Sanitize(in.Email)),
		Subject:          Sanitize(in.Subject),
		Message:          Sanitize(in.Message),
		CreatedAt:        now,
		SourceIdentifier: clientID,
	}
}
