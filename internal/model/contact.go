package model

import "time"

// ContactInput is the decoded JSON body of POST /api/contact.
type ContactInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// ContactSubmission is a validated, sanitized contact form record.
// Records are written once and never updated.
type ContactSubmission struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
	// SourceIdentifier is the client identifier seen at submission time,
	// retained for abuse investigation only.
	SourceIdentifier string `json:"source_identifier,omitempty"`
}
