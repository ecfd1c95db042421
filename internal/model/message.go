package model

import (
	"strings"
	"time"
)

// Category classifies a message into one of the closed set of triage types
type Category string

const (
	// CategoryNotice is an announcement that may require acknowledgement,
	// a signature, or a payment (school notices, administrative mail)
	CategoryNotice Category = "notice"

	// CategoryPersonal is direct correspondence from a person
	CategoryPersonal Category = "personal"

	// CategoryNewsletter is bulk or subscription mail
	CategoryNewsletter Category = "newsletter"
)

// Message is a triage item as loaded from upstream. It is immutable once
// loaded; the core never mutates it.
type Message struct {
	ID       string   `json:"id"`
	ThreadID string   `json:"thread_id,omitempty"`
	Category Category `json:"category"`

	Title   string `json:"title"`
	Summary string `json:"summary,omitempty"`
	Body    string `json:"body,omitempty"`

	// Structured fields extracted upstream
	RequiresSignature bool    `json:"requires_signature,omitempty"`
	ReplyProbability  float64 `json:"reply_probability,omitempty"`
	ThreadLength      int     `json:"thread_length,omitempty"`
}

// SearchText returns the lower-cased concatenation of the free-text fields.
// Eligibility predicates match against this single string so that the same
// content always produces the same result.
func (m *Message) SearchText() string {
	var b strings.Builder
	b.WriteString(m.Title)
	b.WriteString("\n")
	b.WriteString(m.Summary)
	b.WriteString("\n")
	b.WriteString(m.Body)
	return strings.ToLower(b.String())
}

// ActionCandidate is a follow-up action eligible for a message. Candidate
// order within a message's list is significant and mirrors rule order.
type ActionCandidate struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	IsPrimary   bool   `json:"is_primary"`
}

// ThreadMessage is one constituent message of a fetched conversation
type ThreadMessage struct {
	ID      string    `json:"id"`
	From    string    `json:"from"`
	Subject string    `json:"subject"`
	Snippet string    `json:"snippet,omitempty"`
	Body    string    `json:"body,omitempty"`
	Date    time.Time `json:"date"`
}

// ThreadData is the result of an expensive thread fetch: the ordered
// constituent messages plus context annotations derived from their content.
// Cached entries are always replaced wholesale, never patched.
type ThreadData struct {
	ThreadID        string          `json:"thread_id"`
	Messages        []ThreadMessage `json:"messages"`
	DetectedDates   []string        `json:"detected_dates,omitempty"`
	DetectedAmounts []string        `json:"detected_amounts,omitempty"`
}
