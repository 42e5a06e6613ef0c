package models

import (
	"strings"
	"time"
)

// EventRecord is a domain event fetched from an external source. Each domain
// supplies its own field extractor via Field; unknown fields report ok=false
// and evaluate to no-match.
type EventRecord interface {
	EventID() string
	Domain() TriggerType

	// Field extracts the matchable string form of a named trigger field.
	Field(name string) (value string, ok bool)

	// TriggerData builds the payload map that seeds an execution's variable
	// context under the "trigger" key.
	TriggerData() map[string]any
}

// EmailAddress is a parsed sender or recipient.
type EmailAddress struct {
	Name    string `json:"name,omitempty"`
	Address string `json:"address"`
	Domain  string `json:"domain,omitempty"`
}

// ParseEmailAddress splits "Name <user@host>" (or a bare address) into parts.
func ParseEmailAddress(raw string) EmailAddress {
	addr := EmailAddress{Address: strings.TrimSpace(raw)}

	if open := strings.LastIndex(raw, "<"); open >= 0 {
		if close := strings.LastIndex(raw, ">"); close > open {
			addr.Name = strings.Trim(strings.TrimSpace(raw[:open]), `"`)
			addr.Address = strings.TrimSpace(raw[open+1 : close])
		}
	}

	if at := strings.LastIndex(addr.Address, "@"); at >= 0 {
		addr.Domain = addr.Address[at+1:]
	}

	return addr
}

// Attachment is an email attachment reference; only the filename matters for
// condition matching.
type Attachment struct {
	Filename string `json:"filename"`
	MimeType string `json:"mime_type,omitempty"`
	Size     int64  `json:"size,omitempty"`
}

// EmailEvent is an arriving message as reported by the mail source.
type EmailEvent struct {
	ID          string         `json:"id"`
	ThreadID    string         `json:"thread_id,omitempty"`
	Subject     string         `json:"subject"`
	From        EmailAddress   `json:"from"`
	To          []EmailAddress `json:"to,omitempty"`
	Snippet     string         `json:"snippet,omitempty"`
	BodyText    string         `json:"body_text,omitempty"`
	Labels      []string       `json:"labels,omitempty"`
	Attachments []Attachment   `json:"attachments,omitempty"`
	Date        time.Time      `json:"date"`
}

func (e *EmailEvent) EventID() string {
	return e.ID
}

func (e *EmailEvent) Domain() TriggerType {
	return TriggerTypeEmail
}

// Field extracts the matchable form of an email trigger field. The "from"
// field concatenates name, address and domain so conditions can match any of
// them; "body" falls back to the snippet when the full body is absent.
func (e *EmailEvent) Field(name string) (string, bool) {
	switch name {
	case "from":
		return e.From.Name + " <" + e.From.Address + "> @" + e.From.Domain, true
	case "to":
		addrs := make([]string, len(e.To))
		for i, a := range e.To {
			addrs[i] = a.Address
		}

		return strings.Join(addrs, ", "), true
	case "subject":
		return e.Subject, true
	case "body":
		if e.BodyText != "" {
			return e.BodyText, true
		}

		return e.Snippet, true
	case "attachments":
		names := make([]string, len(e.Attachments))
		for i, a := range e.Attachments {
			names[i] = a.Filename
		}

		return strings.Join(names, ", "), true
	}

	return "", false
}

func (e *EmailEvent) TriggerData() map[string]any {
	to := make([]any, len(e.To))
	for i, a := range e.To {
		to[i] = a.Address
	}

	return map[string]any{
		"email": map[string]any{
			"id":              e.ID,
			"thread_id":       e.ThreadID,
			"subject":         e.Subject,
			"from":            e.From.Address,
			"from_name":       e.From.Name,
			"from_domain":     e.From.Domain,
			"to":              to,
			"snippet":         e.Snippet,
			"date":            e.Date.Format(time.RFC3339),
			"labels":          append([]string(nil), e.Labels...),
			"has_attachments": len(e.Attachments) > 0,
		},
	}
}

// ReviewEvent is one code-review submission on a pull request.
type ReviewEvent struct {
	ID          string    `json:"id"`
	Repo        string    `json:"repo"`
	PRNumber    int       `json:"pr_number"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	Reviewer    string    `json:"reviewer"`
	State       string    `json:"state"`
	Body        string    `json:"body,omitempty"`
	URL         string    `json:"url,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
}

func (r *ReviewEvent) EventID() string {
	return r.ID
}

func (r *ReviewEvent) Domain() TriggerType {
	return TriggerTypeCodeReview
}

func (r *ReviewEvent) Field(name string) (string, bool) {
	switch name {
	case "repo":
		return r.Repo, true
	case "author":
		return r.Author, true
	case "reviewer":
		return r.Reviewer, true
	case "state":
		return r.State, true
	case "title":
		return r.Title, true
	}

	return "", false
}

func (r *ReviewEvent) TriggerData() map[string]any {
	return map[string]any{
		"review": map[string]any{
			"id":           r.ID,
			"repo":         r.Repo,
			"pr_number":    r.PRNumber,
			"title":        r.Title,
			"author":       r.Author,
			"reviewer":     r.Reviewer,
			"state":        r.State,
			"body":         r.Body,
			"url":          r.URL,
			"submitted_at": r.SubmittedAt.Format(time.RFC3339),
		},
	}
}
