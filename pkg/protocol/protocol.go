// Package protocol defines the interfaces and contracts for external
// collaborators: event sources, remote tool servers and the structured
// completion provider. Implementations live outside the core pipeline and
// are injected at process start.
package protocol

import (
	"context"

	"github.com/reflexhq/reflex/pkg/models"
)

// EventSource queries one external event domain (a mailbox, a code-review
// feed). The query string is interpreted by the source; the watcher only
// builds it from the checkpoint.
type EventSource interface {
	Domain() models.TriggerType
	Search(ctx context.Context, query string, maxResults int) ([]models.EventRecord, error)
}

// ContentItem is one piece of a tool reply.
type ContentItem struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	Data     string `json:"data,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
	URI      string `json:"uri,omitempty"`
}

// ToolResult is the uniform reply shape of a remote tool invocation.
type ToolResult struct {
	Success    bool           `json:"success"`
	Content    []ContentItem  `json:"content,omitempty"`
	Structured map[string]any `json:"structured,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// Text returns the first text content item, or "".
func (r *ToolResult) Text() string {
	for _, item := range r.Content {
		if item.Type == "text" {
			return item.Text
		}
	}

	return ""
}

// ToolCaller invokes named tools on named remote servers.
type ToolCaller interface {
	// HasServer reports whether the named server is configured and reachable
	// through this caller.
	HasServer(name string) bool

	Call(ctx context.Context, server, tool string, args map[string]any) (*ToolResult, error)
}

// StructuredCompleter performs a generative call constrained to a JSON
// schema. Used only by the classify-and-label handler.
type StructuredCompleter interface {
	CompleteStructured(ctx context.Context, prompt string, schema map[string]any, temperature float64) (map[string]any, error)
}
