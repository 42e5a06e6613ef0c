package tools

import (
	"context"
	"fmt"

	"github.com/reflexhq/reflex/pkg/protocol"
)

// CompleterServer is the conventional server name for structured completion.
const CompleterServer = "llm"

// ToolCompleter implements protocol.StructuredCompleter on top of a tool
// server exposing a complete_structured tool.
type ToolCompleter struct {
	caller protocol.ToolCaller
}

// NewToolCompleter returns a completer backed by the llm server, or nil when
// that server is not configured. A nil completer disables the
// classify-and-label handler.
func NewToolCompleter(caller protocol.ToolCaller) *ToolCompleter {
	if !caller.HasServer(CompleterServer) {
		return nil
	}

	return &ToolCompleter{caller: caller}
}

func (c *ToolCompleter) CompleteStructured(ctx context.Context, prompt string, schema map[string]any, temperature float64) (map[string]any, error) {
	result, err := c.caller.Call(ctx, CompleterServer, "complete_structured", map[string]any{
		"prompt":      prompt,
		"schema":      schema,
		"temperature": temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("structured completion failed: %w", err)
	}

	if !result.Success {
		return nil, fmt.Errorf("structured completion failed: %s", result.Error)
	}

	return result.Structured, nil
}
