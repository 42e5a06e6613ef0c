package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/reflexhq/reflex/pkg/protocol"
)

const defaultCallTimeout = 30 * time.Second

// HTTPCaller implements protocol.ToolCaller over HTTP. Each call POSTs
// {"tool": ..., "arguments": ...} to the named server and decodes the
// uniform result shape.
type HTTPCaller struct {
	config *Config
	client *http.Client
	logger *slog.Logger
}

type callRequest struct {
	Tool      string         `json:"tool"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

func NewHTTPCaller(config *Config, logger *slog.Logger) *HTTPCaller {
	return &HTTPCaller{
		config: config,
		client: &http.Client{Timeout: defaultCallTimeout},
		logger: logger.With("module", "tools"),
	}
}

func (c *HTTPCaller) HasServer(name string) bool {
	_, ok := c.config.Servers[name]

	return ok
}

func (c *HTTPCaller) Call(ctx context.Context, server, tool string, args map[string]any) (*protocol.ToolResult, error) {
	serverConfig, ok := c.config.Servers[server]
	if !ok {
		return nil, fmt.Errorf("unknown tool server %q", server)
	}

	body, err := json.Marshal(callRequest{Tool: tool, Arguments: args})
	if err != nil {
		return nil, fmt.Errorf("failed to encode call to %s.%s: %w", server, tool, err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, serverConfig.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s.%s: %w", server, tool, err)
	}

	request.Header.Set("Content-Type", "application/json")

	if serverConfig.Token != "" {
		request.Header.Set("Authorization", "Bearer "+serverConfig.Token)
	}

	c.logger.DebugContext(ctx, "Calling remote tool", "server", server, "tool", tool)

	response, err := c.client.Do(request)
	if err != nil {
		return nil, fmt.Errorf("failed to call %s.%s: %w", server, tool, err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tool server %s returned status %d for %s", server, response.StatusCode, tool)
	}

	var result protocol.ToolResult
	if err := json.NewDecoder(response.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode reply from %s.%s: %w", server, tool, err)
	}

	return &result, nil
}
