package tools

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reflexhq/reflex/pkg/protocol"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tools.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"servers": {
			"gmail": {"url": "http://localhost:9001", "token": "secret"},
			"github": {"url": "http://localhost:9002"}
		}
	}`), 0o600))

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Len(t, config.Servers, 2)
	assert.Equal(t, "secret", config.Servers["gmail"].Token)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("not json"), 0o600))
	_, err = LoadConfig(bad)
	assert.Error(t, err)

	noURL := filepath.Join(t.TempDir(), "nourl.json")
	require.NoError(t, os.WriteFile(noURL, []byte(`{"servers": {"gmail": {}}}`), 0o600))
	_, err = LoadConfig(noURL)
	assert.Error(t, err)
}

func TestHTTPCaller_Call(t *testing.T) {
	var gotAuth string

	var gotBody callRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		json.NewEncoder(w).Encode(protocol.ToolResult{
			Success: true,
			Content: []protocol.ContentItem{{Type: "text", Text: "done"}},
		})
	}))
	defer server.Close()

	caller := NewHTTPCaller(&Config{Servers: map[string]ServerConfig{
		"gmail": {URL: server.URL, Token: "secret"},
	}}, slog.Default())

	result, err := caller.Call(context.Background(), "gmail", "add_label", map[string]any{
		"message_id": "E1",
	})

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "done", result.Text())
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "add_label", gotBody.Tool)
	assert.Equal(t, "E1", gotBody.Arguments["message_id"])
}

func TestHTTPCaller_UnknownServer(t *testing.T) {
	caller := NewHTTPCaller(&Config{Servers: map[string]ServerConfig{}}, slog.Default())

	assert.False(t, caller.HasServer("gmail"))

	_, err := caller.Call(context.Background(), "gmail", "add_label", nil)
	assert.Error(t, err)
}

func TestHTTPCaller_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	caller := NewHTTPCaller(&Config{Servers: map[string]ServerConfig{
		"gmail": {URL: server.URL},
	}}, slog.Default())

	_, err := caller.Call(context.Background(), "gmail", "add_label", nil)
	assert.Error(t, err)
}
