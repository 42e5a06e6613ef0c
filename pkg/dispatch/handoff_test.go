package dispatch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reflexhq/reflex/pkg/mocks"
	"github.com/reflexhq/reflex/pkg/models"
)

func handoffAction() *models.Action {
	return &models.Action{
		ID:   "h1",
		Type: ActionTypeHandoff,
		Params: map[string]any{
			"repo":      "acme/api",
			"pr_number": 42,
			"feedback":  "Please add tests for the new endpoint.",
		},
	}
}

func TestHandoff_WritesArtifactAndProposesCommand(t *testing.T) {
	dir := t.TempDir()
	router := NewRouter(&mocks.MockToolCaller{}, slog.Default(), WithArtifactsDir(dir))

	result := router.Execute(context.Background(), handoffAction(), nil, false)

	require.Equal(t, models.ActionStatusSuccess, result.Status, result.Error)

	path, ok := result.Output["prompt_path"].(string)
	require.True(t, ok)
	assert.Equal(t, dir, filepath.Dir(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "acme/api#42")
	assert.Contains(t, string(content), "Please add tests")

	command, ok := result.Output["command"].(string)
	require.True(t, ok)
	assert.Contains(t, command, path)
}

func TestHandoff_PathIsStablePerPR(t *testing.T) {
	dir := t.TempDir()
	router := NewRouter(&mocks.MockToolCaller{}, slog.Default(), WithArtifactsDir(dir))

	first := router.Execute(context.Background(), handoffAction(), nil, false)
	second := router.Execute(context.Background(), handoffAction(), nil, false)

	assert.Equal(t, first.Output["prompt_path"], second.Output["prompt_path"])
}

func TestHandoff_DryRunWritesNothing(t *testing.T) {
	dir := t.TempDir()
	router := NewRouter(&mocks.MockToolCaller{}, slog.Default(), WithArtifactsDir(dir))

	result := router.Execute(context.Background(), handoffAction(), nil, true)

	require.Equal(t, models.ActionStatusSuccess, result.Status)
	assert.Equal(t, true, result.Output["dry_run"])

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestHandoff_RequiresRepoAndPRNumber(t *testing.T) {
	router := NewRouter(&mocks.MockToolCaller{}, slog.Default())

	action := &models.Action{ID: "h1", Type: ActionTypeHandoff, Params: map[string]any{"repo": "acme/api"}}
	result := router.Execute(context.Background(), action, nil, false)
	assert.Equal(t, models.ActionStatusFailed, result.Status)
	assert.Contains(t, result.Error, "pr_number")

	action.Params = map[string]any{"pr_number": 42}
	result = router.Execute(context.Background(), action, nil, false)
	assert.Equal(t, models.ActionStatusFailed, result.Status)
	assert.Contains(t, result.Error, "repo")
}

func TestHandoff_CustomAgentCommand(t *testing.T) {
	dir := t.TempDir()
	router := NewRouter(&mocks.MockToolCaller{}, slog.Default(),
		WithArtifactsDir(dir), WithAgentCommand("aider"))

	result := router.Execute(context.Background(), handoffAction(), nil, true)

	command, ok := result.Output["command"].(string)
	require.True(t, ok)
	assert.Contains(t, command, "aider -p")
}
