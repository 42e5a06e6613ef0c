package dispatch

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/reflexhq/reflex/pkg/mocks"
	"github.com/reflexhq/reflex/pkg/models"
	"github.com/reflexhq/reflex/pkg/protocol"
)

func classifyAction() *models.Action {
	return &models.Action{
		ID:   "c1",
		Type: ActionTypeClassify,
		Params: map[string]any{
			"message_id": "E1",
			"categories": []any{"invoice", "newsletter", "other"},
			"labels":     map[string]any{"invoice": "Finance/Invoices"},
		},
	}
}

func TestClassify_FullFlow(t *testing.T) {
	caller := &mocks.MockToolCaller{}
	caller.On("Call", mock.Anything, "gmail", "get_email", map[string]any{"message_id": "E1"}).
		Return(&protocol.ToolResult{
			Success:    true,
			Content:    []protocol.ContentItem{{Type: "text", Text: "Please pay invoice INV-1"}},
			Structured: map[string]any{"subject": "Invoice", "from": "billing@acme.com"},
		}, nil)
	caller.On("Call", mock.Anything, "gmail", "add_label", map[string]any{
		"message_id": "E1",
		"label":      "Finance/Invoices",
	}).Return(&protocol.ToolResult{Success: true}, nil)

	completer := &mocks.MockStructuredCompleter{}
	completer.On("CompleteStructured", mock.Anything, mock.Anything, mock.Anything, 0.0).
		Return(map[string]any{
			"category":   "invoice",
			"confidence": 0.92,
			"reasoning":  "mentions an invoice number",
		}, nil)

	router := NewRouter(caller, slog.Default(), WithCompleter(completer))

	result := router.Execute(context.Background(), classifyAction(), nil, false)

	require.Equal(t, models.ActionStatusSuccess, result.Status, result.Error)
	assert.Equal(t, "invoice", result.Output["category"])
	assert.Equal(t, "Finance/Invoices", result.Output["label"])
	assert.Equal(t, 0.92, result.Output["confidence"])
	caller.AssertExpectations(t)
	completer.AssertExpectations(t)
}

func TestClassify_NoCompleterFailsWithoutCalling(t *testing.T) {
	caller := &mocks.MockToolCaller{}

	router := NewRouter(caller, slog.Default())

	require.False(t, router.CanDispatch(classifyAction()))

	result := router.Execute(context.Background(), classifyAction(), nil, false)

	assert.Equal(t, models.ActionStatusFailed, result.Status)
	assert.Contains(t, result.Error, "no completion provider")
	caller.AssertNotCalled(t, "Call", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestClassify_LabelFallsBackToCategory(t *testing.T) {
	caller := &mocks.MockToolCaller{}
	caller.On("Call", mock.Anything, "gmail", "get_email", mock.Anything).
		Return(&protocol.ToolResult{Success: true}, nil)
	caller.On("Call", mock.Anything, "gmail", "add_label", map[string]any{
		"message_id": "E1",
		"label":      "newsletter",
	}).Return(&protocol.ToolResult{Success: true}, nil)

	completer := &mocks.MockStructuredCompleter{}
	completer.On("CompleteStructured", mock.Anything, mock.Anything, mock.Anything, 0.0).
		Return(map[string]any{"category": "newsletter", "confidence": 0.7}, nil)

	router := NewRouter(caller, slog.Default(), WithCompleter(completer))

	result := router.Execute(context.Background(), classifyAction(), nil, false)

	require.Equal(t, models.ActionStatusSuccess, result.Status, result.Error)
	assert.Equal(t, "newsletter", result.Output["label"])
}

func TestClassify_RejectsCategoryOutsideSet(t *testing.T) {
	caller := &mocks.MockToolCaller{}
	caller.On("Call", mock.Anything, "gmail", "get_email", mock.Anything).
		Return(&protocol.ToolResult{Success: true}, nil)

	completer := &mocks.MockStructuredCompleter{}
	completer.On("CompleteStructured", mock.Anything, mock.Anything, mock.Anything, 0.0).
		Return(map[string]any{"category": "spam", "confidence": 0.9}, nil)

	router := NewRouter(caller, slog.Default(), WithCompleter(completer))

	result := router.Execute(context.Background(), classifyAction(), nil, false)

	assert.Equal(t, models.ActionStatusFailed, result.Status)
	caller.AssertNotCalled(t, "Call", mock.Anything, "gmail", "add_label", mock.Anything)
}

func TestClassify_RejectsSchemaViolation(t *testing.T) {
	caller := &mocks.MockToolCaller{}
	caller.On("Call", mock.Anything, "gmail", "get_email", mock.Anything).
		Return(&protocol.ToolResult{Success: true}, nil)

	completer := &mocks.MockStructuredCompleter{}
	// Missing the required confidence field.
	completer.On("CompleteStructured", mock.Anything, mock.Anything, mock.Anything, 0.0).
		Return(map[string]any{"category": "invoice"}, nil)

	router := NewRouter(caller, slog.Default(), WithCompleter(completer))

	result := router.Execute(context.Background(), classifyAction(), nil, false)

	assert.Equal(t, models.ActionStatusFailed, result.Status)
	assert.Contains(t, result.Error, "invalid completion")
}

func TestClassify_DryRunSkipsEverything(t *testing.T) {
	caller := &mocks.MockToolCaller{}
	completer := &mocks.MockStructuredCompleter{}

	router := NewRouter(caller, slog.Default(), WithCompleter(completer))

	result := router.Execute(context.Background(), classifyAction(), nil, true)

	require.Equal(t, models.ActionStatusSuccess, result.Status)
	assert.Equal(t, true, result.Output["dry_run"])
	caller.AssertNotCalled(t, "Call", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	completer.AssertNotCalled(t, "CompleteStructured", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestClassify_RequiresMessageIDAndCategories(t *testing.T) {
	router := NewRouter(&mocks.MockToolCaller{}, slog.Default(), WithCompleter(&mocks.MockStructuredCompleter{}))

	action := &models.Action{ID: "c1", Type: ActionTypeClassify, Params: map[string]any{}}
	result := router.Execute(context.Background(), action, nil, false)
	assert.Equal(t, models.ActionStatusFailed, result.Status)

	action.Params = map[string]any{"message_id": "E1"}
	result = router.Execute(context.Background(), action, nil, false)
	assert.Equal(t, models.ActionStatusFailed, result.Status)
}
