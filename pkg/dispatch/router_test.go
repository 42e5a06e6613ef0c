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

func newTestRouter(t *testing.T, caller *mocks.MockToolCaller, opts ...Option) *Router {
	t.Helper()

	return NewRouter(caller, slog.Default(), opts...)
}

func labelAction() *models.Action {
	return &models.Action{
		ID:   "a1",
		Type: "email.label",
		Params: map[string]any{
			"message_id": "${trigger.email.id}",
			"label":      "Invoices",
		},
	}
}

func triggerVars() map[string]any {
	return map[string]any{
		"trigger": map[string]any{
			"email": map[string]any{"id": "E1"},
		},
	}
}

func TestExecute_DryRunNeverCallsTools(t *testing.T) {
	caller := &mocks.MockToolCaller{}
	caller.On("HasServer", "gmail").Return(true)

	router := newTestRouter(t, caller)

	result := router.Execute(context.Background(), labelAction(), triggerVars(), true)

	require.Equal(t, models.ActionStatusSuccess, result.Status)
	assert.Equal(t, true, result.Output["dry_run"])
	assert.Equal(t, "gmail.add_label", result.Output["would_execute"])

	// Resolved arguments are merged to the top level of the output.
	assert.Equal(t, "E1", result.Output["message_id"])
	assert.Equal(t, "Invoices", result.Output["label"])

	caller.AssertNotCalled(t, "Call", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestExecute_LiveCallSuccess(t *testing.T) {
	caller := &mocks.MockToolCaller{}
	caller.On("HasServer", "gmail").Return(true)
	caller.On("Call", mock.Anything, "gmail", "add_label", map[string]any{
		"message_id": "E1",
		"label":      "Invoices",
	}).Return(&protocol.ToolResult{
		Success: true,
		Content: []protocol.ContentItem{{Type: "text", Text: "labeled"}},
	}, nil)

	router := newTestRouter(t, caller)

	result := router.Execute(context.Background(), labelAction(), triggerVars(), false)

	require.Equal(t, models.ActionStatusSuccess, result.Status)
	assert.Equal(t, "gmail", result.Output["server"])
	assert.Equal(t, "add_label", result.Output["tool"])
	assert.Equal(t, "labeled", result.Output["result"])
	caller.AssertExpectations(t)
}

func TestExecute_RemoteFailureBecomesFailedResult(t *testing.T) {
	caller := &mocks.MockToolCaller{}
	caller.On("HasServer", "gmail").Return(true)
	caller.On("Call", mock.Anything, "gmail", "add_label", mock.Anything).
		Return(&protocol.ToolResult{Success: false, Error: "label not found"}, nil)

	router := newTestRouter(t, caller)

	result := router.Execute(context.Background(), labelAction(), triggerVars(), false)

	assert.Equal(t, models.ActionStatusFailed, result.Status)
	assert.Equal(t, "label not found", result.Error)
}

func TestExecute_UnknownActionType(t *testing.T) {
	caller := &mocks.MockToolCaller{}
	router := newTestRouter(t, caller)

	action := &models.Action{ID: "a1", Type: "email.summon"}
	result := router.Execute(context.Background(), action, nil, false)

	assert.Equal(t, models.ActionStatusFailed, result.Status)
	assert.Contains(t, result.Error, "no route for action type")
}

func TestExecute_ServerNotConfigured(t *testing.T) {
	caller := &mocks.MockToolCaller{}
	caller.On("HasServer", "gmail").Return(false)

	router := newTestRouter(t, caller)

	result := router.Execute(context.Background(), labelAction(), triggerVars(), false)

	assert.Equal(t, models.ActionStatusFailed, result.Status)
	assert.Contains(t, result.Error, "remote server not configured")
}

func TestExecute_GeneratesActionIDWhenMissing(t *testing.T) {
	caller := &mocks.MockToolCaller{}
	caller.On("HasServer", "gmail").Return(true)

	router := newTestRouter(t, caller)

	action := labelAction()
	action.ID = ""

	result := router.Execute(context.Background(), action, triggerVars(), true)

	assert.Regexp(t, `^act_[0-9a-f-]{8}$`, result.ActionID)
}

func TestCanDispatch(t *testing.T) {
	caller := &mocks.MockToolCaller{}
	caller.On("HasServer", "gmail").Return(true)
	caller.On("HasServer", "github").Return(false)

	completer := &mocks.MockStructuredCompleter{}
	router := newTestRouter(t, caller, WithCompleter(completer))

	assert.True(t, router.CanDispatch(&models.Action{Type: "email.label"}))
	assert.True(t, router.CanDispatch(&models.Action{Type: ActionTypeClassify}))
	assert.True(t, router.CanDispatch(&models.Action{Type: ActionTypeHandoff}))
	assert.False(t, router.CanDispatch(&models.Action{Type: "code_review.approve"}))
	assert.False(t, router.CanDispatch(&models.Action{Type: "no.such"}))
}

func TestCanDispatch_ClassifyNeedsCompleter(t *testing.T) {
	caller := &mocks.MockToolCaller{}
	caller.On("HasServer", "gmail").Return(true)

	router := newTestRouter(t, caller)

	assert.False(t, router.CanDispatch(&models.Action{Type: ActionTypeClassify}))
}
