// Package mocks provides testify mocks for the protocol and persistence
// interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/reflexhq/reflex/pkg/models"
	"github.com/reflexhq/reflex/pkg/protocol"
)

// MockToolCaller is a mock implementation of protocol.ToolCaller.
type MockToolCaller struct {
	mock.Mock
}

func (m *MockToolCaller) HasServer(name string) bool {
	args := m.Called(name)

	return args.Bool(0)
}

func (m *MockToolCaller) Call(ctx context.Context, server, tool string, callArgs map[string]any) (*protocol.ToolResult, error) {
	args := m.Called(ctx, server, tool, callArgs)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*protocol.ToolResult), args.Error(1)
}

// MockStructuredCompleter is a mock implementation of
// protocol.StructuredCompleter.
type MockStructuredCompleter struct {
	mock.Mock
}

func (m *MockStructuredCompleter) CompleteStructured(ctx context.Context, prompt string, schema map[string]any, temperature float64) (map[string]any, error) {
	args := m.Called(ctx, prompt, schema, temperature)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(map[string]any), args.Error(1)
}

// MockEventSource is a mock implementation of protocol.EventSource.
type MockEventSource struct {
	mock.Mock
}

func (m *MockEventSource) Domain() models.TriggerType {
	args := m.Called()

	return args.Get(0).(models.TriggerType)
}

func (m *MockEventSource) Search(ctx context.Context, query string, maxResults int) ([]models.EventRecord, error) {
	args := m.Called(ctx, query, maxResults)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]models.EventRecord), args.Error(1)
}
