package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/reflexhq/reflex/pkg/models"
	"github.com/reflexhq/reflex/pkg/persistence"
)

// MockAutomationRepository is a mock implementation of
// persistence.AutomationRepository.
type MockAutomationRepository struct {
	mock.Mock
}

func (m *MockAutomationRepository) List(ctx context.Context, status *models.AutomationStatus) ([]*models.Automation, error) {
	args := m.Called(ctx, status)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.Automation), args.Error(1)
}

func (m *MockAutomationRepository) GetByID(ctx context.Context, id string) (*models.Automation, error) {
	args := m.Called(ctx, id)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Automation), args.Error(1)
}

func (m *MockAutomationRepository) Save(ctx context.Context, automation *models.Automation) error {
	args := m.Called(ctx, automation)

	return args.Error(0)
}

func (m *MockAutomationRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}

// MockExecutionRepository is a mock implementation of
// persistence.ExecutionRepository.
type MockExecutionRepository struct {
	mock.Mock
}

func (m *MockExecutionRepository) Save(ctx context.Context, execution *models.Execution) error {
	args := m.Called(ctx, execution)

	return args.Error(0)
}

func (m *MockExecutionRepository) GetByID(ctx context.Context, id string) (*models.Execution, error) {
	args := m.Called(ctx, id)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Execution), args.Error(1)
}

func (m *MockExecutionRepository) List(ctx context.Context, automationID string, limit int) ([]*models.Execution, error) {
	args := m.Called(ctx, automationID, limit)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.Execution), args.Error(1)
}

// MockWatcherStateRepository is a mock implementation of
// persistence.WatcherStateRepository.
type MockWatcherStateRepository struct {
	mock.Mock
}

func (m *MockWatcherStateRepository) Get(ctx context.Context, domain models.TriggerType) (*models.WatcherState, error) {
	args := m.Called(ctx, domain)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.WatcherState), args.Error(1)
}

func (m *MockWatcherStateRepository) Save(ctx context.Context, domain models.TriggerType, state *models.WatcherState) error {
	args := m.Called(ctx, domain, state)

	return args.Error(0)
}

// MockPersistence is a mock implementation of persistence.Persistence that
// hands out the repository mocks it was built with.
type MockPersistence struct {
	mock.Mock

	Automations *MockAutomationRepository
	Executions  *MockExecutionRepository
	States      *MockWatcherStateRepository
}

func NewMockPersistence() *MockPersistence {
	return &MockPersistence{
		Automations: &MockAutomationRepository{},
		Executions:  &MockExecutionRepository{},
		States:      &MockWatcherStateRepository{},
	}
}

func (m *MockPersistence) AutomationRepository() persistence.AutomationRepository {
	return m.Automations
}

func (m *MockPersistence) ExecutionRepository() persistence.ExecutionRepository {
	return m.Executions
}

func (m *MockPersistence) WatcherStateRepository() persistence.WatcherStateRepository {
	return m.States
}

func (m *MockPersistence) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockPersistence) Close(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}
