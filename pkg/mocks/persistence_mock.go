package mocks

import (
	"context"

	"github.com/recipemap/recipemap/pkg/persistence"
	"github.com/stretchr/testify/mock"
)

// MockPersistence is a mock implementation of persistence.Persistence interface.
// WithTransaction never calls fn; tests use it to inject storage failures.
type MockPersistence struct {
	mock.Mock
}

func (m *MockPersistence) WithTransaction(ctx context.Context, opts persistence.TxOptions, fn persistence.TxFunc) error {
	args := m.Called(ctx, opts)

	return args.Error(0)
}

func (m *MockPersistence) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockPersistence) Close(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}
