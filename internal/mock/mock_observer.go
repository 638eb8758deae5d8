package mock

import (
	"github.com/stretchr/testify/mock"

	"github.com/tx-grouper/internal/grouper"
	"github.com/tx-grouper/pkg/model"
)

// MockObserver is a mock implementation of grouper.Observer.
type MockObserver struct {
	mock.Mock
}

var _ grouper.Observer = (*MockObserver)(nil)

// DetectionFailed mocks the DetectionFailed method.
func (m *MockObserver) DetectionFailed(chainID string, tx *model.Transaction, err error) {
	m.Called(chainID, tx, err)
}

// Grouped mocks the Grouped method.
func (m *MockObserver) Grouped(chainID string, txCount int, sizes []int, failures int) {
	m.Called(chainID, txCount, sizes, failures)
}

// Rebalanced mocks the Rebalanced method.
func (m *MockObserver) Rebalanced(strategy grouper.Strategy, coreCount int, before, after []int) {
	m.Called(strategy, coreCount, before, after)
}

// UnsupportedStrategy mocks the UnsupportedStrategy method.
func (m *MockObserver) UnsupportedStrategy(strategy grouper.Strategy) {
	m.Called(strategy)
}

// ConsistencyViolation mocks the ConsistencyViolation method.
func (m *MockObserver) ConsistencyViolation(strategy grouper.Strategy, expected, actual int) {
	m.Called(strategy, expected, actual)
}

// AllowAll accepts every event without asserting arguments.
func (m *MockObserver) AllowAll() *MockObserver {
	m.On("DetectionFailed", mock.Anything, mock.Anything, mock.Anything).Maybe()
	m.On("Grouped", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Maybe()
	m.On("Rebalanced", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Maybe()
	m.On("UnsupportedStrategy", mock.Anything).Maybe()
	m.On("ConsistencyViolation", mock.Anything, mock.Anything, mock.Anything).Maybe()
	return m
}
