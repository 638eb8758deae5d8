// Package mock provides mock implementations for testing.
package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/tx-grouper/internal/grouper"
	"github.com/tx-grouper/pkg/model"
)

// MockDetector is a mock implementation of grouper.ResourceDetector.
type MockDetector struct {
	mock.Mock
}

var _ grouper.ResourceDetector = (*MockDetector)(nil)

// Detect mocks the Detect method.
func (m *MockDetector) Detect(ctx context.Context, chainID string, tx *model.Transaction) ([]model.ResourceKey, error) {
	args := m.Called(ctx, chainID, tx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ResourceKey), args.Error(1)
}

// ExpectDetect sets up an expectation for Detect on the transaction with id.
func (m *MockDetector) ExpectDetect(chainID string, id model.TxID, keys []model.ResourceKey, err error) *mock.Call {
	return m.On("Detect", mock.Anything, chainID, mock.MatchedBy(func(tx *model.Transaction) bool {
		return tx.ID == id
	})).Return(keys, err)
}

// ExpectAnyDetect sets up an expectation for any Detect call.
func (m *MockDetector) ExpectAnyDetect(keys []model.ResourceKey, err error) *mock.Call {
	return m.On("Detect", mock.Anything, mock.Anything, mock.Anything).Return(keys, err)
}
