package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/tx-grouper/internal/repository"
	"github.com/tx-grouper/pkg/model"
)

// MockContractRepository is a mock implementation of repository.ContractRepository.
type MockContractRepository struct {
	mock.Mock
}

var _ repository.ContractRepository = (*MockContractRepository)(nil)

// GetContract mocks the GetContract method.
func (m *MockContractRepository) GetContract(ctx context.Context, chainID, address string) (*model.Contract, error) {
	args := m.Called(ctx, chainID, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Contract), args.Error(1)
}

// SaveContract mocks the SaveContract method.
func (m *MockContractRepository) SaveContract(ctx context.Context, contract *model.Contract) error {
	args := m.Called(ctx, contract)
	return args.Error(0)
}

// ListContracts mocks the ListContracts method.
func (m *MockContractRepository) ListContracts(ctx context.Context, chainID string) ([]*model.Contract, error) {
	args := m.Called(ctx, chainID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Contract), args.Error(1)
}

// DeleteContract mocks the DeleteContract method.
func (m *MockContractRepository) DeleteContract(ctx context.Context, chainID, address string) error {
	args := m.Called(ctx, chainID, address)
	return args.Error(0)
}
