package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "github.com/tx-grouper/pkg/errors"
	"github.com/tx-grouper/pkg/model"
)

// ContractRepository defines the operations on contract declarations.
type ContractRepository interface {
	// GetContract returns the declaration for address on chainID.
	// A missing row yields an error matching errors.ErrNotFound.
	GetContract(ctx context.Context, chainID, address string) (*model.Contract, error)

	// SaveContract inserts or replaces a declaration.
	SaveContract(ctx context.Context, contract *model.Contract) error

	// ListContracts returns all declarations for chainID ordered by address.
	ListContracts(ctx context.Context, chainID string) ([]*model.Contract, error)

	// DeleteContract removes a declaration.
	DeleteContract(ctx context.Context, chainID, address string) error
}

// GormContractRepository implements ContractRepository using GORM.
type GormContractRepository struct {
	db *gorm.DB
}

// NewGormContractRepository creates a new GormContractRepository.
func NewGormContractRepository(db *gorm.DB) *GormContractRepository {
	return &GormContractRepository{db: db}
}

// Migrate creates or updates the contract_resources table.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&ContractResource{}); err != nil {
		return apperrors.Wrap(apperrors.CodeDatabaseError, "failed to migrate contract_resources", err)
	}
	return nil
}

// GetContract implements ContractRepository.
func (r *GormContractRepository) GetContract(ctx context.Context, chainID, address string) (*model.Contract, error) {
	var row ContractResource

	err := r.db.WithContext(ctx).
		Where("chain_id = ? AND address = ?", chainID, model.NormalizeAddress(address)).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Newf(apperrors.CodeNotFound, "contract not found: %s on %s", address, chainID)
		}
		return nil, apperrors.Wrap(apperrors.CodeDatabaseError, "failed to get contract", err)
	}

	contract, err := row.ToModel()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDatabaseError, fmt.Sprintf("corrupt resources for %s", address), err)
	}
	return contract, nil
}

// SaveContract implements ContractRepository.
func (r *GormContractRepository) SaveContract(ctx context.Context, contract *model.Contract) error {
	row, err := newContractResource(contract)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInvalidParameter, "failed to marshal resources", err)
	}

	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chain_id"}, {Name: "address"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "resources", "updated_at"}),
	}).Create(row).Error
	if err != nil {
		return apperrors.Wrap(apperrors.CodeDatabaseError, "failed to save contract", err)
	}
	return nil
}

// ListContracts implements ContractRepository.
func (r *GormContractRepository) ListContracts(ctx context.Context, chainID string) ([]*model.Contract, error) {
	var rows []ContractResource

	err := r.db.WithContext(ctx).
		Where("chain_id = ?", chainID).
		Order("address ASC").
		Find(&rows).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDatabaseError, "failed to list contracts", err)
	}

	result := make([]*model.Contract, 0, len(rows))
	for i := range rows {
		c, err := rows[i].ToModel()
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeDatabaseError, "corrupt resources", err)
		}
		result = append(result, c)
	}
	return result, nil
}

// DeleteContract implements ContractRepository.
func (r *GormContractRepository) DeleteContract(ctx context.Context, chainID, address string) error {
	result := r.db.WithContext(ctx).
		Where("chain_id = ? AND address = ?", chainID, model.NormalizeAddress(address)).
		Delete(&ContractResource{})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.CodeDatabaseError, "failed to delete contract", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.Newf(apperrors.CodeNotFound, "contract not found: %s on %s", address, chainID)
	}
	return nil
}
