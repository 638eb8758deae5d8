// Package repository stores contract resource declarations used by the
// metadata detector.
package repository

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/tx-grouper/pkg/model"
)

// ContractResource represents the contract_resources table.
type ContractResource struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	ChainID   string    `gorm:"column:chain_id;type:varchar(64);uniqueIndex:idx_chain_address"`
	Address   string    `gorm:"column:address;type:varchar(128);uniqueIndex:idx_chain_address"`
	Name      string    `gorm:"column:name;type:varchar(128)"`
	Resources JSONField `gorm:"column:resources;type:json"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName returns the table name for ContractResource.
func (ContractResource) TableName() string {
	return "contract_resources"
}

// ToModel converts ContractResource to model.Contract.
func (c *ContractResource) ToModel() (*model.Contract, error) {
	contract := &model.Contract{
		ChainID:   c.ChainID,
		Address:   c.Address,
		Name:      c.Name,
		UpdatedAt: c.UpdatedAt,
	}
	if c.Resources != nil {
		if err := json.Unmarshal(c.Resources, &contract.Resources); err != nil {
			return nil, err
		}
	}
	return contract, nil
}

func newContractResource(c *model.Contract) (*ContractResource, error) {
	resources := c.Resources
	if resources == nil {
		resources = []model.ResourceKey{}
	}
	data, err := json.Marshal(resources)
	if err != nil {
		return nil, err
	}
	return &ContractResource{
		ChainID:   c.ChainID,
		Address:   model.NormalizeAddress(c.Address),
		Name:      c.Name,
		Resources: data,
	}, nil
}

// JSONField is a custom type for JSON columns.
type JSONField []byte

// Value implements driver.Valuer interface.
func (j JSONField) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return []byte(j), nil
}

// Scan implements sql.Scanner interface.
func (j *JSONField) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		*j = append((*j)[0:0], v...)
		return nil
	case string:
		*j = []byte(v)
		return nil
	default:
		return errors.New("unsupported type for JSONField")
	}
}
