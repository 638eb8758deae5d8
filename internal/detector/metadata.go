package detector

import (
	"context"
	"fmt"

	"github.com/tx-grouper/internal/grouper"
	"github.com/tx-grouper/internal/repository"
	apperrors "github.com/tx-grouper/pkg/errors"
	"github.com/tx-grouper/pkg/model"
)

// Metadata resolves contract calls through the resources declared for the
// target contract. Other transaction kinds are delegated to the fallback.
type Metadata struct {
	contracts repository.ContractRepository
	fallback  grouper.ResourceDetector
}

var _ grouper.ResourceDetector = (*Metadata)(nil)

// NewMetadata creates a Metadata detector. A nil fallback uses the address
// detector with the default system address.
func NewMetadata(contracts repository.ContractRepository, fallback grouper.ResourceDetector) *Metadata {
	if fallback == nil {
		fallback = NewAddress("")
	}
	return &Metadata{contracts: contracts, fallback: fallback}
}

// Detect implements grouper.ResourceDetector.
func (m *Metadata) Detect(ctx context.Context, chainID string, tx *model.Transaction) ([]model.ResourceKey, error) {
	keys, err := m.fallback.Detect(ctx, chainID, tx)
	if err != nil || tx.Kind != model.TxKindCall {
		return keys, err
	}

	contract, err := m.contracts.GetContract(ctx, chainID, tx.To)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.Wrap(apperrors.CodeDetectionError,
				fmt.Sprintf("unknown contract %s on chain %s", tx.To, chainID), err)
		}
		return nil, apperrors.Wrap(apperrors.CodeDetectionError, "contract lookup failed", err)
	}

	return appendUnique(keys, contract.Resources...), nil
}
