// Package detector provides ResourceDetector implementations: a static
// address analysis, a contract metadata lookup and an ARC cache wrapper.
package detector

import (
	"context"
	"errors"
	"fmt"

	"github.com/tx-grouper/internal/grouper"
	apperrors "github.com/tx-grouper/pkg/errors"
	"github.com/tx-grouper/pkg/model"
)

var (
	ErrMissingSender    = errors.New("transaction has no sender")
	ErrMissingRecipient = errors.New("transaction has no recipient")
)

// DefaultSystemAddress is the registry every system action writes.
const DefaultSystemAddress = "system"

// BalanceKey returns the resource key for the balance of addr.
func BalanceKey(addr string) model.ResourceKey {
	return model.ResourceKey("balance." + model.NormalizeAddress(addr))
}

// Address derives resources from the endpoints of a transaction.
//
// Every transaction writes its sender balance. Transfers and calls also
// touch the recipient balance, and system actions all share the registry
// key so they always conflict with each other. Keys the submitter declared
// in Transaction.Resources are appended.
type Address struct {
	systemKey model.ResourceKey
}

var _ grouper.ResourceDetector = (*Address)(nil)

// NewAddress creates an Address detector. An empty systemAddress selects
// DefaultSystemAddress.
func NewAddress(systemAddress string) *Address {
	if systemAddress == "" {
		systemAddress = DefaultSystemAddress
	}
	return &Address{systemKey: model.ResourceKey("registry." + model.NormalizeAddress(systemAddress))}
}

// SystemKey returns the resource shared by all system actions.
func (a *Address) SystemKey() model.ResourceKey {
	return a.systemKey
}

// Detect implements grouper.ResourceDetector.
func (a *Address) Detect(ctx context.Context, _ string, tx *model.Transaction) ([]model.ResourceKey, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if model.NormalizeAddress(tx.From) == "" {
		return nil, detectionError(tx, ErrMissingSender)
	}

	keys := make([]model.ResourceKey, 0, 2+len(tx.Resources))
	keys = append(keys, BalanceKey(tx.From))

	switch tx.Kind {
	case model.TxKindSystem:
		keys = append(keys, a.systemKey)
	default:
		if model.NormalizeAddress(tx.To) == "" {
			return nil, detectionError(tx, ErrMissingRecipient)
		}
		keys = appendUnique(keys, BalanceKey(tx.To))
	}

	return appendUnique(keys, tx.Resources...), nil
}

func detectionError(tx *model.Transaction, err error) error {
	return apperrors.Wrap(apperrors.CodeDetectionError, fmt.Sprintf("cannot analyze %s", tx), err)
}

func appendUnique(keys []model.ResourceKey, extra ...model.ResourceKey) []model.ResourceKey {
	for _, k := range extra {
		if k == "" {
			continue
		}
		dup := false
		for _, existing := range keys {
			if existing == k {
				dup = true
				break
			}
		}
		if !dup {
			keys = append(keys, k)
		}
	}
	return keys
}
