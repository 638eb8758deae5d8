package grouper

import (
	"context"

	"github.com/tx-grouper/pkg/model"
)

// ResourceDetector reports the resources a transaction reads or writes.
// An error is attributed to that transaction only. Implementations shared
// between groupers must be safe for concurrent use.
type ResourceDetector interface {
	Detect(ctx context.Context, chainID string, tx *model.Transaction) ([]model.ResourceKey, error)
}

// DetectorFunc adapts a function to ResourceDetector.
type DetectorFunc func(ctx context.Context, chainID string, tx *model.Transaction) ([]model.ResourceKey, error)

// Detect implements ResourceDetector.
func (f DetectorFunc) Detect(ctx context.Context, chainID string, tx *model.Transaction) ([]model.ResourceKey, error) {
	return f(ctx, chainID, tx)
}
