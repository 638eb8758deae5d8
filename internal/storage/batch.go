package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	apperrors "github.com/tx-grouper/pkg/errors"
	"github.com/tx-grouper/pkg/model"
)

// BatchStore reads transaction batches and writes grouping plans on top of
// any Storage backend.
type BatchStore struct {
	storage Storage
}

// NewBatchStore creates a BatchStore.
func NewBatchStore(s Storage) *BatchStore {
	return &BatchStore{storage: s}
}

// Storage returns the underlying backend.
func (b *BatchStore) Storage() Storage {
	return b.storage
}

// LoadBatch reads the batch at key. See DecodeBatch for the accepted forms.
func (b *BatchStore) LoadBatch(ctx context.Context, key, chainID string) (*model.Batch, error) {
	rc, err := b.storage.Download(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return DecodeBatch(rc, key, chainID)
}

// DecodeBatch decodes a batch object, or a bare JSON array of transactions
// which becomes a batch on chainID. name only labels errors.
//
// Transaction ids are reassigned in input order and hashes are filled, so
// the input does not need to carry them.
func DecodeBatch(r io.Reader, name, chainID string) (*model.Batch, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInvalidParameter, fmt.Sprintf("failed to decode batch %s", name), err)
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var txs []*model.Transaction
		if err := json.Unmarshal(trimmed, &txs); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeInvalidParameter, fmt.Sprintf("failed to decode batch %s", name), err)
		}
		return validBatch(name, model.NewBatch(chainID, txs))
	}

	var batch model.Batch
	if err := json.Unmarshal(trimmed, &batch); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInvalidParameter, fmt.Sprintf("failed to decode batch %s", name), err)
	}
	if batch.ChainID == "" {
		batch.ChainID = chainID
	}
	batch.Reindex()
	return validBatch(name, &batch)
}

func validBatch(key string, batch *model.Batch) (*model.Batch, error) {
	if err := batch.Validate(); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInvalidParameter, fmt.Sprintf("invalid batch %s", key), err)
	}
	return batch, nil
}

// SaveBatch writes batch as JSON to key.
func (b *BatchStore) SaveBatch(ctx context.Context, key string, batch *model.Batch) error {
	return b.put(ctx, key, batch)
}

// SavePlan writes plan as indented JSON to key.
func (b *BatchStore) SavePlan(ctx context.Context, key string, plan *model.Plan) error {
	return b.put(ctx, key, plan)
}

func (b *BatchStore) put(ctx context.Context, key string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return apperrors.Wrap(apperrors.CodeStorageError, "failed to encode object", err)
	}
	return b.storage.Upload(ctx, key, bytes.NewReader(data))
}
