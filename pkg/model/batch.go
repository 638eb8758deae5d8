package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Batch is an ordered set of pending transactions submitted for grouping.
type Batch struct {
	ID           string         `json:"id"`
	ChainID      string         `json:"chain_id"`
	CreatedAt    time.Time      `json:"created_at"`
	Transactions []*Transaction `json:"transactions"`
}

// NewBatch creates a batch with a fresh id and assigns sequence ids to txs.
func NewBatch(chainID string, txs []*Transaction) *Batch {
	b := &Batch{
		ID:           uuid.NewString(),
		ChainID:      chainID,
		CreatedAt:    time.Now(),
		Transactions: txs,
	}
	b.Reindex()
	return b
}

// Reindex assigns ids in input order and fills missing hashes.
// It also gives the batch an id when it has none. Nil entries are skipped.
func (b *Batch) Reindex() {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	for i, tx := range b.Transactions {
		if tx == nil {
			continue
		}
		tx.ID = TxID(i)
		tx.EnsureHash()
	}
}

// Validate checks that the batch is usable for grouping.
func (b *Batch) Validate() error {
	seen := make(map[TxID]struct{}, len(b.Transactions))
	for i, tx := range b.Transactions {
		if tx == nil {
			return fmt.Errorf("transaction at index %d is nil", i)
		}
		if _, dup := seen[tx.ID]; dup {
			return fmt.Errorf("duplicate transaction id %d", tx.ID)
		}
		seen[tx.ID] = struct{}{}
	}
	return nil
}

// Len returns the number of transactions.
func (b *Batch) Len() int {
	return len(b.Transactions)
}
