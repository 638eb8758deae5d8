package model

import (
	"fmt"
	"sort"
)

// Group is an ordered list of transactions with no resource conflicts
// against any other group of the same result.
type Group []*Transaction

// IDs returns the transaction ids in group order.
func (g Group) IDs() []TxID {
	ids := make([]TxID, len(g))
	for i, tx := range g {
		ids[i] = tx.ID
	}
	return ids
}

// GroupSizes returns the size of each group in order.
func GroupSizes(groups []Group) []int {
	sizes := make([]int, len(groups))
	for i, g := range groups {
		sizes[i] = len(g)
	}
	return sizes
}

// TotalSize returns the number of transactions across all groups.
func TotalSize(groups []Group) int {
	total := 0
	for _, g := range groups {
		total += len(g)
	}
	return total
}

// DetectionFailure records why resource detection failed for a transaction.
type DetectionFailure struct {
	Tx  *Transaction
	Err error
}

// Error implements the error interface.
func (f *DetectionFailure) Error() string {
	return fmt.Sprintf("tx %d: %v", f.Tx.ID, f.Err)
}

// Unwrap returns the original detector error.
func (f *DetectionFailure) Unwrap() error {
	return f.Err
}

// FailureMap holds the transactions whose detection failed, keyed by TxID.
type FailureMap map[TxID]*DetectionFailure

// NewFailureMap creates an empty FailureMap.
func NewFailureMap() FailureMap {
	return make(FailureMap)
}

// Add records a failure for tx.
func (m FailureMap) Add(tx *Transaction, err error) {
	m[tx.ID] = &DetectionFailure{Tx: tx, Err: err}
}

// Has reports whether id failed detection.
func (m FailureMap) Has(id TxID) bool {
	_, ok := m[id]
	return ok
}

// Err returns the original error recorded for id, or nil.
func (m FailureMap) Err(id TxID) error {
	if f, ok := m[id]; ok {
		return f.Err
	}
	return nil
}

// IDs returns the failed transaction ids in ascending order.
func (m FailureMap) IDs() []TxID {
	ids := make([]TxID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
