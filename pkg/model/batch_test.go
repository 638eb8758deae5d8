package model

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBatch(t *testing.T) {
	txs := []*Transaction{
		{ID: 9, From: "0xa", To: "0xb"},
		{ID: 9, From: "0xc", To: "0xd"},
	}

	b := NewBatch("chain-1", txs)

	_, err := uuid.Parse(b.ID)
	require.NoError(t, err)
	assert.Equal(t, "chain-1", b.ChainID)
	assert.Equal(t, 2, b.Len())
	assert.Equal(t, TxID(0), b.Transactions[0].ID)
	assert.Equal(t, TxID(1), b.Transactions[1].ID)
	assert.NotEmpty(t, b.Transactions[0].Hash)
	assert.NoError(t, b.Validate())
}

func TestBatch_Validate(t *testing.T) {
	tests := []struct {
		name    string
		batch   *Batch
		wantErr bool
	}{
		{"empty", &Batch{}, false},
		{"unique ids", &Batch{Transactions: []*Transaction{{ID: 0}, {ID: 1}}}, false},
		{"duplicate ids", &Batch{Transactions: []*Transaction{{ID: 1}, {ID: 1}}}, true},
		{"nil transaction", &Batch{Transactions: []*Transaction{{ID: 0}, nil}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.batch.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewPlan(t *testing.T) {
	b := NewBatch("chain-1", []*Transaction{
		{From: "0"}, {From: "1"}, {From: "2"}, {From: "3"},
	})
	groups := []Group{
		{b.Transactions[0], b.Transactions[2]},
		{b.Transactions[1]},
	}
	failures := NewFailureMap()
	failures.Add(b.Transactions[3], errors.New("boom"))

	p := NewPlan(b, "max-add-mins", 2, groups, failures, 1500*time.Microsecond)

	assert.Equal(t, b.ID, p.BatchID)
	assert.Equal(t, "chain-1", p.ChainID)
	assert.Equal(t, 4, p.TotalTxs)
	assert.Equal(t, 2, p.GroupCount)
	assert.Equal(t, []int{2, 1}, p.Sizes())
	assert.Equal(t, []TxID{0, 2}, p.Groups[0].TxIDs)
	assert.Equal(t, b.Transactions[2].Hash, p.Groups[0].Txs[1])
	require.Len(t, p.Failures, 1)
	assert.Equal(t, TxID(3), p.Failures[0].TxID)
	assert.Equal(t, "boom", p.Failures[0].Error)
	assert.InDelta(t, 1.5, p.ElapsedMs, 0.001)
}

func TestNewPlan_NilBatch(t *testing.T) {
	p := NewPlan(nil, "naive", 0, nil, NewFailureMap(), 0)
	assert.Empty(t, p.BatchID)
	assert.Equal(t, 0, p.GroupCount)
	assert.Empty(t, p.Groups)
	assert.Empty(t, p.Failures)
}
