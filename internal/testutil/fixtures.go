// Package testutil provides fixtures and assertions shared by tests.
package testutil

import (
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
	"testing"

	"github.com/tx-grouper/pkg/model"
)

// GetTestDataPath returns the absolute path to a file in the testdata directory.
// It searches the caller's directory and up to four parents.
func GetTestDataPath(t *testing.T, filename string) string {
	t.Helper()

	_, callerFile, _, ok := runtime.Caller(1)
	if !ok {
		t.Fatal("failed to get caller file path")
	}

	dir := filepath.Dir(callerFile)
	for i := 0; i < 5; i++ {
		testdataPath := filepath.Join(dir, "testdata", filename)
		if _, err := os.Stat(testdataPath); err == nil {
			return testdataPath
		}
		dir = filepath.Dir(dir)
	}

	return filepath.Join("testdata", filename)
}

// WriteFile writes content to a file in dir, creating parents as needed.
func WriteFile(t *testing.T, dir, filename, content string) string {
	t.Helper()
	path := filepath.Join(dir, filename)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	return path
}

// Transfers builds transfer transactions from (from, to) address pairs.
// Addresses are the decimal form of the ints; ids follow input order.
func Transfers(pairs ...[2]int) []*model.Transaction {
	txs := make([]*model.Transaction, len(pairs))
	for i, p := range pairs {
		txs[i] = model.NewTransfer(model.TxID(i), strconv.Itoa(p[0]), strconv.Itoa(p[1]))
	}
	return txs
}

// PlainTxs builds n transactions with distinct senders and no recipient.
func PlainTxs(n int) []*model.Transaction {
	txs := make([]*model.Transaction, n)
	for i := range txs {
		txs[i] = &model.Transaction{ID: model.TxID(i), From: "s" + strconv.Itoa(i)}
	}
	return txs
}

// GroupsOfSizes builds groups with the given sizes and globally unique ids.
func GroupsOfSizes(sizes ...int) []model.Group {
	groups := make([]model.Group, len(sizes))
	next := 0
	for i, size := range sizes {
		g := make(model.Group, size)
		for j := range g {
			g[j] = &model.Transaction{ID: model.TxID(next)}
			next++
		}
		groups[i] = g
	}
	return groups
}

// RandomSizes returns n sizes in [1, maxSize], with a few outliers.
func RandomSizes(rng *rand.Rand, n, maxSize int) []int {
	sizes := make([]int, n)
	for i := range sizes {
		if rng.Intn(10) == 0 {
			sizes[i] = maxSize*2 + rng.Intn(maxSize*4+1)
		} else {
			sizes[i] = 1 + rng.Intn(maxSize)
		}
	}
	return sizes
}

// EndpointDetector reports balance keys for a transfer's sender and
// recipient. It implements the grouper detector contract.
type EndpointDetector struct{}

// Detect returns balance.<from> and balance.<to> when set.
func (EndpointDetector) Detect(_ context.Context, _ string, tx *model.Transaction) ([]model.ResourceKey, error) {
	var keys []model.ResourceKey
	if tx.From != "" {
		keys = append(keys, model.ResourceKey("balance."+tx.From))
	}
	if tx.To != "" {
		keys = append(keys, model.ResourceKey("balance."+tx.To))
	}
	return keys, nil
}

// StaticDetector returns preset resources or errors per transaction id.
// Unknown ids yield no resources. It records every chain id it sees.
type StaticDetector struct {
	Resources map[model.TxID][]model.ResourceKey
	Errors    map[model.TxID]error

	mu     sync.Mutex
	chains []string
}

// NewStaticDetector creates an empty StaticDetector.
func NewStaticDetector() *StaticDetector {
	return &StaticDetector{
		Resources: make(map[model.TxID][]model.ResourceKey),
		Errors:    make(map[model.TxID]error),
	}
}

// Set assigns resources to id.
func (d *StaticDetector) Set(id model.TxID, keys ...model.ResourceKey) *StaticDetector {
	d.Resources[id] = keys
	return d
}

// Fail makes detection of id fail with err.
func (d *StaticDetector) Fail(id model.TxID, err error) *StaticDetector {
	d.Errors[id] = err
	return d
}

// Detect implements the grouper detector contract.
func (d *StaticDetector) Detect(_ context.Context, chainID string, tx *model.Transaction) ([]model.ResourceKey, error) {
	d.mu.Lock()
	d.chains = append(d.chains, chainID)
	d.mu.Unlock()

	if err, ok := d.Errors[tx.ID]; ok {
		return nil, err
	}
	return d.Resources[tx.ID], nil
}

// Chains returns the chain ids passed to Detect, in call order.
func (d *StaticDetector) Chains() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.chains...)
}
