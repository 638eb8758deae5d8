package testutil

import (
	"context"
	"encoding/json"
	"reflect"
	"sort"
	"testing"

	"github.com/tx-grouper/pkg/model"
)

// AssertJSONEqual asserts that two JSON strings are semantically equal.
func AssertJSONEqual(t *testing.T, expected, actual string) {
	t.Helper()

	var expectedJSON, actualJSON interface{}

	if err := json.Unmarshal([]byte(expected), &expectedJSON); err != nil {
		t.Fatalf("failed to parse expected JSON: %v", err)
	}

	if err := json.Unmarshal([]byte(actual), &actualJSON); err != nil {
		t.Fatalf("failed to parse actual JSON: %v", err)
	}

	if !reflect.DeepEqual(expectedJSON, actualJSON) {
		expectedPretty, _ := json.MarshalIndent(expectedJSON, "", "  ")
		actualPretty, _ := json.MarshalIndent(actualJSON, "", "  ")
		t.Errorf("JSON not equal:\nExpected:\n%s\n\nActual:\n%s", expectedPretty, actualPretty)
	}
}

// AssertPartition asserts every input transaction appears exactly once,
// either in a group or in failures.
func AssertPartition(t *testing.T, txs []*model.Transaction, groups []model.Group, failures model.FailureMap) {
	t.Helper()

	seen := make(map[model.TxID]int, len(txs))
	for _, g := range groups {
		for _, tx := range g {
			seen[tx.ID]++
		}
	}
	for id := range failures {
		seen[id]++
	}

	if got := model.TotalSize(groups) + len(failures); got != len(txs) {
		t.Errorf("grouped %d + failed %d = %d, want %d", model.TotalSize(groups), len(failures), got, len(txs))
	}
	for _, tx := range txs {
		if n := seen[tx.ID]; n != 1 {
			t.Errorf("tx %d placed %d times", tx.ID, n)
		}
		delete(seen, tx.ID)
	}
	for id := range seen {
		t.Errorf("tx %d was not in the input", id)
	}
}

// ResourceFunc returns the resources of a transaction.
type ResourceFunc func(tx *model.Transaction) []model.ResourceKey

// DetectorResources adapts a detector to a ResourceFunc, ignoring errors.
func DetectorResources(d interface {
	Detect(ctx context.Context, chainID string, tx *model.Transaction) ([]model.ResourceKey, error)
}, chainID string) ResourceFunc {
	return func(tx *model.Transaction) []model.ResourceKey {
		keys, _ := d.Detect(context.Background(), chainID, tx)
		return keys
	}
}

// AssertConflictFree asserts that no resource is used by two groups.
func AssertConflictFree(t *testing.T, groups []model.Group, resources ResourceFunc) {
	t.Helper()

	owner := make(map[model.ResourceKey]int)
	for gi, g := range groups {
		for _, tx := range g {
			for _, r := range resources(tx) {
				if prev, ok := owner[r]; ok && prev != gi {
					t.Errorf("resource %s used by groups %d and %d", r, prev, gi)
					continue
				}
				owner[r] = gi
			}
		}
	}
}

// AssertSizes asserts the multiset of group sizes, ignoring order.
func AssertSizes(t *testing.T, expected []int, groups []model.Group) {
	t.Helper()

	want := append([]int(nil), expected...)
	got := model.GroupSizes(groups)
	sort.Ints(want)
	sort.Ints(got)
	if !reflect.DeepEqual(want, got) {
		t.Errorf("group sizes = %v, want %v", got, want)
	}
}

// GroupIDs returns the transaction ids of each group.
func GroupIDs(groups []model.Group) [][]model.TxID {
	out := make([][]model.TxID, len(groups))
	for i, g := range groups {
		out[i] = g.IDs()
	}
	return out
}
