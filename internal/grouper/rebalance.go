package grouper

import (
	"sort"

	"github.com/tidwall/btree"

	apperrors "github.com/tx-grouper/pkg/errors"
	"github.com/tx-grouper/pkg/model"
)

// Rebalancer merges naive groups so that at most coreCount remain.
// Merging never splits a group, so conflict-freedom is preserved.
type Rebalancer struct {
	observer Observer
}

// NewRebalancer creates a Rebalancer.
func NewRebalancer(observer Observer) *Rebalancer {
	if observer == nil {
		observer = NopObserver{}
	}
	return &Rebalancer{observer: observer}
}

// Rebalance applies strategy to groups. The input slice and groups are not
// modified; merged groups may reuse the spare capacity of earlier merges.
func (r *Rebalancer) Rebalance(strategy Strategy, coreCount int, groups []model.Group) ([]model.Group, error) {
	if strategy == StrategyNaive {
		return groups, nil
	}
	if !strategy.Valid() {
		return nil, apperrors.Newf(apperrors.CodeUnsupportedStrategy, "unsupported group strategy %s", strategy)
	}
	if coreCount <= 0 {
		return nil, apperrors.Newf(apperrors.CodeInvalidParameter, "core count must be positive, got %d", coreCount)
	}
	if len(groups) == 0 {
		return []model.Group{}, nil
	}

	expected := model.TotalSize(groups)
	groups = clipped(groups)

	var out []model.Group
	switch strategy {
	case StrategyMaxAddMins:
		out = maxAddMins(coreCount, groups)
	case StrategyMinsAddUp:
		out = minsAddUp(coreCount, groups)
	}

	if err := r.checkConservation(strategy, expected, out); err != nil {
		return nil, err
	}
	return out, nil
}

// checkConservation fails when the rebalanced groups do not hold exactly
// the expected number of transactions.
func (r *Rebalancer) checkConservation(strategy Strategy, expected int, out []model.Group) error {
	actual := model.TotalSize(out)
	if actual == expected {
		return nil
	}
	r.observer.ConsistencyViolation(strategy, expected, actual)
	return apperrors.Newf(apperrors.CodeConsistencyError,
		"%s rebalance produced %d transactions, expected %d", strategy, actual, expected)
}

// maxAddMins packs the groups up to the size of the largest one, then
// merges the smallest buckets if more than coreCount remain.
func maxAddMins(coreCount int, groups []model.Group) []model.Group {
	buckets := packToLargest(groups)
	if len(buckets) > coreCount {
		buckets = mergeSmallest(buckets, len(buckets)-coreCount+1)
	}
	return buckets
}

// packToLargest walks the groups sorted by size descending. Starting from
// the largest, each bucket absorbs the smallest remaining groups while its
// size stays within the largest group's size.
func packToLargest(groups []model.Group) []model.Group {
	sorted := sortedBySizeDesc(groups)
	threshold := len(sorted[0])

	buckets := make([]model.Group, 0, len(sorted))
	start, end := 0, len(sorted)-1
	for start <= end {
		acc := sorted[start]
		for start != end && len(acc)+len(sorted[end]) <= threshold {
			acc = append(acc, sorted[end]...)
			end--
		}
		buckets = append(buckets, acc)
		start++
	}
	return buckets
}

// mergeSmallest merges the n smallest buckets into one and keeps the rest.
func mergeSmallest(buckets []model.Group, n int) []model.Group {
	asc := append([]model.Group(nil), buckets...)
	sort.SliceStable(asc, func(i, j int) bool { return len(asc[i]) < len(asc[j]) })

	// The largest of the merged buckets receives the others.
	combined := asc[n-1]
	for i := n - 2; i >= 0; i-- {
		combined = append(combined, asc[i]...)
	}

	out := make([]model.Group, 0, len(asc)-n+1)
	out = append(out, combined)
	out = append(out, asc[n:]...)
	return sortedBySizeDesc(out)
}

// minsAddUp repeatedly merges the two smallest groups until coreCount
// remain. A merged group is ordered after existing groups of the same size,
// so it is merged again before them.
func minsAddUp(coreCount int, groups []model.Group) []model.Group {
	if len(groups) <= 1 || len(groups) <= coreCount {
		return groups
	}

	// Largest first; ties keep insertion order, so Max is the next to merge.
	work := btree.NewBTreeG(func(a, b queuedGroup) bool {
		if len(a.group) != len(b.group) {
			return len(a.group) > len(b.group)
		}
		return a.seq < b.seq
	})
	for i, g := range groups {
		work.Set(queuedGroup{group: g, seq: i})
	}

	seq := len(groups)
	for work.Len() > coreCount {
		smaller, _ := work.PopMax()
		larger, _ := work.PopMax()
		work.Set(queuedGroup{group: append(larger.group, smaller.group...), seq: seq})
		seq++
	}

	out := make([]model.Group, 0, work.Len())
	work.Scan(func(q queuedGroup) bool {
		out = append(out, q.group)
		return true
	})
	return out
}

type queuedGroup struct {
	group model.Group
	seq   int
}

func sortedBySizeDesc(groups []model.Group) []model.Group {
	out := append([]model.Group(nil), groups...)
	sort.SliceStable(out, func(i, j int) bool { return len(out[i]) > len(out[j]) })
	return out
}

// clipped copies the outer slice and caps every group at its length, so
// appends never write into memory another caller-held group can see.
func clipped(groups []model.Group) []model.Group {
	out := make([]model.Group, len(groups))
	for i, g := range groups {
		out[i] = g[:len(g):len(g)]
	}
	return out
}
