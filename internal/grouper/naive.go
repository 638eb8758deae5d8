package grouper

import (
	"context"
	"time"

	"github.com/tx-grouper/internal/unionfind"
	"github.com/tx-grouper/pkg/model"
	"github.com/tx-grouper/pkg/parallel"
)

// NaiveGrouper partitions transactions into conflict-connected groups.
// Each Process call owns its union-find state, so one NaiveGrouper can
// serve concurrent calls as long as its detector can.
type NaiveGrouper struct {
	detector      ResourceDetector
	observer      Observer
	detectWorkers int
	detectTimeout time.Duration
}

// NewNaiveGrouper creates a NaiveGrouper. detectWorkers <= 1 detects serially.
func NewNaiveGrouper(detector ResourceDetector, observer Observer, detectWorkers int, detectTimeout time.Duration) *NaiveGrouper {
	if observer == nil {
		observer = NopObserver{}
	}
	return &NaiveGrouper{
		detector:      detector,
		observer:      observer,
		detectWorkers: detectWorkers,
		detectTimeout: detectTimeout,
	}
}

type detection struct {
	resources []model.ResourceKey
	err       error
}

// pending is a resource-bearing transaction waiting for its bucket.
type pending struct {
	tx    *model.Transaction
	first model.ResourceKey
}

// Process groups txs. Resource-free transactions come first as singleton
// groups in input order, followed by one group per conflict component in
// the order its first member was seen. Transactions keep their input order
// inside a group. Detection failures, including transactions skipped on
// cancellation, are returned in the FailureMap and never grouped.
func (g *NaiveGrouper) Process(ctx context.Context, chainID string, txs []*model.Transaction) ([]model.Group, model.FailureMap) {
	failures := model.NewFailureMap()
	if len(txs) == 0 {
		return []model.Group{}, failures
	}

	detections := g.detectAll(ctx, chainID, txs)

	forest := unionfind.NewKeyed[model.ResourceKey](len(txs))
	var singletons []model.Group
	bearing := make([]pending, 0, len(txs))

	for i, tx := range txs {
		d := detections[i]
		if d.err != nil {
			failures.Add(tx, d.err)
			g.observer.DetectionFailed(chainID, tx, d.err)
			continue
		}
		if len(d.resources) == 0 {
			singletons = append(singletons, model.Group{tx})
			continue
		}

		first := d.resources[0]
		forest.Node(first)
		for _, r := range d.resources[1:] {
			forest.Union(first, r)
		}
		bearing = append(bearing, pending{tx: tx, first: first})
	}

	// Every set in the forest becomes exactly one bucket.
	bucketOf := make(map[int]int, forest.Sets())
	buckets := make([]model.Group, 0, forest.Sets())
	for _, p := range bearing {
		root := forest.Find(p.first)
		idx, ok := bucketOf[root]
		if !ok {
			idx = len(buckets)
			bucketOf[root] = idx
			buckets = append(buckets, nil)
		}
		buckets[idx] = append(buckets[idx], p.tx)
	}

	groups := make([]model.Group, 0, len(singletons)+len(buckets))
	groups = append(groups, singletons...)
	groups = append(groups, buckets...)
	return groups, failures
}

func (g *NaiveGrouper) detectAll(ctx context.Context, chainID string, txs []*model.Transaction) []detection {
	if g.detectWorkers > 1 && len(txs) > 1 {
		return g.detectParallel(ctx, chainID, txs)
	}

	if g.detectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.detectTimeout)
		defer cancel()
	}

	out := make([]detection, len(txs))
	for i, tx := range txs {
		if err := ctx.Err(); err != nil {
			out[i].err = err
			continue
		}
		out[i].resources, out[i].err = g.detector.Detect(ctx, chainID, tx)
	}
	return out
}

func (g *NaiveGrouper) detectParallel(ctx context.Context, chainID string, txs []*model.Transaction) []detection {
	pool := parallel.NewWorkerPool[*model.Transaction, []model.ResourceKey](
		parallel.DefaultPoolConfig().WithWorkers(g.detectWorkers).WithTimeout(g.detectTimeout))

	results := pool.ExecuteFunc(ctx, txs, func(ctx context.Context, tx *model.Transaction) ([]model.ResourceKey, error) {
		return g.detector.Detect(ctx, chainID, tx)
	})

	out := make([]detection, len(txs))
	for i, r := range results {
		out[i] = detection{resources: r.Result, err: r.Error}
	}
	return out
}
