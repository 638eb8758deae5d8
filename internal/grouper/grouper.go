// Package grouper partitions transaction batches into conflict-free groups
// and rebalances them against a fixed number of execution cores.
package grouper

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/tx-grouper/pkg/errors"
	"github.com/tx-grouper/pkg/model"
)

const tracerName = "github.com/tx-grouper/internal/grouper"

// Result is the output of a grouping run.
type Result struct {
	Groups   []model.Group
	Failures model.FailureMap
}

// Grouper is the entry point for grouping a batch.
type Grouper interface {
	// ProcessNaive returns one group per conflict component.
	ProcessNaive(ctx context.Context, chainID string, txs []*model.Transaction) (*Result, error)

	// ProcessWithCoreCount groups txs and rebalances the groups with strategy.
	ProcessWithCoreCount(ctx context.Context, chainID string, strategy Strategy, coreCount int, txs []*model.Transaction) (*Result, error)
}

// Options configures a Facade.
type Options struct {
	Observer      Observer
	DetectWorkers int
	DetectTimeout time.Duration
	Tracer        trace.Tracer
}

// Option is a functional option for Facade.
type Option func(*Options)

// WithObserver sets the event observer.
func WithObserver(o Observer) Option {
	return func(opts *Options) {
		opts.Observer = o
	}
}

// WithDetectWorkers enables parallel detection with n workers.
func WithDetectWorkers(n int) Option {
	return func(opts *Options) {
		opts.DetectWorkers = n
	}
}

// WithDetectTimeout bounds the detection phase of each run.
func WithDetectTimeout(d time.Duration) Option {
	return func(opts *Options) {
		opts.DetectTimeout = d
	}
}

// WithTracer overrides the tracer taken from the global provider.
func WithTracer(t trace.Tracer) Option {
	return func(opts *Options) {
		opts.Tracer = t
	}
}

// Facade implements Grouper on top of NaiveGrouper and Rebalancer.
type Facade struct {
	naive      *NaiveGrouper
	rebalancer *Rebalancer
	observer   Observer
	tracer     trace.Tracer
}

var _ Grouper = (*Facade)(nil)

// NewFacade creates a Facade around detector.
func NewFacade(detector ResourceDetector, opts ...Option) *Facade {
	o := &Options{DetectWorkers: 1}
	for _, opt := range opts {
		opt(o)
	}
	if o.Observer == nil {
		o.Observer = NopObserver{}
	}
	if o.Tracer == nil {
		o.Tracer = otel.Tracer(tracerName)
	}

	return &Facade{
		naive:      NewNaiveGrouper(detector, o.Observer, o.DetectWorkers, o.DetectTimeout),
		rebalancer: NewRebalancer(o.Observer),
		observer:   o.Observer,
		tracer:     o.Tracer,
	}
}

// ProcessNaive implements Grouper.
func (f *Facade) ProcessNaive(ctx context.Context, chainID string, txs []*model.Transaction) (*Result, error) {
	if err := validateIDs(txs); err != nil {
		return nil, err
	}
	groups, failures := f.process(ctx, chainID, txs)
	return &Result{Groups: groups, Failures: failures}, nil
}

// ProcessWithCoreCount implements Grouper. A naive strategy ignores
// coreCount. An unregistered strategy is reported to the observer and
// yields the naive groups without error. Limited strategies reject a
// non-positive coreCount before any detection runs.
func (f *Facade) ProcessWithCoreCount(ctx context.Context, chainID string, strategy Strategy, coreCount int, txs []*model.Transaction) (*Result, error) {
	if strategy.Limited() && coreCount <= 0 {
		return nil, apperrors.Newf(apperrors.CodeInvalidParameter, "core count must be positive, got %d", coreCount)
	}
	if err := validateIDs(txs); err != nil {
		return nil, err
	}

	groups, failures := f.process(ctx, chainID, txs)

	switch {
	case strategy == StrategyNaive:
		return &Result{Groups: groups, Failures: failures}, nil
	case !strategy.Valid():
		f.observer.UnsupportedStrategy(strategy)
		return &Result{Groups: groups, Failures: failures}, nil
	}

	rebalanced, err := f.rebalance(ctx, strategy, coreCount, groups)
	if err != nil {
		return nil, err
	}
	return &Result{Groups: rebalanced, Failures: failures}, nil
}

func (f *Facade) process(ctx context.Context, chainID string, txs []*model.Transaction) ([]model.Group, model.FailureMap) {
	ctx, span := f.tracer.Start(ctx, "grouper.Process", trace.WithAttributes(
		attribute.String("grouper.chain_id", chainID),
		attribute.Int("grouper.tx_count", len(txs)),
	))
	defer span.End()

	groups, failures := f.naive.Process(ctx, chainID, txs)

	span.SetAttributes(
		attribute.Int("grouper.group_count", len(groups)),
		attribute.Int("grouper.failure_count", len(failures)),
	)
	f.observer.Grouped(chainID, len(txs), model.GroupSizes(groups), len(failures))
	return groups, failures
}

func (f *Facade) rebalance(ctx context.Context, strategy Strategy, coreCount int, groups []model.Group) ([]model.Group, error) {
	_, span := f.tracer.Start(ctx, "grouper.Rebalance", trace.WithAttributes(
		attribute.String("grouper.strategy", strategy.String()),
		attribute.Int("grouper.core_count", coreCount),
		attribute.Int("grouper.groups_before", len(groups)),
	))
	defer span.End()

	before := model.GroupSizes(groups)
	out, err := f.rebalancer.Rebalance(strategy, coreCount, groups)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("grouper.groups_after", len(out)))
	f.observer.Rebalanced(strategy, coreCount, before, model.GroupSizes(out))
	return out, nil
}

// validateIDs rejects batches where two transactions share an id, since
// failures are keyed by id.
func validateIDs(txs []*model.Transaction) error {
	seen := make(map[model.TxID]struct{}, len(txs))
	for i, tx := range txs {
		if tx == nil {
			return apperrors.Newf(apperrors.CodeInvalidParameter, "transaction at index %d is nil", i)
		}
		if _, dup := seen[tx.ID]; dup {
			return apperrors.Newf(apperrors.CodeInvalidParameter, "duplicate transaction id %d", tx.ID)
		}
		seen[tx.ID] = struct{}{}
	}
	return nil
}
