package grouper

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tx-grouper/pkg/model"
	"github.com/tx-grouper/pkg/utils"
)

// Observer receives diagnostic events from a grouping run.
// Implementations must not block; they are called inline.
type Observer interface {
	DetectionFailed(chainID string, tx *model.Transaction, err error)
	Grouped(chainID string, txCount int, sizes []int, failures int)
	Rebalanced(strategy Strategy, coreCount int, before, after []int)
	UnsupportedStrategy(strategy Strategy)
	ConsistencyViolation(strategy Strategy, expected, actual int)
}

// NopObserver discards every event.
type NopObserver struct{}

func (NopObserver) DetectionFailed(string, *model.Transaction, error) {}
func (NopObserver) Grouped(string, int, []int, int)                  {}
func (NopObserver) Rebalanced(Strategy, int, []int, []int)           {}
func (NopObserver) UnsupportedStrategy(Strategy)                     {}
func (NopObserver) ConsistencyViolation(Strategy, int, int)          {}

// Observers fans events out to several observers in order.
type Observers []Observer

func (o Observers) DetectionFailed(chainID string, tx *model.Transaction, err error) {
	for _, ob := range o {
		ob.DetectionFailed(chainID, tx, err)
	}
}

func (o Observers) Grouped(chainID string, txCount int, sizes []int, failures int) {
	for _, ob := range o {
		ob.Grouped(chainID, txCount, sizes, failures)
	}
}

func (o Observers) Rebalanced(strategy Strategy, coreCount int, before, after []int) {
	for _, ob := range o {
		ob.Rebalanced(strategy, coreCount, before, after)
	}
}

func (o Observers) UnsupportedStrategy(strategy Strategy) {
	for _, ob := range o {
		ob.UnsupportedStrategy(strategy)
	}
}

func (o Observers) ConsistencyViolation(strategy Strategy, expected, actual int) {
	for _, ob := range o {
		ob.ConsistencyViolation(strategy, expected, actual)
	}
}

// LogObserver renders events through a utils.Logger.
type LogObserver struct {
	logger utils.Logger
}

// NewLogObserver creates a LogObserver. A nil logger uses the global one.
func NewLogObserver(logger utils.Logger) *LogObserver {
	if logger == nil {
		logger = utils.GetGlobalLogger()
	}
	return &LogObserver{logger: logger}
}

func (o *LogObserver) DetectionFailed(chainID string, tx *model.Transaction, err error) {
	o.logger.WithFields(map[string]interface{}{
		"chain": chainID,
		"tx":    tx.ID,
	}).Warn("resource detection failed: %v", err)
}

func (o *LogObserver) Grouped(chainID string, txCount int, sizes []int, failures int) {
	o.logger.WithField("chain", chainID).Info("grouped %d transactions into %d groups (%d failed), sizes: %s",
		txCount, len(sizes), failures, formatSizes(sizes))
}

func (o *LogObserver) Rebalanced(strategy Strategy, coreCount int, before, after []int) {
	o.logger.WithFields(map[string]interface{}{
		"strategy": strategy,
		"cores":    coreCount,
	}).Info("rebalanced %d groups into %d, before: %s, after: %s",
		len(before), len(after), formatSizes(before), formatSizes(after))
}

func (o *LogObserver) UnsupportedStrategy(strategy Strategy) {
	o.logger.Error("unsupported group strategy %s, returning naive groups", strategy)
}

func (o *LogObserver) ConsistencyViolation(strategy Strategy, expected, actual int) {
	o.logger.WithField("strategy", strategy).Error(
		"rebalance lost transactions: expected %d, got %d", expected, actual)
}

// formatSizes prints a size distribution, collapsing long lists to a summary.
func formatSizes(sizes []int) string {
	if len(sizes) == 0 {
		return "[]"
	}
	if len(sizes) <= 16 {
		parts := make([]string, len(sizes))
		for i, s := range sizes {
			parts[i] = fmt.Sprint(s)
		}
		return "[" + strings.Join(parts, " ") + "]"
	}

	sorted := append([]int(nil), sizes...)
	sort.Ints(sorted)
	total := 0
	for _, s := range sorted {
		total += s
	}
	return fmt.Sprintf("n=%d min=%d p50=%d max=%d total=%d",
		len(sorted), sorted[0], sorted[len(sorted)/2], sorted[len(sorted)-1], total)
}
