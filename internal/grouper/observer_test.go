package grouper

import (
	"bytes"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tx-grouper/pkg/model"
	"github.com/tx-grouper/pkg/utils"
)

func TestLogObserver(t *testing.T) {
	buf := &bytes.Buffer{}
	obs := NewLogObserver(utils.NewDefaultLogger(utils.LevelDebug, buf))

	obs.DetectionFailed("main", &model.Transaction{ID: 4}, errors.New("unknown contract"))
	obs.Grouped("main", 9, []int{5, 2, 2}, 0)
	obs.Rebalanced(StrategyMinsAddUp, 2, []int{5, 2, 2}, []int{5, 4})
	obs.UnsupportedStrategy(Strategy(7))
	obs.ConsistencyViolation(StrategyMaxAddMins, 10, 9)

	out := buf.String()
	assert.Contains(t, out, "[WARN] chain=main tx=4 resource detection failed: unknown contract")
	assert.Contains(t, out, "grouped 9 transactions into 3 groups (0 failed), sizes: [5 2 2]")
	assert.Contains(t, out, "cores=2 strategy=mins-add-up rebalanced 3 groups into 2, before: [5 2 2], after: [5 4]")
	assert.Contains(t, out, "[ERROR] unsupported group strategy unknown(7), returning naive groups")
	assert.Contains(t, out, "[ERROR] strategy=max-add-mins rebalance lost transactions: expected 10, got 9")
}

func TestFormatSizes(t *testing.T) {
	assert.Equal(t, "[]", formatSizes(nil))
	assert.Equal(t, "[3 1]", formatSizes([]int{3, 1}))

	long := make([]int, 20)
	for i := range long {
		long[i] = i + 1
	}
	assert.Equal(t, "n=20 min=1 p50=11 max=20 total=210", formatSizes(long))
}

func TestObservers_FanOut(t *testing.T) {
	a, b := &recordingObserver{}, &recordingObserver{}
	obs := Observers{a, b}

	obs.DetectionFailed("main", &model.Transaction{ID: 1}, errors.New("x"))
	obs.Grouped("main", 1, []int{1}, 1)
	obs.Rebalanced(StrategyMinsAddUp, 1, []int{1}, []int{1})
	obs.UnsupportedStrategy(Strategy(5))
	obs.ConsistencyViolation(StrategyMaxAddMins, 2, 1)

	for _, r := range []*recordingObserver{a, b} {
		assert.Equal(t, []model.TxID{1}, r.failed)
		assert.Len(t, r.grouped, 1)
		assert.Len(t, r.rebalanced, 1)
		assert.Equal(t, []Strategy{5}, r.unsupported)
		assert.Len(t, r.violations, 1)
	}
}

func TestMetricsObserver(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetricsObserver("txgroup", reg)
	require.NoError(t, err)

	m.Grouped("main", 9, []int{5, 2, 2}, 1)
	m.DetectionFailed("main", &model.Transaction{ID: 1}, errors.New("x"))
	m.Rebalanced(StrategyMaxAddMins, 2, []int{5, 2, 2}, []int{5, 4})
	m.UnsupportedStrategy(Strategy(7))
	m.UnsupportedStrategy(Strategy(8))
	m.ConsistencyViolation(StrategyMaxAddMins, 3, 2)

	assert.Equal(t, 9.0, promtest.ToFloat64(m.transactions.WithLabelValues("main")))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.failures.WithLabelValues("main")))
	assert.Equal(t, 2.0, promtest.ToFloat64(m.fallbacks))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.violations.WithLabelValues("max-add-mins")))
	assert.Equal(t, 1, promtest.CollectAndCount(m.groupCount))
	assert.Equal(t, 1, promtest.CollectAndCount(m.rebalanced))

	count, err := promtest.GatherAndCount(reg, "txgroup_grouper_naive_group_size")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMetricsObserver_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewMetricsObserver("txgroup", reg)
	require.NoError(t, err)

	_, err = NewMetricsObserver("txgroup", reg)
	assert.Error(t, err)
}
