package detector_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tx-grouper/internal/detector"
	"github.com/tx-grouper/internal/grouper"
	"github.com/tx-grouper/internal/mock"
	"github.com/tx-grouper/internal/testutil"
	"github.com/tx-grouper/pkg/model"
)

func TestCached_Detect(t *testing.T) {
	inner := &mock.MockDetector{}
	inner.ExpectDetect("main", 0, []model.ResourceKey{"a", "b"}, nil).Once()

	c, err := detector.NewCached(inner, 16)
	require.NoError(t, err)

	tx := model.NewTransfer(0, "x", "y")
	for i := 0; i < 3; i++ {
		keys, err := c.Detect(context.Background(), "main", tx)
		require.NoError(t, err)
		assert.Equal(t, []model.ResourceKey{"a", "b"}, keys)
	}

	stats := c.Stats()
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 1, stats.Size)
	inner.AssertExpectations(t)
}

func TestCached_KeyedByChainAndHash(t *testing.T) {
	inner := &mock.MockDetector{}
	inner.ExpectDetect("main", 0, []model.ResourceKey{"m"}, nil).Once()
	inner.ExpectDetect("side", 0, []model.ResourceKey{"s"}, nil).Once()
	inner.ExpectDetect("main", 1, []model.ResourceKey{"other"}, nil).Once()

	c, err := detector.NewCached(inner, 16)
	require.NoError(t, err)

	tx := model.NewTransfer(0, "x", "y")
	keys, _ := c.Detect(context.Background(), "main", tx)
	assert.Equal(t, []model.ResourceKey{"m"}, keys)
	keys, _ = c.Detect(context.Background(), "side", tx)
	assert.Equal(t, []model.ResourceKey{"s"}, keys)

	// Same id, different payload, different hash.
	keys, _ = c.Detect(context.Background(), "main", model.NewTransfer(1, "x", "z"))
	assert.Equal(t, []model.ResourceKey{"other"}, keys)

	inner.AssertExpectations(t)
}

func TestCached_IgnoresSuppliedHash(t *testing.T) {
	c, err := detector.NewCached(detector.NewAddress(""), 16)
	require.NoError(t, err)

	txs := []*model.Transaction{
		{ID: 0, Kind: model.TxKindTransfer, From: "x", To: "y", Hash: "0xsame"},
		{ID: 1, Kind: model.TxKindTransfer, From: "p", To: "q", Hash: "0xsame"},
		{ID: 2, Kind: model.TxKindTransfer, From: "p", To: "z"},
	}

	first, err := c.Detect(context.Background(), "main", txs[0])
	require.NoError(t, err)
	second, err := c.Detect(context.Background(), "main", txs[1])
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	assert.Equal(t, int64(2), c.Stats().Misses)

	// tx1 and tx2 share the sender p and must be grouped together.
	res, err := grouper.NewFacade(c).ProcessNaive(context.Background(), "main", txs)
	require.NoError(t, err)
	assert.Equal(t, [][]model.TxID{{0}, {1, 2}}, testutil.GroupIDs(res.Groups))
}

func TestCached_FailuresNotCached(t *testing.T) {
	inner := &mock.MockDetector{}
	errBoom := errors.New("boom")
	inner.ExpectDetect("main", 0, nil, errBoom).Twice()

	c, err := detector.NewCached(inner, 0)
	require.NoError(t, err)

	tx := model.NewTransfer(0, "x", "y")
	for i := 0; i < 2; i++ {
		_, err := c.Detect(context.Background(), "main", tx)
		assert.ErrorIs(t, err, errBoom)
	}
	assert.Equal(t, 0, c.Stats().Size)
	inner.AssertExpectations(t)
}

func TestCached_ReturnsCopies(t *testing.T) {
	inner := &mock.MockDetector{}
	inner.ExpectAnyDetect([]model.ResourceKey{"a"}, nil)

	c, err := detector.NewCached(inner, 4)
	require.NoError(t, err)

	tx := model.NewTransfer(0, "x", "y")
	keys, _ := c.Detect(context.Background(), "main", tx)
	keys[0] = "mutated"

	keys, _ = c.Detect(context.Background(), "main", tx)
	assert.Equal(t, []model.ResourceKey{"a"}, keys)

	c.Purge()
	assert.Equal(t, 0, c.Stats().Size)
}

func TestCached_Concurrent(t *testing.T) {
	c, err := detector.NewCached(detector.NewAddress(""), 8)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				tx := model.NewTransfer(model.TxID(i), "a", string(rune('a'+i%20)))
				_, err := c.Detect(context.Background(), "main", tx)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	stats := c.Stats()
	assert.Equal(t, int64(800), stats.Hits+stats.Misses)
	assert.LessOrEqual(t, stats.Size, 8)
}
