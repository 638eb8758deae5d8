package writer

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tx-grouper/pkg/model"
)

func samplePlan() *model.Plan {
	txs := []*model.Transaction{
		model.NewTransfer(0, "a", "b"),
		model.NewTransfer(1, "b", "c"),
		model.NewTransfer(2, "d", "e"),
		{ID: 3, To: "f"},
	}
	batch := &model.Batch{ID: "batch-1", ChainID: "main", Transactions: txs}
	failures := model.NewFailureMap()
	failures.Add(txs[3], errors.New("no sender"))

	groups := []model.Group{{txs[2]}, {txs[0], txs[1]}}
	return model.NewPlan(batch, "naive", 4, groups, failures, 0)
}

func TestNew(t *testing.T) {
	for _, f := range []string{"json", "pretty", "", "TEXT"} {
		w, err := New(f)
		require.NoError(t, err, f)
		assert.NotNil(t, w)
	}

	_, err := New("yaml")
	assert.Error(t, err)
}

func TestJSONWriter(t *testing.T) {
	plan := samplePlan()

	t.Run("Compact", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, (&JSONWriter{}).Write(plan, &buf))
		assert.Equal(t, 1, strings.Count(buf.String(), "\n"))

		var decoded model.Plan
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		assert.Equal(t, []int{1, 2}, decoded.Sizes())
		require.Len(t, decoded.Failures, 1)
		assert.Equal(t, model.TxID(3), decoded.Failures[0].TxID)
	})

	t.Run("Pretty", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, (&JSONWriter{Indent: "  "}).Write(plan, &buf))
		assert.Contains(t, buf.String(), "\n  \"chain_id\": \"main\"")
	})
}

func TestTextWriter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&TextWriter{}).Write(samplePlan(), &buf))

	out := buf.String()
	assert.Contains(t, out, "chain=main strategy=naive cores=4 txs=4 groups=2 failures=1")
	assert.Contains(t, out, "GROUP")
	assert.Contains(t, out, "0,1")
	assert.Contains(t, out, "failed tx 3: no sender")
}

func TestTextWriter_TruncatesIDs(t *testing.T) {
	w := &TextWriter{MaxIDs: 2}
	assert.Equal(t, "0,1,... (+3)", w.ids([]model.TxID{0, 1, 2, 3, 4}))
	assert.Equal(t, "7", w.ids([]model.TxID{7}))

	all := &TextWriter{}
	assert.Equal(t, "0,1,2", all.ids([]model.TxID{0, 1, 2}))
}

func TestWriteToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.json")
	require.NoError(t, WriteToFile(&JSONWriter{}, samplePlan(), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"batch_id":"batch-1"`)

	err = WriteToFile(&JSONWriter{}, samplePlan(), filepath.Join(t.TempDir(), "missing", "plan.json"))
	assert.Error(t, err)
}
