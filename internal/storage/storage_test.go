package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"iris-ml/internal/cfg"
	"iris-ml/internal/common"
	"iris-ml/internal/dataset"
	"iris-ml/internal/pipeline"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestNew(t *testing.T) {
	tempDir := t.TempDir()

	store, err := New(tempDir)
	require.NoError(t, err)
	defer store.Close()

	assert.NotNil(t, store.db)
	_, err = os.Stat(filepath.Join(tempDir, "conditioning.db"))
	assert.NoError(t, err, "database file was not created")
	assert.Equal(t, filepath.Join(tempDir, "conditioning.db"), store.Path())
}

func TestNew_InvalidPath(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing", "dir"))
	assert.Error(t, err)
}

func TestStore_Close(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close(), "closing twice")
}

func TestStore_CloseNilDB(t *testing.T) {
	store := &Store{db: nil}
	assert.NoError(t, store.Close())
}

func TestStore_PutAndReadTable(t *testing.T) {
	store := newTestStore(t)

	rows := []dataset.Row{
		{"age": 31, "income": 52000.5, "churned": true, "ignored": "x"},
		{"age": 45, "income": 61000.0, "churned": false},
	}
	require.NoError(t, store.PutTable("customers", []string{"age", "income", "churned"}, rows))

	columns, got, err := store.ReadTable("customers")
	require.NoError(t, err)
	assert.Equal(t, []string{"age", "income", "churned"}, columns)
	require.Len(t, got, 2)

	assert.Equal(t, json.Number("31"), got[0]["age"])
	assert.Equal(t, json.Number("52000.5"), got[0]["income"])
	assert.Equal(t, true, got[0]["churned"])
	assert.NotContains(t, got[0], "ignored")

	n, err := store.CountRows("customers")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestStore_RowOrderSurvivesManyRows(t *testing.T) {
	store := newTestStore(t)

	rows := make([]dataset.Row, 300)
	for i := range rows {
		rows[i] = dataset.Row{"i": i}
	}
	require.NoError(t, store.PutTable("ordered", []string{"i"}, rows))

	_, got, err := store.ReadTable("ordered")
	require.NoError(t, err)
	for i, r := range got {
		v, err := dataset.ToFloat64("i", r["i"])
		require.NoError(t, err)
		assert.Equal(t, float64(i), v)
	}
}

func TestStore_PutTableReplaces(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.PutTable("t", []string{"a"}, []dataset.Row{{"a": 1}, {"a": 2}, {"a": 3}}))
	require.NoError(t, store.PutTable("t", []string{"b"}, []dataset.Row{{"b": 9}}))

	columns, rows, err := store.ReadTable("t")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, columns)
	assert.Len(t, rows, 1)
}

func TestStore_MissingTable(t *testing.T) {
	store := newTestStore(t)

	_, _, err := store.ReadTable("nope")
	assert.True(t, errors.Is(err, ErrTableNotFound))

	_, err = store.CountRows("nope")
	assert.True(t, errors.Is(err, ErrTableNotFound))

	assert.NoError(t, store.DropTable("nope"))
}

func TestStore_TablesAndDrop(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.PutTable("b", []string{"x"}, nil))
	require.NoError(t, store.PutTable("a", []string{"x"}, nil))

	names, err := store.Tables()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)

	require.NoError(t, store.DropTable("a"))
	names, err = store.Tables()
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, names)
}

func conditioned(t *testing.T) *dataset.Dataset {
	t.Helper()
	d, err := dataset.FromVectors([]dataset.FeatureVector{
		{Features: []float32{0.5, 10}, Label: 1},
		{Features: []float32{1.5, 20}, Label: 0},
	}, []string{"x", "y"}, "Outcome")
	require.NoError(t, err)
	return d
}

func TestStore_WriteAsSink(t *testing.T) {
	store := newTestStore(t)
	var sink pipeline.Sink = store

	require.NoError(t, sink.Write(context.Background(), "processed", conditioned(t), []string{"y", "x"}, "Outcome", cfg.BinaryClassification))

	columns, rows, err := store.ReadTable("processed")
	require.NoError(t, err)
	assert.Equal(t, []string{"y", "x", "Outcome", common.ProcessedAtColumn}, columns)
	require.Len(t, rows, 2)

	assert.Equal(t, json.Number("10"), rows[0]["y"])
	assert.Equal(t, json.Number("0.5"), rows[0]["x"])
	assert.Equal(t, json.Number("1"), rows[0]["Outcome"])

	ts, ok := rows[0][common.ProcessedAtColumn].(string)
	require.True(t, ok)
	_, err = time.Parse(time.RFC3339Nano, ts)
	assert.NoError(t, err)
}

func TestStore_WriteRegressionTarget(t *testing.T) {
	store := newTestStore(t)

	d, err := dataset.FromVectors([]dataset.FeatureVector{
		{Features: []float32{1}, Label: 2.75},
	}, []string{"x"}, "price")
	require.NoError(t, err)

	require.NoError(t, store.Write(context.Background(), "prices", d, []string{"x"}, "price", cfg.Regression))

	_, rows, err := store.ReadTable("prices")
	require.NoError(t, err)
	assert.Equal(t, json.Number("2.75"), rows[0]["price"])
}

func TestStore_WriteErrors(t *testing.T) {
	store := newTestStore(t)

	err := store.Write(context.Background(), "t", conditioned(t), []string{"missing"}, "Outcome", cfg.Regression)
	assert.True(t, errors.Is(err, common.ErrColumnNotFound))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = store.Write(ctx, "t", conditioned(t), []string{"x"}, "Outcome", cfg.Regression)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = store.Tables()
	require.NoError(t, err)
	_, _, err = store.ReadTable("t")
	assert.True(t, errors.Is(err, ErrTableNotFound), "failed writes leave nothing behind")
}

func TestStore_Runs(t *testing.T) {
	store := newTestStore(t)
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	for i, id := range []string{"run-a", "run-b", "run-c"} {
		require.NoError(t, store.SaveRun(pipeline.Summary{
			RunID:            id,
			CreatedAt:        base.Add(time.Duration(i) * time.Hour),
			FeatureNames:     []string{"x"},
			OriginalRowCount: 100 + i,
		}))
	}

	got, err := store.GetRun("run-b")
	require.NoError(t, err)
	assert.Equal(t, 101, got.OriginalRowCount)
	assert.True(t, base.Add(time.Hour).Equal(got.CreatedAt))

	_, err = store.GetRun("run-z")
	assert.True(t, errors.Is(err, ErrRunNotFound))

	runs, err := store.GetRuns(base, base.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-a", runs[0].RunID)
	assert.Equal(t, "run-b", runs[1].RunID)

	runs, err = store.GetRuns(base.Add(3*time.Hour), base.Add(4*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, runs)
}
