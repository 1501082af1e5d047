package sqldb

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"iris-ml/internal/cfg"
	"iris-ml/internal/common"
	"iris-ml/internal/dataset"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(cfg.DriverSQLite, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func seedPatients(t *testing.T, db *DB) {
	t.Helper()
	ctx := context.Background()
	_, err := db.SQL().ExecContext(ctx, `CREATE TABLE patients (
		age INTEGER, bmi REAL, smoker BOOLEAN, region TEXT, outcome INTEGER, score NUMERIC)`)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		_, err := db.SQL().ExecContext(ctx,
			`INSERT INTO patients (age, bmi, smoker, region, outcome, score) VALUES (?, ?, ?, ?, ?, ?)`,
			20+i, 18.5+float64(i), i%2 == 0, fmt.Sprintf("r%d", i%3), i%4/3, fmt.Sprintf("%d.5", i))
		require.NoError(t, err)
	}
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open("oracle", "x")
	assert.True(t, errors.Is(err, common.ErrConfiguration))
}

func TestPlaceholders(t *testing.T) {
	sqlite := &DB{dialect: dialects[cfg.DriverSQLite]}
	pg := &DB{dialect: dialects[cfg.DriverPgx]}

	assert.Equal(t, "?", sqlite.placeholder(3))
	assert.Equal(t, "$3", pg.placeholder(3))

	w := &Writer{db: pg}
	assert.Equal(t, `INSERT INTO "t" ("a", "b") VALUES ($1, $2), ($3, $4)`, w.insertStatement("t", []string{"a", "b"}, 2))
}

func TestQuoteIdent(t *testing.T) {
	assert.Equal(t, `"plain"`, quoteIdent("plain"))
	assert.Equal(t, `"we""ird"`, quoteIdent(`we"ird`))
}

func TestLoader_CountAndLoad(t *testing.T) {
	db := openTestDB(t)
	seedPatients(t, db)
	l := NewLoader(db, "patients", cfg.BinaryClassification)
	ctx := context.Background()

	n, err := l.Count(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, int64(10), n)

	n, err = l.Count(ctx, "age >= 25")
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	d, err := l.Load(ctx, []string{"age", "bmi", "smoker", "score"}, "outcome", "age < 24")
	require.NoError(t, err)
	assert.Equal(t, 4, d.RowCount())
	assert.Equal(t, []string{"age", "bmi", "smoker", "score", "outcome"}, d.Columns())

	label, ok := d.Value(3, "outcome")
	require.True(t, ok)
	assert.Equal(t, int64(1), label, "classification labels are integers")

	scores, err := d.Float64s("score")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 1.5, 2.5, 3.5}, scores)

	smoker, err := d.Float64s("smoker")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0, 1, 0}, smoker)
}

func TestLoader_RegressionTarget(t *testing.T) {
	db := openTestDB(t)
	seedPatients(t, db)

	d, err := NewLoader(db, "patients", cfg.Regression).Load(context.Background(), []string{"age"}, "bmi", "")
	require.NoError(t, err)

	v, _ := d.Value(0, "bmi")
	assert.Equal(t, 18.5, v)
}

func TestLoader_Errors(t *testing.T) {
	db := openTestDB(t)
	seedPatients(t, db)
	ctx := context.Background()

	_, err := NewLoader(db, "patients", cfg.Regression).Load(ctx, []string{"age", "height"}, "outcome", "")
	assert.True(t, errors.Is(err, common.ErrColumnNotFound))
	var cnf *common.ColumnNotFoundError
	require.True(t, errors.As(err, &cnf))
	assert.Equal(t, "height", cnf.Column)

	_, err = NewLoader(db, "missing", cfg.Regression).Load(ctx, []string{"age"}, "outcome", "")
	require.Error(t, err)
	assert.False(t, errors.Is(err, common.ErrColumnNotFound))

	_, err = NewLoader(db, "patients", cfg.BinaryClassification).Load(ctx, []string{"age"}, "bmi", "")
	assert.True(t, errors.Is(err, common.ErrUnsupportedType), "fractional class label")

	d, err := NewLoader(db, "patients", cfg.Regression).Load(ctx, []string{"region"}, "outcome", "")
	require.NoError(t, err, "loading keeps raw values")
	_, err = d.Float64s("region")
	assert.True(t, errors.Is(err, common.ErrUnsupportedType))
}

func conditioned(t *testing.T, n int) *dataset.Dataset {
	t.Helper()
	vectors := make([]dataset.FeatureVector, n)
	for i := range vectors {
		vectors[i] = dataset.FeatureVector{Features: []float32{float32(i) / 10, float32(i * 2)}, Label: float64(i % 2)}
	}
	d, err := dataset.FromVectors(vectors, []string{"x", "y"}, "label")
	require.NoError(t, err)
	return d
}

func TestWriter_WritesBatches(t *testing.T) {
	db := openTestDB(t)
	w := NewWriter(db)
	fixed := time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)
	w.now = func() time.Time { return fixed }
	ctx := context.Background()

	require.NoError(t, w.Write(ctx, "processed", conditioned(t, 2500), []string{"y", "x"}, "label", cfg.BinaryClassification))

	var n int
	require.NoError(t, db.SQL().QueryRowContext(ctx, `SELECT COUNT(*) FROM processed`).Scan(&n))
	assert.Equal(t, 2500, n)

	rows, err := db.SQL().QueryContext(ctx, `SELECT * FROM processed LIMIT 1`)
	require.NoError(t, err)
	columns, err := rows.Columns()
	require.NoError(t, err)
	rows.Close()
	assert.Equal(t, []string{"y", "x", "label", common.ProcessedAtColumn}, columns)

	var x float64
	var label any
	require.NoError(t, db.SQL().QueryRowContext(ctx, `SELECT x, label FROM processed WHERE y = 6`).Scan(&x, &label))
	assert.Equal(t, 0.3, x)
	assert.Equal(t, int64(1), label)
}

func TestWriter_ReplacesTable(t *testing.T) {
	db := openTestDB(t)
	w := NewWriter(db)
	ctx := context.Background()

	require.NoError(t, w.Write(ctx, "out", conditioned(t, 20), []string{"x", "y"}, "label", cfg.Regression))
	require.NoError(t, w.Write(ctx, "out", conditioned(t, 3), []string{"x"}, "label", cfg.Regression))

	var n int
	require.NoError(t, db.SQL().QueryRowContext(ctx, `SELECT COUNT(*) FROM out`).Scan(&n))
	assert.Equal(t, 3, n)

	var label any
	require.NoError(t, db.SQL().QueryRowContext(ctx, `SELECT label FROM out WHERE x > 0.15`).Scan(&label))
	assert.Equal(t, 0.0, label, "regression targets are stored as floats")
}

func TestWriter_SmallBatches(t *testing.T) {
	db := openTestDB(t)
	w := NewWriter(db)
	w.batchSize = 7
	ctx := context.Background()

	require.NoError(t, w.Write(ctx, "small", conditioned(t, 30), []string{"x", "y"}, "label", cfg.BinaryClassification))

	var n int
	require.NoError(t, db.SQL().QueryRowContext(ctx, `SELECT COUNT(*) FROM small`).Scan(&n))
	assert.Equal(t, 30, n)
}

func TestWriter_RoundTripThroughLoader(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, NewWriter(db).Write(ctx, "rt", conditioned(t, 12), []string{"x", "y"}, "label", cfg.BinaryClassification))

	d, err := NewLoader(db, "rt", cfg.BinaryClassification).Load(ctx, []string{"x", "y"}, "label", "label = 1")
	require.NoError(t, err)
	assert.Equal(t, 6, d.RowCount())
}

func TestWriter_MissingFeature(t *testing.T) {
	db := openTestDB(t)
	err := NewWriter(db).Write(context.Background(), "bad", conditioned(t, 2), []string{"nope"}, "label", cfg.Regression)
	assert.True(t, errors.Is(err, common.ErrColumnNotFound))

	_, qerr := db.SQL().Exec(`SELECT * FROM bad`)
	require.Error(t, qerr)
	assert.True(t, strings.Contains(qerr.Error(), "no such table"))
}
