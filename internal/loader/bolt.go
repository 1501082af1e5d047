package loader

import (
	"context"
	"slices"

	"iris-ml/internal/cfg"
	"iris-ml/internal/dataset"
	"iris-ml/internal/storage"

	"github.com/rs/zerolog/log"
)

// Bolt reads a table from the embedded store.
type Bolt struct {
	store *storage.Store
	table string
	kind  cfg.ModelKind
	owned bool
}

// NewBolt reads table from store. The caller keeps ownership of store.
func NewBolt(store *storage.Store, table string, kind cfg.ModelKind) *Bolt {
	return &Bolt{store: store, table: table, kind: kind}
}

func (b *Bolt) Count(ctx context.Context, filter string) (int64, error) {
	if err := rejectFilter(filter); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	n, err := b.store.CountRows(b.table)
	return int64(n), err
}

func (b *Bolt) Load(ctx context.Context, featureColumns []string, targetColumn string, filter string) (*dataset.Dataset, error) {
	if err := rejectFilter(filter); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	schema, rows, err := b.store.ReadTable(b.table)
	if err != nil {
		return nil, err
	}

	header := make(map[string]int, len(schema))
	for i, c := range schema {
		header[c] = i
	}
	if err := columnsMissing(header, append(slices.Clone(featureColumns), targetColumn)); err != nil {
		return nil, err
	}

	d, err := project(rows, featureColumns, targetColumn, b.kind)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("table", b.table).
		Int("rows", d.RowCount()).
		Msg("Data loaded from BoltDB")
	return d, nil
}

// Close closes the store when the source opened it itself.
func (b *Bolt) Close() error {
	if b.owned {
		return b.store.Close()
	}
	return nil
}

var _ Source = (*Bolt)(nil)
