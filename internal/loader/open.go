package loader

import (
	"path/filepath"
	"strings"

	"iris-ml/internal/cfg"
	"iris-ml/internal/common"
	"iris-ml/internal/sqldb"
	"iris-ml/internal/storage"
)

// Open picks the source described by settings. A non-empty input names a
// CSV or JSON-lines file and takes precedence over the database settings.
// A bolt source reads from store when one is passed and opens its own
// otherwise. The returned close function releases whatever Open acquired.
func Open(settings cfg.Settings, input string, store *storage.Store) (Source, func() error, error) {
	nop := func() error { return nil }
	kind := settings.ModelKind

	if input != "" {
		switch strings.ToLower(filepath.Ext(input)) {
		case ".csv":
			return NewCSV(input, kind), nop, nil
		case ".jsonl", ".ndjson", ".json":
			return NewJSONLines(input, kind), nop, nil
		default:
			return nil, nil, common.NewConfigurationError("loader", "unsupported input file "+input+": expected .csv, .jsonl, .ndjson or .json")
		}
	}

	db := settings.Database
	switch {
	case db.Driver == cfg.DriverBolt:
		if db.TableName == "" {
			return nil, nil, common.NewConfigurationError("loader", "bolt source requires a table name")
		}
		if store != nil {
			return NewBolt(store, db.TableName, kind), nop, nil
		}
		owned, err := storage.New(settings.DataPath)
		if err != nil {
			return nil, nil, err
		}
		src := NewBolt(owned, db.TableName, kind)
		src.owned = true
		return src, src.Close, nil

	case cfg.IsSQLDriver(db.Driver):
		if db.TableName == "" {
			return nil, nil, common.NewConfigurationError("loader", "sql source requires a table name")
		}
		handle, err := sqldb.Open(db.Driver, db.DSN)
		if err != nil {
			return nil, nil, err
		}
		return sqldb.NewLoader(handle, db.TableName, kind), handle.Close, nil
	}

	return nil, nil, common.NewConfigurationError("loader", "no input configured: pass an input file or set a database driver")
}
