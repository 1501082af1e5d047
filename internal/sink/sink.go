package sink

import (
	"iris-ml/internal/cfg"
	"iris-ml/internal/common"
	"iris-ml/internal/pipeline"
	"iris-ml/internal/sqldb"
	"iris-ml/internal/storage"
)

// New builds the sink named by settings.Sink.Kind. A nil sink is returned
// for SinkNone. Bolt sinks write into store; the SQL sink opens its own
// connection, released by the returned close function.
func New(settings cfg.Settings, store *storage.Store) (pipeline.Sink, func() error, error) {
	nop := func() error { return nil }

	switch settings.Sink.Kind {
	case cfg.SinkNone, "":
		return nil, nop, nil

	case cfg.SinkBolt:
		if store == nil {
			return nil, nil, common.NewConfigurationError("sink", "bolt sink requires an open store")
		}
		return store, nop, nil

	case cfg.SinkSQL:
		db, err := sqldb.Open(settings.Database.Driver, settings.Database.DSN)
		if err != nil {
			return nil, nil, err
		}
		return sqldb.NewWriter(db), db.Close, nil

	case cfg.SinkHTTP:
		if settings.Sink.URL == "" {
			return nil, nil, common.NewConfigurationError("sink", "http sink requires a url")
		}
		return NewHTTP(settings.Sink.URL, settings.Sink.Timeout), nop, nil
	}

	return nil, nil, common.NewConfigurationError("sink", "unknown sink kind "+settings.Sink.Kind)
}
