// Package sqldb reads source tables from and writes conditioned tables to
// SQL databases. SQLite (modernc.org/sqlite) and PostgreSQL through either
// lib/pq ("postgres") or pgx ("pgx") are supported.
package sqldb

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"iris-ml/internal/cfg"
	"iris-ml/internal/common"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver "pgx"
	_ "github.com/lib/pq"              // PostgreSQL driver "postgres"
	_ "modernc.org/sqlite"             // SQLite driver "sqlite"
)

// dialect covers the SQL differences between the supported engines.
type dialect struct {
	floatType   string
	intType     string
	timeType    string
	numbered    bool // $1, $2 placeholders instead of ?
	maxParams   int
	description string
}

var dialects = map[string]dialect{
	cfg.DriverSQLite: {
		floatType:   "REAL",
		intType:     "INTEGER",
		timeType:    "TIMESTAMP",
		maxParams:   32766,
		description: "SQLite",
	},
	cfg.DriverPostgres: {
		floatType:   "DOUBLE PRECISION",
		intType:     "BIGINT",
		timeType:    "TIMESTAMPTZ",
		numbered:    true,
		maxParams:   65535,
		description: "PostgreSQL (lib/pq)",
	},
	cfg.DriverPgx: {
		floatType:   "DOUBLE PRECISION",
		intType:     "BIGINT",
		timeType:    "TIMESTAMPTZ",
		numbered:    true,
		maxParams:   65535,
		description: "PostgreSQL (pgx)",
	},
}

// DB is a database handle bound to its dialect.
type DB struct {
	db      *sql.DB
	driver  string
	dialect dialect
}

// Open opens a pooled connection for a supported driver. The connection is
// established lazily by the first query.
func Open(driver, dsn string) (*DB, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, common.NewConfigurationError("database", fmt.Sprintf("unsupported database driver %q", driver))
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)
	if driver == cfg.DriverSQLite {
		// A single writer avoids SQLITE_BUSY between pooled connections.
		db.SetMaxOpenConns(1)
	}

	return &DB{db: db, driver: driver, dialect: d}, nil
}

// Close releases database resources.
func (d *DB) Close() error {
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}

// SQL exposes the underlying handle.
func (d *DB) SQL() *sql.DB { return d.db }

func (d *DB) Driver() string { return d.driver }

func (d *DB) placeholder(n int) string {
	if d.dialect.numbered {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// quoteIdent quotes a table or column name with ANSI double quotes, which
// both SQLite and PostgreSQL accept.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteAll(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = quoteIdent(n)
	}
	return out
}
