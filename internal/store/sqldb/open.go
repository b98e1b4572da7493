// Package sqldb implements the store interfaces on database/sql. The same
// queries run against Postgres (managed mode, pgx driver) and SQLite
// (standalone mode, modernc driver); placeholders are rebound per driver.
package sqldb

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/zarathos291x/Character-Engine-Discord/internal/store"
)

// DB wraps a sql.DB with the placeholder dialect of its driver.
type DB struct {
	*sql.DB
	driver string // "pgx" or "sqlite"
}

// Open connects to Postgres when dsn is set, otherwise to the SQLite file.
func Open(postgresDSN, sqlitePath string) (*DB, error) {
	if postgresDSN != "" {
		db, err := sql.Open("pgx", postgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return &DB{DB: db, driver: "pgx"}, nil
	}

	if sqlitePath == "" {
		return nil, fmt.Errorf("no database configured: set a postgres DSN or a sqlite path")
	}

	db, err := sql.Open("sqlite", sqlitePath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Cascading deletes depend on foreign keys being enforced.
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable sqlite foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable sqlite wal: %w", err)
	}
	return &DB{DB: db, driver: "sqlite"}, nil
}

// Driver returns the active driver name ("pgx" or "sqlite").
func (d *DB) Driver() string { return d.driver }

// rebind rewrites ? placeholders to $1..$n for the Postgres driver.
// SQLite accepts ? natively.
func (d *DB) rebind(query string) string {
	if d.driver != "pgx" {
		return query
	}
	return rebindDollar(query)
}

func rebindDollar(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// NewStores creates all stores backed by the given database.
func NewStores(db *DB) *store.Stores {
	return &store.Stores{
		Guilds:     NewGuildStore(db),
		Channels:   NewChannelStore(db),
		Characters: NewCharacterStore(db),
		History:    NewHistoryStore(db),
	}
}

// --- shared scan helpers ---

func derefStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nilStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
