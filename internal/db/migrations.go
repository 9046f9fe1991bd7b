package db

import (
	"database/sql"
	"fmt"
)

// migrations holds the ordered schema statements per dialect.
// Documents are schemaless JSON keyed by (collection, id).
var migrations = map[Dialect][]string{
	SQLite: {
		`CREATE TABLE IF NOT EXISTS documents (
			collection TEXT     NOT NULL,
			id         TEXT     NOT NULL,
			data       TEXT     NOT NULL DEFAULT '{}',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (collection, id)
		)`,
		`CREATE TABLE IF NOT EXISTS api_keys (
			id           INTEGER  PRIMARY KEY AUTOINCREMENT,
			name         TEXT     NOT NULL,
			key_prefix   TEXT     NOT NULL,
			key_hash     TEXT     NOT NULL UNIQUE,
			created_at   DATETIME DEFAULT CURRENT_TIMESTAMP,
			last_used_at DATETIME
		)`,
	},
	Postgres: {
		`CREATE TABLE IF NOT EXISTS documents (
			collection TEXT        NOT NULL,
			id         TEXT        NOT NULL,
			data       TEXT        NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (collection, id)
		)`,
		`CREATE TABLE IF NOT EXISTS api_keys (
			id           BIGSERIAL   PRIMARY KEY,
			name         TEXT        NOT NULL,
			key_prefix   TEXT        NOT NULL,
			key_hash     TEXT        NOT NULL UNIQUE,
			created_at   TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
			last_used_at TIMESTAMPTZ
		)`,
	},
}

// migrate runs all migrations for the dialect in order.
func migrate(db *sql.DB, d Dialect) error {
	stmts, ok := migrations[d]
	if !ok {
		return fmt.Errorf("no migrations for dialect %q", d)
	}

	for i, m := range stmts {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}

	return nil
}
