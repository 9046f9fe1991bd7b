package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/evcraddock/guestbook/internal/db"
)

// SQLStore keeps documents as JSON rows in SQLite or Postgres. Live queries
// are driven by an in-process change hub, so every writer must go through
// the same SQLStore value.
type SQLStore struct {
	db      *sql.DB
	dialect db.Dialect
	hub     *hub
	now     func() time.Time
}

// NewSQLStore creates a document store on an opened, migrated database.
func NewSQLStore(database *sql.DB, dialect db.Dialect) *SQLStore {
	return &SQLStore{
		db:      database,
		dialect: dialect,
		hub:     newHub(),
		now:     time.Now,
	}
}

func (s *SQLStore) q(query string) string {
	return db.Rebind(s.dialect, query)
}

// Create inserts a new document under a generated id.
func (s *SQLStore) Create(ctx context.Context, collection string, fields map[string]any) (string, error) {
	id := uuid.NewString()

	data, err := json.Marshal(resolveFields(fields, s.now()))
	if err != nil {
		return "", fmt.Errorf("encoding %s document: %w", collection, err)
	}

	if _, err := s.db.ExecContext(ctx,
		s.q("INSERT INTO documents (collection, id, data) VALUES (?, ?, ?)"),
		collection, id, string(data),
	); err != nil {
		return "", fmt.Errorf("inserting %s document: %w", collection, err)
	}

	s.hub.publish(collection)
	return id, nil
}

// Update merges fields into an existing document.
func (s *SQLStore) Update(ctx context.Context, collection, id string, fields map[string]any) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning update: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				err = fmt.Errorf("%w (also failed to roll back: %v)", err, rbErr)
			}
		}
	}()

	var raw string
	err = tx.QueryRowContext(ctx,
		s.q("SELECT data FROM documents WHERE collection = ? AND id = ?"),
		collection, id,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", collection, id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("reading %s %s: %w", collection, id, err)
	}

	current := decodeData(raw)
	merge(current, resolveFields(fields, s.now()))

	data, err := json.Marshal(current)
	if err != nil {
		return fmt.Errorf("encoding %s document: %w", collection, err)
	}

	if _, err = tx.ExecContext(ctx,
		s.q("UPDATE documents SET data = ?, updated_at = CURRENT_TIMESTAMP WHERE collection = ? AND id = ?"),
		string(data), collection, id,
	); err != nil {
		return fmt.Errorf("updating %s %s: %w", collection, id, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing update: %w", err)
	}

	s.hub.publish(collection)
	return nil
}

// Delete removes a document if it exists.
func (s *SQLStore) Delete(ctx context.Context, collection, id string) error {
	result, err := s.db.ExecContext(ctx,
		s.q("DELETE FROM documents WHERE collection = ? AND id = ?"),
		collection, id,
	)
	if err != nil {
		return fmt.Errorf("deleting %s %s: %w", collection, id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows > 0 {
		s.hub.publish(collection)
	}

	return nil
}

// Get fetches one document by id.
func (s *SQLStore) Get(ctx context.Context, collection, id string) (Document, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		s.q("SELECT data FROM documents WHERE collection = ? AND id = ?"),
		collection, id,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, fmt.Errorf("%s %s: %w", collection, id, ErrNotFound)
	}
	if err != nil {
		return Document{}, fmt.Errorf("querying %s %s: %w", collection, id, err)
	}

	return Document{ID: id, Fields: decodeData(raw)}, nil
}

// List returns every document in the collection in query order.
func (s *SQLStore) List(ctx context.Context, q Query) (docs []Document, err error) {
	rows, err := s.db.QueryContext(ctx,
		s.q("SELECT id, data FROM documents WHERE collection = ?"),
		q.Collection,
	)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", q.Collection, err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	docs = []Document{}
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scanning %s document: %w", q.Collection, err)
		}
		docs = append(docs, Document{ID: id, Fields: decodeData(raw)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s: %w", q.Collection, err)
	}

	if q.OrderBy != "" {
		SortDocuments(docs, q.OrderBy, q.Descending)
	}
	return docs, nil
}

// Changes returns the collection's current version and a channel that is
// closed by the next write to it.
func (s *SQLStore) Changes(collection string) (uint64, <-chan struct{}) {
	return s.hub.current(collection)
}

// Listen runs the query now and after every change, on one goroutine.
func (s *SQLStore) Listen(q Query, onSnapshot func([]Document), onError func(error)) Unsubscribe {
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		for {
			_, changed := s.hub.current(q.Collection)

			docs, err := s.List(ctx, q)
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				onError(err)
				return
			}
			onSnapshot(docs)

			select {
			case <-ctx.Done():
				return
			case <-changed:
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(cancel) }
}

// decodeData parses stored JSON. Corrupt rows decode to an empty document
// rather than failing the whole snapshot.
func decodeData(raw string) map[string]any {
	fields := map[string]any{}
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		slog.Debug("ignoring undecodable document data", "error", err)
		return map[string]any{}
	}
	if fields == nil {
		return map[string]any{}
	}
	return fields
}
