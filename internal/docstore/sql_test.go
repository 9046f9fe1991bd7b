package docstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/evcraddock/guestbook/internal/db"
)

func testStore(t *testing.T) *SQLStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	d, err := db.Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("close db: %v", err)
		}
	})
	return NewSQLStore(d, db.SQLite)
}

func TestCreateAndGet(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	id, err := s.Create(ctx, "properties", map[string]any{"name": "Sea View", "city": "Batumi"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if id == "" {
		t.Fatal("expected generated id")
	}

	doc, err := s.Get(ctx, "properties", id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if doc.ID != id {
		t.Errorf("id = %q, want %q", doc.ID, id)
	}
	if doc.Fields["name"] != "Sea View" {
		t.Errorf("name = %v, want Sea View", doc.Fields["name"])
	}
}

func TestGetNotFound(t *testing.T) {
	s := testStore(t)

	_, err := s.Get(context.Background(), "properties", "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestCreateResolvesServerTimestamp(t *testing.T) {
	s := testStore(t)
	fixed := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }
	ctx := context.Background()

	id, err := s.Create(ctx, "guests", map[string]any{"fullName": "Ana", "createdAt": ServerTimestamp})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	doc, err := s.Get(ctx, "guests", id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	got, ok := doc.Fields["createdAt"].(float64)
	if !ok {
		t.Fatalf("createdAt = %#v, want number", doc.Fields["createdAt"])
	}
	if int64(got) != fixed.UnixMilli() {
		t.Errorf("createdAt = %d, want %d", int64(got), fixed.UnixMilli())
	}
}

func TestServerTimestampWireForm(t *testing.T) {
	wire := map[string]any{".sv": "timestamp"}
	if !isServerTimestamp(wire) {
		t.Error("expected decoded wire form to be recognised")
	}
	if isServerTimestamp(map[string]any{".sv": "timestamp", "x": 1}) {
		t.Error("extra keys should not be treated as a server timestamp")
	}
}

func TestUpdateMergesFields(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	id, err := s.Create(ctx, "guests", map[string]any{"fullName": "Ana", "price": 200.0, "notes": "late"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := s.Update(ctx, "guests", id, map[string]any{"notes": "early", "price": nil}); err != nil {
		t.Fatalf("update: %v", err)
	}

	doc, err := s.Get(ctx, "guests", id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if doc.Fields["fullName"] != "Ana" {
		t.Errorf("fullName = %v, want untouched", doc.Fields["fullName"])
	}
	if doc.Fields["notes"] != "early" {
		t.Errorf("notes = %v, want early", doc.Fields["notes"])
	}
	if _, ok := doc.Fields["price"]; ok {
		t.Error("expected nil update to remove price")
	}
}

func TestUpdateNotFound(t *testing.T) {
	s := testStore(t)

	err := s.Update(context.Background(), "guests", "nope", map[string]any{"notes": "x"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestDelete(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	id, err := s.Create(ctx, "units", map[string]any{"name": "Room 1"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.Delete(ctx, "units", id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, "units", id); !errors.Is(err, ErrNotFound) {
		t.Errorf("get after delete err = %v, want ErrNotFound", err)
	}

	// Deleting again is not an error.
	if err := s.Delete(ctx, "units", id); err != nil {
		t.Errorf("second delete: %v", err)
	}
}

func TestListOrdering(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for _, name := range []string{"Charlie", "alpha", "Bravo"} {
		if _, err := s.Create(ctx, "properties", map[string]any{"name": name}); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}
	if _, err := s.Create(ctx, "properties", map[string]any{"city": "nameless"}); err != nil {
		t.Fatalf("create nameless: %v", err)
	}

	docs, err := s.List(ctx, Query{Collection: "properties", OrderBy: "name"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	want := []any{nil, "Bravo", "Charlie", "alpha"}
	if len(docs) != len(want) {
		t.Fatalf("got %d docs, want %d", len(docs), len(want))
	}
	for i, w := range want {
		if docs[i].Fields["name"] != w {
			t.Errorf("docs[%d].name = %v, want %v", i, docs[i].Fields["name"], w)
		}
	}
}

func TestListDescendingNumbers(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for _, ts := range []int64{100, 300, 200} {
		if _, err := s.Create(ctx, "guests", map[string]any{"checkIn": ts}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	docs, err := s.List(ctx, Query{Collection: "guests", OrderBy: "checkIn", Descending: true})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for i, want := range []float64{300, 200, 100} {
		if docs[i].Fields["checkIn"] != want {
			t.Errorf("docs[%d].checkIn = %v, want %v", i, docs[i].Fields["checkIn"], want)
		}
	}
}

func TestListSkipsCorruptData(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if _, err := s.db.Exec(
		"INSERT INTO documents (collection, id, data) VALUES (?, ?, ?)",
		"properties", "bad", "{not json",
	); err != nil {
		t.Fatalf("insert: %v", err)
	}

	docs, err := s.List(ctx, Query{Collection: "properties"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(docs) != 1 || len(docs[0].Fields) != 0 {
		t.Errorf("docs = %+v, want one empty document", docs)
	}
}

// recorder collects snapshots delivered by a listener.
type recorder struct {
	mu        sync.Mutex
	snapshots [][]Document
	errs      []error
	notify    chan struct{}
}

func newRecorder() *recorder {
	return &recorder{notify: make(chan struct{}, 16)}
}

func (r *recorder) onSnapshot(docs []Document) {
	r.mu.Lock()
	r.snapshots = append(r.snapshots, docs)
	r.mu.Unlock()
	r.notify <- struct{}{}
}

func (r *recorder) onError(err error) {
	r.mu.Lock()
	r.errs = append(r.errs, err)
	r.mu.Unlock()
	r.notify <- struct{}{}
}

func (r *recorder) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.notify:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for listener")
	}
}

func (r *recorder) last() []Document {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshots[len(r.snapshots)-1]
}

func TestListenDeliversInitialAndChanges(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	rec := newRecorder()
	stop := s.Listen(Query{Collection: "units", OrderBy: "name"}, rec.onSnapshot, rec.onError)
	defer stop()

	rec.wait(t)
	if got := rec.last(); len(got) != 0 {
		t.Fatalf("initial snapshot = %d docs, want 0", len(got))
	}

	if _, err := s.Create(ctx, "units", map[string]any{"name": "Room 2"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	rec.wait(t)
	if got := rec.last(); len(got) != 1 {
		t.Fatalf("snapshot after create = %d docs, want 1", len(got))
	}

	// Writes to other collections do not wake this listener.
	if _, err := s.Create(ctx, "guests", map[string]any{"fullName": "x"}); err != nil {
		t.Fatalf("create guest: %v", err)
	}
	if _, err := s.Create(ctx, "units", map[string]any{"name": "Room 1"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	rec.wait(t)
	got := rec.last()
	if len(got) != 2 || got[0].Fields["name"] != "Room 1" {
		t.Fatalf("snapshot = %+v, want Room 1 first", got)
	}
}

func TestListenUnsubscribeIsIdempotent(t *testing.T) {
	s := testStore(t)

	rec := newRecorder()
	stop := s.Listen(Query{Collection: "units"}, rec.onSnapshot, rec.onError)
	rec.wait(t)

	stop()
	stop()

	if _, err := s.Create(context.Background(), "units", map[string]any{"name": "late"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	select {
	case <-rec.notify:
		t.Error("unexpected delivery after unsubscribe")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestListenReportsQueryFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	d, err := db.Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	s := NewSQLStore(d, db.SQLite)
	if err := d.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	rec := newRecorder()
	stop := s.Listen(Query{Collection: "units"}, rec.onSnapshot, rec.onError)
	defer stop()
	rec.wait(t)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.errs) != 1 {
		t.Fatalf("errors = %d, want 1", len(rec.errs))
	}
	if len(rec.snapshots) != 0 {
		t.Errorf("snapshots = %d, want 0", len(rec.snapshots))
	}
}

func TestChangesVersionAdvances(t *testing.T) {
	s := testStore(t)

	v0, changed := s.Changes("properties")
	if _, err := s.Create(context.Background(), "properties", map[string]any{"name": "A"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	select {
	case <-changed:
	default:
		t.Fatal("expected change channel to be closed")
	}
	v1, _ := s.Changes("properties")
	if v1 != v0+1 {
		t.Errorf("version = %d, want %d", v1, v0+1)
	}
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("GB_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("GB_TEST_POSTGRES_DSN not set")
	}

	d, err := db.OpenPostgres(dsn)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("close: %v", err)
		}
	})
	s := NewSQLStore(d, db.Postgres)
	ctx := context.Background()

	id, err := s.Create(ctx, "pg_test", map[string]any{"name": "A"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Delete(context.Background(), "pg_test", id); err != nil {
			t.Errorf("cleanup delete: %v", err)
		}
	})

	if err := s.Update(ctx, "pg_test", id, map[string]any{"name": "B"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	doc, err := s.Get(ctx, "pg_test", id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if doc.Fields["name"] != "B" {
		t.Errorf("name = %v, want B", doc.Fields["name"])
	}
}
