package property

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/evcraddock/guestbook/internal/db"
	"github.com/evcraddock/guestbook/internal/docstore"
	"github.com/evcraddock/guestbook/internal/live"
)

func testRepo(t *testing.T) *Repository {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return NewRepository(docstore.NewSQLStore(d, db.SQLite))
}

// waitFor blocks until cond holds on the repository state.
func waitFor(t *testing.T, repo *Repository, cond func(live.State[Property]) bool) live.State[Property] {
	t.Helper()
	ch, cancel := repo.Watch()
	defer cancel()

	deadline := time.After(2 * time.Second)
	for {
		if st := repo.State(); cond(st) {
			return st
		}
		select {
		case <-ch:
		case <-deadline:
			t.Fatalf("timed out, state = %+v", repo.State())
		}
	}
}

func TestCreateAndGetByID(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	id, err := repo.Create(ctx, Input{Name: "Sea View", City: "Batumi"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, ok, err := repo.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok {
		t.Fatal("expected property to exist")
	}
	if got.ID != id || got.Name != "Sea View" || got.City != "Batumi" {
		t.Errorf("got %+v", got)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	repo := testRepo(t)

	_, ok, err := repo.GetByID(context.Background(), "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected ok = false")
	}
}

func TestUpdate(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	id, err := repo.Create(ctx, Input{Name: "Old", City: "Tbilisi"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Update(ctx, id, Input{Name: "New", City: "Kutaisi"}); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, _, err := repo.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "New" || got.City != "Kutaisi" {
		t.Errorf("got %+v", got)
	}
}

func TestUpdateMissing(t *testing.T) {
	repo := testRepo(t)

	err := repo.Update(context.Background(), "missing", Input{Name: "X"})
	if !errors.Is(err, docstore.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	var cmdErr *live.CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("err = %T, want *live.CommandError", err)
	}
	if cmdErr.Op != "update" || cmdErr.Collection != Collection {
		t.Errorf("command error = %+v", cmdErr)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	id, err := repo.Create(ctx, Input{Name: "Gone"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Delete(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(ctx, id); err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if _, ok, _ := repo.GetByID(ctx, id); ok {
		t.Error("expected property to be gone")
	}
}

func TestSubscribeOrdersByName(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	for _, name := range []string{"Charlie", "Alpha", "Bravo"} {
		if _, err := repo.Create(ctx, Input{Name: name}); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}

	unsub := repo.Subscribe()
	defer unsub()

	st := waitFor(t, repo, func(s live.State[Property]) bool { return !s.Loading })
	if len(st.Items) != 3 {
		t.Fatalf("got %d items, want 3", len(st.Items))
	}
	for i, want := range []string{"Alpha", "Bravo", "Charlie"} {
		if st.Items[i].Name != want {
			t.Errorf("items[%d] = %q, want %q", i, st.Items[i].Name, want)
		}
	}
}

func TestSubscribeSeesWrites(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	unsub := repo.Subscribe()
	defer unsub()
	waitFor(t, repo, func(s live.State[Property]) bool { return !s.Loading })

	id, err := repo.Create(ctx, Input{Name: "Sea View"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	waitFor(t, repo, func(s live.State[Property]) bool { return len(s.Items) == 1 })

	if p, ok := repo.Find(id); !ok || p.Name != "Sea View" {
		t.Errorf("find = %+v, %v", p, ok)
	}

	if err := repo.Delete(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	waitFor(t, repo, func(s live.State[Property]) bool { return len(s.Items) == 0 })
}
