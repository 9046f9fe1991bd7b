package guest

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/evcraddock/guestbook/internal/db"
	"github.com/evcraddock/guestbook/internal/docstore"
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

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func TestCreateStampsCreatedAt(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	before := time.Now().Add(-time.Second)

	id, err := repo.Create(ctx, Input{
		FullName:      "Nino",
		CheckIn:       day(2025, 3, 1),
		CheckOut:      day(2025, 3, 3),
		PropertyID:    "p1",
		UnitID:        "u1",
		Source:        SourceBooking,
		PaymentStatus: PaymentPaid,
		Price:         ptr(120),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	g, ok, err := repo.GetByID(ctx, id)
	if err != nil || !ok {
		t.Fatalf("get: %v, ok=%v", err, ok)
	}
	if g.CreatedAt.Before(before) {
		t.Errorf("createdAt = %v, want after %v", g.CreatedAt, before)
	}
	if !g.CheckIn.Equal(day(2025, 3, 1)) {
		t.Errorf("checkIn = %v", g.CheckIn)
	}
	if g.Source != SourceBooking || g.PaymentStatus != PaymentPaid {
		t.Errorf("enums = %q %q", g.Source, g.PaymentStatus)
	}
	if g.Price == nil || *g.Price != 120 {
		t.Errorf("price = %v", g.Price)
	}
}

func TestUpdateClearsPrice(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	id, err := repo.Create(ctx, Input{FullName: "A", Source: SourceDirect, Price: ptr(90)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	paid := PaymentPaid
	if err := repo.Update(ctx, id, Patch{PaymentStatus: &paid, ClearPrice: true}); err != nil {
		t.Fatalf("update: %v", err)
	}

	g, _, err := repo.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if g.Price != nil {
		t.Errorf("price = %v, want nil", *g.Price)
	}
	if g.PaymentStatus != PaymentPaid {
		t.Errorf("payment = %q", g.PaymentStatus)
	}
	if g.FullName != "A" {
		t.Errorf("name = %q, untouched field changed", g.FullName)
	}
}

func TestSubscribeOrdersByCheckInDescending(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	for i, d := range []int{5, 20, 12} {
		_, err := repo.Create(ctx, Input{
			FullName: string(rune('A' + i)),
			CheckIn:  day(2025, 6, d),
			CheckOut: day(2025, 6, d+1),
			Source:   SourceDirect,
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	unsub := repo.Subscribe()
	defer unsub()

	ch, cancel := repo.Watch()
	defer cancel()
	deadline := time.After(2 * time.Second)
	for repo.Loading() {
		select {
		case <-ch:
		case <-deadline:
			t.Fatal("timed out waiting for snapshot")
		}
	}

	items := repo.Items()
	if len(items) != 3 {
		t.Fatalf("got %d guests, want 3", len(items))
	}
	for i, want := range []int{20, 12, 5} {
		if items[i].CheckIn.Day() != want {
			t.Errorf("items[%d] check-in day = %d, want %d", i, items[i].CheckIn.Day(), want)
		}
	}
}
