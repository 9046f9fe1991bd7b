package auth

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/evcraddock/guestbook/internal/db"
)

func testAPIKeyStore(t *testing.T) *APIKeyStore {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return NewAPIKeyStore(d, db.SQLite)
}

func TestAPIKeyCreateAndValidate(t *testing.T) {
	store := testAPIKeyStore(t)
	ctx := context.Background()

	rawKey, key, err := store.Create(ctx, "Test Key")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.HasPrefix(rawKey, "gb_") {
		t.Errorf("raw key %q missing gb_ prefix", rawKey)
	}
	if key.ID == 0 {
		t.Error("expected non-zero ID")
	}
	if key.Name != "Test Key" {
		t.Errorf("name = %q, want %q", key.Name, "Test Key")
	}
	if key.KeyPrefix != rawKey[:8] {
		t.Errorf("prefix = %q, want %q", key.KeyPrefix, rawKey[:8])
	}

	valid, err := store.Validate(ctx, rawKey)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !valid {
		t.Error("expected valid key")
	}
}

func TestAPIKeyValidateInvalid(t *testing.T) {
	store := testAPIKeyStore(t)

	for _, k := range []string{"gb_boguskey12345678", "not-a-key", ""} {
		valid, err := store.Validate(context.Background(), k)
		if err != nil {
			t.Fatalf("validate %q: %v", k, err)
		}
		if valid {
			t.Errorf("expected %q to be invalid", k)
		}
	}
}

func TestAPIKeyListRecordsLastUsed(t *testing.T) {
	store := testAPIKeyStore(t)
	ctx := context.Background()

	raw, _, err := store.Create(ctx, "Key 1")
	if err != nil {
		t.Fatalf("create 1: %v", err)
	}
	if _, _, err := store.Create(ctx, "Key 2"); err != nil {
		t.Fatalf("create 2: %v", err)
	}

	keys, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("got %d keys, want 2", len(keys))
	}
	for _, k := range keys {
		if k.LastUsedAt != nil {
			t.Errorf("key %q: expected no last use yet", k.Name)
		}
	}

	if _, err := store.Validate(ctx, raw); err != nil {
		t.Fatalf("validate: %v", err)
	}
	keys, err = store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var used int
	for _, k := range keys {
		if k.LastUsedAt != nil {
			used++
		}
	}
	if used != 1 {
		t.Errorf("got %d used keys, want 1", used)
	}
}

func TestAPIKeyDelete(t *testing.T) {
	store := testAPIKeyStore(t)
	ctx := context.Background()

	raw, key, err := store.Create(ctx, "Doomed")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Delete(ctx, key.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	valid, err := store.Validate(ctx, raw)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if valid {
		t.Error("deleted key should not validate")
	}

	err = store.Delete(ctx, key.ID)
	if !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("err = %v, want ErrKeyNotFound", err)
	}
}

func TestAPIKeysAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		k, err := generateAPIKey()
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if seen[k] {
			t.Fatalf("duplicate key %q", k)
		}
		seen[k] = true
	}
}
