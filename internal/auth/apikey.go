package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/evcraddock/guestbook/internal/db"
)

const (
	apiKeyBytes  = 32 // 256-bit keys
	apiKeyPrefix = "gb_"
)

// ErrKeyNotFound is returned when deleting an unknown API key.
var ErrKeyNotFound = errors.New("key not found")

// APIKey is the stored representation of an API key (no raw key).
type APIKey struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	KeyPrefix  string     `json:"key_prefix"` // first 8 chars for identification
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}

// APIKeyStore manages operator API keys.
type APIKeyStore struct {
	db      *sql.DB
	dialect db.Dialect
}

// NewAPIKeyStore creates an API key store.
func NewAPIKeyStore(database *sql.DB, dialect db.Dialect) *APIKeyStore {
	return &APIKeyStore{db: database, dialect: dialect}
}

func (s *APIKeyStore) q(query string) string {
	return db.Rebind(s.dialect, query)
}

// Create generates a new API key with the given name.
// Returns the raw key (shown once to user) and the stored record.
func (s *APIKeyStore) Create(ctx context.Context, name string) (string, *APIKey, error) {
	raw, err := generateAPIKey()
	if err != nil {
		return "", nil, fmt.Errorf("generating key: %w", err)
	}

	key := &APIKey{
		Name:      name,
		KeyPrefix: raw[:8],
	}

	err = s.db.QueryRowContext(ctx,
		s.q("INSERT INTO api_keys (name, key_prefix, key_hash) VALUES (?, ?, ?) RETURNING id, created_at"),
		name, key.KeyPrefix, hashAPIKey(raw),
	).Scan(&key.ID, &key.CreatedAt)
	if err != nil {
		return "", nil, fmt.Errorf("storing key: %w", err)
	}

	return raw, key, nil
}

// List returns all API keys, newest first.
func (s *APIKeyStore) List(ctx context.Context) ([]APIKey, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, key_prefix, created_at, last_used_at FROM api_keys ORDER BY created_at DESC, id DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("querying keys: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			slog.Warn("closing rows", "error", cerr)
		}
	}()

	var keys []APIKey
	for rows.Next() {
		var k APIKey
		var lastUsed sql.NullTime
		if err := rows.Scan(&k.ID, &k.Name, &k.KeyPrefix, &k.CreatedAt, &lastUsed); err != nil {
			return nil, fmt.Errorf("scanning key: %w", err)
		}
		if lastUsed.Valid {
			k.LastUsedAt = &lastUsed.Time
		}
		keys = append(keys, k)
	}

	return keys, rows.Err()
}

// Delete removes an API key by ID.
func (s *APIKeyStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, s.q("DELETE FROM api_keys WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("deleting key: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("key %d: %w", id, ErrKeyNotFound)
	}

	return nil
}

// Validate checks a raw API key against stored hashes.
// Returns true if valid, and updates last_used_at.
func (s *APIKeyStore) Validate(ctx context.Context, rawKey string) (bool, error) {
	if !LooksLikeAPIKey(rawKey) {
		return false, nil
	}

	result, err := s.db.ExecContext(ctx,
		s.q("UPDATE api_keys SET last_used_at = ? WHERE key_hash = ?"),
		time.Now().UTC(), hashAPIKey(rawKey),
	)
	if err != nil {
		return false, fmt.Errorf("validating key: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking affected rows: %w", err)
	}

	return rows > 0, nil
}

// LooksLikeAPIKey reports whether a bearer credential has the API key
// shape, as opposed to a session token.
func LooksLikeAPIKey(s string) bool {
	return strings.HasPrefix(s, apiKeyPrefix)
}

func generateAPIKey() (string, error) {
	b := make([]byte, apiKeyBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return apiKeyPrefix + hex.EncodeToString(b), nil
}

func hashAPIKey(key string) string {
	h := sha256.Sum256([]byte(key))
	return hex.EncodeToString(h[:])
}
