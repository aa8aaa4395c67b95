package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pavelanni/examgen/internal/model"
)

// SetMetadata upserts a key-value pair. A ttl of zero never expires.
func (s *Store) SetMetadata(ctx context.Context, key, value string, ttl time.Duration) error {
	var expires sql.NullTime
	if ttl > 0 {
		expires = sql.NullTime{Time: time.Now().UTC().Add(ttl), Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv_metadata (key, value, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		key, value, expires,
	)
	return err
}

// GetMetadata returns the value for a key.
// Returns ok=false if the key is missing or expired.
func (s *Store) GetMetadata(ctx context.Context, key string) (string, bool, error) {
	var value string
	var expires sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT value, expires_at FROM kv_metadata WHERE key = ?`, key,
	).Scan(&value, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if expires.Valid && time.Now().After(expires.Time) {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM kv_metadata WHERE key = ?`, key)
		return "", false, nil
	}
	return value, true, nil
}

// HandoffSlots stores generated exams in the metadata table so they
// survive a restart of a single-node deployment.
type HandoffSlots struct {
	store  *Store
	prefix string
	ttl    time.Duration
}

// NewHandoffSlots returns slots keyed "<prefix>:<owner>".
func NewHandoffSlots(s *Store, prefix string, ttl time.Duration) *HandoffSlots {
	return &HandoffSlots{store: s, prefix: prefix, ttl: ttl}
}

func (h *HandoffSlots) key(owner int64) string {
	return fmt.Sprintf("%s:%d", h.prefix, owner)
}

func (h *HandoffSlots) Put(ctx context.Context, owner int64, exam *model.Exam) error {
	data, err := json.Marshal(exam)
	if err != nil {
		return fmt.Errorf("marshal exam: %w", err)
	}
	return h.store.SetMetadata(ctx, h.key(owner), string(data), h.ttl)
}

func (h *HandoffSlots) Get(ctx context.Context, owner int64) ([]byte, error) {
	v, ok, err := h.store.GetMetadata(ctx, h.key(owner))
	if err != nil || !ok {
		return nil, err
	}
	return []byte(v), nil
}
