package exam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pavelanni/examgen/internal/model"
)

// HandoffKey names the slot that carries a freshly generated exam to the
// exam-taking screen.
const HandoffKey = "generatedExam"

// Handoff is a short-lived per-owner slot holding the last generated exam as JSON.
type Handoff interface {
	Put(ctx context.Context, owner int64, exam *model.Exam) error
	// Get returns the stored JSON, or nil when the slot is empty.
	Get(ctx context.Context, owner int64) ([]byte, error)
}

func handoffKey(owner int64) string {
	return fmt.Sprintf("%s:%d", HandoffKey, owner)
}

// LoadHandoff returns the exam in owner's slot. When the slot is empty,
// unreadable or holds invalid JSON it returns SampleExam and false.
func LoadHandoff(ctx context.Context, h Handoff, owner int64) (*model.Exam, bool) {
	data, err := h.Get(ctx, owner)
	if err != nil {
		slog.Warn("read exam handoff", "owner", owner, "error", err)
		return SampleExam(), false
	}
	if data == nil {
		return SampleExam(), false
	}
	var e model.Exam
	if err := json.Unmarshal(data, &e); err != nil {
		slog.Warn("corrupt exam handoff, using sample exam", "owner", owner, "error", err)
		return SampleExam(), false
	}
	return &e, true
}

type memoryEntry struct {
	data    []byte
	expires time.Time
}

// MemoryHandoff keeps slots in process memory.
type MemoryHandoff struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

// NewMemoryHandoff creates a MemoryHandoff. A ttl of zero keeps entries forever.
func NewMemoryHandoff(ttl time.Duration) *MemoryHandoff {
	return &MemoryHandoff{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

func (m *MemoryHandoff) Put(_ context.Context, owner int64, exam *model.Exam) error {
	data, err := json.Marshal(exam)
	if err != nil {
		return fmt.Errorf("marshal exam: %w", err)
	}
	m.PutRaw(owner, data)
	return nil
}

// PutRaw stores data as is.
func (m *MemoryHandoff) PutRaw(owner int64, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var exp time.Time
	if m.ttl > 0 {
		exp = m.now().Add(m.ttl)
	}
	m.entries[handoffKey(owner)] = memoryEntry{data: data, expires: exp}
}

func (m *MemoryHandoff) Get(_ context.Context, owner int64) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := handoffKey(owner)
	e, ok := m.entries[key]
	if !ok {
		return nil, nil
	}
	if !e.expires.IsZero() && m.now().After(e.expires) {
		delete(m.entries, key)
		return nil, nil
	}
	return e.data, nil
}

// RedisHandoff keeps slots in Redis with an expiry.
type RedisHandoff struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisHandoff creates a RedisHandoff on client.
func NewRedisHandoff(client redis.UniversalClient, ttl time.Duration) *RedisHandoff {
	return &RedisHandoff{client: client, ttl: ttl}
}

func (h *RedisHandoff) Put(ctx context.Context, owner int64, exam *model.Exam) error {
	data, err := json.Marshal(exam)
	if err != nil {
		return fmt.Errorf("marshal exam: %w", err)
	}
	if err := h.client.Set(ctx, handoffKey(owner), data, h.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (h *RedisHandoff) Get(ctx context.Context, owner int64) ([]byte, error) {
	data, err := h.client.Get(ctx, handoffKey(owner)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return data, nil
}
