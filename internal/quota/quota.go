// Package quota counts parse requests per client per day.
package quota

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// DefaultDailyLimit is the number of parse requests a client may make per day.
const DefaultDailyLimit = 30

// ErrExceeded is returned by Check once a client has used its daily limit.
var ErrExceeded = errors.New("daily usage limit reached")

// Checker is consulted before each parse request and incremented after a
// successful one.
type Checker interface {
	Check(ctx context.Context, key string) error
	Increment(ctx context.Context, key string) error
}

// Option configures a store.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock sets the clock that decides the current day.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// dayKey names the calendar day of t in t's location.
func dayKey(t time.Time) string {
	return t.Format(time.DateOnly)
}

func exceeded(limit int) error {
	return fmt.Errorf("%w (%d per day)", ErrExceeded, limit)
}

// Compile-time interface checks.
var (
	_ Checker = (*MemoryStore)(nil)
	_ Checker = (*SQLiteStore)(nil)
)

// MemoryStore keeps counts in memory. Counts are lost on restart.
// A limit of zero or less disables the check.
type MemoryStore struct {
	mu     sync.Mutex
	limit  int
	now    func() time.Time
	counts map[string]int
}

// NewMemoryStore creates a MemoryStore allowing limit requests per day.
func NewMemoryStore(limit int, opts ...Option) *MemoryStore {
	o := buildOptions(opts)
	return &MemoryStore{
		limit:  limit,
		now:    o.now,
		counts: make(map[string]int),
	}
}

func (m *MemoryStore) entry(key string) string {
	return dayKey(m.now()) + "|" + key
}

func (m *MemoryStore) Check(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.limit <= 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counts[m.entry(key)] >= m.limit {
		return exceeded(m.limit)
	}
	return nil
}

func (m *MemoryStore) Increment(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[m.entry(key)]++
	return nil
}

// Used returns today's count for key.
func (m *MemoryStore) Used(_ context.Context, key string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[m.entry(key)], nil
}
