// Package store keeps the per-user gate records and persists them as one flat
// snapshot through a pluggable backend.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/m3rciful/gatebot/core/logger"
)

// Record is the persisted onboarding progress of one user.
type Record struct {
	Allowed     bool `json:"allowed" db:"allowed"`
	ClickedLink bool `json:"clicked_link" db:"clicked_link"`
}

// Snapshot maps a decimal user id to its record.
type Snapshot map[string]Record

// Backend loads and saves complete snapshots.
type Backend interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, snap Snapshot) error
	Close() error
}

// Store is the in-memory owner of all gate records.
// Every mutation runs read-modify-persist under a single mutex.
type Store struct {
	mu      sync.Mutex
	backend Backend
	users   map[int64]Record
	dirty   bool
	closed  bool
}

// Open loads the snapshot from backend. Load failures never propagate: the store
// starts empty and the failure is logged for operators.
func Open(ctx context.Context, backend Backend) *Store {
	s := &Store{
		backend: backend,
		users:   make(map[int64]Record),
	}

	start := time.Now()
	snap, err := backend.Load(ctx)
	if err != nil {
		logger.Warn(ctx, "store", "store.load_failed",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
			slog.String("fallback", "empty"),
		)
		return s
	}

	skipped := 0
	for key, rec := range snap {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			skipped++
			continue
		}
		if rec.Allowed && !rec.ClickedLink {
			rec.ClickedLink = true
			s.dirty = true
		}
		s.users[id] = rec
	}

	attrs := []slog.Attr{
		slog.String("status", "ok"),
		slog.Int("count", len(s.users)),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	}
	if skipped > 0 {
		attrs = append(attrs, slog.Int("skipped", skipped))
	}
	logger.Info(ctx, "store", "store.loaded", attrs...)
	return s
}

// Get returns the stored record without creating it.
func (s *Store) Get(userID int64) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.users[userID]
	return rec, ok
}

// GetOrCreate returns the record for userID, creating a default one if unseen.
// New records are persisted with the next mutation or on Close.
func (s *Store) GetOrCreate(ctx context.Context, userID int64) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.users[userID]; ok {
		return rec, false
	}
	rec := Record{}
	s.users[userID] = rec
	s.dirty = true
	logger.Debug(ctx, "store", "store.created", slog.Int64("user_id", userID))
	return rec, true
}

// Update applies fn to the record of userID and persists the full snapshot.
// If fn fails nothing is changed. A failed save keeps the in-memory change and
// returns an error wrapping ErrPersist. After Close it returns ErrClosed.
func (s *Store) Update(ctx context.Context, userID int64, fn func(*Record) error) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return s.users[userID], ErrClosed
	}

	rec := s.users[userID]
	if err := fn(&rec); err != nil {
		return s.users[userID], err
	}
	s.users[userID] = rec
	s.dirty = true

	if err := s.persistLocked(ctx); err != nil {
		return rec, err
	}
	return rec, nil
}

var (
	// ErrPersist marks failures to write the snapshot to the backend.
	ErrPersist = errors.New("store: persist failed")
	// ErrClosed is returned by Update once the store is closed.
	ErrClosed = errors.New("store: closed")
)

func (s *Store) persistLocked(ctx context.Context) error {
	start := time.Now()
	snap := s.snapshotLocked()
	if err := s.backend.Save(ctx, snap); err != nil {
		logger.Error(ctx, "store", "store.save_failed",
			slog.String("status", "fail"),
			slog.Int("count", len(snap)),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	s.dirty = false
	logger.Debug(ctx, "store", "store.saved",
		slog.String("status", "ok"),
		slog.Int("count", len(snap)),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return nil
}

func (s *Store) snapshotLocked() Snapshot {
	snap := make(Snapshot, len(s.users))
	for id, rec := range s.users {
		snap[strconv.FormatInt(id, 10)] = rec
	}
	return snap
}

// Snapshot returns a copy of all records keyed by decimal user id.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Len returns the number of known users.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

// Close writes pending changes and releases the backend. It is safe to call twice.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	if s.dirty {
		if err := s.persistLocked(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := s.backend.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store: close backend: %w", err))
	}
	return errors.Join(errs...)
}
