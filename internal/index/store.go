package index

import (
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// ErrNoIndex reports that nothing has been persisted yet. It is distinct
// from an index with zero entries.
var ErrNoIndex = errors.New("no index has been persisted yet")

// ErrUnavailable reports a persisted snapshot that exists but cannot be
// used: unreadable, corrupt, or built with a different embedding model.
// Callers must not fall back to an empty index on this error.
var ErrUnavailable = errors.New("index unavailable")

// ErrLockTimeout reports that the mutation lock was not acquired within the
// configured bound.
var ErrLockTimeout = errors.New("timed out waiting for index mutation lock")

// snapshot is the gob-encoded on-disk form of the index.
type snapshot struct {
	Model     string
	Dimension int
	Entries   []Entry
}

// Store owns the persisted index snapshot. Every mutation runs the whole
// load→modify→persist sequence under Mutate, which admits one writer at a
// time. Load never takes the writer lock, so readers run concurrently and
// observe whatever the latest fully-persisted snapshot is.
type Store struct {
	path        string
	model       string
	lockTimeout time.Duration
	writer      chan struct{}
}

// NewStore creates a store for the snapshot at path, pinned to the given
// embedding model identity.
func NewStore(path, model string, lockTimeout time.Duration) *Store {
	if lockTimeout <= 0 {
		lockTimeout = 10 * time.Second
	}
	return &Store{
		path:        path,
		model:       model,
		lockTimeout: lockTimeout,
		writer:      make(chan struct{}, 1),
	}
}

// Load reconstructs the index from the persisted snapshot. Returns ErrNoIndex
// when no snapshot exists and ErrUnavailable when one exists but cannot
// serve this process.
func (s *Store) Load() (*Index, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNoIndex
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer f.Close()

	var snap snapshot
	if err := gob.NewDecoder(f).Decode(&snap); err != nil {
		return nil, fmt.Errorf("%w: corrupt snapshot: %v", ErrUnavailable, err)
	}
	if snap.Model != s.model {
		return nil, fmt.Errorf("%w: snapshot built with model %q, process pinned to %q",
			ErrUnavailable, snap.Model, s.model)
	}
	return &Index{Model: snap.Model, Dimension: snap.Dimension, Entries: snap.Entries}, nil
}

// Persist atomically replaces the on-disk snapshot with the full index
// content. A reader never observes a partially written snapshot.
func (s *Store) Persist(ix *Index) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".index-*.tmp")
	if err != nil {
		return fmt.Errorf("create snapshot temp file: %w", err)
	}
	snap := snapshot{Model: ix.Model, Dimension: ix.Dimension, Entries: ix.Entries}
	if err := gob.NewEncoder(tmp).Encode(snap); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close snapshot temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// Mutate runs fn against the current index, starting empty when none has
// been persisted, then persists the result. At most one mutation runs at a
// time; waiting is bounded by the lock timeout and the context. If loading
// or fn fails, nothing is persisted and the snapshot is left untouched.
func (s *Store) Mutate(ctx context.Context, fn func(*Index) error) error {
	timer := time.NewTimer(s.lockTimeout)
	defer timer.Stop()
	select {
	case s.writer <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrLockTimeout
	}
	defer func() { <-s.writer }()

	ix, err := s.Load()
	if errors.Is(err, ErrNoIndex) {
		ix = New(s.model)
	} else if err != nil {
		return err
	}
	if err := fn(ix); err != nil {
		return err
	}
	// A cancelled mutation must release the lock without persisting.
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.Persist(ix)
}
