package index

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusmind/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "index.gob")
	return NewStore(path, "test-model", 5*time.Second)
}

func TestLoadAbsent(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Load()
	assert.ErrorIs(t, err, ErrNoIndex)
}

func TestPersistLoadRoundtrip(t *testing.T) {
	s := newTestStore(t)
	ix := New("test-model")
	require.NoError(t, ix.InsertAll(
		[]domain.Chunk{testChunk(0), testChunk(1)},
		[][]float64{{1, 0}, {0, 1}},
	))
	require.NoError(t, s.Persist(ix))

	loaded, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Len())
	assert.Equal(t, "test-model", loaded.Model)
	assert.Equal(t, ix.Entries, loaded.Entries)
}

func TestLoadCorruptSnapshot(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.WriteFile(s.path, []byte("not a gob stream"), 0o644))
	_, err := s.Load()
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.NotErrorIs(t, err, ErrNoIndex)
}

func TestLoadModelMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.gob")
	writer := NewStore(path, "model-a", time.Second)
	require.NoError(t, writer.Persist(New("model-a")))

	reader := NewStore(path, "model-b", time.Second)
	_, err := reader.Load()
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestMutateCreatesIndexWhenAbsent(t *testing.T) {
	s := newTestStore(t)
	err := s.Mutate(context.Background(), func(ix *Index) error {
		return ix.InsertAll([]domain.Chunk{testChunk(0)}, [][]float64{{1, 0}})
	})
	require.NoError(t, err)

	loaded, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Len())
}

func TestMutateNoLostUpdates(t *testing.T) {
	s := newTestStore(t)
	const writers = 8
	const perWriter = 5

	var wg sync.WaitGroup
	errs := make([]error, writers)
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			errs[w] = s.Mutate(context.Background(), func(ix *Index) error {
				var chunks []domain.Chunk
				var vectors [][]float64
				for i := 0; i < perWriter; i++ {
					chunks = append(chunks, domain.Chunk{
						DocumentID: fmt.Sprintf("doc-%d", w),
						Index:      i,
						Text:       fmt.Sprintf("writer %d chunk %d", w, i),
					})
					vectors = append(vectors, []float64{float64(w), float64(i)})
				}
				return ix.InsertAll(chunks, vectors)
			})
		}(w)
	}
	wg.Wait()

	for w, err := range errs {
		require.NoError(t, err, "writer %d", w)
	}
	loaded, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, writers*perWriter, loaded.Len())
}

func TestMutateAbortIsClean(t *testing.T) {
	s := newTestStore(t)
	ix := New("test-model")
	require.NoError(t, ix.InsertAll([]domain.Chunk{testChunk(0)}, [][]float64{{1, 0}}))
	require.NoError(t, s.Persist(ix))
	before, err := os.ReadFile(s.path)
	require.NoError(t, err)

	boom := errors.New("embedding failed midway")
	err = s.Mutate(context.Background(), func(ix *Index) error {
		// Mutate in memory, then fail: nothing may reach disk.
		if insertErr := ix.InsertAll([]domain.Chunk{testChunk(1)}, [][]float64{{0, 1}}); insertErr != nil {
			return insertErr
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	after, readErr := os.ReadFile(s.path)
	require.NoError(t, readErr)
	assert.Equal(t, before, after, "failed mutation must leave the snapshot byte-identical")
}

func TestMutateLockTimeout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.gob")
	s := NewStore(path, "test-model", 50*time.Millisecond)

	held := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Mutate(context.Background(), func(ix *Index) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	err := s.Mutate(context.Background(), func(ix *Index) error { return nil })
	assert.ErrorIs(t, err, ErrLockTimeout)
	close(release)
	// Wait for the writer goroutine so its persist finishes before TempDir cleanup.
	<-done
}

func TestMutateCancelledWhileWaiting(t *testing.T) {
	s := newTestStore(t)

	held := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = s.Mutate(context.Background(), func(ix *Index) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.Mutate(ctx, func(ix *Index) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
	close(release)

	// The lock must have been released by the first writer.
	require.Eventually(t, func() bool {
		return s.Mutate(context.Background(), func(ix *Index) error { return nil }) == nil
	}, 2*time.Second, 10*time.Millisecond)
}

func TestMutateDoesNotPersistAfterCancellation(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	err := s.Mutate(ctx, func(ix *Index) error {
		insertErr := ix.InsertAll([]domain.Chunk{testChunk(0)}, [][]float64{{1, 0}})
		cancel()
		return insertErr
	})
	assert.ErrorIs(t, err, context.Canceled)
	_, err = s.Load()
	assert.ErrorIs(t, err, ErrNoIndex)
}
