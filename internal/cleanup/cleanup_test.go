package cleanup_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/placehub/placehub/internal/cleanup"
)

type fakeRemover struct {
	mu      sync.Mutex
	removed []string
	err     error
	done    chan struct{}
}

func (f *fakeRemover) Remove(ctx context.Context, ref string) error {
	f.mu.Lock()
	f.removed = append(f.removed, ref)
	f.mu.Unlock()

	select {
	case f.done <- struct{}{}:
	default:
	}

	return f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestCleanerRemovesEnqueuedRefs(t *testing.T) {
	store := &fakeRemover{done: make(chan struct{}, 1)}
	c := cleanup.New(discardLogger(), store, nil, 4)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go c.Run(ctx)

	c.Enqueue("uploads/images/a.png")

	select {
	case <-store.done:
	case <-time.After(time.Second):
		t.Fatal("cleanup did not run")
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	if len(store.removed) != 1 || store.removed[0] != "uploads/images/a.png" {
		t.Fatalf("unexpected removals: %v", store.removed)
	}
}

func TestCleanerSwallowsRemoveErrors(t *testing.T) {
	store := &fakeRemover{
		err:  errors.New("object storage is down"),
		done: make(chan struct{}, 2),
	}
	c := cleanup.New(discardLogger(), store, nil, 4)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go c.Run(ctx)

	// a failing removal must not stop the worker
	c.Enqueue("first.png")
	c.Enqueue("second.png")

	for i := 0; i < 2; i++ {
		select {
		case <-store.done:
		case <-time.After(time.Second):
			t.Fatal("cleanup stalled after an error")
		}
	}
}

func TestEnqueueNeverBlocksWhenFull(t *testing.T) {
	store := &fakeRemover{done: make(chan struct{}, 1)}
	// no Run: queue fills up and stays full
	c := cleanup.New(discardLogger(), store, nil, 1)

	done := make(chan struct{})

	go func() {
		c.Enqueue("a.png")
		c.Enqueue("b.png")
		c.Enqueue("c.png")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("enqueue blocked on a full queue")
	}
}
