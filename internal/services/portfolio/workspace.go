package portfolio

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/bobmcallan/investflow/internal/models"
)

// workspace is one owner's in-memory holding collection. sem is a
// one-slot semaphore held for the whole of a mutation, including its
// store writes, so mutations of one owner never overlap. mu guards the
// holdings slice itself for readers. importing is set for the whole of
// an import, including the wait for sem.
type workspace struct {
	sem       *semaphore.Weighted
	importing atomic.Bool

	mu       sync.RWMutex
	holdings []models.Holding
	loaded   bool
}

func newWorkspace() *workspace {
	return &workspace{sem: semaphore.NewWeighted(1)}
}

// acquire blocks until the workspace is free or ctx is done.
func (w *workspace) acquire(ctx context.Context) error {
	return w.sem.Acquire(ctx, 1)
}

func (w *workspace) release() {
	w.sem.Release(1)
}

func (w *workspace) snapshot() ([]models.Holding, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]models.Holding, len(w.holdings))
	copy(out, w.holdings)
	return out, w.loaded
}

func (w *workspace) commit(holdings []models.Holding) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.holdings = holdings
	w.loaded = true
}
