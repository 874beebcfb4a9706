package ai

import (
	"context"
	"sync"
)

// Inflight keeps at most one running request per key. Starting a new one
// cancels the previous, so a late answer to an old audit never reaches the
// user after a newer one was requested.
type Inflight struct {
	mu      sync.Mutex
	seq     uint64
	entries map[string]inflightEntry
}

type inflightEntry struct {
	id     uint64
	cancel context.CancelFunc
}

// NewInflight returns an empty registry.
func NewInflight() *Inflight {
	return &Inflight{entries: make(map[string]inflightEntry)}
}

// Start derives a context for key, cancelling whatever was running under
// the same key. The returned release must be called when the work ends.
func (r *Inflight) Start(parent context.Context, key string) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)

	r.mu.Lock()
	if prev, ok := r.entries[key]; ok {
		prev.cancel()
	}
	r.seq++
	id := r.seq
	r.entries[key] = inflightEntry{id: id, cancel: cancel}
	r.mu.Unlock()

	release := func() {
		r.mu.Lock()
		if cur, ok := r.entries[key]; ok && cur.id == id {
			delete(r.entries, key)
		}
		r.mu.Unlock()
		cancel()
	}
	return ctx, release
}

// Len is the number of running requests.
func (r *Inflight) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
