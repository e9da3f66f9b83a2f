package inflight

import (
	"context"
	"errors"
	"sync"
)

// ErrInFlight is returned when the same action on the same record is already running.
var ErrInFlight = errors.New("action already in progress")

// Guard hands out one slot per key. Keys are "<record key>:<action>" so unrelated rows and
// actions never block each other.
type Guard interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

func Key(recordKey, action string) string {
	return recordKey + ":" + action
}

// MemoryGuard is process-local.
type MemoryGuard struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{held: map[string]struct{}{}}
}

func (g *MemoryGuard) Acquire(_ context.Context, key string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.held[key]; ok {
		return nil, ErrInFlight
	}
	g.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.held, key)
			g.mu.Unlock()
		})
	}, nil
}
