package booking

import (
	"sync"
)

// Board holds the list one request loaded. Boards are never shared between requests, so a
// slow load can't overwrite another request's state; optimistic patches return their own
// rollback.
type Board struct {
	mu    sync.Mutex
	views []View
	build func(Record) View
}

func NewBoard(build func(Record) View, views []View) *Board {
	return &Board{build: build, views: views}
}

func (b *Board) Views() []View {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]View, len(b.views))
	copy(out, b.views)
	return out
}

func (b *Board) Find(id string) (View, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i := b.index(id); i >= 0 {
		return b.views[i], true
	}
	return View{}, false
}

// Patch mutates the record matching id, rebuilds its view and returns the patched view with
// a rollback that restores the pre-patch view.
func (b *Board) Patch(id string, mutate func(*Record)) (View, func(), bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.index(id)
	if i < 0 {
		return View{}, func() {}, false
	}

	before := b.views[i]
	rec := before.Record
	mutate(&rec)
	after := b.build(rec)
	b.views[i] = after
	key := before.Record.Key()

	rollback := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for j := range b.views {
			if b.views[j].Record.Key() == key {
				b.views[j] = before
				return
			}
		}
	}
	return after, rollback, true
}

func (b *Board) index(id string) int {
	for i := range b.views {
		if b.views[i].Record.Matches(id) {
			return i
		}
	}
	return -1
}
