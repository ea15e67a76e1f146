package reentrant

import (
	"sync"
)

// Guard rejects re-entry of a keyed unit of work. Enter returns a release
// func that must run on every exit path; a second Enter with the same key
// before release reports busy.
type Guard struct {
	mu   sync.Mutex
	busy map[string]bool
}

func New() *Guard {
	return &Guard{busy: make(map[string]bool)}
}

func (g *Guard) Enter(key string) (func(), bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.busy[key] {
		return nil, false
	}

	g.busy[key] = true
	return func() {
		g.mu.Lock()
		delete(g.busy, key)
		g.mu.Unlock()
	}, true
}
