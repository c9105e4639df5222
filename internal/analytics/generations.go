package analytics

import (
	"context"
	"sync"
)

// Generations tracks the latest summary request per viewer. Beginning a
// new request for a viewer cancels that viewer's previous one, and a
// request that is no longer the latest reports itself as stale.
type Generations struct {
	mu      sync.Mutex
	next    uint64
	current map[string]*generation
}

type generation struct {
	id     uint64
	cancel context.CancelFunc
}

// Ticket identifies one request generation.
type Ticket struct {
	owner *Generations
	key   string
	id    uint64
}

func NewGenerations() *Generations {
	return &Generations{
		current: make(map[string]*generation),
	}
}

// Begin registers a new request for key and returns a context that is
// cancelled when a newer request for the same key begins. An empty key is
// never superseded.
func (g *Generations) Begin(ctx context.Context, key string) (context.Context, Ticket) {
	if key == "" {
		return ctx, Ticket{}
	}

	ctx, cancel := context.WithCancel(ctx)

	g.mu.Lock()
	defer g.mu.Unlock()

	g.next++
	if prev, ok := g.current[key]; ok {
		prev.cancel()
	}
	g.current[key] = &generation{id: g.next, cancel: cancel}

	return ctx, Ticket{owner: g, key: key, id: g.next}
}

// Current reports whether no newer request for the ticket's key has begun.
func (t Ticket) Current() bool {
	if t.owner == nil {
		return true
	}
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()

	gen, ok := t.owner.current[t.key]
	return ok && gen.id == t.id
}

// Done releases the ticket's context and forgets it if it is still the
// latest for its key.
func (t Ticket) Done() {
	if t.owner == nil {
		return
	}
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()

	gen, ok := t.owner.current[t.key]
	if !ok || gen.id != t.id {
		return
	}
	gen.cancel()
	delete(t.owner.current, t.key)
}

// InFlight returns the number of viewers with an unfinished request.
func (g *Generations) InFlight() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.current)
}
