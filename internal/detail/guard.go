package detail

import (
	"sync"
	"sync/atomic"
)

// Guard suppresses stale detail-fetch responses for one viewer. Every fetch
// takes a ticket; a result is applied only while its ticket is still the
// newest one issued. Cancel invalidates all outstanding tickets without
// aborting the underlying requests.
type Guard struct {
	current atomic.Int64
}

type Ticket int64

// Begin issues the next ticket. The returned value is the post-increment
// counter, so later Begin calls always supersede earlier ones.
func (g *Guard) Begin() Ticket {
	return Ticket(g.current.Add(1))
}

// Accept reports whether a fetch started with t is still the latest one.
func (g *Guard) Accept(t Ticket) bool {
	return g.current.Load() == int64(t)
}

// Cancel invalidates every outstanding ticket. Used when the viewer closes
// the detail pane or switches tabs.
func (g *Guard) Cancel() {
	g.current.Add(1)
}

// Registry hands out one Guard per viewer. Guards are process-local and
// never shared between viewers.
type Registry struct {
	mu     sync.Mutex
	guards map[string]*Guard
}

func NewRegistry() *Registry {
	return &Registry{guards: make(map[string]*Guard)}
}

func (r *Registry) For(viewerID string) *Guard {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.guards[viewerID]
	if !ok {
		g = &Guard{}
		r.guards[viewerID] = g
	}

	return g
}
