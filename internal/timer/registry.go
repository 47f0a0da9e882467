package timer

import (
	"log"
	"sort"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Registry tracks which tasks have a running session and since when. It is
// rebuilt from task records on every load and is never the source of truth
// for accumulated time.
type Registry struct {
	mu     sync.RWMutex
	clock  clock.Clock
	starts map[string]time.Time
}

func NewRegistry(clk clock.Clock) *Registry {
	if clk == nil {
		clk = clock.New()
	}
	return &Registry{
		clock:  clk,
		starts: make(map[string]time.Time),
	}
}

// Start records that id's session began at sessionStart. The start may lie in
// the past so elapsed queries include previously accumulated time.
func (r *Registry) Start(id string, sessionStart time.Time) {
	if id == "" || sessionStart.IsZero() {
		log.Printf("timer: invalid start for task %q at %v", id, sessionStart)
		return
	}

	r.mu.Lock()
	r.starts[id] = sessionStart
	r.mu.Unlock()
}

// Stop removes the entry and returns the time elapsed since its start, or 0
// when id has no running session.
func (r *Registry) Stop(id string) time.Duration {
	now := r.clock.Now()

	r.mu.Lock()
	start, ok := r.starts[id]
	delete(r.starts, id)
	r.mu.Unlock()

	if !ok {
		return 0
	}
	return now.Sub(start)
}

func (r *Registry) Elapsed(id string) time.Duration {
	return r.ElapsedAt(id, r.clock.Now())
}

func (r *Registry) ElapsedAt(id string, now time.Time) time.Duration {
	r.mu.RLock()
	start, ok := r.starts[id]
	r.mu.RUnlock()

	if !ok {
		return 0
	}
	return now.Sub(start)
}

// StartTime returns the adjusted start of id's session.
func (r *Registry) StartTime(id string) (time.Time, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	start, ok := r.starts[id]
	return start, ok
}

func (r *Registry) IsActive(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.starts[id]
	return ok
}

func (r *Registry) ActiveIDs() []string {
	r.mu.RLock()
	ids := make([]string, 0, len(r.starts))
	for id := range r.starts {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	sort.Strings(ids)
	return ids
}

func (r *Registry) Clear() {
	r.mu.Lock()
	r.starts = make(map[string]time.Time)
	r.mu.Unlock()
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.starts)
}
