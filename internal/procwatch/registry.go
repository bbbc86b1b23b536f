package procwatch

import (
	"context"
	"sync"
)

// Registry maps process ids to their original launch command lines. It is
// the only source of a process's command line at suspend time: by then
// the OS may no longer expose the original invocation.
//
// Lifecycle notifications are funneled through a single consuming
// goroutine (Run); the map itself is additionally lock-guarded because
// suspend reads and forgets entries from the foreground.
type Registry struct {
	mu       sync.RWMutex
	cmdlines map[int][]string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{cmdlines: make(map[int][]string)}
}

// Run consumes lifecycle events until the channel closes or the context
// is cancelled.
func (r *Registry) Run(ctx context.Context, events <-chan Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			r.Apply(ev)
		}
	}
}

// Apply records a start or removes a stopped process.
func (r *Registry) Apply(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch ev.Kind {
	case Started:
		r.cmdlines[ev.PID] = ev.Cmdline
	case Stopped:
		delete(r.cmdlines, ev.PID)
	}
}

// Cmdline returns the recorded launch command line for a process.
func (r *Registry) Cmdline(pid int) ([]string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmdline, ok := r.cmdlines[pid]
	return cmdline, ok
}

// Forget drops the entry for a process, typically after its command line
// has been consumed by a successful suspend.
func (r *Registry) Forget(pid int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cmdlines, pid)
}

// Len returns the number of tracked processes.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cmdlines)
}
