package procwatch

import (
	"context"
	"sync"
	"testing"
	"time"
)

// fakeLister serves a mutable process list.
type fakeLister struct {
	mu    sync.Mutex
	procs []Process
}

func (f *fakeLister) set(procs []Process) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.procs = procs
}

func (f *fakeLister) Processes() ([]Process, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Process, len(f.procs))
	copy(out, f.procs)
	return out, nil
}

func collectEvents(t *testing.T, events <-chan Event, n int) []Event {
	t.Helper()
	out := make([]Event, 0, n)
	deadline := time.After(5 * time.Second)
	for len(out) < n {
		select {
		case ev, ok := <-events:
			if !ok {
				t.Fatalf("event channel closed after %d of %d events", len(out), n)
			}
			out = append(out, ev)
		case <-deadline:
			t.Fatalf("timed out after %d of %d events", len(out), n)
		}
	}
	return out
}

func TestWatcherBaselineAndDiff(t *testing.T) {
	lister := &fakeLister{}
	lister.set([]Process{
		{PID: 10, Cmdline: []string{"xterm"}, ExePath: "/usr/bin/xterm"},
		{PID: 11, Cmdline: []string{"firefox"}, ExePath: "/usr/bin/firefox"},
	})

	w := NewWatcher(lister, 10*time.Millisecond, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	// First poll reports the pre-existing population as Started.
	baseline := collectEvents(t, w.Events(), 2)
	seen := map[int]Event{}
	for _, ev := range baseline {
		if ev.Kind != Started {
			t.Errorf("baseline event kind = %v, want Started", ev.Kind)
		}
		seen[ev.PID] = ev
	}
	if ev, ok := seen[10]; !ok || len(ev.Cmdline) != 1 || ev.Cmdline[0] != "xterm" {
		t.Errorf("baseline event for pid 10 = %+v", seen[10])
	}
	if _, ok := seen[11]; !ok {
		t.Error("missing baseline event for pid 11")
	}

	// One process exits, another starts.
	lister.set([]Process{
		{PID: 11, Cmdline: []string{"firefox"}, ExePath: "/usr/bin/firefox"},
		{PID: 12, Cmdline: []string{"gimp"}, ExePath: "/usr/bin/gimp"},
	})
	diff := collectEvents(t, w.Events(), 2)
	kinds := map[int]EventKind{}
	for _, ev := range diff {
		kinds[ev.PID] = ev.Kind
	}
	if kinds[10] != Stopped {
		t.Errorf("pid 10 event = %v, want Stopped", kinds[10])
	}
	if kinds[12] != Started {
		t.Errorf("pid 12 event = %v, want Started", kinds[12])
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop on cancel")
	}
	// The channel must be closed once Run has returned.
	for range w.Events() {
	}
}

func TestRegistryFollowsEvents(t *testing.T) {
	r := NewRegistry()

	r.Apply(Event{Kind: Started, PID: 10, Cmdline: []string{"xterm", "-e", "top"}})
	r.Apply(Event{Kind: Started, PID: 11, Cmdline: []string{"firefox"}})
	if r.Len() != 2 {
		t.Fatalf("Len = %d, want 2", r.Len())
	}

	cmdline, ok := r.Cmdline(10)
	if !ok || len(cmdline) != 3 || cmdline[2] != "top" {
		t.Errorf("Cmdline(10) = %v, %v", cmdline, ok)
	}

	r.Apply(Event{Kind: Stopped, PID: 10})
	if _, ok := r.Cmdline(10); ok {
		t.Error("stopped process still in registry")
	}

	r.Forget(11)
	if r.Len() != 0 {
		t.Errorf("Len after Forget = %d, want 0", r.Len())
	}
}

func TestRegistryRunConsumesUntilClose(t *testing.T) {
	r := NewRegistry()
	events := make(chan Event, 4)
	events <- Event{Kind: Started, PID: 5, Cmdline: []string{"vi"}}
	events <- Event{Kind: Started, PID: 6, Cmdline: []string{"mutt"}}
	events <- Event{Kind: Stopped, PID: 5}
	close(events)

	if err := r.Run(context.Background(), events); err != nil {
		t.Fatalf("Run returned %v on channel close", err)
	}
	if _, ok := r.Cmdline(5); ok {
		t.Error("stopped process still tracked")
	}
	if _, ok := r.Cmdline(6); !ok {
		t.Error("started process not tracked")
	}
}
