package procwatch

import (
	"context"
	"log/slog"
	"time"
)

// EventKind distinguishes process lifecycle notifications.
type EventKind int

const (
	Started EventKind = iota
	Stopped
)

// Event is one process lifecycle notification.
type Event struct {
	Kind    EventKind
	PID     int
	Cmdline []string
	ExePath string
}

// Watcher polls the process population and emits Started/Stopped events
// on its channel. The first poll emits Started for every already-running
// process so the registry knows launch command lines from the beginning.
type Watcher struct {
	lister   Lister
	interval time.Duration
	events   chan Event
	known    map[int]struct{}
	logger   *slog.Logger
}

// NewWatcher creates a watcher polling at the given interval.
func NewWatcher(lister Lister, interval time.Duration, logger *slog.Logger) *Watcher {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		lister:   lister,
		interval: interval,
		events:   make(chan Event, 64),
		known:    make(map[int]struct{}),
		logger:   logger,
	}
}

// Events returns the notification channel. It is closed when Run returns.
func (w *Watcher) Events() <-chan Event { return w.events }

// Run polls until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.events)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.poll(ctx)
		}
	}
}

func (w *Watcher) poll(ctx context.Context) {
	procs, err := w.lister.Processes()
	if err != nil {
		w.logger.Error("process poll failed", "error", err)
		return
	}

	seen := make(map[int]struct{}, len(procs))
	for _, proc := range procs {
		seen[proc.PID] = struct{}{}
		if _, ok := w.known[proc.PID]; ok {
			continue
		}
		w.known[proc.PID] = struct{}{}
		w.emit(ctx, Event{Kind: Started, PID: proc.PID, Cmdline: proc.Cmdline, ExePath: proc.ExePath})
	}

	for pid := range w.known {
		if _, ok := seen[pid]; ok {
			continue
		}
		delete(w.known, pid)
		w.emit(ctx, Event{Kind: Stopped, PID: pid})
	}
}

func (w *Watcher) emit(ctx context.Context, ev Event) {
	select {
	case w.events <- ev:
	case <-ctx.Done():
	}
}
