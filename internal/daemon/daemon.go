package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/virtdesk/vdesk/internal/config"
	"github.com/virtdesk/vdesk/internal/desktop"
	"github.com/virtdesk/vdesk/internal/ipc"
	"github.com/virtdesk/vdesk/internal/procwatch"
	"github.com/virtdesk/vdesk/internal/runtimepath"
	"github.com/virtdesk/vdesk/internal/session"
	"github.com/virtdesk/vdesk/internal/winsys"
)

// Daemon wires the desktop manager, the process registry, the
// persistence subsystem and the monitor channel together. All desktop
// mutation — foreground refresh ticks and monitor-channel commands —
// is serialized through one mutex so a partial switch can never
// interleave with another operation.
type Daemon struct {
	cfg       *config.Config
	sys       winsys.System
	desktops  *desktop.VirtualDesktops
	sessions  *session.Manager
	store     *session.Store
	procs     *procwatch.Registry
	watcher   *procwatch.Watcher
	logger    *slog.Logger
	startTime time.Time

	reloadChan chan struct{}

	mu sync.Mutex
}

var _ ipc.Service = (*Daemon)(nil)

// New constructs the daemon. Desktop manager construction validates the
// runtime environment and fails fast on configuration errors.
func New(cfg *config.Config, sys winsys.System, logger *slog.Logger) (*Daemon, error) {
	if logger == nil {
		logger = slog.Default()
	}

	desktops, err := desktop.New(sys, desktop.Options{
		StartupName:          cfg.StartupDesktop,
		IgnoredClasses:       cfg.IgnoredClasses,
		IgnorePrivilegeCheck: cfg.IgnorePrivilegeCheck,
		RepositionTimeout:    cfg.RepositionTimeout.Std(),
		Logger:               logger,
	})
	if err != nil {
		return nil, err
	}
	desktops.OnUnresponsive(func(ws *desktop.Workspace, handles []winsys.WindowID) {
		logger.Warn("unresponsive windows", "desktop", ws.Name(), "windows", handles)
	})

	procs := procwatch.NewRegistry()
	watcher := procwatch.NewWatcher(procwatch.ProcLister{}, cfg.ProcessPollInterval.Std(), logger)

	providers := make([]session.Provider, 0, len(cfg.TerminalProviders))
	for _, name := range cfg.TerminalProviders {
		providers = append(providers, session.NewTerminalProvider(name))
	}
	sessions, err := session.NewManager(procs, sys, logger, providers...)
	if err != nil {
		return nil, err
	}

	store, err := session.DefaultStore()
	if err != nil {
		return nil, err
	}

	return &Daemon{
		cfg:        cfg,
		sys:        sys,
		desktops:   desktops,
		sessions:   sessions,
		store:      store,
		procs:      procs,
		watcher:    watcher,
		logger:     logger,
		startTime:  time.Now(),
		reloadChan: make(chan struct{}, 1),
	}, nil
}

// Run drives the daemon until the context is cancelled, then shuts the
// manager down deterministically.
func (d *Daemon) Run(ctx context.Context) error {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		return fmt.Errorf("failed to resolve IPC socket path: %w", err)
	}

	srv := ipc.NewServer(socketPath, d)
	if err := srv.Start(); err != nil {
		return err
	}
	defer srv.Stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return d.watcher.Run(ctx)
	})
	g.Go(func() error {
		return d.procs.Run(ctx, d.watcher.Events())
	})
	g.Go(func() error {
		return d.refreshLoop(ctx)
	})
	g.Go(func() error {
		configPath, err := config.DefaultConfigPath()
		if err != nil {
			return err
		}
		return config.Watch(ctx, configPath, d.reloadChan, d.logger)
	})

	err = g.Wait()

	// Deterministic shutdown: guard every later entry point.
	d.mu.Lock()
	d.desktops.Shutdown()
	d.mu.Unlock()

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// refreshLoop periodically reconciles tracked windows with the live
// population and applies config reloads.
func (d *Daemon) refreshLoop(ctx context.Context) error {
	ticker := time.NewTicker(d.cfg.RefreshInterval.Std())
	defer ticker.Stop()

	d.logger.Info("association refresh loop started", "interval", d.cfg.RefreshInterval.Std())

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			d.mu.Lock()
			err := d.desktops.UpdateWindowAssociations()
			d.mu.Unlock()
			if err != nil {
				d.logger.Error("association refresh failed", "error", err)
			}
		case <-d.reloadChan:
			newCfg, err := config.Load()
			if err != nil {
				d.logger.Error("config reload failed", "error", err)
				continue
			}
			d.mu.Lock()
			d.cfg = newCfg
			d.mu.Unlock()
			ticker.Reset(newCfg.RefreshInterval.Std())
			d.logger.Info("config reloaded", "refresh_interval", newCfg.RefreshInterval.Std())
		}
	}
}

// resolve maps a desktop reference ("" = current) to a workspace.
func (d *Daemon) resolve(ref string) (*desktop.Workspace, error) {
	if ref == "" {
		return d.desktops.Current(), nil
	}
	ws := d.desktops.WorkspaceByID(ref)
	if ws == nil {
		return nil, fmt.Errorf("no desktop %q", ref)
	}
	return ws, nil
}

func desktopInfo(ws *desktop.Workspace, current bool) ipc.DesktopInfo {
	return ipc.DesktopInfo{
		ID:          ws.ID().String(),
		Name:        ws.Name(),
		Current:     current,
		WindowCount: len(ws.Windows()),
	}
}

func windowInfos(snaps []*desktop.Snapshot) []ipc.WindowInfo {
	out := make([]ipc.WindowInfo, 0, len(snaps))
	for _, snap := range snaps {
		out = append(out, ipc.WindowInfo{
			ID:      uint32(snap.ID()),
			PID:     snap.PID(),
			Class:   snap.Class(),
			Title:   snap.Title(),
			Visible: snap.Visible(),
		})
	}
	return out
}

// Status implements ipc.Service.
func (d *Daemon) Status() (ipc.StatusData, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	windowCount := 0
	for _, ws := range d.desktops.Workspaces() {
		windowCount += len(ws.Windows())
	}
	current := ""
	if ws := d.desktops.Current(); ws != nil {
		current = ws.Name()
	}

	return ipc.StatusData{
		DaemonRunning:  true,
		UptimeSeconds:  int64(time.Since(d.startTime).Seconds()),
		DesktopCount:   len(d.desktops.Workspaces()),
		WindowCount:    windowCount,
		CurrentDesktop: current,
	}, nil
}

// ListDesktops implements ipc.Service.
func (d *Daemon) ListDesktops() ([]ipc.DesktopInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	current := d.desktops.Current()
	var out []ipc.DesktopInfo
	for _, ws := range d.desktops.Workspaces() {
		out = append(out, desktopInfo(ws, ws == current))
	}
	return out, nil
}

// ListWindows implements ipc.Service.
func (d *Daemon) ListWindows(desktopRef string) ([]ipc.WindowInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	ws, err := d.resolve(desktopRef)
	if err != nil {
		return nil, err
	}
	return windowInfos(ws.Windows()), nil
}

// ListClipboard implements ipc.Service.
func (d *Daemon) ListClipboard() ([]ipc.WindowInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return windowInfos(d.desktops.Clipboard().Windows()), nil
}

// Cut implements ipc.Service.
func (d *Daemon) Cut(windowID uint32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.desktops.CutWindow(winsys.WindowID(windowID))
}

// Paste implements ipc.Service. Pasting onto a non-current desktop
// switches to it first.
func (d *Daemon) Paste(desktopRef string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	ws, err := d.resolve(desktopRef)
	if err != nil {
		return err
	}
	if ws != d.desktops.Current() {
		if err := d.desktops.SwitchTo(ws); err != nil {
			return err
		}
	}
	return d.desktops.PasteWindows()
}

// Switch implements ipc.Service.
func (d *Daemon) Switch(desktopRef string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	ws, err := d.resolve(desktopRef)
	if err != nil {
		return err
	}
	return d.desktops.SwitchTo(ws)
}

// CreateDesktop implements ipc.Service.
func (d *Daemon) CreateDesktop(name string) (ipc.DesktopInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	ws, err := d.desktops.CreateWorkspace(name)
	if err != nil {
		return ipc.DesktopInfo{}, err
	}
	return desktopInfo(ws, ws == d.desktops.Current()), nil
}

// CloseDesktop implements ipc.Service.
func (d *Daemon) CloseDesktop(desktopRef string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	ws, err := d.resolve(desktopRef)
	if err != nil {
		return err
	}
	return d.desktops.Close(ws)
}

// Merge implements ipc.Service.
func (d *Daemon) Merge(fromRef, toRef string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	from, err := d.resolve(fromRef)
	if err != nil {
		return err
	}
	to, err := d.resolve(toRef)
	if err != nil {
		return err
	}
	return d.desktops.Merge(from, to)
}

// Suspend implements ipc.Service: it captures the current desktop's
// matched applications into a named session on disk.
func (d *Daemon) Suspend(name string) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.desktops.UpdateWindowAssociations(); err != nil {
		return 0, err
	}

	cur := d.desktops.Current()
	snaps := cur.Windows()
	windows := make([]winsys.Window, 0, len(snaps))
	for _, snap := range snaps {
		windows = append(windows, snap.Info())
	}

	apps, err := d.sessions.Suspend(windows)
	if err != nil {
		return 0, err
	}

	sess := &session.Session{
		Name:         name,
		SuspendedAt:  time.Now(),
		Applications: apps,
	}
	if err := d.store.Write(sess); err != nil {
		return 0, err
	}
	d.logger.Info("session suspended", "name", name, "applications", len(apps))
	return len(apps), nil
}

// Resume implements ipc.Service: it replays a named session through the
// registered providers. Newly launched windows are adopted by the
// current desktop on the next association pass.
func (d *Daemon) Resume(name string) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	sess, err := d.store.Read(name)
	if err != nil {
		return 0, err
	}
	if err := d.sessions.Resume(sess.Applications); err != nil {
		return 0, err
	}
	d.logger.Info("session resumed", "name", name, "applications", len(sess.Applications))
	return len(sess.Applications), nil
}
