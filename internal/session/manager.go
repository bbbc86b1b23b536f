package session

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/virtdesk/vdesk/internal/procwatch"
	"github.com/virtdesk/vdesk/internal/winsys"
)

// PathResolver resolves a process id to its executable path.
// winsys.System satisfies it.
type PathResolver interface {
	ProcessPath(pid int) (string, error)
}

// Manager orchestrates the pluggable suspend/resume providers.
type Manager struct {
	providers []Provider
	byID      map[string]Provider
	byName    map[string]Provider

	procs  *procwatch.Registry
	paths  PathResolver
	logger *slog.Logger
}

// NewManager builds a persistence coordinator over the given providers.
// Provider ids and process-name match keys must be unique.
func NewManager(procs *procwatch.Registry, paths PathResolver, logger *slog.Logger, providers ...Provider) (*Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		procs:  procs,
		paths:  paths,
		logger: logger,
		byID:   make(map[string]Provider),
		byName: make(map[string]Provider),
	}
	for _, p := range providers {
		if err := m.Register(p); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Register adds a provider to the registry.
func (m *Manager) Register(p Provider) error {
	if _, ok := m.byID[p.ID()]; ok {
		return fmt.Errorf("session: duplicate provider id %q", p.ID())
	}
	if _, ok := m.byName[p.ProcessName()]; ok {
		return fmt.Errorf("session: duplicate provider for process %q", p.ProcessName())
	}
	m.providers = append(m.providers, p)
	m.byID[p.ID()] = p
	m.byName[p.ProcessName()] = p
	return nil
}

// DataTypes returns the payload descriptor of every registered provider.
func (m *Manager) DataTypes() []DataType {
	out := make([]DataType, 0, len(m.providers))
	for _, p := range m.providers {
		out = append(out, p.DataType())
	}
	return out
}

// Suspend groups the given windows by owning process and captures the
// state of every process whose executable name matches a registered
// provider. Processes without a matching provider are skipped entirely:
// no record, no error. A provider-internal failure propagates unchanged.
// Command-line registry entries of suspended processes are forgotten
// afterwards.
func (m *Manager) Suspend(windows []winsys.Window) ([]PersistedApplication, error) {
	byPID := make(map[int][]winsys.Window)
	for _, win := range windows {
		if win.PID <= 0 {
			continue
		}
		byPID[win.PID] = append(byPID[win.PID], win)
	}

	pids := make([]int, 0, len(byPID))
	for pid := range byPID {
		pids = append(pids, pid)
	}
	sort.Ints(pids)

	var out []PersistedApplication
	var suspended []int
	for _, pid := range pids {
		exePath, err := m.paths.ProcessPath(pid)
		if err != nil {
			m.logger.Warn("cannot resolve executable, skipping process", "pid", pid, "error", err)
			continue
		}

		provider, ok := m.byName[filepath.Base(exePath)]
		if !ok {
			continue
		}

		info := SuspendInfo{
			PID:     pid,
			ExePath: exePath,
			Windows: byPID[pid],
		}
		if cmdline, ok := m.procs.Cmdline(pid); ok {
			info.Cmdline = cmdline
		}

		data, err := provider.Suspend(info)
		if err != nil {
			return nil, err
		}

		out = append(out, PersistedApplication{
			AppPath:    exePath,
			ProviderID: provider.ID(),
			Data:       data,
		})
		suspended = append(suspended, pid)
	}

	for _, pid := range suspended {
		m.procs.Forget(pid)
	}
	return out, nil
}

// Resume replays persisted applications through providers matched by
// stable identity. Records without a matching provider are logged and
// skipped; processing continues with the remaining records. A
// provider-internal failure propagates unchanged.
func (m *Manager) Resume(apps []PersistedApplication) error {
	for _, app := range apps {
		provider, ok := m.byID[app.ProviderID]
		if !ok {
			m.logger.Warn("no provider for persisted application, skipping",
				"provider", app.ProviderID, "app", app.AppPath)
			continue
		}
		if err := provider.Resume(app.AppPath, app.Data); err != nil {
			return err
		}
	}
	return nil
}
