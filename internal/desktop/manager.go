package desktop

import (
	"errors"
	"fmt"
	"time"

	"github.com/virtdesk/vdesk/internal/winsys"
)

// ErrShutdown is returned by every manager operation invoked after
// Shutdown. Calling into a shut-down manager is a programmer error.
var ErrShutdown = errors.New("desktop: manager is shut down")

// Strategy supplies the domain-specific behavior of a workspace manager:
// how a fresh workspace is populated, which windows move as one group
// when a workspace is hidden or shown, and what extra work a workspace
// close requires. The engine enforces the shared switch/merge/close
// protocol and the partition invariant.
type Strategy interface {
	// PopulateWorkspace fills a newly created workspace.
	PopulateWorkspace(ws *Workspace) error
	// CompositeGroup returns the windows that are hidden and shown together
	// with snap (snap itself plus e.g. tool windows it owns), preserving
	// relative stacking order.
	CompositeGroup(ws *Workspace, snap *Snapshot) []*Snapshot
	// WorkspaceClosing runs before a workspace is removed and returns the
	// handles that failed to respond while being restored.
	WorkspaceClosing(ws *Workspace) []winsys.WindowID
}

// UnresponsiveHandler receives windows that did not respond to a
// reposition, together with the workspace they belong to. This is a
// recoverable signal: the triggering operation completed for all other
// windows.
type UnresponsiveHandler func(ws *Workspace, handles []winsys.WindowID)

// Manager is the generic workspace engine. It owns the workspace
// collection and the current pointer and drives the switch/merge/close
// protocol; a Strategy value supplies the concrete behavior. All mutation
// must be serialized by the caller: the engine is not internally
// concurrent.
type Manager struct {
	sys      winsys.System
	strategy Strategy

	workspaces []*Workspace
	current    *Workspace
	down       bool

	repositionTimeout time.Duration
	onUnresponsive    UnresponsiveHandler
}

func newManager(sys winsys.System, strategy Strategy, repositionTimeout time.Duration) *Manager {
	if repositionTimeout <= 0 {
		repositionTimeout = 2 * time.Second
	}
	return &Manager{
		sys:               sys,
		strategy:          strategy,
		repositionTimeout: repositionTimeout,
	}
}

// OnUnresponsive registers the handler for unresponsive-window events.
func (m *Manager) OnUnresponsive(fn UnresponsiveHandler) {
	m.onUnresponsive = fn
}

func (m *Manager) report(ws *Workspace, handles []winsys.WindowID) {
	if len(handles) > 0 && m.onUnresponsive != nil {
		m.onUnresponsive(ws, handles)
	}
}

func (m *Manager) guard() error {
	if m.down {
		return ErrShutdown
	}
	return nil
}

// Current returns the currently visible workspace.
func (m *Manager) Current() *Workspace { return m.current }

// Workspaces returns all workspaces in creation order.
func (m *Manager) Workspaces() []*Workspace {
	out := make([]*Workspace, len(m.workspaces))
	copy(out, m.workspaces)
	return out
}

// WorkspaceByID returns the workspace with the given id, or nil.
func (m *Manager) WorkspaceByID(id string) *Workspace {
	for _, ws := range m.workspaces {
		if ws.id.String() == id || ws.name == id {
			return ws
		}
	}
	return nil
}

// owner returns the workspace currently holding a window, or nil.
func (m *Manager) owner(id winsys.WindowID) *Workspace {
	for _, ws := range m.workspaces {
		if ws.Contains(id) {
			return ws
		}
	}
	return nil
}

// CreateWorkspace creates an empty workspace populated by the strategy.
// The first workspace created becomes current.
func (m *Manager) CreateWorkspace(name string) (*Workspace, error) {
	if err := m.guard(); err != nil {
		return nil, err
	}

	ws := newWorkspace(name)
	if err := m.strategy.PopulateWorkspace(ws); err != nil {
		return nil, fmt.Errorf("failed to populate workspace %q: %w", name, err)
	}

	m.workspaces = append(m.workspaces, ws)
	if m.current == nil {
		m.current = ws
		ws.visible = true
	}
	return ws, nil
}

// CreateWorkspaceFromSession creates a workspace from session-restored
// snapshots. Windows already claimed by another workspace (typically the
// startup workspace, which adopted them at discovery time) are removed
// from their current owner first, preserving the partition invariant.
func (m *Manager) CreateWorkspaceFromSession(name string, windows []*Snapshot) (*Workspace, error) {
	if err := m.guard(); err != nil {
		return nil, err
	}

	ws := newWorkspace(name)
	for _, snap := range windows {
		if prev := m.owner(snap.id); prev != nil {
			prev.remove(snap.id)
		}
		ws.add(snap)
	}

	m.workspaces = append(m.workspaces, ws)
	if m.current == nil {
		m.current = ws
		ws.visible = true
	}
	return ws, nil
}

// SwitchTo hides the current workspace's windows and shows the target's,
// then updates the current pointer. The switch is attempted, not atomic:
// windows that fail to respond within the reposition timeout are reported
// through the unresponsive handler and the switch completes for the rest.
func (m *Manager) SwitchTo(target *Workspace) error {
	if err := m.guard(); err != nil {
		return err
	}
	if target == nil {
		return fmt.Errorf("switch target is nil")
	}
	if !m.managed(target) {
		return fmt.Errorf("workspace %q is not managed", target.name)
	}

	from := m.current
	if target == from {
		return nil
	}

	hide := m.expand(from)
	show := m.expand(target)

	result := m.sys.Reposition(winsys.RepositionRequest{
		Hide:    handles(hide),
		Show:    handles(show),
		Timeout: m.repositionTimeout,
	})

	applyVisibility(hide, result, false)
	applyVisibility(show, result, true)

	if from != nil {
		from.visible = false
		m.report(from, intersect(result.Unresponsive, hide))
	}
	target.visible = true
	m.current = target
	m.report(target, intersect(result.Unresponsive, show))

	return nil
}

// Merge moves all of from's window snapshots into to, leaving from empty.
// Window visibility is untouched beyond the membership change.
func (m *Manager) Merge(from, to *Workspace) error {
	if err := m.guard(); err != nil {
		return err
	}
	if from == nil || to == nil {
		return fmt.Errorf("merge requires two workspaces")
	}
	if !m.managed(from) || !m.managed(to) {
		return fmt.Errorf("merge workspaces must both be managed")
	}
	if from == to {
		return nil
	}

	for _, snap := range from.Windows() {
		from.remove(snap.id)
		to.add(snap)
	}
	return nil
}

// Close removes a workspace after running the strategy's close hook.
// Unresponsive windows encountered by the hook are reported, not fatal:
// the close always completes. The current workspace cannot be closed.
func (m *Manager) Close(ws *Workspace) error {
	if err := m.guard(); err != nil {
		return err
	}
	if ws == nil || !m.managed(ws) {
		return fmt.Errorf("workspace is not managed")
	}
	if ws == m.current {
		return fmt.Errorf("cannot close the current workspace %q", ws.name)
	}

	unresponsive := m.strategy.WorkspaceClosing(ws)
	m.report(ws, unresponsive)

	for i, existing := range m.workspaces {
		if existing == ws {
			m.workspaces = append(m.workspaces[:i], m.workspaces[i+1:]...)
			break
		}
	}
	return nil
}

// Shutdown marks the manager unusable. Every subsequent operation fails
// with ErrShutdown. Shutdown is idempotent.
func (m *Manager) Shutdown() {
	m.down = true
}

func (m *Manager) managed(ws *Workspace) bool {
	for _, existing := range m.workspaces {
		if existing == ws {
			return true
		}
	}
	return false
}

// expand resolves each workspace window into its composite group,
// deduplicating while preserving relative order.
func (m *Manager) expand(ws *Workspace) []*Snapshot {
	if ws == nil {
		return nil
	}
	seen := make(map[winsys.WindowID]struct{})
	var out []*Snapshot
	for _, snap := range ws.windows {
		for _, member := range m.strategy.CompositeGroup(ws, snap) {
			if _, ok := seen[member.id]; ok {
				continue
			}
			seen[member.id] = struct{}{}
			out = append(out, member)
		}
	}
	return out
}

func handles(snaps []*Snapshot) []winsys.WindowID {
	out := make([]winsys.WindowID, len(snaps))
	for i, snap := range snaps {
		out[i] = snap.id
	}
	return out
}

// applyVisibility updates the captured visible flag for every snapshot
// whose reposition completed.
func applyVisibility(snaps []*Snapshot, result winsys.RepositionResult, visible bool) {
	done := make(map[winsys.WindowID]struct{}, len(result.Done))
	for _, id := range result.Done {
		done[id] = struct{}{}
	}
	for _, snap := range snaps {
		if _, ok := done[snap.id]; ok {
			snap.visible = visible
		}
	}
}

// intersect filters ids down to those belonging to the given snapshots.
func intersect(ids []winsys.WindowID, snaps []*Snapshot) []winsys.WindowID {
	member := make(map[winsys.WindowID]struct{}, len(snaps))
	for _, snap := range snaps {
		member[snap.id] = struct{}{}
	}
	var out []winsys.WindowID
	for _, id := range ids {
		if _, ok := member[id]; ok {
			out = append(out, id)
		}
	}
	return out
}
