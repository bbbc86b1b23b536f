package desktop

import (
	"github.com/google/uuid"

	"github.com/virtdesk/vdesk/internal/winsys"
)

// Workspace is an ordered set of window snapshots. Order is the stacking
// order at capture/restore time and is significant for show/hide fidelity.
// A window belongs to at most one workspace, or to the clipboard, never
// both: the engine maintains this partition.
type Workspace struct {
	id      uuid.UUID
	name    string
	visible bool
	windows []*Snapshot
}

func newWorkspace(name string) *Workspace {
	return &Workspace{
		id:   uuid.New(),
		name: name,
	}
}

// ID returns the stable workspace identity.
func (w *Workspace) ID() uuid.UUID { return w.id }

// Name returns the workspace display name.
func (w *Workspace) Name() string { return w.name }

// Visible reports whether this workspace is the currently shown one.
func (w *Workspace) Visible() bool { return w.visible }

// Windows returns the workspace's snapshots in stacking order. The
// returned slice is a copy; membership changes go through the manager.
func (w *Workspace) Windows() []*Snapshot {
	out := make([]*Snapshot, len(w.windows))
	copy(out, w.windows)
	return out
}

// Contains reports whether a window handle is a member of this workspace.
func (w *Workspace) Contains(id winsys.WindowID) bool {
	return w.find(id) != nil
}

func (w *Workspace) find(id winsys.WindowID) *Snapshot {
	for _, snap := range w.windows {
		if snap.id == id {
			return snap
		}
	}
	return nil
}

// add appends a snapshot unless the window is already a member.
func (w *Workspace) add(snap *Snapshot) {
	if w.Contains(snap.id) {
		return
	}
	snap.owner = w
	w.windows = append(w.windows, snap)
}

// remove drops a window from the workspace and returns its snapshot, or
// nil if the window was not a member.
func (w *Workspace) remove(id winsys.WindowID) *Snapshot {
	for i, snap := range w.windows {
		if snap.id == id {
			w.windows = append(w.windows[:i], w.windows[i+1:]...)
			snap.owner = nil
			return snap
		}
	}
	return nil
}
