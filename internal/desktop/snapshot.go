package desktop

import (
	"github.com/virtdesk/vdesk/internal/winsys"
)

// Snapshot is a captured reference plus point-in-time state of one OS
// window. Identity is the underlying window handle: two snapshots of the
// same window are the same element for set operations even when their
// captured state differs.
type Snapshot struct {
	id        winsys.WindowID
	pid       int
	class     string
	title     string
	bounds    winsys.Rect
	visible   bool
	stackPos  int
	destroyed bool

	// owner is a back-reference to the containing workspace, not ownership.
	owner *Workspace
}

// NewSnapshot captures the given window state.
func NewSnapshot(win winsys.Window) *Snapshot {
	s := &Snapshot{id: win.ID}
	s.capture(win)
	return s
}

func (s *Snapshot) capture(win winsys.Window) {
	s.pid = win.PID
	s.class = win.Class
	s.title = win.Title
	s.bounds = win.Bounds
	s.visible = win.Visible
	s.stackPos = win.StackPos
}

// ID returns the underlying window handle.
func (s *Snapshot) ID() winsys.WindowID { return s.id }

// PID returns the id of the process owning the window at capture time.
func (s *Snapshot) PID() int { return s.pid }

// Class returns the window class at capture time.
func (s *Snapshot) Class() string { return s.class }

// Title returns the window title at capture time.
func (s *Snapshot) Title() string { return s.title }

// Visible reports the captured visibility state.
func (s *Snapshot) Visible() bool { return s.visible }

// Destroyed reports whether the underlying window no longer exists. A
// destroyed snapshot is removed by the owning workspace on the next
// association pass, not immediately.
func (s *Snapshot) Destroyed() bool { return s.destroyed }

// Workspace returns the workspace this snapshot currently belongs to, or
// nil when it is held by the clipboard.
func (s *Snapshot) Workspace() *Workspace { return s.owner }

// Update re-reads live window state into the snapshot. If the window
// system reports the window gone, the snapshot is marked destroyed.
func (s *Snapshot) Update(sys winsys.System) error {
	alive, err := sys.WindowAlive(s.id)
	if err != nil {
		return err
	}
	if !alive {
		s.destroyed = true
		return nil
	}

	win, err := sys.WindowInfo(s.id)
	if err != nil {
		// The window died between the liveness check and the query.
		s.destroyed = true
		return nil
	}
	s.capture(win)
	return nil
}

// Info returns the captured state as a winsys.Window value.
func (s *Snapshot) Info() winsys.Window {
	return winsys.Window{
		ID:       s.id,
		PID:      s.pid,
		Class:    s.class,
		Title:    s.title,
		Bounds:   s.bounds,
		Visible:  s.visible,
		StackPos: s.stackPos,
	}
}
