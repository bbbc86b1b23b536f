package winsys

import "time"

// WindowID is a platform-neutral handle for a top-level window. Handles are
// stable and comparable for the lifetime of the underlying window.
type WindowID uint32

// Rect describes a rectangular region in screen coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Window contains metadata and geometry for a top-level window as observed
// at a single point in time.
type Window struct {
	ID      WindowID
	PID     int
	Class   string
	Title   string
	Bounds  Rect
	Visible bool
	// Normal reports whether the window is a regular application window as
	// opposed to a dock, desktop, splash or notification surface.
	Normal bool
	// StackPos is the window's position in the stacking order at observation
	// time, 0 = bottom.
	StackPos int
}

// RepositionRequest asks the window system to show and hide sets of windows.
// Show and Hide are applied in slice order so relative stacking is preserved.
type RepositionRequest struct {
	Show    []WindowID
	Hide    []WindowID
	Timeout time.Duration
}

// RepositionResult reports the outcome of a best-effort reposition. Windows
// that did not acknowledge within the request timeout land in Unresponsive;
// the rest completed normally. An unresponsive window is an expected outcome,
// not an error.
type RepositionResult struct {
	Done         []WindowID
	Unresponsive []WindowID
}

// System abstracts window-system operations so the desktop engine can be
// driven by X11 in production and by a fake in tests.
type System interface {
	// ListWindows returns all top-level windows in bottom-to-top stacking order.
	ListWindows() ([]Window, error)
	// WindowAlive reports whether the window still exists.
	WindowAlive(id WindowID) (bool, error)
	// WindowInfo re-reads the current state of a single window.
	WindowInfo(id WindowID) (Window, error)
	// TransientsFor returns windows owned by id (dialogs, tool windows),
	// bottom-to-top.
	TransientsFor(id WindowID) ([]WindowID, error)
	// ProcessPath resolves the executable path of the process owning a window.
	ProcessPath(pid int) (string, error)
	// Reposition shows and hides windows best-effort within the given timeout.
	Reposition(req RepositionRequest) RepositionResult
}
