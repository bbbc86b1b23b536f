package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xwindow"
)

// ClientListStacking returns all managed top-level windows in
// bottom-to-top stacking order (_NET_CLIENT_LIST_STACKING).
func (c *Connection) ClientListStacking() ([]xproto.Window, error) {
	clients, err := ewmh.ClientListStackingGet(c.XUtil)
	if err != nil {
		// Fall back to the unordered client list for WMs that don't
		// maintain the stacking variant.
		clients, err = ewmh.ClientListGet(c.XUtil)
		if err != nil {
			return nil, fmt.Errorf("failed to get client list: %w", err)
		}
	}
	return clients, nil
}

// WindowPID returns the process id that owns a window (_NET_WM_PID).
// Returns 0 if the window does not expose a pid.
func (c *Connection) WindowPID(windowID xproto.Window) int {
	pid, err := ewmh.WmPidGet(c.XUtil, windowID)
	if err != nil {
		return 0
	}
	return int(pid)
}

// WindowClass returns the WM_CLASS class name of a window, or "" if unset.
func (c *Connection) WindowClass(windowID xproto.Window) string {
	class, err := icccm.WmClassGet(c.XUtil, windowID)
	if err != nil || class == nil {
		return ""
	}
	return class.Class
}

// WindowTitle returns the _NET_WM_NAME of a window, or "" if unset.
func (c *Connection) WindowTitle(windowID xproto.Window) string {
	name, err := ewmh.WmNameGet(c.XUtil, windowID)
	if err != nil {
		return ""
	}
	return name
}

// WindowGeometry returns the window geometry including decorations.
func (c *Connection) WindowGeometry(windowID xproto.Window) (x, y, width, height int, err error) {
	win := xwindow.New(c.XUtil, windowID)
	geom, err := win.DecorGeometry()
	if err != nil {
		// Some windows are unreparented; fall back to raw geometry.
		geom, err = win.Geometry()
		if err != nil {
			return 0, 0, 0, 0, fmt.Errorf("failed to get geometry: %w", err)
		}
	}
	return geom.X(), geom.Y(), geom.Width(), geom.Height(), nil
}

// WindowViewable reports whether a window is currently mapped.
func (c *Connection) WindowViewable(windowID xproto.Window) (bool, error) {
	attrs, err := xproto.GetWindowAttributes(c.XUtil.Conn(), windowID).Reply()
	if err != nil {
		return false, fmt.Errorf("failed to get window attributes: %w", err)
	}
	return attrs.MapState == xproto.MapStateViewable, nil
}

// WindowExists reports whether the window is still alive. A failed
// attribute query means the window has been destroyed.
func (c *Connection) WindowExists(windowID xproto.Window) bool {
	_, err := xproto.GetWindowAttributes(c.XUtil.Conn(), windowID).Reply()
	return err == nil
}

// TransientFor returns the window this one is transient for (its owner),
// or 0 if it is not a transient.
func (c *Connection) TransientFor(windowID xproto.Window) xproto.Window {
	owner, err := icccm.WmTransientForGet(c.XUtil, windowID)
	if err != nil {
		return 0
	}
	return owner
}

// MapWindow shows a window using a checked request so failures surface.
func (c *Connection) MapWindow(windowID xproto.Window) error {
	return xproto.MapWindowChecked(c.XUtil.Conn(), windowID).Check()
}

// UnmapWindow hides a window using a checked request so failures surface.
func (c *Connection) UnmapWindow(windowID xproto.Window) error {
	return xproto.UnmapWindowChecked(c.XUtil.Conn(), windowID).Check()
}

// IsNormalWindow checks if a window is a normal application window
func (c *Connection) IsNormalWindow(windowID xproto.Window) bool {
	types, err := ewmh.WmWindowTypeGet(c.XUtil, windowID)
	if err != nil {
		// If we can't determine type, assume it's normal
		return true
	}

	// Check for normal window type
	for _, t := range types {
		if t == "_NET_WM_WINDOW_TYPE_NORMAL" {
			return true
		}
		// Reject desktop, dock, splash, etc.
		if t == "_NET_WM_WINDOW_TYPE_DESKTOP" ||
			t == "_NET_WM_WINDOW_TYPE_DOCK" ||
			t == "_NET_WM_WINDOW_TYPE_SPLASH" ||
			t == "_NET_WM_WINDOW_TYPE_NOTIFICATION" {
			return false
		}
	}

	// If no specific type is set, assume it's normal
	return len(types) == 0
}
