package x11

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/virtdesk/vdesk/internal/winsys"
)

// Backend exposes an X11 connection behind the winsys.System interface.
type Backend struct {
	conn *Connection
}

var _ winsys.System = (*Backend)(nil)

// NewBackend wraps an existing X11 connection.
func NewBackend(conn *Connection) *Backend {
	return &Backend{conn: conn}
}

// NewBackendFromDisplay opens a fresh X11 connection.
func NewBackendFromDisplay() (*Backend, error) {
	conn, err := NewConnection()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	return &Backend{conn: conn}, nil
}

// Disconnect closes the underlying X11 connection.
func (b *Backend) Disconnect() {
	if b != nil && b.conn != nil {
		b.conn.Close()
	}
}

// ListWindows returns all top-level windows in bottom-to-top stacking order.
func (b *Backend) ListWindows() ([]winsys.Window, error) {
	clients, err := b.conn.ClientListStacking()
	if err != nil {
		return nil, err
	}

	windows := make([]winsys.Window, 0, len(clients))
	for i, client := range clients {
		win, err := b.windowInfo(client, i)
		if err != nil {
			// Window vanished between the list query and the detail
			// queries. Skip it; the next pass won't see it at all.
			continue
		}
		windows = append(windows, win)
	}
	return windows, nil
}

// WindowAlive reports whether the window still exists.
func (b *Backend) WindowAlive(id winsys.WindowID) (bool, error) {
	return b.conn.WindowExists(xproto.Window(id)), nil
}

// WindowInfo re-reads the current state of a single window.
func (b *Backend) WindowInfo(id winsys.WindowID) (winsys.Window, error) {
	clients, err := b.conn.ClientListStacking()
	if err != nil {
		return winsys.Window{}, err
	}
	stackPos := -1
	for i, client := range clients {
		if client == xproto.Window(id) {
			stackPos = i
			break
		}
	}
	if stackPos == -1 {
		return winsys.Window{}, fmt.Errorf("window %d is not a managed client", id)
	}
	return b.windowInfo(xproto.Window(id), stackPos)
}

func (b *Backend) windowInfo(client xproto.Window, stackPos int) (winsys.Window, error) {
	viewable, err := b.conn.WindowViewable(client)
	if err != nil {
		return winsys.Window{}, err
	}

	win := winsys.Window{
		ID:       winsys.WindowID(client),
		PID:      b.conn.WindowPID(client),
		Class:    b.conn.WindowClass(client),
		Title:    b.conn.WindowTitle(client),
		Visible:  viewable,
		Normal:   b.conn.IsNormalWindow(client),
		StackPos: stackPos,
	}

	if x, y, w, h, err := b.conn.WindowGeometry(client); err == nil {
		win.Bounds = winsys.Rect{X: x, Y: y, Width: w, Height: h}
	}
	return win, nil
}

// TransientsFor returns windows owned by id (dialogs, tool windows) in
// bottom-to-top stacking order.
func (b *Backend) TransientsFor(id winsys.WindowID) ([]winsys.WindowID, error) {
	clients, err := b.conn.ClientListStacking()
	if err != nil {
		return nil, err
	}

	var out []winsys.WindowID
	for _, client := range clients {
		if b.conn.TransientFor(client) == xproto.Window(id) {
			out = append(out, winsys.WindowID(client))
		}
	}
	return out, nil
}

// ProcessPath resolves the executable path of a process via /proc.
func (b *Backend) ProcessPath(pid int) (string, error) {
	path, err := os.Readlink(fmt.Sprintf("/proc/%d/exe", pid))
	if err != nil {
		return "", fmt.Errorf("failed to resolve executable for pid %d: %w", pid, err)
	}
	return path, nil
}

// Reposition shows and hides windows best-effort. Each request is checked
// against the X server with the request deadline; windows that do not
// acknowledge in time are reported as unresponsive rather than failing
// the whole operation.
func (b *Backend) Reposition(req winsys.RepositionRequest) winsys.RepositionResult {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	deadline := time.Now().Add(timeout)

	var result winsys.RepositionResult
	for _, id := range req.Hide {
		b.apply(id, b.conn.UnmapWindow, deadline, &result)
	}
	for _, id := range req.Show {
		b.apply(id, b.conn.MapWindow, deadline, &result)
	}
	return result
}

func (b *Backend) apply(id winsys.WindowID, op func(xproto.Window) error, deadline time.Time, result *winsys.RepositionResult) {
	remaining := time.Until(deadline)
	if remaining <= 0 {
		result.Unresponsive = append(result.Unresponsive, id)
		return
	}

	done := make(chan error, 1)
	go func() {
		done <- op(xproto.Window(id))
	}()

	select {
	case err := <-done:
		if err != nil {
			result.Unresponsive = append(result.Unresponsive, id)
			return
		}
		result.Done = append(result.Done, id)
	case <-time.After(remaining):
		result.Unresponsive = append(result.Unresponsive, id)
	}
}
