package mcp

// ListDesktopsInput is the input for the list_desktops tool.
type ListDesktopsInput struct{}

// DesktopInfo describes a single virtual desktop.
type DesktopInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Current     bool   `json:"current"`
	WindowCount int    `json:"window_count"`
}

// ListDesktopsOutput is the output for the list_desktops tool.
type ListDesktopsOutput struct {
	Desktops []DesktopInfo `json:"desktops"`
}

// ListWindowsInput is the input for the list_windows tool.
type ListWindowsInput struct {
	Desktop string `json:"desktop,omitempty" jsonschema:"Desktop name or id (default: current desktop)"`
}

// WindowInfo describes a single tracked window.
type WindowInfo struct {
	ID      uint32 `json:"id"`
	PID     int    `json:"pid"`
	Class   string `json:"class,omitempty"`
	Title   string `json:"title,omitempty"`
	Visible bool   `json:"visible"`
}

// ListWindowsOutput is the output for the list_windows and
// list_clipboard tools.
type ListWindowsOutput struct {
	Windows []WindowInfo `json:"windows"`
}

// CutWindowInput is the input for the cut_window tool.
type CutWindowInput struct {
	WindowID uint32 `json:"window_id" jsonschema:"required,Handle of the window to cut"`
}

// PasteWindowsInput is the input for the paste_windows tool.
type PasteWindowsInput struct {
	Desktop string `json:"desktop,omitempty" jsonschema:"Desktop name or id to paste onto (default: current desktop)"`
}

// SwitchDesktopInput is the input for the switch_desktop tool.
type SwitchDesktopInput struct {
	Desktop string `json:"desktop" jsonschema:"required,Desktop name or id to switch to"`
}

// SessionInput names a session for suspend_session / resume_session.
type SessionInput struct {
	Name string `json:"name" jsonschema:"required,Session name"`
}

// SessionOutput reports the outcome of a suspend or resume.
type SessionOutput struct {
	Name         string `json:"name"`
	Applications int    `json:"applications"`
}
