package ipc

import (
	"encoding/json"
	"fmt"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandGetStatus     CommandType = "GET_STATUS"
	CommandListDesktops  CommandType = "LIST_DESKTOPS"
	CommandListWindows   CommandType = "LIST_WINDOWS"
	CommandListClipboard CommandType = "LIST_CLIPBOARD"
	CommandCut           CommandType = "CUT"
	CommandPaste         CommandType = "PASTE"
	CommandSwitch        CommandType = "SWITCH"
	CommandCreateDesktop CommandType = "CREATE_DESKTOP"
	CommandCloseDesktop  CommandType = "CLOSE_DESKTOP"
	CommandMerge         CommandType = "MERGE"
	CommandSuspend       CommandType = "SUSPEND"
	CommandResume        CommandType = "RESUME"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// DesktopInfo describes one virtual desktop.
type DesktopInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Current     bool   `json:"current"`
	WindowCount int    `json:"window_count"`
}

// WindowInfo describes one tracked window.
type WindowInfo struct {
	ID      uint32 `json:"id"`
	PID     int    `json:"pid"`
	Class   string `json:"class,omitempty"`
	Title   string `json:"title,omitempty"`
	Visible bool   `json:"visible"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	DaemonRunning  bool   `json:"daemon_running"`
	UptimeSeconds  int64  `json:"uptime_seconds"`
	DesktopCount   int    `json:"desktop_count"`
	WindowCount    int    `json:"window_count"`
	CurrentDesktop string `json:"current_desktop"`
}

// DesktopsData represents the data returned by LIST_DESKTOPS
type DesktopsData struct {
	Desktops []DesktopInfo `json:"desktops"`
}

// WindowsData represents the data returned by LIST_WINDOWS and LIST_CLIPBOARD
type WindowsData struct {
	Windows []WindowInfo `json:"windows"`
}

// DesktopPayload names a desktop by id or name.
type DesktopPayload struct {
	Desktop string `json:"desktop"`
}

// CutPayload identifies the window to cut.
type CutPayload struct {
	WindowID uint32 `json:"window_id"`
}

// NamePayload carries a bare name (new desktop, session).
type NamePayload struct {
	Name string `json:"name"`
}

// MergePayload names the source and target desktops of a merge.
type MergePayload struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// SessionData reports the outcome of a suspend or resume.
type SessionData struct {
	Name         string `json:"name"`
	Applications int    `json:"applications"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
