package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/virtdesk/vdesk/internal/runtimepath"
)

// Client handles IPC communication with the daemon
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a new IPC client
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		socketPath = ""
	}

	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

// NewClientWithSocket creates a client against a specific socket path.
func NewClientWithSocket(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(req *Request) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.Status == "ERROR" {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}

	return &resp, nil
}

func (c *Client) send(command CommandType, payload interface{}) (*Response, error) {
	req := &Request{Command: command}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal payload: %w", err)
		}
		req.Payload = data
	}
	return c.sendRequest(req)
}

// GetStatus retrieves daemon status
func (c *Client) GetStatus() (*StatusData, error) {
	resp, err := c.send(CommandGetStatus, nil)
	if err != nil {
		return nil, err
	}

	var status StatusData
	if err := json.Unmarshal(resp.Data, &status); err != nil {
		return nil, fmt.Errorf("failed to parse status data: %w", err)
	}
	return &status, nil
}

// ListDesktops retrieves all virtual desktops.
func (c *Client) ListDesktops() (*DesktopsData, error) {
	resp, err := c.send(CommandListDesktops, nil)
	if err != nil {
		return nil, err
	}

	var data DesktopsData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse desktops data: %w", err)
	}
	return &data, nil
}

// ListWindows retrieves the windows of a desktop ("" = current).
func (c *Client) ListWindows(desktop string) (*WindowsData, error) {
	resp, err := c.send(CommandListWindows, DesktopPayload{Desktop: desktop})
	if err != nil {
		return nil, err
	}

	var data WindowsData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse windows data: %w", err)
	}
	return &data, nil
}

// ListClipboard retrieves the clipboard contents.
func (c *Client) ListClipboard() (*WindowsData, error) {
	resp, err := c.send(CommandListClipboard, nil)
	if err != nil {
		return nil, err
	}

	var data WindowsData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse clipboard data: %w", err)
	}
	return &data, nil
}

// Cut moves a window onto the clipboard.
func (c *Client) Cut(windowID uint32) error {
	_, err := c.send(CommandCut, CutPayload{WindowID: windowID})
	return err
}

// Paste pastes the clipboard onto a desktop ("" = current).
func (c *Client) Paste(desktop string) error {
	_, err := c.send(CommandPaste, DesktopPayload{Desktop: desktop})
	return err
}

// Switch makes a desktop current.
func (c *Client) Switch(desktop string) error {
	_, err := c.send(CommandSwitch, DesktopPayload{Desktop: desktop})
	return err
}

// CreateDesktop creates a new empty desktop.
func (c *Client) CreateDesktop(name string) (*DesktopInfo, error) {
	resp, err := c.send(CommandCreateDesktop, NamePayload{Name: name})
	if err != nil {
		return nil, err
	}

	var info DesktopInfo
	if err := json.Unmarshal(resp.Data, &info); err != nil {
		return nil, fmt.Errorf("failed to parse desktop data: %w", err)
	}
	return &info, nil
}

// CloseDesktop closes a desktop.
func (c *Client) CloseDesktop(desktop string) error {
	_, err := c.send(CommandCloseDesktop, DesktopPayload{Desktop: desktop})
	return err
}

// Merge moves all windows from one desktop into another.
func (c *Client) Merge(from, to string) error {
	_, err := c.send(CommandMerge, MergePayload{From: from, To: to})
	return err
}

// Suspend captures the current desktop's applications into a named session.
func (c *Client) Suspend(name string) (*SessionData, error) {
	resp, err := c.send(CommandSuspend, NamePayload{Name: name})
	if err != nil {
		return nil, err
	}

	var data SessionData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse session data: %w", err)
	}
	return &data, nil
}

// Resume replays a named session.
func (c *Client) Resume(name string) (*SessionData, error) {
	resp, err := c.send(CommandResume, NamePayload{Name: name})
	if err != nil {
		return nil, err
	}

	var data SessionData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse session data: %w", err)
	}
	return &data, nil
}

// Ping checks if the daemon is responding
func (c *Client) Ping() error {
	_, err := c.GetStatus()
	return err
}
