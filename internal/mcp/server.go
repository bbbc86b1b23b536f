// Package mcp exposes the daemon's monitor channel as MCP tools over a
// stdio transport, for out-of-process inspectors. Every tool delegates
// to the IPC client, so commands go through the daemon's serialization
// discipline like any other monitor traffic.
package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/virtdesk/vdesk/internal/ipc"
)

const (
	ServerName    = "vdesk"
	ServerVersion = "0.1.0"
)

// Server is the MCP server bridging tools onto the daemon's IPC socket.
type Server struct {
	mcpServer *mcpsdk.Server
	client    *ipc.Client
}

// NewServer creates an MCP server talking to the local daemon.
func NewServer() (*Server, error) {
	client := ipc.NewClient()
	if err := client.Ping(); err != nil {
		return nil, fmt.Errorf("daemon is not reachable: %w", err)
	}

	s := &Server{
		mcpServer: mcpsdk.NewServer(
			&mcpsdk.Implementation{
				Name:    ServerName,
				Version: ServerVersion,
			},
			nil,
		),
		client: client,
	}
	s.registerTools()
	return s, nil
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_desktops",
		Description: "List all virtual desktops with their window counts. Exactly one desktop is current (visible).",
	}, s.handleListDesktops)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_windows",
		Description: "List the windows tracked on a desktop (default: the current one).",
	}, s.handleListWindows)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_clipboard",
		Description: "List the windows currently held on the cross-desktop clipboard.",
	}, s.handleListClipboard)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "cut_window",
		Description: "Cut a window (and the tool windows it owns) from the current desktop onto the clipboard. Non-manageable windows are ignored.",
	}, s.handleCutWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "paste_windows",
		Description: "Paste the entire clipboard onto a desktop (default: the current one). The clipboard is retained, so the same windows can be pasted onto further desktops.",
	}, s.handlePasteWindows)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "switch_desktop",
		Description: "Switch to another desktop: the current desktop's windows are hidden, the target's shown.",
	}, s.handleSwitchDesktop)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "suspend_session",
		Description: "Capture the running state of the current desktop's matched applications into a named session on disk.",
	}, s.handleSuspendSession)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "resume_session",
		Description: "Replay a named session: matched applications are relaunched and their windows re-associated.",
	}, s.handleResumeSession)
}

func (s *Server) handleListDesktops(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListDesktopsInput) (*mcpsdk.CallToolResult, ListDesktopsOutput, error) {
	data, err := s.client.ListDesktops()
	if err != nil {
		return nil, ListDesktopsOutput{}, err
	}

	out := ListDesktopsOutput{Desktops: make([]DesktopInfo, 0, len(data.Desktops))}
	for _, d := range data.Desktops {
		out.Desktops = append(out.Desktops, DesktopInfo{
			ID:          d.ID,
			Name:        d.Name,
			Current:     d.Current,
			WindowCount: d.WindowCount,
		})
	}
	return nil, out, nil
}

func (s *Server) handleListWindows(_ context.Context, _ *mcpsdk.CallToolRequest, args ListWindowsInput) (*mcpsdk.CallToolResult, ListWindowsOutput, error) {
	data, err := s.client.ListWindows(args.Desktop)
	if err != nil {
		return nil, ListWindowsOutput{}, err
	}
	return nil, windowsOutput(data), nil
}

func (s *Server) handleListClipboard(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListDesktopsInput) (*mcpsdk.CallToolResult, ListWindowsOutput, error) {
	data, err := s.client.ListClipboard()
	if err != nil {
		return nil, ListWindowsOutput{}, err
	}
	return nil, windowsOutput(data), nil
}

func (s *Server) handleCutWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args CutWindowInput) (*mcpsdk.CallToolResult, any, error) {
	if err := s.client.Cut(args.WindowID); err != nil {
		return nil, nil, err
	}
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: fmt.Sprintf("Cut window %d onto the clipboard", args.WindowID)},
		},
	}, nil, nil
}

func (s *Server) handlePasteWindows(_ context.Context, _ *mcpsdk.CallToolRequest, args PasteWindowsInput) (*mcpsdk.CallToolResult, any, error) {
	if err := s.client.Paste(args.Desktop); err != nil {
		return nil, nil, err
	}
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: "Pasted clipboard windows"},
		},
	}, nil, nil
}

func (s *Server) handleSwitchDesktop(_ context.Context, _ *mcpsdk.CallToolRequest, args SwitchDesktopInput) (*mcpsdk.CallToolResult, any, error) {
	if err := s.client.Switch(args.Desktop); err != nil {
		return nil, nil, err
	}
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: fmt.Sprintf("Switched to desktop %q", args.Desktop)},
		},
	}, nil, nil
}

func (s *Server) handleSuspendSession(_ context.Context, _ *mcpsdk.CallToolRequest, args SessionInput) (*mcpsdk.CallToolResult, SessionOutput, error) {
	data, err := s.client.Suspend(args.Name)
	if err != nil {
		return nil, SessionOutput{}, err
	}
	return nil, SessionOutput{Name: data.Name, Applications: data.Applications}, nil
}

func (s *Server) handleResumeSession(_ context.Context, _ *mcpsdk.CallToolRequest, args SessionInput) (*mcpsdk.CallToolResult, SessionOutput, error) {
	data, err := s.client.Resume(args.Name)
	if err != nil {
		return nil, SessionOutput{}, err
	}
	return nil, SessionOutput{Name: data.Name, Applications: data.Applications}, nil
}

func windowsOutput(data *ipc.WindowsData) ListWindowsOutput {
	out := ListWindowsOutput{Windows: make([]WindowInfo, 0, len(data.Windows))}
	for _, w := range data.Windows {
		out.Windows = append(out.Windows, WindowInfo{
			ID:      w.ID,
			PID:     w.PID,
			Class:   w.Class,
			Title:   w.Title,
			Visible: w.Visible,
		})
	}
	return out
}
