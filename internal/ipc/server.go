package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"sync"
)

// Service is the desktop manager surface the monitor channel exposes.
// The implementation must serialize these calls with its foreground
// operations: the server may invoke them from several connection
// goroutines.
type Service interface {
	Status() (StatusData, error)
	ListDesktops() ([]DesktopInfo, error)
	ListWindows(desktop string) ([]WindowInfo, error)
	ListClipboard() ([]WindowInfo, error)
	Cut(windowID uint32) error
	Paste(desktop string) error
	Switch(desktop string) error
	CreateDesktop(name string) (DesktopInfo, error)
	CloseDesktop(desktop string) error
	Merge(from, to string) error
	Suspend(name string) (int, error)
	Resume(name string) (int, error)
}

// Server handles IPC requests from clients
type Server struct {
	socketPath   string
	listener     net.Listener
	service      Service
	shuttingDown bool
	shutdownMu   sync.Mutex
}

// NewServer creates a new IPC server exposing the given service.
func NewServer(socketPath string, service Service) *Server {
	// Remove existing socket if present
	os.Remove(socketPath)

	return &Server{
		socketPath: socketPath,
		service:    service,
	}
}

// Start begins listening for IPC connections
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	// Set socket permissions
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	log.Printf("IPC server listening on %s", s.socketPath)

	// Accept connections
	go s.acceptLoop()

	return nil
}

// acceptLoop accepts incoming connections
func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			if s.shuttingDown {
				s.shutdownMu.Unlock()
				return
			}
			s.shutdownMu.Unlock()
			log.Printf("IPC accept error: %v", err)
			continue
		}

		go s.handleConnection(conn)
	}
}

// handleConnection handles a single IPC connection
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)

	// Read the request (expect JSON on a single line)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		log.Printf("IPC read error: %v", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.sendError(conn, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	resp := s.handleCommand(req)

	respData, err := resp.Marshal()
	if err != nil {
		log.Printf("Failed to marshal response: %v", err)
		return
	}

	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		log.Printf("Failed to send response: %v", err)
	}
}

// handleCommand processes an IPC command and returns a response
func (s *Server) handleCommand(req *Request) *Response {
	switch req.Command {
	case CommandGetStatus:
		return s.handleGetStatus()
	case CommandListDesktops:
		return s.handleListDesktops()
	case CommandListWindows:
		return s.handleListWindows(req.Payload)
	case CommandListClipboard:
		return s.handleListClipboard()
	case CommandCut:
		return s.handleCut(req.Payload)
	case CommandPaste:
		return s.handlePaste(req.Payload)
	case CommandSwitch:
		return s.handleSwitch(req.Payload)
	case CommandCreateDesktop:
		return s.handleCreateDesktop(req.Payload)
	case CommandCloseDesktop:
		return s.handleCloseDesktop(req.Payload)
	case CommandMerge:
		return s.handleMerge(req.Payload)
	case CommandSuspend:
		return s.handleSuspend(req.Payload)
	case CommandResume:
		return s.handleResume(req.Payload)
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func (s *Server) handleGetStatus() *Response {
	status, err := s.service.Status()
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	resp, _ := NewOKResponse(status)
	return resp
}

func (s *Server) handleListDesktops() *Response {
	desktops, err := s.service.ListDesktops()
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	resp, _ := NewOKResponse(DesktopsData{Desktops: desktops})
	return resp
}

func (s *Server) handleListWindows(payload json.RawMessage) *Response {
	var req DesktopPayload
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &req); err != nil {
			return NewErrorResponse(fmt.Sprintf("Invalid list payload: %v", err))
		}
	}

	windows, err := s.service.ListWindows(req.Desktop)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	resp, _ := NewOKResponse(WindowsData{Windows: windows})
	return resp
}

func (s *Server) handleListClipboard() *Response {
	windows, err := s.service.ListClipboard()
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	resp, _ := NewOKResponse(WindowsData{Windows: windows})
	return resp
}

func (s *Server) handleCut(payload json.RawMessage) *Response {
	var req CutPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid cut payload: %v", err))
	}
	if req.WindowID == 0 {
		return NewErrorResponse("window_id is required")
	}

	if err := s.service.Cut(req.WindowID); err != nil {
		return NewErrorResponse(err.Error())
	}
	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handlePaste(payload json.RawMessage) *Response {
	var req DesktopPayload
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &req); err != nil {
			return NewErrorResponse(fmt.Sprintf("Invalid paste payload: %v", err))
		}
	}

	if err := s.service.Paste(req.Desktop); err != nil {
		return NewErrorResponse(err.Error())
	}
	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleSwitch(payload json.RawMessage) *Response {
	var req DesktopPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid switch payload: %v", err))
	}
	if req.Desktop == "" {
		return NewErrorResponse("desktop is required")
	}

	if err := s.service.Switch(req.Desktop); err != nil {
		return NewErrorResponse(err.Error())
	}
	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleCreateDesktop(payload json.RawMessage) *Response {
	var req NamePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid create payload: %v", err))
	}
	if req.Name == "" {
		return NewErrorResponse("name is required")
	}

	info, err := s.service.CreateDesktop(req.Name)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	resp, _ := NewOKResponse(info)
	return resp
}

func (s *Server) handleCloseDesktop(payload json.RawMessage) *Response {
	var req DesktopPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid close payload: %v", err))
	}
	if req.Desktop == "" {
		return NewErrorResponse("desktop is required")
	}

	if err := s.service.CloseDesktop(req.Desktop); err != nil {
		return NewErrorResponse(err.Error())
	}
	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleMerge(payload json.RawMessage) *Response {
	var req MergePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid merge payload: %v", err))
	}
	if req.From == "" || req.To == "" {
		return NewErrorResponse("from and to are required")
	}

	if err := s.service.Merge(req.From, req.To); err != nil {
		return NewErrorResponse(err.Error())
	}
	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleSuspend(payload json.RawMessage) *Response {
	var req NamePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid suspend payload: %v", err))
	}
	if req.Name == "" {
		return NewErrorResponse("name is required")
	}

	count, err := s.service.Suspend(req.Name)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	resp, _ := NewOKResponse(SessionData{Name: req.Name, Applications: count})
	return resp
}

func (s *Server) handleResume(payload json.RawMessage) *Response {
	var req NamePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid resume payload: %v", err))
	}
	if req.Name == "" {
		return NewErrorResponse("name is required")
	}

	count, err := s.service.Resume(req.Name)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	resp, _ := NewOKResponse(SessionData{Name: req.Name, Applications: count})
	return resp
}

// sendError sends an error response
func (s *Server) sendError(conn net.Conn, errMsg string) {
	resp := NewErrorResponse(errMsg)
	data, _ := resp.Marshal()
	data = append(data, '\n')
	conn.Write(data)
}

// Stop gracefully shuts down the IPC server
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	os.Remove(s.socketPath)
}
