package session

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
)

// TerminalState is the payload the terminal provider persists: enough to
// relaunch a terminal emulator where it left off.
type TerminalState struct {
	Cwd     string   `json:"cwd,omitempty"`
	Cmdline []string `json:"cmdline,omitempty"`
	Windows int      `json:"windows"`
}

// TerminalProvider suspends and resumes a terminal emulator by capturing
// its working directory and launch command line.
type TerminalProvider struct {
	processName string
}

var _ Provider = (*TerminalProvider)(nil)

// NewTerminalProvider creates a provider matching the given terminal
// executable name (e.g. "xterm", "ghostty").
func NewTerminalProvider(processName string) *TerminalProvider {
	return &TerminalProvider{processName: processName}
}

// ID is stable across restarts: it is derived from the declared process
// name, never from a runtime reference.
func (p *TerminalProvider) ID() string {
	return "terminal:" + p.processName
}

// ProcessName returns the executable name this provider matches.
func (p *TerminalProvider) ProcessName() string { return p.processName }

// DataType describes the TerminalState payload.
func (p *TerminalProvider) DataType() DataType {
	return DataType{
		ProviderID: p.ID(),
		Name:       "terminal_state",
		Prototype:  func() any { return &TerminalState{} },
	}
}

// Suspend captures the process working directory and command line.
func (p *TerminalProvider) Suspend(info SuspendInfo) (json.RawMessage, error) {
	state := TerminalState{
		Cmdline: info.Cmdline,
		Windows: len(info.Windows),
	}
	if cwd, err := os.Readlink(fmt.Sprintf("/proc/%d/cwd", info.PID)); err == nil {
		state.Cwd = cwd
	}

	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("failed to encode terminal state: %w", err)
	}
	return data, nil
}

// Resume relaunches the terminal with its recorded command line and
// working directory, detaching from the new process.
func (p *TerminalProvider) Resume(appPath string, data json.RawMessage) error {
	var state TerminalState
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("failed to parse terminal state: %w", err)
	}

	argv := state.Cmdline
	if len(argv) == 0 {
		argv = []string{appPath}
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	if state.Cwd != "" {
		if _, err := os.Stat(state.Cwd); err == nil {
			cmd.Dir = state.Cwd
		}
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to relaunch %s: %w", appPath, err)
	}
	return cmd.Process.Release()
}
