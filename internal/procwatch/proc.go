package procwatch

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Process describes one live process at observation time.
type Process struct {
	PID     int
	Cmdline []string
	ExePath string
}

// Lister enumerates live processes. The production implementation reads
// /proc; tests substitute a fake.
type Lister interface {
	Processes() ([]Process, error)
}

// ProcLister lists processes from the /proc filesystem.
type ProcLister struct{}

var _ Lister = ProcLister{}

// Processes returns every process /proc currently exposes. Processes that
// vanish mid-scan are skipped.
func (ProcLister) Processes() ([]Process, error) {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return nil, fmt.Errorf("failed to read /proc: %w", err)
	}

	var out []Process
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		pid, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}

		cmdline, err := readProcCmdline(pid)
		if err != nil || len(cmdline) == 0 {
			// Kernel threads and just-exited processes have no cmdline.
			continue
		}

		proc := Process{PID: pid, Cmdline: cmdline}
		if exe, err := os.Readlink(fmt.Sprintf("/proc/%d/exe", pid)); err == nil {
			proc.ExePath = exe
		}
		out = append(out, proc)
	}
	return out, nil
}

// readProcCmdline reads the NUL-separated command line of a process.
func readProcCmdline(pid int) ([]string, error) {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/cmdline", pid))
	if err != nil {
		return nil, fmt.Errorf("failed to read cmdline for pid %d: %w", pid, err)
	}

	parts := strings.Split(strings.TrimRight(string(data), "\x00"), "\x00")
	if len(parts) == 1 && parts[0] == "" {
		return nil, nil
	}
	return parts, nil
}
