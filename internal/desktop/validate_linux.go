//go:build linux

package desktop

import (
	"strings"
	"syscall"
)

// hostIs64Bit reports whether the running kernel is 64-bit.
func hostIs64Bit() bool {
	var uts syscall.Utsname
	if err := syscall.Uname(&uts); err != nil {
		return false
	}

	machine := make([]byte, 0, len(uts.Machine))
	for _, c := range uts.Machine {
		if c == 0 {
			break
		}
		machine = append(machine, byte(c))
	}
	return strings.Contains(string(machine), "64")
}
