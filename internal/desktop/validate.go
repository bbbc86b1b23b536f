package desktop

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
)

// validateRuntime checks the irrecoverable startup conditions. Both are
// configuration errors surfaced at construction only.
func validateRuntime(ignorePrivilegeCheck bool) error {
	if !ignorePrivilegeCheck && os.Geteuid() != 0 && canElevate() {
		return fmt.Errorf("desktop: running unprivileged while elevation is available; " +
			"elevated windows will not be manageable (set ignore_privilege_check to proceed)")
	}

	if strconv.IntSize == 32 && hostIs64Bit() {
		return fmt.Errorf("desktop: 32-bit build cannot address the full window population of a 64-bit host")
	}
	return nil
}

// canElevate reports whether the operating user has a way to elevate.
func canElevate() bool {
	for _, tool := range []string{"sudo", "doas"} {
		if _, err := exec.LookPath(tool); err == nil {
			return true
		}
	}
	return false
}
