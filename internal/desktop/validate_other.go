//go:build !linux

package desktop

// hostIs64Bit is unknowable without uname; assume the build matches.
func hostIs64Bit() bool {
	return false
}
