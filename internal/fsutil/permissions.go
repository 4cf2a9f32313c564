package fsutil

import (
	"errors"
	"strings"
	"syscall"
)

// IsPermissionError checks if an error is a permission error
func IsPermissionError(err error) bool {
	if err == nil {
		return false
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.EACCES || errno == syscall.EPERM
	}

	// Check for string-based permission errors
	errStr := err.Error()
	return strings.Contains(errStr, "permission denied") ||
		strings.Contains(errStr, "operation not permitted") ||
		strings.Contains(errStr, "access is denied")
}
