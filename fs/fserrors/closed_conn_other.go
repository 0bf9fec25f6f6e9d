//go:build !windows
// +build !windows

package fserrors

// isClosedConnErrorPlatform reports whether err is an error from use
// of a closed network connection using platform specific error codes.
//
// The portable errno values are handled by IsClosedConnError.
func isClosedConnErrorPlatform(err error) bool {
	return false
}
