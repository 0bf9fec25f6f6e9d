//go:build openbsd || ios
// +build openbsd ios

// Package buildinfo describes the platform and build of the binary
package buildinfo

// GetOSVersion returns OS version, kernel and bitness
//
// gopsutil doesn't support these platforms so both are reported
// unknown.
func GetOSVersion() (osVersion, osKernel string) {
	return "", ""
}
