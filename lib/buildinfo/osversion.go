//go:build !openbsd && !ios
// +build !openbsd,!ios

// Package buildinfo describes the platform and build of the binary
package buildinfo

import (
	"strings"

	"github.com/shirou/gopsutil/v3/host"
)

// GetOSVersion returns OS version, kernel and bitness
func GetOSVersion() (osVersion, osKernel string) {
	if platform, _, version, err := host.PlatformInformation(); err == nil && platform != "" {
		osVersion = platform
		if version != "" {
			osVersion += " " + version
		}
	}
	if version, err := host.KernelVersion(); err == nil && version != "" {
		osKernel = version
		// Windows reports the kernel in the platform version too
		if strings.Contains(osVersion, osKernel) {
			deduped := strings.TrimSpace(strings.Replace(osVersion, osKernel, "", 1))
			if deduped != "" {
				osVersion = deduped
			}
		}
	}
	if arch, err := host.KernelArch(); err == nil && arch != "" {
		if strings.HasSuffix(arch, "64") && osVersion != "" {
			osVersion += " (64 bit)"
		}
		if osKernel != "" {
			osKernel += " (" + arch + ")"
		}
	}
	return
}
