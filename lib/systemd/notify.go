// Package systemd tells the service manager how the server is doing
package systemd

import (
	"fmt"
	"sync"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/mediaserve/mediaserve/fs"
)

// Notify systemd that the service is ready. This returns a function
// which should be called to notify that the service is stopping. It
// is safe to call that function more than once.
//
// Notify does nothing if not running under systemd.
func Notify() func() {
	if _, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		fs.Logf(nil, "failed to notify ready to systemd: %v", err)
	}
	var finaliseOnce sync.Once
	return func() {
		finaliseOnce.Do(func() {
			if _, err := daemon.SdNotify(false, daemon.SdNotifyStopping); err != nil {
				fs.Logf(nil, "failed to notify stopping to systemd: %v", err)
			}
		})
	}
}

// UpdateStatus updates the systemd status
func UpdateStatus(status string) error {
	systemdStatus := fmt.Sprintf("STATUS=%s", status)
	_, err := daemon.SdNotify(false, systemdStatus)
	return err
}
