//go:build !windows && !plan9
// +build !windows,!plan9

package http

import (
	"net"

	"github.com/coreos/go-systemd/v22/activation"
	"github.com/mediaserve/mediaserve/fs"
)

// getInheritedListeners returns the sockets passed in by systemd
func getInheritedListeners() []net.Listener {
	sdListeners, err := activation.Listeners()
	if err != nil {
		fs.Errorf(nil, "go-systemd/activation error: %v", err)
		return nil
	}
	return sdListeners
}
