//go:build linux
// +build linux

package systemd

import (
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// listen makes a notify socket and points NOTIFY_SOCKET at it
func listen(t *testing.T) *net.UnixConn {
	path := filepath.Join(t.TempDir(), "notify.sock")
	conn, err := net.ListenUnixgram("unixgram", &net.UnixAddr{Name: path, Net: "unixgram"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	t.Setenv("NOTIFY_SOCKET", path)
	return conn
}

func read(t *testing.T, conn *net.UnixConn) string {
	buf := make([]byte, 256)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	n, err := conn.Read(buf)
	require.NoError(t, err)
	return string(buf[:n])
}

func TestNotify(t *testing.T) {
	conn := listen(t)
	finalise := Notify()
	assert.Equal(t, "READY=1", read(t, conn))
	finalise()
	assert.Equal(t, "STOPPING=1", read(t, conn))

	// only notifies stopping once
	finalise()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, err := conn.Read(make([]byte, 256))
	assert.Error(t, err)
}

func TestUpdateStatus(t *testing.T) {
	conn := listen(t)
	require.NoError(t, UpdateStatus("Serving 2 routes"))
	assert.Equal(t, "STATUS=Serving 2 routes", read(t, conn))
}

func TestNotifyNoSystemd(t *testing.T) {
	t.Setenv("NOTIFY_SOCKET", "")
	finalise := Notify()
	finalise()
	assert.NoError(t, UpdateStatus("ignored"))
}
