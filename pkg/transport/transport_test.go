package transport

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ipclink/ipclink/pkg/address"
)

func TestForFamily(t *testing.T) {
	tr, err := ForFamily(address.TCP)
	require.NoError(t, err)
	assert.Equal(t, address.TCP, tr.Family())

	if runtime.GOOS != "windows" {
		_, err = ForFamily(address.Pipe)
		assert.ErrorIs(t, err, ErrFamilyUnavailable)
	}
}

func TestTCPListenAndDial(t *testing.T) {
	ctx := context.Background()
	tr, err := ForFamily(address.TCP)
	require.NoError(t, err)

	l, err := tr.Listen(ctx, address.TCPAddr{Host: "127.0.0.1", Port: 0})
	require.NoError(t, err)
	defer l.Close()

	bound, ok := address.FromNetAddr(l.Addr())
	require.True(t, ok)

	go func() {
		if c, err := l.Accept(); err == nil {
			_ = c.Close()
		}
	}()

	conn, err := tr.Dial(ctx, bound)
	require.NoError(t, err)
	assert.NoError(t, conn.Close())
}

func TestBindErrorOnAddressInUse(t *testing.T) {
	ctx := context.Background()
	tr, err := ForFamily(address.TCP)
	require.NoError(t, err)

	l, err := tr.Listen(ctx, address.TCPAddr{Host: "127.0.0.1", Port: 0})
	require.NoError(t, err)
	defer l.Close()

	bound, _ := address.FromNetAddr(l.Addr())
	_, err = tr.Listen(ctx, bound)

	var bindErr *BindError
	assert.ErrorAs(t, err, &bindErr)
}

func TestConnectErrorOnRefused(t *testing.T) {
	ctx := context.Background()
	tr, err := ForFamily(address.TCP)
	require.NoError(t, err)

	// bind then close to find a port with no listener
	l, err := tr.Listen(ctx, address.TCPAddr{Host: "127.0.0.1", Port: 0})
	require.NoError(t, err)
	bound, _ := address.FromNetAddr(l.Addr())
	require.NoError(t, l.Close())

	_, err = tr.Dial(ctx, bound)
	var connectErr *ConnectError
	assert.ErrorAs(t, err, &connectErr)
}

func TestFamilyMismatchedAddress(t *testing.T) {
	ctx := context.Background()
	tr, err := ForFamily(address.TCP)
	require.NoError(t, err)

	_, err = tr.Listen(ctx, address.UnixAddr{Path: "/tmp/x.sock"})
	var bindErr *BindError
	assert.ErrorAs(t, err, &bindErr)
}

func TestUnixSocketPermissions(t *testing.T) {
	if !address.Supported(address.Unix) {
		t.Skip("unix sockets unavailable")
	}
	ctx := context.Background()
	tr, err := ForFamily(address.Unix)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "perm.sock")
	l, err := tr.Listen(ctx, address.UnixAddr{Path: path})
	require.NoError(t, err)
	defer l.Close()
	defer os.Remove(path)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), info.Mode().Perm())
}

func TestUnixListenerCloseKeepsPath(t *testing.T) {
	if !address.Supported(address.Unix) {
		t.Skip("unix sockets unavailable")
	}
	ctx := context.Background()
	tr, err := ForFamily(address.Unix)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "keep.sock")
	l, err := tr.Listen(ctx, address.UnixAddr{Path: path})
	require.NoError(t, err)
	require.NoError(t, l.Close())

	// path cleanup belongs to the facade listener, not the transport
	assert.FileExists(t, path)
}
