package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ipclink/ipclink/pkg/address"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 1, cfg.Listener.Backlog)
	assert.Equal(t, "json", cfg.Listener.Codec)
	assert.Equal(t, 5*time.Second, cfg.Dial.DialTimeout.Duration)
	assert.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	path := writeFile(t, "ipclink.yaml", `
listener:
  address: /run/app/control.sock
  family: unix
  authenticate: true
  auth_key: swordfish
  codec: msgpack
  max_frame_size: 1048576
dial:
  address: 127.0.0.1:7000
  family: tcp
  dial_timeout: 250ms
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/run/app/control.sock", cfg.Listener.Address)
	assert.True(t, cfg.Listener.Authenticate)
	assert.Equal(t, "msgpack", cfg.Listener.Codec)
	assert.EqualValues(t, 1048576, cfg.Listener.MaxFrameSize)
	assert.Equal(t, 250*time.Millisecond, cfg.Dial.DialTimeout.Duration)

	key, err := cfg.Listener.ResolveAuthKey()
	require.NoError(t, err)
	assert.Equal(t, []byte("swordfish"), key)

	addr, family, err := cfg.Listener.ResolveAddr()
	require.NoError(t, err)
	assert.Equal(t, address.Unix, family)
	assert.Equal(t, address.UnixAddr{Path: "/run/app/control.sock"}, addr)

	dialAddr, dialFamily, err := cfg.Dial.ResolveAddr()
	require.NoError(t, err)
	assert.Equal(t, address.TCP, dialFamily)
	assert.Equal(t, address.TCPAddr{Host: "127.0.0.1", Port: 7000}, dialAddr)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	path := writeFile(t, "bad.yaml", "dial:\n  dial_timeout: soon\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidateRejectsUnknownCodec(t *testing.T) {
	cfg := Default()
	cfg.Listener.Codec = "xml"
	assert.Error(t, cfg.Validate())
}

func TestValidateRequiresKeyWhenAuthenticating(t *testing.T) {
	cfg := Default()
	cfg.Dial.Authenticate = true
	assert.Error(t, cfg.Validate())

	cfg.Dial.AuthKey = "k"
	assert.NoError(t, cfg.Validate())

	cfg.Dial.AuthKeyFile = "/also/set"
	assert.Error(t, cfg.Validate(), "inline key and key file are mutually exclusive")
}

func TestResolveAuthKeyFromFile(t *testing.T) {
	keyPath := writeFile(t, "authkey", "  top secret \n")

	e := EndpointConfig{AuthKeyFile: keyPath}
	key, err := e.ResolveAuthKey()
	require.NoError(t, err)
	assert.Equal(t, []byte("top secret"), key)

	e = EndpointConfig{AuthKeyFile: filepath.Join(t.TempDir(), "missing")}
	_, err = e.ResolveAuthKey()
	assert.Error(t, err)
}

func TestResolveAuthKeyUnset(t *testing.T) {
	var e EndpointConfig
	key, err := e.ResolveAuthKey()
	require.NoError(t, err)
	assert.Nil(t, key)
}

func TestResolveAddrInference(t *testing.T) {
	// host:port with no explicit family resolves as TCP
	e := EndpointConfig{Address: "localhost:9999"}
	addr, family, err := e.ResolveAddr()
	require.NoError(t, err)
	assert.Equal(t, address.FamilyUnknown, family)
	assert.Equal(t, address.TCPAddr{Host: "localhost", Port: 9999}, addr)

	e = EndpointConfig{Address: `\\.\pipe\control`}
	addr, _, err = e.ResolveAddr()
	require.NoError(t, err)
	assert.Equal(t, address.PipeAddr{Name: `\\.\pipe\control`}, addr)
}
