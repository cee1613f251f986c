package address

import (
	"net"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveInference(t *testing.T) {
	tests := []struct {
		name       string
		addr       Addr
		wantFamily Family
	}{
		{"tcp host port", TCPAddr{Host: "localhost", Port: 6000}, TCP},
		{"unix path", FromString("/tmp/x.sock"), Unix},
		{"local pipe", FromString(`\\.\pipe\Foo`), Pipe},
		{"remote pipe", FromString(`\\server\pipe\Foo`), Pipe},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !Supported(tt.wantFamily) {
				t.Skipf("family %s unavailable on %s", tt.wantFamily, runtime.GOOS)
			}
			resolved, family, err := Resolve(tt.addr, FamilyUnknown)
			require.NoError(t, err)
			assert.Equal(t, tt.wantFamily, family)
			assert.Equal(t, tt.addr, resolved)
		})
	}
}

func TestResolveFamilyMismatch(t *testing.T) {
	_, _, err := Resolve(TCPAddr{Host: "localhost", Port: 6000}, Unix)
	require.Error(t, err)

	var addrErr *AddressError
	assert.ErrorAs(t, err, &addrErr)
}

func TestResolveUnavailableFamily(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("pipes are available on windows")
	}
	_, _, err := Resolve(PipeAddr{Name: `\\.\pipe\Foo`}, FamilyUnknown)
	require.Error(t, err)

	var addrErr *AddressError
	assert.ErrorAs(t, err, &addrErr)
}

func TestResolveDefaults(t *testing.T) {
	a1, f1, err := Resolve(nil, FamilyUnknown)
	require.NoError(t, err)
	assert.Equal(t, DefaultFamily(), f1)
	require.NotNil(t, a1)

	// synthesized addresses must not collide
	a2, _, err := Resolve(nil, FamilyUnknown)
	require.NoError(t, err)
	if f1 != TCP {
		assert.NotEqual(t, a1.String(), a2.String())
	}
}

func TestResolveExplicitTCPDefault(t *testing.T) {
	addr, family, err := Resolve(nil, TCP)
	require.NoError(t, err)
	assert.Equal(t, TCP, family)

	tcp, ok := addr.(TCPAddr)
	require.True(t, ok)
	assert.Equal(t, "127.0.0.1", tcp.Host)
	assert.Zero(t, tcp.Port)
}

func TestFromStringShapes(t *testing.T) {
	assert.IsType(t, PipeAddr{}, FromString(`\\.\pipe\Foo`))
	assert.IsType(t, PipeAddr{}, FromString("//./pipe/Foo"))
	assert.IsType(t, UnixAddr{}, FromString("/tmp/x.sock"))
	assert.IsType(t, UnixAddr{}, FromString("relative.sock"))
}

func TestHostPort(t *testing.T) {
	addr, err := HostPort("localhost:6000")
	require.NoError(t, err)
	assert.Equal(t, TCPAddr{Host: "localhost", Port: 6000}, addr)

	_, err = HostPort("/tmp/x.sock")
	assert.Error(t, err)

	_, err = HostPort("localhost:70000")
	assert.Error(t, err)
}

func TestParseFamily(t *testing.T) {
	for name, want := range map[string]Family{
		"":     FamilyUnknown,
		"tcp":  TCP,
		"unix": Unix,
		"pipe": Pipe,
	} {
		got, err := ParseFamily(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseFamily("carrier-pigeon")
	assert.Error(t, err)
}

func TestFromNetAddr(t *testing.T) {
	tcp, ok := FromNetAddr(&net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 9000})
	require.True(t, ok)
	assert.Equal(t, TCPAddr{Host: "127.0.0.1", Port: 9000}, tcp)

	ua, ok := FromNetAddr(&net.UnixAddr{Name: "/tmp/x.sock", Net: "unix"})
	require.True(t, ok)
	assert.Equal(t, UnixAddr{Path: "/tmp/x.sock"}, ua)

	_, ok = FromNetAddr(&net.UnixAddr{Name: "", Net: "unix"})
	assert.False(t, ok)
}

func TestSynthesizedUnixPathShape(t *testing.T) {
	if !Supported(Unix) {
		t.Skip("unix sockets unavailable")
	}
	addr, _, err := Resolve(nil, Unix)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(addr.String(), ".sock"))
}
