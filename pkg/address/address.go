// Package address models endpoint addresses for the three supported
// transport families and resolves (address, family) pairs the rest of the
// stack binds and dials with.
package address

import (
	"fmt"
	"net"
	"strconv"
)

// Family identifies the transport mechanism an address belongs to.
type Family int

const (
	// FamilyUnknown means "infer from the address shape".
	FamilyUnknown Family = iota
	// TCP sockets, available on every platform.
	TCP
	// Unix domain sockets.
	Unix
	// Pipe is an OS-native named pipe (Windows only).
	Pipe
)

func (f Family) String() string {
	switch f {
	case TCP:
		return "tcp"
	case Unix:
		return "unix"
	case Pipe:
		return "pipe"
	case FamilyUnknown:
		return "unknown"
	default:
		return fmt.Sprintf("family(%d)", int(f))
	}
}

// ParseFamily maps a configuration string to a Family. The empty string
// yields FamilyUnknown so callers can fall back to shape inference.
func ParseFamily(s string) (Family, error) {
	switch s {
	case "":
		return FamilyUnknown, nil
	case "tcp":
		return TCP, nil
	case "unix":
		return Unix, nil
	case "pipe":
		return Pipe, nil
	default:
		return FamilyUnknown, &AddressError{Addr: s, Reason: "unknown transport family"}
	}
}

// Addr is the closed set of endpoint addresses. Exactly one concrete type
// maps to each Family. Values are immutable once constructed.
type Addr interface {
	Family() Family
	String() string

	sealed()
}

// TCPAddr is a host/port endpoint.
type TCPAddr struct {
	Host string
	Port uint16
}

func (a TCPAddr) Family() Family { return TCP }
func (a TCPAddr) String() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(int(a.Port)))
}
func (TCPAddr) sealed() {}

// UnixAddr is a filesystem socket path.
type UnixAddr struct {
	Path string
}

func (a UnixAddr) Family() Family { return Unix }
func (a UnixAddr) String() string { return a.Path }
func (UnixAddr) sealed()          {}

// PipeAddr is a named pipe, either local (`\\.\pipe\Name`) or remote
// (`\\Server\pipe\Name`).
type PipeAddr struct {
	Name string
}

func (a PipeAddr) Family() Family { return Pipe }
func (a PipeAddr) String() string { return a.Name }
func (PipeAddr) sealed()          {}

// AddressError reports a malformed or ambiguous address/family combination.
type AddressError struct {
	Addr   string
	Reason string
}

func (e *AddressError) Error() string {
	if e.Addr == "" {
		return fmt.Sprintf("address: %s", e.Reason)
	}
	return fmt.Sprintf("address %q: %s", e.Addr, e.Reason)
}

// FromString infers an address from its textual shape: two leading path
// separators mean a named pipe, anything else a unix socket path. TCP
// addresses are constructed explicitly via TCPAddr or HostPort.
func FromString(s string) Addr {
	if len(s) >= 2 && isSep(s[0]) && isSep(s[1]) {
		return PipeAddr{Name: s}
	}
	return UnixAddr{Path: s}
}

// HostPort builds a TCPAddr from a "host:port" string.
func HostPort(hostport string) (TCPAddr, error) {
	host, portStr, err := net.SplitHostPort(hostport)
	if err != nil {
		return TCPAddr{}, &AddressError{Addr: hostport, Reason: "not a host:port pair"}
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return TCPAddr{}, &AddressError{Addr: hostport, Reason: "port out of range"}
	}
	return TCPAddr{Host: host, Port: uint16(port)}, nil
}

// FromNetAddr converts a net.Addr reported by a transport into an Addr.
// The second return is false when the transport cannot report a peer
// address in a meaningful form (named pipes, unnamed unix peers).
func FromNetAddr(a net.Addr) (Addr, bool) {
	switch na := a.(type) {
	case *net.TCPAddr:
		return TCPAddr{Host: na.IP.String(), Port: uint16(na.Port)}, true
	case *net.UnixAddr:
		if na.Name == "" || na.Name == "@" {
			return nil, false
		}
		return UnixAddr{Path: na.Name}, true
	default:
		return nil, false
	}
}

func isSep(c byte) bool { return c == '\\' || c == '/' }
