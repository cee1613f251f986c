package address

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/google/uuid"
)

// Supported reports whether a transport family is available on this
// platform. Only TCP is guaranteed everywhere; unavailable families are
// reported rather than silently substituted.
func Supported(f Family) bool {
	switch f {
	case TCP:
		return true
	case Unix:
		return runtime.GOOS != "windows" && runtime.GOOS != "plan9"
	case Pipe:
		return runtime.GOOS == "windows"
	default:
		return false
	}
}

// DefaultFamily is the fastest locally available transport: unix sockets on
// unix-likes, named pipes on Windows, TCP as the universal fallback.
func DefaultFamily() Family {
	switch {
	case Supported(Unix):
		return Unix
	case Supported(Pipe):
		return Pipe
	default:
		return TCP
	}
}

// Resolve normalizes an (address, family) pair.
//
// An explicit family wins and is validated against the address shape. With
// FamilyUnknown the family is inferred from the address. With a nil address
// the platform default family is chosen and a fresh, collision-free address
// is synthesized for it.
func Resolve(addr Addr, family Family) (Addr, Family, error) {
	if addr == nil {
		if family == FamilyUnknown {
			family = DefaultFamily()
		}
		if !Supported(family) {
			return nil, FamilyUnknown, &AddressError{
				Reason: fmt.Sprintf("family %s is not available on %s", family, runtime.GOOS),
			}
		}
		return synthesize(family), family, nil
	}

	if family == FamilyUnknown {
		family = addr.Family()
	}
	if addr.Family() != family {
		return nil, FamilyUnknown, &AddressError{
			Addr:   addr.String(),
			Reason: fmt.Sprintf("address is %s but family %s was requested", addr.Family(), family),
		}
	}
	if !Supported(family) {
		return nil, FamilyUnknown, &AddressError{
			Addr:   addr.String(),
			Reason: fmt.Sprintf("family %s is not available on %s", family, runtime.GOOS),
		}
	}
	return addr, family, nil
}

// synthesize produces an ephemeral address for a family. TCP relies on the
// kernel's ephemeral port allocation at bind time; the other families get a
// uuid-suffixed name.
func synthesize(f Family) Addr {
	switch f {
	case Unix:
		return UnixAddr{Path: filepath.Join(os.TempDir(), "ipclink-"+uuid.NewString()+".sock")}
	case Pipe:
		return PipeAddr{Name: `\\.\pipe\ipclink-` + uuid.NewString()}
	default:
		return TCPAddr{Host: "127.0.0.1", Port: 0}
	}
}
