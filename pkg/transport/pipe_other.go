//go:build !windows

package transport

// Named pipes only exist on Windows. address.Supported(address.Pipe) is
// false everywhere else, so ForFamily reports ErrFamilyUnavailable before
// this is reached; the stub keeps the build portable.
func newPipeTransport() (Transport, error) {
	return nil, ErrFamilyUnavailable
}
