package ipc

import (
	"errors"
	"fmt"
)

// ErrListenerClosed reports an Accept on a listener that was closed, or a
// close that raced an in-flight Accept.
var ErrListenerClosed = errors.New("ipclink: listener closed")

// ErrNoAuthKey reports authentication requested without a resolvable key.
var ErrNoAuthKey = errors.New("ipclink: authentication enabled but no key configured")

// DeserializationError reports a payload the configured codec could not
// decode. Framing integrity is intact, so the connection remains usable.
type DeserializationError struct {
	Codec string
	Err   error
}

func (e *DeserializationError) Error() string {
	return fmt.Sprintf("decode %s payload: %v", e.Codec, e.Err)
}

func (e *DeserializationError) Unwrap() error { return e.Err }
