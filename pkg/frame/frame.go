// Package frame implements the wire format carried by every connection:
// a 4-byte unsigned big-endian length followed by exactly that many payload
// bytes. There is no checksum and no magic number; stream boundaries are
// purely length-driven, so a corrupted header is fatal to the connection.
package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"syscall"
)

const (
	// HeaderSize is the fixed length prefix in bytes.
	HeaderSize = 4

	// DefaultMaxFrameSize bounds payloads unless a caller overrides it.
	DefaultMaxFrameSize = 64 << 20
)

// ErrConnClosed reports that the peer closed the stream, or that the handle
// was closed locally while an operation was blocked on it.
var ErrConnClosed = errors.New("ipclink: connection closed")

// FrameTooLargeError reports a payload exceeding the configured maximum,
// on send or in a received header. On the receive side the frame cannot be
// skipped, so the connection should be treated as unusable.
type FrameTooLargeError struct {
	Size uint64
	Max  uint32
}

func (e *FrameTooLargeError) Error() string {
	return fmt.Sprintf("frame of %d bytes exceeds maximum %d", e.Size, e.Max)
}

// BufferTooShortError carries the fully received payload that did not fit
// the caller's buffer. The frame was consumed from the stream, so the
// connection is still synchronized and the caller loses no data.
type BufferTooShortError struct {
	Payload []byte
}

func (e *BufferTooShortError) Error() string {
	return fmt.Sprintf("buffer too short for %d byte payload", len(e.Payload))
}

// Write sends one frame: header and payload in a single Write call so
// concurrent writers guarded by the caller's lock cannot interleave.
func Write(w io.Writer, payload []byte, max uint32) error {
	if err := checkPayloadSize(uint64(len(payload)), max); err != nil {
		return err
	}
	buf := make([]byte, HeaderSize+len(payload))
	binary.BigEndian.PutUint32(buf[:HeaderSize], uint32(len(payload)))
	copy(buf[HeaderSize:], payload)
	if _, err := w.Write(buf); err != nil {
		return mapClosed(err)
	}
	return nil
}

// checkPayloadSize rejects payloads the 4-byte header cannot represent —
// truncating the length would desynchronize the stream — and, when a limit
// is set, payloads over it. max of zero means "no configured limit".
func checkPayloadSize(size uint64, max uint32) error {
	if size > math.MaxUint32 {
		return &FrameTooLargeError{Size: size, Max: math.MaxUint32}
	}
	if max > 0 && size > uint64(max) {
		return &FrameTooLargeError{Size: size, Max: max}
	}
	return nil
}

// Reader reads frames from a byte stream. It reads exactly the bytes of the
// frame in progress and never buffers ahead, so a Reader can be discarded
// between frames (the handshake does this) without losing stream data.
//
// Partial progress survives across calls: a Fill interrupted by a read
// deadline resumes where it stopped, which is what keeps Poll from
// desynchronizing the stream.
type Reader struct {
	r   io.Reader
	max uint32

	header   [HeaderSize]byte
	headerN  int
	payload  []byte
	payloadN int
	ready    bool
}

// NewReader wraps r with a payload size limit. max of zero means unlimited.
func NewReader(r io.Reader, max uint32) *Reader {
	return &Reader{r: r, max: max}
}

// Fill makes progress toward one complete frame. It returns true once the
// frame is fully buffered. Deadline expiry on the underlying reader is not
// an error: Fill returns (false, nil) and a later call resumes.
//
// Bytes returned alongside a read error are processed first, per the
// io.Reader contract; an error only ends the stream when the frame is
// still incomplete after them.
func (fr *Reader) Fill() (bool, error) {
	for {
		if err := fr.advance(); err != nil {
			return false, err
		}
		if fr.ready {
			return true, nil
		}

		var err error
		if fr.headerN < HeaderSize {
			var n int
			n, err = fr.r.Read(fr.header[fr.headerN:])
			fr.headerN += n
		} else {
			var n int
			n, err = fr.r.Read(fr.payload[fr.payloadN:])
			fr.payloadN += n
		}
		if err != nil {
			if aerr := fr.advance(); aerr != nil {
				return false, aerr
			}
			if fr.ready {
				return true, nil
			}
			return false, fr.stall(err)
		}
	}
}

// advance applies the state transitions that need no I/O: decoding a
// completed header into a payload buffer and marking a completed payload
// ready.
func (fr *Reader) advance() error {
	if fr.headerN == HeaderSize && fr.payload == nil {
		size := binary.BigEndian.Uint32(fr.header[:])
		if fr.max > 0 && size > fr.max {
			return &FrameTooLargeError{Size: uint64(size), Max: fr.max}
		}
		fr.payload = make([]byte, size)
		fr.payloadN = 0
	}
	if fr.payload != nil && fr.payloadN == len(fr.payload) {
		fr.ready = true
	}
	return nil
}

// Ready reports whether a complete frame is buffered without reading.
func (fr *Reader) Ready() bool { return fr.ready }

// Next blocks until one full frame arrives and returns its payload. A peer
// close before the frame completes yields ErrConnClosed, whether or not any
// header bytes had arrived.
func (fr *Reader) Next() ([]byte, error) {
	for {
		done, err := fr.Fill()
		if err != nil {
			return nil, err
		}
		if done {
			payload := fr.payload
			fr.reset()
			return payload, nil
		}
	}
}

func (fr *Reader) reset() {
	fr.headerN = 0
	fr.payload = nil
	fr.payloadN = 0
	fr.ready = false
}

// stall classifies a read error. Timeouts preserve partial progress and are
// reported as "no frame yet"; everything else ends the stream.
func (fr *Reader) stall(err error) error {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return nil
	}
	return mapClosed(err)
}

func mapClosed(err error) error {
	if errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) {
		return fmt.Errorf("%w: %v", ErrConnClosed, err)
	}
	return err
}
