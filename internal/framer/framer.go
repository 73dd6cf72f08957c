// Package framer implements the length-prefixed frame protocol used between
// the native helper and its host over stdin/stdout.
//
// Wire format (§4.1): a four-byte little-endian unsigned length L followed
// by exactly L bytes of UTF-8 JSON. The host is expected to write one
// complete frame per pipe write; a length that does not match the bytes
// actually waiting in the pipe is treated as a framing violation, not a
// partial frame to wait out.
package framer

import (
	"encoding/binary"
	"errors"
	"io"
)

// Status is the outcome of a single non-blocking read attempt.
type Status int

const (
	// EMPTY means the pipe is open but currently has no bytes; the caller
	// should continue its loop without error.
	EMPTY Status = iota
	// VALID means a complete frame has been read and is ready for parsing.
	VALID
	// NOMORE means the pipe is broken, malformed, or closed; the caller
	// should terminate its loop.
	NOMORE
)

func (s Status) String() string {
	switch s {
	case EMPTY:
		return "EMPTY"
	case VALID:
		return "VALID"
	case NOMORE:
		return "NOMORE"
	default:
		return "UNKNOWN"
	}
}

// MaxFrameSize is the hard cap on a single inbound frame, per §6's note that
// implementations may impose a practical limit and treat violations as
// NOMORE.
const MaxFrameSize = 1 << 20 // 1 MiB

var errFramingViolation = errors.New("framer: framing violation")

// availabilityReader is satisfied by a reader that can report how many
// bytes are currently available without blocking. Platform-specific files
// in this package provide the real implementation over os.Stdin; avail_other.go
// is the portable fallback used when no such mechanism exists.
type availabilityReader interface {
	io.Reader
	Available() (int, error)
}

// Reader reads length-prefixed frames from an underlying stream without
// ever blocking on an empty pipe.
type Reader struct {
	r   availabilityReader
	buf []byte // scratch reused across TryRead calls
}

// NewReader wraps r (normally os.Stdin) for non-blocking frame reads.
// If r does not already expose byte-availability, it is wrapped with the
// platform's Available() probe.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: wrapAvailable(r)}
}

// TryRead attempts to read exactly one frame without blocking.
//
// It returns VALID with the frame body, EMPTY with a nil body (caller
// should loop again later), or NOMORE with a nil body (caller should
// terminate).
func (fr *Reader) TryRead() (Status, []byte, error) {
	avail, err := fr.r.Available()
	if err != nil {
		return NOMORE, nil, err
	}
	if avail == 0 {
		return EMPTY, nil, nil
	}
	if avail < 4 {
		// A length prefix has started arriving but isn't complete yet.
		// A well-behaved host writes the whole frame in one pipe write,
		// so this is treated the same as EMPTY: try again next tick.
		return EMPTY, nil, nil
	}

	hdr := make([]byte, 4)
	if _, err := io.ReadFull(fr.r, hdr); err != nil {
		return NOMORE, nil, err
	}
	length := binary.LittleEndian.Uint32(hdr)

	if length == 0 || length == 0xFFFFFFFF || length > MaxFrameSize {
		return NOMORE, nil, errFramingViolation
	}

	remaining := avail - 4
	if uint32(remaining) != length {
		// The host did not write exactly one complete frame; the pipe
		// contents can no longer be trusted to align on frame boundaries.
		return NOMORE, nil, errFramingViolation
	}

	if cap(fr.buf) < int(length) {
		fr.buf = make([]byte, length)
	}
	body := fr.buf[:length]
	if _, err := io.ReadFull(fr.r, body); err != nil {
		return NOMORE, nil, err
	}

	return VALID, body, nil
}

// Write writes a single outbound frame to w.
func Write(w io.Writer, body []byte) error {
	if len(body) == 0 || len(body) > MaxFrameSize {
		return errFramingViolation
	}
	hdr := make([]byte, 4+len(body))
	binary.LittleEndian.PutUint32(hdr, uint32(len(body)))
	copy(hdr[4:], body)
	_, err := w.Write(hdr)
	return err
}
