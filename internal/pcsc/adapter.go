// Package pcsc defines the thin façade the core requires from the PC/SC
// resource manager (spec.md §4.3) and provides two backends: a real one
// wired to github.com/ebfe/scard for actual reader hardware, and a software
// simulator used by tests and by hosts with no physical reader attached.
package pcsc

import "context"

// ShareMode is a pass-through enum from the host; values match the PC/SC
// SCARD_SHARE_* constants.
type ShareMode int

const (
	ShareExclusive ShareMode = 1
	ShareShared    ShareMode = 2
	ShareDirect    ShareMode = 3
)

// Protocol identifies a negotiated (or requested) ISO-7816 protocol.
type Protocol int

const (
	ProtocolNone Protocol = 0
	ProtocolT0   Protocol = 1
	ProtocolT1   Protocol = 2
)

// Kind classifies an adapter error into the taxonomy spec.md §7 names for
// the list-readers call: "no-readers" and "service-stopped" are handled as
// non-fatal empty-list conditions, anything else surfaces as failure.
type Kind int

const (
	KindOther Kind = iota
	KindNoReaders
	KindServiceStopped
)

// Error wraps an adapter failure with its classification and the
// underlying PC/SC long code (for diagnostic logging; see errors.go).
type Error struct {
	Kind Kind
	Code uint32
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return LookupCode(e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

// ReaderStatus is one entry of a GetStatusChange batch: the reader's name,
// the state word the caller supplied as its current baseline, and the
// state word PC/SC reports back (dwEventState). ATR is populated only when
// a card is present.
type ReaderStatus struct {
	Name         string
	CurrentState uint32
	EventState   uint32
	ATR          []byte
}

// PC/SC state-word bits the core inspects. Only the bits this package's
// callers actually branch on are named; the rest pass through untouched.
const (
	StateChanged uint32 = 0x00000002
	StateEmpty   uint32 = 0x00000010
	StatePresent uint32 = 0x00000020
)

// Adapter is the façade spec.md §4.3 names as the only PC/SC entry points
// the core touches.
type Adapter interface {
	EstablishContext(ctx context.Context) (Context, error)
	ReleaseContext(ctx context.Context, c Context) error
	ListReaders(ctx context.Context, c Context) ([]string, error)
	// GetStatusChange never blocks (the real backend passes PC/SC a zero
	// timeout) and updates states in place with the observed
	// dwEventState/ATR.
	GetStatusChange(ctx context.Context, c Context, states []ReaderStatus) error
	Connect(ctx context.Context, c Context, readerName string, share ShareMode, protocols Protocol) (handle uintptr, active Protocol, err error)
	Disconnect(ctx context.Context, handle uintptr) error
	// Transmit sends apdu to the card over the given protocol's PCI and
	// returns the response bytes.
	Transmit(ctx context.Context, handle uintptr, proto Protocol, apdu []byte) ([]byte, error)
}

// Context is an opaque PC/SC resource-manager context handle.
type Context uintptr
