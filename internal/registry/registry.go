// Package registry implements the reader/connection model from spec.md §3
// and §4.4: parallel reader-state and connection slices, rebuilt wholesale
// whenever the OS-reported reader set changes shape.
//
// The struct layout follows smart_cards.h's SCardReaderDB/SCardConnection;
// the mutation discipline (plain exported fields mutated in place by their
// owner; only the PC/SC state word is unexported, behind DwCurrentState and
// SetDwCurrentState) follows the teacher's Instance type in
// internal/daemon/instance.go.
package registry

// MaxATRLength is the maximum ATR byte length per spec.md §3.
const MaxATRLength = 36

// ReaderState is one reader's last-known identity and card state.
type ReaderState struct {
	// Name is the opaque OS-native reader name. Non-empty for the lifetime
	// of the registry entry.
	Name string

	// CardPresent mirrors the last-observed presence flag for this reader.
	CardPresent bool

	// ATR holds the last-known Answer-To-Reset bytes; empty when no card is
	// present. spec.md §3 bounds it at MaxATRLength; this package stores the
	// bytes as reported and does not check that bound.
	ATR []byte

	// ExpectNextEvent caches a hint that the next status-change poll is
	// expected to report a transition (currently unused by the reconciler
	// but retained per spec.md §3's data model).
	ExpectNextEvent bool

	// dwCurrentState mirrors the PC/SC SCARD_READERSTATE.dwCurrentState
	// field the reconciler must track and commit each tick (§4.4 step 3).
	dwCurrentState uint32
}

// Connection is one reader's open (or closed) PC/SC session.
type Connection struct {
	// Handle is the opaque PC/SC connection handle; zero means closed.
	Handle uintptr

	// ActiveProtocol is the negotiated transmission protocol.
	ActiveProtocol Protocol

	// IgnoreCounter suppresses the next N observed STATE_CHANGED status
	// transitions for this reader. It exists to absorb the spurious
	// "reset" notification PC/SC emits right after a successful CONNECT.
	//
	// Per spec.md §9's open question, this implementation increments the
	// counter on a successful CONNECT (see DESIGN.md's Open Question
	// decisions) rather than reproducing the original source's literal
	// (and, per its own comments, unintended) omission.
	IgnoreCounter int
}

// Protocol identifies the active ISO-7816 transmission protocol, or
// ProtocolNone for a direct (no-card) connection.
type Protocol int

const (
	ProtocolNone Protocol = iota
	ProtocolT0
	ProtocolT1
)

// Registry is the reader/connection model for one PC/SC context's
// lifetime. Index i's ReaderState and Connection describe the same
// physical reader; |States| always equals |Connections|.
//
// A full re-fetch produces a new Registry — indices are NOT stable across
// rebuilds, matching spec.md §3's registry invariant.
type Registry struct {
	States      []*ReaderState
	Connections []*Connection
}

// New returns an empty registry (no readers known yet).
func New() *Registry {
	return &Registry{}
}

// LoadFromNames builds a new registry from a freshly listed set of reader
// names, with every connection closed. It does not touch the previous
// registry; closing that one's open connections is the caller's job.
// Indices in the returned registry are unrelated to the previous one's.
func LoadFromNames(names []string) *Registry {
	reg := &Registry{
		States:      make([]*ReaderState, len(names)),
		Connections: make([]*Connection, len(names)),
	}
	for i, name := range names {
		reg.States[i] = &ReaderState{Name: name}
		reg.Connections[i] = &Connection{}
	}
	return reg
}

// Len returns the number of readers currently known.
func (r *Registry) Len() int {
	return len(r.States)
}

// Names returns the reader names in index order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.States))
	for i, s := range r.States {
		names[i] = s.Name
	}
	return names
}

// Valid reports whether idx is a present reader index.
func (r *Registry) Valid(idx int) bool {
	return idx >= 0 && idx < len(r.States)
}

// DwCurrentState returns the raw PC/SC state word the reconciler last
// committed for this reader.
func (s *ReaderState) DwCurrentState() uint32 { return s.dwCurrentState }

// SetDwCurrentState commits the reconciler's new baseline state word for
// the next poll tick (§4.4 step 3: "dwCurrentState = dwEventState &
// ~STATE_CHANGED").
func (s *ReaderState) SetDwCurrentState(v uint32) { s.dwCurrentState = v }
