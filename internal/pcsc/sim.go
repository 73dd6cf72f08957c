package pcsc

import (
	"context"
	"sync"
)

// simReader is one simulated reader's configurable state.
type simReader struct {
	name    string
	present bool
	atr     []byte
}

// Simulator is a software Adapter backend for tests and for hosts running
// with no physical reader attached. Tests drive it directly (PlugReader,
// UnplugReader, InsertCard, RemoveCard); the reconciler and dispatcher only ever see it
// through the Adapter interface, exactly as they would see the real
// backend.
type Simulator struct {
	mu      sync.Mutex
	readers []*simReader
	handles map[uintptr]*simReader
	nextH   uintptr

	// TransmitFunc, if set, computes a response for a given APDU; used by
	// transceiver tests to script 61xx continuation chains. Default:
	// echoes back 90 00 (success, no data).
	TransmitFunc func(apdu []byte) []byte
}

// NewSimulator returns an empty simulator (no readers plugged in).
func NewSimulator() *Simulator {
	return &Simulator{handles: map[uintptr]*simReader{}}
}

// PlugReader adds a new simulated reader with no card present.
func (s *Simulator) PlugReader(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readers = append(s.readers, &simReader{name: name})
}

// UnplugReader removes a simulated reader by name.
func (s *Simulator) UnplugReader(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.readers {
		if r.name == name {
			s.readers = append(s.readers[:i], s.readers[i+1:]...)
			return
		}
	}
}

// InsertCard marks a simulated reader as having a card with the given ATR.
func (s *Simulator) InsertCard(name string, atr []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.readers {
		if r.name == name {
			r.present = true
			r.atr = atr
			return
		}
	}
}

// RemoveCard marks a simulated reader's card as removed.
func (s *Simulator) RemoveCard(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.readers {
		if r.name == name {
			r.present = false
			r.atr = nil
			return
		}
	}
}

func (s *Simulator) EstablishContext(ctx context.Context) (Context, error) {
	return Context(1), nil
}

func (s *Simulator) ReleaseContext(ctx context.Context, c Context) error {
	return nil
}

func (s *Simulator) ListReaders(ctx context.Context, c Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.readers) == 0 {
		return nil, &Error{Kind: KindNoReaders, Code: ErrNoReadersAvailable}
	}
	names := make([]string, len(s.readers))
	for i, r := range s.readers {
		names[i] = r.name
	}
	return names, nil
}

func (s *Simulator) GetStatusChange(ctx context.Context, c Context, states []ReaderStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byName := map[string]*simReader{}
	for _, r := range s.readers {
		byName[r.name] = r
	}
	for i := range states {
		r, ok := byName[states[i].Name]
		if !ok {
			continue
		}
		event := uint32(0)
		if r.present {
			event |= StatePresent
		} else {
			event |= StateEmpty
		}
		if event&(StatePresent|StateEmpty) != states[i].CurrentState&(StatePresent|StateEmpty) {
			event |= StateChanged
		}
		states[i].EventState = event
		if r.present {
			states[i].ATR = append([]byte(nil), r.atr...)
		} else {
			states[i].ATR = nil
		}
	}
	return nil
}

func (s *Simulator) Connect(ctx context.Context, c Context, readerName string, share ShareMode, protocols Protocol) (uintptr, Protocol, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.readers {
		if r.name != readerName {
			continue
		}
		if !r.present {
			return 0, ProtocolNone, &Error{Kind: KindOther, Code: ErrNoSmartcard}
		}
		s.nextH++
		h := s.nextH
		s.handles[h] = r
		active := ProtocolT0
		if protocols == ProtocolT1 {
			active = ProtocolT1
		}
		return h, active, nil
	}
	return 0, ProtocolNone, &Error{Kind: KindOther, Code: ErrUnknownReader}
}

func (s *Simulator) Disconnect(ctx context.Context, handle uintptr) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.handles, handle)
	return nil
}

func (s *Simulator) Transmit(ctx context.Context, handle uintptr, proto Protocol, apdu []byte) ([]byte, error) {
	s.mu.Lock()
	fn := s.TransmitFunc
	_, ok := s.handles[handle]
	s.mu.Unlock()
	if !ok {
		return nil, &Error{Kind: KindOther, Code: ErrInvalidHandle}
	}
	if fn != nil {
		return fn(apdu), nil
	}
	return []byte{0x90, 0x00}, nil
}
