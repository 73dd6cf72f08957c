//go:build cgo && (linux || darwin || windows)

// This file wires the Adapter contract (spec.md §4.3) to a physical PC/SC
// resource manager via github.com/ebfe/scard, the standard cgo PC/SC
// binding in the Go ecosystem. No repo in the retrieved example pack binds
// PC/SC itself — see DESIGN.md and SPEC_FULL.md's domain-stack table for
// why this is the one dependency pulled in from outside the pack.
package pcsc

import (
	"context"

	"github.com/ebfe/scard"
)

// RealAdapter is the production Adapter backend, calling into the system's
// PC/SC resource manager (pcscd on Linux, winscard.dll on Windows, the
// CryptoTokenKit-backed stack on macOS).
type RealAdapter struct{}

// NewRealAdapter returns the production PC/SC adapter.
func NewRealAdapter() *RealAdapter { return &RealAdapter{} }

func (a *RealAdapter) EstablishContext(ctx context.Context) (Context, error) {
	c, err := scard.EstablishContext()
	if err != nil {
		return 0, wrapErr(err)
	}
	return registerContext(c), nil
}

func (a *RealAdapter) ReleaseContext(ctx context.Context, c Context) error {
	scCtx := contextFromHandle(c)
	if scCtx == nil {
		return &Error{Kind: KindOther, Code: ErrInvalidHandle}
	}
	return wrapErr(scCtx.Release())
}

func (a *RealAdapter) ListReaders(ctx context.Context, c Context) ([]string, error) {
	names, err := contextFromHandle(c).ListReaders()
	if err != nil {
		return nil, wrapErr(err)
	}
	return names, nil
}

func (a *RealAdapter) GetStatusChange(ctx context.Context, c Context, states []ReaderStatus) error {
	scStates := make([]scard.ReaderState, len(states))
	for i, s := range states {
		scStates[i] = scard.ReaderState{
			Reader:       s.Name,
			CurrentState: scard.StateFlag(s.CurrentState),
		}
	}
	// Zero timeout: never blocks, per spec.md §4.4 and §5.
	if err := contextFromHandle(c).GetStatusChange(scStates, 0); err != nil {
		return wrapErr(err)
	}
	for i := range states {
		states[i].EventState = uint32(scStates[i].EventState)
		states[i].ATR = append([]byte(nil), scStates[i].Atr...)
	}
	return nil
}

func (a *RealAdapter) Connect(ctx context.Context, c Context, readerName string, share ShareMode, protocols Protocol) (uintptr, Protocol, error) {
	mode := scard.ShareMode(share)
	proto := scardProtocol(protocols)
	card, err := contextFromHandle(c).Connect(readerName, mode, proto)
	if err != nil {
		return 0, ProtocolNone, wrapErr(err)
	}
	status, err := card.Status()
	active := ProtocolNone
	if err == nil {
		active = fromScardProtocol(status.ActiveProtocol)
	}
	return registerCard(card), active, nil
}

func (a *RealAdapter) Disconnect(ctx context.Context, handle uintptr) error {
	card, ok := cardFromHandle(handle)
	if !ok {
		return &Error{Kind: KindOther, Code: ErrInvalidHandle}
	}
	err := card.Disconnect(scard.LeaveCard)
	unregisterCard(handle)
	return wrapErr(err)
}

func (a *RealAdapter) Transmit(ctx context.Context, handle uintptr, proto Protocol, apdu []byte) ([]byte, error) {
	card, ok := cardFromHandle(handle)
	if !ok {
		return nil, &Error{Kind: KindOther, Code: ErrInvalidHandle}
	}
	rsp, err := card.Transmit(apdu)
	if err != nil {
		return nil, wrapErr(err)
	}
	return rsp, nil
}

func scardProtocol(p Protocol) scard.Protocol {
	switch p {
	case ProtocolT0:
		return scard.ProtocolT0
	case ProtocolT1:
		return scard.ProtocolT1
	case ProtocolT0 | ProtocolT1:
		return scard.ProtocolT0 | scard.ProtocolT1
	default:
		return scard.ProtocolUndefined
	}
}

func fromScardProtocol(p scard.Protocol) Protocol {
	switch p {
	case scard.ProtocolT0:
		return ProtocolT0
	case scard.ProtocolT1:
		return ProtocolT1
	default:
		return ProtocolNone
	}
}

func wrapErr(err error) error {
	if err == nil {
		return nil
	}
	scErr, ok := err.(scard.Error)
	if !ok {
		return &Error{Kind: KindOther, Err: err}
	}
	code := uint32(scErr)
	return &Error{Kind: Classify(code), Code: code, Err: err}
}
