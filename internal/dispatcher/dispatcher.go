// Package dispatcher implements spec.md §4.6: decoding one inbound request,
// routing it to the matching command handler, and always emitting exactly
// one response frame, with `incomplete: true` standing in for a thrown
// error rather than a missing reply.
//
// Grounded on WebCard_handleRequest in
// original_source/native/src/smart_cards.c (parse body, pull `i` then `c`,
// switch on command, always write a response) and the teacher's
// handleConn/respond pair in internal/daemon/daemon.go for the Go idiom of
// one dispatcher method per command plus a shared "always respond" helper.
package dispatcher

import (
	"context"
	"encoding/hex"
	"strings"

	"github.com/ianremillard/webcardd/internal/jsonwire"
	"github.com/ianremillard/webcardd/internal/pcsc"
	"github.com/ianremillard/webcardd/internal/registry"
	"github.com/ianremillard/webcardd/internal/transceiver"
	"github.com/ianremillard/webcardd/internal/wire"
)

// Dispatcher routes decoded requests to their handlers against a shared
// registry and PC/SC adapter.
type Dispatcher struct {
	Adapter  pcsc.Adapter
	PCtx     pcsc.Context
	Registry *registry.Registry
}

// New returns a Dispatcher bound to the given adapter, context, and
// registry. Registry is a plain pointer: the dispatcher sees the
// reconciler's in-place mutations of that registry, but not its wholesale
// replacement on reader-set changes (LoadFromNames). Callers that rebuild
// the registry must update d.Registry themselves before the next Handle
// call, as the event loop does after every tick.
func New(adapter pcsc.Adapter, pctx pcsc.Context, reg *registry.Registry) *Dispatcher {
	return &Dispatcher{Adapter: adapter, PCtx: pctx, Registry: reg}
}

// Handle decodes body as one request and returns its response frame. It
// always returns a non-nil response, even for malformed input, so the
// framer always has something to write back — the sole exception is a
// decode failure so severe that no `i` can be recovered for correlation,
// which returns an error instead (the caller should drop the frame rather
// than invent a correlation id).
func (d *Dispatcher) Handle(ctx context.Context, body []byte) (*jsonwire.Value, error) {
	root, err := jsonwire.Parse(body)
	if err != nil {
		return nil, err
	}

	req, err := wire.DecodeRequest(root)
	if err != nil {
		if req.ID != "" {
			// "i" was recovered; only "c" is missing or mistyped.
			return wire.Response(req.ID, nil, true), nil
		}
		return nil, err
	}

	resp, ok := d.dispatch(ctx, req)
	return wire.Response(req.ID, resp, !ok), nil
}

// dispatch routes req to its handler. ok is false when the handler failed
// and the response should carry `incomplete: true`; unknown commands are
// deliberately treated as success with an empty body (spec.md §4.6: "keep
// the host-side promise chain from hanging").
func (d *Dispatcher) dispatch(ctx context.Context, req wire.Request) (*jsonwire.Value, bool) {
	switch req.Command {
	case wire.CommandListReaders:
		return d.listReaders()
	case wire.CommandConnect:
		return d.connect(ctx, req)
	case wire.CommandDisconnect:
		return d.disconnect(ctx, req)
	case wire.CommandTransceive:
		return d.transceive(ctx, req)
	case wire.CommandGetVersion:
		return d.getVersion()
	default:
		return jsonwire.Object(), true
	}
}

func (d *Dispatcher) listReaders() (*jsonwire.Value, bool) {
	arr := jsonwire.Array()
	for _, s := range d.Registry.States {
		entry := jsonwire.Object()
		entry.Set("n", jsonwire.String(s.Name))
		entry.Set("a", jsonwire.String(strings.ToUpper(hex.EncodeToString(s.ATR))))
		arr.Append(entry)
	}
	body := jsonwire.Object()
	body.Set("d", arr)
	return body, true
}

func (d *Dispatcher) connect(ctx context.Context, req wire.Request) (*jsonwire.Value, bool) {
	if !req.HasReader || !d.Registry.Valid(req.Reader) {
		return jsonwire.Object(), false
	}

	share := pcsc.ShareShared
	if req.HasShare {
		share = pcsc.ShareMode(req.Share)
	}

	state := d.Registry.States[req.Reader]
	conn := d.Registry.Connections[req.Reader]

	protocols := pcsc.ProtocolT0 | pcsc.ProtocolT1
	if share == pcsc.ShareDirect {
		protocols = 0
	}
	handle, active, err := d.Adapter.Connect(ctx, d.PCtx, state.Name, share, protocols)
	if err != nil {
		return jsonwire.Object(), false
	}

	conn.Handle = handle
	conn.ActiveProtocol = registryProtocolOf(active)
	// Open Question decision (DESIGN.md): increment on successful CONNECT
	// to suppress the spurious post-connect reset notification.
	conn.IgnoreCounter++

	body := jsonwire.Object()
	body.Set("d", jsonwire.String(strings.ToUpper(hex.EncodeToString(state.ATR))))
	return body, true
}

func (d *Dispatcher) disconnect(ctx context.Context, req wire.Request) (*jsonwire.Value, bool) {
	if !req.HasReader || !d.Registry.Valid(req.Reader) {
		return jsonwire.Object(), false
	}
	conn := d.Registry.Connections[req.Reader]
	if conn.Handle == 0 {
		// Already closed: succeeds with an i-only body, per spec.md §9.
		return jsonwire.Object(), true
	}
	if err := d.Adapter.Disconnect(ctx, conn.Handle); err != nil {
		return jsonwire.Object(), false
	}
	conn.Handle = 0
	conn.ActiveProtocol = registry.ProtocolNone
	return jsonwire.Object(), true
}

func (d *Dispatcher) transceive(ctx context.Context, req wire.Request) (*jsonwire.Value, bool) {
	if !req.HasReader || !d.Registry.Valid(req.Reader) {
		return jsonwire.Object(), false
	}
	conn := d.Registry.Connections[req.Reader]
	if conn.Handle == 0 {
		return jsonwire.Object(), false
	}
	apdu, err := hex.DecodeString(req.APDU)
	if err != nil {
		return jsonwire.Object(), false
	}

	respHex, err := transceiver.Chained(ctx, d.Adapter, conn, apdu)
	if err != nil {
		return jsonwire.Object(), false
	}

	body := jsonwire.Object()
	body.Set("d", jsonwire.String(respHex))
	return body, true
}

func (d *Dispatcher) getVersion() (*jsonwire.Value, bool) {
	body := jsonwire.Object()
	body.Set("verNat", jsonwire.String(wire.Version))
	return body, true
}

func registryProtocolOf(p pcsc.Protocol) registry.Protocol {
	switch p {
	case pcsc.ProtocolT0:
		return registry.ProtocolT0
	case pcsc.ProtocolT1:
		return registry.ProtocolT1
	default:
		return registry.ProtocolNone
	}
}
