// Package bridge implements the optional secondary transport SPEC_FULL.md
// adds beyond the native-messaging stdio path: a WebSocket endpoint
// speaking the identical {i,c,r,p,a} wire vocabulary one JSON text message
// per frame, and a read-only SSE stream mirroring reconciler events, for
// hosts that cannot launch a native-messaging subprocess directly.
//
// Grounded on coregx-stream/websocket's hub.go/conn.go accept-and-serve
// pattern and coregx-stream/sse's hub.go broadcast pattern; the command
// vocabulary and validation are delegated straight to internal/dispatcher
// so no protocol logic is duplicated between transports.
package bridge

import (
	"context"
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/coregx/stream/sse"
	"github.com/coregx/stream/websocket"

	"github.com/ianremillard/webcardd/internal/eventloop"
	"github.com/ianremillard/webcardd/internal/jsonwire"
)

// Bridge serves the WebSocket command endpoint and the SSE event stream.
// WebSocket calls are never handled directly: spec.md §5 gives the stdio
// tick loop sole ownership of Dispatcher's registry, so every call is
// queued on requests and serviced by that loop's goroutine instead of this
// handler's own per-connection goroutine.
type Bridge struct {
	requests chan<- eventloop.BridgeRequest
	events   *sse.Hub[string]
	server   *http.Server

	Log func(format string, args ...any)
}

// New returns a Bridge ready to Run. requests must be the
// same channel the event loop draining bridge calls reads from
// (typically loop.Requests).
func New(requests chan<- eventloop.BridgeRequest) *Bridge {
	return &Bridge{
		requests: requests,
		events:   sse.NewHub[string](),
		Log:      log.Printf,
	}
}

// BroadcastEvent serializes ev and fans it out to every connected SSE
// client. Safe to call from the reconciler's tick goroutine.
func (b *Bridge) BroadcastEvent(ev *jsonwire.Value) {
	if err := b.events.Broadcast(string(jsonwire.Serialize(ev))); err != nil {
		b.Log("bridge: broadcast dropped: %v", err)
	}
}

// Handler returns the bridge's HTTP routes (/webcard, /webcard/events) as a
// standalone http.Handler, so tests can drive it through httptest without
// binding a real listener.
func (b *Bridge) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/webcard", b.handleWebSocket)
	mux.HandleFunc("/webcard/events", b.handleSSE)
	return mux
}

// Run starts the HTTP server on addr and blocks until ctx is cancelled.
func (b *Bridge) Run(ctx context.Context, addr string) error {
	go b.events.Run()
	defer b.events.Close()

	b.server = &http.Server{Addr: addr, Handler: b.Handler()}

	errCh := make(chan error, 1)
	go func() {
		if err := b.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		return b.server.Close()
	case err := <-errCh:
		return err
	}
}

func (b *Bridge) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, "upgrade failed", http.StatusBadRequest)
		return
	}
	defer conn.Close()

	sessionID := uuid.NewString()
	b.Log("bridge: websocket session %s connected from %s", sessionID, r.RemoteAddr)

	for {
		msgType, data, err := conn.Read()
		if err != nil {
			if !websocket.IsCloseError(err) {
				b.Log("bridge: session %s read error: %v", sessionID, err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		reply := make(chan eventloop.BridgeResponse, 1)
		select {
		case b.requests <- eventloop.BridgeRequest{Body: data, Reply: reply}:
		case <-r.Context().Done():
			return
		}

		var result eventloop.BridgeResponse
		select {
		case result = <-reply:
		case <-r.Context().Done():
			return
		}

		if result.Err != nil {
			// No "i" could be recovered; nothing to correlate, drop it.
			b.Log("bridge: session %s dropped malformed frame: %v", sessionID, result.Err)
			continue
		}

		if err := conn.Write(websocket.TextMessage, jsonwire.Serialize(result.Resp)); err != nil {
			b.Log("bridge: session %s write error: %v", sessionID, err)
			return
		}
	}
}

func (b *Bridge) handleSSE(w http.ResponseWriter, r *http.Request) {
	conn, err := sse.Upgrade(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer conn.Close()

	if err := b.events.Register(conn); err != nil {
		return
	}
	defer b.events.Unregister(conn)

	<-conn.Done()
}
