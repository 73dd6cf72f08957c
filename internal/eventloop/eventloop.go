// Package eventloop implements the single-threaded tick from spec.md §4.7:
// gated reader-list reconciliation, per-tick status reconciliation,
// opportunistic non-blocking frame reads, and dispatch — until the host
// closes the pipe.
//
// Grounded on WebCard_run's `while (active)` loop in
// original_source/native/src/smart_cards.c and the teacher's Daemon.Run
// Accept loop in internal/daemon/daemon.go for the Go idiom of a top-level
// Run(...) error method owning the process lifetime.
package eventloop

import (
	"context"
	"io"
	"log"
	"time"

	"golang.org/x/time/rate"

	"github.com/ianremillard/webcardd/internal/dispatcher"
	"github.com/ianremillard/webcardd/internal/framer"
	"github.com/ianremillard/webcardd/internal/jsonwire"
	"github.com/ianremillard/webcardd/internal/reconciler"
)

// idleSleepCeiling bounds how long the loop may pause when the pipe is
// empty and no status change fired, keeping event-emission latency within
// spec.md §4.7's ~100ms note even under x/time/rate's jitter.
const idleSleepCeiling = 20 * time.Millisecond

// BridgeRequest is one inbound call from a secondary transport (the
// optional bridge's WebSocket endpoint), queued for the event-loop
// goroutine to service. spec.md §5 gives the stdio tick loop sole
// ownership of the registry; routing bridge calls through this channel
// keeps that true even with the bridge's HTTP server running its own
// per-connection goroutines.
type BridgeRequest struct {
	Body  []byte
	Reply chan<- BridgeResponse
}

// BridgeResponse is the reply to a BridgeRequest.
type BridgeResponse struct {
	Resp *jsonwire.Value
	Err  error
}

// bridgeRequestBacklog bounds how many bridge calls may queue for the next
// tick before a sender blocks; generous enough that a burst of concurrent
// WebSocket sessions doesn't stall on a slow tick.
const bridgeRequestBacklog = 32

// Loop ties the framer, reconciler, and dispatcher together for one
// running process's lifetime.
type Loop struct {
	Reader      *framer.Reader
	Writer      io.Writer
	Reconciler  *reconciler.Reconciler
	Dispatcher  *dispatcher.Dispatcher

	// Requests receives calls from secondary transports (internal/bridge).
	// Run drains it every iteration so Dispatcher/Registry are only ever
	// touched from this goroutine.
	Requests chan BridgeRequest

	// Limiter paces the idle sleep below the latency ceiling; nil disables
	// the pause entirely (the loop then spins, relying solely on PC/SC
	// call latency for throttling, as spec.md §4.7 allows).
	Limiter *rate.Limiter

	// OnEvent, if set, is called with every reconciler event in addition to
	// it being written to Writer — the hook the optional bridge transport
	// uses to mirror events onto its SSE stream.
	OnEvent func(*jsonwire.Value)

	Debug    bool
	DebugLog func(format string, args ...any)

	now func() time.Time
}

// New returns a Loop with a rate limiter pacing idle sleeps at roughly one
// wakeup per idleSleepCeiling.
func New(r *framer.Reader, w io.Writer, rec *reconciler.Reconciler, disp *dispatcher.Dispatcher) *Loop {
	return &Loop{
		Reader:     r,
		Writer:     w,
		Reconciler: rec,
		Dispatcher: disp,
		Requests:   make(chan BridgeRequest, bridgeRequestBacklog),
		Limiter:    rate.NewLimiter(rate.Every(idleSleepCeiling), 1),
		now:        time.Now,
	}
}

// Run executes the tick loop until the host closes the input pipe or ctx
// is cancelled. It returns nil on a graceful NOMORE shutdown.
func (l *Loop) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		events, err := l.Reconciler.Tick(ctx, l.now())
		if err != nil {
			l.debugf("reconcile tick failed: %v", err)
		}
		// A list-phase rebuild replaces the reconciler's registry
		// wholesale; keep the dispatcher looking at the live one.
		l.Dispatcher.Registry = l.Reconciler.Registry
		for _, ev := range events {
			if l.OnEvent != nil {
				l.OnEvent(ev)
			}
			if err := l.write(ev); err != nil {
				return err
			}
		}

		l.drainBridgeRequests(ctx)

		status, body, err := l.Reader.TryRead()
		if err != nil {
			l.debugf("frame read failed: %v", err)
		}

		switch status {
		case framer.VALID:
			resp, err := l.Dispatcher.Handle(ctx, body)
			if err != nil {
				// §4.6: only a correlation-impossible decode failure skips
				// the response entirely; everything else already became
				// incomplete:true inside Handle.
				l.debugf("dropping malformed frame: %v", err)
				continue
			}
			if err := l.write(resp); err != nil {
				return err
			}

		case framer.NOMORE:
			return nil

		case framer.EMPTY:
			if l.Limiter != nil && len(events) == 0 {
				_ = l.Limiter.Wait(ctx)
			}
		}
	}
}

// drainBridgeRequests services every bridge call queued so far, using the
// one Dispatcher/Registry pair this goroutine owns, before returning to the
// stdio read. It never blocks waiting for new requests to arrive.
func (l *Loop) drainBridgeRequests(ctx context.Context) {
	for {
		select {
		case req := <-l.Requests:
			resp, err := l.Dispatcher.Handle(ctx, req.Body)
			req.Reply <- BridgeResponse{Resp: resp, Err: err}
		default:
			return
		}
	}
}

func (l *Loop) write(v *jsonwire.Value) error {
	return framer.Write(l.Writer, jsonwire.Serialize(v))
}

func (l *Loop) debugf(format string, args ...any) {
	if l.Debug {
		if l.DebugLog != nil {
			l.DebugLog(format, args...)
			return
		}
		log.Printf(format, args...)
	}
}
