package pcsc

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
)

// BreakingAdapter wraps another Adapter's Connect and Transmit calls with a
// circuit breaker, so a reader that starts failing repeatedly (removed
// mid-transaction, flaky driver) stops being hammered on every poll tick
// and instead fails fast until it recovers.
//
// Grounded on gobreaker's use in scrypster-memento's web/handlers package
// to wrap flaky outbound calls; ListReaders/GetStatusChange are left
// unwrapped because the reconciler already treats their failures as
// skip-this-tick, and a breaker there would just add another layer of the
// same backoff the 1-second poll gate already provides.
type BreakingAdapter struct {
	Adapter
	connect   *gobreaker.CircuitBreaker
	transmit  *gobreaker.CircuitBreaker
}

// NewBreakingAdapter wraps inner with a circuit breaker on Connect and
// Transmit. name prefixes the breaker's own diagnostic name.
func NewBreakingAdapter(name string, inner Adapter) *BreakingAdapter {
	settings := func(op string) gobreaker.Settings {
		return gobreaker.Settings{
			Name:        name + "." + op,
			MaxRequests: 1,
			Interval:    0,
			Timeout:     5 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
		}
	}
	return &BreakingAdapter{
		Adapter:  inner,
		connect:  gobreaker.NewCircuitBreaker(settings("connect")),
		transmit: gobreaker.NewCircuitBreaker(settings("transmit")),
	}
}

func (b *BreakingAdapter) Connect(ctx context.Context, c Context, readerName string, share ShareMode, protocols Protocol) (uintptr, Protocol, error) {
	type result struct {
		handle uintptr
		active Protocol
	}
	r, err := b.connect.Execute(func() (interface{}, error) {
		handle, active, err := b.Adapter.Connect(ctx, c, readerName, share, protocols)
		if err != nil {
			return result{}, err
		}
		return result{handle: handle, active: active}, nil
	})
	if err != nil {
		return 0, ProtocolNone, err
	}
	res := r.(result)
	return res.handle, res.active, nil
}

func (b *BreakingAdapter) Transmit(ctx context.Context, handle uintptr, proto Protocol, apdu []byte) ([]byte, error) {
	r, err := b.transmit.Execute(func() (interface{}, error) {
		return b.Adapter.Transmit(ctx, handle, proto, apdu)
	})
	if err != nil {
		return nil, err
	}
	return r.([]byte), nil
}
