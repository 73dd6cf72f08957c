package pcsc

import (
	"context"
	"testing"
)

func TestBreakingAdapterPassesThroughSuccess(t *testing.T) {
	sim := NewSimulator()
	sim.PlugReader("reader0")
	sim.InsertCard("reader0", []byte{0x3B, 0x00})
	b := NewBreakingAdapter("test", sim)

	ctx := context.Background()
	pctx, _ := b.EstablishContext(ctx)
	handle, active, err := b.Connect(ctx, pctx, "reader0", ShareShared, ProtocolT0|ProtocolT1)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if handle == 0 {
		t.Fatal("expected a non-zero handle")
	}
	if active != ProtocolT0 {
		t.Errorf("active protocol = %v, want ProtocolT0", active)
	}

	resp, err := b.Transmit(ctx, handle, active, []byte{0x00, 0xA4, 0x04, 0x00, 0x00})
	if err != nil {
		t.Fatalf("Transmit: %v", err)
	}
	if len(resp) != 2 || resp[0] != 0x90 || resp[1] != 0x00 {
		t.Errorf("Transmit response = %x, want 9000", resp)
	}
}

func TestBreakingAdapterOpensAfterRepeatedConnectFailures(t *testing.T) {
	sim := NewSimulator() // no readers plugged in: every Connect fails
	b := NewBreakingAdapter("test", sim)
	ctx := context.Background()
	pctx, _ := b.EstablishContext(ctx)

	var lastErr error
	for i := 0; i < 3; i++ {
		_, _, lastErr = b.Connect(ctx, pctx, "ghost", ShareShared, ProtocolT0|ProtocolT1)
		if lastErr == nil {
			t.Fatalf("attempt %d: expected a connect error against an unplugged reader", i)
		}
	}

	// The fourth call should be rejected by the open breaker itself rather
	// than reach the simulator again; either way it must still surface as
	// an error to the caller.
	if _, _, err := b.Connect(ctx, pctx, "ghost", ShareShared, ProtocolT0|ProtocolT1); err == nil {
		t.Error("expected an error once the breaker trips")
	}
}

func TestBreakingAdapterDelegatesUnwrappedMethods(t *testing.T) {
	sim := NewSimulator()
	sim.PlugReader("reader0")
	b := NewBreakingAdapter("test", sim)
	ctx := context.Background()

	pctx, err := b.EstablishContext(ctx)
	if err != nil {
		t.Fatalf("EstablishContext: %v", err)
	}
	names, err := b.ListReaders(ctx, pctx)
	if err != nil {
		t.Fatalf("ListReaders: %v", err)
	}
	if len(names) != 1 || names[0] != "reader0" {
		t.Errorf("ListReaders() = %v, want [reader0]", names)
	}
}
