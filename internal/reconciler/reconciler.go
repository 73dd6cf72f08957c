// Package reconciler implements the list and status phases from spec.md
// §4.4: a tick-gated reader-name refresh and an every-iteration card-state
// refresh, each diffing the OS-reported truth against the registry and
// emitting deterministic event frames.
//
// Grounded on WebCard_run's two-phase loop in
// original_source/native/src/smart_cards.c (1-second gate around the list
// fetch, unconditional status fetch every iteration) and the teacher's
// ptyReader polling-and-diffing goroutine in internal/daemon/instance.go.
package reconciler

import (
	"context"
	"encoding/hex"
	"strings"
	"time"

	"github.com/ianremillard/webcardd/internal/jsonwire"
	"github.com/ianremillard/webcardd/internal/pcsc"
	"github.com/ianremillard/webcardd/internal/registry"
	"github.com/ianremillard/webcardd/internal/wire"
)

// ListInterval is the default gate on the list phase, per spec.md §4.4
// ("runs once per ~1-second tick").
const ListInterval = 1 * time.Second

// Reconciler owns the registry and drives both phases of spec.md §4.4.
type Reconciler struct {
	Adapter  pcsc.Adapter
	PCtx     pcsc.Context
	Registry *registry.Registry

	ListInterval time.Duration
	lastList     time.Time

	// Debug, when true, logs PC/SC error codes the list phase observes.
	// Grounded on the original's #if defined(_DEBUG) blocks in
	// smart_cards.c; see SPEC_FULL.md's "supplemented features."
	Debug    bool
	DebugLog func(format string, args ...any)
}

// New returns a Reconciler with an empty registry and the default 1-second
// list-phase gate.
func New(adapter pcsc.Adapter, pctx pcsc.Context) *Reconciler {
	return &Reconciler{
		Adapter:      adapter,
		PCtx:         pctx,
		Registry:     registry.New(),
		ListInterval: ListInterval,
	}
}

// Tick runs whichever phases are due at `now` and returns the outbound
// event frames (already serialized to jsonwire.Value, ready for framing).
func (r *Reconciler) Tick(ctx context.Context, now time.Time) ([]*jsonwire.Value, error) {
	var events []*jsonwire.Value

	if r.lastList.IsZero() || now.Sub(r.lastList) >= r.ListInterval {
		r.lastList = now
		listEvents, err := r.listPhase(ctx)
		if err != nil {
			// §4.4: "other error: surface failure, skip this tick" — the
			// status phase still runs below on the existing registry.
			r.debugf("list phase failed: %v", err)
		} else {
			events = append(events, listEvents...)
		}
	}

	statusEvents, err := r.statusPhase(ctx)
	if err != nil {
		r.debugf("status phase failed: %v", err)
		return events, nil
	}
	events = append(events, statusEvents...)

	return events, nil
}

func (r *Reconciler) debugf(format string, args ...any) {
	if r.Debug && r.DebugLog != nil {
		r.DebugLog(format, args...)
	}
}

// listPhase refreshes the reader name set and rebuilds the registry if its
// shape changed, emitting one event per added or removed reader name
// (spec.md §9's REDESIGN FLAG: name-set diffing, not count-only).
func (r *Reconciler) listPhase(ctx context.Context) ([]*jsonwire.Value, error) {
	names, err := r.Adapter.ListReaders(ctx, r.PCtx)
	if err != nil {
		if adapterErr, ok := err.(*pcsc.Error); ok {
			switch adapterErr.Kind {
			case pcsc.KindNoReaders, pcsc.KindServiceStopped:
				names = nil
			default:
				return nil, err
			}
		} else {
			return nil, err
		}
	}

	oldNames := r.Registry.Names()
	added, removed := diffNames(oldNames, names)
	if len(added) == 0 && len(removed) == 0 {
		// §4.4 step 2: no reader was added or removed, even if the total
		// count happens to match — an equal-count swap (one reader
		// unplugged, a different one plugged in the same tick) still needs
		// a rebuild, per spec.md §9's REDESIGN FLAG.
		return nil, nil
	}

	r.closeRegistry(ctx)
	r.Registry = registry.LoadFromNames(names)

	var events []*jsonwire.Value
	for range added {
		events = append(events, wire.Event(wire.EventReadersMore, -1, ""))
	}
	for range removed {
		events = append(events, wire.Event(wire.EventReadersLess, -1, ""))
	}
	return events, nil
}

// closeRegistry disconnects every open connection the current registry
// holds before it is discarded. Per spec.md §5's resource discipline, a
// wholesale registry rebuild is equivalent to registry destruction: each
// opened PC/SC handle is owned by its slot and must be released, not
// silently dropped, since a removed card already zeroed its own handle but
// a still-present reader's open session would otherwise leak.
func (r *Reconciler) closeRegistry(ctx context.Context) {
	for _, conn := range r.Registry.Connections {
		if conn.Handle == 0 {
			continue
		}
		if err := r.Adapter.Disconnect(ctx, conn.Handle); err != nil {
			r.debugf("disconnect during registry rebuild failed: %v", err)
		}
		conn.Handle = 0
	}
}

func diffNames(old, new []string) (added, removed []string) {
	oldSet := make(map[string]bool, len(old))
	for _, n := range old {
		oldSet[n] = true
	}
	newSet := make(map[string]bool, len(new))
	for _, n := range new {
		newSet[n] = true
	}
	for _, n := range new {
		if !oldSet[n] {
			added = append(added, n)
		}
	}
	for _, n := range old {
		if !newSet[n] {
			removed = append(removed, n)
		}
	}
	return added, removed
}

// statusPhase refreshes each reader's card-presence status and emits
// CARD_INSERTION/CARD_REMOVAL transitions (spec.md §4.4 status phase).
func (r *Reconciler) statusPhase(ctx context.Context) ([]*jsonwire.Value, error) {
	n := r.Registry.Len()
	if n == 0 {
		return nil, nil
	}

	states := make([]pcsc.ReaderStatus, n)
	for i, s := range r.Registry.States {
		states[i] = pcsc.ReaderStatus{Name: s.Name, CurrentState: s.DwCurrentState()}
	}

	if err := r.Adapter.GetStatusChange(ctx, r.PCtx, states); err != nil {
		return nil, err
	}

	var events []*jsonwire.Value
	for i, st := range states {
		if st.EventState&pcsc.StateChanged == 0 {
			continue
		}

		conn := r.Registry.Connections[i]
		if conn.IgnoreCounter > 0 {
			conn.IgnoreCounter--
			r.Registry.States[i].SetDwCurrentState(st.EventState &^ pcsc.StateChanged)
			continue
		}

		wasPresent := r.Registry.States[i].CardPresent
		isPresent := st.EventState&pcsc.StatePresent != 0

		switch {
		case !wasPresent && isPresent:
			r.Registry.States[i].CardPresent = true
			r.Registry.States[i].ATR = st.ATR
			atrHex := strings.ToUpper(hex.EncodeToString(st.ATR))
			events = append(events, wire.Event(wire.EventCardInsertion, i, atrHex))

		case wasPresent && !isPresent:
			r.Registry.States[i].CardPresent = false
			r.Registry.States[i].ATR = nil
			conn.Handle = 0
			events = append(events, wire.Event(wire.EventCardRemoval, i, ""))
		}

		r.Registry.States[i].SetDwCurrentState(st.EventState &^ pcsc.StateChanged)
	}

	return events, nil
}
