//go:build cgo && (linux || darwin || windows)

package pcsc

import (
	"sync"
	"sync/atomic"

	"github.com/ebfe/scard"
)

// The Adapter interface exposes opaque uintptr/Context handles so the core
// never depends on github.com/ebfe/scard's types directly (only this file
// and real_pcsc.go do). These tables map those opaque handles back to the
// real *scard.Context / *scard.Card values.

var (
	contextsMu sync.Mutex
	contexts   = map[Context]*scard.Context{}
	nextCtxID  uint64

	cardsMu  sync.Mutex
	cards    = map[uintptr]*scard.Card{}
	nextCard uint64
)

func registerContext(c *scard.Context) Context {
	id := Context(atomic.AddUint64(&nextCtxID, 1))
	contextsMu.Lock()
	contexts[id] = c
	contextsMu.Unlock()
	return id
}

func contextFromHandle(h Context) *scard.Context {
	contextsMu.Lock()
	defer contextsMu.Unlock()
	return contexts[h]
}

func registerCard(c *scard.Card) uintptr {
	id := uintptr(atomic.AddUint64(&nextCard, 1))
	cardsMu.Lock()
	cards[id] = c
	cardsMu.Unlock()
	return id
}

func cardFromHandle(h uintptr) (*scard.Card, bool) {
	cardsMu.Lock()
	defer cardsMu.Unlock()
	c, ok := cards[h]
	return c, ok
}

func unregisterCard(h uintptr) {
	cardsMu.Lock()
	delete(cards, h)
	cardsMu.Unlock()
}
