// Package debounce filters the raw detection stream. Continuous-frame
// decoding emits the same code dozens of times per second; the gate rejects
// re-reads inside a cooldown window and serializes event processing with a
// single busy flag.
package debounce

import (
	"sync"
	"time"
)

// DefaultCooldown is the minimum time between accepted scans of the same code.
const DefaultCooldown = 2 * time.Second

// Gate is the deduplication state for one scanning session. It remembers only
// the single most recent accepted code, so it cannot distinguish "same item
// scanned twice on purpose" from "decoder re-reading the same item" — a known
// limitation of the single-code window.
type Gate struct {
	mu             sync.Mutex
	cooldown       time.Duration
	lastCode       string
	lastAcceptedAt time.Time
	busy           bool
}

// NewGate creates a gate with the given cooldown window. A non-positive
// cooldown falls back to DefaultCooldown.
func NewGate(cooldown time.Duration) *Gate {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Gate{cooldown: cooldown}
}

// Cooldown returns the configured window.
func (g *Gate) Cooldown() time.Duration {
	return g.cooldown
}

// Admit decides whether a detection may proceed. On acceptance the gate
// records the code and closes until Release is called; the caller is
// responsible for scheduling that release after the cooldown elapses,
// independent of delivery outcome.
func (g *Gate) Admit(code string, now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.busy {
		return false
	}
	if code == g.lastCode && now.Sub(g.lastAcceptedAt) < g.cooldown {
		return false
	}

	g.lastCode = code
	g.lastAcceptedAt = now
	g.busy = true
	return true
}

// Release reopens the gate. Idempotent.
func (g *Gate) Release() {
	g.mu.Lock()
	g.busy = false
	g.mu.Unlock()
}

// Busy reports whether an accepted detection is still inside its window.
func (g *Gate) Busy() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.busy
}
