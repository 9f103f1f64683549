// Package consent holds the POPIA consent gate. The flag is set from
// outside when the visitor accepts the displayed terms; the engine only
// reads it.
package consent

import (
	"sync"
	"time"

	dErrors "kiosk/pkg/domain-errors"
)

// MessageDeclined is shown when the visitor closes the terms without
// accepting them.
const MessageDeclined = "POPIA terms must be accepted to continue."

// Decision captures the visitor's answer to the terms prompt.
type Decision struct {
	Granted   bool
	DecidedAt time.Time
}

// Gate is the consent flag for the current visitor.
type Gate struct {
	mu       sync.RWMutex
	decision *Decision
	clock    func() time.Time
}

// NewGate creates a gate with no decision.
func NewGate() *Gate {
	return &Gate{clock: time.Now}
}

// Grant records acceptance.
func (g *Gate) Grant() Decision {
	return g.decide(true)
}

// Decline records refusal.
func (g *Gate) Decline() Decision {
	return g.decide(false)
}

func (g *Gate) decide(granted bool) Decision {
	g.mu.Lock()
	defer g.mu.Unlock()
	d := Decision{Granted: granted, DecidedAt: g.clock()}
	g.decision = &d
	return d
}

// ConsentGranted reports whether the visitor accepted the terms.
func (g *Gate) ConsentGranted() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.decision != nil && g.decision.Granted
}

// Decision returns the last decision, if any.
func (g *Gate) Decision() (Decision, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.decision == nil {
		return Decision{}, false
	}
	return *g.decision, true
}

// Require fails with CodeMissingConsent unless consent was granted.
func (g *Gate) Require() error {
	if !g.ConsentGranted() {
		return dErrors.New(dErrors.CodeMissingConsent, "You must accept the POPIA terms to proceed.")
	}
	return nil
}

// Reset forgets the decision for the next visitor.
func (g *Gate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.decision = nil
}
