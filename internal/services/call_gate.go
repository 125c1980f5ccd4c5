package services

import (
	"sync"

	"github.com/google/uuid"
)

// CallGate allows at most one in-flight upstream AI call for the whole
// process, regardless of which user asked. A second caller is rejected
// immediately rather than queued: the orchestrator falls back to canned
// content instead of waiting, so a burst of simultaneous screens cannot
// multiply upstream cost.
type CallGate struct {
	mu       sync.Mutex
	inFlight bool
	callID   string
}

func NewCallGate() *CallGate {
	return &CallGate{}
}

// TryAcquire returns a call identifier for logging and true when the gate
// was free. It never blocks.
func (g *CallGate) TryAcquire() (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.inFlight {
		return "", false
	}
	g.inFlight = true
	g.callID = uuid.New().String()
	return g.callID, true
}

// Release clears the gate. Safe to call when not held, so callers can
// defer it on every exit path.
func (g *CallGate) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.inFlight = false
	g.callID = ""
}
