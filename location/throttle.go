package location

import (
	"sync"
	"time"
)

const (
	silentMinGap   = 10 * time.Second
	explicitMinGap = 30 * time.Second
)

// ThrottleGate decides, per call, whether a new network resolution may
// proceed. It combines a holder count with a minimum-gap timer that is
// shorter for silent (background) requests than for explicit ones. The count
// rather than a flag matters when a high-accuracy escalation overlaps the
// foreground request that spawned it: each holds and releases independently.
type ThrottleGate struct {
	mu             sync.Mutex
	holders        int
	lastResolvedAt time.Time

	silentGap   time.Duration
	explicitGap time.Duration
	now         func() time.Time // overridable for tests
}

// NewThrottleGate creates a gate with the given minimum gaps. Zero values
// fall back to the 10 s silent / 30 s explicit defaults.
func NewThrottleGate(silentGap, explicitGap time.Duration) *ThrottleGate {
	if silentGap <= 0 {
		silentGap = silentMinGap
	}
	if explicitGap <= 0 {
		explicitGap = explicitMinGap
	}
	return &ThrottleGate{
		silentGap:   silentGap,
		explicitGap: explicitGap,
		now:         time.Now,
	}
}

// TryAcquire reports whether a resolution may proceed and, if so, marks it in
// flight. A second caller arriving while one is in flight observes false and
// must not queue; it relies on the existing snapshot or the periodic timer.
func (g *ThrottleGate) TryAcquire(silent bool) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.holders > 0 {
		return false
	}

	gap := g.explicitGap
	if silent {
		gap = g.silentGap
	}
	if !g.lastResolvedAt.IsZero() && g.now().Sub(g.lastResolvedAt) < gap {
		return false
	}

	g.holders++
	return true
}

// AcquireUnchecked takes a hold without consulting the gap timer.
// High-accuracy requests bypass throttling entirely.
func (g *ThrottleGate) AcquireUnchecked() {
	g.mu.Lock()
	g.holders++
	g.mu.Unlock()
}

// Release drops one hold. It must run on every exit path, including errors
// and cancellation, and pairs with exactly one TryAcquire or
// AcquireUnchecked. resolved=true additionally stamps the gap timer.
func (g *ThrottleGate) Release(resolved bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.holders > 0 {
		g.holders--
	}
	if resolved {
		g.lastResolvedAt = g.now()
	}
}
