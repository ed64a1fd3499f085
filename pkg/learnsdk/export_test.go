package learnsdk

import (
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func (m *Metrics) RefreshCount(result string) float64 {
	return testutil.ToFloat64(m.refreshes.WithLabelValues(result))
}

func (m *Metrics) ReplayCount() float64 {
	return testutil.ToFloat64(m.replays)
}

func (m *Metrics) DecisionCount(outcome string) float64 {
	return testutil.ToFloat64(m.decisions.WithLabelValues(outcome))
}

// Generation exposes the session generation counter.
func (m *SessionManager) Generation() uint64 {
	return m.generation()
}

// SetClock replaces the gate's time source.
func (g *AccessGate) SetClock(now func() time.Time) {
	g.now = now
}
