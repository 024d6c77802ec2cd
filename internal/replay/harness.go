// Package replay drives recorded sensor event sequences through a fresh
// station machine with capture doubles, so past cycles can be re-verified
// after logic changes. Operates entirely in-memory; no broker, no AI path.
package replay

import (
	"sync"

	"github.com/tdnguyen/sorting-station/controller/internal/dispatch"
	"github.com/tdnguyen/sorting-station/controller/internal/projection"
	"github.com/tdnguyen/sorting-station/controller/internal/station"
)

// #region types

// Outcome is one decision the machine produced during replay.
type Outcome struct {
	Action string
	Weight float64
}

// Summary aggregates a replay run.
type Summary struct {
	TotalEvents int
	Decisions   int
	FinalState  projection.Snapshot
}

// #endregion types

// #region capture

// capture implements station.Dispatcher and station.Recorder, pairing each
// Dispatch with its matching Record into one Outcome.
type capture struct {
	mu       sync.Mutex
	outcomes []Outcome
}

func (c *capture) Dispatch(dec dispatch.Decision) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcomes = append(c.outcomes, Outcome{Action: string(dec)})
}

func (c *capture) Record(dec dispatch.Decision, weight float64, source, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n := len(c.outcomes); n > 0 && c.outcomes[n-1].Weight == 0 {
		c.outcomes[n-1].Weight = weight
	}
}

// #endregion capture

// #region replay

// Replay feeds the events through a fresh machine and returns the decisions
// it dispatched, in order.
func Replay(events []FixtureEvent) ([]Outcome, Summary) {
	proj := projection.New("replay://latest.jpg")
	rec := &capture{}
	machine := station.NewMachine(proj, rec, rec, nil)

	for _, ev := range events {
		switch ev.Topic {
		case "presence":
			machine.HandlePresence(ev.Payload)
		case "weight":
			machine.HandleWeight(ev.Payload)
		}
	}

	return rec.outcomes, Summary{
		TotalEvents: len(events),
		Decisions:   len(rec.outcomes),
		FinalState:  proj.Get(),
	}
}

// #endregion replay
