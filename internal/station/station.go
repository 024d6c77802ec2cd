// Package station holds the decision state machine: it correlates the
// independently-arriving presence and weight events into one accept/reject
// decision per item cycle.
package station

import (
	"log"
	"sync"

	"github.com/tdnguyen/sorting-station/controller/internal/dispatch"
	"github.com/tdnguyen/sorting-station/controller/internal/projection"
	"github.com/tdnguyen/sorting-station/controller/internal/sensor"
)

// #region collaborators

// Dispatcher emits the actuation commands for a decision.
type Dispatcher interface {
	Dispatch(dec dispatch.Decision)
}

// Recorder persists a decision. Best effort; it returns nothing.
type Recorder interface {
	Record(dec dispatch.Decision, weight float64, source, reason string)
}

// InferenceStarter is the AI gate as seen by the machine.
type InferenceStarter interface {
	Enabled() bool
	TryStart() bool
}

// #endregion collaborators

// #region machine

// Machine is the per-cycle decision state machine. IDLE until a
// presence-detected event, PRESENT until the matching clear, at which point
// the decision is computed from the last known weight. The mutex serializes
// event handling; transport handlers may call in from separate goroutines.
type Machine struct {
	mu             sync.Mutex
	presenceActive bool
	lastWeight     float64
	haveWeight     bool

	proj       *projection.Projection
	dispatcher Dispatcher
	recorder   Recorder
	gate       InferenceStarter // nil disables the AI path
}

// NewMachine creates a machine. gate may be nil (AI path off).
func NewMachine(proj *projection.Projection, dispatcher Dispatcher, recorder Recorder, gate InferenceStarter) *Machine {
	return &Machine{
		proj:       proj,
		dispatcher: dispatcher,
		recorder:   recorder,
		gate:       gate,
	}
}

// #endregion machine

// #region presence

// HandlePresence processes a raw presence payload. Malformed payloads are
// logged and discarded without touching any state.
func (m *Machine) HandlePresence(payload []byte) {
	ev, err := sensor.DecodePresence(payload)
	if err != nil {
		log.Printf("[STATION] discarding presence event: %v", err)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if ev.Detected {
		m.onDetected()
	} else {
		m.onCleared()
	}
}

// onDetected handles IDLE → PRESENT. A repeated detected event while already
// PRESENT is an idempotent re-assertion: no image refresh, no second
// inference trigger.
func (m *Machine) onDetected() {
	if m.presenceActive {
		return
	}
	log.Printf("[STATION] item detected")
	m.presenceActive = true
	m.proj.SetDetected()
	m.proj.RefreshImage()

	if m.gate != nil && m.gate.Enabled() {
		m.gate.TryStart()
	}
}

// onCleared handles PRESENT → IDLE and computes the decision. The transition
// happens unconditionally; the decision is only dispatched when a presence
// was observed this cycle and a positive weight is known.
func (m *Machine) onCleared() {
	if m.presenceActive {
		log.Printf("[STATION] item left sensor, making decision")
		if !m.haveWeight || m.lastWeight <= 0 {
			log.Printf("[STATION] no valid weight yet, skipping decision")
		} else {
			m.decide()
		}
	}
	m.presenceActive = false
	m.proj.ClearDetected()
}

// decide dispatches exactly one decision for the cycle. The rule is
// weight-only: accept when the last known weight is positive. lastWeight is
// deliberately not reset afterwards; it carries into the next cycle as a
// fallback if no fresh reading arrives in time.
func (m *Machine) decide() {
	action := dispatch.DecisionReject
	if m.lastWeight > 0 {
		action = dispatch.DecisionAccept
	}

	log.Printf("[STATION] decision=%s weight=%.2f", action, m.lastWeight)
	m.dispatcher.Dispatch(action)
	m.recorder.Record(action, m.lastWeight, "auto", "weight reading")
}

// #endregion presence

// #region weight

// HandleWeight processes a raw weight payload. The reading updates state
// regardless of the machine's current phase; malformed payloads are logged
// and discarded without touching any state.
func (m *Machine) HandleWeight(payload []byte) {
	ev, err := sensor.DecodeWeight(payload)
	if err != nil {
		log.Printf("[STATION] discarding weight event: %v", err)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	log.Printf("[STATION] weight reading: %.2f kg", ev.Weight)
	m.lastWeight = ev.Weight
	m.haveWeight = true
	m.proj.SetWeight(ev.Weight)
}

// #endregion weight
