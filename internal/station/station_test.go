package station

import (
	"testing"

	"github.com/tdnguyen/sorting-station/controller/internal/dispatch"
	"github.com/tdnguyen/sorting-station/controller/internal/projection"
)

// #region fakes

type fakeDispatcher struct {
	decisions []dispatch.Decision
}

func (f *fakeDispatcher) Dispatch(dec dispatch.Decision) {
	f.decisions = append(f.decisions, dec)
}

type recorded struct {
	decision dispatch.Decision
	weight   float64
	source   string
}

type fakeRecorder struct {
	entries []recorded
}

func (f *fakeRecorder) Record(dec dispatch.Decision, weight float64, source, reason string) {
	f.entries = append(f.entries, recorded{decision: dec, weight: weight, source: source})
}

type fakeGate struct {
	enabled bool
	starts  int
}

func (f *fakeGate) Enabled() bool  { return f.enabled }
func (f *fakeGate) TryStart() bool { f.starts++; return true }

func newTestMachine(g InferenceStarter) (*Machine, *fakeDispatcher, *fakeRecorder, *projection.Projection) {
	proj := projection.New("https://images.example/latest.jpg")
	disp := &fakeDispatcher{}
	rec := &fakeRecorder{}
	return NewMachine(proj, disp, rec, g), disp, rec, proj
}

// #endregion fakes

// #region full-cycle

func TestFullCycleDispatchesAccept(t *testing.T) {
	m, disp, rec, _ := newTestMachine(nil)

	m.HandlePresence([]byte(`{"detected": true}`))
	m.HandleWeight([]byte(`{"weight": 3.2}`))
	m.HandlePresence([]byte(`{"detected": false}`))

	if len(disp.decisions) != 1 {
		t.Fatalf("expected exactly one dispatch, got %d", len(disp.decisions))
	}
	if disp.decisions[0] != dispatch.DecisionAccept {
		t.Fatalf("expected ACCEPT, got %s", disp.decisions[0])
	}
	if len(rec.entries) != 1 {
		t.Fatalf("expected exactly one transaction, got %d", len(rec.entries))
	}
	if rec.entries[0].decision != dispatch.DecisionAccept || rec.entries[0].weight != 3.2 {
		t.Fatalf("unexpected transaction: %+v", rec.entries[0])
	}
	if rec.entries[0].source != "auto" {
		t.Fatalf("expected auto source, got %s", rec.entries[0].source)
	}
}

func TestCycleWithoutWeightSkipsDecision(t *testing.T) {
	m, disp, rec, proj := newTestMachine(nil)

	m.HandlePresence([]byte(`{"detected": true}`))
	m.HandlePresence([]byte(`{"detected": false}`))

	if len(disp.decisions) != 0 {
		t.Fatalf("expected no dispatch, got %d", len(disp.decisions))
	}
	if len(rec.entries) != 0 {
		t.Fatalf("expected no transaction, got %d", len(rec.entries))
	}
	if proj.Get().Detected {
		t.Fatal("projection must still clear detected")
	}
}

func TestCycleWithNonPositiveWeightSkipsDecision(t *testing.T) {
	m, disp, _, _ := newTestMachine(nil)

	m.HandlePresence([]byte(`{"detected": true}`))
	m.HandleWeight([]byte(`{"weight": 0}`))
	m.HandlePresence([]byte(`{"detected": false}`))

	if len(disp.decisions) != 0 {
		t.Fatalf("expected no dispatch for weight 0, got %d", len(disp.decisions))
	}

	m.HandlePresence([]byte(`{"detected": true}`))
	m.HandleWeight([]byte(`{"weight": -1.5}`))
	m.HandlePresence([]byte(`{"detected": false}`))

	if len(disp.decisions) != 0 {
		t.Fatalf("expected no dispatch for negative weight, got %d", len(disp.decisions))
	}
}

// #endregion full-cycle

// #region carry-over

func TestCarriedWeightUsedForNextCycle(t *testing.T) {
	m, disp, rec, _ := newTestMachine(nil)

	// First cycle with a fresh reading.
	m.HandlePresence([]byte(`{"detected": true}`))
	m.HandleWeight([]byte(`{"weight": 2.0}`))
	m.HandlePresence([]byte(`{"detected": false}`))

	// Second cycle gets no reading; the carried weight decides.
	m.HandlePresence([]byte(`{"detected": true}`))
	m.HandlePresence([]byte(`{"detected": false}`))

	if len(disp.decisions) != 2 {
		t.Fatalf("expected two dispatches, got %d", len(disp.decisions))
	}
	if rec.entries[1].weight != 2.0 {
		t.Fatalf("expected carried weight 2.0, got %v", rec.entries[1].weight)
	}
}

// #endregion carry-over

// #region idempotency

func TestRepeatedDetectedIsIdempotent(t *testing.T) {
	g := &fakeGate{enabled: true}
	m, disp, _, _ := newTestMachine(g)

	m.HandlePresence([]byte(`{"detected": true}`))
	m.HandlePresence([]byte(`{"detected": true}`))
	m.HandlePresence([]byte(`{"detected": true}`))

	if g.starts != 1 {
		t.Fatalf("re-asserted presence must not re-trigger inference: %d starts", g.starts)
	}

	m.HandleWeight([]byte(`{"weight": 1.0}`))
	m.HandlePresence([]byte(`{"detected": false}`))
	if len(disp.decisions) != 1 {
		t.Fatalf("expected one decision for the cycle, got %d", len(disp.decisions))
	}
}

func TestClearedWhileIdleDoesNothing(t *testing.T) {
	m, disp, rec, proj := newTestMachine(nil)

	m.HandleWeight([]byte(`{"weight": 5.0}`))
	m.HandlePresence([]byte(`{"detected": false}`))

	if len(disp.decisions) != 0 || len(rec.entries) != 0 {
		t.Fatal("clear without a prior detection must not decide")
	}
	if proj.Get().Detected {
		t.Fatal("detected must be false")
	}
}

// #endregion idempotency

// #region ai-trigger

func TestInferenceTriggeredOnlyWhenEnabled(t *testing.T) {
	g := &fakeGate{enabled: false}
	m, _, _, _ := newTestMachine(g)

	m.HandlePresence([]byte(`{"detected": true}`))
	if g.starts != 0 {
		t.Fatalf("disabled gate must not start, got %d starts", g.starts)
	}

	m.HandlePresence([]byte(`{"detected": false}`))
	g.enabled = true
	m.HandlePresence([]byte(`{"detected": true}`))
	if g.starts != 1 {
		t.Fatalf("enabled gate must start once per detection, got %d starts", g.starts)
	}
}

// #endregion ai-trigger

// #region projection-updates

func TestDetectionRefreshesImageAndProjection(t *testing.T) {
	m, _, _, proj := newTestMachine(nil)
	before := proj.ImageURL()

	m.HandlePresence([]byte(`{"detected": true}`))

	s := proj.Get()
	if !s.Detected {
		t.Fatal("projection must mirror presenceActive")
	}
	if s.ImageURL == before {
		t.Fatal("image URL must be refreshed on detection")
	}
}

func TestWeightUpdatesProjectionInAnyState(t *testing.T) {
	m, _, _, proj := newTestMachine(nil)

	m.HandleWeight([]byte(`{"weight": 7.7}`))
	if proj.Get().Weight != 7.7 {
		t.Fatalf("expected projected weight 7.7, got %v", proj.Get().Weight)
	}

	m.HandlePresence([]byte(`{"detected": true}`))
	m.HandleWeight([]byte(`{"weight": 8.8}`))
	if proj.Get().Weight != 8.8 {
		t.Fatalf("expected projected weight 8.8, got %v", proj.Get().Weight)
	}
}

// #endregion projection-updates

// #region malformed

func TestMalformedPayloadsAreDiscarded(t *testing.T) {
	m, disp, rec, proj := newTestMachine(nil)

	m.HandlePresence([]byte(`{"detected": "yes"}`))
	m.HandleWeight([]byte(`{"weight": "12kg"}`))
	m.HandlePresence([]byte(`not json`))
	m.HandleWeight([]byte(``))

	s := proj.Get()
	if s.Detected || s.Weight != 0 || s.UpdatedAt != 0 {
		t.Fatalf("malformed payloads mutated state: %+v", s)
	}
	if len(disp.decisions) != 0 || len(rec.entries) != 0 {
		t.Fatal("malformed payloads must not produce side effects")
	}

	// Machine still functions afterwards.
	m.HandlePresence([]byte(`{"detected": true}`))
	m.HandleWeight([]byte(`{"weight": 1.0}`))
	m.HandlePresence([]byte(`{"detected": false}`))
	if len(disp.decisions) != 1 {
		t.Fatalf("machine must keep working after bad input, got %d dispatches", len(disp.decisions))
	}
}

// #endregion malformed
