package replay

import (
	"encoding/json"
	"fmt"
	"os"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture: a recorded
// sensor event sequence plus the decisions it is expected to produce.
type Fixture struct {
	Description string            `json:"description"`
	Events      []FixtureEvent    `json:"events"`
	Expected    []ExpectedOutcome `json:"expected"`
}

// FixtureEvent is one recorded sensor message. Topic is "presence" or
// "weight"; Payload is the raw JSON the transport delivered.
type FixtureEvent struct {
	Topic   string          `json:"topic"`
	Payload json.RawMessage `json:"payload"`
}

// ExpectedOutcome is one expected dispatched decision, in order.
type ExpectedOutcome struct {
	Action string  `json:"action"`
	Weight float64 `json:"weight"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	for i, ev := range f.Events {
		if ev.Topic != "presence" && ev.Topic != "weight" {
			return nil, fmt.Errorf("fixture %s: event %d has unknown topic %q", path, i, ev.Topic)
		}
	}
	return &f, nil
}

// #endregion fixture-loader
