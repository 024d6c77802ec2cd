// Package sensor decodes the inbound sensor payloads. Decoding is strict:
// a payload that is not valid JSON, or whose field has the wrong type, is an
// error — never a partial event.
package sensor

import (
	"encoding/json"
	"fmt"
)

// #region types

// PresenceEvent is a decoded ultrasonic presence message.
type PresenceEvent struct {
	Detected bool
}

// WeightEvent is a decoded scale reading.
type WeightEvent struct {
	Weight float64
}

// #endregion types

// #region decode

// DecodePresence parses a `{"detected": bool}` payload. The field must be
// present and boolean; `"yes"` or a missing field is rejected.
func DecodePresence(data []byte) (PresenceEvent, error) {
	var raw struct {
		Detected *bool `json:"detected"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return PresenceEvent{}, fmt.Errorf("parse presence payload: %w", err)
	}
	if raw.Detected == nil {
		return PresenceEvent{}, fmt.Errorf("presence payload missing boolean 'detected': %s", data)
	}
	return PresenceEvent{Detected: *raw.Detected}, nil
}

// DecodeWeight parses a `{"weight": number}` payload. The field must be
// present and numeric; `"12kg"` or a missing field is rejected.
func DecodeWeight(data []byte) (WeightEvent, error) {
	var raw struct {
		Weight *float64 `json:"weight"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return WeightEvent{}, fmt.Errorf("parse weight payload: %w", err)
	}
	if raw.Weight == nil {
		return WeightEvent{}, fmt.Errorf("weight payload missing numeric 'weight': %s", data)
	}
	return WeightEvent{Weight: *raw.Weight}, nil
}

// #endregion decode
