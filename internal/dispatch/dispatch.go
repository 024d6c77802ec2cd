// Package dispatch formats and emits the outbound actuation commands for a
// decision: one status command (audio cue on the station side) and one LCD
// display text. Stateless; delivery assurance is the transport's QoS 1.
package dispatch

import (
	"encoding/json"
	"fmt"
	"log"
)

// #region decision

// Decision is the accept/reject token carried on the status-command topic.
type Decision string

const (
	DecisionAccept Decision = "ACCEPT"
	DecisionReject Decision = "REJECT"
)

// ParseDecision validates a decision token from an external caller.
func ParseDecision(s string) (Decision, error) {
	switch Decision(s) {
	case DecisionAccept, DecisionReject:
		return Decision(s), nil
	}
	return "", fmt.Errorf("invalid decision %q", s)
}

// #endregion decision

// #region payloads

type statusPayload struct {
	Action Decision `json:"action"`
}

type displayPayload struct {
	Line1 string `json:"line1"`
	Line2 string `json:"line2"`
}

// displayFor maps a decision to the fixed LCD text.
func displayFor(d Decision) displayPayload {
	if d == DecisionAccept {
		return displayPayload{Line1: "Accepted", Line2: ""}
	}
	return displayPayload{Line1: "Rejected", Line2: "Prohibited"}
}

// #endregion payloads

// #region dispatcher

// Publisher sends a payload to a topic on the actuation transport.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// Dispatcher emits the status and display commands for a decision.
type Dispatcher struct {
	pub          Publisher
	statusTopic  string
	displayTopic string
}

// New creates a dispatcher bound to the two actuation topics.
func New(pub Publisher, statusTopic, displayTopic string) *Dispatcher {
	return &Dispatcher{pub: pub, statusTopic: statusTopic, displayTopic: displayTopic}
}

// Dispatch publishes the status command and the LCD text for the decision.
// Publish failures are logged; no acknowledgment is awaited.
func (d *Dispatcher) Dispatch(dec Decision) {
	status, _ := json.Marshal(statusPayload{Action: dec})
	if err := d.pub.Publish(d.statusTopic, status); err != nil {
		log.Printf("[DISPATCH] publish status command: %v", err)
	}

	display, _ := json.Marshal(displayFor(dec))
	if err := d.pub.Publish(d.displayTopic, display); err != nil {
		log.Printf("[DISPATCH] publish display text: %v", err)
	}
}

// #endregion dispatcher
