package replay

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFixture(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestLoadFixture(t *testing.T) {
	path := writeFixture(t, `{
		"description": "one accepted item",
		"events": [
			{"topic": "presence", "payload": {"detected": true}},
			{"topic": "weight", "payload": {"weight": 3.2}},
			{"topic": "presence", "payload": {"detected": false}}
		],
		"expected": [{"action": "ACCEPT", "weight": 3.2}]
	}`)

	f, err := LoadFixture(path)
	if err != nil {
		t.Fatalf("load fixture: %v", err)
	}
	if len(f.Events) != 3 || len(f.Expected) != 1 {
		t.Fatalf("unexpected fixture: %+v", f)
	}
	if f.Expected[0].Action != "ACCEPT" {
		t.Fatalf("unexpected expected outcome: %+v", f.Expected[0])
	}
}

func TestLoadFixtureEndToEnd(t *testing.T) {
	path := writeFixture(t, `{
		"events": [
			{"topic": "presence", "payload": {"detected": true}},
			{"topic": "weight", "payload": {"weight": 1.5}},
			{"topic": "presence", "payload": {"detected": false}}
		],
		"expected": [{"action": "ACCEPT", "weight": 1.5}]
	}`)

	f, err := LoadFixture(path)
	if err != nil {
		t.Fatalf("load fixture: %v", err)
	}

	outcomes, _ := Replay(f.Events)
	if len(outcomes) != len(f.Expected) {
		t.Fatalf("expected %d decisions, got %d", len(f.Expected), len(outcomes))
	}
	if outcomes[0].Action != f.Expected[0].Action || outcomes[0].Weight != f.Expected[0].Weight {
		t.Fatalf("replay diverged: expected %+v, got %+v", f.Expected[0], outcomes[0])
	}
}

func TestLoadFixtureRejectsUnknownTopic(t *testing.T) {
	path := writeFixture(t, `{
		"events": [{"topic": "temperature", "payload": {"celsius": 20}}]
	}`)

	if _, err := LoadFixture(path); err == nil {
		t.Fatal("expected error for unknown topic")
	}
}

func TestLoadFixtureMissingFile(t *testing.T) {
	if _, err := LoadFixture(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadFixtureBadJSON(t *testing.T) {
	path := writeFixture(t, `{"events": [`)
	if _, err := LoadFixture(path); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}
