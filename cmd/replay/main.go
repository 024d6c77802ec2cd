package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tdnguyen/sorting-station/controller/internal/replay"
)

// #region main

func main() {
	fixturePath := flag.String("fixture", "", "path to fixture JSON")
	flag.Parse()

	if *fixturePath == "" {
		fmt.Fprintln(os.Stderr, "usage: replay --fixture path/to/fixture.json")
		os.Exit(2)
	}

	f, err := replay.LoadFixture(*fixturePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load fixture: %v\n", err)
		os.Exit(2)
	}

	if f.Description != "" {
		fmt.Printf("Fixture: %s\n\n", f.Description)
	}

	outcomes, summary := replay.Replay(f.Events)
	os.Exit(printComparison(outcomes, f.Expected, summary))
}

// #endregion main

// #region output

// printComparison outputs a comparison table and returns the exit code
// (0 when every expected decision matched, 1 otherwise).
func printComparison(outcomes []replay.Outcome, expected []replay.ExpectedOutcome, summary replay.Summary) int {
	fmt.Printf("%-6s| %-18s| %-18s| %s\n", "#", "Expected", "Replayed", "Match")
	fmt.Printf("%-6s+%-19s+%-19s+%s\n", "------", "-------------------", "-------------------", "------")

	total := len(expected)
	if len(outcomes) > total {
		total = len(outcomes)
	}

	matches := 0
	for i := 0; i < total; i++ {
		exp, got := "-", "-"
		if i < len(expected) {
			exp = fmt.Sprintf("%s w=%.2f", expected[i].Action, expected[i].Weight)
		}
		if i < len(outcomes) {
			got = fmt.Sprintf("%s w=%.2f", outcomes[i].Action, outcomes[i].Weight)
		}

		match := "DIFF"
		if i < len(expected) && i < len(outcomes) &&
			expected[i].Action == outcomes[i].Action &&
			expected[i].Weight == outcomes[i].Weight {
			match = "OK"
			matches++
		}
		fmt.Printf("%-6d| %-18s| %-18s| %s\n", i+1, exp, got, match)
	}

	diverge := total - matches
	fmt.Printf("\nSummary: %d events, %d decisions, %d match, %d diverge\n",
		summary.TotalEvents, summary.Decisions, matches, diverge)

	if diverge > 0 {
		return 1
	}
	return 0
}

// #endregion output
