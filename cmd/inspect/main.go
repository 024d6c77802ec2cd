package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/tdnguyen/sorting-station/controller/internal/journal"
	_ "modernc.org/sqlite"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to transactions.db")
	last := flag.Int("last", 20, "show N most recent transactions")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/transactions.db [--last N] [--json]")
		os.Exit(2)
	}

	jnl, err := journal.Open(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer jnl.Close()

	entries, err := jnl.List(*last)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if len(entries) == 0 {
		fmt.Fprintln(os.Stderr, "no transactions found")
		return
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(entries); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}
	printTable(entries)
}

// #endregion main

// #region output

func printTable(entries []journal.Entry) {
	fmt.Printf("%-36s  %-8s  %8s  %-7s  %-20s  %s\n",
		"Txn", "Decision", "Weight", "Source", "Time", "Reason")
	fmt.Printf("%-36s+-%-8s+-%8s+-%-7s+-%-20s+-%s\n",
		"------------------------------------", "--------", "--------", "-------",
		"--------------------", "--------------------")

	// List returns newest first; print chronologically.
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		fmt.Printf("%-36s  %-8s  %8.2f  %-7s  %-20s  %s\n",
			e.TxnID, e.Decision, e.Weight, e.Source,
			e.CreatedAt.Format("2006-01-02T15:04:05Z"), e.Reason)
	}
}

// #endregion output
