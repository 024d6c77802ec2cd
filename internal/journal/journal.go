// Package journal records every accept/reject decision: an append-only row in
// a local SQLite journal, plus a best-effort POST to the external transaction
// endpoint. Neither write can fail the caller; errors are logged and dropped.
package journal

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/tdnguyen/sorting-station/controller/internal/dispatch"
)

// #region schema

const schema = `
CREATE TABLE IF NOT EXISTS transactions (
	txn_id      TEXT PRIMARY KEY,
	decision    TEXT NOT NULL,
	weight      REAL NOT NULL,
	source      TEXT NOT NULL,
	reason      TEXT,
	created_at  TEXT NOT NULL
);
`

// #endregion schema

// #region types

// Entry is one recorded decision.
type Entry struct {
	TxnID     string    `json:"txnId"`
	Decision  string    `json:"decision"`
	Weight    float64   `json:"weight"`
	Source    string    `json:"source"` // "auto" | "manual"
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// txnPayload is the body POSTed to the external persistence endpoint.
type txnPayload struct {
	Decision string  `json:"decision"`
	Weight   float64 `json:"weight"`
}

// #endregion types

// #region journal

// Journal persists decisions locally and forwards them to the external
// transaction endpoint when one is configured.
type Journal struct {
	db        *sql.DB
	remoteURL string
	client    *http.Client
}

// Open opens (creating if needed) the SQLite journal at path.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Journal{db: db, client: &http.Client{Timeout: 10 * time.Second}}, nil
}

// SetRemote configures the external transaction endpoint. An empty URL keeps
// recording local-only.
func (j *Journal) SetRemote(url string, client *http.Client) {
	j.remoteURL = url
	if client != nil {
		j.client = client
	}
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// DB exposes the handle for the inspect tool.
func (j *Journal) DB() *sql.DB {
	return j.db
}

// #endregion journal

// #region record

// Record appends the decision to the local journal and forwards it to the
// external endpoint. Best effort on both paths: failures are logged, never
// returned, never retried.
func (j *Journal) Record(dec dispatch.Decision, weight float64, source, reason string) {
	entry := Entry{
		TxnID:     uuid.NewString(),
		Decision:  string(dec),
		Weight:    weight,
		Source:    source,
		Reason:    reason,
		CreatedAt: time.Now().UTC(),
	}

	_, err := j.db.Exec(
		`INSERT INTO transactions (txn_id, decision, weight, source, reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.TxnID, entry.Decision, entry.Weight, entry.Source,
		nullIfEmpty(entry.Reason), entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		log.Printf("[TXN] journal insert failed: %v", err)
	}

	// Fire-and-forget: the caller (often the station machine mid-event) must
	// not block on the external endpoint.
	if j.remoteURL != "" {
		go j.postRemote(entry)
	}
}

// postRemote sends {decision, weight} to the external persistence endpoint.
func (j *Journal) postRemote(entry Entry) {
	body, _ := json.Marshal(txnPayload{Decision: entry.Decision, Weight: entry.Weight})
	resp, err := j.client.Post(j.remoteURL, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Printf("[TXN] remote record failed: %v", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		log.Printf("[TXN] remote record failed: status %d", resp.StatusCode)
	}
}

// #endregion record

// #region list

// List returns the most recent entries, newest first.
func (j *Journal) List(last int) ([]Entry, error) {
	rows, err := j.db.Query(
		`SELECT txn_id, decision, weight, source, reason, created_at
		 FROM transactions ORDER BY created_at DESC LIMIT ?`, last,
	)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var reason sql.NullString
		var ts string
		if err := rows.Scan(&e.TxnID, &e.Decision, &e.Weight, &e.Source, &reason, &ts); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if reason.Valid {
			e.Reason = reason.String
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, ts)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return entries, nil
}

// #endregion list

// #region helpers

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
