// Package httpapi serves the front-end boundary: the live status snapshot,
// the AI enable toggle, the manual decision override, and the recorded
// transaction history.
package httpapi

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/rs/cors"

	"github.com/tdnguyen/sorting-station/controller/internal/dispatch"
	"github.com/tdnguyen/sorting-station/controller/internal/journal"
	"github.com/tdnguyen/sorting-station/controller/internal/projection"
	"github.com/tdnguyen/sorting-station/controller/internal/station"
)

// #region server

// AIControl is the gate surface the config endpoint needs.
type AIControl interface {
	SetEnabled(enabled bool)
	Enabled() bool
}

// TxnLister reads back recorded transactions.
type TxnLister interface {
	List(last int) ([]journal.Entry, error)
}

// Server holds the handler dependencies.
type Server struct {
	proj       *projection.Projection
	ai         AIControl
	dispatcher station.Dispatcher
	recorder   station.Recorder
	txns       TxnLister
}

// New creates the HTTP boundary. txns may be nil to disable the history
// endpoint.
func New(proj *projection.Projection, ai AIControl, dispatcher station.Dispatcher, recorder station.Recorder, txns TxnLister) *Server {
	return &Server{proj: proj, ai: ai, dispatcher: dispatcher, recorder: recorder, txns: txns}
}

// Handler returns the routed handler with CORS applied; the status surface is
// consumed by a browser front-end on another origin.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("POST /config/ai", s.handleConfigAI)
	mux.HandleFunc("POST /decision", s.handleDecision)
	if s.txns != nil {
		mux.HandleFunc("GET /transactions", s.handleTransactions)
	}
	return cors.Default().Handler(mux)
}

// #endregion server

// #region status

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.proj.Get())
}

// #endregion status

// #region config-ai

func (s *Server) handleConfigAI(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Enabled *bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Enabled == nil {
		writeError(w, http.StatusBadRequest, "body must be {\"enabled\": bool}")
		return
	}

	s.ai.SetEnabled(*body.Enabled)
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":        true,
		"aiEnabled": s.ai.Enabled(),
	})
}

// #endregion config-ai

// #region decision

// handleDecision is the manual override: it bypasses the state machine
// entirely, dispatching and recording with the currently projected weight.
func (s *Server) handleDecision(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Decision string `json:"decision"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	dec, err := dispatch.ParseDecision(body.Decision)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.dispatcher.Dispatch(dec)
	s.recorder.Record(dec, s.proj.Weight(), "manual", "operator override")
	log.Printf("[HTTP] manual decision sent: %s", dec)

	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// #endregion decision

// #region transactions

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	last := 20
	if v := r.URL.Query().Get("last"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "last must be a positive integer")
			return
		}
		last = n
	}

	entries, err := s.txns.List(last)
	if err != nil {
		log.Printf("[HTTP] list transactions: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to read transactions")
		return
	}
	if entries == nil {
		entries = []journal.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// #endregion transactions

// #region helpers

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[HTTP] encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"ok": false, "error": msg})
}

// #endregion helpers
