// Package gate guards the AI inference path. At most one inference runs
// system-wide at any instant; duplicate start requests are dropped, not
// queued. The running flag is released on a single deferred exit path so a
// failure at any stage can never leave the gate locked.
package gate

import (
	"context"
	"encoding/json"
	"log"
	"sync/atomic"
	"time"

	"github.com/tdnguyen/sorting-station/controller/internal/projection"
)

// #region types

// Pipeline is the external image path the gate drives: fetch the captured
// frame, optionally strip its background, classify it.
type Pipeline interface {
	FetchImage(ctx context.Context, url string) ([]byte, error)
	RemoveBackground(ctx context.Context, img []byte) ([]byte, error)
	RemovesBackground() bool
	Classify(ctx context.Context, img []byte) (json.RawMessage, error)
}

// GateConfig holds the timing knobs for an inference attempt.
type GateConfig struct {
	// GraceWait is how long to wait before fetching, giving the station's
	// camera upload time to land at the image URL.
	GraceWait time.Duration
	// Timeout bounds one whole attempt (fetch + removal + classify).
	Timeout time.Duration
}

// DefaultGateConfig returns the production timing.
func DefaultGateConfig() GateConfig {
	return GateConfig{
		GraceWait: 300 * time.Millisecond,
		Timeout:   30 * time.Second,
	}
}

// #endregion types

// #region gate

// Gate is the single-flight wrapper around the inference pipeline.
type Gate struct {
	running  atomic.Bool
	pipeline Pipeline
	proj     *projection.Projection
	config   GateConfig
}

// NewGate creates a gate writing results into proj.
func NewGate(pipeline Pipeline, proj *projection.Projection, config GateConfig) *Gate {
	return &Gate{pipeline: pipeline, proj: proj, config: config}
}

// Running reports whether an inference is currently in flight.
func (g *Gate) Running() bool {
	return g.running.Load()
}

// Enabled reports the operator toggle.
func (g *Gate) Enabled() bool {
	return g.proj.AIEnabled()
}

// #endregion gate

// #region start

// TryStart begins one inference in the background if none is in flight.
// Returns false (and does nothing) when one already is.
func (g *Gate) TryStart() bool {
	if !g.running.CompareAndSwap(false, true) {
		log.Printf("[GATE] inference already running, skipping")
		return false
	}
	go func() {
		defer g.running.Store(false)
		g.run()
	}()
	return true
}

// SetEnabled toggles the inference path. Disabling clears the displayed
// result; enabling fires one immediate attempt against whatever image is
// currently referenced (dropped silently if one is already in flight).
func (g *Gate) SetEnabled(enabled bool) {
	g.proj.SetAIEnabled(enabled)
	if !enabled {
		g.proj.ClearAIResult()
		return
	}
	g.TryStart()
}

// #endregion start

// #region run

// run performs one inference attempt. Any failure is logged and leaves the
// last good result in place.
func (g *Gate) run() {
	time.Sleep(g.config.GraceWait)

	ctx, cancel := context.WithTimeout(context.Background(), g.config.Timeout)
	defer cancel()

	url := g.proj.ImageURL()
	log.Printf("[GATE] running inference on %s", url)

	img, err := g.pipeline.FetchImage(ctx, url)
	if err != nil {
		log.Printf("[GATE] inference failed: %v", err)
		return
	}

	if g.pipeline.RemovesBackground() {
		processed, err := g.pipeline.RemoveBackground(ctx, img)
		if err != nil {
			log.Printf("[GATE] inference failed: %v", err)
			return
		}
		img = processed
	}

	result, err := g.pipeline.Classify(ctx, img)
	if err != nil {
		log.Printf("[GATE] inference failed: %v", err)
		return
	}

	g.proj.SetAIResult(result)
	log.Printf("[GATE] inference completed (%d bytes)", len(result))
}

// #endregion run
