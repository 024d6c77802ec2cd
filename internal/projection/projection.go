package projection

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// #region types

// Snapshot is the read-side view served to the front-end. Field naming
// matches the JSON the status endpoint returns.
type Snapshot struct {
	Weight    float64         `json:"weight"`
	Detected  bool            `json:"detected"`
	ImageURL  string          `json:"imageUrl"`
	AIResult  json.RawMessage `json:"aiResult"`
	UpdatedAt int64           `json:"updatedAt,omitempty"`
	AIEnabled bool            `json:"aiEnabled"`
}

// #endregion types

// #region projection

// Projection holds the live station status plus the AI session flags.
// The station machine writes weight/detected/imageUrl, the inference gate
// writes aiResult, and the HTTP boundary toggles aiEnabled; a mutex keeps
// those writers safe against concurrent snapshot reads.
type Projection struct {
	mu        sync.Mutex
	weight    float64
	detected  bool
	imageURL  string
	aiResult  json.RawMessage
	updatedAt time.Time
	aiEnabled bool

	imageBaseURL string
}

// New creates a projection whose image URL starts at the bare base URL,
// before any cache-busting token has been applied.
func New(imageBaseURL string) *Projection {
	return &Projection{
		imageBaseURL: imageBaseURL,
		imageURL:     imageBaseURL,
	}
}

// #endregion projection

// #region writers

// SetWeight records the latest scale reading and refreshes updatedAt.
func (p *Projection) SetWeight(w float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.weight = w
	p.updatedAt = time.Now().UTC()
}

// SetDetected marks an item as present in the detection zone. No timestamp
// refresh here; the matching ClearDetected carries it.
func (p *Projection) SetDetected() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.detected = true
}

// ClearDetected marks the detection zone as empty and refreshes updatedAt.
func (p *Projection) ClearDetected() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.detected = false
	p.updatedAt = time.Now().UTC()
}

// RefreshImage stamps the image URL with a cache-busting token. Called once
// per presence-detected transition so the front-end and the inference gate
// both see the freshly captured frame rather than a cached one.
func (p *Projection) RefreshImage() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.imageURL = fmt.Sprintf("%s?t=%d", p.imageBaseURL, time.Now().UnixMilli())
}

// SetAIResult stores a successful classification payload and refreshes
// updatedAt. The payload is opaque and served back verbatim.
func (p *Projection) SetAIResult(result json.RawMessage) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.aiResult = result
	p.updatedAt = time.Now().UTC()
}

// ClearAIResult drops the stored classification payload.
func (p *Projection) ClearAIResult() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.aiResult = nil
}

// SetAIEnabled flips the operator toggle for the inference path.
func (p *Projection) SetAIEnabled(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.aiEnabled = enabled
}

// #endregion writers

// #region readers

// Weight returns the most recent scale reading (0 if none seen yet).
func (p *Projection) Weight() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.weight
}

// ImageURL returns the current stamped image URL.
func (p *Projection) ImageURL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.imageURL
}

// AIEnabled reports whether the operator has enabled the inference path.
func (p *Projection) AIEnabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.aiEnabled
}

// Get returns a point-in-time copy of all fields. The HTTP boundary
// serializes it verbatim.
func (p *Projection) Get() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := Snapshot{
		Weight:    p.weight,
		Detected:  p.detected,
		ImageURL:  p.imageURL,
		AIResult:  p.aiResult,
		AIEnabled: p.aiEnabled,
	}
	if !p.updatedAt.IsZero() {
		s.UpdatedAt = p.updatedAt.UnixMilli()
	}
	return s
}

// #endregion readers
