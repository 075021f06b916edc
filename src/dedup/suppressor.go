package dedup

import (
	"fmt"
	"strings"
	"sync"

	logger "github.com/sirupsen/logrus"
)

// DefaultCapacity bounds the suppressor's in-memory map. Eviction above
// the cap is memory hygiene, not a correctness guarantee.
const DefaultCapacity = 2000

// Entry tracks the last non-suppressed fire for one dedup key.
type Entry struct {
	LastFiredAtMs  int64
	LastConfidence float64
}

// Verdict is the suppressor's answer for one candidate alert.
type Verdict struct {
	Suppress bool
	Reason   string
}

// Suppressor prevents alert storms by suppressing repeat signals for the
// same (strategy, symbol, direction) inside a time window, unless their
// confidence improved enough to re-alert. It is an explicit injectable
// object so tests and services construct isolated instances.
type Suppressor struct {
	mu       sync.Mutex
	entries  map[string]Entry
	capacity int
}

// NewSuppressor creates a suppressor bounded to capacity keys. A
// non-positive capacity falls back to DefaultCapacity.
func NewSuppressor(capacity int) *Suppressor {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Suppressor{
		entries:  make(map[string]Entry),
		capacity: capacity,
	}
}

// Key builds the dedup key. The symbol is upper-cased here; strategyID is
// taken verbatim, so callers must be consistent about its casing.
func Key(strategyID, symbol, direction string) string {
	return strategyID + strings.ToUpper(symbol) + direction
}

// ShouldSuppress decides whether a signal for key firing at nowMs should
// be swallowed. windowMinutes <= 0 disables suppression entirely. A
// previous fire dated in the future (elapsed < 0) is treated as clock
// skew and does not suppress. Inside the window the signal still fires
// when confidence >= lastConfidence + minConfidenceDelta.
//
// Callers must call RecordFire after actually emitting a non-suppressed
// alert; ShouldSuppress itself never mutates state.
func (d *Suppressor) ShouldSuppress(key string, nowMs int64, windowMinutes int, minConfidenceDelta, confidence float64) Verdict {
	if windowMinutes <= 0 {
		return Verdict{}
	}

	d.mu.Lock()
	entry, ok := d.entries[key]
	d.mu.Unlock()

	if !ok {
		return Verdict{}
	}

	elapsed := nowMs - entry.LastFiredAtMs
	windowMs := int64(windowMinutes) * 60 * 1000
	if elapsed < 0 || elapsed >= windowMs {
		return Verdict{}
	}

	if confidence >= entry.LastConfidence+minConfidenceDelta {
		logger.WithFields(map[string]interface{}{
			"key":             key,
			"confidence":      confidence,
			"last_confidence": entry.LastConfidence,
		}).Debug("confidence improved enough, re-alerting inside window")
		return Verdict{}
	}

	return Verdict{
		Suppress: true,
		Reason: fmt.Sprintf("fired %dms ago within %dm window, confidence %.1f < %.1f",
			elapsed, windowMinutes, confidence, entry.LastConfidence+minConfidenceDelta),
	}
}

// RecordFire updates the last-fire state for key. Call it only for
// signals that actually went out.
func (d *Suppressor) RecordFire(key string, nowMs int64, confidence float64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.entries[key] = Entry{LastFiredAtMs: nowMs, LastConfidence: confidence}
	d.evictLocked()
}

// Len reports the current number of tracked keys.
func (d *Suppressor) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.entries)
}

// evictLocked drops strictly-oldest entries until the map fits the cap.
func (d *Suppressor) evictLocked() {
	for len(d.entries) > d.capacity {
		oldestKey := ""
		oldestMs := int64(0)
		first := true
		for k, e := range d.entries {
			if first || e.LastFiredAtMs < oldestMs {
				oldestKey = k
				oldestMs = e.LastFiredAtMs
				first = false
			}
		}
		delete(d.entries, oldestKey)
	}
}
