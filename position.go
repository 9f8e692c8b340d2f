package main

import (
	"time"
)

// PositionTracker derives the playback position from wall-clock time.
// The external player gives no position feedback, so elapsed time is
// now - startedAt while running and the stored offset while paused.
type PositionTracker struct {
	length    float64   // Track length in seconds (0 if unknown)
	startedAt time.Time // Wall-clock instant that corresponds to position 0
	offset    float64   // Position while paused, in seconds
	running   bool

	now func() time.Time
}

// NewPositionTracker returns a tracker using the given clock (time.Now if nil)
func NewPositionTracker(now func() time.Time) *PositionTracker {
	if now == nil {
		now = time.Now
	}
	return &PositionTracker{now: now}
}

// clamp keeps a position inside [0, length]
func (t *PositionTracker) clamp(pos float64) float64 {
	if pos < 0 || pos != pos {
		return 0
	}
	if pos > t.length {
		return t.length
	}
	return pos
}

// Reset prepares the tracker for a new track
func (t *PositionTracker) Reset(length float64) {
	if length < 0 || length != length {
		length = 0
	}
	t.length = length
	t.offset = 0
	t.running = false
	t.startedAt = time.Time{}
}

// Start marks playback as running from the given offset
func (t *PositionTracker) Start(offset float64) {
	t.offset = t.clamp(offset)
	t.startedAt = t.now().Add(-secondsToDuration(t.offset))
	t.running = true
}

// Pause freezes the position and returns it
func (t *PositionTracker) Pause() float64 {
	if t.running {
		t.offset = t.clamp(t.now().Sub(t.startedAt).Seconds())
		t.running = false
	}
	return t.offset
}

// Seek moves the position, keeping the running state
func (t *PositionTracker) Seek(pos float64) float64 {
	t.offset = t.clamp(pos)
	if t.running {
		t.startedAt = t.now().Add(-secondsToDuration(t.offset))
	}
	return t.offset
}

// Finish pins the position to the end of the track
func (t *PositionTracker) Finish() {
	t.offset = t.length
	t.running = false
}

// Elapsed returns the current position in seconds, never above the length
func (t *PositionTracker) Elapsed() float64 {
	if !t.running {
		return t.clamp(t.offset)
	}
	return t.clamp(t.now().Sub(t.startedAt).Seconds())
}

// Progress returns the position as a fraction of the length
func (t *PositionTracker) Progress() float64 {
	if t.length <= 0 {
		return 0
	}
	return t.Elapsed() / t.length
}

func (t *PositionTracker) Length() float64 { return t.length }
func (t *PositionTracker) Running() bool   { return t.running }

// AtEnd reports whether a paused position sits at the end of the track
func (t *PositionTracker) AtEnd() bool {
	return !t.running && t.length > 0 && t.offset >= t.length
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
