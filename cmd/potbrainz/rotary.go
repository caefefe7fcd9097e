package main

import (
	"sync"
	"time"
)

// rotaryState tracks recent encoder activity for velocity detection.
// This allows us to detect "fast spinning" and scale the step size accordingly.
type rotaryState struct {
	recentSteps []rotaryStep
	mu          sync.Mutex
}

// rotaryStep records a single encoder detent/step
type rotaryStep struct {
	timestamp time.Time
	direction int // +1 clockwise, -1 counter-clockwise
}

func newRotaryState() *rotaryState {
	return &rotaryState{
		recentSteps: make([]rotaryStep, 0, 16),
	}
}

// addStep records a step now. See addStepAt.
func (r *rotaryState) addStep(direction int, windowMS int) int {
	return r.addStepAt(direction, windowMS, time.Now())
}

// addStepAt records a new encoder step at now and returns the count of recent
// steps in the same direction within the velocity window (including this one).
func (r *rotaryState) addStepAt(direction int, windowMS int, now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := now.Add(-time.Duration(windowMS) * time.Millisecond)

	// Remove old steps outside the velocity window
	filtered := r.recentSteps[:0] // reuse underlying array
	for _, s := range r.recentSteps {
		if s.timestamp.After(cutoff) {
			filtered = append(filtered, s)
		}
	}

	filtered = append(filtered, rotaryStep{
		timestamp: now,
		direction: direction,
	})
	r.recentSteps = filtered

	sameDir := 0
	for _, s := range filtered {
		if s.direction == direction {
			sameDir++
		}
	}

	return sameDir
}

// rotaryValueDelta converts encoder steps into a value change. Once
// sameDirCount reaches the velocity threshold, the step size is multiplied.
func rotaryValueDelta(steps int, sameDirCount int, cfg RotaryConfig) float64 {
	delta := float64(steps) * cfg.ValuePerStep
	if cfg.VelocityThreshold > 0 && sameDirCount >= cfg.VelocityThreshold {
		delta *= cfg.VelocityMultiplier
	}
	return delta
}
