// Package cooldown adjusts trade pacing from the recent hit rate.
//
// The controller keeps a rolling window of trade outcomes and maps the
// window's hit rate onto a speed mode with a fixed cooldown per mode:
//
//	hit rate < 95%          -> SLOW   (120s)
//	95% <= hit rate <= 98%  -> NORMAL (60s)
//	hit rate > 98%          -> FAST   (15s)
//
// Thresholds are fixed and have no hysteresis. The mode only moves once the
// window holds a minimum number of samples; before that the controller stays
// in its starting mode.
package cooldown

import (
	"fmt"
	"sync"
	"time"

	"scalp-engine/internal/domain"
)

const (
	// WindowMaxSize caps the rolling window by count.
	WindowMaxSize = 50

	// WindowMaxAge caps the rolling window by age.
	WindowMaxAge = 24 * time.Hour

	// MinSamples is the number of outcomes required before the mode may move.
	MinSamples = 10

	slowThreshold = 0.95
	fastThreshold = 0.98
)

type outcome struct {
	at    time.Time
	isWin bool
}

// Controller tracks the rolling outcome window and the current speed mode.
// Safe for concurrent use.
type Controller struct {
	mu sync.Mutex

	window        []outcome
	mode          domain.SpeedMode
	lastOutcomeAt time.Time
	history       []domain.ModeTransition

	now func() time.Time
}

// Options configures a Controller.
type Options struct {
	// InitialMode is the mode before enough samples exist. Defaults to NORMAL.
	InitialMode domain.SpeedMode

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// New creates a Controller.
func New(opts Options) *Controller {
	mode := opts.InitialMode
	if mode == "" {
		mode = domain.SpeedModeNormal
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Controller{
		mode: mode,
		now:  now,
	}
}

// RecordOutcome appends a trade outcome to the window, prunes it, and
// recomputes the speed mode. The timing anchor for CanAttempt moves to the
// outcome's completion time.
func (c *Controller) RecordOutcome(rec *domain.TradeRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()

	at := rec.Timestamp
	if at.IsZero() {
		at = c.now()
	}

	c.window = append(c.window, outcome{at: at, isWin: rec.IsWin})
	c.prune(c.now())
	c.lastOutcomeAt = at
	c.recompute(at)
}

// CanAttempt reports whether the current mode's cooldown has elapsed since
// the last recorded outcome. Always true before the first outcome.
func (c *Controller) CanAttempt() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.lastOutcomeAt.IsZero() {
		return true
	}
	return c.now().Sub(c.lastOutcomeAt) >= domain.CooldownFor(c.mode)
}

// HitRate returns the window's hit rate, 0 when the window is empty.
func (c *Controller) HitRate() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prune(c.now())
	return hitRate(c.window)
}

// SpeedMode returns the current mode.
func (c *Controller) SpeedMode() domain.SpeedMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Cooldown returns the current mode's inter-trade delay.
func (c *Controller) Cooldown() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.CooldownFor(c.mode)
}

// WindowSize returns the number of outcomes currently in the window.
func (c *Controller) WindowSize() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prune(c.now())
	return len(c.window)
}

// History returns a copy of the mode transition log, oldest first.
func (c *Controller) History() []domain.ModeTransition {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]domain.ModeTransition, len(c.history))
	copy(out, c.history)
	return out
}

// ResetTiming clears the cooldown anchor so the next attempt is immediately
// eligible. The window, mode, and history are untouched; an emergency stop
// must not launder a bad hit rate.
func (c *Controller) ResetTiming() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastOutcomeAt = time.Time{}
}

// prune drops outcomes beyond the size cap or older than the age cap.
// Caller must hold c.mu.
func (c *Controller) prune(now time.Time) {
	cutoff := now.Add(-WindowMaxAge)
	start := 0
	for start < len(c.window) && c.window[start].at.Before(cutoff) {
		start++
	}
	if over := len(c.window) - start - WindowMaxSize; over > 0 {
		start += over
	}
	if start > 0 {
		c.window = append([]outcome(nil), c.window[start:]...)
	}
}

// recompute re-derives the mode from the pruned window.
// Caller must hold c.mu.
func (c *Controller) recompute(at time.Time) {
	if len(c.window) < MinSamples {
		return
	}

	rate := hitRate(c.window)
	next := ModeForHitRate(rate)
	if next == c.mode {
		return
	}

	c.history = append(c.history, domain.ModeTransition{
		At:      at,
		From:    c.mode,
		To:      next,
		HitRate: rate,
		Reason:  fmt.Sprintf("hit rate %.2f%% over %d trades", rate*100, len(c.window)),
	})
	c.mode = next
}

// ModeForHitRate maps a hit rate onto a speed mode.
func ModeForHitRate(rate float64) domain.SpeedMode {
	switch {
	case rate > fastThreshold:
		return domain.SpeedModeFast
	case rate < slowThreshold:
		return domain.SpeedModeSlow
	default:
		return domain.SpeedModeNormal
	}
}

func hitRate(window []outcome) float64 {
	if len(window) == 0 {
		return 0
	}
	wins := 0
	for _, o := range window {
		if o.isWin {
			wins++
		}
	}
	return float64(wins) / float64(len(window))
}
