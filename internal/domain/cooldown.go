package domain

import "time"

// SpeedMode is the trade-speed regime derived from the rolling hit rate.
type SpeedMode string

const (
	SpeedModeSlow   SpeedMode = "SLOW"
	SpeedModeNormal SpeedMode = "NORMAL"
	SpeedModeFast   SpeedMode = "FAST"
)

// Cooldown durations per speed mode. Fixed thresholds, no hysteresis.
const (
	CooldownSlow   = 120 * time.Second
	CooldownNormal = 60 * time.Second
	CooldownFast   = 15 * time.Second
)

// CooldownFor maps a speed mode to its minimum inter-trade delay.
func CooldownFor(mode SpeedMode) time.Duration {
	switch mode {
	case SpeedModeFast:
		return CooldownFast
	case SpeedModeNormal:
		return CooldownNormal
	default:
		return CooldownSlow
	}
}

// ModeTransition is one entry in the controller's immutable transition log.
type ModeTransition struct {
	At      time.Time
	From    SpeedMode
	To      SpeedMode
	HitRate float64
	Reason  string
}
