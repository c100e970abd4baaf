package chorus

import (
	"math"

	"github.com/cwbudde/algo-chorus/dsp/core"
)

const (
	defaultDelayMs  = 15.0
	defaultDepthMs  = 5.0
	defaultRateHz   = 0.5
	defaultFeedback = 0.0
	defaultWet      = 0.0
	defaultDry      = 1.0

	minDelayMs  = 0.1
	maxDelayMs  = 1000.0
	maxDepthMs  = 50.0
	minRateHz   = 0.01
	maxRateHz   = 20.0
	maxFeedback = 0.999
)

// Params is the per-sample parameter snapshot consumed by the engine.
//
// The host refreshes it once per sample with already-smoothed values; the
// engine has no knowledge of how parameters are automated or displayed.
// Out-of-range values are clamped numerically rather than rejected, since
// the snapshot is applied on the audio hot path.
type Params struct {
	DelayMs  float64 // base delay length in milliseconds
	DepthMs  float64 // modulation depth in milliseconds, before the half-delay clamp
	RateHz   float64 // LFO frequency
	Feedback float64 // feedback gain, kept < 1 for stability
	Wet      float64 // processed-signal level in [0, 1]
	Dry      float64 // unprocessed-signal level in [0, 1]
}

// DefaultParams returns the parameter defaults: a plain 15 ms triple-voice
// delay with modulation ready but the wet path silent.
func DefaultParams() Params {
	return Params{
		DelayMs:  defaultDelayMs,
		DepthMs:  defaultDepthMs,
		RateHz:   defaultRateHz,
		Feedback: defaultFeedback,
		Wet:      defaultWet,
		Dry:      defaultDry,
	}
}

func (p Params) sanitized() Params {
	return Params{
		DelayMs:  core.Clamp(sane(p.DelayMs, defaultDelayMs), minDelayMs, maxDelayMs),
		DepthMs:  core.Clamp(sane(p.DepthMs, defaultDepthMs), 0, maxDepthMs),
		RateHz:   core.Clamp(sane(p.RateHz, defaultRateHz), minRateHz, maxRateHz),
		Feedback: core.Clamp(sane(p.Feedback, defaultFeedback), 0, maxFeedback),
		Wet:      core.Clamp(sane(p.Wet, defaultWet), 0, 1),
		Dry:      core.Clamp(sane(p.Dry, defaultDry), 0, 1),
	}
}

// sane substitutes def for NaN; infinities are left for Clamp to bound.
func sane(v, def float64) float64 {
	if math.IsNaN(v) {
		return def
	}

	return v
}
