// Package lfo provides a low-frequency oscillator for modulating other
// DSP parameters at sub-audio rates.
package lfo

import (
	"fmt"
	"math"
)

// Oscillator is a sinusoidal phase accumulator.
//
// Phase lives in [0, 1) and wraps modulo 1. Evaluating the current value
// and advancing the phase are separate operations so that several
// parameters can be derived from one oscillator position before it moves.
type Oscillator struct {
	sampleRate float64
	rateHz     float64
	phase      float64
}

// New creates an oscillator starting at phase 0.
func New(sampleRate, rateHz float64) (*Oscillator, error) {
	return NewWithPhase(sampleRate, rateHz, 0)
}

// NewWithPhase creates an oscillator starting at the given phase in [0, 1).
// Sibling oscillators given distinct phases stay decorrelated; identical
// phases modulate in lockstep.
func NewWithPhase(sampleRate, rateHz, phase float64) (*Oscillator, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("lfo sample rate must be > 0 and finite: %f", sampleRate)
	}

	if rateHz <= 0 || math.IsNaN(rateHz) || math.IsInf(rateHz, 0) {
		return nil, fmt.Errorf("lfo rate must be > 0 and finite: %f", rateHz)
	}

	if phase < 0 || phase >= 1 || math.IsNaN(phase) {
		return nil, fmt.Errorf("lfo phase must be in [0, 1): %f", phase)
	}

	return &Oscillator{
		sampleRate: sampleRate,
		rateHz:     rateHz,
		phase:      phase,
	}, nil
}

// Value evaluates the sinusoid at the current phase, in [-1, 1].
// It does not mutate state.
func (o *Oscillator) Value() float64 {
	return math.Sin(2 * math.Pi * o.phase)
}

// Advance moves the phase forward by rate/sampleRate, wrapping modulo 1.
func (o *Oscillator) Advance() {
	o.phase += o.rateHz / o.sampleRate
	o.phase -= math.Floor(o.phase)
}

// SetRateHz updates the oscillator rate without touching the phase, so a
// rate change glides smoothly instead of snapping the phase. It is called
// on the per-sample hot path; the caller must pass a finite positive rate.
func (o *Oscillator) SetRateHz(rateHz float64) {
	o.rateHz = rateHz
}

// SetSampleRate updates the sample rate, preserving the current phase.
func (o *Oscillator) SetSampleRate(sampleRate float64) error {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return fmt.Errorf("lfo sample rate must be > 0 and finite: %f", sampleRate)
	}

	o.sampleRate = sampleRate

	return nil
}

// Reset returns the phase to the given start value in [0, 1).
func (o *Oscillator) Reset(phase float64) error {
	if phase < 0 || phase >= 1 || math.IsNaN(phase) {
		return fmt.Errorf("lfo phase must be in [0, 1): %f", phase)
	}

	o.phase = phase

	return nil
}

// SampleRate returns sample rate in Hz.
func (o *Oscillator) SampleRate() float64 { return o.sampleRate }

// RateHz returns oscillator rate in Hz.
func (o *Oscillator) RateHz() float64 { return o.rateHz }

// Phase returns the current phase in [0, 1).
func (o *Oscillator) Phase() float64 { return o.phase }
