package chorus

import (
	"fmt"
	"math/rand"
)

// Stereo runs two independent channel engines, left and right. The engines
// share only the incoming parameter values; buffers and LFO phases are per
// channel. Unless phases are pinned with WithLFOPhases, six distinct start
// phases are drawn from the configured seed so the channels stay
// decorrelated and the image keeps its width.
type Stereo struct {
	left  *Engine
	right *Engine
}

// NewStereo creates a stereo chorus. Options apply to both channels.
func NewStereo(sampleRate float64, opts ...Option) (*Stereo, error) {
	cfg, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}

	leftPhases := cfg.phases
	rightPhases := cfg.phases

	if !cfg.phasesSet {
		rng := rand.New(rand.NewSource(cfg.seed))
		leftPhases = drawPhases(rng)
		rightPhases = drawPhases(rng)
	}

	left, err := newEngine(sampleRate, cfg.params, leftPhases)
	if err != nil {
		return nil, err
	}

	right, err := newEngine(sampleRate, cfg.params, rightPhases)
	if err != nil {
		return nil, err
	}

	return &Stereo{left: left, right: right}, nil
}

// SetSampleRate updates both channels, resizing and clearing their buffers.
// Must not be called concurrently with processing.
func (s *Stereo) SetSampleRate(sampleRate float64) error {
	if err := s.left.SetSampleRate(sampleRate); err != nil {
		return err
	}

	return s.right.SetSampleRate(sampleRate)
}

// SetParams installs the same parameter snapshot on both channels.
func (s *Stereo) SetParams(p Params) {
	s.left.SetParams(p)
	s.right.SetParams(p)
}

// ProcessFrame processes one sample per channel.
func (s *Stereo) ProcessFrame(left, right float64) (float64, float64) {
	return s.left.ProcessSample(left), s.right.ProcessSample(right)
}

// ProcessBlocks applies the chorus to both channel buffers in place.
// The buffers must have equal length.
func (s *Stereo) ProcessBlocks(left, right []float64) error {
	if len(left) != len(right) {
		return fmt.Errorf("chorus channel length mismatch: %d vs %d", len(left), len(right))
	}

	for i := range left {
		left[i] = s.left.ProcessSample(left[i])
		right[i] = s.right.ProcessSample(right[i])
	}

	return nil
}

// Reset clears both channels' history and restores their initial LFO phases.
func (s *Stereo) Reset() {
	s.left.Reset()
	s.right.Reset()
}

// SampleRate returns sample rate in Hz.
func (s *Stereo) SampleRate() float64 { return s.left.SampleRate() }

// Params returns the current parameter snapshot.
func (s *Stereo) Params() Params { return s.left.Params() }
