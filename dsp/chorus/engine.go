package chorus

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/cwbudde/algo-chorus/dsp/core"
	"github.com/cwbudde/algo-chorus/dsp/delay"
	"github.com/cwbudde/algo-chorus/dsp/lfo"
)

const (
	voiceCount  = 3
	defaultSeed = 1
)

// Option mutates engine construction parameters.
type Option func(*engineConfig) error

type engineConfig struct {
	params    Params
	seed      int64
	phases    [voiceCount]float64
	phasesSet bool
}

func defaultEngineConfig() engineConfig {
	return engineConfig{
		params: DefaultParams(),
		seed:   defaultSeed,
	}
}

// WithDelayMs sets the base delay in milliseconds.
func WithDelayMs(delayMs float64) Option {
	return func(cfg *engineConfig) error {
		if delayMs < minDelayMs || delayMs > maxDelayMs || math.IsNaN(delayMs) || math.IsInf(delayMs, 0) {
			return fmt.Errorf("chorus delay must be in [%g, %g] ms: %f", minDelayMs, maxDelayMs, delayMs)
		}

		cfg.params.DelayMs = delayMs

		return nil
	}
}

// WithDepthMs sets the modulation depth in milliseconds.
func WithDepthMs(depthMs float64) Option {
	return func(cfg *engineConfig) error {
		if depthMs < 0 || depthMs > maxDepthMs || math.IsNaN(depthMs) || math.IsInf(depthMs, 0) {
			return fmt.Errorf("chorus depth must be in [0, %g] ms: %f", maxDepthMs, depthMs)
		}

		cfg.params.DepthMs = depthMs

		return nil
	}
}

// WithRateHz sets the LFO modulation rate in Hz.
func WithRateHz(rateHz float64) Option {
	return func(cfg *engineConfig) error {
		if rateHz < minRateHz || rateHz > maxRateHz || math.IsNaN(rateHz) || math.IsInf(rateHz, 0) {
			return fmt.Errorf("chorus rate must be in [%g, %g] Hz: %f", minRateHz, maxRateHz, rateHz)
		}

		cfg.params.RateHz = rateHz

		return nil
	}
}

// WithFeedback sets the feedback gain in [0, 0.999].
func WithFeedback(feedback float64) Option {
	return func(cfg *engineConfig) error {
		if feedback < 0 || feedback > maxFeedback || math.IsNaN(feedback) || math.IsInf(feedback, 0) {
			return fmt.Errorf("chorus feedback must be in [0, %g]: %f", maxFeedback, feedback)
		}

		cfg.params.Feedback = feedback

		return nil
	}
}

// WithWet sets the wet level in [0, 1].
func WithWet(wet float64) Option {
	return func(cfg *engineConfig) error {
		if wet < 0 || wet > 1 || math.IsNaN(wet) || math.IsInf(wet, 0) {
			return fmt.Errorf("chorus wet must be in [0, 1]: %f", wet)
		}

		cfg.params.Wet = wet

		return nil
	}
}

// WithDry sets the dry level in [0, 1].
func WithDry(dry float64) Option {
	return func(cfg *engineConfig) error {
		if dry < 0 || dry > 1 || math.IsNaN(dry) || math.IsInf(dry, 0) {
			return fmt.Errorf("chorus dry must be in [0, 1]: %f", dry)
		}

		cfg.params.Dry = dry

		return nil
	}
}

// WithSeed sets the seed used to draw the initial LFO phases. Construction
// stays deterministic for a given seed; different seeds decorrelate the
// voices (and, through NewStereo, the two channels).
func WithSeed(seed int64) Option {
	return func(cfg *engineConfig) error {
		cfg.seed = seed

		return nil
	}
}

// WithLFOPhases pins the three initial LFO phases, each in [0, 1),
// overriding the seed. Equal phases make the voices modulate in lockstep,
// which collapses the chorus into a plain vibrato; use distinct values.
func WithLFOPhases(p0, p1, p2 float64) Option {
	return func(cfg *engineConfig) error {
		for _, p := range [voiceCount]float64{p0, p1, p2} {
			if p < 0 || p >= 1 || math.IsNaN(p) {
				return fmt.Errorf("chorus lfo phase must be in [0, 1): %f", p)
			}
		}

		cfg.phases = [voiceCount]float64{p0, p1, p2}
		cfg.phasesSet = true

		return nil
	}
}

// Engine is a single-channel chorus: three modulated delay taps averaged
// together, a feedback tap at the base delay, and a wet/dry mix.
//
// It is exclusively owned by one audio callback goroutine. ProcessSample
// performs no allocation; buffers are sized at construction and on
// SetSampleRate, which the host must serialize with processing.
type Engine struct {
	sampleRate float64
	params     Params

	lines    [voiceCount]*delay.Line
	lfos     [voiceCount]*lfo.Oscillator
	feedback *delay.Line

	phases [voiceCount]float64
}

// New creates a single-channel engine. Buffers hold one second of audio at
// the given sample rate, which caps the usable base delay just below 1000 ms.
func New(sampleRate float64, opts ...Option) (*Engine, error) {
	cfg, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}

	return newEngine(sampleRate, cfg.params, enginePhases(cfg))
}

func applyOptions(opts []Option) (engineConfig, error) {
	cfg := defaultEngineConfig()

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&cfg); err != nil {
			return cfg, err
		}
	}

	return cfg, nil
}

// enginePhases resolves the initial LFO phases for a single engine:
// explicitly pinned phases win, otherwise they are drawn from the seed.
func enginePhases(cfg engineConfig) [voiceCount]float64 {
	if cfg.phasesSet {
		return cfg.phases
	}

	return drawPhases(rand.New(rand.NewSource(cfg.seed)))
}

func drawPhases(rng *rand.Rand) [voiceCount]float64 {
	var phases [voiceCount]float64
	for i := range phases {
		phases[i] = rng.Float64()
	}

	return phases
}

func newEngine(sampleRate float64, params Params, phases [voiceCount]float64) (*Engine, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("chorus sample rate must be > 0 and finite: %f", sampleRate)
	}

	e := &Engine{
		sampleRate: sampleRate,
		params:     params.sanitized(),
		phases:     phases,
	}

	size := bufferSize(sampleRate)

	for k := range e.lines {
		line, err := delay.New(size)
		if err != nil {
			return nil, err
		}

		e.lines[k] = line
	}

	fb, err := delay.New(size)
	if err != nil {
		return nil, err
	}

	e.feedback = fb

	for k := range e.lfos {
		osc, err := lfo.NewWithPhase(sampleRate, e.params.RateHz, phases[k])
		if err != nil {
			return nil, err
		}

		e.lfos[k] = osc
	}

	return e, nil
}

// bufferSize is one second of audio at the given rate.
func bufferSize(sampleRate float64) int {
	return int(math.Ceil(sampleRate))
}

// SetSampleRate updates the sample rate and resizes all buffers to one
// second of audio, clearing their history. The initial LFO phases are kept.
// Must not be called concurrently with processing.
func (e *Engine) SetSampleRate(sampleRate float64) error {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return fmt.Errorf("chorus sample rate must be > 0 and finite: %f", sampleRate)
	}

	size := bufferSize(sampleRate)

	for k := range e.lines {
		if err := e.lines[k].Resize(size); err != nil {
			return err
		}
	}

	if err := e.feedback.Resize(size); err != nil {
		return err
	}

	for k := range e.lfos {
		if err := e.lfos[k].SetSampleRate(sampleRate); err != nil {
			return err
		}

		if err := e.lfos[k].Reset(e.phases[k]); err != nil {
			return err
		}
	}

	e.sampleRate = sampleRate

	return nil
}

// SetParams installs a new parameter snapshot, clamping out-of-range values.
// Buffer contents are deliberately untouched: only SetSampleRate and Reset
// clear history, so parameter sweeps stay click-free.
func (e *Engine) SetParams(p Params) {
	e.params = p.sanitized()
}

// ProcessSample processes one sample.
func (e *Engine) ProcessSample(input float64) float64 {
	p := e.params
	capacity := e.feedback.Len()

	delaySamples := core.ClampInt(
		int(math.Round(p.DelayMs/1000*e.sampleRate)), 0, capacity-1)

	// The half-delay clamp keeps every modulated read offset inside the
	// valid history window around the base delay.
	calculatedDepth := p.DepthMs / 1000 * e.sampleRate
	if half := float64(delaySamples) / 2; calculatedDepth > half {
		calculatedDepth = half
	}

	// Feedback reads the output history at the unmodulated base delay, so
	// it reinforces the delay character without its own modulation.
	x := input + p.Wet*p.Feedback*e.feedback.Read(delaySamples)

	tapSum := 0.0

	for k := range e.lfos {
		e.lfos[k].SetRateHz(p.RateHz)

		offset := int(math.Round(e.lfos[k].Value() * calculatedDepth / 2))
		tap := core.ClampInt(delaySamples+offset, 0, capacity-1)

		tapSum += e.lines[k].Process(x, tap)
	}

	y := p.Wet*(tapSum/voiceCount) + x*p.Dry

	// Linear headroom guard, not an equal-power crossfade.
	if sum := p.Wet + p.Dry; sum > 1 {
		y /= sum
	}

	for k := range e.lfos {
		e.lfos[k].Advance()
	}

	y = core.FlushDenormals(y)
	e.feedback.Write(y)

	return y
}

// ProcessInPlace applies the chorus to buf in place.
func (e *Engine) ProcessInPlace(buf []float64) {
	for i := range buf {
		buf[i] = e.ProcessSample(buf[i])
	}
}

// Reset clears all buffer history and returns the LFOs to their initial
// phases, reproducing the engine's state right after construction.
func (e *Engine) Reset() {
	for k := range e.lines {
		e.lines[k].Reset()
	}

	e.feedback.Reset()

	for k := range e.lfos {
		// Phases were validated at construction.
		_ = e.lfos[k].Reset(e.phases[k])
	}
}

// SampleRate returns sample rate in Hz.
func (e *Engine) SampleRate() float64 { return e.sampleRate }

// Params returns the current parameter snapshot.
func (e *Engine) Params() Params { return e.params }
