package chorus

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-chorus/internal/testutil"
)

const testSampleRate = 48000.0

func mustEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()

	e, err := New(testSampleRate, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	return e
}

// --- construction and options ---

func TestNewValidation(t *testing.T) {
	if _, err := New(0); err == nil {
		t.Fatal("expected error for sampleRate=0")
	}

	if _, err := New(math.NaN()); err == nil {
		t.Fatal("expected error for sampleRate=NaN")
	}
}

func TestOptionValidation(t *testing.T) {
	cases := []struct {
		name string
		opt  Option
	}{
		{"delay too small", WithDelayMs(0)},
		{"delay too large", WithDelayMs(2000)},
		{"negative depth", WithDepthMs(-1)},
		{"rate zero", WithRateHz(0)},
		{"feedback unity", WithFeedback(1)},
		{"wet above one", WithWet(1.1)},
		{"dry below zero", WithDry(-0.1)},
		{"phase out of range", WithLFOPhases(0, 0.5, 1)},
		{"phase NaN", WithLFOPhases(math.NaN(), 0, 0)},
	}

	for _, tc := range cases {
		if _, err := New(testSampleRate, tc.opt); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}

func TestDefaultsMatchDefaultParams(t *testing.T) {
	e := mustEngine(t)

	if got, want := e.Params(), DefaultParams(); got != want {
		t.Fatalf("params: got %+v want %+v", got, want)
	}

	if e.SampleRate() != testSampleRate {
		t.Fatalf("sample rate: got %v want %v", e.SampleRate(), testSampleRate)
	}
}

// --- passthrough ---

func TestPassthrough(t *testing.T) {
	e := mustEngine(t, WithWet(0), WithDry(1), WithFeedback(0))

	in := testutil.DeterministicNoise(7, 1.0, 4096)

	for i, x := range in {
		if got := e.ProcessSample(x); got != x {
			t.Fatalf("sample %d: got %v want %v (exact)", i, got, x)
		}
	}
}

// --- static delay ---

func TestStaticDelayImpulse(t *testing.T) {
	const delayMs = 15.0

	e := mustEngine(t,
		WithDelayMs(delayMs), WithDepthMs(0),
		WithWet(1), WithDry(0), WithLFOPhases(0, 0, 0))

	delaySamples := int(math.Round(delayMs / 1000 * testSampleRate)) // 720

	in := testutil.Impulse(2*delaySamples, 0)

	for n, x := range in {
		got := e.ProcessSample(x)

		// The impulse written on call 0 re-emerges delaySamples-1 calls
		// later; all three taps read the same offset, so the 1/3 average
		// returns it at unit gain.
		want := 0.0
		if n == delaySamples-1 {
			want = 1.0
		}

		if math.Abs(got-want) > 1e-12 {
			t.Fatalf("sample %d: got %v want %v", n, got, want)
		}
	}
}

func TestStaticDelaySine(t *testing.T) {
	const delayMs = 10.0

	e := mustEngine(t,
		WithDelayMs(delayMs), WithDepthMs(0),
		WithWet(1), WithDry(0), WithLFOPhases(0, 0, 0))

	delaySamples := int(math.Round(delayMs / 1000 * testSampleRate)) // 480

	in := testutil.DeterministicSine(440, testSampleRate, 0.5, 4096)

	got := make([]float64, len(in))
	for i, x := range in {
		got[i] = e.ProcessSample(x)
	}

	want := make([]float64, len(in))
	for i := range want {
		if src := i - delaySamples + 1; src >= 0 {
			want[i] = in[src]
		}
	}

	testutil.RequireSliceNearlyEqual(t, got, want, 1e-12)
}

// --- depth clamp ---

func TestDepthClampKeepsTapsInWindow(t *testing.T) {
	// Depth far beyond half the base delay: offsets must stay within a
	// quarter delay of the base, so the impulse response is confined to
	// a window around delaySamples.
	const delayMs = 4.0

	e := mustEngine(t,
		WithDelayMs(delayMs), WithDepthMs(50),
		WithRateHz(10), WithWet(1), WithDry(0))

	delaySamples := int(math.Round(delayMs / 1000 * testSampleRate)) // 192

	lo := delaySamples/2 - 2
	hi := 3*delaySamples/2 + 2

	for n := 0; n < 4*delaySamples; n++ {
		x := 0.0
		if n == 0 {
			x = 1.0
		}

		got := e.ProcessSample(x)

		if math.IsNaN(got) || math.IsInf(got, 0) {
			t.Fatalf("sample %d: non-finite output %v", n, got)
		}

		if got != 0 && (n < lo || n > hi) {
			t.Fatalf("sample %d: energy %v outside tap window [%d, %d]", n, got, lo, hi)
		}
	}
}

// --- feedback stability ---

func TestFeedbackStaysBounded(t *testing.T) {
	e := mustEngine(t,
		WithDelayMs(15), WithDepthMs(5), WithRateHz(5),
		WithFeedback(0.999), WithWet(1), WithDry(1))

	in := testutil.DeterministicNoise(42, 1.0, 3*int(testSampleRate))

	maxAbs := 0.0
	for i, x := range in {
		y := e.ProcessSample(x)

		if math.IsNaN(y) || math.IsInf(y, 0) {
			t.Fatalf("sample %d: non-finite output %v", i, y)
		}

		if a := math.Abs(y); a > maxAbs {
			maxAbs = a
		}
	}

	if maxAbs > 100 {
		t.Fatalf("feedback path diverged: max |y| = %v", maxAbs)
	}
}

// --- headroom guard ---

func TestHeadroomRescale(t *testing.T) {
	const (
		delayMs = 15.0
		wet     = 0.8
		dry     = 0.8
	)

	e := mustEngine(t,
		WithDelayMs(delayMs), WithDepthMs(0), WithFeedback(0),
		WithWet(wet), WithDry(dry), WithLFOPhases(0, 0, 0))

	delaySamples := int(math.Round(delayMs / 1000 * testSampleRate))

	in := testutil.DeterministicNoise(3, 1.0, 4096)

	got := make([]float64, len(in))
	for i, x := range in {
		got[i] = e.ProcessSample(x)
	}

	// With no modulation and no feedback the engine reduces to
	// y = (wet*delayed + dry*x) / (wet+dry).
	want := make([]float64, len(in))
	for i := range want {
		delayed := 0.0
		if src := i - delaySamples + 1; src >= 0 {
			delayed = in[src]
		}

		want[i] = (wet*delayed + dry*in[i]) / (wet + dry)
	}

	testutil.RequireSliceNearlyEqual(t, got, want, 1e-12)
}

func TestNoRescaleWhenSumBelowOne(t *testing.T) {
	e := mustEngine(t,
		WithDelayMs(15), WithDepthMs(0), WithFeedback(0),
		WithWet(0.3), WithDry(0.5), WithLFOPhases(0, 0, 0))

	// dry 0.5 of the first sample, no wet contribution yet.
	if got := e.ProcessSample(1); math.Abs(got-0.5) > 1e-12 {
		t.Fatalf("got %v want 0.5", got)
	}
}

// --- parameter snapshot ---

func TestSetParamsClamps(t *testing.T) {
	e := mustEngine(t)

	e.SetParams(Params{
		DelayMs:  5000,
		DepthMs:  -3,
		RateHz:   math.NaN(),
		Feedback: 2,
		Wet:      math.Inf(1),
		Dry:      -1,
	})

	p := e.Params()

	if p.DelayMs != maxDelayMs {
		t.Fatalf("DelayMs: got %v want %v", p.DelayMs, maxDelayMs)
	}

	if p.DepthMs != 0 {
		t.Fatalf("DepthMs: got %v want 0", p.DepthMs)
	}

	if p.RateHz != defaultRateHz {
		t.Fatalf("RateHz: got %v want %v", p.RateHz, defaultRateHz)
	}

	if p.Feedback != maxFeedback {
		t.Fatalf("Feedback: got %v want %v", p.Feedback, maxFeedback)
	}

	if p.Wet != 1 {
		t.Fatalf("Wet: got %v want 1", p.Wet)
	}

	if p.Dry != 0 {
		t.Fatalf("Dry: got %v want 0", p.Dry)
	}
}

func TestMaxDelayStaysInsideBuffer(t *testing.T) {
	e := mustEngine(t, WithWet(1), WithDry(0))

	// 1000 ms rounds to the full buffer length; the engine must cap the
	// read offset at capacity-1 instead of wrapping onto the write cursor.
	e.SetParams(Params{DelayMs: 1000, DepthMs: 25, RateHz: 10, Wet: 1, Dry: 1})

	for i := 0; i < 2048; i++ {
		y := e.ProcessSample(1)
		if math.IsNaN(y) || math.IsInf(y, 0) {
			t.Fatalf("sample %d: non-finite output %v", i, y)
		}
	}
}

func TestSetParamsKeepsHistory(t *testing.T) {
	e := mustEngine(t,
		WithDelayMs(15), WithDepthMs(0),
		WithWet(1), WithDry(0), WithLFOPhases(0, 0, 0))

	// Prime the delay lines with an impulse, then change an unrelated
	// parameter mid-stream: the impulse must still come out on schedule.
	e.ProcessSample(1)

	p := e.Params()
	p.RateHz = 3
	e.SetParams(p)

	delaySamples := int(math.Round(15.0 / 1000 * testSampleRate))

	for n := 1; n < 2*delaySamples; n++ {
		got := e.ProcessSample(0)

		want := 0.0
		if n == delaySamples-1 {
			want = 1.0
		}

		if math.Abs(got-want) > 1e-12 {
			t.Fatalf("sample %d: got %v want %v", n, got, want)
		}
	}
}

// --- lifecycle ---

func TestSetSampleRateResizesAndClears(t *testing.T) {
	e := mustEngine(t, WithDelayMs(15), WithDepthMs(0), WithWet(1), WithDry(0), WithLFOPhases(0, 0, 0))

	e.ProcessSample(1)

	if err := e.SetSampleRate(96000); err != nil {
		t.Fatalf("SetSampleRate() error = %v", err)
	}

	if e.SampleRate() != 96000 {
		t.Fatalf("sample rate: got %v want 96000", e.SampleRate())
	}

	// History was cleared: the old impulse never comes out.
	delaySamples := int(math.Round(15.0 / 1000 * 96000))
	for n := 0; n < 2*delaySamples; n++ {
		if got := e.ProcessSample(0); got != 0 {
			t.Fatalf("sample %d after resize: got %v want 0", n, got)
		}
	}
}

func TestSetSampleRateValidation(t *testing.T) {
	e := mustEngine(t)

	if err := e.SetSampleRate(0); err == nil {
		t.Fatal("expected error for sampleRate=0")
	}

	if err := e.SetSampleRate(math.Inf(1)); err == nil {
		t.Fatal("expected error for sampleRate=Inf")
	}
}

func TestResetReproducesOutput(t *testing.T) {
	e := mustEngine(t,
		WithDelayMs(12), WithDepthMs(5), WithRateHz(2),
		WithFeedback(0.4), WithWet(0.7), WithDry(0.7), WithSeed(99))

	in := testutil.DeterministicNoise(11, 1.0, 4096)

	out1 := make([]float64, len(in))
	for i, x := range in {
		out1[i] = e.ProcessSample(x)
	}

	e.Reset()

	out2 := make([]float64, len(in))
	for i, x := range in {
		out2[i] = e.ProcessSample(x)
	}

	testutil.RequireSliceNearlyEqual(t, out1, out2, 0)
}

func TestSameSeedSameOutput(t *testing.T) {
	opts := []Option{
		WithDepthMs(5), WithRateHz(2), WithWet(1), WithDry(0), WithSeed(5),
	}

	e1 := mustEngine(t, opts...)
	e2 := mustEngine(t, opts...)

	in := testutil.DeterministicSine(220, testSampleRate, 0.5, 2048)

	for i, x := range in {
		if g1, g2 := e1.ProcessSample(x), e2.ProcessSample(x); g1 != g2 {
			t.Fatalf("sample %d: %v vs %v for identical seeds", i, g1, g2)
		}
	}
}

func TestProcessInPlaceMatchesSample(t *testing.T) {
	opts := []Option{
		WithDepthMs(5), WithRateHz(1), WithFeedback(0.3),
		WithWet(0.6), WithDry(0.8), WithSeed(13),
	}

	e1 := mustEngine(t, opts...)
	e2 := mustEngine(t, opts...)

	in := testutil.DeterministicNoise(21, 1.0, 1024)

	want := make([]float64, len(in))
	for i, x := range in {
		want[i] = e1.ProcessSample(x)
	}

	got := make([]float64, len(in))
	copy(got, in)
	e2.ProcessInPlace(got)

	testutil.RequireSliceNearlyEqual(t, got, want, 0)
}

// --- benchmarks ---

func BenchmarkProcessSample(b *testing.B) {
	e, err := New(testSampleRate,
		WithDepthMs(5), WithRateHz(0.5), WithFeedback(0.3),
		WithWet(0.5), WithDry(0.5))
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		e.ProcessSample(0.25)
	}
}
