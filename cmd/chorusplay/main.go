// Command chorusplay renders a test tone through the stereo chorus and
// plays it on the default audio device, or prints a short spectral
// analysis of the rendered output instead.
//
// Usage:
//
//	chorusplay [flags]
//
// Examples:
//
//	chorusplay -freq 220 -wet 0.8 -dry 0.6
//	chorusplay -rate 2 -depth 8 -feedback 0.4
//	chorusplay -analyze -dur 1s
package main

import (
	"bytes"
	"encoding/binary"
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/cwbudde/algo-chorus/dsp/chorus"
	"github.com/cwbudde/algo-chorus/dsp/core"
	"github.com/cwbudde/algo-chorus/dsp/spectrum"
)

func main() {
	sampleRate := flag.Int("samplerate", 48000, "sample rate in Hz")
	freq := flag.Float64("freq", 220, "test tone frequency in Hz")
	dur := flag.Duration("dur", 3*time.Second, "render duration")
	delayMs := flag.Float64("delay", 15, "base delay in ms")
	depthMs := flag.Float64("depth", 5, "modulation depth in ms")
	rateHz := flag.Float64("rate", 0.5, "LFO rate in Hz")
	feedback := flag.Float64("feedback", 0.3, "feedback gain in [0, 0.999]")
	wet := flag.Float64("wet", 0.7, "wet level in [0, 1]")
	dry := flag.Float64("dry", 0.7, "dry level in [0, 1]")
	seed := flag.Int64("seed", 1, "seed for the initial LFO phases")
	gainDB := flag.Float64("gain", -6, "output gain in dB")
	analyze := flag.Bool("analyze", false, "print a spectral analysis instead of playing")
	flag.Parse()

	if *sampleRate <= 0 {
		fmt.Fprintf(os.Stderr, "error: sample rate must be > 0: %d\n", *sampleRate)
		os.Exit(1)
	}

	st, err := chorus.NewStereo(float64(*sampleRate),
		chorus.WithDelayMs(*delayMs),
		chorus.WithDepthMs(*depthMs),
		chorus.WithRateHz(*rateHz),
		chorus.WithFeedback(*feedback),
		chorus.WithWet(*wet),
		chorus.WithDry(*dry),
		chorus.WithSeed(*seed),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	left, right := render(st, float64(*sampleRate), *freq, *dur, core.DBToLinear(*gainDB))

	if *analyze {
		if err := printAnalysis(left, float64(*sampleRate)); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := play(left, right, *sampleRate); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// render synthesizes a sine tone, runs it through the chorus, and applies
// the output gain.
func render(st *chorus.Stereo, sampleRate, freq float64, dur time.Duration, gain float64) ([]float64, []float64) {
	frames := int(dur.Seconds() * sampleRate)
	if frames < 1 {
		frames = 1
	}

	left := make([]float64, frames)
	right := make([]float64, frames)

	step := 2 * math.Pi * freq / sampleRate
	for i := range left {
		left[i] = math.Sin(step * float64(i))
		right[i] = left[i]
	}

	// Equal-length blocks never fail.
	_ = st.ProcessBlocks(left, right)

	for i := range left {
		left[i] *= gain
		right[i] *= gain
	}

	return left, right
}

func printAnalysis(signal []float64, sampleRate float64) error {
	mags, err := spectrum.Magnitude(signal)
	if err != nil {
		return err
	}

	peak := spectrum.PeakBin(mags)
	peakFreq := spectrum.BinFrequency(peak, len(mags), sampleRate)

	sumSq := 0.0
	for _, v := range signal {
		sumSq += v * v
	}
	rms := math.Sqrt(sumSq / float64(len(signal)))

	fmt.Printf("frames:    %d\n", len(signal))
	fmt.Printf("rms:       %.2f dBFS\n", core.LinearToDB(rms))
	fmt.Printf("peak bin:  %d (%.1f Hz)\n", peak, peakFreq)

	return nil
}

// play streams the interleaved stereo signal through the default device
// and blocks until playback finishes.
func play(left, right []float64, sampleRate int) error {
	pcm := make([]byte, 0, len(left)*8)

	var scratch [4]byte
	for i := range left {
		binary.LittleEndian.PutUint32(scratch[:], math.Float32bits(float32(left[i])))
		pcm = append(pcm, scratch[:]...)
		binary.LittleEndian.PutUint32(scratch[:], math.Float32bits(float32(right[i])))
		pcm = append(pcm, scratch[:]...)
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		return fmt.Errorf("open audio device: %w", err)
	}
	<-ready

	player := ctx.NewPlayer(bytes.NewReader(pcm))
	player.Play()

	for player.IsPlaying() {
		time.Sleep(10 * time.Millisecond)
	}

	return player.Close()
}
