// Package spectrum computes single-sided magnitude spectra of real signals,
// used to verify modulation behaviour and by the demo's analysis mode.
package spectrum

import (
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"
)

// Magnitude returns the single-sided magnitude spectrum of signal:
// a Hann window is applied, the signal is zero-padded to the next power of
// two, and |X[k]| is returned for bins 0..N/2.
func Magnitude(signal []float64) ([]float64, error) {
	if len(signal) == 0 {
		return nil, fmt.Errorf("spectrum: empty signal")
	}

	fftSize := nextPowerOf2(len(signal))

	windowed := make([]float64, fftSize)
	copy(windowed, signal)
	vecmath.MulBlockInPlace(windowed[:len(signal)], hann(len(signal)))

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("spectrum: %w", err)
	}

	in := make([]complex128, fftSize)
	out := make([]complex128, fftSize)

	for i, v := range windowed {
		in[i] = complex(v, 0)
	}

	if err := plan.Forward(out, in); err != nil {
		return nil, fmt.Errorf("spectrum: forward fft: %w", err)
	}

	binCount := fftSize/2 + 1
	re := make([]float64, binCount)
	im := make([]float64, binCount)

	for i := 0; i < binCount; i++ {
		re[i] = real(out[i])
		im[i] = imag(out[i])
	}

	mags := make([]float64, binCount)
	vecmath.Magnitude(mags, re, im)

	return mags, nil
}

// PeakBin returns the index of the largest magnitude bin, ignoring DC.
func PeakBin(mags []float64) int {
	peak := 0
	peakVal := math.Inf(-1)

	for i, v := range mags {
		if i == 0 {
			continue
		}

		if v > peakVal {
			peak = i
			peakVal = v
		}
	}

	return peak
}

// BinFrequency converts a bin index of a single-sided spectrum with
// binCount bins into Hz.
func BinFrequency(bin, binCount int, sampleRate float64) float64 {
	if binCount < 2 {
		return 0
	}

	fftSize := (binCount - 1) * 2

	return float64(bin) * sampleRate / float64(fftSize)
}

func hann(size int) []float64 {
	coeffs := make([]float64, size)
	for i := range coeffs {
		coeffs[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(size))
	}

	return coeffs
}

func nextPowerOf2(n int) int {
	size := 1
	for size < n {
		size <<= 1
	}

	return size
}
