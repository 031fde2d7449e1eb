//go:build !js
// +build !js

// Package resampler converts mono float32 PCM between sample rates using a
// pure Go resampler (no CGO/FFI dependencies).
//
// Capture devices commonly run at 44.1 or 48 kHz while the speaker
// embedding front-end expects a fixed rate, so captured waveforms pass
// through Resample before feature extraction:
//
//	out, err := resampler.Resample(samples, 48000, 22050)
package resampler

import (
	"errors"
	"fmt"
	"math"

	resampling "github.com/tphakala/go-audio-resampling"
)

// ErrInvalidRate is returned when a sample rate is not positive.
var ErrInvalidRate = errors.New("resampler: invalid sample rate")

// tailPadding is the amount of trailing silence, in seconds, fed through the
// filter so that samples held in its delay line reach the output.
const tailPadding = 0.1

// OutputLen returns the number of samples a signal of n samples at srcRate
// has at dstRate.
func OutputLen(n, srcRate, dstRate int) int {
	return int(math.Round(float64(n) * float64(dstRate) / float64(srcRate)))
}

// Resample converts samples from srcRate to dstRate. When the rates are equal
// a copy of the input is returned. The output never exceeds
// OutputLen(len(samples), srcRate, dstRate) samples and is clamped to [-1, 1].
func Resample(samples []float32, srcRate, dstRate int) ([]float32, error) {
	if srcRate <= 0 || dstRate <= 0 {
		return nil, fmt.Errorf("%w: %d -> %d", ErrInvalidRate, srcRate, dstRate)
	}
	if srcRate == dstRate || len(samples) == 0 {
		out := make([]float32, len(samples))
		copy(out, samples)
		return out, nil
	}

	r, err := resampling.New(&resampling.Config{
		InputRate:  float64(srcRate),
		OutputRate: float64(dstRate),
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create resampler: %w", err)
	}

	pad := int(float64(srcRate) * tailPadding)
	input := make([]float64, len(samples)+pad)
	for i, s := range samples {
		input[i] = float64(s)
	}

	output, err := r.Process(input)
	if err != nil {
		return nil, fmt.Errorf("resample error: %w", err)
	}

	want := OutputLen(len(samples), srcRate, dstRate)
	if len(output) > want {
		output = output[:want]
	}
	out := make([]float32, len(output))
	for i, s := range output {
		out[i] = float32(max(-1, min(1, s)))
	}
	return out, nil
}
