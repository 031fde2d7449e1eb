// Package mfcc computes Mel-frequency cepstral coefficients from mono PCM.
//
// The pipeline follows the common speech-analysis convention:
//
//  1. Reflect-pad the signal by FFTSize/2 on both sides (Center)
//  2. Split into overlapping frames of FFTSize samples, HopSize apart
//  3. Apply a periodic Hann window
//  4. Compute the power spectrum via FFT
//  5. Apply a Slaney-normalized mel filterbank
//  6. Convert to decibels, clipped TopDB below the peak
//  7. Apply an orthonormal DCT-II and keep the first NumCoeffs rows
//
// Default parameters:
//
//	SampleRate: 22050
//	FFTSize:     2048
//	HopSize:      512
//	NumMels:      128
//	NumCoeffs:     20
//	TopDB:         80
package mfcc

import (
	"fmt"
	"math"
)

// Power floor used before taking the logarithm.
const amin = 1e-10

// Config controls MFCC extraction parameters.
type Config struct {
	SampleRate int     // audio sample rate in Hz (default 22050)
	FFTSize    int     // frame and FFT length in samples, power of 2 (default 2048)
	HopSize    int     // frame shift in samples (default 512)
	NumMels    int     // number of mel bands (default 128)
	NumCoeffs  int     // number of cepstral coefficients kept (default 20)
	LowFreq    float64 // lowest mel band edge in Hz (default 0)
	HighFreq   float64 // highest mel band edge in Hz; 0 means SampleRate/2
	TopDB      float64 // dynamic range below the peak in dB; 0 disables clipping
	Center     bool    // reflect-pad so frame t is centered on sample t*HopSize
}

// DefaultConfig returns the configuration used for speaker embeddings.
func DefaultConfig() Config {
	return Config{
		SampleRate: 22050,
		FFTSize:    2048,
		HopSize:    512,
		NumMels:    128,
		NumCoeffs:  20,
		TopDB:      80,
		Center:     true,
	}
}

// Validate reports whether the configuration can be used to build an Extractor.
func (c Config) Validate() error {
	switch {
	case c.SampleRate <= 0:
		return fmt.Errorf("mfcc: invalid sample rate %d", c.SampleRate)
	case !isPow2(c.FFTSize):
		return fmt.Errorf("mfcc: FFT size %d is not a power of 2", c.FFTSize)
	case c.HopSize <= 0:
		return fmt.Errorf("mfcc: invalid hop size %d", c.HopSize)
	case c.NumMels <= 0:
		return fmt.Errorf("mfcc: invalid mel band count %d", c.NumMels)
	case c.NumCoeffs <= 0 || c.NumCoeffs > c.NumMels:
		return fmt.Errorf("mfcc: coefficient count %d must be in [1, %d]", c.NumCoeffs, c.NumMels)
	case c.LowFreq < 0 || c.highFreq() <= c.LowFreq:
		return fmt.Errorf("mfcc: invalid frequency range [%g, %g]", c.LowFreq, c.highFreq())
	}
	return nil
}

func (c Config) highFreq() float64 {
	if c.HighFreq > 0 {
		return c.HighFreq
	}
	return float64(c.SampleRate) / 2
}

// Extractor computes MFCC frames from float32 PCM samples.
// An Extractor holds only precomputed tables and is safe for concurrent use.
type Extractor struct {
	cfg     Config
	window  []float64
	melBank [][]float64
	dct     [][]float64
	fft     *fftPlan
}

// New creates an Extractor. It returns an error if cfg is invalid.
func New(cfg Config) (*Extractor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Extractor{
		cfg:     cfg,
		window:  hannWindow(cfg.FFTSize),
		melBank: melFilterBank(cfg.NumMels, cfg.FFTSize, cfg.SampleRate, cfg.LowFreq, cfg.highFreq()),
		dct:     dctMatrix(cfg.NumCoeffs, cfg.NumMels),
		fft:     newFFTPlan(cfg.FFTSize),
	}, nil
}

// Config returns the extractor configuration.
func (e *Extractor) Config() Config {
	return e.cfg
}

// MinSamples is the shortest input Extract accepts: one full analysis frame.
func (e *Extractor) MinSamples() int {
	return e.cfg.FFTSize
}

// NumFrames returns the number of frames Extract produces for n samples,
// or 0 if n is shorter than one analysis frame.
func (e *Extractor) NumFrames(n int) int {
	if n < e.cfg.FFTSize {
		return 0
	}
	if e.cfg.Center {
		n += e.cfg.FFTSize
	}
	return (n-e.cfg.FFTSize)/e.cfg.HopSize + 1
}

// MelSpectrogram computes mel band power per frame.
// Output: [T][NumMels], nil if pcm is shorter than one frame.
func (e *Extractor) MelSpectrogram(pcm []float32) [][]float64 {
	cfg := e.cfg
	numFrames := e.NumFrames(len(pcm))
	if numFrames == 0 {
		return nil
	}

	signal := toFloat64(pcm)
	if cfg.Center {
		signal = reflectPad(signal, cfg.FFTSize/2)
	}

	nfft := cfg.FFTSize
	halfFFT := nfft/2 + 1
	buf := make([]complex128, nfft)
	power := make([]float64, halfFFT)

	out := make([][]float64, numFrames)
	for t := 0; t < numFrames; t++ {
		start := t * cfg.HopSize
		for i := 0; i < nfft; i++ {
			buf[i] = complex(signal[start+i]*e.window[i], 0)
		}
		e.fft.transform(buf)
		for k := 0; k < halfFFT; k++ {
			re, im := real(buf[k]), imag(buf[k])
			power[k] = re*re + im*im
		}

		mel := make([]float64, cfg.NumMels)
		for m, filter := range e.melBank {
			var sum float64
			for k, w := range filter {
				if w != 0 {
					sum += w * power[k]
				}
			}
			mel[m] = sum
		}
		out[t] = mel
	}
	return out
}

// Extract computes MFCC frames from normalized float32 samples ([-1, 1]).
// Output: [T][NumCoeffs], nil if pcm is shorter than one frame.
func (e *Extractor) Extract(pcm []float32) [][]float64 {
	spec := e.MelSpectrogram(pcm)
	if spec == nil {
		return nil
	}
	powerToDB(spec, e.cfg.TopDB)

	out := make([][]float64, len(spec))
	for t, frame := range spec {
		coeffs := make([]float64, e.cfg.NumCoeffs)
		for k, basis := range e.dct {
			var sum float64
			for i, b := range basis {
				sum += b * frame[i]
			}
			coeffs[k] = sum
		}
		out[t] = coeffs
	}
	return out
}

// Mean reduces [T][D] frames to the per-dimension arithmetic mean.
// Returns nil for empty input.
func Mean(frames [][]float64) []float64 {
	if len(frames) == 0 {
		return nil
	}
	mean := make([]float64, len(frames[0]))
	for _, f := range frames {
		for i, v := range f {
			mean[i] += v
		}
	}
	n := float64(len(frames))
	for i := range mean {
		mean[i] /= n
	}
	return mean
}

// powerToDB converts power values to decibels in place and clips everything
// more than topDB below the global peak.
func powerToDB(spec [][]float64, topDB float64) {
	peak := math.Inf(-1)
	for _, frame := range spec {
		for i, p := range frame {
			db := 10 * math.Log10(math.Max(p, amin))
			frame[i] = db
			if db > peak {
				peak = db
			}
		}
	}
	if topDB <= 0 {
		return
	}
	floor := peak - topDB
	for _, frame := range spec {
		for i, db := range frame {
			if db < floor {
				frame[i] = floor
			}
		}
	}
}

// reflectPad mirrors pad samples at each end, excluding the edge sample.
// len(x) must be greater than pad.
func reflectPad(x []float64, pad int) []float64 {
	n := len(x)
	out := make([]float64, n+2*pad)
	for i := 0; i < pad; i++ {
		out[i] = x[pad-i]
	}
	copy(out[pad:], x)
	for j := 0; j < pad; j++ {
		out[pad+n+j] = x[n-2-j]
	}
	return out
}

func toFloat64(pcm []float32) []float64 {
	out := make([]float64, len(pcm))
	for i, s := range pcm {
		out[i] = float64(s)
	}
	return out
}
