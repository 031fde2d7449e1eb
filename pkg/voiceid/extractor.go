package voiceid

import (
	"fmt"
	"math"

	"github.com/ridhamguptaprogramming-ops/JARVIS-voice-assistant/pkg/audio/mfcc"
)

// FeatureExtractor turns a waveform into an embedding.
// Implementations must be pure and safe for concurrent use.
type FeatureExtractor interface {
	// Extract computes the embedding of w. Errors wrap ErrFeatureExtraction.
	Extract(w Waveform) (Embedding, error)

	// SampleRate is the rate Extract expects waveforms at.
	SampleRate() int

	// Dimension is the length of every embedding Extract returns.
	Dimension() int
}

// Extractor computes mean-MFCC embeddings.
type Extractor struct {
	mfcc *mfcc.Extractor
}

// NewExtractor returns an Extractor with the parameters all stored profiles
// share: 22050 Hz input, 20 coefficients.
func NewExtractor() *Extractor {
	e, err := NewExtractorWithConfig(mfcc.DefaultConfig())
	if err != nil {
		panic(err)
	}
	return e
}

// NewExtractorWithConfig returns an Extractor with custom MFCC parameters.
// Embeddings from different configurations are not comparable.
func NewExtractorWithConfig(cfg mfcc.Config) (*Extractor, error) {
	m, err := mfcc.New(cfg)
	if err != nil {
		return nil, err
	}
	return &Extractor{mfcc: m}, nil
}

func (e *Extractor) SampleRate() int { return e.mfcc.Config().SampleRate }

func (e *Extractor) Dimension() int { return e.mfcc.Config().NumCoeffs }

// Extract returns the per-coefficient mean of the waveform's MFCC frames.
// It fails if the waveform is empty, shorter than one analysis frame,
// recorded at a different rate, or contains non-finite samples.
func (e *Extractor) Extract(w Waveform) (Embedding, error) {
	if len(w.Samples) == 0 {
		return nil, fmt.Errorf("%w: empty waveform", ErrFeatureExtraction)
	}
	if w.SampleRate != e.SampleRate() {
		return nil, fmt.Errorf("%w: sample rate %d Hz, want %d Hz", ErrFeatureExtraction, w.SampleRate, e.SampleRate())
	}
	if n := e.mfcc.MinSamples(); len(w.Samples) < n {
		return nil, fmt.Errorf("%w: %d samples is shorter than one %d-sample frame", ErrFeatureExtraction, len(w.Samples), n)
	}
	for i, s := range w.Samples {
		if math.IsNaN(float64(s)) || math.IsInf(float64(s), 0) {
			return nil, fmt.Errorf("%w: sample %d is not finite", ErrFeatureExtraction, i)
		}
	}

	mean := mfcc.Mean(e.mfcc.Extract(w.Samples))
	if len(mean) != e.Dimension() {
		return nil, fmt.Errorf("%w: got %d coefficients, want %d", ErrFeatureExtraction, len(mean), e.Dimension())
	}
	return Embedding(mean), nil
}

// Compile-time interface check.
var _ FeatureExtractor = (*Extractor)(nil)
