// Package voiceid enrolls speakers and verifies unknown audio against the
// enrolled set.
//
// # Pipeline
//
//  1. Capturer.Capture: microphone → mono Waveform (nominal 2.5 s)
//  2. Extractor.Extract: Waveform @ 22050 Hz → 20-dimensional Embedding
//     (mean MFCC over frames)
//  3. Enroll: elementwise mean of N embeddings → profilestore.Store.Put
//  4. Verify: one embedding → Match against profilestore.Store.List
//
// # Decisions
//
// Match picks the profile with the smallest cosine distance and accepts it
// when the distance is strictly below the threshold (default 0.45). Ties go
// to the profile listed first, i.e. the lexicographically smallest name.
//
// An "unknown" verdict is a successful result. Failures to capture or extract
// are returned as errors wrapping ErrCapture or ErrFeatureExtraction and are
// never reported as unknown.
package voiceid

import (
	"time"

	"github.com/ridhamguptaprogramming-ops/JARVIS-voice-assistant/pkg/voiceid/profilestore"
)

const (
	// Dimension is the length of every Embedding.
	Dimension = 20

	// SampleRate is the rate, in Hz, embeddings are extracted at.
	SampleRate = 22050

	// RecordDuration is the nominal length of one capture.
	RecordDuration = 2500 * time.Millisecond

	// DefaultThreshold is the cosine distance below which a match is accepted.
	DefaultThreshold = 0.45

	// DefaultSamples is the number of recordings averaged per enrollment.
	DefaultSamples = 3

	// UnknownToken is the literal printed for an unknown speaker.
	UnknownToken = "UNKNOWN"
)

// Waveform is one mono recording.
type Waveform struct {
	// Samples are normalized to [-1, 1].
	Samples []float32

	// SampleRate is the rate Samples were recorded at, in Hz.
	SampleRate int
}

// Duration returns the length of the recording.
func (w Waveform) Duration() time.Duration {
	if w.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(w.Samples)) / float64(w.SampleRate) * float64(time.Second))
}

// Embedding is a fixed-length vector summarizing one recording.
type Embedding []float64

// Profile is an enrolled speaker.
type Profile = profilestore.Profile

// MeanEmbedding returns the elementwise arithmetic mean of embeddings.
// All embeddings must have the same length.
func MeanEmbedding(embeddings []Embedding) (Embedding, error) {
	if len(embeddings) == 0 {
		return nil, ErrInvalidSampleCount
	}
	dim := len(embeddings[0])
	mean := make(Embedding, dim)
	for _, e := range embeddings {
		if len(e) != dim {
			return nil, dimensionError(dim, len(e))
		}
		for i, v := range e {
			mean[i] += v
		}
	}
	n := float64(len(embeddings))
	for i := range mean {
		mean[i] /= n
	}
	return mean, nil
}
