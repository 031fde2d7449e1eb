package voiceid

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	// ErrDependencyMissing means a required capability (audio input, store
	// backend) is unavailable. It is fatal at startup, not per call.
	ErrDependencyMissing = errors.New("voiceid: dependency missing")

	// ErrCapture means the audio collaborator failed for one attempt.
	ErrCapture = errors.New("voiceid: capture failed")

	// ErrFeatureExtraction means a waveform was empty, too short or malformed.
	ErrFeatureExtraction = errors.New("voiceid: feature extraction failed")

	// ErrDimensionMismatch means two embeddings of different lengths were compared.
	ErrDimensionMismatch = errors.New("voiceid: embedding dimension mismatch")

	// ErrInvalidSampleCount means an enrollment asked for fewer than one sample.
	ErrInvalidSampleCount = errors.New("voiceid: sample count must be at least 1")
)

// DependencyError reports an unavailable capability by name.
type DependencyError struct {
	// Name identifies the missing capability (e.g. "portaudio").
	Name string

	// Err is the probe failure.
	Err error
}

func (e *DependencyError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("voiceid: missing dependency %s", e.Name)
	}
	return fmt.Sprintf("voiceid: missing dependency %s: %v", e.Name, e.Err)
}

func (e *DependencyError) Unwrap() error { return e.Err }

// Is reports ErrDependencyMissing as a match so callers can test for the class.
func (e *DependencyError) Is(target error) bool {
	return target == ErrDependencyMissing
}

// SampleError reports which enrollment sample failed.
type SampleError struct {
	// Sample is the 1-based index of the failing sample.
	Sample int

	// Of is the number of samples requested.
	Of int

	// Err wraps ErrCapture or ErrFeatureExtraction.
	Err error
}

func (e *SampleError) Error() string {
	return fmt.Sprintf("voiceid: sample %d/%d: %v", e.Sample, e.Of, e.Err)
}

func (e *SampleError) Unwrap() error { return e.Err }

func dimensionError(want, got int) error {
	return fmt.Errorf("%w: want %d, got %d", ErrDimensionMismatch, want, got)
}
