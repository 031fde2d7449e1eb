package voiceid

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ridhamguptaprogramming-ops/JARVIS-voice-assistant/pkg/audio/resampler"
	"github.com/ridhamguptaprogramming-ops/JARVIS-voice-assistant/pkg/voiceid/profilestore"
)

// Options configures an Engine. The zero value uses the package defaults.
type Options struct {
	// Extractor computes embeddings. Default: NewExtractor().
	Extractor FeatureExtractor

	// Threshold is the cosine distance below which Verify accepts the
	// nearest profile. Default: DefaultThreshold.
	Threshold float64

	// Duration is the length of each capture. Default: RecordDuration.
	Duration time.Duration

	// BeforeCapture, if set, runs right before each recording with the
	// 1-based sample index and the sample total (1 for Verify). It is where
	// callers prompt the speaker. An error aborts the call.
	BeforeCapture func(ctx context.Context, sample, total int) error

	// Logger receives structured events. Default: slog.Default().
	Logger *slog.Logger

	// Now returns the enrollment timestamp. Default: time.Now.
	Now func() time.Time
}

// Engine runs enrollment and verification against a profile store.
//
// An Engine is safe for concurrent use. Calls that record audio are
// serialized: only one Enroll or Verify holds the microphone at a time.
// Extraction and matching run outside that lock.
type Engine struct {
	capturer  Capturer
	store     profilestore.Store
	extractor FeatureExtractor
	threshold float64
	duration  time.Duration
	before    func(ctx context.Context, sample, total int) error
	logger    *slog.Logger
	now       func() time.Time

	// mic serializes access to the capturer.
	mic sync.Mutex
}

// NewEngine creates an Engine reading audio from c and persisting profiles
// in store.
func NewEngine(c Capturer, store profilestore.Store, opts Options) (*Engine, error) {
	if c == nil {
		return nil, errors.New("voiceid: nil capturer")
	}
	if store == nil {
		return nil, errors.New("voiceid: nil store")
	}
	e := &Engine{
		capturer:  c,
		store:     store,
		extractor: opts.Extractor,
		threshold: opts.Threshold,
		duration:  opts.Duration,
		before:    opts.BeforeCapture,
		logger:    opts.Logger,
		now:       opts.Now,
	}
	if e.extractor == nil {
		e.extractor = NewExtractor()
	}
	if e.threshold == 0 {
		e.threshold = DefaultThreshold
	}
	if e.threshold < 0 {
		return nil, fmt.Errorf("voiceid: negative threshold %g", e.threshold)
	}
	if e.duration == 0 {
		e.duration = RecordDuration
	}
	if e.duration < 0 {
		return nil, fmt.Errorf("voiceid: negative capture duration %v", e.duration)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e, nil
}

// Threshold returns the acceptance threshold in use.
func (e *Engine) Threshold() float64 { return e.threshold }

// Enrollment is the result of a successful Enroll.
type Enrollment struct {
	// Profile is the stored profile.
	Profile Profile

	// Embeddings are the per-sample embeddings averaged into Profile.
	Embeddings []Embedding
}

// Enroll records samples recordings of name, averages their embeddings and
// stores the result, replacing any existing profile for name.
//
// Enrollment is all-or-nothing: if any recording or extraction fails the
// store is left untouched and the error is a *SampleError wrapping
// ErrCapture or ErrFeatureExtraction.
func (e *Engine) Enroll(ctx context.Context, name string, samples int) (*Enrollment, error) {
	if err := profilestore.ValidateName(name); err != nil {
		return nil, err
	}
	if samples < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSampleCount, samples)
	}

	log := e.logger.With("speaker", name)
	embeddings, err := e.captureEmbeddings(ctx, log, samples)
	if err != nil {
		log.Warn("enrollment aborted", "error", err)
		return nil, err
	}

	mean, err := MeanEmbedding(embeddings)
	if err != nil {
		return nil, err
	}
	p := Profile{
		Name:       name,
		Embedding:  mean,
		Samples:    samples,
		EnrolledAt: e.now(),
	}
	if err := e.store.Put(ctx, p); err != nil {
		return nil, fmt.Errorf("voiceid: store profile %s: %w", name, err)
	}
	log.Info("speaker enrolled", "samples", samples)
	return &Enrollment{Profile: p, Embeddings: embeddings}, nil
}

// captureEmbeddings records and extracts n samples while holding the
// microphone. Each sample is extracted right after it is recorded so that a
// bad sample aborts before the next recording.
func (e *Engine) captureEmbeddings(ctx context.Context, log *slog.Logger, n int) ([]Embedding, error) {
	e.mic.Lock()
	defer e.mic.Unlock()

	out := make([]Embedding, 0, n)
	for i := 1; i <= n; i++ {
		w, err := e.capture(ctx, i, n)
		if err != nil {
			return nil, &SampleError{Sample: i, Of: n, Err: err}
		}
		emb, err := e.extract(w)
		if err != nil {
			return nil, &SampleError{Sample: i, Of: n, Err: err}
		}
		log.Debug("sample captured", "sample", i, "of", n, "duration", w.Duration())
		out = append(out, emb)
	}
	return out, nil
}

// capture runs the prompt hook and one recording. The caller holds e.mic.
func (e *Engine) capture(ctx context.Context, sample, total int) (Waveform, error) {
	if err := ctx.Err(); err != nil {
		return Waveform{}, fmt.Errorf("%w: %w", ErrCapture, err)
	}
	if e.before != nil {
		if err := e.before(ctx, sample, total); err != nil {
			return Waveform{}, fmt.Errorf("%w: %w", ErrCapture, err)
		}
	}
	w, err := e.capturer.Capture(ctx, e.duration)
	if err != nil {
		return Waveform{}, fmt.Errorf("%w: %w", ErrCapture, err)
	}
	return w, nil
}

// extract converts w to the extractor's sample rate if needed and computes
// its embedding.
func (e *Engine) extract(w Waveform) (Embedding, error) {
	if rate := e.extractor.SampleRate(); w.SampleRate != rate && len(w.Samples) > 0 {
		samples, err := resampler.Resample(w.Samples, w.SampleRate, rate)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFeatureExtraction, err)
		}
		w = Waveform{Samples: samples, SampleRate: rate}
	}
	emb, err := e.extractor.Extract(w)
	if err != nil {
		if !errors.Is(err, ErrFeatureExtraction) {
			err = fmt.Errorf("%w: %w", ErrFeatureExtraction, err)
		}
		return nil, err
	}
	if len(emb) != e.extractor.Dimension() {
		return nil, fmt.Errorf("%w: %w", ErrFeatureExtraction, dimensionError(e.extractor.Dimension(), len(emb)))
	}
	return emb, nil
}

// Verification is the result of Verify.
type Verification struct {
	MatchResult

	// Captured reports whether audio was recorded. It is false when the
	// store held no comparable profile.
	Captured bool `json:"captured" yaml:"captured"`

	// Compared is the number of profiles the candidate was compared with.
	Compared int `json:"compared" yaml:"compared"`

	// Skipped lists stored records that could not be used.
	Skipped []profilestore.SkippedRecord `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

// Verify records one sample and matches it against every stored profile.
//
// The store is read on every call. If it holds no usable profile, Verify
// returns an unknown result without recording. Recording or extraction
// failures are returned as errors, never as an unknown result.
func (e *Engine) Verify(ctx context.Context) (*Verification, error) {
	profiles, skipped, err := e.loadProfiles(ctx)
	if err != nil {
		return nil, err
	}
	v := &Verification{MatchResult: unknown(), Skipped: skipped}
	if len(profiles) == 0 {
		e.logger.Info("no enrolled speakers, skipping capture")
		return v, nil
	}

	w, err := e.captureOne(ctx)
	if err != nil {
		e.logger.Warn("verification aborted", "error", err)
		return nil, err
	}
	v.Captured = true

	emb, err := e.extract(w)
	if err != nil {
		e.logger.Warn("verification aborted", "error", err)
		return nil, err
	}

	r, err := Match(emb, profiles, e.threshold)
	if err != nil {
		return nil, err
	}
	v.MatchResult = r
	v.Compared = len(profiles)
	e.logger.Info("speaker verified",
		"result", r.Label(),
		"nearest", r.Nearest,
		"distance", r.Distance,
		"threshold", e.threshold,
	)
	return v, nil
}

func (e *Engine) captureOne(ctx context.Context) (Waveform, error) {
	e.mic.Lock()
	defer e.mic.Unlock()
	return e.capture(ctx, 1, 1)
}

// loadProfiles lists the store and drops records that cannot be compared
// with this engine's embeddings. Every dropped record is logged.
func (e *Engine) loadProfiles(ctx context.Context) ([]Profile, []profilestore.SkippedRecord, error) {
	l, err := e.store.List(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("voiceid: list profiles: %w", err)
	}
	skipped := l.Skipped
	dim := e.extractor.Dimension()
	profiles := make([]Profile, 0, len(l.Profiles))
	for _, p := range l.Profiles {
		if len(p.Embedding) != dim {
			skipped = append(skipped, profilestore.SkippedRecord{
				Key: p.Name,
				Err: dimensionError(dim, len(p.Embedding)),
			})
			continue
		}
		profiles = append(profiles, p)
	}
	for _, s := range skipped {
		e.logger.Warn("skipping unreadable speaker profile", "key", s.Key, "error", s.Err)
	}
	return profiles, skipped, nil
}

// Profiles returns every readable stored profile, logging unreadable ones.
func (e *Engine) Profiles(ctx context.Context) (*profilestore.Listing, error) {
	profiles, skipped, err := e.loadProfiles(ctx)
	if err != nil {
		return nil, err
	}
	return &profilestore.Listing{Profiles: profiles, Skipped: skipped}, nil
}

// Remove deletes the profile for name.
func (e *Engine) Remove(ctx context.Context, name string) error {
	if err := profilestore.ValidateName(name); err != nil {
		return err
	}
	// A corrupt record can still be removed.
	if _, err := e.store.Get(ctx, name); err != nil && !errors.Is(err, profilestore.ErrCorrupt) {
		return err
	}
	if err := e.store.Delete(ctx, name); err != nil {
		return fmt.Errorf("voiceid: delete profile %s: %w", name, err)
	}
	e.logger.Info("speaker removed", "speaker", name)
	return nil
}
