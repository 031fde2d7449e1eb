package voiceid

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ridhamguptaprogramming-ops/JARVIS-voice-assistant/pkg/voiceid/profilestore"
)

// ---------------------------------------------------------------------------
// fakes
// ---------------------------------------------------------------------------

// fakeCapturer returns short silent waveforms and counts calls.
// failAt makes the n-th call (1-based) fail.
type fakeCapturer struct {
	calls  atomic.Int32
	failAt int32
	rate   int
}

func (c *fakeCapturer) Capture(ctx context.Context, d time.Duration) (Waveform, error) {
	n := c.calls.Add(1)
	if n == c.failAt {
		return Waveform{}, errors.New("microphone unplugged")
	}
	rate := c.rate
	if rate == 0 {
		rate = SampleRate
	}
	return Waveform{Samples: make([]float32, 4096), SampleRate: rate}, nil
}

// scriptedExtractor returns queued embeddings in order, ignoring the audio.
// A nil entry makes that call fail.
type scriptedExtractor struct {
	mu    sync.Mutex
	queue []Embedding
}

func (s *scriptedExtractor) push(es ...Embedding) {
	s.mu.Lock()
	s.queue = append(s.queue, es...)
	s.mu.Unlock()
}

func (s *scriptedExtractor) Extract(w Waveform) (Embedding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return nil, errors.New("script exhausted")
	}
	e := s.queue[0]
	s.queue = s.queue[1:]
	if e == nil {
		return nil, errors.New("malformed waveform")
	}
	return e, nil
}

func (s *scriptedExtractor) SampleRate() int { return SampleRate }
func (s *scriptedExtractor) Dimension() int  { return Dimension }

func emb(first float64, rest ...float64) Embedding {
	e := make(Embedding, Dimension)
	e[0] = first
	copy(e[1:], rest)
	return e
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type harness struct {
	engine    *Engine
	capturer  *fakeCapturer
	extractor *scriptedExtractor
	store     profilestore.Store
}

func newHarness(t *testing.T, store profilestore.Store) *harness {
	t.Helper()
	if store == nil {
		store = profilestore.NewMemory()
	}
	h := &harness{
		capturer:  &fakeCapturer{},
		extractor: &scriptedExtractor{},
		store:     store,
	}
	e, err := NewEngine(h.capturer, store, Options{
		Extractor: h.extractor,
		Logger:    quietLogger(),
	})
	if err != nil {
		t.Fatal(err)
	}
	h.engine = e
	return h
}

func (h *harness) enroll(t *testing.T, name string, embeddings ...Embedding) *Enrollment {
	t.Helper()
	h.extractor.push(embeddings...)
	en, err := h.engine.Enroll(context.Background(), name, len(embeddings))
	if err != nil {
		t.Fatalf("Enroll(%s): %v", name, err)
	}
	return en
}

func (h *harness) verify(t *testing.T, candidate Embedding) *Verification {
	t.Helper()
	h.extractor.push(candidate)
	v, err := h.engine.Verify(context.Background())
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	return v
}

// ---------------------------------------------------------------------------
// tests
// ---------------------------------------------------------------------------

func TestEnrollVerifyRoundTrip(t *testing.T) {
	for _, name := range []string{"alice", "Bob", "carol smith", "名字"} {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t, nil)
			e := emb(0.3, -1.2, 4.5, 0.01)
			h.enroll(t, name, e)

			v := h.verify(t, e)
			if !v.Known || v.Speaker != name {
				t.Fatalf("Verify = %+v, want %s", v.MatchResult, name)
			}
			if v.Distance > 1e-12 {
				t.Fatalf("distance = %g, want 0", v.Distance)
			}
			if v.Label() != name {
				t.Fatalf("Label = %q", v.Label())
			}
		})
	}
}

func TestVerifyEmptyStoreSkipsCapture(t *testing.T) {
	h := newHarness(t, nil)
	v, err := h.engine.Verify(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if v.Known || v.Label() != UnknownToken {
		t.Fatalf("Verify = %+v, want unknown", v.MatchResult)
	}
	if v.Captured {
		t.Fatal("Captured = true for empty store")
	}
	if n := h.capturer.calls.Load(); n != 0 {
		t.Fatalf("capture called %d times, want 0", n)
	}
	if !math.IsInf(v.Distance, 1) {
		t.Fatalf("distance = %g, want +Inf", v.Distance)
	}
}

func TestReenrollOverwrites(t *testing.T) {
	h := newHarness(t, nil)
	h.enroll(t, "alice", emb(1))
	h.enroll(t, "alice", emb(0, 1), emb(0, 3))

	l, err := h.store.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(l.Profiles) != 1 {
		t.Fatalf("stored %d profiles, want 1", len(l.Profiles))
	}
	p := l.Profiles[0]
	if p.Embedding[0] != 0 || p.Embedding[1] != 2 || p.Samples != 2 {
		t.Fatalf("profile = %+v, want re-enrolled embedding", p)
	}
}

func TestEnrollStoresExactMean(t *testing.T) {
	h := newHarness(t, nil)
	samples := []Embedding{
		emb(1, 2, 3),
		emb(4, 5, 6),
		emb(-2, 0.5, 9),
		emb(0.25, 0.125, -3),
	}
	h.enroll(t, "dave", samples...)

	p, err := h.store.Get(context.Background(), "dave")
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < Dimension; i++ {
		var want float64
		for _, s := range samples {
			want += s[i]
		}
		want /= float64(len(samples))
		if math.Abs(p.Embedding[i]-want) > 1e-12 {
			t.Fatalf("embedding[%d] = %g, want %g", i, p.Embedding[i], want)
		}
	}
	if p.Samples != 4 {
		t.Fatalf("Samples = %d, want 4", p.Samples)
	}
}

func TestEnrollAllOrNothing(t *testing.T) {
	tests := []struct {
		name     string
		failAt   int32
		script   []Embedding
		wantErr  error
		wantCall int32
	}{
		{"capture fails on first", 1, nil, ErrCapture, 1},
		{"capture fails on last", 3, []Embedding{emb(5), emb(5)}, ErrCapture, 3},
		{"extraction fails on second", 0, []Embedding{emb(5), nil}, ErrFeatureExtraction, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil)
			h.enroll(t, "alice", emb(1))
			h.capturer.calls.Store(0)
			h.capturer.failAt = tt.failAt
			h.extractor.push(tt.script...)

			_, err := h.engine.Enroll(context.Background(), "alice", 3)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			var se *SampleError
			if !errors.As(err, &se) || se.Sample != int(tt.wantCall) || se.Of != 3 {
				t.Fatalf("err = %#v, want SampleError at sample %d", err, tt.wantCall)
			}
			if n := h.capturer.calls.Load(); n != tt.wantCall {
				t.Fatalf("capture calls = %d, want %d", n, tt.wantCall)
			}

			p, err := h.store.Get(context.Background(), "alice")
			if err != nil {
				t.Fatal(err)
			}
			if p.Embedding[0] != 1 || p.Samples != 1 {
				t.Fatalf("profile changed after failed enrollment: %+v", p)
			}
		})
	}
}

func TestEnrollFailureLeavesEmptyStoreEmpty(t *testing.T) {
	h := newHarness(t, nil)
	h.capturer.failAt = 2
	h.extractor.push(emb(1))
	if _, err := h.engine.Enroll(context.Background(), "alice", 2); err == nil {
		t.Fatal("expected error")
	}
	l, err := h.store.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(l.Profiles) != 0 {
		t.Fatalf("store not empty: %v", l.Names())
	}
}

func TestEnrollRejectsBadArguments(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	if _, err := h.engine.Enroll(ctx, "alice", 0); !errors.Is(err, ErrInvalidSampleCount) {
		t.Fatalf("samples=0: err = %v", err)
	}
	if _, err := h.engine.Enroll(ctx, "../x", 1); !errors.Is(err, profilestore.ErrInvalidName) {
		t.Fatalf("bad name: err = %v", err)
	}
	if n := h.capturer.calls.Load(); n != 0 {
		t.Fatalf("capture called %d times for invalid arguments", n)
	}
}

func TestAliceScenario(t *testing.T) {
	h := newHarness(t, nil)
	h.enroll(t, "alice", emb(0), emb(2), emb(1))

	p, err := h.store.Get(context.Background(), "alice")
	if err != nil {
		t.Fatal(err)
	}
	if p.Embedding[0] != 1.0 {
		t.Fatalf("stored first coefficient = %g, want 1.0", p.Embedding[0])
	}

	v := h.verify(t, emb(1.05))
	if !v.Known || v.Speaker != "alice" {
		t.Fatalf("Verify([1.05,0,...]) = %+v, want alice", v.MatchResult)
	}
	if v.Distance > 1e-12 {
		t.Fatalf("distance = %g, want ~0", v.Distance)
	}

	// cos = 0.4 gives distance 0.6.
	v = h.verify(t, emb(0.4, math.Sqrt(1-0.16)))
	if math.Abs(v.Distance-0.6) > 1e-9 {
		t.Fatalf("distance = %g, want 0.6", v.Distance)
	}
	if v.Known || v.Label() != UnknownToken {
		t.Fatalf("Verify = %+v, want unknown", v.MatchResult)
	}
	if v.Nearest != "alice" {
		t.Fatalf("Nearest = %q, want alice", v.Nearest)
	}
}

func TestVerifyPicksNearest(t *testing.T) {
	h := newHarness(t, nil)
	h.enroll(t, "alice", emb(1, 0))
	h.enroll(t, "bob", emb(0, 1))

	v := h.verify(t, emb(0.2, 1))
	if v.Speaker != "bob" {
		t.Fatalf("Speaker = %q, want bob", v.Speaker)
	}
	if v.Compared != 2 {
		t.Fatalf("Compared = %d, want 2", v.Compared)
	}
}

func TestVerifyCaptureFailureIsError(t *testing.T) {
	h := newHarness(t, nil)
	h.enroll(t, "alice", emb(1))
	h.capturer.calls.Store(0)
	h.capturer.failAt = 1

	v, err := h.engine.Verify(context.Background())
	if !errors.Is(err, ErrCapture) {
		t.Fatalf("err = %v, want ErrCapture", err)
	}
	if v != nil {
		t.Fatalf("got result %+v alongside error", v)
	}
}

func TestVerifyExtractionFailureIsError(t *testing.T) {
	h := newHarness(t, nil)
	h.enroll(t, "alice", emb(1))
	h.extractor.push(nil)

	_, err := h.engine.Verify(context.Background())
	if !errors.Is(err, ErrFeatureExtraction) {
		t.Fatalf("err = %v, want ErrFeatureExtraction", err)
	}
}

func TestVerifySkipsUnusableProfiles(t *testing.T) {
	dir := t.TempDir()
	store, err := profilestore.NewDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	h := newHarness(t, store)
	h.enroll(t, "alice", emb(1))

	if err := os.WriteFile(filepath.Join(dir, "bob.vpr"), []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := store.Put(context.Background(), profilestore.Profile{Name: "carol", Embedding: []float64{1, 2, 3}}); err != nil {
		t.Fatal(err)
	}

	v := h.verify(t, emb(1))
	if v.Speaker != "alice" {
		t.Fatalf("Speaker = %q, want alice", v.Speaker)
	}
	if len(v.Skipped) != 2 {
		t.Fatalf("Skipped = %v, want bob and carol", v.Skipped)
	}
	if !errors.Is(v.Skipped[0], profilestore.ErrCorrupt) {
		t.Fatalf("Skipped[0] = %v, want ErrCorrupt", v.Skipped[0])
	}
	if !errors.Is(v.Skipped[1], ErrDimensionMismatch) {
		t.Fatalf("Skipped[1] = %v, want ErrDimensionMismatch", v.Skipped[1])
	}
}

func TestVerifyOnlyCorruptProfilesSkipsCapture(t *testing.T) {
	dir := t.TempDir()
	store, err := profilestore.NewDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "bob.vpr"), []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}
	h := newHarness(t, store)

	v, err := h.engine.Verify(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if v.Known || v.Captured || len(v.Skipped) != 1 {
		t.Fatalf("Verify = %+v", v)
	}
	if n := h.capturer.calls.Load(); n != 0 {
		t.Fatalf("capture called %d times", n)
	}
}

func TestVerifyReadsLatestState(t *testing.T) {
	h := newHarness(t, nil)
	h.enroll(t, "alice", emb(1))

	// Another writer replaces the profile behind the engine's back.
	if err := h.store.Put(context.Background(), profilestore.Profile{Name: "alice", Embedding: emb(0, 1)}); err != nil {
		t.Fatal(err)
	}
	v := h.verify(t, emb(1))
	if v.Known {
		t.Fatalf("Verify used stale profile: %+v", v.MatchResult)
	}
}

func TestBeforeCaptureHook(t *testing.T) {
	var prompts [][2]int
	capt := &fakeCapturer{}
	ex := &scriptedExtractor{}
	e, err := NewEngine(capt, profilestore.NewMemory(), Options{
		Extractor: ex,
		Logger:    quietLogger(),
		BeforeCapture: func(_ context.Context, sample, total int) error {
			prompts = append(prompts, [2]int{sample, total})
			return nil
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	ex.push(emb(1), emb(1), emb(1))
	if _, err := e.Enroll(context.Background(), "alice", 3); err != nil {
		t.Fatal(err)
	}
	want := [][2]int{{1, 3}, {2, 3}, {3, 3}}
	if len(prompts) != len(want) {
		t.Fatalf("prompts = %v, want %v", prompts, want)
	}
	for i := range want {
		if prompts[i] != want[i] {
			t.Fatalf("prompts = %v, want %v", prompts, want)
		}
	}
}

func TestCancelledContextAbortsCapture(t *testing.T) {
	h := newHarness(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := h.engine.Enroll(ctx, "alice", 1)
	if !errors.Is(err, ErrCapture) || !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want ErrCapture wrapping context.Canceled", err)
	}
	if n := h.capturer.calls.Load(); n != 0 {
		t.Fatalf("capture called %d times", n)
	}
}

// exclusiveCapturer fails the test if two captures overlap.
type exclusiveCapturer struct {
	active  atomic.Int32
	overlap atomic.Bool
}

func (c *exclusiveCapturer) Capture(ctx context.Context, d time.Duration) (Waveform, error) {
	if c.active.Add(1) > 1 {
		c.overlap.Store(true)
	}
	time.Sleep(2 * time.Millisecond)
	c.active.Add(-1)
	return Waveform{Samples: make([]float32, 16), SampleRate: SampleRate}, nil
}

// constExtractor returns the same embedding for every waveform.
type constExtractor struct{ e Embedding }

func (c constExtractor) Extract(Waveform) (Embedding, error) { return c.e, nil }
func (c constExtractor) SampleRate() int                     { return SampleRate }
func (c constExtractor) Dimension() int                      { return len(c.e) }

func TestCaptureIsSerialized(t *testing.T) {
	capt := &exclusiveCapturer{}
	e, err := NewEngine(capt, profilestore.NewMemory(), Options{
		Extractor: constExtractor{emb(1)},
		Logger:    quietLogger(),
	})
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if _, err := e.Enroll(ctx, "alice", 1); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if _, err := e.Verify(ctx); err != nil {
				t.Error(err)
			}
		}()
		go func() {
			defer wg.Done()
			if _, err := e.Enroll(ctx, "alice", 2); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()
	if capt.overlap.Load() {
		t.Fatal("captures overlapped")
	}
}

func TestNewEngineValidation(t *testing.T) {
	store := profilestore.NewMemory()
	capt := &fakeCapturer{}
	if _, err := NewEngine(nil, store, Options{}); err == nil {
		t.Error("expected error for nil capturer")
	}
	if _, err := NewEngine(capt, nil, Options{}); err == nil {
		t.Error("expected error for nil store")
	}
	if _, err := NewEngine(capt, store, Options{Threshold: -1}); err == nil {
		t.Error("expected error for negative threshold")
	}
	e, err := NewEngine(capt, store, Options{Logger: quietLogger()})
	if err != nil {
		t.Fatal(err)
	}
	if e.Threshold() != DefaultThreshold {
		t.Errorf("Threshold = %g, want %g", e.Threshold(), DefaultThreshold)
	}
}

func TestRemove(t *testing.T) {
	h := newHarness(t, nil)
	h.enroll(t, "alice", emb(1))
	ctx := context.Background()

	if err := h.engine.Remove(ctx, "alice"); err != nil {
		t.Fatal(err)
	}
	if err := h.engine.Remove(ctx, "alice"); !errors.Is(err, profilestore.ErrNotFound) {
		t.Fatalf("second Remove = %v, want ErrNotFound", err)
	}
	l, err := h.engine.Profiles(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(l.Profiles) != 0 {
		t.Fatalf("profiles left: %v", l.Names())
	}
}
