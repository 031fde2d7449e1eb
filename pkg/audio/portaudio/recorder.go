package portaudio

import (
	"context"
	"fmt"
	"math"
	"time"
)

// DefaultBufferDuration is the read granularity used when Recorder.Buffer is zero.
const DefaultBufferDuration = 20 * time.Millisecond

// Recorder captures fixed-length mono recordings from the default input device.
//
// A Recorder is not safe for concurrent use; callers sharing one microphone
// must serialize Record calls.
type Recorder struct {
	// SampleRate is the capture rate in Hz. Zero uses the device default rate.
	SampleRate int

	// Buffer is the duration of each blocking read. Zero uses DefaultBufferDuration.
	Buffer time.Duration
}

// Record captures d of audio and returns normalized samples in [-1, 1]
// together with the rate they were captured at. The context is checked
// between buffer reads; a cancelled context aborts the recording.
func (r *Recorder) Record(ctx context.Context, d time.Duration) ([]float32, int, error) {
	if d <= 0 {
		return nil, 0, fmt.Errorf("portaudio: invalid duration %v", d)
	}

	rate := r.SampleRate
	if rate <= 0 {
		dev, err := DefaultInputDevice()
		if err != nil {
			return nil, 0, err
		}
		rate = int(math.Round(dev.DefaultSampleRate))
	}
	buf := r.Buffer
	if buf <= 0 {
		buf = DefaultBufferDuration
	}

	frames := max(1, int(float64(rate)*buf.Seconds()))
	total := int(float64(rate) * d.Seconds())

	s, err := openInput(float64(rate), frames)
	if err != nil {
		return nil, 0, err
	}
	defer s.Close()

	out := make([]float32, 0, total+frames)
	for len(out) < total {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		chunk, err := s.read()
		if err != nil {
			return nil, 0, err
		}
		out = appendNormalized(out, chunk)
	}
	return out[:total], rate, nil
}

// appendNormalized converts int16 samples to float32 in [-1, 1).
func appendNormalized(dst []float32, src []int16) []float32 {
	for _, s := range src {
		dst = append(dst, float32(s)/32768.0)
	}
	return dst
}
