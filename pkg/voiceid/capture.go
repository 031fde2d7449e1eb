package voiceid

import (
	"context"
	"time"
)

// Capturer records audio from the speaker. It is the boundary to the
// microphone: device selection, calibration and timeouts are its concern.
type Capturer interface {
	// Capture records d of mono audio.
	Capture(ctx context.Context, d time.Duration) (Waveform, error)
}

// CaptureFunc adapts a function to the Capturer interface.
type CaptureFunc func(ctx context.Context, d time.Duration) (Waveform, error)

func (f CaptureFunc) Capture(ctx context.Context, d time.Duration) (Waveform, error) {
	return f(ctx, d)
}
