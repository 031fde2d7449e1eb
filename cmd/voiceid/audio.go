package main

import (
	"context"
	"time"

	"github.com/ridhamguptaprogramming-ops/JARVIS-voice-assistant/cmd/voiceid/commands"
	"github.com/ridhamguptaprogramming-ops/JARVIS-voice-assistant/pkg/audio/portaudio"
	"github.com/ridhamguptaprogramming-ops/JARVIS-voice-assistant/pkg/voiceid"
)

// portaudioBackend records from the default PortAudio input device.
type portaudioBackend struct{}

func (portaudioBackend) Check(context.Context) error {
	_, err := portaudio.DefaultInputDevice()
	return err
}

func (portaudioBackend) Capturer(sampleRate int) voiceid.Capturer {
	rec := &portaudio.Recorder{SampleRate: sampleRate}
	return voiceid.CaptureFunc(func(ctx context.Context, d time.Duration) (voiceid.Waveform, error) {
		samples, rate, err := rec.Record(ctx, d)
		if err != nil {
			return voiceid.Waveform{}, err
		}
		return voiceid.Waveform{Samples: samples, SampleRate: rate}, nil
	})
}

func (portaudioBackend) Devices() ([]commands.Device, error) {
	infos, err := portaudio.InputDevices()
	if err != nil {
		return nil, err
	}
	devices := make([]commands.Device, 0, len(infos))
	for _, d := range infos {
		devices = append(devices, commands.Device{
			Index:      d.Index,
			Name:       d.Name,
			Channels:   d.MaxInputChannels,
			SampleRate: d.DefaultSampleRate,
			Default:    d.IsDefaultInput,
		})
	}
	return devices, nil
}

// terminateAudio releases PortAudio if a command initialized it.
func terminateAudio() {
	if portaudio.Initialized() {
		portaudio.Terminate()
	}
}
