// Package portaudio records microphone audio through the PortAudio library.
//
// This package uses CGO to interface with the PortAudio C library and only
// exposes what speaker enrollment and verification need: device discovery
// and fixed-duration mono capture from the default input device.
//
// Requires portaudio installed via pkg-config (brew install portaudio,
// apt install portaudio19-dev).
package portaudio

/*
#cgo pkg-config: portaudio-2.0

#include <portaudio.h>
#include <stdlib.h>
#include <string.h>

// Wrapper functions using void* to avoid CGO type issues with PaStream
static PaError pa_open_input(void **stream,
                             const PaStreamParameters *inputParams,
                             double sampleRate,
                             unsigned long framesPerBuffer) {
    return Pa_OpenStream((PaStream**)stream, inputParams, NULL, sampleRate,
                         framesPerBuffer, paClipOff, NULL, NULL);
}

static PaError pa_start_stream(void *stream) {
    return Pa_StartStream((PaStream*)stream);
}

static PaError pa_stop_stream(void *stream) {
    return Pa_StopStream((PaStream*)stream);
}

static PaError pa_close_stream(void *stream) {
    return Pa_CloseStream((PaStream*)stream);
}

static PaError pa_read_stream(void *stream, void *buffer, unsigned long frames) {
    return Pa_ReadStream((PaStream*)stream, buffer, frames);
}
*/
import "C"

import (
	"errors"
	"sync"
	"unsafe"
)

// ErrNoInputDevice is returned when the host has no default input device.
var ErrNoInputDevice = errors.New("portaudio: no default input device")

var (
	initMu   sync.Mutex
	initDone bool
	initErr  error
)

// paError converts a PortAudio error code to a Go error.
func paError(code C.PaError) error {
	if code == C.paNoError {
		return nil
	}
	return errors.New("portaudio: " + C.GoString(C.Pa_GetErrorText(code)))
}

// Initialize initializes the PortAudio library.
// It is safe to call multiple times.
func Initialize() error {
	initMu.Lock()
	defer initMu.Unlock()
	if !initDone {
		initErr = paError(C.Pa_Initialize())
		initDone = true
	}
	return initErr
}

// Initialized reports whether Initialize has succeeded.
func Initialized() bool {
	initMu.Lock()
	defer initMu.Unlock()
	return initDone && initErr == nil
}

// Terminate terminates the PortAudio library. After Terminate, Initialize
// may be called again.
func Terminate() error {
	initMu.Lock()
	defer initMu.Unlock()
	if !initDone || initErr != nil {
		return nil
	}
	initDone = false
	return paError(C.Pa_Terminate())
}

// DeviceInfo describes an audio input device.
type DeviceInfo struct {
	Index             int     `json:"index" yaml:"index"`
	Name              string  `json:"name" yaml:"name"`
	MaxInputChannels  int     `json:"max_input_channels" yaml:"max_input_channels"`
	DefaultSampleRate float64 `json:"default_sample_rate" yaml:"default_sample_rate"`
	IsDefaultInput    bool    `json:"default" yaml:"default"`
}

// InputDevices returns all devices with at least one input channel.
func InputDevices() ([]DeviceInfo, error) {
	if err := Initialize(); err != nil {
		return nil, err
	}

	count := int(C.Pa_GetDeviceCount())
	if count < 0 {
		return nil, paError(C.PaError(count))
	}
	defaultInput := int(C.Pa_GetDefaultInputDevice())

	var devices []DeviceInfo
	for i := 0; i < count; i++ {
		info := C.Pa_GetDeviceInfo(C.PaDeviceIndex(i))
		if info == nil || info.maxInputChannels < 1 {
			continue
		}
		devices = append(devices, DeviceInfo{
			Index:             i,
			Name:              C.GoString(info.name),
			MaxInputChannels:  int(info.maxInputChannels),
			DefaultSampleRate: float64(info.defaultSampleRate),
			IsDefaultInput:    i == defaultInput,
		})
	}
	return devices, nil
}

// DefaultInputDevice returns the default input device.
func DefaultInputDevice() (*DeviceInfo, error) {
	if err := Initialize(); err != nil {
		return nil, err
	}

	idx := C.Pa_GetDefaultInputDevice()
	if idx == C.paNoDevice {
		return nil, ErrNoInputDevice
	}
	info := C.Pa_GetDeviceInfo(idx)
	if info == nil {
		return nil, errors.New("portaudio: failed to get device info")
	}
	return &DeviceInfo{
		Index:             int(idx),
		Name:              C.GoString(info.name),
		MaxInputChannels:  int(info.maxInputChannels),
		DefaultSampleRate: float64(info.defaultSampleRate),
		IsDefaultInput:    true,
	}, nil
}

// stream is an open mono int16 input stream on the default device.
type stream struct {
	stream unsafe.Pointer
	buffer unsafe.Pointer
	frames int
	closed bool
	mu     sync.Mutex
}

// openInput opens and starts a mono int16 stream on the default input device.
func openInput(sampleRate float64, framesPerBuffer int) (*stream, error) {
	if err := Initialize(); err != nil {
		return nil, err
	}

	device := C.Pa_GetDefaultInputDevice()
	if device == C.paNoDevice {
		return nil, ErrNoInputDevice
	}
	info := C.Pa_GetDeviceInfo(device)
	params := &C.PaStreamParameters{
		device:                    device,
		channelCount:              1,
		sampleFormat:              C.paInt16,
		suggestedLatency:          info.defaultLowInputLatency,
		hostApiSpecificStreamInfo: nil,
	}

	var paStream unsafe.Pointer
	if err := paError(C.pa_open_input(&paStream, params, C.double(sampleRate), C.ulong(framesPerBuffer))); err != nil {
		return nil, err
	}

	s := &stream{
		stream: paStream,
		buffer: C.malloc(C.size_t(framesPerBuffer * 2)), // int16 = 2 bytes
		frames: framesPerBuffer,
	}
	if err := paError(C.pa_start_stream(paStream)); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// read blocks until one buffer of frames is available.
func (s *stream) read() ([]int16, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, errors.New("portaudio: stream closed")
	}
	if err := paError(C.pa_read_stream(s.stream, s.buffer, C.ulong(s.frames))); err != nil {
		return nil, err
	}

	samples := make([]int16, s.frames)
	C.memcpy(unsafe.Pointer(&samples[0]), s.buffer, C.size_t(s.frames*2))
	return samples, nil
}

// Close stops and closes the stream.
func (s *stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	C.pa_stop_stream(s.stream)
	err := paError(C.pa_close_stream(s.stream))
	C.free(s.buffer)
	return err
}
