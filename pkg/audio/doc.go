// Package audio groups the audio sub-packages used for speaker identification:
//
//   - portaudio: microphone discovery and fixed-length capture (cgo)
//   - resampler: sample rate conversion of float32 waveforms
//   - mfcc: mel-frequency cepstral coefficients for speaker embeddings
package audio
