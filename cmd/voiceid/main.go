// Package main is the entry point for the voiceid CLI.
//
// Usage:
//
//	voiceid [flags] <command> [args]
//
// Commands:
//
//	enroll     - Record samples of a speaker and store their profile
//	verify     - Record one sample and print the speaker name or UNKNOWN
//	list       - List enrolled speakers
//	remove     - Delete enrolled speakers
//	devices    - List audio input devices
//	config     - Show and edit configuration
//	version    - Show version information
package main

import (
	"os"

	"github.com/ridhamguptaprogramming-ops/JARVIS-voice-assistant/cmd/voiceid/commands"
)

func main() {
	commands.SetAudioBackend(portaudioBackend{})
	code := commands.Execute()
	terminateAudio()
	os.Exit(code)
}
