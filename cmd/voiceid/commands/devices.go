package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ridhamguptaprogramming-ops/JARVIS-voice-assistant/pkg/voiceid"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List audio input devices",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		if audioBackend == nil {
			return &voiceid.DependencyError{Name: "microphone", Err: errNoAudioBackend}
		}
		devices, err := audioBackend.Devices()
		if err != nil {
			return &voiceid.DependencyError{Name: "microphone", Err: err}
		}
		if s.format.Structured() {
			return s.output(devices, "")
		}

		if len(devices) == 0 {
			fmt.Fprintln(s.out, "No input devices found.")
			return nil
		}
		rows := make([][]string, 0, len(devices))
		for _, d := range devices {
			def := ""
			if d.Default {
				def = "*"
			}
			rows = append(rows, []string{
				def,
				strconv.Itoa(d.Index),
				d.Name,
				strconv.Itoa(d.Channels),
				strconv.FormatFloat(d.SampleRate, 'f', -1, 64),
			})
		}
		fmt.Fprintln(s.out, s.styles.Table([]string{"DEFAULT", "INDEX", "NAME", "CHANNELS", "RATE"}, rows))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}
