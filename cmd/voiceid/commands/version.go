package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ridhamguptaprogramming-ops/JARVIS-voice-assistant/cmd/voiceid/internal/build"
	"github.com/ridhamguptaprogramming-ops/JARVIS-voice-assistant/pkg/cli"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := cli.ParseFormat(formatOutput)
		if err != nil {
			return err
		}
		if format.Structured() {
			return cli.Output(build.Get(), cli.OutputOptions{Format: format, Writer: cmd.OutOrStdout()})
		}
		fmt.Fprintln(cmd.OutOrStdout(), build.String())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
