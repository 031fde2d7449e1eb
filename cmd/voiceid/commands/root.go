package commands

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/ridhamguptaprogramming-ops/JARVIS-voice-assistant/pkg/cli"
	"github.com/ridhamguptaprogramming-ops/JARVIS-voice-assistant/pkg/voiceid"
)

// Exit codes.
const (
	exitOK                = 0
	exitFailure           = 1
	exitDependencyMissing = 2
)

var (
	// Global flags
	verbose      bool
	configPath   string
	formatOutput string
)

var rootCmd = &cobra.Command{
	Use:   "voiceid",
	Short: "Enroll speakers and recognize who is talking",
	Long: `voiceid - speaker enrollment and verification for JARVIS.

A speaker is enrolled by recording a few short samples from the default
microphone. Verification records one sample and prints the name of the
closest enrolled speaker, or UNKNOWN when nobody is close enough.

Configuration is read from the OS config directory:
  macOS:   ~/Library/Application Support/jarvis/voiceid.yaml
  Linux:   ~/.config/jarvis/voiceid.yaml
  Windows: %AppData%/jarvis/voiceid.yaml
or from $JARVIS_CONFIG_DIR/voiceid.yaml, or the file given with --config.

Exit status is 0 on success (including UNKNOWN), 1 on failure and 2 when a
required dependency such as the microphone is unavailable.

Examples:
  voiceid enroll alice
  voiceid verify
  voiceid list
  voiceid remove alice
  voiceid verify --format json`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}
	cli.DefaultStyles.PrintError(os.Stderr, "%v", err)
	return exitCode(err)
}

// exitCode maps an error to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, voiceid.ErrDependencyMissing):
		return exitDependencyMissing
	default:
		return exitFailure
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $JARVIS_CONFIG_DIR/voiceid.yaml)")
	rootCmd.PersistentFlags().StringVarP(&formatOutput, "format", "o", "text", "output format: text, json, yaml")
}
