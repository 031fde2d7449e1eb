package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ridhamguptaprogramming-ops/JARVIS-voice-assistant/pkg/cli"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage CLI configuration",
	Long: `Show and edit the voiceid configuration file.

Examples:
  voiceid config path
  voiceid config show
  voiceid config set threshold 0.4
  voiceid config set store.backend badger`,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		fmt.Fprintln(s.out, s.cfg.Path())
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		format := s.format
		if !format.Structured() {
			format = cli.FormatYAML
		}
		return cli.Output(s.cfg.Masked(), cli.OutputOptions{Format: format, Writer: s.out})
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value and save the file.

Keys: ` + strings.Join(cli.ConfigKeys(), ", "),
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		if err := s.cfg.Set(args[0], args[1]); err != nil {
			return err
		}
		if err := s.cfg.Save(); err != nil {
			return err
		}
		s.styles.PrintSuccess(s.out, "Set %s = %s", args[0], args[1])
		return nil
	},
}

func init() {
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}
