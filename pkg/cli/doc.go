// Package cli provides common utilities for the voiceid command-line tool.
//
// This package includes:
//   - Configuration file loading and editing (YAML)
//   - Output formatting (JSON, YAML, raw, styled tables)
//   - Logger setup
//
// Configuration is stored at os.UserConfigDir()/jarvis/voiceid.yaml unless
// JARVIS_CONFIG_DIR points elsewhere.
//
// Example usage:
//
//	path, _ := cli.DefaultConfigPath()
//	cfg, err := cli.LoadConfig(path)
//
//	cli.Output(result, cli.OutputOptions{
//	    Format: cli.FormatJSON,
//	})
package cli
