package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-yaml"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	// FormatText prints the plain result tokens (default)
	FormatText OutputFormat = "text"
	// FormatYAML outputs as YAML
	FormatYAML OutputFormat = "yaml"
	// FormatJSON outputs as JSON
	FormatJSON OutputFormat = "json"
	// FormatRaw outputs raw data
	FormatRaw OutputFormat = "raw"
)

// ParseFormat validates a --format flag value. Empty means FormatText.
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(s); f {
	case "":
		return FormatText, nil
	case FormatText, FormatYAML, FormatJSON, FormatRaw:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (want text, json or yaml)", s)
	}
}

// Structured reports whether the format is machine-readable.
func (f OutputFormat) Structured() bool {
	return f == FormatJSON || f == FormatYAML
}

// OutputOptions configures output behavior
type OutputOptions struct {
	// Format is the output format (yaml, json, raw). FormatText is
	// rendered by the caller; passed here it behaves like FormatRaw.
	Format OutputFormat

	// Indent is the indentation for JSON output
	Indent string

	// Writer is the destination (default os.Stdout)
	Writer io.Writer
}

// Output writes the result to the configured destination
func Output(result any, opts OutputOptions) error {
	var w io.Writer = os.Stdout
	if opts.Writer != nil {
		w = opts.Writer
	}

	switch opts.Format {
	case FormatJSON:
		return outputJSON(w, result, opts.Indent)
	case FormatYAML, "":
		return outputYAML(w, result)
	case FormatRaw, FormatText:
		return outputRaw(w, result)
	default:
		return fmt.Errorf("unsupported output format: %s", opts.Format)
	}
}

func outputJSON(w io.Writer, result any, indent string) error {
	enc := json.NewEncoder(w)
	if indent == "" {
		indent = "  "
	}
	enc.SetIndent("", indent)
	return enc.Encode(result)
}

func outputYAML(w io.Writer, result any) error {
	data, err := yaml.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	_, err = w.Write(data)
	return err
}

func outputRaw(w io.Writer, result any) error {
	switch v := result.(type) {
	case []byte:
		_, err := w.Write(v)
		return err
	case string:
		_, err := io.WriteString(w, v)
		return err
	case fmt.Stringer:
		_, err := fmt.Fprintln(w, v.String())
		return err
	default:
		return outputYAML(w, result)
	}
}
