package commands

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"
)

var verifyThreshold float64

// verifyResult is the structured output of verify.
type verifyResult struct {
	Speaker   string   `json:"speaker" yaml:"speaker"`
	Known     bool     `json:"known" yaml:"known"`
	Nearest   string   `json:"nearest,omitempty" yaml:"nearest,omitempty"`
	Distance  *float64 `json:"distance" yaml:"distance"`
	Threshold float64  `json:"threshold" yaml:"threshold"`
	Captured  bool     `json:"captured" yaml:"captured"`
	Compared  int      `json:"compared" yaml:"compared"`
	Skipped   []string `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Record one sample and print who is speaking",
	Long: `Record one sample from the default microphone and compare it with every
enrolled speaker. Prints the name of the closest speaker when its cosine
distance is below the threshold, UNKNOWN otherwise.

When no speaker is enrolled, prints UNKNOWN without recording.

Examples:
  voiceid verify
  voiceid verify --threshold 0.3 --format json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		var threshold float64
		if cmd.Flags().Changed("threshold") {
			if verifyThreshold <= 0 || verifyThreshold > 2 {
				return fmt.Errorf("threshold %g out of range (0, 2]", verifyThreshold)
			}
			threshold = verifyThreshold
		}

		ctx := cmd.Context()
		eng, store, err := s.newEngine(ctx, engineOptions{
			threshold: threshold,
			prompt: func(int, int) string {
				return "Please speak for verification after the beep..."
			},
		})
		if err != nil {
			return err
		}
		defer store.Close()

		v, err := eng.Verify(ctx)
		if err != nil {
			return err
		}

		res := verifyResult{
			Speaker:   v.Label(),
			Known:     v.Known,
			Nearest:   v.Nearest,
			Threshold: eng.Threshold(),
			Captured:  v.Captured,
			Compared:  v.Compared,
		}
		if !math.IsInf(v.Distance, 0) {
			d := v.Distance
			res.Distance = &d
		}
		for _, sk := range v.Skipped {
			res.Skipped = append(res.Skipped, sk.Key)
		}
		return s.output(res, v.Label()+"\n")
	},
}

func init() {
	verifyCmd.Flags().Float64VarP(&verifyThreshold, "threshold", "t", 0.45, "acceptance threshold (default from config)")
	rootCmd.AddCommand(verifyCmd)
}
