package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var enrollSamples int

// enrollResult is the structured output of enroll.
type enrollResult struct {
	Speaker    string    `json:"speaker" yaml:"speaker"`
	Samples    int       `json:"samples" yaml:"samples"`
	EnrolledAt time.Time `json:"enrolled_at" yaml:"enrolled_at"`
	Embedding  []float64 `json:"embedding" yaml:"embedding"`
}

var enrollCmd = &cobra.Command{
	Use:   "enroll <name>",
	Short: "Record samples of a speaker and store their voice profile",
	Long: `Record one or more samples from the default microphone, average their
embeddings and store the result under <name>. An existing profile with the
same name is replaced. Nothing is stored unless every sample succeeds.

Prints ENROLLED:<name> on success.

Examples:
  voiceid enroll alice
  voiceid enroll bob --samples 5`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		name := args[0]
		samples := s.cfg.Samples
		if cmd.Flags().Changed("samples") {
			samples = enrollSamples
		}

		ctx := cmd.Context()
		eng, store, err := s.newEngine(ctx, engineOptions{
			prompt: func(sample, total int) string {
				if total == 1 {
					return "Please speak after the beep..."
				}
				return fmt.Sprintf("Please speak after the beep... (%d/%d)", sample, total)
			},
		})
		if err != nil {
			return err
		}
		defer store.Close()

		s.styles.PrintInfo(s.errOut, "Enrolling speaker: %s", name)
		en, err := eng.Enroll(ctx, name, samples)
		if err != nil {
			return err
		}
		return s.output(enrollResult{
			Speaker:    en.Profile.Name,
			Samples:    en.Profile.Samples,
			EnrolledAt: en.Profile.EnrolledAt,
			Embedding:  en.Profile.Embedding,
		}, "ENROLLED:"+name+"\n")
	},
}

func init() {
	enrollCmd.Flags().IntVarP(&enrollSamples, "samples", "n", 3, "number of recordings to average (default from config)")
	rootCmd.AddCommand(enrollCmd)
}
