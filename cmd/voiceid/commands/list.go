package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/ridhamguptaprogramming-ops/JARVIS-voice-assistant/pkg/cli"
)

// speakerInfo is one row of list output.
type speakerInfo struct {
	Name       string    `json:"name" yaml:"name"`
	Samples    int       `json:"samples" yaml:"samples"`
	Dimension  int       `json:"dimension" yaml:"dimension"`
	EnrolledAt time.Time `json:"enrolled_at" yaml:"enrolled_at"`
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List enrolled speakers",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		store, err := s.openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		l, err := store.List(ctx)
		if err != nil {
			return err
		}
		s.warnSkipped(l.Skipped)

		infos := make([]speakerInfo, 0, len(l.Profiles))
		for _, p := range l.Profiles {
			infos = append(infos, speakerInfo{
				Name:       p.Name,
				Samples:    p.Samples,
				Dimension:  len(p.Embedding),
				EnrolledAt: p.EnrolledAt,
			})
		}
		if s.format.Structured() {
			return s.output(infos, "")
		}

		if len(infos) == 0 {
			fmt.Fprintln(s.out, "No speakers enrolled.")
			fmt.Fprintln(s.out, "Enroll one with: voiceid enroll <name>")
			return nil
		}
		rows := make([][]string, 0, len(infos))
		for _, i := range infos {
			rows = append(rows, []string{
				i.Name,
				strconv.Itoa(i.Samples),
				strconv.Itoa(i.Dimension),
				cli.FormatTime(i.EnrolledAt),
			})
		}
		fmt.Fprintln(s.out, s.styles.Table([]string{"NAME", "SAMPLES", "DIM", "ENROLLED"}, rows))
		return nil
	},
}

var removeCmd = &cobra.Command{
	Use:     "remove <name>...",
	Aliases: []string{"rm"},
	Short:   "Delete enrolled speakers",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		store, err := s.openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		// Removal does not record audio; the engine only needs a capturer
		// to exist.
		eng, err := newStoreEngine(store, s)
		if err != nil {
			return err
		}
		for _, name := range args {
			if err := eng.Remove(ctx, name); err != nil {
				return fmt.Errorf("remove %s: %w", name, err)
			}
			if !s.format.Structured() {
				s.styles.PrintSuccess(s.out, "Removed speaker %q.", name)
			}
		}
		if s.format.Structured() {
			return s.output(map[string][]string{"removed": args}, "")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(removeCmd)
}
