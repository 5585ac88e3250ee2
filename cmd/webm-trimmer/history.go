package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"webm-trimmer/internal/database"
)

func newHistoryCommand() *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent submissions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit < 1 {
				return fmt.Errorf("--limit must be at least 1")
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDatabase(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			subs, err := db.ListSubmissions(cmd.Context(), limit)
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd, subs)
			}
			if len(subs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No submissions recorded yet.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderHistory(subs, shouldColorize(cmd.OutOrStdout())))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", database.DefaultHistoryLimit, "Maximum number of submissions to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func writeJSON(cmd *cobra.Command, v any) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func renderHistory(subs []database.Submission, colorize bool) string {
	tw := table.NewWriter()
	if colorize {
		tw.SetStyle(table.StyleRounded)
	} else {
		tw.SetStyle(table.StyleLight)
	}
	tw.AppendHeader(table.Row{"ID", "Started", "Source", "State", "Segments", "Took", "Result"})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
		{Number: 7, WidthMax: 60},
	})

	for i := range subs {
		s := &subs[i]
		state := s.State
		if colorize {
			if s.State == "done" {
				state = text.FgGreen.Sprint(state)
			} else {
				state = text.FgRed.Sprint(state)
			}
		}
		tw.AppendRow(table.Row{
			shortID(s.ID),
			s.StartedAt.Local().Format("2006-01-02 15:04:05"),
			s.Source,
			state,
			s.SegmentCount,
			s.Duration().Round(time.Millisecond).String(),
			historyResult(s),
		})
	}
	return tw.Render()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// historyResult summarizes a submission in one cell: its error, or what it
// produced.
func historyResult(s *database.Submission) string {
	if s.Error != "" {
		msg, _, _ := strings.Cut(s.Error, "\n")
		return msg
	}
	if s.FinalOutput != "" {
		return s.FinalOutput
	}
	switch len(s.Outputs) {
	case 0:
		return "-"
	case 1:
		return s.Outputs[0]
	default:
		return fmt.Sprintf("%s (+%d more)", s.Outputs[0], len(s.Outputs)-1)
	}
}
