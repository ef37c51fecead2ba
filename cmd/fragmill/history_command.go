package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fragmill/internal/api"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var filename string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent conversion attempts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			attempts, err := ctx.newClient().History(cmd.Context(), filename, limit)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, api.HistoryResponse{Attempts: attempts})
			}
			if len(attempts) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No conversion history")
				return nil
			}
			rows := make([][]string, 0, len(attempts))
			for _, attempt := range attempts {
				saved := ""
				if attempt.CompressionRatio != nil {
					saved = fmt.Sprintf("%.1f%%", *attempt.CompressionRatio)
				}
				rows = append(rows, []string{
					attempt.RecordedAt,
					attempt.Filename,
					attempt.Status,
					saved,
					attempt.Message,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Recorded", "File", "Status", "Saved", "Message"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum attempts to show")
	cmd.Flags().StringVar(&filename, "file", "", "Only show attempts for this file")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
