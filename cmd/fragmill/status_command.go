package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"fragmill/internal/api"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status [filename]",
		Short: "Show conversion job status",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := ctx.newClient()
			if len(args) == 1 {
				job, err := c.Status(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, job)
				}
				printJob(cmd, job)
				return nil
			}

			summary, err := c.StatusAll(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, summary)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Daemon:    running (pid %d)\n", summary.PID)
			fmt.Fprintf(out, "Watching:  %t\n", summary.Watching)
			fmt.Fprintf(out, "Sources:   %d\n", summary.SourceFiles)
			fmt.Fprintf(out, "Fragments: %d\n", summary.Fragments)
			for _, check := range summary.Checks {
				if !check.Passed {
					fmt.Fprintf(out, "Warning:   %s: %s\n", check.Name, check.Detail)
				}
			}

			if len(summary.Jobs) == 0 {
				fmt.Fprintln(out, "No conversion jobs yet")
				return nil
			}
			rows := make([][]string, 0, len(summary.Jobs))
			for _, job := range summary.Jobs {
				rows = append(rows, []string{
					job.Filename,
					job.Status,
					fmt.Sprintf("%d%%", job.Progress),
					job.OutputFile,
					job.Message,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"File", "Status", "Progress", "Output", "Message"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func printJob(cmd *cobra.Command, job api.JobPayload) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "File:     %s\n", job.Filename)
	fmt.Fprintf(out, "Status:   %s\n", job.Status)
	fmt.Fprintf(out, "Progress: %d%%\n", job.Progress)
	if job.Message != "" {
		fmt.Fprintf(out, "Message:  %s\n", job.Message)
	}
	if job.OutputFile != "" {
		fmt.Fprintf(out, "Output:   %s\n", job.OutputFile)
	}
	if job.CompressionRatio != nil {
		fmt.Fprintf(out, "Saved:    %.1f%%\n", *job.CompressionRatio)
	}
	if job.StartTime != "" {
		fmt.Fprintf(out, "Started:  %s\n", job.StartTime)
	}
	if job.EndTime != "" {
		fmt.Fprintf(out, "Finished: %s\n", job.EndTime)
	}
	if job.AttemptID != "" {
		fmt.Fprintf(out, "Attempt:  %s\n", strings.TrimSpace(job.AttemptID))
	}
}
