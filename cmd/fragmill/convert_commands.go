package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var force bool
	var noWait bool
	var output string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "convert <filename>",
		Short: "Convert one IFC file and wait for the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := ctx.newClient()
			job, err := c.Convert(cmd.Context(), args[0], force, output)
			if err != nil {
				return err
			}
			if !noWait && job.Status != "completed" && job.Status != "failed" {
				job, err = c.Wait(cmd.Context(), job.Filename, 0)
				if err != nil {
					return err
				}
			}
			if jsonOutput {
				return writeJSON(cmd, job)
			}
			printJob(cmd, job)
			if job.Status == "failed" {
				return fmt.Errorf("conversion failed: %s", job.Message)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Reconvert even when a fragment already exists")
	cmd.Flags().BoolVar(&noWait, "no-wait", false, "Queue the conversion and return immediately")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Override the fragment filename")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newConvertAllCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "convert-all",
		Short: "Queue every source file for conversion",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			queued, err := ctx.newClient().ConvertAll(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, map[string]any{"queued": queued})
			}
			if len(queued) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to convert")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Queued %d file(s):\n", len(queued))
			for _, name := range queued {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", name)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
