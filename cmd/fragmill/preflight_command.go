package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fragmill/internal/preflight"
)

func newPreflightCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "preflight",
		Short: "Run environment diagnostics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cfg)
			rows := make([][]string, 0, len(results))
			for _, res := range results {
				mark := "FAIL"
				if res.Passed {
					mark = "OK"
				}
				rows = append(rows, []string{res.Name, mark, res.Detail})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Check", "Result", "Detail"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			))
			if !preflight.Passed(results) {
				return fmt.Errorf("%d preflight check(s) failed", countFailed(results))
			}
			return nil
		},
	}
}

func countFailed(results []preflight.Result) int {
	failed := 0
	for _, res := range results {
		if !res.Passed {
			failed++
		}
	}
	return failed
}
