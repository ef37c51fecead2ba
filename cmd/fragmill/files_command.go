package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fragmill/internal/api"
)

func newFilesCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "files",
		Short: "List source files in the input directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := ctx.newClient().Files(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, api.FileListResponse{Files: files})
			}
			if len(files) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No source files found")
				return nil
			}
			rows := make([][]string, 0, len(files))
			for _, file := range files {
				converted := ""
				if file.HasOutput {
					converted = file.OutputFile
				}
				rows = append(rows, []string{
					file.Filename,
					fmt.Sprintf("%.1f MB", file.SizeMB),
					file.Status,
					converted,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"File", "Size", "Status", "Fragment"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newFragmentsCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "fragments",
		Short: "List converted fragment files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fragments, err := ctx.newClient().Fragments(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, api.FragmentListResponse{Fragments: fragments})
			}
			if len(fragments) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No fragments produced yet")
				return nil
			}
			rows := make([][]string, 0, len(fragments))
			for _, fragment := range fragments {
				rows = append(rows, []string{
					fragment.Filename,
					fmt.Sprintf("%.1f MB", fragment.SizeMB),
					fragment.Modified,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Fragment", "Size", "Modified"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
