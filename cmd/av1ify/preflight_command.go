package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"av1ify/internal/preflight"
)

func newPreflightCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "preflight",
		Short: "Check binaries, directories, and disk space before a run",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			results := preflight.RunAll(cfg)
			rows := make([][]string, 0, len(results))
			for _, result := range results {
				state := "ok"
				if !result.Passed {
					state = "FAIL"
				}
				rows = append(rows, []string{result.Name, state, result.Detail})
			}

			table := renderTable([]column{textCol("Check"), textCol("Result"), textCol("Detail")}, rows)
			fmt.Fprintln(cmd.OutOrStdout(), table)

			if !preflight.Passed(results) {
				return fmt.Errorf("preflight checks failed")
			}
			return nil
		},
	}
}
