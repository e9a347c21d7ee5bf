package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"av1ify/internal/hashfind"
	"av1ify/internal/logging"
)

func newHashfindCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "hashfind <prefix> [dir]",
		Short:       "Find paths matching an anonymized history identifier",
		Long:        "Recompute identities for every file and folder under a directory and\nreport the ones matching the given hash prefix. Accepts bare hex\nprefixes as well as full file_/folder_ identifiers.",
		Args:        cobra.RangeArgs(1, 2),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := hashfind.ParseQuery(args[0])
			if err != nil {
				return err
			}
			root := "."
			if len(args) == 2 {
				root = args[1]
			}

			matches, err := hashfind.Find(cmd.Context(), root, query, logging.NewNop())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(matches) == 0 {
				fmt.Fprintln(out, "No matches")
				return nil
			}
			for _, match := range matches {
				fmt.Fprintf(out, "%s  %s\n", match.Identity, match.Path)
			}
			fmt.Fprintf(out, "%d match(es)\n", len(matches))
			return nil
		},
	}
}
