package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"av1ify/internal/history"
	"av1ify/internal/pathid"
	"av1ify/internal/stats"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect the conversion history",
	}

	historyCmd.AddCommand(newHistoryShowCommand(ctx))
	historyCmd.AddCommand(newHistoryForgetCommand(ctx))
	historyCmd.AddCommand(newHistoryStatsCommand(ctx))

	return historyCmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	var statusFlag string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "List history records",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				var records []history.Record
				if strings.TrimSpace(statusFlag) != "" {
					status := history.Status(strings.ToLower(strings.TrimSpace(statusFlag)))
					if !status.Valid() {
						return fmt.Errorf("unknown status %q", statusFlag)
					}
					records = store.ByStatus(status)
				} else {
					records = store.All()
				}

				if len(records) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "History is empty")
					return nil
				}

				rows := make([][]string, 0, len(records))
				for i := range records {
					r := &records[i]
					name := r.OriginalPath
					if name == "" {
						name = r.ID
					}
					crf := "-"
					if r.BestCRF != nil {
						crf = strconv.Itoa(*r.BestCRF)
					} else if r.FinalCRF != nil {
						crf = strconv.Itoa(*r.FinalCRF)
					}
					rows = append(rows, []string{
						truncate(name, 50),
						string(r.Status),
						crf,
						formatPercent(r.SizeReductionPct),
						formatSize(r.OutputSizeBytes),
						formatTime(r.LastUpdated),
					})
				}

				table := renderTable(
					[]column{textCol("File"), textCol("Status"), numericCol("CRF"),
						numericCol("Reduction"), numericCol("Output"), textCol("Updated")},
					rows,
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&statusFlag, "status", "s", "", "Filter by record status")
	return cmd
}

func newHistoryForgetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "forget <path-or-identity>...",
		Short: "Remove records so files get re-analyzed next run",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				out := cmd.OutOrStdout()
				for _, arg := range args {
					identity, err := resolveIdentity(arg)
					if err != nil {
						return err
					}
					if _, ok := store.Get(identity); !ok {
						fmt.Fprintf(out, "No record for %s\n", arg)
						continue
					}
					store.Delete(identity)
					fmt.Fprintf(out, "Forgot %s\n", arg)
				}
				return store.Save()
			})
		},
	}
}

// resolveIdentity accepts either a raw history identity or a path on
// disk.
func resolveIdentity(arg string) (string, error) {
	if pathid.IsFileID(arg) || pathid.IsFolderID(arg) {
		return arg, nil
	}
	info, err := os.Stat(arg)
	if err != nil {
		return "", fmt.Errorf("%q is neither an identity nor an existing path: %w", arg, err)
	}
	if info.IsDir() {
		return pathid.ForFolder(arg)
	}
	return pathid.ForFile(arg)
}

func newHistoryStatsCommand(ctx *commandContext) *cobra.Command {
	var bucketWidth int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show aggregate conversion statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				records := store.ByStatus(history.StatusConverted)
				out := cmd.OutOrStdout()
				if len(records) == 0 {
					fmt.Fprintln(out, "No conversions recorded yet")
					return nil
				}

				summary := stats.Summarize(records)
				fmt.Fprintf(out, "Converted files:  %d\n", summary.TotalFiles)
				fmt.Fprintf(out, "Input total:      %s\n", humanize.IBytes(uint64(summary.TotalInputBytes)))
				fmt.Fprintf(out, "Output total:     %s\n", humanize.IBytes(uint64(summary.TotalOutputBytes)))
				fmt.Fprintf(out, "Space saved:      %s\n", humanize.IBytes(uint64(max(summary.TotalSavedBytes, 0))))
				fmt.Fprintf(out, "Mean reduction:   %.1f%%\n", summary.MeanReductionPct)
				if summary.MeanVMAF > 0 {
					fmt.Fprintf(out, "Mean VMAF:        %.1f\n", summary.MeanVMAF)
				}
				fmt.Fprintln(out)

				histogram := stats.ReductionHistogram(records, bucketWidth)
				if len(histogram) > 0 {
					rows := make([][]string, 0, len(histogram))
					for _, bucket := range histogram {
						rows = append(rows, []string{
							bucket.Label(),
							strconv.Itoa(bucket.Count),
							strings.Repeat("#", bucket.Count),
						})
					}
					fmt.Fprintln(out, renderTable(
						[]column{textCol("Reduction"), numericCol("Files"), textCol("")},
						rows,
					))
				}

				ranking := stats.CodecRanking(records)
				if len(ranking) > 0 {
					rows := make([][]string, 0, len(ranking))
					for _, entry := range ranking {
						rows = append(rows, []string{entry.Codec, strconv.Itoa(entry.Count)})
					}
					fmt.Fprintln(out, renderTable(
						[]column{textCol("Source Codec"), numericCol("Files")},
						rows,
					))
				}

				savings := stats.CumulativeSavings(records)
				if len(savings) > 0 {
					rows := make([][]string, 0, len(savings))
					for _, point := range savings {
						rows = append(rows, []string{
							point.Date,
							humanize.IBytes(uint64(point.SavedBytes)),
							humanize.IBytes(uint64(point.CumulativeBytes)),
						})
					}
					fmt.Fprintln(out, renderTable(
						[]column{textCol("Date"), numericCol("Saved"), numericCol("Cumulative")},
						rows,
					))
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&bucketWidth, "bucket-width", 10, "Histogram bucket width in percent")
	return cmd
}
