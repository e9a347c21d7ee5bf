package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"av1ify/internal/history"
	"av1ify/internal/operation"
	"av1ify/internal/pathid"
	"av1ify/internal/queue"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the conversion queue",
	}

	queueCmd.AddCommand(newQueueAddCommand(ctx))
	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueRemoveCommand(ctx))
	queueCmd.AddCommand(newQueueMoveCommand(ctx))
	queueCmd.AddCommand(newQueueSetOperationCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))

	return queueCmd
}

func newQueueAddCommand(ctx *commandContext) *cobra.Command {
	var operationFlag string
	var outputModeFlag string
	var outputParamFlag string

	cmd := &cobra.Command{
		Use:   "add <path>...",
		Short: "Add files or folders to the queue",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			mode, param, err := resolveOutput(cfg.Output.Mode, cfg.Output.Suffix, cfg.Paths.OutputDir, outputModeFlag, outputParamFlag)
			if err != nil {
				return err
			}

			return ctx.withHistory(func(hist *history.Store) error {
				return ctx.withQueue(func(store *queue.Store) error {
					out := cmd.OutOrStdout()
					for _, arg := range args {
						info, err := os.Stat(arg)
						if err != nil {
							return fmt.Errorf("inspect %s: %w", arg, err)
						}

						op, err := resolveOperation(hist, arg, info.IsDir(), operationFlag)
						if err != nil {
							return err
						}

						item, err := store.Add(cmd.Context(), arg, info.IsDir(), op, mode, param)
						if err != nil {
							return err
						}
						fmt.Fprintf(out, "Added #%d %s (%s, %s)\n", item.ID, arg, itemKind(item), op.Label())
					}
					return nil
				})
			})
		},
	}

	cmd.Flags().StringVarP(&operationFlag, "operation", "o", "", "Operation: analyze_convert, analyze_only, convert, reanalyze_convert (default chosen from history)")
	cmd.Flags().StringVar(&outputModeFlag, "output-mode", "", "Output mode: replace, suffix, separate_folder (default from config)")
	cmd.Flags().StringVar(&outputParamFlag, "output-param", "", "Suffix string or destination folder for the chosen output mode")
	return cmd
}

// resolveOutput combines configured defaults with per-add flags into a
// validated output mode and parameter pair.
func resolveOutput(cfgMode, cfgSuffix, cfgOutputDir, modeFlag, paramFlag string) (queue.OutputMode, string, error) {
	modeValue := strings.TrimSpace(modeFlag)
	if modeValue == "" {
		modeValue = cfgMode
	}
	mode, ok := queue.ParseOutputMode(modeValue)
	if !ok {
		return "", "", fmt.Errorf("unknown output mode %q", modeValue)
	}

	param := strings.TrimSpace(paramFlag)
	if param == "" {
		switch mode {
		case queue.OutputSuffix:
			param = cfgSuffix
		case queue.OutputSeparateFolder:
			param = cfgOutputDir
		}
	}

	switch mode {
	case queue.OutputSuffix:
		if param == "" {
			return "", "", fmt.Errorf("suffix output mode needs a suffix (set output.suffix or pass --output-param)")
		}
	case queue.OutputSeparateFolder:
		if param == "" {
			return "", "", fmt.Errorf("separate_folder output mode needs a destination (set paths.output_dir or pass --output-param)")
		}
	}
	return mode, param, nil
}

// resolveOperation picks the operation for a new item: an explicit flag
// wins after validation against the file's history; otherwise the
// resolver's default applies. Folders always default to the full
// pipeline since per-file cache state is only known at processing time.
func resolveOperation(hist *history.Store, path string, isFolder bool, flag string) (operation.Choice, error) {
	if isFolder {
		if strings.TrimSpace(flag) == "" {
			return operation.AnalyzeConvert, nil
		}
		op, ok := operation.Parse(flag)
		if !ok {
			return "", fmt.Errorf("unknown operation %q", flag)
		}
		return op, nil
	}

	identity, err := pathid.ForFile(path)
	if err != nil {
		return "", err
	}
	record, haveRecord := hist.Get(identity)
	var recordPtr *history.Record
	if haveRecord {
		recordPtr = &record
	}

	if strings.TrimSpace(flag) == "" {
		return operation.Default(recordPtr), nil
	}

	op, ok := operation.Parse(flag)
	if !ok {
		return "", fmt.Errorf("unknown operation %q", flag)
	}
	if err := operation.Apply(hist, identity, op); err != nil {
		return "", err
	}
	return op, nil
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queue items in processing order",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQueue(func(store *queue.Store) error {
				var statuses []queue.Status
				for _, value := range listStatuses {
					status, ok := queue.ParseStatus(value)
					if !ok {
						return fmt.Errorf("unknown status %q", value)
					}
					statuses = append(statuses, status)
				}

				items, err := store.List(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				if len(items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}

				rows := make([][]string, 0, len(items))
				for _, item := range items {
					detail := item.ErrorMessage
					if detail == "" {
						detail = itemProgress(item)
					}
					rows = append(rows, []string{
						strconv.FormatInt(item.ID, 10),
						truncate(item.SourcePath, 60),
						itemKind(item),
						item.Operation.Label(),
						string(item.Status),
						detail,
					})
				}

				table := renderTable(
					[]column{numericCol("ID"), textCol("Path"), textCol("Kind"),
						textCol("Operation"), textCol("Status"), textCol("Detail")},
					rows,
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&listStatuses, "status", "s", nil, "Filter by queue status (repeatable)")
	return cmd
}

func newQueueRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>...",
		Short: "Remove items from the queue",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQueue(func(store *queue.Store) error {
				out := cmd.OutOrStdout()
				for _, arg := range args {
					id, err := parseItemID(arg)
					if err != nil {
						return err
					}
					removed, err := store.Remove(cmd.Context(), id)
					if err != nil {
						return err
					}
					if removed {
						fmt.Fprintf(out, "Removed #%d\n", id)
					} else {
						fmt.Fprintf(out, "No item #%d\n", id)
					}
				}
				return nil
			})
		},
	}
}

func newQueueMoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "move <id> <position>",
		Short: "Move an item to a new position (1 = next)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseItemID(args[0])
			if err != nil {
				return err
			}
			position, err := strconv.Atoi(args[1])
			if err != nil || position < 1 {
				return fmt.Errorf("invalid position %q", args[1])
			}
			return ctx.withQueue(func(store *queue.Store) error {
				if err := store.Move(cmd.Context(), id, position); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Moved #%d to position %d\n", id, position)
				return nil
			})
		},
	}
}

func newQueueSetOperationCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set-operation <id> <operation>",
		Short: "Change a pending item's operation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseItemID(args[0])
			if err != nil {
				return err
			}
			op, ok := operation.Parse(args[1])
			if !ok {
				return fmt.Errorf("unknown operation %q", args[1])
			}

			return ctx.withHistory(func(hist *history.Store) error {
				return ctx.withQueue(func(store *queue.Store) error {
					item, err := store.GetByID(cmd.Context(), id)
					if err != nil {
						return err
					}
					if item == nil {
						return fmt.Errorf("no item #%d", id)
					}

					// Cache invalidation happens at selection time so it
					// survives a cancelled run.
					if !item.IsFolder {
						identity, err := pathid.ForFile(item.SourcePath)
						if err != nil {
							return err
						}
						if err := operation.Apply(hist, identity, op); err != nil {
							return err
						}
					}

					if _, err := store.SetOperation(cmd.Context(), id, op); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Item #%d now %s\n", id, op.Label())
					return nil
				})
			})
		},
	}
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	var clearAll bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove finished items (done, skipped, error)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQueue(func(store *queue.Store) error {
				var removed int64
				var err error
				if clearAll {
					removed, err = store.Clear(cmd.Context())
				} else {
					removed, err = store.ClearFinished(cmd.Context())
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d item(s)\n", removed)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&clearAll, "all", false, "Remove every item, including pending ones")
	return cmd
}
