package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/davesmith10/stylebatch/internal/logging"
	"github.com/davesmith10/stylebatch/internal/pipeline"
)

func newBatchCommand(ctx *commandContext) *cobra.Command {
	var (
		continueOnError bool
		skipExisting    bool
		extensions      []string
	)

	cmd := &cobra.Command{
		Use:   "batch <content-dir> <style> <output-dir>",
		Short: "Stylize every image in a directory with one style image",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			orch, err := ctx.orchestrator()
			if err != nil {
				return err
			}

			opts := pipeline.BatchOptions{
				OnError:      cfg.ErrorPolicy(),
				SkipExisting: cfg.Batch.SkipExisting || skipExisting,
				Extensions:   cfg.Batch.Extensions,
			}
			if continueOnError {
				opts.OnError = pipeline.OnErrorContinue
			}
			if len(extensions) > 0 {
				opts.Extensions = extensions
			}
			if logging.IsTerminal(os.Stderr) {
				opts.Progress = os.Stderr
			}

			summary, runErr := pipeline.NewBatch(orch, opts, ctx.log).Run(cmd.Context(), args[0], args[1], args[2])
			if summary != nil && len(summary.Items) > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), renderSummary(summary))
			}
			if errors.Is(runErr, pipeline.ErrBatchFailed) {
				for _, it := range summary.Items {
					if it.Err != nil {
						logging.PrintError(cmd.ErrOrStderr(), fmt.Errorf("%s: %w", it.Name, it.Err))
					}
				}
			}
			return runErr
		},
	}

	cmd.Flags().BoolVar(&continueOnError, "continue", false, "Keep going after a failed item (overrides batch.on_error)")
	cmd.Flags().BoolVar(&skipExisting, "skip-existing", false, "Skip items whose output already exists")
	cmd.Flags().StringSliceVar(&extensions, "ext", nil, "Input extensions to include (default: all supported)")
	return cmd
}

func renderSummary(s *pipeline.Summary) string {
	rows := make([][]string, 0, len(s.Items))
	for _, it := range s.Items {
		scale := ""
		if it.EndScale > 0 {
			scale = strconv.Itoa(it.EndScale)
		}
		duration := ""
		if it.Duration > 0 {
			duration = it.Duration.Round(100 * time.Millisecond).String()
		}
		rows = append(rows, []string{it.Name, string(it.Status), scale, duration})
	}
	return renderTable(
		[]string{"File", "Status", "End scale", "Time"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight},
	)
}
