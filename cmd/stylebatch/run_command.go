package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run <content> <style> <output>",
		Short: "Stylize one content image with one style image",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			orch, err := ctx.orchestrator()
			if err != nil {
				return err
			}
			res, err := orch.Run(cmd.Context(), args[0], args[1], args[2])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case res.Saved && res.Interrupted:
				fmt.Fprintf(out, "Interrupted; partial result written to %s\n", args[2])
			case res.Saved:
				fmt.Fprintf(out, "Wrote %s (end scale %d, %s)\n", args[2], res.EndScale, res.Duration.Round(100 * time.Millisecond))
			default:
				fmt.Fprintln(out, "No result produced")
			}
			return nil
		},
	}
}
