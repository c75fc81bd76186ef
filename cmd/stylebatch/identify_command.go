package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/davesmith10/stylebatch/internal/color"
	"github.com/davesmith10/stylebatch/internal/imageio"
	"github.com/davesmith10/stylebatch/internal/ir"
)

func newIdentifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "identify <file>",
		Short: "Inspect image and ICC profile info",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			data, err := os.ReadFile(path)
			if err != nil {
				return &imageio.IOError{Op: "open", Path: path, Err: err}
			}
			src, profile, format, err := imageio.Decode(data)
			if err != nil {
				return &imageio.IOError{Op: "decode", Path: path, Err: err}
			}
			img := ir.FromImage(src, profile)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "File:        %s\n", path)
			fmt.Fprintf(out, "Format:      %s\n", format)
			fmt.Fprintf(out, "Dimensions:  %d x %d\n", img.Width, img.Height)
			fmt.Fprintf(out, "Mode:        %s\n", img.Mode)
			fmt.Fprintf(out, "File size:   %s\n", humanize.IBytes(uint64(len(data))))

			if profile == nil {
				fmt.Fprintln(out, "ICC profile: none (treated as canonical)")
				return nil
			}
			pi, err := color.ParseProfileInfo(profile)
			if err != nil {
				fmt.Fprintf(out, "ICC profile: present (%d bytes) but invalid: %v\n", len(profile), err)
				return nil
			}
			fmt.Fprintf(out, "ICC profile: %s\n", humanize.IBytes(uint64(pi.Size)))
			fmt.Fprintf(out, "  Version:     %s\n", pi.Version)
			fmt.Fprintf(out, "  Color space: %s\n", pi.ColorSpace)
			fmt.Fprintf(out, "  PCS:         %s\n", pi.PCS)
			fmt.Fprintf(out, "  Class:       %s\n", pi.Class)

			if canonical, err := ctx.ensureCanonical(); err == nil {
				fmt.Fprintf(out, "  Canonical:   %t\n", canonical.Equal(profile))
			}
			return nil
		},
	}
}
