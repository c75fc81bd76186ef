package main

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/davesmith10/stylebatch/internal/device"
)

func newDevicesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "Show the compute devices a job would use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			selector, err := ctx.selector()
			if err != nil {
				return err
			}
			set, err := selector.Select(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderDevices(set))
			return nil
		},
	}
}

func renderDevices(set device.Set) string {
	rows := make([][]string, 0, set.Len())
	for _, d := range set.Devices() {
		switch d.Class {
		case device.CPU:
			rows = append(rows, []string{d.String(), "CPU", "", strconv.Itoa(d.Threads), ""})
		case device.CUDA:
			rows = append(rows, []string{
				d.String(),
				d.Name,
				fmt.Sprintf("%d.%d", d.ComputeMajor, d.ComputeMinor),
				"",
				humanize.IBytes(d.TotalMemory),
			})
		}
	}
	return renderTable(
		[]string{"Device", "Name", "Compute", "Threads", "Memory"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight},
	)
}
