package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newProofCommand(ctx *commandContext) *cobra.Command {
	var profilePath string

	cmd := &cobra.Command{
		Use:   "proof <input> <output>",
		Short: "Soft-proof an image through a CMYK profile",
		Long: "Renders the input through the proofing profile as CMYK and back into the\n" +
			"canonical space, previewing how it will reproduce on that device.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			loader, err := ctx.loader()
			if err != nil {
				return err
			}
			saver, err := ctx.saver()
			if err != nil {
				return err
			}

			img, err := loader.Load(args[0], profilePath)
			if err != nil {
				return err
			}
			if err := saver.Save(args[1], img); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote soft proof to %s\n", args[1])
			return nil
		},
	}

	cmd.Flags().StringVarP(&profilePath, "profile", "p", "", "Proofing ICC profile (usually CMYK)")
	_ = cmd.MarkFlagRequired("profile")
	return cmd
}
