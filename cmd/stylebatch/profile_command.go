package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"seehuhn.de/go/icc"

	"github.com/davesmith10/stylebatch/internal/color"
)

func newProfileCommand(ctx *commandContext) *cobra.Command {
	profileCmd := &cobra.Command{
		Use:   "profile",
		Short: "Canonical profile utilities",
	}
	profileCmd.AddCommand(newProfileInstallCommand(ctx))
	return profileCmd
}

func newProfileInstallCommand(ctx *commandContext) *cobra.Command {
	var (
		targetPath string
		overwrite  bool
	)

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Write the built-in sRGB profile as the canonical profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				target = cfg.Profile.CanonicalPath
			}
			if target == "" {
				defaultPath, err := color.DefaultCanonicalPath()
				if err != nil {
					return err
				}
				target = defaultPath
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("profile already exists at %s (use --overwrite to replace it)", target)
				} else if !os.IsNotExist(err) {
					return fmt.Errorf("check profile path: %w", err)
				}
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("create profile directory: %w", err)
			}
			if err := os.WriteFile(target, icc.SRGBv4Profile, 0o644); err != nil {
				return fmt.Errorf("write profile: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote canonical profile to %s\n", target)
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination (default: profile.canonical_path or next to the executable)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing profile")
	return cmd
}
