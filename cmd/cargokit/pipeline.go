package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/provide-io/cargokit/pkg"
)

func newResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve",
		Short: "Write dependency records for the unit's local dependencies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger("cargokit-resolve")
			u, err := loadUnit(logger)
			if err != nil {
				return err
			}
			report, err := pkg.ResolveUnit(cmd.Context(), u, logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "resolved %d, dropped %d\n", report.Count(), len(report.Dropped))
			for _, d := range report.Dropped {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s %s: %v\n", d.Class, d.Ref, d.Err)
			}
			return nil
		},
	}
}

func newGenerateCmd() *cobra.Command {
	var (
		output  string
		resolve bool
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate the unit's Cargo.toml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger("cargokit-generate")
			u, err := loadUnit(logger)
			if err != nil {
				return err
			}
			if output != "" {
				u.Paths.Manifest = output
			}
			if resolve {
				if _, err := pkg.ResolveUnit(cmd.Context(), u, logger); err != nil {
					return err
				}
			}
			res, err := pkg.GenerateManifest(cmd.Context(), u, logger)
			if err != nil {
				return err
			}
			for _, rec := range res.Recovered {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", rec)
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Manifest path (defaults to build/Cargo.toml)")
	cmd.Flags().BoolVar(&resolve, "resolve", false, "Resolve local dependencies first")
	return cmd
}

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check the generated manifest against the current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger("cargokit-verify")
			u, err := loadUnit(logger)
			if err != nil {
				return err
			}
			return pkg.VerifyUnit(cmd.Context(), u, logger)
		},
	}
}

func newFingerprintCmd() *cobra.Command {
	var check bool
	cmd := &cobra.Command{
		Use:   "fingerprint",
		Short: "Hash the sources of the unit's path dependencies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger("cargokit-fingerprint")
			u, err := loadUnit(logger)
			if err != nil {
				return err
			}
			fp, err := pkg.Fingerprint(cmd.Context(), u, logger)
			if err != nil {
				return err
			}
			if !check {
				fmt.Fprintln(cmd.OutOrStdout(), fp)
				return nil
			}
			upToDate, err := pkg.IsUpToDate(cmd.Context(), u, logger)
			if err != nil {
				return err
			}
			if upToDate {
				fmt.Fprintln(cmd.OutOrStdout(), "up-to-date")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "stale")
			return errStale
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "Compare with the marker of the last generation and fail when stale")
	return cmd
}
