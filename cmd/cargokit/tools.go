package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/provide-io/cargokit/pkg/config"
	"github.com/provide-io/cargokit/pkg/discovery"
	"github.com/provide-io/cargokit/pkg/manifest"
)

func newReadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read <manifest> <table> <field>...",
		Short: "Read double-quoted fields from one table of a manifest",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields := manifest.ReadFields(args[0], args[1], args[2:]...)
			keys := make([]string, 0, len(fields))
			for k := range fields {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", k, fields[k])
			}
			if len(fields) == 0 {
				return fmt.Errorf("no fields found in [%s] of %s", args[1], args[0])
			}
			return nil
		},
	}
}

func newDiscoverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "discover",
		Short: "List the targets found by directory convention",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger("cargokit-discover")
			path, err := declarationPath()
			if err != nil {
				return err
			}
			p, err := config.LoadFile(path, logger)
			if err != nil {
				return err
			}
			res, err := discovery.Discover(p.Dir, p.Name, discovery.Options{
				Enabled: p.Discovery.Enabled,
				Ignore:  p.Discovery.Ignore,
			}, logger)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if res.Library != nil {
				fmt.Fprintf(out, "%-8s %-20s %s\n", config.Library.Table(), "-", rel(p.Dir, res.Library.Path))
			}
			for _, kind := range config.TargetKinds[1:] {
				for _, f := range res.Targets[kind] {
					fmt.Fprintf(out, "%-8s %-20s %s\n", kind.Table(), f.Name, rel(p.Dir, f.Path))
				}
			}
			return nil
		},
	}
}

func declarationPath() (string, error) {
	if info, err := os.Stat(configPath); err == nil && info.IsDir() {
		return config.FindFile(configPath)
	}
	return configPath, nil
}

func rel(base, path string) string {
	if r, err := filepath.Rel(base, path); err == nil {
		return filepath.ToSlash(r)
	}
	return path
}
