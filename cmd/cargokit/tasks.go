package main

import (
	"errors"
	"fmt"

	"github.com/kballard/go-shellquote"
	"github.com/spf13/cobra"
	"github.com/thediveo/enumflag/v2"

	"github.com/provide-io/cargokit/pkg"
	"github.com/provide-io/cargokit/pkg/cargo"
	"github.com/provide-io/cargokit/pkg/config"
)

var errStale = errors.New("unit is stale")

// taskFlags override the unit's configured cargo options for one call.
type taskFlags struct {
	color          cargo.Color
	timings        cargo.Timings
	messageFormats []cargo.MessageFormat
	release        bool
	toolchain      string
	extra          string
	bin            string
	example        string
}

func (f *taskFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.Var(enumflag.New(&f.color, "color", cargo.ColorNames, enumflag.EnumCaseInsensitive),
		"color", "Coloring: auto, always, never")
	fl.Var(enumflag.New(&f.timings, "timings", cargo.TimingsNames, enumflag.EnumCaseInsensitive),
		"timings", "Timing report: default, html, json")
	fl.Var(enumflag.NewSlice(&f.messageFormats, "format", cargo.MessageFormatNames, enumflag.EnumCaseInsensitive),
		"message-format", "Message format, repeatable")
	fl.BoolVar(&f.release, "release", false, "Build with the release profile")
	fl.StringVar(&f.toolchain, "toolchain", "", "Rustup toolchain, passed as +NAME")
	fl.StringVar(&f.extra, "extra", "", "Extra shell-quoted cargo arguments")
	fl.StringVar(&f.bin, "bin", "", "Build only this binary with its build features")
	fl.StringVar(&f.example, "example", "", "Build only this example with its build features")
}

// compile applies the flags to u and returns the argv for task. Arguments
// after "--" on the command line become trailing arguments.
func (f *taskFlags) compile(u *pkg.Unit, task string, trailing []string) ([]string, error) {
	kind, err := cargo.ParseTaskKind(task)
	if err != nil {
		return nil, err
	}

	inv := &u.Project.Cargo
	if f.color != cargo.ColorUnset {
		inv.Common.Color = f.color
	}
	if f.timings != cargo.TimingsUnset {
		inv.Build.Timings = f.timings
	}
	if len(f.messageFormats) > 0 {
		inv.Build.MessageFormats = f.messageFormats
	}
	if f.release {
		inv.Build.Release = true
	}
	if f.toolchain != "" {
		inv.Common.Toolchain = f.toolchain
	}
	if err := cargo.CheckMessageFormats(inv.Build.MessageFormats); err != nil {
		return nil, err
	}
	extra, err := cargo.SplitExtra(f.extra)
	if err != nil {
		return nil, err
	}
	inv.Extra = append(inv.Extra, extra...)
	inv.Trailing = append(inv.Trailing, trailing...)

	switch {
	case f.bin != "" && f.example != "":
		return nil, fmt.Errorf("--bin and --example are mutually exclusive")
	case f.bin != "":
		return pkg.TargetBuildArgs(u, kind, config.Binary, f.bin, inv.Build.Release)
	case f.example != "":
		return pkg.TargetBuildArgs(u, kind, config.Example, f.example, inv.Build.Release)
	}
	return pkg.CompileTaskArgs(u, kind, nil, nil)
}

func splitDash(cmd *cobra.Command, args []string) (positional, trailing []string) {
	if at := cmd.ArgsLenAtDash(); at >= 0 {
		return args[:at], args[at:]
	}
	return args, nil
}

func newArgsCmd() *cobra.Command {
	flags := &taskFlags{}
	cmd := &cobra.Command{
		Use:   "args <task> [-- trailing...]",
		Short: "Print the cargo command line for a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger("cargokit-args")
			positional, trailing := splitDash(cmd, args)
			if len(positional) != 1 {
				return fmt.Errorf("expected one task, got %d", len(positional))
			}
			u, err := loadUnit(logger)
			if err != nil {
				return err
			}
			argv, err := flags.compile(u, positional[0], trailing)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), shellquote.Join(argv...))
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newExecCmd() *cobra.Command {
	flags := &taskFlags{}
	var skipGenerate bool
	cmd := &cobra.Command{
		Use:   "exec <task> [-- trailing...]",
		Short: "Generate the manifest and run a cargo task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger("cargokit-exec")
			positional, trailing := splitDash(cmd, args)
			if len(positional) != 1 {
				return fmt.Errorf("expected one task, got %d", len(positional))
			}
			u, err := loadUnit(logger)
			if err != nil {
				return err
			}
			if !skipGenerate {
				if _, err := pkg.GenerateManifest(cmd.Context(), u, logger); err != nil {
					return err
				}
			}
			argv, err := flags.compile(u, positional[0], trailing)
			if err != nil {
				return err
			}
			runner := cargo.NewRunner(logger.Named("cargo"))
			runner.Dir = u.Paths.Unit
			return runner.Run(cmd.Context(), argv)
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&skipGenerate, "no-generate", false, "Use the existing manifest")
	return cmd
}

// exitCode maps an error to the process exit status: a failed cargo child
// passes its own status through.
func exitCode(err error) int {
	if errors.Is(err, errStale) {
		return 1
	}
	return cargo.ExitCode(err)
}
