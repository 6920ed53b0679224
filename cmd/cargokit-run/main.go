package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/provide-io/cargokit/pkg"
	"github.com/provide-io/cargokit/pkg/cargo"
	"github.com/provide-io/cargokit/pkg/logging"
)

const (
	exitPanic   = 101
	exitIOError = 74
)

var (
	configPath string
	targetDir  string
	triple     string
	profile    string
	binary     string
	logLevel   string
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "cargokit-run --bin NAME [-- args...]",
		Short:         "Run a binary cargo built for a build unit",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.NewLogger("cargokit-run", logging.ResolveLevel(logLevel), nil)

			dir := targetDir
			name := binary
			if dir == "" || name == "" {
				u, err := pkg.LoadProject(configPath, logger)
				if err != nil {
					return err
				}
				if dir == "" {
					dir = u.Paths.TargetDir
				}
				if name == "" {
					name = u.Project.Package.DefaultRun.Or(u.Project.Name)
				}
			}

			runner := cargo.NewRunner(logger)
			return pkg.RunBinary(cmd.Context(), runner, dir, triple, profile, name, args)
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&configPath, "config", "c", ".", "Build unit declaration, used when --target-dir or --bin is omitted")
	fl.StringVar(&targetDir, "target-dir", "", "Cargo target directory")
	fl.StringVar(&triple, "target", "", "Target triple the binary was built for")
	fl.StringVar(&profile, "profile", "debug", "Profile the binary was built with (debug, release, ...)")
	fl.StringVar(&binary, "bin", "", "Binary name (defaults to default-run, then the unit name)")
	fl.StringVar(&logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	return cmd
}

func main() {
	// Set up panic recovery to return specific exit code
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "PANIC: %v\n", r)
			debug.PrintStack()
			os.Exit(exitPanic)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		code := cargo.ExitCode(err)
		if errors.Is(err, fs.ErrNotExist) {
			code = exitIOError
		}
		stop()
		os.Exit(code)
	}
}
