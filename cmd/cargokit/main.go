package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/provide-io/cargokit/pkg"
	"github.com/provide-io/cargokit/pkg/cargo"
	"github.com/provide-io/cargokit/pkg/logging"
)

const version = "0.1.0"

var (
	configPath  string
	logLevel    string
	versionFlag bool
	rootCmd     *cobra.Command
)

// buildStamp describes the checkout the binary was built from, as recorded
// by the Go toolchain.
func buildStamp() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	var revision, at string
	modified := false
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.time":
			at = setting.Value
		case "vcs.modified":
			modified = setting.Value == "true"
		}
	}
	if revision == "" {
		return "unknown"
	}
	if len(revision) > 12 {
		revision = revision[:12]
	}
	if modified {
		revision += "-dirty"
	}
	if at == "" {
		return revision
	}
	return revision + " (" + at + ")"
}

// printVersion writes cargokit's version and the cargo toolchain it drives.
func printVersion(ctx context.Context, w io.Writer, runner *cargo.Runner) {
	fmt.Fprintf(w, "cargokit %s\n", version)
	fmt.Fprintf(w, "Built: %s\n", buildStamp())
	cargoVersion, err := runner.Version(ctx)
	if err != nil {
		cargoVersion = "not found"
	}
	fmt.Fprintf(w, "Cargo: %s\n", cargoVersion)
}

func init() {
	rootCmd = &cobra.Command{
		Use:           "cargokit",
		Short:         "Generate Cargo manifests and drive cargo for a build unit",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if versionFlag {
				printVersion(cmd.Context(), cmd.OutOrStdout(), cargo.NewRunner(nil))
				return nil
			}
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", ".", "Build unit declaration, or the directory holding it")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	rootCmd.Flags().BoolVarP(&versionFlag, "version", "V", false, "Show version information")

	rootCmd.AddCommand(
		newGenerateCmd(),
		newResolveCmd(),
		newArgsCmd(),
		newExecCmd(),
		newReadCmd(),
		newDiscoverCmd(),
		newFingerprintCmd(),
		newVerifyCmd(),
	)
}

func newLogger(name string) hclog.Logger {
	return logging.NewLogger(name, logging.ResolveLevel(logLevel), nil)
}

func loadUnit(logger hclog.Logger) (*pkg.Unit, error) {
	return pkg.LoadProject(configPath, logger)
}

func main() {
	// Handle --version or -V before cobra parses other flags
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-V") {
		printVersion(context.Background(), os.Stdout, cargo.NewRunner(nil))
		os.Exit(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(exitCode(err))
	}
}
