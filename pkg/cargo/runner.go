package cargo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/kballard/go-shellquote"

	kerrors "github.com/provide-io/cargokit/pkg/errors"
	"github.com/provide-io/cargokit/pkg/logging"
	"github.com/provide-io/cargokit/pkg/platform"
)

// EnvCargo overrides the cargo executable.
const EnvCargo = "CARGOKIT_CARGO"

// Runner executes cargo and the binaries it builds as child processes.
type Runner struct {
	// Cargo is the executable substituted for argv[0] == "cargo".
	Cargo  string
	Dir    string
	Env    []string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	logger hclog.Logger
}

// NewRunner returns a runner wired to the current process's stdio.
func NewRunner(logger hclog.Logger) *Runner {
	cargo := os.Getenv(EnvCargo)
	if cargo == "" {
		cargo = "cargo"
	}
	return &Runner{
		Cargo:  cargo,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		logger: logging.OrNull(logger),
	}
}

// Run executes an argv produced by CompileArgs.
func (r *Runner) Run(ctx context.Context, argv []string) error {
	if len(argv) == 0 {
		return fmt.Errorf("%w: empty command line", kerrors.ErrCargoFailed)
	}
	name := argv[0]
	if name == "cargo" && r.Cargo != "" {
		name = r.Cargo
	}
	if err := r.Exec(ctx, name, argv[1:]); err != nil {
		return fmt.Errorf("%w: %s: %w", kerrors.ErrCargoFailed, shellquote.Join(argv...), err)
	}
	return nil
}

// Exec spawns name with args and waits for it to finish.
func (r *Runner) Exec(ctx context.Context, name string, args []string) error {
	logger := logging.OrNull(r.logger)

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = r.Dir
	if len(r.Env) > 0 {
		cmd.Env = append(os.Environ(), r.Env...)
	}
	cmd.Stdin = r.Stdin
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	logger.Info("🚀 Executing command", "path", name)
	logger.Debug("🚀 Full command line", "cmd", shellquote.Join(append([]string{name}, args...)...))

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start process: %w", err)
	}
	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			logger.Info("⏹️ Process exited", "code", exitErr.ExitCode())
			return &ExitError{Code: exitErr.ExitCode()}
		}
		return fmt.Errorf("process error: %w", err)
	}
	logger.Info("✅ Process completed successfully")
	return nil
}

// Version returns the first line of `cargo --version`.
func (r *Runner) Version(ctx context.Context) (string, error) {
	var out strings.Builder
	quiet := *r
	quiet.Stdin = nil
	quiet.Stdout = &out
	quiet.Stderr = io.Discard
	quiet.logger = hclog.NewNullLogger()
	if err := quiet.Run(ctx, []string{"cargo", "--version"}); err != nil {
		return "", err
	}
	line, _, _ := strings.Cut(out.String(), "\n")
	return strings.TrimSpace(line), nil
}

// ExitError carries the exit status of a child that ran but failed.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string { return fmt.Sprintf("exit code %d", e.Code) }

// ExitCode extracts the child's exit status from err, or 1 when err does not
// carry one.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return 1
}

// ProfileDir maps a cargo profile to its output directory under the target
// directory.
func ProfileDir(profile string) string {
	switch profile {
	case "", "dev", "test", "debug":
		return "debug"
	case "bench":
		return "release"
	default:
		return profile
	}
}

// BinaryPath locates a binary cargo built. triple may be empty for host
// builds.
func BinaryPath(targetDir, triple, profile, name string, plat platform.Platform) string {
	parts := []string{targetDir}
	if triple != "" {
		parts = append(parts, triple)
	}
	parts = append(parts, ProfileDir(profile), platform.ExecutableName(name, plat))
	return filepath.Join(parts...)
}

// SplitExtra splits a shell-quoted string of extra cargo arguments.
func SplitExtra(s string) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	words, err := shellquote.Split(s)
	if err != nil {
		return nil, fmt.Errorf("%w: extra arguments %q: %w", kerrors.ErrUnsupportedOption, s, err)
	}
	return words, nil
}
