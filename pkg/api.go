// Package pkg is the entry point the cargokit commands use. It ties loading,
// discovery, resolution, generation and cargo invocation together for one
// build unit.
package pkg

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"

	"github.com/provide-io/cargokit/internal/workspace"
	"github.com/provide-io/cargokit/pkg/cargo"
	"github.com/provide-io/cargokit/pkg/config"
	"github.com/provide-io/cargokit/pkg/discovery"
	kerrors "github.com/provide-io/cargokit/pkg/errors"
	"github.com/provide-io/cargokit/pkg/fingerprint"
	"github.com/provide-io/cargokit/pkg/logging"
	"github.com/provide-io/cargokit/pkg/manifest"
	"github.com/provide-io/cargokit/pkg/platform"
	"github.com/provide-io/cargokit/pkg/resolver"
)

// Unit is a loaded build unit with its on-disk layout.
type Unit struct {
	Project  *config.Project
	Paths    workspace.Paths
	Platform platform.Platform
}

// LoadProject loads the declaration at path, or the one found in path when
// it is a directory, and registers discovered targets.
func LoadProject(path string, logger hclog.Logger) (*Unit, error) {
	logger = logging.OrNull(logger)

	if info, err := os.Stat(path); err == nil && info.IsDir() {
		found, err := config.FindFile(path)
		if err != nil {
			return nil, err
		}
		path = found
	}

	p, err := config.LoadFile(path, logger)
	if err != nil {
		return nil, err
	}
	if _, err := discovery.Run(p, logger.Named("discovery")); err != nil {
		return nil, err
	}
	return &Unit{Project: p, Paths: workspace.For(p), Platform: platform.Host()}, nil
}

// ResolveUnit writes dependency records for every local dependency of u.
func ResolveUnit(ctx context.Context, u *Unit, logger hclog.Logger) (*resolver.Report, error) {
	logger = logging.OrNull(logger)
	graph := &resolver.DirGraph{Manifest: workspace.ManifestPath, Logger: logger}
	return resolver.ResolveUnit(ctx, u.Project, graph, resolver.Options{
		ManifestPath: u.Paths.Manifest,
		OutDir:       u.Paths.Resolver,
		Platform:     u.Platform,
		Logger:       logger.Named("resolver"),
	})
}

func (u *Unit) generateOptions(logger hclog.Logger) manifest.GenerateOptions {
	return manifest.GenerateOptions{
		ManifestPath: u.Paths.Manifest,
		ResolverDir:  u.Paths.Resolver,
		Platform:     u.Platform,
		Logger:       logger,
	}
}

// GenerateManifest writes u's Cargo.toml and records the manifest hash and
// the source fingerprint in the up-to-date marker.
func GenerateManifest(ctx context.Context, u *Unit, logger hclog.Logger) (*manifest.Result, error) {
	logger = logging.OrNull(logger)

	if err := u.Paths.Create(); err != nil {
		return nil, err
	}
	if err := u.Paths.Invalidate(); err != nil {
		logger.Warn("⚠️ Failed to remove up-to-date marker", "path", u.Paths.Marker, "error", err)
	}

	res, err := manifest.Generate(ctx, u.Project, u.generateOptions(logger.Named("manifest")))
	if err != nil {
		return nil, err
	}

	fp, err := fingerprint.Sources(ctx, res.Path, flatten(res.Dependencies), logger.Named("fingerprint"))
	if err != nil {
		logger.Warn("⚠️ Failed to fingerprint dependency sources, unit stays stale", "error", err)
		return res, nil
	}
	if err := u.Paths.WriteMarker(u.marker(res, fp)); err != nil {
		logger.Warn("⚠️ Failed to write up-to-date marker", "path", u.Paths.Marker, "error", err)
	}
	return res, nil
}

// Fingerprint hashes the sources of u's path dependencies as the resolver
// records currently describe them.
func Fingerprint(ctx context.Context, u *Unit, logger hclog.Logger) (*fingerprint.Fingerprint, error) {
	logger = logging.OrNull(logger)
	res, err := manifest.Prepare(ctx, u.Project, u.generateOptions(logger.Named("manifest")))
	if err != nil {
		return nil, err
	}
	return fingerprint.Sources(ctx, res.Path, flatten(res.Dependencies), logger.Named("fingerprint"))
}

// IsUpToDate reports whether the manifest generated last is still what u's
// configuration renders to and its dependency sources are unchanged.
func IsUpToDate(ctx context.Context, u *Unit, logger hclog.Logger) (bool, error) {
	logger = logging.OrNull(logger)
	res, err := manifest.Prepare(ctx, u.Project, u.generateOptions(logger.Named("manifest")))
	if err != nil {
		return false, err
	}
	fp, err := fingerprint.Sources(ctx, res.Path, flatten(res.Dependencies), logger.Named("fingerprint"))
	if err != nil {
		return false, err
	}
	return u.Paths.IsUpToDate(u.marker(res, fp), fingerprint.Text), nil
}

func (u *Unit) marker(res *manifest.Result, fp *fingerprint.Fingerprint) workspace.Marker {
	return workspace.Marker{
		Unit:        u.Project.Name,
		Version:     u.Project.Version,
		Fingerprint: fp.Sum,
		Manifest:    fingerprint.Text(res.Text),
	}
}

func flatten(deps manifest.Dependencies) []*config.Dependency {
	var out []*config.Dependency
	for _, class := range config.Classes {
		out = append(out, deps[class]...)
	}
	return out
}

// invocation returns u's cargo options pointed at its generated manifest.
func (u *Unit) invocation() cargo.Invocation {
	inv := u.Project.Cargo
	if inv.Common.ManifestPath == "" {
		inv.Common.ManifestPath = u.Paths.Manifest
	}
	if inv.Common.TargetDir == "" {
		inv.Common.TargetDir = u.Paths.TargetDir
	}
	inv.Publish = cargo.ResolveToken(inv.Publish, os.Getenv)
	return inv
}

// CompileTaskArgs returns the cargo argv for kind. extra and trailing are
// appended to the unit's configured arguments.
func CompileTaskArgs(u *Unit, kind cargo.TaskKind, extra, trailing []string) ([]string, error) {
	inv := u.invocation()
	inv.Extra = append(append([]string(nil), inv.Extra...), extra...)
	inv.Trailing = append(append([]string(nil), inv.Trailing...), trailing...)
	return cargo.CompileArgs(kind, inv)
}

// TargetBuildArgs returns the argv building one binary or example of u with
// its build features.
func TargetBuildArgs(u *Unit, kind cargo.TaskKind, targetKind config.TargetKind, name string, release bool) ([]string, error) {
	var table string
	switch targetKind {
	case config.Binary, config.Example:
		table = targetKind.Table()
	default:
		return nil, fmt.Errorf("%w: cannot build %s target %q on its own", kerrors.ErrUnsupportedOption, targetKind, name)
	}

	t, ok := u.Project.Targets(targetKind).Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: no %s target %q", kerrors.ErrInvalidConfig, targetKind, name)
	}
	if t.Excluded {
		return nil, fmt.Errorf("%w: %s target %q is excluded", kerrors.ErrUnsupportedOption, targetKind, name)
	}
	return cargo.TargetBuildArgs(kind, cargo.BuildTarget{Kind: table, Name: name, BuildFeatures: t.BuildFeatures}, release, u.invocation())
}

// RunTask compiles and executes kind for u.
func RunTask(ctx context.Context, u *Unit, kind cargo.TaskKind, runner *cargo.Runner, extra, trailing []string) error {
	argv, err := CompileTaskArgs(u, kind, extra, trailing)
	if err != nil {
		return err
	}
	return runner.Run(ctx, argv)
}

// RunBinary executes a binary cargo built into targetDir.
func RunBinary(ctx context.Context, runner *cargo.Runner, targetDir, triple, profile, name string, args []string) error {
	path := cargo.BinaryPath(targetDir, triple, profile, name, platform.Host())
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("binary %s not built: %w", name, err)
	}
	return runner.Exec(ctx, path, args)
}
