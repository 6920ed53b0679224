// Package resolver turns local cross-unit dependencies into path
// dependencies and stores them as records for the generate step.
package resolver

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/hashicorp/go-hclog"

	"github.com/provide-io/cargokit/pkg/config"
	kerrors "github.com/provide-io/cargokit/pkg/errors"
	"github.com/provide-io/cargokit/pkg/logging"
	"github.com/provide-io/cargokit/pkg/manifest"
	"github.com/provide-io/cargokit/pkg/platform"
	"github.com/provide-io/cargokit/pkg/record"
)

// Resolve builds the path dependency on the producer whose manifest lives in
// producerManifestDir. Name and version come from the producer's [package]
// table; the path is relative to consumerManifestDir.
func Resolve(ref *config.Dependency, consumerManifestDir, producerManifestDir string, plat platform.Platform, logger hclog.Logger) (*config.Dependency, error) {
	logger = logging.OrNull(logger)
	if plat == nil {
		plat = platform.Host()
	}

	producerManifest := filepath.Join(producerManifestDir, manifest.FileName)
	fields := manifest.ReadFields(producerManifest, "package", "name", "version")
	name, version := fields["name"], fields["version"]
	if name == "" || version == "" {
		return nil, fmt.Errorf("%w: %s (name %q, version %q)", kerrors.ErrIncompleteManifest, producerManifest, name, version)
	}

	rel, err := platform.Rel(consumerManifestDir, producerManifestDir, plat)
	if err != nil {
		return nil, fmt.Errorf("failed to relativize %s: %w", producerManifestDir, err)
	}

	if old, ok := ref.Path.Get(); ok && old != rel {
		logger.Warn("⚠️ Overwriting explicit path of local dependency",
			"dependency", ref.Name, "path", old, "resolved", rel)
	}

	dep := config.NewDependency(name, version)
	_ = dep.Path.Set(rel)
	dep.Project = ref.Project
	return dep, nil
}

// Options configure ResolveUnit.
type Options struct {
	// ManifestPath is the consumer's manifest location.
	ManifestPath string
	// OutDir receives the records; it is wiped first.
	OutDir   string
	Platform platform.Platform
	Logger   hclog.Logger
}

// Dropped is a local dependency that could not be resolved.
type Dropped struct {
	Class config.Class
	Ref   string
	Err   error
}

// Report summarizes a ResolveUnit run.
type Report struct {
	Resolved map[config.Class][]*config.Dependency
	Dropped  []Dropped
}

// Count returns the number of records written.
func (r *Report) Count() int {
	n := 0
	for _, deps := range r.Resolved {
		n += len(deps)
	}
	return n
}

// ResolveUnit resolves every local dependency of p through graph and writes
// one record per success. A dependency that fails to resolve is logged and
// left out; only I/O on the record directory is fatal.
func ResolveUnit(ctx context.Context, p *config.Project, graph Graph, opts Options) (*Report, error) {
	logger := logging.OrNull(opts.Logger)

	if err := record.Reset(opts.OutDir); err != nil {
		return nil, err
	}

	consumerDir := filepath.Dir(opts.ManifestPath)
	report := &Report{Resolved: make(map[config.Class][]*config.Dependency)}
	for _, class := range config.Classes {
		for _, ref := range p.Dependencies.Unresolved(class) {
			if err := ctx.Err(); err != nil {
				return report, err
			}

			dep, err := resolveOne(ref, p.Dir, consumerDir, graph, opts.Platform, logger)
			if err != nil {
				logger.Error("❌ Failed to resolve local dependency, dropping it",
					"class", class.Table(), "project", ref.Project, "error", err)
				report.Dropped = append(report.Dropped, Dropped{Class: class, Ref: ref.Project, Err: err})
				continue
			}

			path, err := record.Write(opts.OutDir, class, dep)
			if err != nil {
				return report, err
			}
			logger.Debug("📼 Wrote dependency record", "name", dep.Name, "path", path)
			report.Resolved[class] = append(report.Resolved[class], dep)
		}
	}

	logger.Info("🔗 Resolved local dependencies", "unit", p.Name, "resolved", report.Count(), "dropped", len(report.Dropped))
	return report, nil
}

func resolveOne(ref *config.Dependency, unitDir, consumerDir string, graph Graph, plat platform.Platform, logger hclog.Logger) (*config.Dependency, error) {
	unit, err := graph.Lookup(ref.Project, unitDir)
	if err != nil {
		return nil, err
	}
	return Resolve(ref, consumerDir, filepath.Dir(unit.ManifestPath), plat, logger)
}
