package manifest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"

	"github.com/provide-io/cargokit/pkg/config"
	"github.com/provide-io/cargokit/pkg/logging"
	"github.com/provide-io/cargokit/pkg/platform"
	"github.com/provide-io/cargokit/pkg/record"
)

// GenerateOptions configure Generate.
type GenerateOptions struct {
	// ManifestPath is the file to write.
	ManifestPath string
	// ResolverDir holds the records written by the resolve step. Empty means
	// the unit has no local dependencies to merge.
	ResolverDir string
	Platform    platform.Platform
	Logger      hclog.Logger
}

// Result describes a generated manifest.
type Result struct {
	Path         string
	Text         string
	Dependencies Dependencies
	// Recovered lists records that were unreadable and have been removed.
	Recovered []error
}

// Generate merges resolver records into the project's dependencies,
// validates the whole configuration, and only then replaces the manifest on
// disk.
func Generate(ctx context.Context, p *config.Project, opts GenerateOptions) (*Result, error) {
	logger := logging.OrNull(opts.Logger)

	result, err := Prepare(ctx, p, opts)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := writeManifest(opts.ManifestPath, result.Text, logger); err != nil {
		return nil, err
	}
	logger.Info("✅ Manifest generated", "path", opts.ManifestPath, "package", p.Package.Name.Value())
	return result, nil
}

// Prepare does everything Generate does except touching the manifest file.
func Prepare(ctx context.Context, p *config.Project, opts GenerateOptions) (*Result, error) {
	logger := logging.OrNull(opts.Logger)
	if opts.ManifestPath == "" {
		return nil, fmt.Errorf("no manifest path given for %s", p.Name)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &Result{Path: opts.ManifestPath, Dependencies: make(Dependencies)}
	for _, class := range config.Classes {
		var records []*config.Dependency
		if opts.ResolverDir != "" {
			deps, recovered, err := record.ReadClass(opts.ResolverDir, class, logger)
			if err != nil {
				return nil, err
			}
			records = deps
			result.Recovered = append(result.Recovered, recovered...)
		}
		merged, err := p.Dependencies.Merge(class, records, logger)
		if err != nil {
			return nil, err
		}
		result.Dependencies[class] = merged
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}

	text, err := Render(p, result.Dependencies, opts.ManifestPath, opts.Platform, logger)
	if err != nil {
		return nil, err
	}
	result.Text = text
	return result, nil
}

// writeManifest removes the stale manifest and moves a fully written
// temporary file into its place.
func writeManifest(path, text string, logger hclog.Logger) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create manifest directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+FileName+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary manifest: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.WriteString(text); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temporary manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temporary manifest: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return fmt.Errorf("failed to set manifest permissions: %w", err)
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete stale manifest %s: %w", path, err)
	}
	logger.Debug("Performing atomic file replacement", "source", tmpPath, "dest", path)
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename manifest into place: %w", err)
	}
	return nil
}
