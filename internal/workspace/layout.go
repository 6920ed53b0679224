// Package workspace lays out a build unit's generated files on disk.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/provide-io/cargokit/pkg/config"
	"github.com/provide-io/cargokit/pkg/manifest"
)

const (
	// BuildDir is the per-unit output directory.
	BuildDir = "build"
	// MarkerName is the up-to-date marker inside the build directory.
	MarkerName = ".cargokit-fingerprint"
)

// Paths are the locations of a unit's generated files.
type Paths struct {
	Unit      string
	Build     string
	Manifest  string
	TargetDir string
	Resolver  string
	Marker    string
}

// For returns the layout of p. A configured manifest path or target dir
// replaces the default under build/.
func For(p *config.Project) Paths {
	build := filepath.Join(p.Dir, BuildDir)
	return Paths{
		Unit:      p.Dir,
		Build:     build,
		Manifest:  p.ManifestPath.Or(filepath.Join(build, manifest.FileName)),
		TargetDir: p.TargetDir.Or(filepath.Join(build, "target")),
		Resolver:  filepath.Join(build, "resolver"),
		Marker:    filepath.Join(build, MarkerName),
	}
}

// ManifestPath returns where p's manifest is generated. It matches the
// resolver's manifest locator signature.
func ManifestPath(p *config.Project) string { return For(p).Manifest }

// Create makes the build, resolver and manifest directories.
func (ps Paths) Create() error {
	for _, dir := range []string{ps.Build, ps.Resolver, filepath.Dir(ps.Manifest)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
