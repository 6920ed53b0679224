package resolver

import (
	"path/filepath"

	"github.com/hashicorp/go-hclog"

	"github.com/provide-io/cargokit/pkg/config"
	"github.com/provide-io/cargokit/pkg/logging"
)

// Unit is a producing build unit as seen by a consumer.
type Unit struct {
	Name string
	Dir  string
	// ManifestPath is where the producer's manifest is generated.
	ManifestPath string
}

// Graph locates the build unit a local dependency refers to.
type Graph interface {
	Lookup(ref string, fromDir string) (*Unit, error)
}

// ManifestLocator returns the manifest path a loaded unit generates to.
type ManifestLocator func(p *config.Project) string

// DirGraph treats sibling directories holding a cargokit declaration as
// build units.
type DirGraph struct {
	// Manifest maps a producer to its manifest path.
	Manifest ManifestLocator
	Logger   hclog.Logger
}

// Lookup resolves ref, relative to fromDir unless absolute, to a unit. It
// fails with ErrProjectNotFound for a missing directory and
// ErrUnsupportedProject when the directory has no declaration.
func (g *DirGraph) Lookup(ref string, fromDir string) (*Unit, error) {
	dir := ref
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(fromDir, ref)
	}
	dir = filepath.Clean(dir)

	path, err := config.FindFile(dir)
	if err != nil {
		return nil, err
	}
	p, err := config.LoadFile(path, logging.OrNull(g.Logger).Named("producer"))
	if err != nil {
		return nil, err
	}
	return &Unit{Name: p.Name, Dir: p.Dir, ManifestPath: g.Manifest(p)}, nil
}
