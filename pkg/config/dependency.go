package config

import (
	"fmt"
	"path/filepath"
	"strings"

	kerrors "github.com/provide-io/cargokit/pkg/errors"
)

const (
	// Unresolved is the version placeholder of a local dependency awaiting
	// its record.
	Unresolved = "unresolved"
	// DefaultRegistry is the registry cargo uses when none is named.
	DefaultRegistry = "crates.io"
)

// Class is the dependency table an entry belongs to.
type Class int

const (
	Normal Class = iota
	Dev
	Build
)

// Classes lists the classes in manifest order.
var Classes = []Class{Normal, Dev, Build}

var classInfo = map[Class]struct{ table, recordDir string }{
	Normal: {"dependencies", "crates"},
	Dev:    {"dev-dependencies", "devCrates"},
	Build:  {"build-dependencies", "buildCrates"},
}

// Table returns the manifest table name of the class.
func (c Class) Table() string { return classInfo[c].table }

// RecordDir returns the resolver subdirectory holding the class's records.
func (c Class) RecordDir() string { return classInfo[c].recordDir }

func (c Class) String() string {
	if info, ok := classInfo[c]; ok {
		return info.table
	}
	return fmt.Sprintf("class(%d)", int(c))
}

// Dependency is one entry of a dependency table.
type Dependency struct {
	Name    string
	Version string

	Path     Field[string]
	Git      Field[string]
	Rev      Field[string]
	Branch   Field[string]
	Registry Field[string]
	Features Field[[]string]

	DefaultFeatures Field[bool]
	Optional        Field[bool]

	// Project locates the producing build unit of an unresolved entry,
	// relative to the consuming unit's directory.
	Project string
}

// NewDependency returns a registry dependency.
func NewDependency(name, version string) *Dependency {
	return &Dependency{Name: name, Version: version}
}

// NewLocalDependency returns an unresolved dependency on the build unit in
// projectDir. An empty name is derived from the directory.
func NewLocalDependency(name, projectDir string) *Dependency {
	if name == "" {
		name = filepath.Base(filepath.Clean(projectDir))
	}
	return &Dependency{Name: name, Version: Unresolved, Project: projectDir}
}

// ParseNotation parses "name:version" or a bare "name" (version "*").
func ParseNotation(s string) (*Dependency, error) {
	s = strings.TrimSpace(s)
	name, version, found := strings.Cut(s, ":")
	name = strings.TrimSpace(name)
	version = strings.TrimSpace(version)
	if name == "" || (found && version == "") || strings.Contains(version, ":") {
		return nil, fmt.Errorf("%w: %q, expected name:version", kerrors.ErrInvalidNotation, s)
	}
	if !found {
		version = "*"
	}
	return NewDependency(name, version), nil
}

// IsUnresolved reports whether the entry still waits for its record.
func (d *Dependency) IsUnresolved() bool { return d.Version == Unresolved }

// HasOptions reports whether the entry needs the inline-table form. Empty
// values and the default registry do not count; rev and branch only count
// with a git source.
func (d *Dependency) HasOptions() bool {
	nonBlank := func(f Field[string]) bool { return strings.TrimSpace(f.Value()) != "" }
	registry := nonBlank(d.Registry) && d.Registry.Value() != DefaultRegistry
	return nonBlank(d.Path) || nonBlank(d.Git) || registry || len(d.Features.Value()) > 0 ||
		d.DefaultFeatures.IsSet() || d.Optional.IsSet()
}

// CopyIfNotSetFrom fills every unset option of d from other.
func (d *Dependency) CopyIfNotSetFrom(other *Dependency) {
	d.Path.CopyIfNotSet(other.Path)
	d.Git.CopyIfNotSet(other.Git)
	d.Rev.CopyIfNotSet(other.Rev)
	d.Branch.CopyIfNotSet(other.Branch)
	d.Registry.CopyIfNotSet(other.Registry)
	d.Features.CopyIfNotSet(other.Features)
	d.DefaultFeatures.CopyIfNotSet(other.DefaultFeatures)
	d.Optional.CopyIfNotSet(other.Optional)
}

// Clone returns a copy that shares no slices with d.
func (d *Dependency) Clone() *Dependency {
	c := *d
	if f, ok := d.Features.Get(); ok {
		c.Features = Field[[]string]{}
		_ = c.Features.Set(append([]string(nil), f...))
	}
	return &c
}

func (d *Dependency) String() string {
	return d.Name + ":" + d.Version
}
