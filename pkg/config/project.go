package config

import (
	"github.com/provide-io/cargokit/pkg/cargo"
)

// Discovery switches directory-convention target discovery per kind.
type Discovery struct {
	Library  Field[bool]
	Binaries Field[bool]
	Examples Field[bool]
	Tests    Field[bool]
	Benches  Field[bool]

	// Ignore holds glob patterns of source entries to skip.
	Ignore []string
}

// Enabled reports whether discovery runs for kind. Every kind defaults to on.
func (d *Discovery) Enabled(kind TargetKind) bool {
	switch kind {
	case Library:
		return d.Library.Or(true)
	case Binary:
		return d.Binaries.Or(true)
	case Example:
		return d.Examples.Or(true)
	case Test:
		return d.Tests.Or(true)
	default:
		return d.Benches.Or(true)
	}
}

// Project is the aggregated configuration of one build unit.
type Project struct {
	// Name, Dir, Version and Description describe the build unit itself.
	Name        string
	Dir         string
	Version     string
	Description string

	Package  PackageMetadata
	Profiles Profiles
	Features Features

	// Library is nil until a library target is configured or discovered.
	Library  *Target
	Binaries *TargetSet
	Examples *TargetSet
	Tests    *TargetSet
	Benches  *TargetSet

	Dependencies *Registry
	Discovery    Discovery

	// ManifestPath is where the manifest is generated; TargetDir is handed
	// to cargo. Both default to the build directory layout.
	ManifestPath Field[string]
	TargetDir    Field[string]

	// Cargo carries the options used when the unit invokes cargo.
	Cargo cargo.Invocation

	finalized bool
}

// NewProject returns a project for the build unit in dir with the package
// conventions registered.
func NewProject(name, dir, version, description string) *Project {
	p := &Project{
		Name:         name,
		Dir:          dir,
		Version:      version,
		Description:  description,
		Binaries:     NewTargetSet(Binary),
		Examples:     NewTargetSet(Example),
		Tests:        NewTargetSet(Test),
		Benches:      NewTargetSet(Benchmark),
		Dependencies: NewRegistry(),
	}
	p.Package.applyConventions(name, version, description)
	return p
}

// Targets returns the set for an array kind, nil for Library.
func (p *Project) Targets(kind TargetKind) *TargetSet {
	switch kind {
	case Binary:
		return p.Binaries
	case Example:
		return p.Examples
	case Test:
		return p.Tests
	case Benchmark:
		return p.Benches
	default:
		return nil
	}
}

// EnsureLibrary returns the library target, creating it when absent.
func (p *Project) EnsureLibrary() *Target {
	if p.Library == nil {
		p.Library = NewTarget(Library, "")
	}
	return p.Library
}

// AllTargets returns the library, if any, followed by every other target in
// manifest order.
func (p *Project) AllTargets() []*Target {
	var out []*Target
	if p.Library != nil {
		out = append(out, p.Library)
	}
	for _, kind := range TargetKinds[1:] {
		out = append(out, p.Targets(kind).All()...)
	}
	return out
}

// Finalize evaluates every pending convention and freezes all fields. It
// runs once; later calls are no-ops.
func (p *Project) Finalize() {
	if p.finalized {
		return
	}
	p.Package.Finalize()
	for _, t := range p.AllTargets() {
		t.Finalize()
	}
	finalizeAll(
		&p.Discovery.Library, &p.Discovery.Binaries, &p.Discovery.Examples,
		&p.Discovery.Tests, &p.Discovery.Benches,
		&p.ManifestPath, &p.TargetDir,
	)
	p.finalized = true
}

// Finalized reports whether Finalize has run.
func (p *Project) Finalized() bool { return p.finalized }
