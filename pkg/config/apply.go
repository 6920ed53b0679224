package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/provide-io/cargokit/pkg/cargo"
	kerrors "github.com/provide-io/cargokit/pkg/errors"
)

// Apply copies the declaration into p. Relative paths are taken relative to
// p.Dir. Every problem found is reported.
func (f *File) Apply(p *Project) error {
	var result *multierror.Error
	add := func(err error) {
		if err != nil {
			result = multierror.Append(result, err)
		}
	}

	if f.Package != nil {
		add(f.Package.apply(&p.Package, p.Dir))
	}

	profiles, err := f.profileSettings()
	add(err)
	for _, name := range ProfileNames {
		for _, s := range profiles[name] {
			p.Profiles.Get(name).Set(s.Key, s.Value)
		}
	}

	for _, feat := range f.Features {
		add(p.Features.Add(feat.Name, feat.Activates...))
	}

	if f.Library != nil {
		lib := p.EnsureLibrary()
		lib.Name = f.Library.Name
		add(applyTarget(lib, f.Library.fields(), p.Dir))
		if len(f.Library.CrateTypes) > 0 {
			add(lib.SetCrateTypes(f.Library.CrateTypes))
		}
	}
	for _, group := range []struct {
		set   *TargetSet
		specs []*TargetSpec
	}{
		{p.Binaries, f.Binaries},
		{p.Examples, f.Examples},
		{p.Tests, f.Tests},
		{p.Benches, f.Benches},
	} {
		for _, spec := range group.specs {
			_, err := group.set.Register(spec.Name, func(t *Target) error {
				return applyTarget(t, spec.fields(), p.Dir)
			})
			add(err)
		}
	}

	for _, group := range []struct {
		class Class
		specs []*DependencySpec
	}{
		{Normal, f.Dependencies},
		{Dev, f.DevDependencies},
		{Build, f.BuildDependencies},
	} {
		for _, spec := range group.specs {
			add(spec.register(p.Dependencies, group.class, p.Dir))
		}
	}

	if d := f.Discovery; d != nil {
		setBool(&p.Discovery.Library, d.Library)
		setBool(&p.Discovery.Binaries, d.Binaries)
		setBool(&p.Discovery.Examples, d.Examples)
		setBool(&p.Discovery.Tests, d.Tests)
		setBool(&p.Discovery.Benches, d.Benches)
		p.Discovery.Ignore = append(p.Discovery.Ignore, d.Ignore...)
	}

	if b := f.Build; b != nil {
		add(b.apply(p))
	}
	if h := f.Test; h != nil {
		p.Cargo.Test.NoRun = h.NoRun
		p.Cargo.Test.NoCapture = h.NoCapture
		p.Cargo.Test.NoFailFast = h.NoFailFast
		p.Cargo.Test.TestThreads = h.Threads
	}
	if h := f.Bench; h != nil {
		p.Cargo.Bench.NoRun = h.NoRun
		p.Cargo.Bench.NoCapture = h.NoCapture
		p.Cargo.Bench.NoFailFast = h.NoFailFast
	}
	if pub := f.Publishing; pub != nil {
		p.Cargo.Publish = cargo.PublishOptions{
			DryRun:     pub.DryRun,
			NoVerify:   pub.NoVerify,
			AllowDirty: pub.AllowDirty,
			Token:      pub.Token,
			Index:      pub.Index,
			Registry:   pub.Registry,
		}
	}

	return result.ErrorOrNil()
}

func (s *PackageSpec) apply(m *PackageMetadata, dir string) error {
	var result *multierror.Error
	add := func(err error) {
		if err != nil {
			result = multierror.Append(result, err)
		}
	}

	setString(&m.Name, s.Name)
	setString(&m.Version, s.Version)
	setString(&m.Edition, s.Edition)
	setString(&m.RustVersion, s.RustVersion)
	setString(&m.Description, s.Description)
	setString(&m.Documentation, s.Documentation)
	setPath(&m.Readme, s.Readme, dir)
	setString(&m.Homepage, s.Homepage)
	setString(&m.Repository, s.Repository)
	setString(&m.License, s.License)
	setPath(&m.LicenseFile, s.LicenseFile, dir)
	setPath(&m.Workspace, s.Workspace, dir)
	setPath(&m.Build, s.Build, dir)
	setString(&m.Links, s.Links)
	setString(&m.DefaultRun, s.DefaultRun)
	setStrings(&m.Authors, s.Authors)
	setStrings(&m.Keywords, s.Keywords)
	setStrings(&m.Categories, s.Categories)
	setStrings(&m.Include, s.Include)
	setStrings(&m.Exclude, s.Exclude)
	setBool(&m.AutoBins, s.AutoBins)
	setBool(&m.AutoExamples, s.AutoExamples)
	setBool(&m.AutoTests, s.AutoTests)
	setBool(&m.AutoBenches, s.AutoBenches)

	publish := s.Publish
	if s.PublishHCL != nil {
		hclPublish, err := publishFromCty(*s.PublishHCL)
		add(err)
		if hclPublish != nil {
			publish = hclPublish
		}
	}
	if publish != nil {
		if publish.Disabled {
			add(m.PublishDisabled.Set(true))
		}
		setStrings(&m.PublishRegistries, publish.Registries)
	}
	return result.ErrorOrNil()
}

func applyTarget(t *Target, f targetFields, dir string) error {
	if f.Path != "" {
		if err := t.Path.Set(absPath(dir, f.Path)); err != nil {
			return err
		}
	}
	setBool(&t.Test, f.Test)
	setBool(&t.Doctest, f.Doctest)
	setBool(&t.Bench, f.Bench)
	setBool(&t.Doc, f.Doc)
	setBool(&t.ProcMacro, f.ProcMacro)
	setBool(&t.Harness, f.Harness)
	t.RequiredFeatures = append([]string(nil), f.RequiredFeatures...)
	t.BuildFeatures = append([]string(nil), f.BuildFeatures...)
	t.Excluded = f.Excluded
	return nil
}

func (s *DependencySpec) register(r *Registry, class Class, dir string) error {
	if s.notation != "" {
		dep, err := ParseNotation(s.notation)
		if err != nil {
			return err
		}
		r.Add(class, dep)
		return nil
	}

	var dep *Dependency
	if s.Project != "" {
		dep = NewLocalDependency(s.Name, s.Project)
	} else {
		if strings.TrimSpace(s.Name) == "" {
			return fmt.Errorf("%w: %s entry without a name", kerrors.ErrInvalidConfig, class.Table())
		}
		version := s.Version
		if version == "" {
			version = "*"
		}
		dep = NewDependency(s.Name, version)
	}

	setPath(&dep.Path, s.Path, dir)
	setString(&dep.Git, s.Git)
	setString(&dep.Rev, s.Rev)
	setString(&dep.Branch, s.Branch)
	setString(&dep.Registry, s.Registry)
	setStrings(&dep.Features, s.Features)
	setBool(&dep.DefaultFeatures, s.DefaultFeatures)
	setBool(&dep.Optional, s.Optional)

	if dep.IsUnresolved() {
		r.AddUnresolved(class, dep)
	} else {
		r.Add(class, dep)
	}
	return nil
}

func (b *BuildSpec) apply(p *Project) error {
	var result *multierror.Error

	if b.ManifestPath != "" {
		_ = p.ManifestPath.Set(absPath(p.Dir, b.ManifestPath))
	}
	if b.TargetDir != "" {
		_ = p.TargetDir.Set(absPath(p.Dir, b.TargetDir))
	}

	color, err := cargo.ParseColor(b.Color)
	if err != nil {
		result = multierror.Append(result, err)
	}
	timings, err := cargo.ParseTimings(b.Timings)
	if err != nil {
		result = multierror.Append(result, err)
	}
	formats, err := cargo.ParseMessageFormats(b.MessageFormat)
	if err != nil {
		result = multierror.Append(result, err)
	}

	c := &p.Cargo.Common
	c.Target = b.Target
	c.Features = append([]string(nil), b.Features...)
	c.AllFeatures = b.AllFeatures
	c.NoDefaultFeatures = b.NoDefaultFeatures
	c.IgnoreRustVersion = b.IgnoreRustVersion
	c.Locked = b.Locked
	c.Offline = b.Offline
	c.Frozen = b.Frozen
	c.Jobs = b.Jobs
	c.KeepGoing = b.KeepGoing
	c.Verbose = b.Verbose
	c.Quiet = b.Quiet
	c.Color = color
	c.Toolchain = b.Toolchain
	c.Config = b.Config
	c.ConfigPaths = append([]string(nil), b.ConfigPaths...)
	c.Unstable = append([]string(nil), b.Unstable...)

	bo := &p.Cargo.Build
	bo.Workspace = b.Workspace
	bo.Exclude = append([]string(nil), b.Exclude...)
	bo.Release = b.Release
	bo.Profile = b.Profile
	bo.Timings = timings
	bo.MessageFormats = formats
	bo.BuildPlan = b.BuildPlan
	bo.FutureIncompatReport = b.FutureIncompatReport

	return result.ErrorOrNil()
}

func absPath(dir, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(dir, p)
}

// The setters below run before Finalize, so Set cannot fail.

// setPath stores v resolved against the unit directory.
func setPath(f *Field[string], v, dir string) {
	if v != "" {
		_ = f.Set(absPath(dir, v))
	}
}

func setString(f *Field[string], v string) {
	if v != "" {
		_ = f.Set(v)
	}
}

func setStrings(f *Field[[]string], v []string) {
	if len(v) > 0 {
		_ = f.Set(append([]string(nil), v...))
	}
}

func setBool(f *Field[bool], v *bool) {
	if v != nil {
		_ = f.Set(*v)
	}
}
