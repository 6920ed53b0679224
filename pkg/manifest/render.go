// Package manifest renders a build unit's configuration into Cargo.toml text
// and reads single fields back out of generated manifests.
package manifest

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/provide-io/cargokit/pkg/config"
	kerrors "github.com/provide-io/cargokit/pkg/errors"
	"github.com/provide-io/cargokit/pkg/logging"
	"github.com/provide-io/cargokit/pkg/platform"
)

// FileName is the name cargo expects for a manifest.
const FileName = "Cargo.toml"

// Header opens every generated manifest.
var Header = []string{
	"THIS FILE IS AUTO-GENERATED by cargokit",
	"MODIFY YOUR cargokit.yaml/cargokit.hcl FILE INSTEAD!",
	"CHANGES HERE WILL BE LOST!!!",
}

// Dependencies are the final entries of each class, as produced by
// Registry.Merge.
type Dependencies map[config.Class][]*config.Dependency

// DirectDependencies returns the registry's resolved entries without any
// records, for projects that have no local dependencies.
func DirectDependencies(p *config.Project) Dependencies {
	deps := make(Dependencies)
	for _, class := range config.Classes {
		deps[class] = p.Dependencies.Resolved(class)
	}
	return deps
}

type renderer struct {
	w           *writer
	project     *config.Project
	manifestDir string
	plat        platform.Platform
}

// Render produces the manifest text for p. The project is finalized first.
// Absolute paths are rewritten relative to the directory of manifestPath
// with forward slashes; relative paths are written as given.
func Render(p *config.Project, deps Dependencies, manifestPath string, plat platform.Platform, logger hclog.Logger) (string, error) {
	if plat == nil {
		plat = platform.Host()
	}
	p.Finalize()

	if strings.TrimSpace(p.Package.Name.Value()) == "" {
		return "", kerrors.ErrMissingPackageName
	}
	if deps == nil {
		deps = DirectDependencies(p)
	}

	r := &renderer{
		w:           &writer{logger: logging.OrNull(logger)},
		project:     p,
		manifestDir: platform.Dir(manifestPath, plat),
		plat:        plat,
	}

	for _, line := range Header {
		r.w.comment(line)
	}
	if err := r.packageTable(); err != nil {
		return "", err
	}
	r.profiles()
	r.features()
	for _, class := range config.Classes {
		r.dependencies(class, deps[class])
	}
	if err := r.targets(); err != nil {
		return "", err
	}
	return r.w.String(), nil
}

func (r *renderer) packageTable() error {
	m := &r.project.Package
	w := r.w

	w.table("package")
	w.stringField("name", &m.Name)
	w.stringField("version", &m.Version)
	w.arrayField("authors", &m.Authors)
	w.stringField("edition", &m.Edition)
	w.stringField("rust-version", &m.RustVersion)
	w.stringField("description", &m.Description)
	w.stringField("documentation", &m.Documentation)
	if err := r.pathField("readme", &m.Readme); err != nil {
		return err
	}
	w.stringField("homepage", &m.Homepage)
	w.stringField("repository", &m.Repository)
	w.stringField("license", &m.License)
	if err := r.pathField("license-file", &m.LicenseFile); err != nil {
		return err
	}
	w.arrayField("keywords", &m.Keywords)
	w.arrayField("categories", &m.Categories)
	if err := r.pathField("workspace", &m.Workspace); err != nil {
		return err
	}
	if err := r.pathField("build", &m.Build); err != nil {
		return err
	}
	w.stringField("links", &m.Links)
	w.arrayField("include", &m.Include)
	w.arrayField("exclude", &m.Exclude)
	if m.PublishDisabled.Value() {
		w.line("publish", "false")
	} else if registries, ok := m.PublishRegistries.Get(); ok && len(registries) > 0 {
		w.array("publish", registries, false)
	}
	w.stringField("default-run", &m.DefaultRun)
	w.boolean("autobins", &m.AutoBins, true)
	w.boolean("autoexamples", &m.AutoExamples, true)
	w.boolean("autotests", &m.AutoTests, true)
	w.boolean("autobenches", &m.AutoBenches, true)
	return nil
}

func (r *renderer) profiles() {
	for _, name := range config.ProfileNames {
		profile := r.project.Profiles.Get(name)
		if profile.Len() == 0 {
			continue
		}
		r.w.table("profile." + string(name))
		for _, s := range profile.Settings() {
			r.w.profileValue(s.Key, s.Value)
		}
	}
}

func (r *renderer) features() {
	if r.project.Features.Len() == 0 {
		return
	}
	r.w.table("features")
	for _, f := range r.project.Features.All() {
		r.w.array(f.Name, f.Activates, true)
	}
}

func (r *renderer) dependencies(class config.Class, deps []*config.Dependency) {
	if len(deps) == 0 {
		return
	}
	r.w.table(class.Table())
	for _, d := range deps {
		if path, ok := d.Path.Get(); ok && platform.IsAbs(path, r.plat) {
			if rel, err := platform.Rel(r.manifestDir, path, r.plat); err == nil {
				d = d.Clone()
				d.Path = config.Of(rel)
			}
		}
		r.w.dependency(d)
	}
}

func (r *renderer) targets() error {
	for _, kind := range config.TargetKinds {
		for _, t := range r.declared(kind) {
			if t.Excluded {
				continue
			}
			if kind.IsArray() {
				r.w.arrayTable(kind.Table())
			} else {
				r.w.table(kind.Table())
			}
			if err := r.target(t); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *renderer) declared(kind config.TargetKind) []*config.Target {
	if kind.IsArray() {
		return r.project.Targets(kind).All()
	}
	if r.project.Library == nil {
		return nil
	}
	return []*config.Target{r.project.Library}
}

func (r *renderer) target(t *config.Target) error {
	r.w.field("name", t.Name)
	if err := r.pathField("path", &t.Path); err != nil {
		return fmt.Errorf("%s target %q: %w", t.Kind, t.Name, err)
	}
	for _, b := range config.TargetBools {
		r.w.boolean(string(b), t.Bool(b), b.Default(t.Kind))
	}
	if t.Kind == config.Library {
		r.w.array("crate-type", t.CrateTypes(), false)
	}
	r.w.array("required-features", t.RequiredFeatures, false)
	return nil
}

// pathField writes a path-valued field, relativizing absolute paths.
func (r *renderer) pathField(key string, f *config.Field[string]) error {
	v, ok := f.Get()
	if !ok || strings.TrimSpace(v) == "" {
		return nil
	}
	if platform.IsAbs(v, r.plat) {
		rel, err := platform.Rel(r.manifestDir, v, r.plat)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		v = rel
	} else {
		v = platform.ToSlash(v, r.plat)
	}
	r.w.field(key, v)
	return nil
}
