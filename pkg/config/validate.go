package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/gobwas/glob"
	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/go-version"

	"github.com/provide-io/cargokit/pkg/cargo"
	kerrors "github.com/provide-io/cargokit/pkg/errors"
)

// Validate finalizes the project and reports every configuration problem at
// once. It only stats target source files; nothing is written.
func (p *Project) Validate() error {
	p.Finalize()

	var result *multierror.Error
	add := func(err error) { result = multierror.Append(result, err) }

	if strings.TrimSpace(p.Package.Name.Value()) == "" {
		add(kerrors.ErrMissingPackageName)
	}
	if v, ok := p.Package.Version.Get(); ok {
		if _, err := version.NewSemver(v); err != nil {
			add(fmt.Errorf("%w: package version %q: %w", kerrors.ErrInvalidVersion, v, err))
		}
	}
	if v, ok := p.Package.RustVersion.Get(); ok {
		if _, err := version.NewVersion(v); err != nil {
			add(fmt.Errorf("%w: rust-version %q: %w", kerrors.ErrInvalidVersion, v, err))
		}
	}
	for _, list := range []struct {
		field    string
		patterns []string
	}{
		{"include", p.Package.Include.Value()},
		{"exclude", p.Package.Exclude.Value()},
	} {
		for _, pattern := range list.patterns {
			if _, err := glob.Compile(pattern, '/'); err != nil {
				add(fmt.Errorf("%w: %s pattern %q: %w", kerrors.ErrInvalidGlob, list.field, pattern, err))
			}
		}
	}
	if p.Package.PublishDisabled.Value() && len(p.Package.PublishRegistries.Value()) > 0 {
		add(&kerrors.ConflictError{
			Setting: "publish",
			First:   "false",
			Second:  "[" + strings.Join(p.Package.PublishRegistries.Value(), ", ") + "]",
		})
	}
	if run, ok := p.Package.DefaultRun.Get(); ok && run != "" && !p.Binaries.Has(run) {
		add(fmt.Errorf("%w: default-run names unknown binary %q", kerrors.ErrInvalidConfig, run))
	}

	// Every optional dependency implies a feature of the same name.
	optional := p.Dependencies.optionalNames()
	for _, t := range p.AllTargets() {
		if t.Excluded {
			continue
		}
		if err := checkTargetPath(t); err != nil {
			add(err)
		}
		for _, f := range t.RequiredFeatures {
			if !strings.ContainsAny(f, "/:") && !p.Features.Has(f) && !optional[f] {
				add(fmt.Errorf("%w: %s target %q requires undeclared feature %q", kerrors.ErrInvalidConfig, t.Kind, t.Name, f))
			}
		}
	}

	if err := cargo.CheckMessageFormats(p.Cargo.Build.MessageFormats); err != nil {
		add(err)
	}

	return result.ErrorOrNil()
}

func checkTargetPath(t *Target) error {
	path, ok := t.Path.Get()
	if !ok || strings.TrimSpace(path) == "" {
		return fmt.Errorf("%w: %s target %q has no path", kerrors.ErrMissingTargetPath, t.Kind, t.Name)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %s target %q: %s", kerrors.ErrMissingTargetPath, t.Kind, t.Name, path)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s target %q: %s is a directory", kerrors.ErrMissingTargetPath, t.Kind, t.Name, path)
	}
	return nil
}
