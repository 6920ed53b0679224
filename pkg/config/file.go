package config

import (
	"fmt"

	"github.com/goccy/go-yaml"
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"

	kerrors "github.com/provide-io/cargokit/pkg/errors"
)

// File is the decoded build unit declaration. YAML and HCL share the struct;
// fields whose shape differs between the two syntaxes are tagged for one of
// them only.
type File struct {
	Name        string `yaml:"name,omitempty" hcl:"name,optional"`
	Version     string `yaml:"version,omitempty" hcl:"version,optional"`
	Description string `yaml:"description,omitempty" hcl:"description,optional"`

	Package *PackageSpec `yaml:"package,omitempty" hcl:"package,block"`

	// Profiles is the YAML form: profile name to ordered settings.
	Profiles map[string]yaml.MapSlice `yaml:"profiles,omitempty"`
	// ProfileBlocks is the HCL form: profile "release" { opt-level = 3 }.
	ProfileBlocks []*ProfileBlock `yaml:"-" hcl:"profile,block"`

	Features []*FeatureSpec `yaml:"features,omitempty" hcl:"feature,block"`

	Library  *LibrarySpec  `yaml:"library,omitempty" hcl:"library,block"`
	Binaries []*TargetSpec `yaml:"binaries,omitempty" hcl:"binary,block"`
	Examples []*TargetSpec `yaml:"examples,omitempty" hcl:"example,block"`
	Tests    []*TargetSpec `yaml:"tests,omitempty" hcl:"test,block"`
	Benches  []*TargetSpec `yaml:"benches,omitempty" hcl:"bench,block"`

	Dependencies      []*DependencySpec `yaml:"dependencies,omitempty" hcl:"dependency,block"`
	DevDependencies   []*DependencySpec `yaml:"dev_dependencies,omitempty" hcl:"dev_dependency,block"`
	BuildDependencies []*DependencySpec `yaml:"build_dependencies,omitempty" hcl:"build_dependency,block"`

	Discovery *DiscoverySpec `yaml:"discovery,omitempty" hcl:"discovery,block"`

	Build      *BuildSpec      `yaml:"build,omitempty" hcl:"build,block"`
	Test       *HarnessSpec    `yaml:"test,omitempty" hcl:"test_options,block"`
	Bench      *HarnessSpec    `yaml:"bench,omitempty" hcl:"bench_options,block"`
	Publishing *PublishingSpec `yaml:"publishing,omitempty" hcl:"publishing,block"`
}

// PackageSpec is the package section.
type PackageSpec struct {
	Name          string   `yaml:"name,omitempty" hcl:"name,optional"`
	Version       string   `yaml:"version,omitempty" hcl:"version,optional"`
	Authors       []string `yaml:"authors,omitempty" hcl:"authors,optional"`
	Edition       string   `yaml:"edition,omitempty" hcl:"edition,optional"`
	RustVersion   string   `yaml:"rust_version,omitempty" hcl:"rust_version,optional"`
	Description   string   `yaml:"description,omitempty" hcl:"description,optional"`
	Documentation string   `yaml:"documentation,omitempty" hcl:"documentation,optional"`
	Readme        string   `yaml:"readme,omitempty" hcl:"readme,optional"`
	Homepage      string   `yaml:"homepage,omitempty" hcl:"homepage,optional"`
	Repository    string   `yaml:"repository,omitempty" hcl:"repository,optional"`
	License       string   `yaml:"license,omitempty" hcl:"license,optional"`
	LicenseFile   string   `yaml:"license_file,omitempty" hcl:"license_file,optional"`
	Keywords      []string `yaml:"keywords,omitempty" hcl:"keywords,optional"`
	Categories    []string `yaml:"categories,omitempty" hcl:"categories,optional"`
	Workspace     string   `yaml:"workspace,omitempty" hcl:"workspace,optional"`
	Build         string   `yaml:"build,omitempty" hcl:"build,optional"`
	Links         string   `yaml:"links,omitempty" hcl:"links,optional"`
	Include       []string `yaml:"include,omitempty" hcl:"include,optional"`
	Exclude       []string `yaml:"exclude,omitempty" hcl:"exclude,optional"`
	DefaultRun    string   `yaml:"default_run,omitempty" hcl:"default_run,optional"`

	Publish    *PublishPolicy `yaml:"publish,omitempty"`
	PublishHCL *cty.Value     `yaml:"-" hcl:"publish,optional"`

	AutoBins     *bool `yaml:"autobins,omitempty" hcl:"autobins,optional"`
	AutoExamples *bool `yaml:"autoexamples,omitempty" hcl:"autoexamples,optional"`
	AutoTests    *bool `yaml:"autotests,omitempty" hcl:"autotests,optional"`
	AutoBenches  *bool `yaml:"autobenches,omitempty" hcl:"autobenches,optional"`
}

// PublishPolicy is either publish = false or an allow-list of registries.
type PublishPolicy struct {
	Disabled   bool
	Registries []string
}

// UnmarshalYAML accepts a boolean or a list of registry names.
func (p *PublishPolicy) UnmarshalYAML(bs []byte) error {
	var raw any
	if err := yaml.Unmarshal(bs, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case bool:
		p.Disabled = !v
	case []any:
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return fmt.Errorf("%w: publish registry %v is not a string", kerrors.ErrInvalidConfig, item)
			}
			p.Registries = append(p.Registries, s)
		}
	default:
		return fmt.Errorf("%w: publish must be a boolean or a list of registries", kerrors.ErrInvalidConfig)
	}
	return nil
}

// publishFromCty converts the HCL publish attribute.
func publishFromCty(v cty.Value) (*PublishPolicy, error) {
	if v.IsNull() {
		return nil, nil
	}
	ty := v.Type()
	switch {
	case ty == cty.Bool:
		return &PublishPolicy{Disabled: v.False()}, nil
	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		p := &PublishPolicy{}
		it := v.ElementIterator()
		for it.Next() {
			_, el := it.Element()
			if el.IsNull() || el.Type() != cty.String {
				return nil, fmt.Errorf("%w: publish registries must be strings", kerrors.ErrInvalidConfig)
			}
			p.Registries = append(p.Registries, el.AsString())
		}
		return p, nil
	default:
		return nil, fmt.Errorf("%w: publish must be a boolean or a list of registries, got %s",
			kerrors.ErrInvalidConfig, ty.FriendlyName())
	}
}

// ProfileBlock is an HCL profile block; its attributes are the settings.
type ProfileBlock struct {
	Name     string   `hcl:"name,label"`
	Settings hcl.Body `hcl:",remain"`
}

// FeatureSpec declares one feature.
type FeatureSpec struct {
	Name      string   `yaml:"name" hcl:"name,label"`
	Activates []string `yaml:"activates,omitempty" hcl:"activates,optional"`
}

// targetFields are the settings shared by the library and the other targets.
type targetFields struct {
	Path             string
	Test             *bool
	Doctest          *bool
	Bench            *bool
	Doc              *bool
	ProcMacro        *bool
	Harness          *bool
	RequiredFeatures []string
	BuildFeatures    []string
	Excluded         bool
}

// LibrarySpec is the library section. Its name is optional.
type LibrarySpec struct {
	Name             string   `yaml:"name,omitempty" hcl:"name,optional"`
	Path             string   `yaml:"path,omitempty" hcl:"path,optional"`
	Test             *bool    `yaml:"test,omitempty" hcl:"test,optional"`
	Doctest          *bool    `yaml:"doctest,omitempty" hcl:"doctest,optional"`
	Bench            *bool    `yaml:"bench,omitempty" hcl:"bench,optional"`
	Doc              *bool    `yaml:"doc,omitempty" hcl:"doc,optional"`
	ProcMacro        *bool    `yaml:"proc_macro,omitempty" hcl:"proc_macro,optional"`
	Harness          *bool    `yaml:"harness,omitempty" hcl:"harness,optional"`
	CrateTypes       []string `yaml:"crate_types,omitempty" hcl:"crate_types,optional"`
	RequiredFeatures []string `yaml:"required_features,omitempty" hcl:"required_features,optional"`
	BuildFeatures    []string `yaml:"build_features,omitempty" hcl:"build_features,optional"`
	Excluded         bool     `yaml:"excluded,omitempty" hcl:"excluded,optional"`
}

func (s *LibrarySpec) fields() targetFields {
	return targetFields{s.Path, s.Test, s.Doctest, s.Bench, s.Doc, s.ProcMacro, s.Harness,
		s.RequiredFeatures, s.BuildFeatures, s.Excluded}
}

// TargetSpec declares a binary, example, test or bench target.
type TargetSpec struct {
	Name             string   `yaml:"name" hcl:"name,label"`
	Path             string   `yaml:"path,omitempty" hcl:"path,optional"`
	Test             *bool    `yaml:"test,omitempty" hcl:"test,optional"`
	Doctest          *bool    `yaml:"doctest,omitempty" hcl:"doctest,optional"`
	Bench            *bool    `yaml:"bench,omitempty" hcl:"bench,optional"`
	Doc              *bool    `yaml:"doc,omitempty" hcl:"doc,optional"`
	ProcMacro        *bool    `yaml:"proc_macro,omitempty" hcl:"proc_macro,optional"`
	Harness          *bool    `yaml:"harness,omitempty" hcl:"harness,optional"`
	RequiredFeatures []string `yaml:"required_features,omitempty" hcl:"required_features,optional"`
	BuildFeatures    []string `yaml:"build_features,omitempty" hcl:"build_features,optional"`
	Excluded         bool     `yaml:"excluded,omitempty" hcl:"excluded,optional"`
}

func (s *TargetSpec) fields() targetFields {
	return targetFields{s.Path, s.Test, s.Doctest, s.Bench, s.Doc, s.ProcMacro, s.Harness,
		s.RequiredFeatures, s.BuildFeatures, s.Excluded}
}

// DependencySpec declares a dependency. In YAML a plain "name:version"
// string is accepted as well.
type DependencySpec struct {
	Name            string   `yaml:"name,omitempty" hcl:"name,label"`
	Version         string   `yaml:"version,omitempty" hcl:"version,optional"`
	Path            string   `yaml:"path,omitempty" hcl:"path,optional"`
	Git             string   `yaml:"git,omitempty" hcl:"git,optional"`
	Rev             string   `yaml:"rev,omitempty" hcl:"rev,optional"`
	Branch          string   `yaml:"branch,omitempty" hcl:"branch,optional"`
	Registry        string   `yaml:"registry,omitempty" hcl:"registry,optional"`
	Features        []string `yaml:"features,omitempty" hcl:"features,optional"`
	DefaultFeatures *bool    `yaml:"default_features,omitempty" hcl:"default_features,optional"`
	Optional        *bool    `yaml:"optional,omitempty" hcl:"optional,optional"`
	// Project references a sibling build unit, making this a local
	// dependency resolved through the resolver.
	Project string `yaml:"project,omitempty" hcl:"project,optional"`

	notation string
}

// UnmarshalYAML accepts a "name:version" string or a mapping.
func (d *DependencySpec) UnmarshalYAML(bs []byte) error {
	var raw any
	if err := yaml.Unmarshal(bs, &raw); err != nil {
		return err
	}
	if s, ok := raw.(string); ok {
		d.notation = s
		return nil
	}
	type plain DependencySpec
	return yaml.Unmarshal(bs, (*plain)(d))
}

// DiscoverySpec toggles auto-discovery per kind.
type DiscoverySpec struct {
	Library  *bool `yaml:"library,omitempty" hcl:"library,optional"`
	Binaries *bool `yaml:"binaries,omitempty" hcl:"binaries,optional"`
	Examples *bool `yaml:"examples,omitempty" hcl:"examples,optional"`
	Tests    *bool `yaml:"tests,omitempty" hcl:"tests,optional"`
	Benches  *bool `yaml:"benches,omitempty" hcl:"benches,optional"`
	// Ignore lists glob patterns of source entries discovery skips.
	Ignore []string `yaml:"ignore,omitempty" hcl:"ignore,optional"`
}

// BuildSpec holds the cargo options used for every task of the unit.
type BuildSpec struct {
	ManifestPath         string            `yaml:"manifest_path,omitempty" hcl:"manifest_path,optional"`
	TargetDir            string            `yaml:"target_dir,omitempty" hcl:"target_dir,optional"`
	Target               string            `yaml:"target,omitempty" hcl:"target,optional"`
	Features             []string          `yaml:"features,omitempty" hcl:"features,optional"`
	AllFeatures          bool              `yaml:"all_features,omitempty" hcl:"all_features,optional"`
	NoDefaultFeatures    bool              `yaml:"no_default_features,omitempty" hcl:"no_default_features,optional"`
	IgnoreRustVersion    bool              `yaml:"ignore_rust_version,omitempty" hcl:"ignore_rust_version,optional"`
	Locked               bool              `yaml:"locked,omitempty" hcl:"locked,optional"`
	Offline              bool              `yaml:"offline,omitempty" hcl:"offline,optional"`
	Frozen               bool              `yaml:"frozen,omitempty" hcl:"frozen,optional"`
	Jobs                 int               `yaml:"jobs,omitempty" hcl:"jobs,optional"`
	KeepGoing            bool              `yaml:"keep_going,omitempty" hcl:"keep_going,optional"`
	Verbose              bool              `yaml:"verbose,omitempty" hcl:"verbose,optional"`
	Quiet                bool              `yaml:"quiet,omitempty" hcl:"quiet,optional"`
	Color                string            `yaml:"color,omitempty" hcl:"color,optional"`
	Toolchain            string            `yaml:"toolchain,omitempty" hcl:"toolchain,optional"`
	Config               map[string]string `yaml:"config,omitempty" hcl:"config,optional"`
	ConfigPaths          []string          `yaml:"config_paths,omitempty" hcl:"config_paths,optional"`
	Unstable             []string          `yaml:"unstable,omitempty" hcl:"unstable,optional"`
	Workspace            bool              `yaml:"workspace,omitempty" hcl:"workspace,optional"`
	Exclude              []string          `yaml:"exclude,omitempty" hcl:"exclude,optional"`
	Release              bool              `yaml:"release,omitempty" hcl:"release,optional"`
	Profile              string            `yaml:"profile,omitempty" hcl:"profile,optional"`
	Timings              string            `yaml:"timings,omitempty" hcl:"timings,optional"`
	MessageFormat        []string          `yaml:"message_format,omitempty" hcl:"message_format,optional"`
	BuildPlan            bool              `yaml:"build_plan,omitempty" hcl:"build_plan,optional"`
	FutureIncompatReport bool              `yaml:"future_incompat_report,omitempty" hcl:"future_incompat_report,optional"`
}

// HarnessSpec holds test or bench options.
type HarnessSpec struct {
	NoRun      bool `yaml:"no_run,omitempty" hcl:"no_run,optional"`
	NoCapture  bool `yaml:"no_capture,omitempty" hcl:"no_capture,optional"`
	NoFailFast bool `yaml:"no_fail_fast,omitempty" hcl:"no_fail_fast,optional"`
	Threads    int  `yaml:"threads,omitempty" hcl:"threads,optional"`
}

// PublishingSpec holds cargo publish options. The token normally comes from
// the environment instead.
type PublishingSpec struct {
	DryRun     bool   `yaml:"dry_run,omitempty" hcl:"dry_run,optional"`
	NoVerify   bool   `yaml:"no_verify,omitempty" hcl:"no_verify,optional"`
	AllowDirty bool   `yaml:"allow_dirty,omitempty" hcl:"allow_dirty,optional"`
	Token      string `yaml:"token,omitempty" hcl:"token,optional"`
	Index      string `yaml:"index,omitempty" hcl:"index,optional"`
	Registry   string `yaml:"registry,omitempty" hcl:"registry,optional"`
}
