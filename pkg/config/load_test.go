package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/provide-io/cargokit/pkg/cargo"
	kerrors "github.com/provide-io/cargokit/pkg/errors"
)

const yamlDeclaration = `
name: demo
version: 0.4.0
description: Demo unit
package:
  authors: [Ada]
  edition: "2021"
  license: MIT
  publish: false
profiles:
  release:
    opt-level: 3
    lto: true
    strip: symbols
features:
  - name: fast
    activates: [simd]
library:
  path: src/lib.rs
  crate_types: [cdylib, rlib]
binaries:
  - name: tool
    path: src/main.rs
    test: false
dependencies:
  - serde:1.0
  - name: tokio
    version: "1"
    features: [rt]
    default_features: false
  - project: ../core
    features: [std]
build_dependencies:
  - name: cc
    version: "1.0"
build:
  release: true
  message_format: [json, json-render-diagnostics]
  color: never
test:
  threads: 2
`

const hclDeclaration = `
name        = "demo"
version     = "0.4.0"
description = "Demo unit"

package {
  authors = ["Ada"]
  edition = "2021"
  license = "MIT"
  publish = false
}

profile "release" {
  opt-level = 3
  lto       = true
  strip     = "symbols"
}

feature "fast" {
  activates = ["simd"]
}

library {
  path        = "src/lib.rs"
  crate_types = ["cdylib", "rlib"]
}

binary "tool" {
  path = "src/main.rs"
  test = false
}

dependency "serde" {
  version = "1.0"
}

dependency "tokio" {
  version          = "1"
  features         = ["rt"]
  default_features = false
}

dependency "core" {
  project  = "../core"
  features = ["std"]
}

build_dependency "cc" {
  version = "1.0"
}

build {
  release        = true
  message_format = ["json", "json-render-diagnostics"]
  color          = "never"
}

test_options {
  threads = 2
}
`

// projectSummary flattens the parts of a project the loaders fill in.
type projectSummary struct {
	Name, Version, Description string
	Authors                    []string
	Edition, License           string
	PublishDisabled            bool
	Release                    []string
	Features                   []Feature
	LibPath                    string
	CrateTypes                 []string
	Bins                       []string
	ToolTest                   bool
	ToolTestSet                bool
	Deps                       []string
	Unresolved                 []string
	BuildDeps                  []string
	MessageFormats             []cargo.MessageFormat
	ReleaseBuild               bool
	Color                      cargo.Color
	TestThreads                int
}

func summarize(p *Project) projectSummary {
	p.Finalize()
	s := projectSummary{
		Name:            p.Name,
		Version:         p.Package.Version.Value(),
		Description:     p.Package.Description.Value(),
		Authors:         p.Package.Authors.Value(),
		Edition:         p.Package.Edition.Value(),
		License:         p.Package.License.Value(),
		PublishDisabled: p.Package.PublishDisabled.Value(),
		Features:        p.Features.All(),
		MessageFormats:  p.Cargo.Build.MessageFormats,
		ReleaseBuild:    p.Cargo.Build.Release,
		Color:           p.Cargo.Common.Color,
		TestThreads:     p.Cargo.Test.TestThreads,
	}
	for _, setting := range p.Profiles.Get(ProfileRelease).Settings() {
		s.Release = append(s.Release, setting.Key+"="+setting.Value.String())
	}
	if p.Library != nil {
		s.LibPath = p.Library.Path.Value()
		s.CrateTypes = p.Library.CrateTypes()
	}
	for _, b := range p.Binaries.All() {
		s.Bins = append(s.Bins, b.Name+"@"+b.Path.Value())
	}
	if tool, ok := p.Binaries.Get("tool"); ok {
		s.ToolTest, s.ToolTestSet = tool.Test.Get()
	}
	for _, d := range p.Dependencies.Resolved(Normal) {
		s.Deps = append(s.Deps, d.String())
	}
	for _, d := range p.Dependencies.Unresolved(Normal) {
		s.Unresolved = append(s.Unresolved, d.Name+"@"+d.Project)
	}
	for _, d := range p.Dependencies.Resolved(Build) {
		s.BuildDeps = append(s.BuildDeps, d.String())
	}
	return s
}

func writeDeclaration(t *testing.T, name, content string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "demo")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFileYAMLAndHCLAgree(t *testing.T) {
	yamlPath := writeDeclaration(t, "cargokit.yaml", yamlDeclaration)
	hclPath := writeDeclaration(t, "cargokit.hcl", hclDeclaration)

	fromYAML, err := LoadFile(yamlPath, nil)
	require.NoError(t, err)
	fromHCL, err := LoadFile(hclPath, nil)
	require.NoError(t, err)

	ys := summarize(fromYAML)
	hs := summarize(fromHCL)

	// Paths differ only in their temp root.
	ys.LibPath = filepath.Base(ys.LibPath)
	hs.LibPath = filepath.Base(hs.LibPath)
	ys.Bins, hs.Bins = nil, nil

	if diff := cmp.Diff(ys, hs); diff != "" {
		t.Errorf("YAML and HCL disagree (-yaml +hcl):\n%s", diff)
	}

	assert.Equal(t, []string{"opt-level=3", "lto=true", "strip=symbols"}, ys.Release)
	assert.Equal(t, []string{"serde:1.0", "tokio:1"}, ys.Deps)
	assert.Equal(t, []string{"core@../core"}, ys.Unresolved)
	assert.Equal(t, []string{"cc:1.0"}, ys.BuildDeps)
	assert.True(t, ys.PublishDisabled)
	assert.True(t, ys.ToolTestSet)
	assert.False(t, ys.ToolTest)
	assert.Equal(t, 2, ys.TestThreads)
	assert.Equal(t, cargo.ColorNever, ys.Color)

	release, _ := fromHCL.Profiles.Get(ProfileRelease).Get("opt-level")
	assert.Equal(t, IntKind, release.Kind())
	lto, _ := fromYAML.Profiles.Get(ProfileRelease).Get("lto")
	assert.Equal(t, BoolKind, lto.Kind())

	tool, ok := fromYAML.Binaries.Get("tool")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(fromYAML.Dir, "src", "main.rs"), tool.Path.Value())
}

func TestLoadFileDefaults(t *testing.T) {
	path := writeDeclaration(t, "cargokit.yml", "{}\n")
	p, err := LoadFile(path, nil)
	require.NoError(t, err)
	p.Finalize()
	assert.Equal(t, "demo", p.Package.Name.Value(), "unit name defaults to the directory")
	assert.Equal(t, "0.0.0", p.Package.Version.Value())
}

func TestLoadFileRejectsInvalidDocuments(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    error
	}{
		{"unknown key", "cargokit.yaml", "nmae: typo\n", kerrors.ErrInvalidConfig},
		{"wrong type", "cargokit.yaml", "package:\n  authors: Ada\n", kerrors.ErrInvalidConfig},
		{"bad notation", "cargokit.yaml", "dependencies:\n  - 'a:b:c'\n", kerrors.ErrInvalidConfig},
		{"duplicate feature", "cargokit.yaml", "features:\n  - name: a\n  - name: a\n", kerrors.ErrDuplicateFeature},
		{"duplicate binary", "cargokit.json", `{"binaries": [{"name": "x"}, {"name": "x"}]}`, kerrors.ErrDuplicateTarget},
		{"bad profile", "cargokit.hcl", "profile \"nightly\" {\n  lto = true\n}\n", kerrors.ErrInvalidConfig},
		{"fractional profile value", "cargokit.hcl", "profile \"dev\" {\n  opt-level = 1.5\n}\n", kerrors.ErrInvalidConfig},
		{"unknown hcl block", "cargokit.hcl", "bogus {}\n", kerrors.ErrInvalidConfig},
		{"crate types on binary", "cargokit.hcl", "binary \"x\" {\n  crate_types = [\"cdylib\"]\n}\n", kerrors.ErrInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeDeclaration(t, tt.file, tt.content)
			_, err := LoadFile(path, nil)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestFindFile(t *testing.T) {
	dir := t.TempDir()

	_, err := FindFile(filepath.Join(dir, "missing"))
	assert.ErrorIs(t, err, kerrors.ErrProjectNotFound)

	_, err = FindFile(dir)
	assert.ErrorIs(t, err, kerrors.ErrUnsupportedProject)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "cargokit.hcl"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cargokit.yaml"), nil, 0o644))
	got, err := FindFile(dir)
	require.NoError(t, err)
	assert.Equal(t, "cargokit.yaml", filepath.Base(got), "yaml is preferred")
}
