package resolver

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/provide-io/cargokit/pkg/config"
	kerrors "github.com/provide-io/cargokit/pkg/errors"
	"github.com/provide-io/cargokit/pkg/platform"
	"github.com/provide-io/cargokit/pkg/record"
)

func writeProducerManifest(t *testing.T, dir, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Cargo.toml"), []byte(body), 0o644))
}

func TestResolve(t *testing.T) {
	root := t.TempDir()
	consumer := filepath.Join(root, "app", "build")
	producer := filepath.Join(root, "lib", "build")
	writeProducerManifest(t, producer, "[package]\nname = \"lib\"\nversion = \"0.2.0\"\n")

	ref := config.NewLocalDependency("", "../lib")
	dep, err := Resolve(ref, consumer, producer, platform.Unix(), nil)
	require.NoError(t, err)

	assert.Equal(t, "lib", dep.Name)
	assert.Equal(t, "0.2.0", dep.Version)
	assert.Equal(t, "../../lib/build", dep.Path.Value())
}

func TestResolveSibling(t *testing.T) {
	root := t.TempDir()
	producer := filepath.Join(root, "lib")
	writeProducerManifest(t, producer, "[package]\nname = \"lib\"\nversion = \"1.0.0\"\n")

	rel, err := platform.Rel(`C:\Work\App`, `c:\work\lib`, platform.Windows())
	require.NoError(t, err)
	assert.Equal(t, "../lib", rel)

	dep, err := Resolve(config.NewLocalDependency("lib", "../lib"), filepath.Join(root, "app"), producer, platform.Host(), nil)
	require.NoError(t, err)
	assert.Equal(t, "../lib", dep.Path.Value())
}

func TestResolveIncompleteManifest(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "missing file"},
		{name: "missing version", body: "[package]\nname = \"lib\"\n"},
		{name: "fields outside package", body: "[dependencies]\nname = \"lib\"\nversion = \"1.0.0\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			producer := filepath.Join(root, "lib")
			if tt.body != "" {
				writeProducerManifest(t, producer, tt.body)
			}
			_, err := Resolve(config.NewLocalDependency("lib", "../lib"), filepath.Join(root, "app"), producer, platform.Host(), nil)
			assert.ErrorIs(t, err, kerrors.ErrIncompleteManifest)
		})
	}
}

func TestResolveWarnsOnExplicitPath(t *testing.T) {
	root := t.TempDir()
	producer := filepath.Join(root, "lib")
	writeProducerManifest(t, producer, "[package]\nname = \"lib\"\nversion = \"1.0.0\"\n")

	var buf bytes.Buffer
	logger := hclog.New(&hclog.LoggerOptions{Output: &buf, Level: hclog.Warn})

	ref := config.NewLocalDependency("lib", "../lib")
	require.NoError(t, ref.Path.Set("somewhere/else"))
	dep, err := Resolve(ref, filepath.Join(root, "app"), producer, platform.Host(), logger)
	require.NoError(t, err)
	assert.Equal(t, "../lib", dep.Path.Value())
	assert.Contains(t, buf.String(), "Overwriting explicit path")
}

type fakeGraph map[string]*Unit

func (g fakeGraph) Lookup(ref string, _ string) (*Unit, error) {
	if u, ok := g[ref]; ok {
		return u, nil
	}
	return nil, kerrors.ErrProjectNotFound
}

func TestResolveUnit(t *testing.T) {
	root := t.TempDir()
	appDir := filepath.Join(root, "app")
	manifestPath := filepath.Join(appDir, "build", "Cargo.toml")
	outDir := filepath.Join(appDir, "build", "resolver")

	libManifest := filepath.Join(root, "lib", "build", "Cargo.toml")
	writeProducerManifest(t, filepath.Dir(libManifest), "[package]\nname = \"lib\"\nversion = \"0.2.0\"\n")
	helperManifest := filepath.Join(root, "helper", "build", "Cargo.toml")
	writeProducerManifest(t, filepath.Dir(helperManifest), "[package]\nname = \"helper\"\nversion = \"1.1.0\"\n")

	graph := fakeGraph{
		"../lib":    {Name: "lib", Dir: filepath.Join(root, "lib"), ManifestPath: libManifest},
		"../helper": {Name: "helper", Dir: filepath.Join(root, "helper"), ManifestPath: helperManifest},
	}

	p := config.NewProject("app", appDir, "1.0.0", "")
	p.Dependencies.AddUnresolved(config.Normal, config.NewLocalDependency("lib", "../lib"))
	p.Dependencies.AddUnresolved(config.Dev, config.NewLocalDependency("helper", "../helper"))
	p.Dependencies.AddUnresolved(config.Normal, config.NewLocalDependency("ghost", "../ghost"))

	// A stale record from an earlier run must not survive.
	require.NoError(t, record.Reset(outDir))
	_, err := record.Write(outDir, config.Build, config.NewDependency("stale", "9.9.9"))
	require.NoError(t, err)

	report, err := ResolveUnit(context.Background(), p, graph, Options{
		ManifestPath: manifestPath,
		OutDir:       outDir,
		Platform:     platform.Host(),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Count())
	require.Len(t, report.Dropped, 1)
	assert.Equal(t, "../ghost", report.Dropped[0].Ref)
	assert.ErrorIs(t, report.Dropped[0].Err, kerrors.ErrProjectNotFound)

	normal, recovered, err := record.ReadClass(outDir, config.Normal, nil)
	require.NoError(t, err)
	assert.Empty(t, recovered)
	require.Len(t, normal, 1)
	assert.Equal(t, "lib", normal[0].Name)
	assert.Equal(t, "0.2.0", normal[0].Version)
	assert.Equal(t, "../../lib/build", normal[0].Path.Value())
	assert.Equal(t, "../lib", normal[0].Project, "record keeps the consumer's reference")

	dev, _, err := record.ReadClass(outDir, config.Dev, nil)
	require.NoError(t, err)
	require.Len(t, dev, 1)
	assert.Equal(t, "helper", dev[0].Name)

	build, _, err := record.ReadClass(outDir, config.Build, nil)
	require.NoError(t, err)
	assert.Empty(t, build)
}

func TestResolveUnitHonorsCancellation(t *testing.T) {
	root := t.TempDir()
	p := config.NewProject("app", root, "1.0.0", "")
	p.Dependencies.AddUnresolved(config.Normal, config.NewLocalDependency("lib", "../lib"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ResolveUnit(ctx, p, fakeGraph{}, Options{
		ManifestPath: filepath.Join(root, "build", "Cargo.toml"),
		OutDir:       filepath.Join(root, "build", "resolver"),
	})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestDirGraph(t *testing.T) {
	root := t.TempDir()
	libDir := filepath.Join(root, "lib")
	require.NoError(t, os.MkdirAll(libDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(libDir, "cargokit.yaml"), []byte("name: corelib\nversion: 0.1.0\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "plain"), 0o755))

	g := &DirGraph{Manifest: func(p *config.Project) string {
		return filepath.Join(p.Dir, "build", "Cargo.toml")
	}}

	u, err := g.Lookup("../lib", filepath.Join(root, "app"))
	require.NoError(t, err)
	assert.Equal(t, "corelib", u.Name)
	assert.Equal(t, libDir, u.Dir)
	assert.Equal(t, filepath.Join(libDir, "build", "Cargo.toml"), u.ManifestPath)

	_, err = g.Lookup("../missing", filepath.Join(root, "app"))
	assert.ErrorIs(t, err, kerrors.ErrProjectNotFound)

	_, err = g.Lookup(filepath.Join(root, "plain"), filepath.Join(root, "app"))
	assert.ErrorIs(t, err, kerrors.ErrUnsupportedProject)
}
