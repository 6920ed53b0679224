package discovery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/provide-io/cargokit/pkg/config"
	kerrors "github.com/provide-io/cargokit/pkg/errors"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("fn main() {}\n"), 0o644))
}

func layout(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, rel := range []string{
		"src/library/rust/lib.rs",
		"src/library/rust/util.rs",
		"src/main/rust/main.rs",
		"src/main/rust/zeta.rs",
		"src/main/rust/alpha/main.rs",
		"src/main/rust/notes.txt",
		"src/main/rust/empty/helper.rs",
		"src/test/rust/smoke.rs",
		"src/test/rust/scratch_wip.rs",
		"src/bench/rust/throughput.rs",
		"src/example/rust/demo/main.rs",
	} {
		touch(t, filepath.Join(dir, filepath.FromSlash(rel)))
	}
	return dir
}

type entry struct{ Name, Path string }

func names(dir string, found []Found) []entry {
	out := make([]entry, 0, len(found))
	for _, f := range found {
		rel, _ := filepath.Rel(dir, f.Path)
		out = append(out, entry{f.Name, filepath.ToSlash(rel)})
	}
	return out
}

func TestDiscover(t *testing.T) {
	dir := layout(t)

	res, err := Discover(dir, "app", Options{Ignore: []string{"*_wip.rs"}}, nil)
	require.NoError(t, err)

	require.NotNil(t, res.Library)
	assert.Equal(t, filepath.Join(dir, "src", "library", "rust", "lib.rs"), res.Library.Path)

	want := map[config.TargetKind][]entry{
		config.Binary: {
			{"alpha", "src/main/rust/alpha/main.rs"},
			{"app", "src/main/rust/main.rs"},
			{"zeta", "src/main/rust/zeta.rs"},
		},
		config.Example:   {{"demo", "src/example/rust/demo/main.rs"}},
		config.Test:      {{"smoke", "src/test/rust/smoke.rs"}},
		config.Benchmark: {{"throughput", "src/bench/rust/throughput.rs"}},
	}
	for kind, w := range want {
		if diff := cmp.Diff(w, names(dir, res.Targets[kind])); diff != "" {
			t.Errorf("%s targets mismatch (-want +got):\n%s", kind, diff)
		}
	}
	assert.Equal(t, 7, res.Len())
}

func TestDiscoverMissingDirectories(t *testing.T) {
	res, err := Discover(t.TempDir(), "app", Options{}, nil)
	require.NoError(t, err)
	assert.Nil(t, res.Library)
	assert.Zero(t, res.Len())
}

func TestDiscoverSwitches(t *testing.T) {
	dir := layout(t)
	res, err := Discover(dir, "app", Options{Enabled: func(k config.TargetKind) bool {
		return k != config.Binary && k != config.Library
	}}, nil)
	require.NoError(t, err)
	assert.Nil(t, res.Library)
	assert.Empty(t, res.Targets[config.Binary])
	assert.Len(t, res.Targets[config.Test], 2)
}

func TestDiscoverInvalidIgnore(t *testing.T) {
	_, err := Discover(t.TempDir(), "app", Options{Ignore: []string{"[a-"}}, nil)
	assert.ErrorIs(t, err, kerrors.ErrInvalidGlob)
}

func TestApplyExplicitWins(t *testing.T) {
	dir := layout(t)
	p := config.NewProject("app", dir, "1.0.0", "")

	custom := filepath.Join(dir, "custom.rs")
	_, err := p.Binaries.Register("zeta", func(tg *config.Target) error { return tg.Path.Set(custom) })
	require.NoError(t, err)
	lib := p.EnsureLibrary()
	require.NoError(t, lib.Path.Set(filepath.Join(dir, "src", "lib.rs")))

	p.Discovery.Ignore = []string{"scratch_*"}
	require.NoError(t, p.Discovery.Examples.Set(false))

	added, err := Run(p, nil)
	require.NoError(t, err)
	// alpha, app, smoke, throughput
	assert.Equal(t, 4, added)

	zeta, ok := p.Binaries.Get("zeta")
	require.True(t, ok)
	assert.Equal(t, custom, zeta.Path.Value())
	assert.Equal(t, filepath.Join(dir, "src", "lib.rs"), p.Library.Path.Value())
	assert.Zero(t, p.Examples.Len())
	assert.False(t, p.Tests.Has("scratch_wip"))

	var binaries []string
	for _, b := range p.Binaries.All() {
		binaries = append(binaries, b.Name)
	}
	assert.Equal(t, []string{"zeta", "alpha", "app"}, binaries)
}

func TestApplySetsDiscoveredLibrary(t *testing.T) {
	dir := layout(t)
	p := config.NewProject("app", dir, "1.0.0", "")
	res, err := Discover(dir, "app", Options{Enabled: func(k config.TargetKind) bool { return k == config.Library }}, nil)
	require.NoError(t, err)

	added, err := Apply(p, res, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, added)
	require.NotNil(t, p.Library)
	assert.Equal(t, res.Library.Path, p.Library.Path.Value())
}
