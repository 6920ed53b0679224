// Package discovery finds compilation targets by directory convention:
//
//	src/library/rust/lib.rs        library
//	src/main/rust/*.rs             binaries
//	src/example/rust/*.rs          examples
//	src/test/rust/*.rs             integration tests
//	src/bench/rust/*.rs            benchmarks
//
// A directory holding main.rs counts as one target named after the
// directory. A main.rs directly in the kind's source directory is named after
// the build unit.
package discovery

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	"github.com/hashicorp/go-hclog"

	"github.com/provide-io/cargokit/pkg/config"
	kerrors "github.com/provide-io/cargokit/pkg/errors"
	"github.com/provide-io/cargokit/pkg/logging"
)

const (
	libraryFile = "lib.rs"
	mainFile    = "main.rs"
	sourceExt   = ".rs"
)

// Options tune a discovery run.
type Options struct {
	// Enabled reports whether a kind is discovered. Nil enables every kind.
	Enabled func(config.TargetKind) bool
	// Ignore holds glob patterns matched against entry names in a kind's
	// source directory.
	Ignore []string
}

// Found is one discovered target. Path is absolute.
type Found struct {
	Kind config.TargetKind
	Name string
	Path string
}

// Result holds the discovered targets of each kind, sorted by name.
type Result struct {
	Library *Found
	Targets map[config.TargetKind][]Found
}

// Len returns the number of discovered targets.
func (r *Result) Len() int {
	n := 0
	if r.Library != nil {
		n++
	}
	for _, found := range r.Targets {
		n += len(found)
	}
	return n
}

// SourceDir returns the conventional source directory of kind.
func SourceDir(unitDir string, kind config.TargetKind) string {
	return filepath.Join(unitDir, "src", kind.SourceDir(), "rust")
}

// Discover scans unitDir for targets. Missing source directories are not an
// error.
func Discover(unitDir, unitName string, opts Options, logger hclog.Logger) (*Result, error) {
	logger = logging.OrNull(logger)

	ignore, err := compileIgnore(opts.Ignore)
	if err != nil {
		return nil, err
	}
	enabled := opts.Enabled
	if enabled == nil {
		enabled = func(config.TargetKind) bool { return true }
	}

	res := &Result{Targets: make(map[config.TargetKind][]Found)}

	if enabled(config.Library) {
		lib := filepath.Join(SourceDir(unitDir, config.Library), libraryFile)
		if info, err := os.Stat(lib); err == nil && !info.IsDir() {
			res.Library = &Found{Kind: config.Library, Path: lib}
			logger.Trace("🔍 Discovered library", "path", lib)
		}
	}

	for _, kind := range config.TargetKinds[1:] {
		if !enabled(kind) {
			logger.Debug("⏭️ Discovery disabled", "kind", kind)
			continue
		}
		found, err := scan(SourceDir(unitDir, kind), kind, unitName, ignore)
		if err != nil {
			return nil, err
		}
		res.Targets[kind] = found
		for _, f := range found {
			logger.Trace("🔍 Discovered target", "kind", kind, "name", f.Name, "path", f.Path)
		}
	}

	logger.Debug("🔍 Discovery finished", "dir", unitDir, "targets", res.Len())
	return res, nil
}

func scan(dir string, kind config.TargetKind, unitName string, ignore []glob.Glob) ([]Found, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}

	var found []Found
	for _, e := range entries {
		if ignored(e.Name(), ignore) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		switch {
		case e.IsDir():
			entry := filepath.Join(path, mainFile)
			if info, err := os.Stat(entry); err == nil && !info.IsDir() {
				found = append(found, Found{Kind: kind, Name: e.Name(), Path: entry})
			}
		case strings.EqualFold(filepath.Ext(e.Name()), sourceExt):
			name := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
			if e.Name() == mainFile {
				name = unitName
			}
			found = append(found, Found{Kind: kind, Name: name, Path: path})
		}
	}

	sort.SliceStable(found, func(i, j int) bool { return found[i].Name < found[j].Name })
	return found, nil
}

func compileIgnore(patterns []string) ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: ignore %q: %v", kerrors.ErrInvalidGlob, pattern, err)
		}
		globs = append(globs, g)
	}
	return globs, nil
}

func ignored(name string, globs []glob.Glob) bool {
	for _, g := range globs {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// Apply registers the discovered targets on p. Explicit registrations win:
// a discovered name that already exists is skipped, and a library path that
// was set explicitly is kept. It returns the number of targets added.
func Apply(p *config.Project, res *Result, logger hclog.Logger) (int, error) {
	logger = logging.OrNull(logger)
	added := 0

	if res.Library != nil {
		lib := p.EnsureLibrary()
		if lib.Path.IsSet() {
			logger.Debug("⏭️ Library path set explicitly, keeping it", "path", lib.Path.Value())
		} else if err := lib.Path.Set(res.Library.Path); err != nil {
			return added, err
		} else {
			added++
		}
	}

	for _, kind := range config.TargetKinds[1:] {
		set := p.Targets(kind)
		for _, f := range res.Targets[kind] {
			if set.Has(f.Name) {
				logger.Debug("⏭️ Target registered explicitly, skipping discovered one", "kind", kind, "name", f.Name)
				continue
			}
			path := f.Path
			if _, err := set.Register(f.Name, func(t *config.Target) error { return t.Path.Set(path) }); err != nil {
				return added, err
			}
			added++
		}
	}
	return added, nil
}

// Run discovers targets for p, honoring its discovery settings, and applies
// them.
func Run(p *config.Project, logger hclog.Logger) (int, error) {
	res, err := Discover(p.Dir, p.Name, Options{Enabled: p.Discovery.Enabled, Ignore: p.Discovery.Ignore}, logger)
	if err != nil {
		return 0, err
	}
	return Apply(p, res, logger)
}
