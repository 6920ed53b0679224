// Package fingerprint hashes the Rust sources of a unit's path dependencies
// so the host can tell when a cached build is stale.
package fingerprint

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	"github.com/provide-io/cargokit/pkg/config"
	"github.com/provide-io/cargokit/pkg/logging"
	"github.com/provide-io/cargokit/pkg/manifest"
)

// maxParallel bounds concurrent dependency walks.
const maxParallel = 8

// Fingerprint is the combined digest of every hashed source.
type Fingerprint struct {
	Sum   string
	Files int
	Bytes int64
}

func (f *Fingerprint) String() string {
	return fmt.Sprintf("%s (%d files, %s)", f.Sum, f.Files, humanize.IBytes(uint64(f.Bytes)))
}

// Text returns the hex xxhash of s, used to pin generated manifest text.
func Text(s string) string {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], xxhash.Sum64String(s))
	return hex.EncodeToString(buf[:])
}

type partial struct {
	sum   uint64
	files int
	bytes int64
}

// Sources fingerprints the path dependencies in deps. Each dependency's
// manifest is looked up next to its path, relative to the directory of
// manifestPath, and the directory holding its [lib] path is hashed. A
// dependency without a library path contributes nothing.
func Sources(ctx context.Context, manifestPath string, deps []*config.Dependency, logger hclog.Logger) (*Fingerprint, error) {
	logger = logging.OrNull(logger)
	base := filepath.Dir(manifestPath)

	parts := make([]partial, len(deps))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallel)
	for i, dep := range deps {
		path, ok := dep.Path.Get()
		if !ok || path == "" {
			continue
		}
		i := i
		name := dep.Name
		dir := filepath.Join(base, filepath.FromSlash(path))
		g.Go(func() error {
			p, err := hashDependency(ctx, dir)
			if err != nil {
				return fmt.Errorf("failed to fingerprint %s: %w", name, err)
			}
			logger.Trace("🧮 Hashed dependency sources", "name", name, "files", p.files, "bytes", p.bytes)
			parts[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Combined in declaration order so the result is independent of
	// scheduling.
	d := xxhash.New()
	fp := &Fingerprint{}
	var buf [8]byte
	for i, dep := range deps {
		_, _ = d.WriteString(dep.Name)
		_, _ = d.Write([]byte{0})
		binary.LittleEndian.PutUint64(buf[:], parts[i].sum)
		_, _ = d.Write(buf[:])
		fp.Files += parts[i].files
		fp.Bytes += parts[i].bytes
	}
	binary.BigEndian.PutUint64(buf[:], d.Sum64())
	fp.Sum = hex.EncodeToString(buf[:])

	logger.Debug("🧮 Fingerprinted dependency sources",
		"dependencies", len(deps), "files", fp.Files, "size", humanize.IBytes(uint64(fp.Bytes)), "sum", fp.Sum)
	return fp, nil
}

func hashDependency(ctx context.Context, dir string) (partial, error) {
	libPath := manifest.ReadFields(filepath.Join(dir, manifest.FileName), "lib", "path")["path"]
	if libPath == "" {
		return partial{}, nil
	}
	srcDir := filepath.Dir(filepath.Join(dir, filepath.FromSlash(libPath)))
	return hashTree(ctx, srcDir)
}

// hashTree hashes every .rs file under root in lexical path order. Each file
// contributes its slash-separated relative path and contents.
func hashTree(ctx context.Context, root string) (partial, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".rs") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return partial{}, err
	}
	sort.Strings(files)

	d := xxhash.New()
	var p partial
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return partial{}, err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return partial{}, err
		}
		_, _ = d.WriteString(filepath.ToSlash(rel))
		_, _ = d.Write([]byte{0})

		n, err := copyFile(d, path)
		if err != nil {
			return partial{}, err
		}
		p.files++
		p.bytes += n
	}
	p.sum = d.Sum64()
	return p, nil
}

func copyFile(w io.Writer, path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return io.Copy(w, f)
}
