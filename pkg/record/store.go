package record

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/provide-io/cargokit/pkg/config"
	kerrors "github.com/provide-io/cargokit/pkg/errors"
	"github.com/provide-io/cargokit/pkg/logging"
)

const (
	// Suffix is the extension of record files.
	Suffix = ".rc"
	// ReadmeName is the explanatory file written into a fresh store.
	ReadmeName = "README.md"

	dirPerms  = 0o755
	filePerms = 0o644
)

const readme = `# cargokit resolver records

This directory is written by ` + "`cargokit resolve`" + ` and read by ` + "`cargokit generate`" + `.
Each ` + "`*" + Suffix + "`" + ` file holds one resolved local dependency. The directory is
wiped on every resolve; do not edit or check in its contents.
`

// FileName returns the record file name for a dependency name.
func FileName(name string) string {
	sum := sha256.Sum256([]byte(name))
	return hex.EncodeToString(sum[:]) + Suffix
}

// ClassDir returns the directory holding the records of class.
func ClassDir(dir string, class config.Class) string {
	return filepath.Join(dir, class.RecordDir())
}

// Reset wipes dir and recreates it with only the README.
func Reset(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to clear record directory %s: %w", dir, err)
	}
	if err := os.MkdirAll(dir, dirPerms); err != nil {
		return fmt.Errorf("failed to create record directory %s: %w", dir, err)
	}
	if err := os.WriteFile(filepath.Join(dir, ReadmeName), []byte(readme), filePerms); err != nil {
		return fmt.Errorf("failed to write %s: %w", ReadmeName, err)
	}
	return nil
}

// Write stores dep as a record of class under dir and returns its path.
func Write(dir string, class config.Class, dep *config.Dependency) (string, error) {
	data, err := ToRecord(dep)
	if err != nil {
		return "", err
	}
	classDir := ClassDir(dir, class)
	if err := os.MkdirAll(classDir, dirPerms); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", classDir, err)
	}
	path := filepath.Join(classDir, FileName(dep.Name))
	if err := os.WriteFile(path, data, filePerms); err != nil {
		return "", fmt.Errorf("failed to write record %s: %w", path, err)
	}
	return path, nil
}

// WriteClass stores every dep as a record of class.
func WriteClass(dir string, class config.Class, deps []*config.Dependency) error {
	for _, dep := range deps {
		if _, err := Write(dir, class, dep); err != nil {
			return err
		}
	}
	return nil
}

// ReadClass loads the records of class, sorted by dependency name. A record
// that cannot be decoded is deleted and reported as a *RecoverableError in
// the returned slice; the next resolve run writes it again. The error result
// is only set when the directory itself cannot be listed.
func ReadClass(dir string, class config.Class, logger hclog.Logger) ([]*config.Dependency, []error, error) {
	logger = logging.OrNull(logger)

	classDir := ClassDir(dir, class)
	entries, err := os.ReadDir(classDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("failed to list records in %s: %w", classDir, err)
	}

	var deps []*config.Dependency
	var recovered []error
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), Suffix) {
			continue
		}
		path := filepath.Join(classDir, entry.Name())
		dep, err := readOne(path)
		if err == nil {
			deps = append(deps, dep)
			continue
		}

		logger.Warn("⚠️ Removing unreadable dependency record, rerun the resolve step",
			"path", path, "error", err)
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			logger.Error("❌ Failed to remove unreadable record", "path", path, "error", rmErr)
		}
		recovered = append(recovered, &kerrors.RecoverableError{Path: path, Err: err})
	}

	sort.SliceStable(deps, func(i, j int) bool { return deps[i].Name < deps[j].Name })
	return deps, recovered, nil
}

func readOne(path string) (*config.Dependency, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromRecord(data)
}
