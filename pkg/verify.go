package pkg

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"

	"github.com/provide-io/cargokit/pkg/config"
	"github.com/provide-io/cargokit/pkg/logging"
	"github.com/provide-io/cargokit/pkg/manifest"
	"github.com/provide-io/cargokit/pkg/platform"
)

var (
	// Verification errors 🔍
	ErrHeaderMissing    = errors.New("❌ generated manifest header missing")
	ErrPackageMismatch  = errors.New("❌ manifest package differs from configuration")
	ErrManifestOutdated = errors.New("❌ manifest differs from a fresh render")
)

// VerifyManifest checks a generated manifest against p: the header is
// intact, the [package] name and version read back as configured, and
// rendering p with deps again reproduces the file byte for byte.
func VerifyManifest(path string, p *config.Project, deps manifest.Dependencies, plat platform.Platform, logger hclog.Logger) error {
	logger = logging.OrNull(logger)
	logger.Info("Verifying manifest", "path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read manifest: %w", err)
	}
	text := string(data)

	var result *multierror.Error

	if err := checkHeader(text); err != nil {
		result = multierror.Append(result, err)
		logger.Error("Header verification failed", "error", err)
	} else {
		logger.Info("✓ Header present")
	}

	p.Finalize()
	fields := manifest.ReadFields(path, "package", "name", "version")
	for _, check := range []struct{ field, want string }{
		{"name", p.Package.Name.Value()},
		{"version", p.Package.Version.Value()},
	} {
		if got := fields[check.field]; got != check.want {
			err := fmt.Errorf("%w: %s is %q, configured %q", ErrPackageMismatch, check.field, got, check.want)
			result = multierror.Append(result, err)
			logger.Error("Package verification failed", "field", check.field, "error", err)
		} else {
			logger.Info("✓ Package field matches", "field", check.field, "value", got)
		}
	}

	fresh, err := manifest.Render(p, deps, path, plat, logger)
	switch {
	case err != nil:
		result = multierror.Append(result, err)
	case fresh != text:
		err := fmt.Errorf("%w: %s", ErrManifestOutdated, path)
		result = multierror.Append(result, err)
		logger.Error("Render verification failed", "error", err)
	default:
		logger.Info("✓ Render is reproducible")
	}

	if err := result.ErrorOrNil(); err != nil {
		logger.Error("✗ Manifest verification failed", "error_count", result.Len())
		return err
	}
	logger.Info("✓ Manifest verification passed")
	return nil
}

// VerifyUnit verifies u's generated manifest against its current
// configuration and resolver records.
func VerifyUnit(ctx context.Context, u *Unit, logger hclog.Logger) error {
	logger = logging.OrNull(logger)
	res, err := manifest.Prepare(ctx, u.Project, u.generateOptions(logger.Named("manifest")))
	if err != nil {
		return err
	}
	return VerifyManifest(u.Paths.Manifest, u.Project, res.Dependencies, u.Platform, logger)
}

func checkHeader(text string) error {
	sc := bufio.NewScanner(strings.NewReader(text))
	for _, want := range manifest.Header {
		if !sc.Scan() || sc.Text() != "# "+want {
			return fmt.Errorf("%w: expected %q", ErrHeaderMissing, "# "+want)
		}
	}
	return nil
}
