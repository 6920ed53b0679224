// Package platform describes the host conventions cargokit depends on: the
// path separator used in paths it receives and the suffix of executables
// cargo produces. It is passed explicitly so tests can simulate other hosts.
package platform

import (
	"runtime"
	"strings"
)

// Platform is the capability handed to components that care about host path
// or executable conventions.
type Platform interface {
	// Name returns the GOOS-style name of the platform.
	Name() string
	// Separator returns the path separator used by this platform.
	Separator() byte
	// ExecutableSuffix returns the file suffix of native executables.
	ExecutableSuffix() string
}

type spec struct {
	name      string
	separator byte
	exeSuffix string
}

func (s spec) Name() string             { return s.name }
func (s spec) Separator() byte          { return s.separator }
func (s spec) ExecutableSuffix() string { return s.exeSuffix }

var (
	windows = spec{name: "windows", separator: '\\', exeSuffix: ".exe"}
	unix    = spec{name: "unix", separator: '/', exeSuffix: ""}
	darwin  = spec{name: "darwin", separator: '/', exeSuffix: ""}
)

// Windows returns the Windows platform regardless of the host.
func Windows() Platform { return windows }

// Unix returns a generic Unix platform regardless of the host.
func Unix() Platform { return unix }

// Host returns the platform cargokit is running on.
func Host() Platform {
	return ForGOOS(runtime.GOOS)
}

// ForGOOS maps a GOOS value to a platform. Unknown systems are treated as Unix.
func ForGOOS(goos string) Platform {
	switch goos {
	case "windows":
		return windows
	case "darwin":
		return darwin
	default:
		return unix
	}
}

// ToSlash rewrites the platform's separators in p to forward slashes, the
// only separator accepted in Cargo manifests. Unlike filepath.ToSlash it
// honors the given platform rather than the host.
func ToSlash(p string, plat Platform) string {
	sep := plat.Separator()
	if sep == '/' {
		return p
	}
	return strings.ReplaceAll(p, string(sep), "/")
}

// ExecutableName appends the platform's executable suffix to name.
func ExecutableName(name string, plat Platform) string {
	suffix := plat.ExecutableSuffix()
	if suffix == "" || strings.HasSuffix(name, suffix) {
		return name
	}
	return name + suffix
}
