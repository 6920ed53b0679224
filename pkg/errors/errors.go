// Package errors holds the sentinel and typed errors shared across cargokit.
// Callers import it under an alias (conventionally kerrors) and match with the
// standard library's errors.Is / errors.As.
package errors

import (
	"errors"
	"fmt"
)

var (
	// Configuration errors ⚙️
	ErrMissingPackageName  = errors.New("❌ package name cannot be unset")
	ErrDuplicateTarget     = errors.New("❌ duplicate target")
	ErrDuplicateFeature    = errors.New("❌ duplicate feature")
	ErrConflictingSettings = errors.New("❌ conflicting settings")
	ErrAmbiguousDependency = errors.New("❌ ambiguous dependency")
	ErrMissingTargetPath   = errors.New("❌ target source file missing")
	ErrFieldFrozen         = errors.New("❌ field already finalized")
	ErrImmutableField      = errors.New("❌ field cannot be changed for this target kind")
	ErrInvalidVersion      = errors.New("❌ invalid version")
	ErrInvalidGlob         = errors.New("❌ invalid glob pattern")
	ErrInvalidNotation     = errors.New("❌ invalid dependency notation")
	ErrInvalidConfig       = errors.New("❌ invalid configuration file")

	// Resolution errors 🔗
	ErrProjectNotFound     = errors.New("❌ build unit not found")
	ErrUnsupportedProject  = errors.New("❌ build unit is not a cargokit project")
	ErrIncompleteManifest  = errors.New("❌ manifest is missing package name or version")
	ErrUnresolvedReference = errors.New("❌ local dependency has no resolved record")

	// Record errors 📼
	ErrRecordCorrupt = errors.New("❌ corrupt dependency record")
	ErrRecordVersion = errors.New("❌ unsupported dependency record version")

	// Cargo errors 🦀
	ErrMissingToken      = errors.New("❌ publish token is unspecified")
	ErrUnsupportedOption = errors.New("❌ option not supported by this task")
	ErrCargoFailed       = errors.New("❌ cargo invocation failed")
)

// DuplicateTargetError reports a second registration of a target name within
// one target kind.
type DuplicateTargetError struct {
	Kind string
	Name string
}

func (e *DuplicateTargetError) Error() string {
	return fmt.Sprintf("%s: %s target %q has already been registered", ErrDuplicateTarget, e.Kind, e.Name)
}

func (e *DuplicateTargetError) Unwrap() error { return ErrDuplicateTarget }

// ConflictError names two values of one setting that cannot be combined.
type ConflictError struct {
	Setting string
	First   string
	Second  string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %s %q conflicts with %q", ErrConflictingSettings, e.Setting, e.First, e.Second)
}

func (e *ConflictError) Unwrap() error { return ErrConflictingSettings }

// AmbiguousDependencyError is returned when a local and a registry dependency
// share a name within one dependency class.
type AmbiguousDependencyError struct {
	Class string
	Name  string
}

func (e *AmbiguousDependencyError) Error() string {
	return fmt.Sprintf("%s: %q is declared both as a local project and as a registry crate in %s",
		ErrAmbiguousDependency, e.Name, e.Class)
}

func (e *AmbiguousDependencyError) Unwrap() error { return ErrAmbiguousDependency }

// RecoverableError marks a failure that was cleaned up and will heal on the
// next run. Anything not wrapped in it is fatal.
type RecoverableError struct {
	Path string
	Err  error
}

func (e *RecoverableError) Error() string {
	return fmt.Sprintf("recoverable: %s: %v", e.Path, e.Err)
}

func (e *RecoverableError) Unwrap() error { return e.Err }

// IsRecoverable reports whether err carries a RecoverableError.
func IsRecoverable(err error) bool {
	var re *RecoverableError
	return errors.As(err, &re)
}
