package config

import (
	"fmt"

	kerrors "github.com/provide-io/cargokit/pkg/errors"
)

// TargetKind is the variant of a compilation target.
type TargetKind int

const (
	Library TargetKind = iota
	Binary
	Example
	Test
	Benchmark
)

// TargetKinds lists the kinds in manifest order.
var TargetKinds = []TargetKind{Library, Binary, Example, Test, Benchmark}

var targetKindInfo = map[TargetKind]struct {
	table     string
	sourceDir string
}{
	Library:   {"lib", "library"},
	Binary:    {"bin", "main"},
	Example:   {"example", "example"},
	Test:      {"test", "test"},
	Benchmark: {"bench", "bench"},
}

// Table returns the manifest table name of the kind.
func (k TargetKind) Table() string { return targetKindInfo[k].table }

// SourceDir returns the directory under src/ that auto-discovery scans.
func (k TargetKind) SourceDir() string { return targetKindInfo[k].sourceDir }

// IsArray reports whether the kind is rendered as an array of tables.
func (k TargetKind) IsArray() bool { return k != Library }

func (k TargetKind) String() string {
	if info, ok := targetKindInfo[k]; ok {
		return info.table
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// TargetBool names one of the boolean target settings.
type TargetBool string

const (
	TargetTest      TargetBool = "test"
	TargetDoctest   TargetBool = "doctest"
	TargetBench     TargetBool = "bench"
	TargetDoc       TargetBool = "doc"
	TargetProcMacro TargetBool = "proc-macro"
	TargetHarness   TargetBool = "harness"
)

// TargetBools lists the boolean settings in manifest order.
var TargetBools = []TargetBool{TargetTest, TargetDoctest, TargetBench, TargetDoc, TargetProcMacro, TargetHarness}

// Default returns the value cargo assumes for b on a target of kind k. Values
// equal to it are left out of the manifest.
func (b TargetBool) Default(k TargetKind) bool {
	switch b {
	case TargetProcMacro:
		return false
	case TargetTest:
		return k != Example && k != Benchmark
	case TargetBench:
		return k != Example && k != Test
	case TargetDoc:
		return k == Library || k == Binary
	default:
		return true
	}
}

// Target describes one compilation target.
type Target struct {
	Kind TargetKind
	// Name may be empty for the library, in which case cargo derives it.
	Name string
	Path Field[string]

	Test      Field[bool]
	Doctest   Field[bool]
	Bench     Field[bool]
	Doc       Field[bool]
	ProcMacro Field[bool]
	Harness   Field[bool]

	crateTypes Field[[]string]

	RequiredFeatures []string
	// BuildFeatures are enabled when this target is built on its own.
	BuildFeatures []string
	// Excluded targets are neither rendered nor compiled.
	Excluded bool
}

// NewTarget returns an empty target of the given kind.
func NewTarget(kind TargetKind, name string) *Target {
	return &Target{Kind: kind, Name: name}
}

// Bool returns the field backing b.
func (t *Target) Bool(b TargetBool) *Field[bool] {
	switch b {
	case TargetTest:
		return &t.Test
	case TargetDoctest:
		return &t.Doctest
	case TargetBench:
		return &t.Bench
	case TargetDoc:
		return &t.Doc
	case TargetProcMacro:
		return &t.ProcMacro
	default:
		return &t.Harness
	}
}

// SetCrateTypes sets crate-type, which only libraries accept.
func (t *Target) SetCrateTypes(types []string) error {
	if t.Kind != Library {
		return fmt.Errorf("%w: crate-type on %s target %q", kerrors.ErrImmutableField, t.Kind, t.Name)
	}
	return t.crateTypes.Set(types)
}

// CrateTypes returns the configured crate types, nil when unset.
func (t *Target) CrateTypes() []string { return t.crateTypes.Value() }

// Finalize freezes every field of the target.
func (t *Target) Finalize() {
	finalizeAll(&t.Path, &t.Test, &t.Doctest, &t.Bench, &t.Doc, &t.ProcMacro, &t.Harness, &t.crateTypes)
}

// TargetSet is an ordered, name-unique collection of targets of one kind.
type TargetSet struct {
	kind    TargetKind
	targets []*Target
	index   map[string]int
}

// NewTargetSet returns an empty set for kind.
func NewTargetSet(kind TargetKind) *TargetSet {
	return &TargetSet{kind: kind, index: make(map[string]int)}
}

// Kind returns the kind every member has.
func (s *TargetSet) Kind() TargetKind { return s.kind }

// Add registers t. A second target with the same name fails with a
// *DuplicateTargetError.
func (s *TargetSet) Add(t *Target) error {
	if t.Kind != s.kind {
		return fmt.Errorf("%w: cannot add %s target %q to %s targets", kerrors.ErrInvalidConfig, t.Kind, t.Name, s.kind)
	}
	if _, exists := s.index[t.Name]; exists {
		return &kerrors.DuplicateTargetError{Kind: s.kind.String(), Name: t.Name}
	}
	s.index[t.Name] = len(s.targets)
	s.targets = append(s.targets, t)
	return nil
}

// Register creates a target named name, lets configure fill it in, and adds
// it to the set.
func (s *TargetSet) Register(name string, configure func(*Target) error) (*Target, error) {
	if s.Has(name) {
		return nil, &kerrors.DuplicateTargetError{Kind: s.kind.String(), Name: name}
	}
	t := NewTarget(s.kind, name)
	if configure != nil {
		if err := configure(t); err != nil {
			return nil, err
		}
	}
	return t, s.Add(t)
}

// Has reports whether name is registered.
func (s *TargetSet) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Get returns the target named name.
func (s *TargetSet) Get(name string) (*Target, bool) {
	i, ok := s.index[name]
	if !ok {
		return nil, false
	}
	return s.targets[i], true
}

// All returns the targets in registration order.
func (s *TargetSet) All() []*Target {
	return append([]*Target(nil), s.targets...)
}

// Len returns the number of registered targets.
func (s *TargetSet) Len() int { return len(s.targets) }
