// Package cargo compiles cargokit's option groups into argv for the external
// cargo CLI and runs it.
package cargo

import (
	"fmt"
	"strings"

	kerrors "github.com/provide-io/cargokit/pkg/errors"
)

// TaskKind selects the cargo subcommand and the option groups it accepts.
type TaskKind int

const (
	Build TaskKind = iota
	Check
	Run
	Test
	Bench
	Clean
	Publish
)

var taskNames = map[TaskKind]string{
	Build:   "build",
	Check:   "check",
	Run:     "run",
	Test:    "test",
	Bench:   "bench",
	Clean:   "clean",
	Publish: "publish",
}

func (k TaskKind) String() string {
	if name, ok := taskNames[k]; ok {
		return name
	}
	return fmt.Sprintf("task(%d)", int(k))
}

// ParseTaskKind maps a subcommand name to its TaskKind.
func ParseTaskKind(s string) (TaskKind, error) {
	for kind, name := range taskNames {
		if strings.EqualFold(s, name) {
			return kind, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown task %q", kerrors.ErrUnsupportedOption, s)
}

// Color is the value of cargo's --color option. ColorUnset leaves it off.
type Color int

const (
	ColorUnset Color = iota
	ColorAuto
	ColorAlways
	ColorNever
)

// ColorNames lists the accepted spellings of each Color.
var ColorNames = map[Color][]string{
	ColorUnset:  {""},
	ColorAuto:   {"auto"},
	ColorAlways: {"always"},
	ColorNever:  {"never"},
}

func (c Color) String() string { return ColorNames[c][0] }

// Timings is the value of cargo's --timings option.
type Timings int

const (
	TimingsUnset Timings = iota
	TimingsDefault
	TimingsHTML
	TimingsJSON
	TimingsHTMLAndJSON
)

// TimingsNames lists the accepted spellings of each Timings value.
var TimingsNames = map[Timings][]string{
	TimingsUnset:       {""},
	TimingsDefault:     {"default"},
	TimingsHTML:        {"html"},
	TimingsJSON:        {"json"},
	TimingsHTMLAndJSON: {"html,json", "json,html"},
}

func (t Timings) String() string { return TimingsNames[t][0] }

func (t Timings) flag() string {
	switch t {
	case TimingsDefault:
		return "--timings"
	case TimingsHTML, TimingsJSON, TimingsHTMLAndJSON:
		return "--timings=" + t.String()
	default:
		return ""
	}
}

// ParseColor accepts auto, always or never; the empty string is ColorUnset.
func ParseColor(s string) (Color, error) {
	for c, names := range ColorNames {
		for _, n := range names {
			if strings.EqualFold(s, n) {
				return c, nil
			}
		}
	}
	return ColorUnset, fmt.Errorf("%w: color %q", kerrors.ErrUnsupportedOption, s)
}

// ParseTimings accepts default, html, json or html,json; the empty string is
// TimingsUnset.
func ParseTimings(s string) (Timings, error) {
	for t, names := range TimingsNames {
		for _, n := range names {
			if strings.EqualFold(s, n) {
				return t, nil
			}
		}
	}
	return TimingsUnset, fmt.Errorf("%w: timings %q", kerrors.ErrUnsupportedOption, s)
}

// CommonOptions apply to every cargo task.
type CommonOptions struct {
	Package           string
	Target            string
	TargetDir         string
	Features          []string
	AllFeatures       bool
	NoDefaultFeatures bool
	ManifestPath      string
	IgnoreRustVersion bool
	Locked            bool
	Offline           bool
	Frozen            bool
	Jobs              int
	KeepGoing         bool
	Verbose           bool
	Quiet             bool
	Color             Color
	Toolchain         string
	// Config holds --config KEY=VALUE overrides; keys are emitted sorted.
	Config      map[string]string
	ConfigPaths []string
	Unstable    []string
}

// TargetOptions select which targets a task operates on.
type TargetOptions struct {
	Lib         bool
	Bins        []string
	AllBins     bool
	Examples    []string
	AllExamples bool
	Tests       []string
	AllTests    bool
	Benches     []string
	AllBenches  bool
	AllTargets  bool
}

// BuildOptions apply to build, check and run.
type BuildOptions struct {
	TargetOptions
	Workspace            bool
	Exclude              []string
	Release              bool
	Profile              string
	Timings              Timings
	MessageFormats       []MessageFormat
	BuildPlan            bool
	FutureIncompatReport bool
}

// BenchOptions apply to bench and, through TestOptions, to test.
type BenchOptions struct {
	TargetOptions
	NoRun      bool
	NoCapture  bool
	NoFailFast bool
}

// TestOptions apply to test.
type TestOptions struct {
	BenchOptions
	TestThreads int
}

// PublishOptions apply to publish.
type PublishOptions struct {
	DryRun     bool
	NoVerify   bool
	AllowDirty bool
	Token      string
	Index      string
	Registry   string
}

// Invocation bundles every option group. CompileArgs picks the groups the
// task kind accepts and ignores the rest.
type Invocation struct {
	Common  CommonOptions
	Build   BuildOptions
	Bench   BenchOptions
	Test    TestOptions
	Clean   TargetOptions
	Publish PublishOptions
	// Extra is appended verbatim before the "--" separator.
	Extra []string
	// Trailing is passed after "--" to the test harness or the run binary.
	Trailing []string
}
