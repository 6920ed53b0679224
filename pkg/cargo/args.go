package cargo

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	kerrors "github.com/provide-io/cargokit/pkg/errors"
)

// EnvRegistryToken is consulted when a publish invocation carries no token.
const EnvRegistryToken = "CARGO_REGISTRY_TOKEN"

// CompileArgs returns the full argv, starting with "cargo", for running kind
// with the given options.
func CompileArgs(kind TaskKind, inv Invocation) ([]string, error) {
	if _, ok := taskNames[kind]; !ok {
		return nil, fmt.Errorf("%w: unknown task %d", kerrors.ErrUnsupportedOption, int(kind))
	}

	args := []string{"cargo"}
	if tc := strings.TrimPrefix(strings.TrimSpace(inv.Common.Toolchain), "+"); tc != "" {
		args = append(args, "+"+tc)
	}
	args = append(args, kind.String())
	args = appendCommon(args, kind, inv.Common)

	var trailing []string
	switch kind {
	case Build, Check:
		args = appendTargets(args, kind, inv.Build.TargetOptions)
		var err error
		if args, err = appendBuild(args, inv.Build); err != nil {
			return nil, err
		}
	case Run:
		if err := checkRunTargets(inv.Build.TargetOptions); err != nil {
			return nil, err
		}
		args = appendTargets(args, kind, inv.Build.TargetOptions)
		var err error
		if args, err = appendBuild(args, inv.Build); err != nil {
			return nil, err
		}
	case Bench:
		args = appendTargets(args, kind, inv.Bench.TargetOptions)
		args = appendHarness(args, inv.Bench)
		if inv.Bench.NoCapture {
			trailing = append(trailing, "--nocapture")
		}
	case Test:
		args = appendTargets(args, kind, inv.Test.TargetOptions)
		args = appendHarness(args, inv.Test.BenchOptions)
		if inv.Test.NoCapture {
			trailing = append(trailing, "--nocapture")
		}
		if inv.Test.TestThreads > 0 {
			trailing = append(trailing, "--test-threads", strconv.Itoa(inv.Test.TestThreads))
		}
	case Clean:
		args = appendTargets(args, kind, inv.Clean)
	case Publish:
		var err error
		if args, err = appendPublish(args, inv.Publish); err != nil {
			return nil, err
		}
	}

	args = append(args, inv.Extra...)
	trailing = append(trailing, inv.Trailing...)
	if len(trailing) > 0 {
		args = append(args, "--")
		args = append(args, trailing...)
	}
	return args, nil
}

// BuildTarget names one binary or example to build on its own.
type BuildTarget struct {
	// Kind is "bin" or "example".
	Kind          string
	Name          string
	BuildFeatures []string
}

// TargetBuildArgs compiles a build of a single target: the target selection
// of inv is replaced by the target alone, its build features are added to the
// requested features and release toggles --release.
func TargetBuildArgs(kind TaskKind, target BuildTarget, release bool, inv Invocation) ([]string, error) {
	switch kind {
	case Build, Check, Run:
	default:
		return nil, fmt.Errorf("%w: %s cannot build a single target", kerrors.ErrUnsupportedOption, kind)
	}

	sel := TargetOptions{}
	switch target.Kind {
	case "bin":
		sel.Bins = []string{target.Name}
	case "example":
		sel.Examples = []string{target.Name}
	default:
		return nil, fmt.Errorf("%w: cannot build %s target %q on its own", kerrors.ErrUnsupportedOption, target.Kind, target.Name)
	}

	inv.Build.TargetOptions = sel
	inv.Build.Release = release
	inv.Common.Features = mergeFeatures(inv.Common.Features, target.BuildFeatures)
	return CompileArgs(kind, inv)
}

// ResolveToken fills a missing publish token from the environment.
func ResolveToken(opts PublishOptions, getenv func(string) string) PublishOptions {
	if getenv == nil {
		getenv = os.Getenv
	}
	if strings.TrimSpace(opts.Token) == "" {
		opts.Token = getenv(EnvRegistryToken)
	}
	return opts
}

func appendCommon(args []string, kind TaskKind, c CommonOptions) []string {
	if c.Package != "" {
		args = append(args, "--package", c.Package)
	}
	if c.Target != "" {
		args = append(args, "--target", c.Target)
	}
	if c.TargetDir != "" {
		args = append(args, "--target-dir", c.TargetDir)
	}
	if kind != Clean {
		if c.AllFeatures {
			args = append(args, "--all-features")
		} else if features := mergeFeatures(nil, c.Features); len(features) > 0 {
			args = append(args, "--features", strings.Join(features, ","))
		}
		if c.NoDefaultFeatures {
			args = append(args, "--no-default-features")
		}
	}
	if c.ManifestPath != "" {
		args = append(args, "--manifest-path", c.ManifestPath)
	}
	if c.IgnoreRustVersion {
		args = append(args, "--ignore-rust-version")
	}
	if c.Locked {
		args = append(args, "--locked")
	}
	if c.Offline {
		args = append(args, "--offline")
	}
	if c.Frozen {
		args = append(args, "--frozen")
	}
	if c.Jobs > 0 {
		args = append(args, "--jobs", strconv.Itoa(c.Jobs))
	}
	if c.KeepGoing {
		args = append(args, "--keep-going")
	}
	if c.Verbose {
		args = append(args, "--verbose")
	}
	if c.Quiet {
		args = append(args, "--quiet")
	}
	if c.Color != ColorUnset {
		args = append(args, "--color", c.Color.String())
	}

	keys := make([]string, 0, len(c.Config))
	for k := range c.Config {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "--config", k+"="+c.Config[k])
	}
	for _, p := range c.ConfigPaths {
		args = append(args, "--config", p)
	}
	for _, z := range c.Unstable {
		args = append(args, "-Z", z)
	}
	return args
}

func appendTargets(args []string, kind TaskKind, t TargetOptions) []string {
	if t.Lib {
		args = append(args, "--lib")
	}
	if kind != Clean {
		for _, b := range t.Bins {
			args = append(args, "--bin", b)
		}
	}
	if t.AllBins {
		args = append(args, "--bins")
	}
	for _, e := range t.Examples {
		args = append(args, "--example", e)
	}
	if t.AllExamples {
		args = append(args, "--examples")
	}
	for _, n := range t.Tests {
		args = append(args, "--test", n)
	}
	if t.AllTests {
		args = append(args, "--tests")
	}
	for _, n := range t.Benches {
		args = append(args, "--bench", n)
	}
	if t.AllBenches {
		args = append(args, "--benches")
	}
	if t.AllTargets {
		args = append(args, "--all-targets")
	}
	return args
}

func checkRunTargets(t TargetOptions) error {
	var rejected []string
	if t.Lib {
		rejected = append(rejected, "--lib")
	}
	if t.AllBins {
		rejected = append(rejected, "--bins")
	}
	if t.AllExamples {
		rejected = append(rejected, "--examples")
	}
	if len(t.Tests) > 0 || t.AllTests {
		rejected = append(rejected, "--test")
	}
	if len(t.Benches) > 0 || t.AllBenches {
		rejected = append(rejected, "--bench")
	}
	if t.AllTargets {
		rejected = append(rejected, "--all-targets")
	}
	if len(t.Bins)+len(t.Examples) > 1 {
		rejected = append(rejected, "more than one --bin/--example")
	}
	if len(rejected) > 0 {
		return fmt.Errorf("%w: run accepts a single --bin or --example, got %s",
			kerrors.ErrUnsupportedOption, strings.Join(rejected, ", "))
	}
	return nil
}

func appendBuild(args []string, b BuildOptions) ([]string, error) {
	if b.Workspace {
		args = append(args, "--workspace")
	}
	for _, e := range b.Exclude {
		args = append(args, "--exclude", e)
	}
	if b.Release {
		args = append(args, "--release")
	}
	if b.Profile != "" {
		args = append(args, "--profile", b.Profile)
	}
	if flag := b.Timings.flag(); flag != "" {
		args = append(args, flag)
	}
	if len(b.MessageFormats) > 0 {
		if err := CheckMessageFormats(b.MessageFormats); err != nil {
			return nil, err
		}
		args = append(args, "--message-format", joinFormats(b.MessageFormats))
	}
	if b.BuildPlan {
		args = append(args, "--build-plan")
	}
	if b.FutureIncompatReport {
		args = append(args, "--future-incompat-report")
	}
	return args, nil
}

func appendHarness(args []string, b BenchOptions) []string {
	if b.NoRun {
		args = append(args, "--no-run")
	}
	if b.NoFailFast {
		args = append(args, "--no-fail-fast")
	}
	return args
}

func appendPublish(args []string, p PublishOptions) ([]string, error) {
	if p.DryRun {
		args = append(args, "--dry-run")
	}
	if p.NoVerify {
		args = append(args, "--no-verify")
	}
	if p.AllowDirty {
		args = append(args, "--allow-dirty")
	}
	token := strings.TrimSpace(p.Token)
	if token == "" {
		return nil, fmt.Errorf("%w: pass a token or set %s", kerrors.ErrMissingToken, EnvRegistryToken)
	}
	args = append(args, "--token", token)
	if p.Index != "" {
		args = append(args, "--index", p.Index)
	}
	if p.Registry != "" {
		args = append(args, "--registry", p.Registry)
	}
	return args, nil
}

// mergeFeatures appends extra to base, trimming blanks and dropping
// duplicates while keeping first-seen order.
func mergeFeatures(base, extra []string) []string {
	seen := make(map[string]bool, len(base)+len(extra))
	var out []string
	for _, list := range [][]string{base, extra} {
		for _, f := range list {
			f = strings.TrimSpace(f)
			if f == "" || seen[f] {
				continue
			}
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}
