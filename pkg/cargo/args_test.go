package cargo

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	kerrors "github.com/provide-io/cargokit/pkg/errors"
	"github.com/provide-io/cargokit/pkg/platform"
)

func TestCompileArgs(t *testing.T) {
	tests := []struct {
		name string
		kind TaskKind
		inv  Invocation
		want []string
	}{
		{
			name: "plain build",
			kind: Build,
			want: []string{"cargo", "build"},
		},
		{
			name: "toolchain comes right after cargo",
			kind: Check,
			inv:  Invocation{Common: CommonOptions{Toolchain: "nightly", Verbose: true}},
			want: []string{"cargo", "+nightly", "check", "--verbose"},
		},
		{
			name: "common options in fixed order",
			kind: Build,
			inv: Invocation{Common: CommonOptions{
				Package:           "demo",
				Target:            "x86_64-unknown-linux-gnu",
				TargetDir:         "build/target",
				Features:          []string{"a", " b ", "a"},
				NoDefaultFeatures: true,
				ManifestPath:      "build/Cargo.toml",
				Locked:            true,
				Jobs:              4,
				Color:             ColorNever,
				Config:            map[string]string{"net.offline": "true", "build.rustflags": `"-Dwarnings"`},
				Unstable:          []string{"unstable-options"},
			}},
			want: []string{
				"cargo", "build",
				"--package", "demo",
				"--target", "x86_64-unknown-linux-gnu",
				"--target-dir", "build/target",
				"--features", "a,b",
				"--no-default-features",
				"--manifest-path", "build/Cargo.toml",
				"--locked",
				"--jobs", "4",
				"--color", "never",
				"--config", `build.rustflags="-Dwarnings"`,
				"--config", "net.offline=true",
				"-Z", "unstable-options",
			},
		},
		{
			name: "all features suppresses feature list",
			kind: Build,
			inv:  Invocation{Common: CommonOptions{AllFeatures: true, Features: []string{"a"}}},
			want: []string{"cargo", "build", "--all-features"},
		},
		{
			name: "build options",
			kind: Build,
			inv: Invocation{Build: BuildOptions{
				TargetOptions:  TargetOptions{Lib: true, Bins: []string{"cli", "srv"}},
				Release:        true,
				Timings:        TimingsHTMLAndJSON,
				MessageFormats: []MessageFormat{JSON, JSONDiagnosticShort},
			}},
			want: []string{
				"cargo", "build", "--lib", "--bin", "cli", "--bin", "srv",
				"--release", "--timings=html,json", "--message-format", "json,json-diagnostic-short",
			},
		},
		{
			name: "clean ignores features and bins",
			kind: Clean,
			inv: Invocation{
				Common: CommonOptions{Features: []string{"a"}, AllFeatures: true, TargetDir: "t"},
				Clean:  TargetOptions{Bins: []string{"cli"}, Lib: true},
			},
			want: []string{"cargo", "clean", "--target-dir", "t", "--lib"},
		},
		{
			name: "test threads after separator",
			kind: Test,
			inv: Invocation{
				Test:     TestOptions{BenchOptions: BenchOptions{NoFailFast: true, NoCapture: true}, TestThreads: 2},
				Trailing: []string{"filter"},
			},
			want: []string{"cargo", "test", "--no-fail-fast", "--", "--nocapture", "--test-threads", "2", "filter"},
		},
		{
			name: "bench",
			kind: Bench,
			inv:  Invocation{Bench: BenchOptions{TargetOptions: TargetOptions{AllBenches: true}, NoRun: true}},
			want: []string{"cargo", "bench", "--benches", "--no-run"},
		},
		{
			name: "run with program arguments",
			kind: Run,
			inv: Invocation{
				Build:    BuildOptions{TargetOptions: TargetOptions{Bins: []string{"cli"}}},
				Trailing: []string{"--port", "80"},
			},
			want: []string{"cargo", "run", "--bin", "cli", "--", "--port", "80"},
		},
		{
			name: "publish",
			kind: Publish,
			inv:  Invocation{Publish: PublishOptions{DryRun: true, Token: "s3cret", Registry: "internal"}},
			want: []string{"cargo", "publish", "--dry-run", "--token", "s3cret", "--registry", "internal"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CompileArgs(tt.kind, tt.inv)
			if err != nil {
				t.Fatalf("CompileArgs() error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("CompileArgs() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCompileArgsErrors(t *testing.T) {
	tests := []struct {
		name string
		kind TaskKind
		inv  Invocation
		want error
	}{
		{"publish without token", Publish, Invocation{}, kerrors.ErrMissingToken},
		{"run with lib", Run, Invocation{Build: BuildOptions{TargetOptions: TargetOptions{Lib: true}}}, kerrors.ErrUnsupportedOption},
		{"run with two bins", Run, Invocation{Build: BuildOptions{TargetOptions: TargetOptions{Bins: []string{"a", "b"}}}}, kerrors.ErrUnsupportedOption},
		{"conflicting formats", Build, Invocation{Build: BuildOptions{MessageFormats: []MessageFormat{Human, JSON}}}, kerrors.ErrConflictingSettings},
		{"unknown task", TaskKind(42), Invocation{}, kerrors.ErrUnsupportedOption},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CompileArgs(tt.kind, tt.inv)
			if !errors.Is(err, tt.want) {
				t.Errorf("CompileArgs() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestTargetBuildArgs(t *testing.T) {
	inv := Invocation{
		Common: CommonOptions{Features: []string{"base"}},
		Build:  BuildOptions{TargetOptions: TargetOptions{AllTargets: true}},
	}
	got, err := TargetBuildArgs(Build, BuildTarget{Kind: "example", Name: "demo", BuildFeatures: []string{"extra", "base"}}, true, inv)
	if err != nil {
		t.Fatalf("TargetBuildArgs() error: %v", err)
	}
	want := []string{"cargo", "build", "--features", "base,extra", "--example", "demo", "--release"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("TargetBuildArgs() mismatch (-want +got):\n%s", diff)
	}
	if len(inv.Build.Bins) != 0 || !inv.Build.AllTargets {
		t.Error("caller's invocation must not be modified")
	}

	if _, err := TargetBuildArgs(Test, BuildTarget{Kind: "bin", Name: "x"}, false, inv); !errors.Is(err, kerrors.ErrUnsupportedOption) {
		t.Errorf("test task error = %v", err)
	}
}

func TestCheckMessageFormats(t *testing.T) {
	tests := []struct {
		name    string
		formats []MessageFormat
		wantErr bool
	}{
		{"empty", nil, false},
		{"single human", []MessageFormat{Human}, false},
		{"json family combines", []MessageFormat{JSON, JSONRenderDiagnostics, JSONDiagnosticRenderedANSI}, false},
		{"human and short", []MessageFormat{Human, Short}, true},
		{"short and json", []MessageFormat{Short, JSONDiagnosticShort}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckMessageFormats(tt.formats)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CheckMessageFormats() error = %v, wantErr %v", err, tt.wantErr)
			}
			var conflict *kerrors.ConflictError
			if tt.wantErr && !errors.As(err, &conflict) {
				t.Errorf("expected *ConflictError, got %T", err)
			}
		})
	}
}

func TestParseMessageFormats(t *testing.T) {
	got, err := ParseMessageFormats([]string{"json, json-render-diagnostics", "short"})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]MessageFormat{JSON, JSONRenderDiagnostics, Short}, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	if _, err := ParseMessageFormats([]string{"xml"}); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestResolveToken(t *testing.T) {
	env := func(k string) string {
		if k == EnvRegistryToken {
			return "from-env"
		}
		return ""
	}
	if got := ResolveToken(PublishOptions{}, env).Token; got != "from-env" {
		t.Errorf("token = %q", got)
	}
	if got := ResolveToken(PublishOptions{Token: "explicit"}, env).Token; got != "explicit" {
		t.Errorf("token = %q", got)
	}
}

func TestBinaryPath(t *testing.T) {
	tests := []struct {
		name    string
		triple  string
		profile string
		plat    platform.Platform
		want    string
	}{
		{"dev unix", "", "dev", platform.Unix(), "target/debug/demo"},
		{"release windows", "", "release", platform.Windows(), "target/release/demo.exe"},
		{"cross custom profile", "wasm32-wasi", "dist", platform.Unix(), "target/wasm32-wasi/dist/demo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BinaryPath("target", tt.triple, tt.profile, "demo", tt.plat)
			if got != filepathFromSlash(tt.want) {
				t.Errorf("BinaryPath() = %q, want %q", got, tt.want)
			}
		})
	}
}
