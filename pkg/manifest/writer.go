package manifest

import (
	"regexp"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/provide-io/cargokit/pkg/config"
)

var bareKey = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// writer accumulates manifest text. Tables are separated by one blank line.
type writer struct {
	b      strings.Builder
	logger hclog.Logger
}

func (w *writer) comment(line string) {
	w.b.WriteString("# ")
	w.b.WriteString(line)
	w.b.WriteString("\n")
}

func (w *writer) table(name string) {
	w.b.WriteString("\n[")
	w.b.WriteString(name)
	w.b.WriteString("]\n")
}

func (w *writer) arrayTable(name string) {
	w.b.WriteString("\n[[")
	w.b.WriteString(name)
	w.b.WriteString("]]\n")
}

func (w *writer) line(key, value string) {
	w.b.WriteString(quoteKey(key))
	w.b.WriteString(" = ")
	w.b.WriteString(value)
	w.b.WriteString("\n")
}

// field writes key = "value", omitting blank values.
func (w *writer) field(key, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	w.line(key, quote(value))
}

// stringField writes a Field[string] when it holds a non-blank value.
func (w *writer) stringField(key string, f *config.Field[string]) {
	if v, ok := f.Get(); ok {
		w.field(key, v)
	}
}

// array writes key = ["a", "b"]. Empty arrays are omitted unless forced.
func (w *writer) array(key string, values []string, forced bool) {
	if len(values) == 0 && !forced {
		return
	}
	w.line(key, inlineArray(values))
}

func (w *writer) arrayField(key string, f *config.Field[[]string]) {
	if v, ok := f.Get(); ok {
		w.array(key, v, false)
	}
}

// boolean writes key = value unless it equals the default cargo assumes.
func (w *writer) boolean(key string, f *config.Field[bool], def bool) {
	if v, ok := f.Get(); ok && v != def {
		w.line(key, formatBool(v))
	}
}

func (w *writer) profileValue(key string, v config.ProfileValue) {
	switch v.Kind() {
	case config.StringKind:
		w.line(key, quote(v.Str()))
	default:
		w.line(key, v.String())
	}
}

// dependency writes the short form name = "version" when the entry has no
// options, and an inline table otherwise.
func (w *writer) dependency(d *config.Dependency) {
	if !d.HasOptions() {
		w.line(d.Name, quote(d.Version))
		return
	}

	var attrs []string
	add := func(key, value string) {
		attrs = append(attrs, key+" = "+value)
	}
	// A wildcard version only matters for registry entries.
	pinned := strings.TrimSpace(d.Version) != "" && d.Version != "*"
	if pinned || (!d.Path.IsSet() && !d.Git.IsSet()) {
		add("version", quote(d.Version))
	}
	if path, ok := d.Path.Get(); ok && path != "" {
		add("path", quote(path))
	} else if git, ok := d.Git.Get(); ok && git != "" {
		add("git", quote(git))
		rev, hasRev := d.Rev.Get()
		branch, hasBranch := d.Branch.Get()
		switch {
		case hasRev && rev != "":
			if hasBranch && branch != "" {
				w.logger.Warn("⚠️ Both rev and branch are set, using rev",
					"dependency", d.Name, "rev", rev, "branch", branch)
			}
			add("rev", quote(rev))
		case hasBranch && branch != "":
			add("branch", quote(branch))
		}
	}
	if registry, ok := d.Registry.Get(); ok && registry != "" && registry != config.DefaultRegistry {
		add("registry", quote(registry))
	}
	if features, ok := d.Features.Get(); ok && len(features) > 0 {
		add("features", inlineArray(features))
	}
	if v, ok := d.DefaultFeatures.Get(); ok {
		add("default-features", formatBool(v))
	}
	if v, ok := d.Optional.Get(); ok {
		add("optional", formatBool(v))
	}
	w.line(d.Name, "{ "+strings.Join(attrs, ", ")+" }")
}

func (w *writer) String() string { return w.b.String() }

// quote renders a basic TOML string. Backslashes are doubled.
func quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\t", `\t`, "\r", `\r`)
	return `"` + r.Replace(s) + `"`
}

func quoteKey(k string) string {
	if bareKey.MatchString(k) {
		return k
	}
	return quote(k)
}

func inlineArray(values []string) string {
	quoted := make([]string, 0, len(values))
	for _, v := range values {
		quoted = append(quoted, quote(strings.TrimSpace(v)))
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
