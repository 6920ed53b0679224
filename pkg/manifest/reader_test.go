package manifest

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestScanFields(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		table  string
		fields []string
		want   map[string]string
	}{
		{
			name:   "basic",
			input:  "[package]\nname = \"demo\"\nversion = \"1.0.0\"\n",
			table:  "package",
			fields: []string{"name", "version"},
			want:   map[string]string{"name": "demo", "version": "1.0.0"},
		},
		{
			name:   "spaces before equals",
			input:  "[package]\nname   = \"demo\"\n",
			table:  "package",
			fields: []string{"name"},
			want:   map[string]string{"name": "demo"},
		},
		{
			name:   "key prefix is not a match",
			input:  "[package]\nnamespace = \"x\"\nname = \"demo\"\n",
			table:  "package",
			fields: []string{"name"},
			want:   map[string]string{"name": "demo"},
		},
		{
			name:   "first match wins",
			input:  "[package]\nname = \"first\"\nname = \"second\"\n",
			table:  "package",
			fields: []string{"name"},
			want:   map[string]string{"name": "first"},
		},
		{
			name:   "blank line ends the table",
			input:  "[package]\nname = \"demo\"\n\nversion = \"1.0.0\"\n",
			table:  "package",
			fields: []string{"name", "version"},
			want:   map[string]string{"name": "demo"},
		},
		{
			name:   "header must match exactly",
			input:  "[package.metadata]\nname = \"x\"\n\n[package]\nname = \"demo\"\n",
			table:  "package",
			fields: []string{"name"},
			want:   map[string]string{"name": "demo"},
		},
		{
			name:   "unquoted values are ignored",
			input:  "[lib]\nproc-macro = true\npath = \"src/lib.rs\"\n",
			table:  "lib",
			fields: []string{"proc-macro", "path"},
			want:   map[string]string{"path": "src/lib.rs"},
		},
		{
			name:   "missing table",
			input:  "[dependencies]\nname = \"x\"\n",
			table:  "package",
			fields: []string{"name"},
			want:   map[string]string{},
		},
		{
			name:   "escaped value",
			input:  "[package]\ndescription = \"a \\\"b\\\" c\\\\d\"\n",
			table:  "package",
			fields: []string{"description"},
			want:   map[string]string{"description": `a "b" c\d`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScanFields(strings.NewReader(tt.input), tt.table, tt.fields...)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ScanFields() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestReadFieldsMissingFile(t *testing.T) {
	got := ReadFields(filepath.Join(t.TempDir(), "nope.toml"), "package", "name")
	if len(got) != 0 {
		t.Errorf("ReadFields() = %v, want empty", got)
	}
}
