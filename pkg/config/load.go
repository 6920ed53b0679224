package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math/big"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	kerrors "github.com/provide-io/cargokit/pkg/errors"
	"github.com/provide-io/cargokit/pkg/logging"
)

// FileNames lists the declaration file names looked up in a build unit
// directory, in order of preference.
var FileNames = []string{"cargokit.yaml", "cargokit.yml", "cargokit.json", "cargokit.hcl"}

// FindFile returns the declaration file in dir. It fails with
// ErrProjectNotFound when dir does not exist and ErrUnsupportedProject when
// it holds no declaration.
func FindFile(dir string) (string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", kerrors.ErrProjectNotFound, dir)
		}
		return "", fmt.Errorf("failed to stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", kerrors.ErrProjectNotFound, dir)
	}
	for _, name := range FileNames {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: no %s in %s", kerrors.ErrUnsupportedProject, strings.Join(FileNames, ", "), dir)
}

// DecodeFile parses a declaration without applying it. YAML and JSON files
// are validated against the schema first.
func DecodeFile(path string) (*File, error) {
	if strings.EqualFold(filepath.Ext(path), ".hcl") {
		return decodeHCL(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return DecodeYAML(data, path)
}

// DecodeYAML decodes YAML or JSON declaration bytes; name is used in errors.
func DecodeYAML(data []byte, name string) (*File, error) {
	if err := ValidateDocument(data); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", kerrors.ErrInvalidConfig, name, err)
	}
	return &f, nil
}

func decodeHCL(path string) (*File, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%w: failed to parse HCL file %s: %s", kerrors.ErrInvalidConfig, path, diags.Error())
	}

	var f File
	diags = gohcl.DecodeBody(file.Body, nil, &f)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%w: failed to decode HCL file %s: %s", kerrors.ErrInvalidConfig, path, diags.Error())
	}
	return &f, nil
}

// LoadFile reads the declaration at path and returns the project it
// describes. The build unit directory is the file's directory and the unit
// name defaults to that directory's name.
func LoadFile(path string, logger hclog.Logger) (*Project, error) {
	logger = logging.OrNull(logger)

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	logger.Debug("📖 Loading build unit declaration", "path", abs)

	f, err := DecodeFile(abs)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(abs)
	name := f.Name
	if name == "" {
		name = filepath.Base(dir)
	}
	version := f.Version
	if version == "" {
		version = unspecifiedVersion
	}

	p := NewProject(name, dir, version, f.Description)
	if err := f.Apply(p); err != nil {
		return nil, fmt.Errorf("%s: %w", abs, err)
	}
	logger.Debug("✅ Loaded build unit",
		"name", p.Name,
		"binaries", p.Binaries.Len(),
		"dependencies", p.Dependencies.Len())
	return p, nil
}

// profileSettings returns the profile tables of either syntax in a stable
// order.
func (f *File) profileSettings() (map[ProfileName][]ProfileSetting, error) {
	out := make(map[ProfileName][]ProfileSetting)

	for name, items := range f.Profiles {
		pn, err := ParseProfileName(name)
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			key := fmt.Sprint(item.Key)
			v, err := ProfileValueOf(item.Value)
			if err != nil {
				return nil, fmt.Errorf("profile %s key %s: %w", name, key, err)
			}
			out[pn] = append(out[pn], ProfileSetting{Key: key, Value: v})
		}
	}

	for _, block := range f.ProfileBlocks {
		pn, err := ParseProfileName(block.Name)
		if err != nil {
			return nil, err
		}
		attrs, diags := block.Settings.JustAttributes()
		if diags.HasErrors() {
			return nil, fmt.Errorf("%w: profile %s: %s", kerrors.ErrInvalidConfig, block.Name, diags.Error())
		}
		names := make([]string, 0, len(attrs))
		for key := range attrs {
			names = append(names, key)
		}
		// Declaration order, which the attribute map does not keep.
		sort.Slice(names, func(i, j int) bool {
			return attrs[names[i]].Range.Start.Byte < attrs[names[j]].Range.Start.Byte
		})
		for _, key := range names {
			val, diags := attrs[key].Expr.Value(nil)
			if diags.HasErrors() {
				return nil, fmt.Errorf("%w: profile %s key %s: %s", kerrors.ErrInvalidConfig, block.Name, key, diags.Error())
			}
			v, err := profileValueFromCty(val)
			if err != nil {
				return nil, fmt.Errorf("profile %s key %s: %w", block.Name, key, err)
			}
			out[pn] = append(out[pn], ProfileSetting{Key: key, Value: v})
		}
	}
	return out, nil
}

func profileValueFromCty(v cty.Value) (ProfileValue, error) {
	if v.IsNull() || !v.IsKnown() {
		return ProfileValue{}, fmt.Errorf("%w: profile value must be known and not null", kerrors.ErrInvalidConfig)
	}
	switch v.Type() {
	case cty.String:
		return StringValue(v.AsString()), nil
	case cty.Bool:
		return BoolValue(v.True()), nil
	case cty.Number:
		bf := v.AsBigFloat()
		if !bf.IsInt() {
			return ProfileValue{}, fmt.Errorf("%w: profile value %s is not an integer", kerrors.ErrInvalidConfig, bf.Text('g', -1))
		}
		n, acc := bf.Int64()
		if acc != big.Exact {
			return ProfileValue{}, fmt.Errorf("%w: profile value %s is out of range", kerrors.ErrInvalidConfig, bf.Text('g', -1))
		}
		return IntValue(n), nil
	default:
		return ProfileValue{}, fmt.Errorf("%w: unsupported profile value of type %s", kerrors.ErrInvalidConfig, v.Type().FriendlyName())
	}
}
