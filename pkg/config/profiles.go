package config

import (
	"fmt"
	"strconv"
	"strings"

	kerrors "github.com/provide-io/cargokit/pkg/errors"
)

// ProfileName is one of the four built-in cargo profiles.
type ProfileName string

const (
	ProfileDev     ProfileName = "dev"
	ProfileRelease ProfileName = "release"
	ProfileTest    ProfileName = "test"
	ProfileBench   ProfileName = "bench"
)

// ProfileNames lists the profiles in manifest order.
var ProfileNames = []ProfileName{ProfileDev, ProfileRelease, ProfileTest, ProfileBench}

// ParseProfileName accepts one of dev, release, test or bench.
func ParseProfileName(s string) (ProfileName, error) {
	for _, n := range ProfileNames {
		if string(n) == s {
			return n, nil
		}
	}
	return "", fmt.Errorf("%w: unknown profile %q", kerrors.ErrInvalidConfig, s)
}

// ValueKind tells how a profile value is written.
type ValueKind int

const (
	StringKind ValueKind = iota
	IntKind
	BoolKind
)

// ProfileValue is a typed profile setting. Integers and booleans are written
// bare, strings quoted.
type ProfileValue struct {
	kind ValueKind
	str  string
	num  int64
	flag bool
}

// StringValue returns a string profile value.
func StringValue(s string) ProfileValue { return ProfileValue{kind: StringKind, str: s} }

// IntValue returns an integer profile value.
func IntValue(n int64) ProfileValue { return ProfileValue{kind: IntKind, num: n} }

// BoolValue returns a boolean profile value.
func BoolValue(b bool) ProfileValue { return ProfileValue{kind: BoolKind, flag: b} }

// ProfileValueOf converts a decoded configuration value.
func ProfileValueOf(v any) (ProfileValue, error) {
	switch x := v.(type) {
	case string:
		return StringValue(x), nil
	case bool:
		return BoolValue(x), nil
	case int:
		return IntValue(int64(x)), nil
	case int64:
		return IntValue(x), nil
	case uint64:
		return IntValue(int64(x)), nil
	case float64:
		if x != float64(int64(x)) {
			return ProfileValue{}, fmt.Errorf("%w: profile value %v is not an integer", kerrors.ErrInvalidConfig, x)
		}
		return IntValue(int64(x)), nil
	default:
		return ProfileValue{}, fmt.Errorf("%w: unsupported profile value %v (%T)", kerrors.ErrInvalidConfig, v, v)
	}
}

// Kind returns the value's kind.
func (v ProfileValue) Kind() ValueKind { return v.kind }

// Str returns the string payload.
func (v ProfileValue) Str() string { return v.str }

// Int returns the integer payload.
func (v ProfileValue) Int() int64 { return v.num }

// Bool returns the boolean payload.
func (v ProfileValue) Bool() bool { return v.flag }

func (v ProfileValue) String() string {
	switch v.kind {
	case IntKind:
		return strconv.FormatInt(v.num, 10)
	case BoolKind:
		return strconv.FormatBool(v.flag)
	default:
		return v.str
	}
}

// ProfileSetting is one key of a profile table.
type ProfileSetting struct {
	Key   string
	Value ProfileValue
}

// Profile is an ordered key/value table. Setting an existing key replaces
// its value in place.
type Profile struct {
	settings []ProfileSetting
}

// Set stores key = value.
func (p *Profile) Set(key string, value ProfileValue) {
	key = strings.TrimSpace(key)
	for i := range p.settings {
		if p.settings[i].Key == key {
			p.settings[i].Value = value
			return
		}
	}
	p.settings = append(p.settings, ProfileSetting{Key: key, Value: value})
}

// Get returns the value of key.
func (p *Profile) Get(key string) (ProfileValue, bool) {
	for _, s := range p.settings {
		if s.Key == key {
			return s.Value, true
		}
	}
	return ProfileValue{}, false
}

// Settings returns the entries in insertion order.
func (p *Profile) Settings() []ProfileSetting {
	return append([]ProfileSetting(nil), p.settings...)
}

// Len returns the number of entries.
func (p *Profile) Len() int { return len(p.settings) }

// Profiles holds the four profile tables.
type Profiles struct {
	tables map[ProfileName]*Profile
}

// Get returns the table for name, creating it on first use.
func (p *Profiles) Get(name ProfileName) *Profile {
	if p.tables == nil {
		p.tables = make(map[ProfileName]*Profile)
	}
	t, ok := p.tables[name]
	if !ok {
		t = &Profile{}
		p.tables[name] = t
	}
	return t
}
