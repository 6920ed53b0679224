package platform

import (
	"fmt"
	"path"
	"strings"
)

// Rel returns targ relative to base using slash separators. Both paths are
// interpreted with the given platform's conventions, so a Windows layout can
// be relativized on any host. On Windows volume names and components compare
// case-insensitively.
func Rel(base, targ string, plat Platform) (string, error) {
	bv, b := splitVolume(path.Clean(ToSlash(base, plat)), plat)
	tv, t := splitVolume(path.Clean(ToSlash(targ, plat)), plat)

	if !sameComponent(bv, tv, plat) {
		return "", fmt.Errorf("can't make %s relative to %s: different volumes", targ, base)
	}
	if strings.HasPrefix(b, "/") != strings.HasPrefix(t, "/") {
		return "", fmt.Errorf("can't make %s relative to %s: mixed absolute and relative paths", targ, base)
	}

	bs := components(b)
	ts := components(t)

	i := 0
	for i < len(bs) && i < len(ts) && sameComponent(bs[i], ts[i], plat) {
		i++
	}
	for _, c := range bs[i:] {
		if c == ".." {
			return "", fmt.Errorf("can't make %s relative to %s", targ, base)
		}
	}

	parts := make([]string, 0, len(bs)-i+len(ts)-i)
	for range bs[i:] {
		parts = append(parts, "..")
	}
	parts = append(parts, ts[i:]...)
	if len(parts) == 0 {
		return ".", nil
	}
	return strings.Join(parts, "/"), nil
}

func splitVolume(p string, plat Platform) (string, string) {
	if plat.Separator() == '\\' && len(p) >= 2 && p[1] == ':' {
		return p[:2], p[2:]
	}
	return "", p
}

func components(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" || p == "." {
		return nil
	}
	return strings.Split(p, "/")
}

func sameComponent(a, b string, plat Platform) bool {
	if plat.Separator() == '\\' {
		return strings.EqualFold(a, b)
	}
	return a == b
}

// IsAbs reports whether p is absolute under the platform's conventions.
func IsAbs(p string, plat Platform) bool {
	p = ToSlash(p, plat)
	if plat.Separator() == '\\' {
		if strings.HasPrefix(p, "//") {
			return true
		}
		return len(p) >= 3 && p[1] == ':' && p[2] == '/'
	}
	return strings.HasPrefix(p, "/")
}

// Dir returns all but the last element of p in slash form, interpreting p
// with the platform's separator.
func Dir(p string, plat Platform) string {
	vol, rest := splitVolume(ToSlash(p, plat), plat)
	return vol + path.Dir(rest)
}
