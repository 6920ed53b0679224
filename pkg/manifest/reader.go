package manifest

import (
	"bufio"
	"io"
	"os"
	"strings"
)

// ReadFields returns the double-quoted string values of fields in table of
// the manifest at path. It never fails: an unreadable file yields an empty
// map.
func ReadFields(path, table string, fields ...string) map[string]string {
	f, err := os.Open(path)
	if err != nil {
		return map[string]string{}
	}
	defer f.Close()
	return ScanFields(f, table, fields...)
}

// ScanFields reads the manifests this package writes, nothing more: the
// table header must match [table] exactly, the table ends at the first blank
// line, and only key = "value" lines count. The first occurrence of a key
// wins.
func ScanFields(r io.Reader, table string, fields ...string) map[string]string {
	out := make(map[string]string, len(fields))
	if len(fields) == 0 {
		return out
	}
	header := "[" + table + "]"

	scanner := bufio.NewScanner(r)
	inTable := false
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if !inTable {
			inTable = strings.TrimSpace(line) == header
			continue
		}
		if strings.TrimSpace(line) == "" {
			break
		}
		for _, field := range fields {
			if _, done := out[field]; done {
				continue
			}
			if v, ok := matchField(line, field); ok {
				out[field] = v
			}
		}
		if len(out) == len(fields) {
			break
		}
	}
	return out
}

// matchField parses `field = "value"`. The key must be exactly field,
// optionally followed by spaces before the equals sign.
func matchField(line, field string) (string, bool) {
	if !strings.HasPrefix(line, field) {
		return "", false
	}
	rest := strings.TrimLeft(line[len(field):], " \t")
	if !strings.HasPrefix(rest, "=") {
		return "", false
	}
	rest = strings.TrimSpace(rest[1:])
	if len(rest) < 2 || rest[0] != '"' {
		return "", false
	}
	end := closingQuote(rest)
	if end < 0 {
		return "", false
	}
	return unescape(rest[1:end]), true
}

func closingQuote(s string) int {
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return -1
}

func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	r := strings.NewReplacer(`\\`, `\`, `\"`, `"`, `\n`, "\n", `\t`, "\t", `\r`, "\r")
	return r.Replace(s)
}
