package cargo

import (
	"fmt"
	"strings"

	kerrors "github.com/provide-io/cargokit/pkg/errors"
)

// MessageFormat is one value of cargo's --message-format option.
type MessageFormat int

const (
	Human MessageFormat = iota
	Short
	JSON
	JSONDiagnosticShort
	JSONDiagnosticRenderedANSI
	JSONRenderDiagnostics
)

// MessageFormatNames lists the cargo spelling of each MessageFormat.
var MessageFormatNames = map[MessageFormat][]string{
	Human:                      {"human"},
	Short:                      {"short"},
	JSON:                       {"json"},
	JSONDiagnosticShort:        {"json-diagnostic-short"},
	JSONDiagnosticRenderedANSI: {"json-diagnostic-rendered-ansi"},
	JSONRenderDiagnostics:      {"json-render-diagnostics"},
}

func (f MessageFormat) String() string {
	if names, ok := MessageFormatNames[f]; ok {
		return names[0]
	}
	return fmt.Sprintf("message-format(%d)", int(f))
}

// family groups formats that may be combined: all json variants share one
// family, human and short stand alone.
func (f MessageFormat) family() int {
	switch f {
	case Human:
		return 0
	case Short:
		return 1
	default:
		return 2
	}
}

// ParseMessageFormat maps a cargo spelling to its MessageFormat.
func ParseMessageFormat(s string) (MessageFormat, error) {
	s = strings.TrimSpace(s)
	for f, names := range MessageFormatNames {
		for _, n := range names {
			if strings.EqualFold(s, n) {
				return f, nil
			}
		}
	}
	return 0, fmt.Errorf("%w: message-format %q", kerrors.ErrUnsupportedOption, s)
}

// ParseMessageFormats parses a list of spellings, each of which may itself be
// comma separated.
func ParseMessageFormats(values []string) ([]MessageFormat, error) {
	var out []MessageFormat
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			f, err := ParseMessageFormat(part)
			if err != nil {
				return nil, err
			}
			out = append(out, f)
		}
	}
	return out, nil
}

// CheckMessageFormats rejects combinations cargo refuses: human, short and
// the json family are mutually exclusive, json variants combine freely.
func CheckMessageFormats(formats []MessageFormat) error {
	for i := 0; i < len(formats); i++ {
		for j := i + 1; j < len(formats); j++ {
			if formats[i].family() != formats[j].family() {
				return &kerrors.ConflictError{
					Setting: "message-format",
					First:   formats[i].String(),
					Second:  formats[j].String(),
				}
			}
		}
	}
	return nil
}

func joinFormats(formats []MessageFormat) string {
	names := make([]string, 0, len(formats))
	seen := make(map[MessageFormat]bool, len(formats))
	for _, f := range formats {
		if seen[f] {
			continue
		}
		seen[f] = true
		names = append(names, f.String())
	}
	return strings.Join(names, ",")
}
