package config

import (
	"fmt"
	"strings"

	kerrors "github.com/provide-io/cargokit/pkg/errors"
)

// Feature is one entry of the [features] table.
type Feature struct {
	Name      string
	Activates []string
}

// Features is the ordered [features] table. Names are unique.
type Features struct {
	list  []Feature
	index map[string]struct{}
}

// Add declares a feature. Declaring a name twice fails with
// ErrDuplicateFeature.
func (f *Features) Add(name string, activates ...string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: feature name cannot be blank", kerrors.ErrInvalidConfig)
	}
	if f.index == nil {
		f.index = make(map[string]struct{})
	}
	if _, exists := f.index[name]; exists {
		return fmt.Errorf("%w: %q", kerrors.ErrDuplicateFeature, name)
	}
	f.index[name] = struct{}{}
	f.list = append(f.list, Feature{Name: name, Activates: append([]string(nil), activates...)})
	return nil
}

// Has reports whether name is declared.
func (f *Features) Has(name string) bool {
	_, ok := f.index[name]
	return ok
}

// All returns the features in declaration order.
func (f *Features) All() []Feature {
	return append([]Feature(nil), f.list...)
}

// Len returns the number of declared features.
func (f *Features) Len() int { return len(f.list) }
