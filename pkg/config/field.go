package config

import (
	kerrors "github.com/provide-io/cargokit/pkg/errors"
)

// FieldState is the lifecycle state of a Field.
type FieldState int

const (
	// Unset means neither a value nor a convention is present.
	Unset FieldState = iota
	// ConventionPending means a fallback is registered but not yet evaluated.
	ConventionPending
	// Explicit means the field holds a value, either set directly or produced
	// by its convention during Finalize.
	Explicit
)

func (s FieldState) String() string {
	switch s {
	case Unset:
		return "unset"
	case ConventionPending:
		return "convention-pending"
	case Explicit:
		return "explicit"
	default:
		return "unknown"
	}
}

// Field is an optional configuration value with an optional lazily evaluated
// convention. Conventions are only evaluated by Finalize; after that the
// field is frozen and Set fails with ErrFieldFrozen.
type Field[T any] struct {
	state      FieldState
	value      T
	convention func() (T, bool)
	frozen     bool
}

// Of returns a field explicitly set to v.
func Of[T any](v T) Field[T] {
	return Field[T]{state: Explicit, value: v}
}

// Set stores an explicit value.
func (f *Field[T]) Set(v T) error {
	if f.frozen {
		return kerrors.ErrFieldFrozen
	}
	f.value = v
	f.state = Explicit
	return nil
}

// Convention registers fn as the fallback evaluated by Finalize when no
// explicit value was set. fn reports false when it has nothing to offer.
func (f *Field[T]) Convention(fn func() (T, bool)) {
	if f.frozen || fn == nil {
		return
	}
	f.convention = fn
	if f.state != Explicit {
		f.state = ConventionPending
	}
}

// Finalize evaluates a pending convention and freezes the field. It is safe
// to call more than once.
func (f *Field[T]) Finalize() {
	if f.frozen {
		return
	}
	if f.state == ConventionPending {
		if v, ok := f.convention(); ok {
			f.value = v
			f.state = Explicit
		} else {
			f.state = Unset
		}
	}
	f.convention = nil
	f.frozen = true
}

// State returns the current lifecycle state.
func (f *Field[T]) State() FieldState { return f.state }

// Frozen reports whether Finalize has run.
func (f *Field[T]) Frozen() bool { return f.frozen }

// IsSet reports whether the field holds a value. Pending conventions do not
// count until Finalize evaluates them.
func (f *Field[T]) IsSet() bool { return f.state == Explicit }

// Get returns the value and whether it is set.
func (f *Field[T]) Get() (T, bool) {
	if f.state != Explicit {
		var zero T
		return zero, false
	}
	return f.value, true
}

// Value returns the value, or the zero value when unset.
func (f *Field[T]) Value() T {
	v, _ := f.Get()
	return v
}

// Or returns the value, or def when unset.
func (f *Field[T]) Or(def T) T {
	if v, ok := f.Get(); ok {
		return v
	}
	return def
}

// CopyIfNotSet copies other's value into f when f is unset and other is set.
func (f *Field[T]) CopyIfNotSet(other Field[T]) {
	if f.frozen || f.IsSet() {
		return
	}
	if v, ok := other.Get(); ok {
		f.value = v
		f.state = Explicit
	}
}

// finalizer is implemented by every *Field so option groups can list their
// fields once.
type finalizer interface {
	Finalize()
}

func finalizeAll(fields ...finalizer) {
	for _, f := range fields {
		f.Finalize()
	}
}
