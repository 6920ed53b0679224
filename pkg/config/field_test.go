package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kerrors "github.com/provide-io/cargokit/pkg/errors"
)

func TestFieldLifecycle(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(f *Field[string])
		wantBefore FieldState
		wantValue  string
		wantSet    bool
	}{
		{
			name:       "unset stays unset",
			setup:      func(f *Field[string]) {},
			wantBefore: Unset,
		},
		{
			name: "convention resolves on finalize",
			setup: func(f *Field[string]) {
				f.Convention(func() (string, bool) { return "from-convention", true })
			},
			wantBefore: ConventionPending,
			wantValue:  "from-convention",
			wantSet:    true,
		},
		{
			name: "explicit beats convention",
			setup: func(f *Field[string]) {
				f.Convention(func() (string, bool) { return "from-convention", true })
				require.NoError(t, f.Set("explicit"))
			},
			wantBefore: Explicit,
			wantValue:  "explicit",
			wantSet:    true,
		},
		{
			name: "empty convention leaves field unset",
			setup: func(f *Field[string]) {
				f.Convention(func() (string, bool) { return "", false })
			},
			wantBefore: ConventionPending,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f Field[string]
			tt.setup(&f)
			assert.Equal(t, tt.wantBefore, f.State())

			f.Finalize()
			got, ok := f.Get()
			assert.Equal(t, tt.wantSet, ok)
			assert.Equal(t, tt.wantValue, got)
			assert.True(t, f.Frozen())
		})
	}
}

func TestFieldConventionEvaluatedOnce(t *testing.T) {
	calls := 0
	var f Field[int]
	f.Convention(func() (int, bool) { calls++; return 7, true })

	assert.False(t, f.IsSet(), "pending conventions are not values yet")
	f.Finalize()
	f.Finalize()
	assert.Equal(t, 1, calls)
	assert.Equal(t, 7, f.Value())
}

func TestFieldSetAfterFinalize(t *testing.T) {
	var f Field[bool]
	f.Finalize()
	err := f.Set(true)
	require.ErrorIs(t, err, kerrors.ErrFieldFrozen)
	assert.False(t, f.IsSet())
}

func TestFieldCopyIfNotSet(t *testing.T) {
	var dst Field[string]
	src := Of("value")
	dst.CopyIfNotSet(src)
	assert.Equal(t, "value", dst.Value())

	kept := Of("mine")
	kept.CopyIfNotSet(src)
	assert.Equal(t, "mine", kept.Value())

	assert.Equal(t, "fallback", (&Field[string]{}).Or("fallback"))
}
