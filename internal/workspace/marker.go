package workspace

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"
)

// Marker records the inputs of the last successful generation.
type Marker struct {
	Timestamp   time.Time `json:"timestamp"`
	Unit        string    `json:"unit"`
	Version     string    `json:"version"`
	Fingerprint string    `json:"fingerprint"`
	// Manifest is the hash of the generated manifest text.
	Manifest string `json:"manifest"`
}

// WriteMarker stores m for the unit at ps.
func (ps Paths) WriteMarker(m Marker) error {
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now()
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(ps.Build, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", ps.Build, err)
	}
	return os.WriteFile(ps.Marker, data, 0o644)
}

// ReadMarker returns the stored marker, or nil when there is none or it
// cannot be parsed.
func (ps Paths) ReadMarker() *Marker {
	data, err := os.ReadFile(ps.Marker)
	if err != nil {
		return nil
	}
	var m Marker
	if err := json.Unmarshal(data, &m); err != nil {
		return nil
	}
	return &m
}

// IsUpToDate reports whether the marker matches want and the manifest on
// disk still hashes to the recorded value under sum.
func (ps Paths) IsUpToDate(want Marker, sum func(string) string) bool {
	m := ps.ReadMarker()
	if m == nil {
		return false
	}
	if m.Unit != want.Unit || m.Version != want.Version ||
		m.Fingerprint != want.Fingerprint || m.Manifest != want.Manifest {
		return false
	}
	data, err := os.ReadFile(ps.Manifest)
	return err == nil && sum(string(data)) == m.Manifest
}

// Invalidate removes the marker.
func (ps Paths) Invalidate() error {
	if err := os.Remove(ps.Marker); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
