// Package record transfers resolved dependency entries between the resolve
// and generate steps as small versioned binary files.
package record

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/adler32"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/provide-io/cargokit/pkg/config"
	kerrors "github.com/provide-io/cargokit/pkg/errors"
)

const (
	// SchemaVersion is bumped whenever Payload changes incompatibly.
	SchemaVersion uint32 = 1
	// HeaderSize is the size of the envelope preceding the payload.
	HeaderSize = 16
)

// MagicBytes opens every record: 🦀 as UTF-8.
var MagicBytes = []byte{0xF0, 0x9F, 0xA6, 0x80}

// Header is the fixed little-endian envelope of a record.
type Header struct {
	Version  uint32
	Checksum uint32 // Adler-32 of the payload
	Length   uint32 // payload length in bytes
}

// Pack serializes the header including the magic.
func (h Header) Pack() []byte {
	buf := make([]byte, HeaderSize)
	copy(buf[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(buf[4:8], h.Version)
	binary.LittleEndian.PutUint32(buf[8:12], h.Checksum)
	binary.LittleEndian.PutUint32(buf[12:16], h.Length)
	return buf
}

// UnpackHeader parses the envelope at the start of data.
func UnpackHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, fmt.Errorf("%w: %d bytes is shorter than the %d byte header", kerrors.ErrRecordCorrupt, len(data), HeaderSize)
	}
	if !bytes.Equal(data[0:4], MagicBytes) {
		return Header{}, fmt.Errorf("%w: bad magic %x", kerrors.ErrRecordCorrupt, data[0:4])
	}
	return Header{
		Version:  binary.LittleEndian.Uint32(data[4:8]),
		Checksum: binary.LittleEndian.Uint32(data[8:12]),
		Length:   binary.LittleEndian.Uint32(data[12:16]),
	}, nil
}

// Payload is the msgpack body of a record. Optional settings use pointers so
// an unset value survives the round trip distinctly from false or empty.
type Payload struct {
	Name            string   `msgpack:"name"`
	Version         string   `msgpack:"version"`
	Path            *string  `msgpack:"path,omitempty"`
	Git             *string  `msgpack:"git,omitempty"`
	Rev             *string  `msgpack:"rev,omitempty"`
	Branch          *string  `msgpack:"branch,omitempty"`
	Registry        *string  `msgpack:"registry,omitempty"`
	Features        []string `msgpack:"features,omitempty"`
	HasFeatures     bool     `msgpack:"has_features"`
	DefaultFeatures *bool    `msgpack:"default_features,omitempty"`
	Optional        *bool    `msgpack:"optional,omitempty"`
	// Project is the consumer's reference to the producing unit.
	Project string `msgpack:"project,omitempty"`
}

// PayloadOf captures dep.
func PayloadOf(dep *config.Dependency) Payload {
	p := Payload{
		Name:            dep.Name,
		Version:         dep.Version,
		Path:            ptr(dep.Path),
		Git:             ptr(dep.Git),
		Rev:             ptr(dep.Rev),
		Branch:          ptr(dep.Branch),
		Registry:        ptr(dep.Registry),
		DefaultFeatures: ptr(dep.DefaultFeatures),
		Optional:        ptr(dep.Optional),
		Project:         dep.Project,
	}
	if f, ok := dep.Features.Get(); ok {
		p.HasFeatures = true
		p.Features = append([]string(nil), f...)
	}
	return p
}

// Dependency rebuilds the entry the payload describes.
func (p Payload) Dependency() *config.Dependency {
	dep := config.NewDependency(p.Name, p.Version)
	set(&dep.Path, p.Path)
	set(&dep.Git, p.Git)
	set(&dep.Rev, p.Rev)
	set(&dep.Branch, p.Branch)
	set(&dep.Registry, p.Registry)
	set(&dep.DefaultFeatures, p.DefaultFeatures)
	set(&dep.Optional, p.Optional)
	dep.Project = p.Project
	if p.HasFeatures {
		_ = dep.Features.Set(append([]string{}, p.Features...))
	}
	return dep
}

// ToRecord encodes dep into a record.
func ToRecord(dep *config.Dependency) ([]byte, error) {
	payload, err := msgpack.Marshal(PayloadOf(dep))
	if err != nil {
		return nil, fmt.Errorf("failed to encode record for %s: %w", dep.Name, err)
	}
	header := Header{
		Version:  SchemaVersion,
		Checksum: adler32.Checksum(payload),
		Length:   uint32(len(payload)),
	}
	return append(header.Pack(), payload...), nil
}

// FromRecord decodes a record produced by ToRecord. Damaged input fails with
// ErrRecordCorrupt, a record from another schema version with
// ErrRecordVersion.
func FromRecord(data []byte) (*config.Dependency, error) {
	header, err := UnpackHeader(data)
	if err != nil {
		return nil, err
	}
	if header.Version != SchemaVersion {
		return nil, fmt.Errorf("%w: version %d, expected %d", kerrors.ErrRecordVersion, header.Version, SchemaVersion)
	}
	payload := data[HeaderSize:]
	if uint32(len(payload)) != header.Length {
		return nil, fmt.Errorf("%w: payload is %d bytes, header says %d", kerrors.ErrRecordCorrupt, len(payload), header.Length)
	}
	if sum := adler32.Checksum(payload); sum != header.Checksum {
		return nil, fmt.Errorf("%w: checksum %08x, expected %08x", kerrors.ErrRecordCorrupt, sum, header.Checksum)
	}

	var p Payload
	if err := msgpack.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("%w: %w", kerrors.ErrRecordCorrupt, err)
	}
	if p.Name == "" {
		return nil, fmt.Errorf("%w: record has no name", kerrors.ErrRecordCorrupt)
	}
	return p.Dependency(), nil
}

func ptr[T any](f config.Field[T]) *T {
	v, ok := f.Get()
	if !ok {
		return nil
	}
	return &v
}

func set[T any](f *config.Field[T], v *T) {
	if v != nil {
		_ = f.Set(*v)
	}
}
