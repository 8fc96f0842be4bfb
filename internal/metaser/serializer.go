// Package metaser implements the versioned binary format of module metadata.
//
// Every blob starts with the format version, then the signature of its kind,
// then the payload of the extension registered for that version. Payloads are
// msgpack values without maps, so encoding the same value is byte-stable.
package metaser

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"maps"
	"reflect"
	"slices"

	"pmeta/internal/meta"
	"pmeta/internal/metaerr"
)

// Serializer dispatches by format version. It is safe for concurrent use.
type Serializer struct {
	exts     map[int]Extension
	versions []int
}

// NewSerializer fails with NoExtensions for an empty list and with
// ConflictingExtensionVersion when two different extensions share a version.
func NewSerializer(exts ...Extension) (*Serializer, error) {
	s := &Serializer{exts: make(map[int]Extension, len(exts))}
	for _, ext := range exts {
		if ext == nil {
			continue
		}
		v := ext.Version()
		if v <= 0 {
			return nil, metaerr.UnknownVersion(v)
		}
		if prev, ok := s.exts[v]; ok {
			if sameExtension(prev, ext) {
				continue
			}
			return nil, metaerr.ExtensionConflict(v)
		}
		s.exts[v] = ext
	}
	if len(s.exts) == 0 {
		return nil, metaerr.NoExtensionsRegistered()
	}
	s.versions = slices.Sorted(maps.Keys(s.exts))
	return s, nil
}

// sameExtension reports whether a and b are the same registration.
// Values that cannot be compared, including comparable structs wrapping a
// non-comparable extension, are never the same.
func sameExtension(a, b Extension) (same bool) {
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) || !ta.Comparable() {
		return false
	}
	defer func() {
		if recover() != nil {
			same = false
		}
	}()
	return a == b
}

// NewSerializerFromRegistry merges registries as if their extensions were
// passed to NewSerializer in order.
func NewSerializerFromRegistry(regs ...Registry) (*Serializer, error) {
	var all []Extension
	for _, r := range regs {
		all = append(all, r...)
	}
	return NewSerializer(all...)
}

// Default is a serializer over Builtin.
func Default() *Serializer {
	s, err := NewSerializerFromRegistry(Builtin())
	if err != nil {
		panic(err)
	}
	return s
}

// DefaultVersion is the highest registered version.
func (s *Serializer) DefaultVersion() int { return s.versions[len(s.versions)-1] }

func (s *Serializer) Versions() []int { return slices.Clone(s.versions) }

func (s *Serializer) HasVersion(v int) bool {
	_, ok := s.exts[v]
	return ok
}

// encode buffers the whole blob, so a failure leaves w untouched.
func encode[T any](s *Serializer, w io.Writer, kind BlobKind, version int, value T,
	fn func(Extension, *Encoder, T) error,
) error {
	ext, ok := s.exts[version]
	if !ok {
		return metaerr.UnknownVersion(version)
	}
	var buf bytes.Buffer
	e := NewEncoder(&buf)
	e.Int(version)
	e.Str(kind.Signature())
	if err := e.Err(); err != nil {
		return err
	}
	if err := fn(ext, e, value); err != nil {
		return fmt.Errorf("encode %s: %w", kind, err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// decode consumes r to EOF; a blob followed by anything else is rejected.
func decode[T any](s *Serializer, r io.Reader, kind BlobKind, fn func(Extension, *Decoder) (T, error)) (T, error) {
	var zero T
	data, err := io.ReadAll(r)
	if err != nil {
		return zero, err
	}
	br := bytes.NewReader(data)
	d := NewDecoder(br)
	version := d.Int()
	if err := d.Err(); err != nil {
		return zero, errors.Join(metaerr.BadFormat(kind.String()), err)
	}
	ext, ok := s.exts[version]
	if !ok {
		return zero, metaerr.UnknownVersion(version)
	}
	if sig := d.Str(); d.Err() != nil || sig != kind.Signature() {
		return zero, metaerr.BadFormat(kind.String())
	}
	v, err := fn(ext, d)
	if err != nil {
		return zero, fmt.Errorf("decode %s: %w", kind, err)
	}
	if br.Len() != 0 {
		return zero, fmt.Errorf("decode %s: %d trailing bytes: %w", kind, br.Len(), metaerr.BadFormat(kind.String()))
	}
	return v, nil
}

// marshal treats version 0 as DefaultVersion.
func marshal[T any](s *Serializer, kind BlobKind, version int, value T, fn func(Extension, *Encoder, T) error) ([]byte, error) {
	if version == 0 {
		version = s.DefaultVersion()
	}
	var buf bytes.Buffer
	if err := encode(s, &buf, kind, version, value, fn); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Sniff reads the header of a blob without decoding the payload.
func Sniff(data []byte) (version int, kind BlobKind, err error) {
	d := NewDecoder(bytes.NewReader(data))
	version = d.Int()
	sig := d.Str()
	if d.Err() != nil {
		return 0, 0, metaerr.BadFormat("module metadata")
	}
	kind, ok := kindOfSignature(sig)
	if !ok {
		return version, 0, metaerr.BadFormat("module metadata")
	}
	return version, kind, nil
}

// Manifest

func (s *Serializer) WriteManifest(w io.Writer, m *meta.Manifest) error {
	return s.WriteManifestVersion(w, m, s.DefaultVersion())
}

func (s *Serializer) WriteManifestVersion(w io.Writer, m *meta.Manifest, version int) error {
	if m == nil {
		return metaerr.MissingName()
	}
	return encode(s, w, KindManifest, version, m, Extension.EncodeManifest)
}

func (s *Serializer) ReadManifest(r io.Reader) (*meta.Manifest, error) {
	return decode(s, r, KindManifest, Extension.DecodeManifest)
}

func (s *Serializer) MarshalManifest(m *meta.Manifest, version int) ([]byte, error) {
	if m == nil {
		return nil, metaerr.MissingName()
	}
	return marshal(s, KindManifest, version, m, Extension.EncodeManifest)
}

func (s *Serializer) UnmarshalManifest(data []byte) (*meta.Manifest, error) {
	return s.ReadManifest(bytes.NewReader(data))
}

// Module sources

func (s *Serializer) WriteModuleSources(w io.Writer, m *meta.ModuleSources) error {
	return s.WriteModuleSourcesVersion(w, m, s.DefaultVersion())
}

func (s *Serializer) WriteModuleSourcesVersion(w io.Writer, m *meta.ModuleSources, version int) error {
	if m == nil {
		return metaerr.MissingName()
	}
	return encode(s, w, KindModuleSources, version, m, Extension.EncodeModuleSources)
}

func (s *Serializer) ReadModuleSources(r io.Reader) (*meta.ModuleSources, error) {
	return decode(s, r, KindModuleSources, Extension.DecodeModuleSources)
}

func (s *Serializer) MarshalModuleSources(m *meta.ModuleSources, version int) ([]byte, error) {
	if m == nil {
		return nil, metaerr.MissingName()
	}
	return marshal(s, KindModuleSources, version, m, Extension.EncodeModuleSources)
}

func (s *Serializer) UnmarshalModuleSources(data []byte) (*meta.ModuleSources, error) {
	return s.ReadModuleSources(bytes.NewReader(data))
}

// External references

func (s *Serializer) WriteExternalReferences(w io.Writer, m *meta.ModuleExternalReferences) error {
	return s.WriteExternalReferencesVersion(w, m, s.DefaultVersion())
}

func (s *Serializer) WriteExternalReferencesVersion(w io.Writer, m *meta.ModuleExternalReferences, version int) error {
	if m == nil {
		return metaerr.MissingName()
	}
	return encode(s, w, KindExternalReferences, version, m, Extension.EncodeExternalReferences)
}

func (s *Serializer) ReadExternalReferences(r io.Reader) (*meta.ModuleExternalReferences, error) {
	return decode(s, r, KindExternalReferences, Extension.DecodeExternalReferences)
}

func (s *Serializer) MarshalExternalReferences(m *meta.ModuleExternalReferences, version int) ([]byte, error) {
	if m == nil {
		return nil, metaerr.MissingName()
	}
	return marshal(s, KindExternalReferences, version, m, Extension.EncodeExternalReferences)
}

func (s *Serializer) UnmarshalExternalReferences(data []byte) (*meta.ModuleExternalReferences, error) {
	return s.ReadExternalReferences(bytes.NewReader(data))
}

// Back references

func (s *Serializer) WriteBackReferences(w io.Writer, m meta.ElementBackReferences) error {
	return s.WriteBackReferencesVersion(w, m, s.DefaultVersion())
}

func (s *Serializer) WriteBackReferencesVersion(w io.Writer, m meta.ElementBackReferences, version int) error {
	if m.ElementPath() == "" {
		return metaerr.MissingPath()
	}
	return encode(s, w, KindBackReferences, version, m, Extension.EncodeBackReferences)
}

func (s *Serializer) ReadBackReferences(r io.Reader) (meta.ElementBackReferences, error) {
	return decode(s, r, KindBackReferences, Extension.DecodeBackReferences)
}

func (s *Serializer) MarshalBackReferences(m meta.ElementBackReferences, version int) ([]byte, error) {
	if m.ElementPath() == "" {
		return nil, metaerr.MissingPath()
	}
	return marshal(s, KindBackReferences, version, m, Extension.EncodeBackReferences)
}

func (s *Serializer) UnmarshalBackReferences(data []byte) (meta.ElementBackReferences, error) {
	return s.ReadBackReferences(bytes.NewReader(data))
}

// Function names

func (s *Serializer) WriteFunctionNames(w io.Writer, m *meta.ModuleFunctionNames) error {
	return s.WriteFunctionNamesVersion(w, m, s.DefaultVersion())
}

func (s *Serializer) WriteFunctionNamesVersion(w io.Writer, m *meta.ModuleFunctionNames, version int) error {
	if m == nil {
		return metaerr.MissingName()
	}
	return encode(s, w, KindFunctionNames, version, m, Extension.EncodeFunctionNames)
}

func (s *Serializer) ReadFunctionNames(r io.Reader) (*meta.ModuleFunctionNames, error) {
	return decode(s, r, KindFunctionNames, Extension.DecodeFunctionNames)
}

func (s *Serializer) MarshalFunctionNames(m *meta.ModuleFunctionNames, version int) ([]byte, error) {
	if m == nil {
		return nil, metaerr.MissingName()
	}
	return marshal(s, KindFunctionNames, version, m, Extension.EncodeFunctionNames)
}

func (s *Serializer) UnmarshalFunctionNames(data []byte) (*meta.ModuleFunctionNames, error) {
	return s.ReadFunctionNames(bytes.NewReader(data))
}
