package metaser

import "pmeta/internal/meta"

// Extension binds one format version to codecs for every blob kind. The
// serializer has already consumed the version and signature when a Decode
// method runs. Registering an equal comparable value twice is a no-op; any
// other pair sharing a version conflicts.
type Extension interface {
	Version() int

	EncodeManifest(e *Encoder, m *meta.Manifest) error
	DecodeManifest(d *Decoder) (*meta.Manifest, error)

	EncodeModuleSources(e *Encoder, m *meta.ModuleSources) error
	DecodeModuleSources(d *Decoder) (*meta.ModuleSources, error)

	EncodeExternalReferences(e *Encoder, m *meta.ModuleExternalReferences) error
	DecodeExternalReferences(d *Decoder) (*meta.ModuleExternalReferences, error)

	EncodeBackReferences(e *Encoder, m meta.ElementBackReferences) error
	DecodeBackReferences(d *Decoder) (meta.ElementBackReferences, error)

	EncodeFunctionNames(e *Encoder, m *meta.ModuleFunctionNames) error
	DecodeFunctionNames(d *Decoder) (*meta.ModuleFunctionNames, error)
}

// Registry is a static list of extensions, the replacement for runtime
// discovery.
type Registry []Extension

// Builtin returns every format version this package implements.
func Builtin() Registry {
	return Registry{V1(), V2()}
}
