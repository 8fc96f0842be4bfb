package metaser

import "pmeta/internal/meta"

// v1 пишет строки inline, тег обратной ссылки это номер варианта, источник
// ReferenceUsage отмечен отдельным bool.
type v1Extension struct{}

func V1() Extension { return v1Extension{} }

func (v1Extension) Version() int { return 1 }

type v1Refs struct{}

func (v1Refs) writeTag(w fieldWriter, ref meta.BackReference) {
	w.Uint8(uint8(ref.Kind()))
	if ru, ok := ref.(meta.ReferenceUsage); ok {
		w.Bool(!ru.Source.IsZero())
	}
}

func (v1Refs) readTag(r fieldReader) (meta.RefKind, bool) {
	kind := meta.RefKind(r.Uint8())
	if kind == meta.RefReferenceUsage {
		return kind, r.Bool()
	}
	return kind, false
}

func (v1Extension) EncodeManifest(e *Encoder, m *meta.Manifest) error {
	writeManifest(e, m)
	return e.Err()
}

func (v1Extension) DecodeManifest(d *Decoder) (*meta.Manifest, error) {
	return readManifest(d)
}

func (v1Extension) EncodeModuleSources(e *Encoder, m *meta.ModuleSources) error {
	writeModuleSources(e, m)
	return e.Err()
}

func (v1Extension) DecodeModuleSources(d *Decoder) (*meta.ModuleSources, error) {
	return readModuleSources(d)
}

func (v1Extension) EncodeExternalReferences(e *Encoder, m *meta.ModuleExternalReferences) error {
	writeExternalReferences(e, m)
	return e.Err()
}

func (v1Extension) DecodeExternalReferences(d *Decoder) (*meta.ModuleExternalReferences, error) {
	return readExternalReferences(d)
}

func (v1Extension) EncodeBackReferences(e *Encoder, m meta.ElementBackReferences) error {
	writeBackReferences(e, v1Refs{}, m)
	return e.Err()
}

func (v1Extension) DecodeBackReferences(d *Decoder) (meta.ElementBackReferences, error) {
	return readBackReferences(d, v1Refs{})
}

func (v1Extension) EncodeFunctionNames(e *Encoder, m *meta.ModuleFunctionNames) error {
	writeFunctionNames(e, m)
	return e.Err()
}

func (v1Extension) DecodeFunctionNames(d *Decoder) (*meta.ModuleFunctionNames, error) {
	return readFunctionNames(d)
}
