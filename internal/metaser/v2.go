package metaser

import (
	"fmt"

	"pmeta/internal/meta"
)

// Теги обратных ссылок v2. У ReferenceUsage бит refHasSource означает, что за
// полями следует собственный span.
const (
	refApplication       uint8 = 0x00
	refQualifiedProperty uint8 = 0x20
	refProperty          uint8 = 0x40
	refModelElement      uint8 = 0x80
	refSpecialization    uint8 = 0xA0
	refUsage             uint8 = 0xC0

	refHasSource uint8 = 0x08
	refTypeMask  uint8 = 0xE0
)

// v2 кладёт в начало блоба отсортированную таблицу строк, дальше только
// индексы в неё.
type v2Extension struct{}

func V2() Extension { return v2Extension{} }

func (v2Extension) Version() int { return 2 }

type v2Refs struct{}

func (v2Refs) writeTag(w fieldWriter, ref meta.BackReference) {
	switch r := ref.(type) {
	case meta.Application:
		w.Uint8(refApplication)
	case meta.ModelElement:
		w.Uint8(refModelElement)
	case meta.PropertyFromAssociation:
		w.Uint8(refProperty)
	case meta.QualifiedPropertyFromAssociation:
		w.Uint8(refQualifiedProperty)
	case meta.ReferenceUsage:
		tag := refUsage
		if !r.Source.IsZero() {
			tag |= refHasSource
		}
		w.Uint8(tag)
	case meta.Specialization:
		w.Uint8(refSpecialization)
	}
}

func (v2Refs) readTag(r fieldReader) (meta.RefKind, bool) {
	tag := r.Uint8()
	if r.Err() != nil {
		return 0, false
	}
	kind := tag & refTypeMask
	if tag&^(refTypeMask|refHasSource) != 0 || (tag&refHasSource != 0 && kind != refUsage) {
		r.Fail(fmt.Errorf("invalid back reference tag %#02x", tag))
		return 0, false
	}
	switch kind {
	case refApplication:
		return meta.RefApplication, false
	case refModelElement:
		return meta.RefModelElement, false
	case refProperty:
		return meta.RefPropertyFromAssociation, false
	case refQualifiedProperty:
		return meta.RefQualifiedPropertyFromAssociation, false
	case refUsage:
		return meta.RefReferenceUsage, tag&refHasSource != 0
	case refSpecialization:
		return meta.RefSpecialization, false
	}
	r.Fail(fmt.Errorf("unknown back reference tag %#02x", tag))
	return 0, false
}

// collector собирает строки первым проходом; остальные поля пропускает.
type collector struct{ t *stringTable }

func (c collector) Str(s string) { c.t.add(s) }
func (collector) Int(int)        {}
func (collector) Uint8(uint8)    {}
func (collector) Bool(bool)      {}
func (collector) Len(int)        {}

type tableWriter struct {
	*Encoder
	t *stringTable
}

func (w tableWriter) Str(s string) {
	id, ok := w.t.id(s)
	if !ok {
		w.fail(fmt.Errorf("string %q missing from table", s))
		return
	}
	w.Uint32(uint32(id))
}

type tableReader struct {
	*Decoder
	t *stringTable
}

func (r tableReader) Str() string {
	id := StringID(r.Uint32())
	if r.Err() != nil {
		return ""
	}
	s, ok := r.t.lookup(id)
	if !ok {
		r.Fail(fmt.Errorf("string index %d out of range (table has %d)", id, r.t.Len()))
	}
	return s
}

// withTable runs payload twice: once to collect strings, once to write.
func withTable(e *Encoder, payload func(w fieldWriter)) error {
	t := newStringTable()
	payload(collector{t})
	if err := t.seal(); err != nil {
		return err
	}
	t.write(e)
	payload(tableWriter{Encoder: e, t: t})
	return e.Err()
}

func tableOf(d *Decoder) (tableReader, error) {
	t, err := readStringTable(d)
	if err != nil {
		return tableReader{}, err
	}
	return tableReader{Decoder: d, t: t}, nil
}

func (v2Extension) EncodeManifest(e *Encoder, m *meta.Manifest) error {
	return withTable(e, func(w fieldWriter) { writeManifest(w, m) })
}

func (v2Extension) DecodeManifest(d *Decoder) (*meta.Manifest, error) {
	r, err := tableOf(d)
	if err != nil {
		return nil, err
	}
	return readManifest(r)
}

func (v2Extension) EncodeModuleSources(e *Encoder, m *meta.ModuleSources) error {
	return withTable(e, func(w fieldWriter) { writeModuleSources(w, m) })
}

func (v2Extension) DecodeModuleSources(d *Decoder) (*meta.ModuleSources, error) {
	r, err := tableOf(d)
	if err != nil {
		return nil, err
	}
	return readModuleSources(r)
}

func (v2Extension) EncodeExternalReferences(e *Encoder, m *meta.ModuleExternalReferences) error {
	return withTable(e, func(w fieldWriter) { writeExternalReferences(w, m) })
}

func (v2Extension) DecodeExternalReferences(d *Decoder) (*meta.ModuleExternalReferences, error) {
	r, err := tableOf(d)
	if err != nil {
		return nil, err
	}
	return readExternalReferences(r)
}

func (v2Extension) EncodeBackReferences(e *Encoder, m meta.ElementBackReferences) error {
	return withTable(e, func(w fieldWriter) { writeBackReferences(w, v2Refs{}, m) })
}

func (v2Extension) DecodeBackReferences(d *Decoder) (meta.ElementBackReferences, error) {
	r, err := tableOf(d)
	if err != nil {
		return meta.ElementBackReferences{}, err
	}
	return readBackReferences(r, v2Refs{})
}

func (v2Extension) EncodeFunctionNames(e *Encoder, m *meta.ModuleFunctionNames) error {
	return withTable(e, func(w fieldWriter) { writeFunctionNames(w, m) })
}

func (v2Extension) DecodeFunctionNames(d *Decoder) (*meta.ModuleFunctionNames, error) {
	r, err := tableOf(d)
	if err != nil {
		return nil, err
	}
	return readFunctionNames(r)
}
