package metaser

import (
	"fmt"

	"pmeta/internal/meta"
	"pmeta/internal/source"
)

// fieldWriter abstracts how strings land on the wire: inline in v1, as
// string table indices in v2. Everything else is shared.
type fieldWriter interface {
	Str(s string)
	Int(v int)
	Uint8(v uint8)
	Bool(v bool)
	Len(n int)
}

type fieldReader interface {
	Str() string
	Int() int
	Count() int
	Uint8() uint8
	Bool() bool
	Len() int
	Fail(err error)
	Err() error
}

// refCodec maps back reference variants to their tag byte.
type refCodec interface {
	writeTag(w fieldWriter, ref meta.BackReference)
	readTag(r fieldReader) (kind meta.RefKind, hasSource bool)
}

func writeStrings(w fieldWriter, values []string) {
	w.Len(len(values))
	for _, s := range values {
		w.Str(s)
	}
}

func readStrings(r fieldReader) []string {
	n := r.Len()
	out := make([]string, 0, capHint(n))
	for range n {
		if r.Err() != nil {
			return nil
		}
		out = append(out, r.Str())
	}
	return out
}

func writeSpan(w fieldWriter, s source.Span) {
	w.Str(s.SourceID())
	w.Int(s.StartLine())
	w.Int(s.StartColumn())
	w.Int(s.Line())
	w.Int(s.Column())
	w.Int(s.EndLine())
	w.Int(s.EndColumn())
}

func readSpan(r fieldReader) source.Span {
	id := r.Str()
	sl, sc := r.Count(), r.Count()
	line, col := r.Count(), r.Count()
	el, ec := r.Count(), r.Count()
	if r.Err() != nil {
		return source.Span{}
	}
	s, err := source.NewWithAnchor(id, sl, sc, line, col, el, ec)
	r.Fail(err)
	return s
}

// manifest: name, dependencies, elements (path, classifier, span).

func writeManifest(w fieldWriter, m *meta.Manifest) {
	w.Str(m.ModuleName())
	writeStrings(w, m.Dependencies())
	elements := m.Elements()
	w.Len(len(elements))
	for _, e := range elements {
		w.Str(e.Path())
		w.Str(e.ClassifierPath())
		writeSpan(w, e.Source())
	}
}

func readManifest(r fieldReader) (*meta.Manifest, error) {
	b := meta.NewManifestBuilder(r.Str()).WithDependencies(readStrings(r)...)
	n := r.Len()
	for range n {
		path, cls := r.Str(), r.Str()
		span := readSpan(r)
		if err := r.Err(); err != nil {
			return nil, err
		}
		e, err := meta.NewElement(path, cls, span)
		if err != nil {
			return nil, err
		}
		b.WithElement(e)
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return b.Build()
}

// module sources: name, sources (id, sections (parser, element paths)).

func writeModuleSources(w fieldWriter, m *meta.ModuleSources) {
	w.Str(m.ModuleName())
	sources := m.Sources()
	w.Len(len(sources))
	for _, s := range sources {
		w.Str(s.SourceID())
		sections := s.Sections()
		w.Len(len(sections))
		for _, sec := range sections {
			w.Str(sec.Parser())
			writeStrings(w, sec.Elements())
		}
	}
}

func readModuleSources(r fieldReader) (*meta.ModuleSources, error) {
	b := meta.NewModuleSourcesBuilder(r.Str())
	n := r.Len()
	for range n {
		id := r.Str()
		count := r.Len()
		sections := make([]meta.SourceSection, 0, capHint(count))
		for range count {
			parser := r.Str()
			sections = append(sections, meta.NewSourceSection(parser, readStrings(r)...))
			if r.Err() != nil {
				break
			}
		}
		if err := r.Err(); err != nil {
			return nil, err
		}
		s, err := meta.NewSource(id, sections...)
		if err != nil {
			return nil, err
		}
		b.WithSource(s)
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return b.Build()
}

// external references: name, reference id version, elements (path, refs).

func writeExternalReferences(w fieldWriter, m *meta.ModuleExternalReferences) {
	w.Str(m.ModuleName())
	w.Int(m.ReferenceIDVersion())
	elements := m.Elements()
	w.Len(len(elements))
	for _, e := range elements {
		w.Str(e.ElementPath())
		writeStrings(w, e.ExternalReferences())
	}
}

func readExternalReferences(r fieldReader) (*meta.ModuleExternalReferences, error) {
	b := meta.NewModuleExternalReferencesBuilder(r.Str()).WithReferenceIDVersion(r.Int())
	n := r.Len()
	for range n {
		path := r.Str()
		refs := readStrings(r)
		if err := r.Err(); err != nil {
			return nil, err
		}
		b.WithExternalReferences(path, refs...)
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return b.Build()
}

// element back references: path, reference id version, groups (ref id, refs).

func writeBackReferences(w fieldWriter, codec refCodec, m meta.ElementBackReferences) {
	w.Str(m.ElementPath())
	w.Int(m.ReferenceIDVersion())
	groups := m.InstanceBackReferences()
	w.Len(len(groups))
	for _, g := range groups {
		w.Str(g.InstanceRefID())
		refs := g.BackReferences()
		w.Len(len(refs))
		for _, ref := range refs {
			writeBackReference(w, codec, ref)
		}
	}
}

func writeBackReference(w fieldWriter, codec refCodec, ref meta.BackReference) {
	codec.writeTag(w, ref)
	switch r := ref.(type) {
	case meta.Application:
		w.Str(r.FunctionExpression)
	case meta.ModelElement:
		w.Str(r.Element)
	case meta.PropertyFromAssociation:
		w.Str(r.Property)
	case meta.QualifiedPropertyFromAssociation:
		w.Str(r.QualifiedProperty)
	case meta.ReferenceUsage:
		w.Str(r.Owner)
		w.Str(r.Property)
		w.Int(r.Offset)
		if !r.Source.IsZero() {
			writeSpan(w, r.Source)
		}
	case meta.Specialization:
		w.Str(r.Generalization)
	}
}

func readBackReferences(r fieldReader, codec refCodec) (meta.ElementBackReferences, error) {
	b := meta.NewElementBackReferencesBuilder(r.Str()).WithReferenceIDVersion(r.Int())
	n := r.Len()
	for range n {
		refID := r.Str()
		count := r.Len()
		refs := make([]meta.BackReference, 0, capHint(count))
		for range count {
			ref := readBackReference(r, codec)
			if err := r.Err(); err != nil {
				return meta.ElementBackReferences{}, err
			}
			refs = append(refs, ref)
		}
		if err := r.Err(); err != nil {
			return meta.ElementBackReferences{}, err
		}
		b.WithBackReferences(refID, refs...)
	}
	if err := r.Err(); err != nil {
		return meta.ElementBackReferences{}, err
	}
	return b.Build()
}

func readBackReference(r fieldReader, codec refCodec) meta.BackReference {
	kind, hasSource := codec.readTag(r)
	switch kind {
	case meta.RefApplication:
		return meta.Application{FunctionExpression: r.Str()}
	case meta.RefModelElement:
		return meta.ModelElement{Element: r.Str()}
	case meta.RefPropertyFromAssociation:
		return meta.PropertyFromAssociation{Property: r.Str()}
	case meta.RefQualifiedPropertyFromAssociation:
		return meta.QualifiedPropertyFromAssociation{QualifiedProperty: r.Str()}
	case meta.RefReferenceUsage:
		ru := meta.ReferenceUsage{Owner: r.Str(), Property: r.Str(), Offset: r.Count()}
		if hasSource {
			ru.Source = readSpan(r)
		}
		return ru
	case meta.RefSpecialization:
		return meta.Specialization{Generalization: r.Str()}
	default:
		if r.Err() == nil {
			r.Fail(fmt.Errorf("unknown back reference kind %d", kind))
		}
		return nil
	}
}

// function names: name, functions (short name, paths).

func writeFunctionNames(w fieldWriter, m *meta.ModuleFunctionNames) {
	w.Str(m.ModuleName())
	funcs := m.Functions()
	w.Len(len(funcs))
	for _, f := range funcs {
		w.Str(f.Name())
		writeStrings(w, f.Paths())
	}
}

func readFunctionNames(r fieldReader) (*meta.ModuleFunctionNames, error) {
	b := meta.NewModuleFunctionNamesBuilder(r.Str())
	n := r.Len()
	for range n {
		name := r.Str()
		paths := readStrings(r)
		if err := r.Err(); err != nil {
			return nil, err
		}
		b.WithFunction(name, paths...)
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return b.Build()
}
