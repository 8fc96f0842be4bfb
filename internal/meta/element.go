// Package meta holds the compiled metadata model of one module: element
// metadata, back references, source sections and the aggregates built from
// them. Aggregates are immutable once built; builders are single-owner.
package meta

import (
	"fmt"

	"pmeta/internal/metaerr"
	"pmeta/internal/source"
)

// Packageable is anything with a place in the package tree: a concrete
// element or a virtual package synthesized from path prefixes.
type Packageable interface {
	Path() string
	ClassifierPath() string
	IsVirtual() bool
}

// Element describes one concrete declared element.
type Element struct {
	path       string
	classifier string
	span       source.Span
}

// NewElement validates and builds element metadata.
func NewElement(path, classifierPath string, span source.Span) (Element, error) {
	if path == "" {
		return Element{}, metaerr.MissingPath()
	}
	if classifierPath == "" {
		return Element{}, metaerr.MissingClassifier(path)
	}
	if span.IsZero() {
		return Element{}, metaerr.InvalidSpan(path, "missing source information")
	}
	if !span.Valid() {
		return Element{}, metaerr.InvalidSpan(path, span.Message())
	}
	return Element{path: path, classifier: classifierPath, span: span}, nil
}

// NewElementAt builds the span and the element in one step so that span
// errors name the element.
func NewElementAt(path, classifierPath, sourceID string, startLine, startCol, endLine, endCol int) (Element, error) {
	span, err := source.New(sourceID, startLine, startCol, endLine, endCol)
	if err != nil {
		return Element{}, metaerr.InvalidSpan(path, fmt.Sprintf("%s:%dc%d-%dc%d", sourceID, startLine, startCol, endLine, endCol))
	}
	return NewElement(path, classifierPath, span)
}

// MustElement is NewElementAt that panics; intended for fixtures.
func MustElement(path, classifierPath, sourceID string, startLine, startCol, endLine, endCol int) Element {
	e, err := NewElementAt(path, classifierPath, sourceID, startLine, startCol, endLine, endCol)
	if err != nil {
		panic(err)
	}
	return e
}

func (e Element) Path() string           { return e.path }
func (e Element) ClassifierPath() string { return e.classifier }
func (e Element) Source() source.Span    { return e.span }
func (e Element) IsVirtual() bool        { return false }

// IsZero reports an unset element; builders treat it as a null payload.
func (e Element) IsZero() bool { return e == Element{} }

func (e Element) Equal(other Element) bool { return e == other }

// Describe renders the element for conflict messages.
func (e Element) Describe() string {
	return fmt.Sprintf("instance of %s at %s", e.classifier, e.span.Message())
}

func (e Element) String() string {
	return fmt.Sprintf("<Element path='%s' classifier='%s' source=%s>", e.path, e.classifier, e.span)
}

// VirtualPackage is a namespace prefix without a concrete element.
type VirtualPackage struct {
	path string
}

func NewVirtualPackage(path string) VirtualPackage { return VirtualPackage{path: path} }

func (p VirtualPackage) Path() string           { return p.path }
func (p VirtualPackage) ClassifierPath() string { return PackageClassifier }
func (p VirtualPackage) IsVirtual() bool        { return true }

func (p VirtualPackage) String() string {
	return fmt.Sprintf("<VirtualPackage path='%s'>", p.path)
}
