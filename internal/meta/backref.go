package meta

import (
	"cmp"
	"fmt"

	"pmeta/internal/source"
)

// RefKind tags a BackReference variant. The order matches the variant names
// alphabetically, which is the canonical sort order of back references.
type RefKind uint8

const (
	RefApplication RefKind = iota + 1
	RefModelElement
	RefPropertyFromAssociation
	RefQualifiedPropertyFromAssociation
	RefReferenceUsage
	RefSpecialization
)

func (k RefKind) String() string {
	switch k {
	case RefApplication:
		return "Application"
	case RefModelElement:
		return "ModelElement"
	case RefPropertyFromAssociation:
		return "PropertyFromAssociation"
	case RefQualifiedPropertyFromAssociation:
		return "QualifiedPropertyFromAssociation"
	case RefReferenceUsage:
		return "ReferenceUsage"
	case RefSpecialization:
		return "Specialization"
	default:
		return "unknown"
	}
}

// BackReference records how a target element is used by another element.
// The set of variants is closed.
type BackReference interface {
	Kind() RefKind
	String() string
	isBackReference()
}

// Application: the target function is invoked at this expression.
type Application struct {
	FunctionExpression string
}

// ModelElement: the target (stereotype, tag) annotates this element.
type ModelElement struct {
	Element string
}

// PropertyFromAssociation: the target class gets this property from an association.
type PropertyFromAssociation struct {
	Property string
}

// QualifiedPropertyFromAssociation is PropertyFromAssociation for a derived property.
type QualifiedPropertyFromAssociation struct {
	QualifiedProperty string
}

// ReferenceUsage: slot Property of Owner points at the target, at Offset when
// the slot is multi-valued. Source is zero when the usage has no location.
type ReferenceUsage struct {
	Owner    string
	Property string
	Offset   int
	Source   source.Span
}

// Specialization: the target is reached as a supertype via this generalization.
type Specialization struct {
	Generalization string
}

func (Application) Kind() RefKind                      { return RefApplication }
func (ModelElement) Kind() RefKind                     { return RefModelElement }
func (PropertyFromAssociation) Kind() RefKind          { return RefPropertyFromAssociation }
func (QualifiedPropertyFromAssociation) Kind() RefKind { return RefQualifiedPropertyFromAssociation }
func (ReferenceUsage) Kind() RefKind                   { return RefReferenceUsage }
func (Specialization) Kind() RefKind                   { return RefSpecialization }

func (Application) isBackReference()                      {}
func (ModelElement) isBackReference()                     {}
func (PropertyFromAssociation) isBackReference()          {}
func (QualifiedPropertyFromAssociation) isBackReference() {}
func (ReferenceUsage) isBackReference()                   {}
func (Specialization) isBackReference()                   {}

func (r Application) String() string { return fmt.Sprintf("<Application funcExpr=%s>", r.FunctionExpression) }
func (r ModelElement) String() string {
	return fmt.Sprintf("<ModelElement element=%s>", r.Element)
}
func (r PropertyFromAssociation) String() string {
	return fmt.Sprintf("<PropertyFromAssociation property=%s>", r.Property)
}
func (r QualifiedPropertyFromAssociation) String() string {
	return fmt.Sprintf("<QualifiedPropertyFromAssociation qualifiedProperty=%s>", r.QualifiedProperty)
}
func (r ReferenceUsage) String() string {
	if r.Source.IsZero() {
		return fmt.Sprintf("<ReferenceUsage owner=%s property=%s offset=%d>", r.Owner, r.Property, r.Offset)
	}
	return fmt.Sprintf("<ReferenceUsage owner=%s property=%s offset=%d source=%s>", r.Owner, r.Property, r.Offset, r.Source)
}
func (r Specialization) String() string {
	return fmt.Sprintf("<Specialization generalization=%s>", r.Generalization)
}

// CompareBackReferences orders back references by variant, then by payload.
func CompareBackReferences(a, b BackReference) int {
	if c := cmp.Compare(a.Kind(), b.Kind()); c != 0 {
		return c
	}
	switch x := a.(type) {
	case Application:
		return cmp.Compare(x.FunctionExpression, b.(Application).FunctionExpression)
	case ModelElement:
		return cmp.Compare(x.Element, b.(ModelElement).Element)
	case PropertyFromAssociation:
		return cmp.Compare(x.Property, b.(PropertyFromAssociation).Property)
	case QualifiedPropertyFromAssociation:
		return cmp.Compare(x.QualifiedProperty, b.(QualifiedPropertyFromAssociation).QualifiedProperty)
	case ReferenceUsage:
		y := b.(ReferenceUsage)
		if c := cmp.Compare(x.Owner, y.Owner); c != 0 {
			return c
		}
		if c := cmp.Compare(x.Property, y.Property); c != 0 {
			return c
		}
		if c := cmp.Compare(x.Offset, y.Offset); c != 0 {
			return c
		}
		return compareOptionalSpan(x.Source, y.Source)
	case Specialization:
		return cmp.Compare(x.Generalization, b.(Specialization).Generalization)
	}
	return 0
}

// absent spans sort first
func compareOptionalSpan(a, b source.Span) int {
	switch {
	case a.IsZero() && b.IsZero():
		return 0
	case a.IsZero():
		return -1
	case b.IsZero():
		return 1
	}
	return a.Compare(b)
}
