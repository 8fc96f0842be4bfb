// Package metaerr defines the closed set of errors raised by metadata
// builders, the metadata index and the serializer.
package metaerr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error is a structured validation failure. The message is deterministic
// and is used verbatim in diagnostics.
type Error struct {
	Kind    Kind
	Path    string   // offending element path or source id
	Other   string   // second party of a conflict, if any
	Entries []string // descriptions of the conflicting entries
	Module  string
	Version int
	msg     string
}

func (e *Error) Error() string {
	if e.msg == "" {
		return e.Kind.Title()
	}
	return e.msg
}

// Is matches sentinels of the same kind, so errors.Is(err, ErrDuplicateElement) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.msg == "" && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrInvalidSourceSpan           = &Error{Kind: InvalidSourceSpan}
	ErrMissingModuleName           = &Error{Kind: MissingModuleName}
	ErrMissingSourceID             = &Error{Kind: MissingSourceID}
	ErrMissingElementPath          = &Error{Kind: MissingElementPath}
	ErrNullElement                 = &Error{Kind: NullElement}
	ErrNullSource                  = &Error{Kind: NullSource}
	ErrInvalidBackRef              = &Error{Kind: InvalidBackRef}
	ErrDuplicateElement            = &Error{Kind: DuplicateElement}
	ErrDuplicateSource             = &Error{Kind: DuplicateSource}
	ErrElementMismatch             = &Error{Kind: ElementMismatch}
	ErrSourceNotInModule           = &Error{Kind: SourceNotInModule}
	ErrModuleMismatch              = &Error{Kind: ModuleMismatch}
	ErrDuplicateModule             = &Error{Kind: DuplicateModule}
	ErrConflictingElement          = &Error{Kind: ConflictingElement}
	ErrNoExtensions                = &Error{Kind: NoExtensions}
	ErrConflictingExtensionVersion = &Error{Kind: ConflictingExtensionVersion}
	ErrUnknownFormatVersion        = &Error{Kind: UnknownFormatVersion}
	ErrInvalidFormat               = &Error{Kind: InvalidFormat}
)

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return UnknownKind
}

func InvalidSpan(path, reason string) *Error {
	msg := "invalid source span: " + reason
	if path != "" {
		msg = fmt.Sprintf("invalid source span for %s: %s", path, reason)
	}
	return &Error{Kind: InvalidSourceSpan, Path: path, msg: msg}
}

func MissingName() *Error {
	return &Error{Kind: MissingModuleName, msg: "module name may not be null"}
}

func MissingSource() *Error {
	return &Error{Kind: MissingSourceID, msg: "source id may not be null"}
}

func MissingPath() *Error {
	return &Error{Kind: MissingElementPath, msg: "element path may not be null"}
}

func MissingClassifier(path string) *Error {
	return &Error{Kind: MissingElementPath, Path: path, msg: "classifier path may not be null for " + path}
}

func NilElement() *Error {
	return &Error{Kind: NullElement, msg: "element metadata may not be null"}
}

func NilBackReference() *Error {
	return &Error{Kind: NullElement, msg: "back reference may not be null"}
}

// NegativeOffset reports a reference usage with an offset below zero.
func NegativeOffset(owner, property string, offset int) *Error {
	return &Error{
		Kind: InvalidBackRef,
		Path: owner,
		msg:  fmt.Sprintf("reference usage offset may not be negative: %s.%s[%d]", owner, property, offset),
	}
}

func MissingDependency() *Error {
	return &Error{Kind: MissingModuleName, msg: "dependency may not be null"}
}

func NilSource() *Error {
	return &Error{Kind: NullSource, msg: "source metadata may not be null"}
}

// ElementConflict reports two different payloads for one path within a module.
// existing and conflicting describe both entries.
func ElementConflict(path, existing, conflicting string) *Error {
	return &Error{
		Kind:    DuplicateElement,
		Path:    path,
		Entries: []string{existing, conflicting},
		msg:     "Conflict for element: " + path,
	}
}

func SourceConflict(id string) *Error {
	return &Error{Kind: DuplicateSource, Path: id, msg: "Conflict for source: " + id}
}

func WrongElement(got, want string) *Error {
	return &Error{
		Kind:  ElementMismatch,
		Path:  got,
		Other: want,
		msg:   fmt.Sprintf("Cannot add metadata for element '%s' to builder for element '%s'", got, want),
	}
}

// SourcesOutsideModule reports source ids that do not belong to module.
func SourcesOutsideModule(module string, ids []string) *Error {
	uniq := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		uniq = append(uniq, id)
	}
	var sb strings.Builder
	sb.WriteString("Invalid source")
	if len(uniq) > 1 {
		sort.Strings(uniq)
		sb.WriteByte('s')
	}
	fmt.Fprintf(&sb, " in module '%s': %s", module, strings.Join(uniq, ", "))
	return &Error{Kind: SourceNotInModule, Module: module, Path: strings.Join(uniq, ", "), msg: sb.String()}
}

// PartsMismatch reports module metadata parts that name different modules.
func PartsMismatch(want, got, part string) *Error {
	return &Error{
		Kind:   ModuleMismatch,
		Module: want,
		Other:  got,
		msg:    fmt.Sprintf("%s belongs to module '%s', expected '%s'", part, got, want),
	}
}

func ModuleConflict(module string) *Error {
	return &Error{Kind: DuplicateModule, Module: module, msg: fmt.Sprintf("Multiple modules named '%s'", module)}
}

// PathConflict reports a cross-module collision. first and second are
// occurrence descriptions such as "instance of X at /m/f.pure:1c1-5c1".
func PathConflict(path, first, second string) *Error {
	return &Error{
		Kind:    ConflictingElement,
		Path:    path,
		Entries: []string{first, second},
		msg:     fmt.Sprintf("Multiple elements with path %s: %s and %s", path, first, second),
	}
}

func NoExtensionsRegistered() *Error {
	return &Error{Kind: NoExtensions, msg: "no serializer extensions"}
}

func ExtensionConflict(version int) *Error {
	return &Error{
		Kind:    ConflictingExtensionVersion,
		Version: version,
		msg:     fmt.Sprintf("conflicting extensions for version %d", version),
	}
}

func UnknownVersion(version int) *Error {
	return &Error{
		Kind:    UnknownFormatVersion,
		Version: version,
		msg:     fmt.Sprintf("unknown module metadata format version: %d", version),
	}
}

// BadFormat reports a blob whose signature does not match the expected kind.
func BadFormat(kind string) *Error {
	return &Error{Kind: InvalidFormat, msg: fmt.Sprintf("invalid file format: not a %s file", kind)}
}
