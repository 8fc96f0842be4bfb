package metaerr

import "fmt"

// Kind classifies metadata validation failures.
type Kind uint8

const (
	UnknownKind Kind = 0

	// Идентичность и значения
	InvalidSourceSpan  Kind = 1
	MissingModuleName  Kind = 2
	MissingSourceID    Kind = 3
	MissingElementPath Kind = 4
	NullElement        Kind = 5
	NullSource         Kind = 6
	InvalidBackRef     Kind = 7

	// Конфликты внутри одного модуля
	DuplicateElement  Kind = 10
	DuplicateSource   Kind = 11
	ElementMismatch   Kind = 12
	SourceNotInModule Kind = 13
	ModuleMismatch    Kind = 14

	// Индекс
	DuplicateModule    Kind = 20
	ConflictingElement Kind = 21

	// Сериализация
	NoExtensions                Kind = 30
	ConflictingExtensionVersion Kind = 31
	UnknownFormatVersion        Kind = 32
	InvalidFormat               Kind = 33
)

var kindTitles = map[Kind]string{
	UnknownKind:                 "Unknown error",
	InvalidSourceSpan:           "Invalid source span",
	MissingModuleName:           "Missing module name",
	MissingSourceID:             "Missing source id",
	MissingElementPath:          "Missing element path",
	NullElement:                 "Null element metadata",
	NullSource:                  "Null source metadata",
	InvalidBackRef:              "Invalid back reference",
	DuplicateElement:            "Duplicate element",
	DuplicateSource:             "Duplicate source",
	ElementMismatch:             "Back references for another element",
	SourceNotInModule:           "Source outside of module",
	ModuleMismatch:              "Module metadata parts disagree",
	DuplicateModule:             "Duplicate module",
	ConflictingElement:          "Conflicting element",
	NoExtensions:                "No serializer extensions",
	ConflictingExtensionVersion: "Conflicting serializer extension version",
	UnknownFormatVersion:        "Unknown format version",
	InvalidFormat:               "Invalid file format",
}

// ID returns a stable short identifier, e.g. META0021.
func (k Kind) ID() string {
	return fmt.Sprintf("META%04d", int(k))
}

// Title returns a short human readable description.
func (k Kind) Title() string {
	title, ok := kindTitles[k]
	if !ok {
		return kindTitles[UnknownKind]
	}
	return title
}

func (k Kind) String() string {
	return fmt.Sprintf("[%s]: %s", k.ID(), k.Title())
}
