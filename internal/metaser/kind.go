package metaser

// BlobKind identifies what a serialized blob contains.
type BlobKind uint8

const (
	KindManifest BlobKind = iota + 1
	KindModuleSources
	KindExternalReferences
	KindBackReferences
	KindFunctionNames
)

var blobSignatures = map[BlobKind]string{
	KindManifest:           "pmeta/manifest",
	KindModuleSources:      "pmeta/sources",
	KindExternalReferences: "pmeta/extrefs",
	KindBackReferences:     "pmeta/backrefs",
	KindFunctionNames:      "pmeta/funcs",
}

func (k BlobKind) String() string {
	switch k {
	case KindManifest:
		return "module manifest"
	case KindModuleSources:
		return "module source metadata"
	case KindExternalReferences:
		return "module external reference metadata"
	case KindBackReferences:
		return "element back reference metadata"
	case KindFunctionNames:
		return "module function name metadata"
	default:
		return "unknown"
	}
}

// Signature is the tag written after the format version.
func (k BlobKind) Signature() string { return blobSignatures[k] }

func kindOfSignature(sig string) (BlobKind, bool) {
	for k, s := range blobSignatures {
		if s == sig {
			return k, true
		}
	}
	return 0, false
}
