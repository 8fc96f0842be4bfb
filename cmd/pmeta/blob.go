package main

import (
	"fmt"

	"pmeta/internal/meta"
	"pmeta/internal/metaser"
)

// blob is a decoded metadata file of any kind.
type blob struct {
	kind    metaser.BlobKind
	version int
	value   any
}

func decodeBlob(ser *metaser.Serializer, data []byte) (blob, error) {
	version, kind, err := metaser.Sniff(data)
	if err != nil {
		return blob{}, err
	}
	b := blob{kind: kind, version: version}
	switch kind {
	case metaser.KindManifest:
		b.value, err = ser.UnmarshalManifest(data)
	case metaser.KindModuleSources:
		b.value, err = ser.UnmarshalModuleSources(data)
	case metaser.KindExternalReferences:
		b.value, err = ser.UnmarshalExternalReferences(data)
	case metaser.KindBackReferences:
		b.value, err = ser.UnmarshalBackReferences(data)
	case metaser.KindFunctionNames:
		b.value, err = ser.UnmarshalFunctionNames(data)
	default:
		err = fmt.Errorf("unsupported blob kind %v", kind)
	}
	return b, err
}

func encodeBlob(ser *metaser.Serializer, b blob, version int) ([]byte, error) {
	switch v := b.value.(type) {
	case *meta.Manifest:
		return ser.MarshalManifest(v, version)
	case *meta.ModuleSources:
		return ser.MarshalModuleSources(v, version)
	case *meta.ModuleExternalReferences:
		return ser.MarshalExternalReferences(v, version)
	case meta.ElementBackReferences:
		return ser.MarshalBackReferences(v, version)
	case *meta.ModuleFunctionNames:
		return ser.MarshalFunctionNames(v, version)
	default:
		return nil, fmt.Errorf("unsupported blob value %T", b.value)
	}
}
