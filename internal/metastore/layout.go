package metastore

import (
	"fmt"
	"path/filepath"
	"strings"
)

const (
	blobExt      = ".pmeta"
	backRefsDir  = "backrefs"
	catalogFile  = "catalog.mp"
	manifestFile = "manifest" + blobExt
	sourcesFile  = "sources" + blobExt
	extRefsFile  = "extrefs" + blobExt
	funcsFile    = "funcs" + blobExt
)

// BackReferenceFile maps an element path to its file name inside backrefs/.
func BackReferenceFile(elementPath string) string {
	return strings.ReplaceAll(elementPath, "::", "_") + blobExt
}

func checkModuleName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: empty", ErrInvalidModuleName)
	case name == catalogFile, strings.HasPrefix(name, "."), strings.ContainsAny(name, `/\`):
		return fmt.Errorf("%w: %q", ErrInvalidModuleName, name)
	}
	return nil
}

func (s *Store) moduleDir(name string) string {
	return filepath.Join(s.root, name)
}

func (s *Store) catalogPath() string {
	return filepath.Join(s.root, catalogFile)
}
