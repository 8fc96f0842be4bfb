package metastore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"pmeta/internal/project"
)

// Current schema version - increment when catalogPayload format changes
const catalogSchemaVersion uint16 = 1

// Entry describes one stored module.
type Entry struct {
	Module       string
	Version      int // serializer format version of the blobs
	Dependencies []string
	Elements     int
	Digest       project.Digest // over all blobs of the module, in layout order
}

type catalogPayload struct {
	Schema  uint16
	Entries []Entry
}

// readCatalog returns entries sorted by module name. Callers hold s.mu.
func (s *Store) readCatalog() ([]Entry, error) {
	data, err := os.ReadFile(s.catalogPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var payload catalogPayload
	if err := msgpack.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("%s: %w", s.catalogPath(), err)
	}
	if payload.Schema != catalogSchemaVersion {
		return nil, fmt.Errorf("%s: %w: %d", s.catalogPath(), ErrCatalogSchema, payload.Schema)
	}
	return payload.Entries, nil
}

func (s *Store) writeCatalog(entries []Entry) error {
	slices.SortFunc(entries, func(a, b Entry) int { return strings.Compare(a.Module, b.Module) })
	data, err := msgpack.Marshal(&catalogPayload{Schema: catalogSchemaVersion, Entries: entries})
	if err != nil {
		return err
	}
	return writeFileAtomic(s.catalogPath(), data)
}

func (s *Store) putEntry(e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := s.readCatalog()
	if err != nil {
		return err
	}
	entries = slices.DeleteFunc(entries, func(x Entry) bool { return x.Module == e.Module })
	return s.writeCatalog(append(entries, e))
}

func (s *Store) dropEntry(name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := s.readCatalog()
	if err != nil {
		return false, err
	}
	n := len(entries)
	entries = slices.DeleteFunc(entries, func(x Entry) bool { return x.Module == name })
	if len(entries) == n {
		return false, nil
	}
	return true, s.writeCatalog(entries)
}

// writeFileAtomic пишет во временный файл рядом и переименовывает на место.
func writeFileAtomic(path string, data []byte) (err error) {
	f, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(f.Name())
		}
	}()
	if _, err = f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}
