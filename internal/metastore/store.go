// Package metastore keeps serialized module metadata on disk: one directory
// per module with a blob per metadata part and a msgpack catalog at the root.
package metastore

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"pmeta/internal/meta"
	"pmeta/internal/metaindex"
	"pmeta/internal/metaser"
	"pmeta/internal/project"
	"pmeta/internal/project/dag"
	"pmeta/internal/trace"
)

var (
	ErrModuleNotFound    = errors.New("module not found in store")
	ErrInvalidModuleName = errors.New("invalid module name")
	ErrCatalogSchema     = errors.New("unsupported catalog schema")
	ErrDigestMismatch    = errors.New("module blobs do not match catalog digest")
	ErrBackRefCollision  = errors.New("back reference file name collision")
)

// Store is safe for concurrent use; the catalog is guarded by mu and module
// directories are replaced with a rename.
type Store struct {
	mu      sync.Mutex
	root    string
	ser     *metaser.Serializer
	version int
	jobs    int
}

type Option func(*Store)

// WithFormatVersion selects the serializer version for writes; 0 keeps the default.
func WithFormatVersion(v int) Option { return func(s *Store) { s.version = v } }

// WithJobs bounds parallel module reads; 0 means GOMAXPROCS.
func WithJobs(n int) Option { return func(s *Store) { s.jobs = n } }

// Open creates root if needed. A nil ser uses metaser.Default().
func Open(root string, ser *metaser.Serializer, opts ...Option) (*Store, error) {
	if ser == nil {
		ser = metaser.Default()
	}
	s := &Store{root: root, ser: ser}
	for _, opt := range opts {
		opt(s)
	}
	if s.version == 0 {
		s.version = ser.DefaultVersion()
	}
	if !ser.HasVersion(s.version) {
		return nil, fmt.Errorf("store %s: format version %d is not registered", root, s.version)
	}
	if s.jobs <= 0 {
		s.jobs = runtime.GOMAXPROCS(0)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Root() string                    { return s.root }
func (s *Store) FormatVersion() int              { return s.version }
func (s *Store) Serializer() *metaser.Serializer { return s.ser }

type blob struct {
	name string // relative to the module directory, slash separated
	data []byte
}

func (s *Store) encodeModule(m *meta.Module) ([]blob, error) {
	v := s.version
	manifest, err := s.ser.MarshalManifest(m.Manifest(), v)
	if err != nil {
		return nil, err
	}
	sources, err := s.ser.MarshalModuleSources(m.Sources(), v)
	if err != nil {
		return nil, err
	}
	extRefs, err := s.ser.MarshalExternalReferences(m.ExternalReferences(), v)
	if err != nil {
		return nil, err
	}
	funcs, err := s.ser.MarshalFunctionNames(m.FunctionNames(), v)
	if err != nil {
		return nil, err
	}
	out := []blob{
		{manifestFile, manifest},
		{sourcesFile, sources},
		{extRefsFile, extRefs},
		{funcsFile, funcs},
	}
	owners := make(map[string]string)
	for _, ebr := range m.BackReferences().Elements() {
		file := BackReferenceFile(ebr.ElementPath())
		if prev, ok := owners[file]; ok {
			return nil, fmt.Errorf("%w: %s and %s -> %s", ErrBackRefCollision, prev, ebr.ElementPath(), file)
		}
		owners[file] = ebr.ElementPath()
		data, err := s.ser.MarshalBackReferences(ebr, v)
		if err != nil {
			return nil, err
		}
		out = append(out, blob{backRefsDir + "/" + file, data})
	}
	// в порядке имён файлов, как их вернёт os.ReadDir
	slices.SortFunc(out[4:], func(a, b blob) int { return strings.Compare(a.name, b.name) })
	return out, nil
}

func digestOf(blobs []blob) project.Digest {
	parts := make([]project.Digest, len(blobs))
	for i, b := range blobs {
		parts[i] = project.DigestOf(b.data)
	}
	return project.Combine(parts...)
}

// WriteModule replaces everything stored for the module.
func (s *Store) WriteModule(ctx context.Context, m *meta.Module) (err error) {
	if m == nil {
		return errors.New("nil module")
	}
	name := m.ModuleName()
	if err := checkModuleName(name); err != nil {
		return err
	}
	ctx, span := trace.Start(ctx, trace.ScopeModule, "store.write:"+name)
	defer func() {
		trace.Failure(ctx, "store.write", err)
		span.End("")
	}()

	blobs, err := s.encodeModule(m)
	if err != nil {
		return fmt.Errorf("module %s: %w", name, err)
	}
	tmp, err := os.MkdirTemp(s.root, ".tmp-"+name+"-")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.RemoveAll(tmp)
		}
	}()
	size := 0
	for _, b := range blobs {
		p := filepath.Join(tmp, filepath.FromSlash(b.name))
		if err = os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return err
		}
		if err = os.WriteFile(p, b.data, 0o644); err != nil {
			return err
		}
		size += len(b.data)
	}
	if err = s.swapDir(tmp, s.moduleDir(name)); err != nil {
		return err
	}
	span.WithExtra("blobs", strconv.Itoa(len(blobs))).WithExtra("bytes", strconv.Itoa(size))
	return s.putEntry(Entry{
		Module:       name,
		Version:      s.version,
		Dependencies: m.Dependencies(),
		Elements:     m.Manifest().ElementCount(),
		Digest:       digestOf(blobs),
	})
}

// swapDir moves tmp to final, removing the previous final directory.
func (s *Store) swapDir(tmp, final string) error {
	old := ""
	if _, err := os.Stat(final); err == nil {
		old = tmp + ".old"
		if err := os.Rename(final, old); err != nil {
			return err
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err := os.Rename(tmp, final); err != nil {
		if old != "" {
			_ = os.Rename(old, final)
		}
		return err
	}
	if old != "" {
		return os.RemoveAll(old)
	}
	return nil
}

// Modules lists the catalog sorted by module name.
func (s *Store) Modules() ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readCatalog()
}

func (s *Store) Entry(name string) (Entry, bool, error) {
	entries, err := s.Modules()
	if err != nil {
		return Entry{}, false, err
	}
	i := slices.IndexFunc(entries, func(e Entry) bool { return e.Module == name })
	if i < 0 {
		return Entry{}, false, nil
	}
	return entries[i], true, nil
}

// RemoveModule deletes the module directory and its catalog entry.
func (s *Store) RemoveModule(ctx context.Context, name string) error {
	if err := checkModuleName(name); err != nil {
		return err
	}
	found, err := s.dropEntry(name)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrModuleNotFound, name)
	}
	trace.Point(ctx, trace.ScopeModule, "store.remove", name)
	return os.RemoveAll(s.moduleDir(name))
}

func (s *Store) readBlobs(name string) ([]blob, error) {
	dir := s.moduleDir(name)
	var out []blob
	for _, f := range []string{manifestFile, sourcesFile, extRefsFile, funcsFile} {
		data, err := os.ReadFile(filepath.Join(dir, f))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) && f == manifestFile {
				return nil, fmt.Errorf("%w: %s", ErrModuleNotFound, name)
			}
			return nil, err
		}
		out = append(out, blob{f, data})
	}
	entries, err := os.ReadDir(filepath.Join(dir, backRefsDir))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	// ReadDir сортирует по имени файла
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), blobExt) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, backRefsDir, e.Name()))
		if err != nil {
			return nil, err
		}
		out = append(out, blob{backRefsDir + "/" + e.Name(), data})
	}
	return out, nil
}

// ReadModule decodes a stored module. Blobs of any registered version are accepted.
func (s *Store) ReadModule(ctx context.Context, name string) (m *meta.Module, err error) {
	if err := checkModuleName(name); err != nil {
		return nil, err
	}
	ctx, span := trace.Start(ctx, trace.ScopeModule, "store.read:"+name)
	defer func() {
		trace.Failure(ctx, "store.read", err)
		span.End("")
	}()

	blobs, err := s.readBlobs(name)
	if err != nil {
		return nil, err
	}
	m, err = s.decodeModule(name, blobs)
	if err != nil {
		return nil, fmt.Errorf("module %s: %w", name, err)
	}
	return m, nil
}

func (s *Store) decodeModule(name string, blobs []blob) (*meta.Module, error) {
	manifest, err := s.ser.UnmarshalManifest(blobs[0].data)
	if err != nil {
		return nil, err
	}
	sources, err := s.ser.UnmarshalModuleSources(blobs[1].data)
	if err != nil {
		return nil, err
	}
	extRefs, err := s.ser.UnmarshalExternalReferences(blobs[2].data)
	if err != nil {
		return nil, err
	}
	funcs, err := s.ser.UnmarshalFunctionNames(blobs[3].data)
	if err != nil {
		return nil, err
	}
	rb := meta.NewModuleBackReferencesBuilder(name).WithReferenceIDVersion(extRefs.ReferenceIDVersion())
	for _, b := range blobs[4:] {
		ebr, err := s.ser.UnmarshalBackReferences(b.data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", b.name, err)
		}
		rb.WithElement(ebr)
	}
	backRefs, err := rb.Build()
	if err != nil {
		return nil, err
	}
	return meta.AssembleModule(manifest, sources, extRefs, backRefs, funcs)
}

// Verify recomputes the digest of the stored blobs and compares it with the catalog.
func (s *Store) Verify(name string) error {
	e, ok, err := s.Entry(name)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrModuleNotFound, name)
	}
	blobs, err := s.readBlobs(name)
	if err != nil {
		return err
	}
	if got := digestOf(blobs); got != e.Digest {
		return fmt.Errorf("%w: %s: %s != %s", ErrDigestMismatch, name, got.Short(), e.Digest.Short())
	}
	return nil
}

// ReadAll reads every catalogued module, dependencies first. Modules in one
// dependency wave are read in parallel. Missing dependencies are reported as
// trace points and do not fail the read.
func (s *Store) ReadAll(ctx context.Context) (mods []*meta.Module, err error) {
	ctx, span := trace.Start(ctx, trace.ScopeStage, "store.read_all")
	defer func() {
		trace.Failure(ctx, "store.read_all", err)
		span.End("")
	}()

	entries, err := s.Modules()
	if err != nil {
		return nil, err
	}
	nodes := make([]dag.Node, len(entries))
	for i, e := range entries {
		nodes[i] = dag.Node{Name: e.Module, Dependencies: e.Dependencies}
	}
	_, batches, rep, err := dag.Order(nodes)
	if err != nil {
		return nil, err
	}
	for _, mod := range slices.Sorted(maps.Keys(rep.Missing)) {
		trace.Point(ctx, trace.ScopeModule, "store.missing_dependency",
			mod+" -> "+strings.Join(rep.Missing[mod], ", "))
	}

	mods = make([]*meta.Module, 0, len(entries))
	for _, batch := range batches {
		slots := make([]*meta.Module, len(batch))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.jobs)
		for i, name := range batch {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				m, err := s.ReadModule(gctx, name)
				if err != nil {
					return err
				}
				slots[i] = m
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		mods = append(mods, slots...)
	}
	span.WithExtra("modules", strconv.Itoa(len(mods)))
	return mods, nil
}

// Index builds a metadata index over every stored module.
func (s *Store) Index(ctx context.Context) (*metaindex.Index, error) {
	mods, err := s.ReadAll(ctx)
	if err != nil {
		return nil, err
	}
	return metaindex.NewBuilder().WithModuleMetadata(mods...).BuildContext(ctx)
}
