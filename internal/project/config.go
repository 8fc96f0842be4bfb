// Package project locates and loads pmeta.toml and provides content digests.
package project

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

const DefaultStoreDir = ".pmeta"

var (
	ErrStoreSectionMissing = errors.New("missing [store]")
	ErrUnknownKeys         = errors.New("unknown keys")
)

type Config struct {
	Store      StoreConfig      `toml:"store"`
	Serializer SerializerConfig `toml:"serializer"`
	Generate   GenerateConfig   `toml:"generate"`
	Trace      TraceConfig      `toml:"trace"`
}

type StoreConfig struct {
	Dir string `toml:"dir"`
}

type SerializerConfig struct {
	Version int `toml:"version"` // 0 = highest registered
}

type GenerateConfig struct {
	Jobs int `toml:"jobs"` // 0 = GOMAXPROCS
}

type TraceConfig struct {
	Level  string `toml:"level"`
	Output string `toml:"output"`
	Format string `toml:"format"`
	Mode   string `toml:"mode"`
}

// Project is a loaded pmeta.toml.
type Project struct {
	Path   string
	Root   string
	Config Config
}

// StoreDir resolves [store].dir against the project root.
func (p *Project) StoreDir() string {
	dir := p.Config.Store.Dir
	if dir == "" {
		dir = DefaultStoreDir
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(p.Root, filepath.FromSlash(dir))
}

// Load finds pmeta.toml from startDir upwards. ok is false when none exists.
func Load(startDir string) (*Project, bool, error) {
	path, ok, err := FindConfig(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, true, err
	}
	return &Project{Path: path, Root: filepath.Dir(path), Config: cfg}, true, nil
}

func LoadConfig(path string) (Config, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%s: %w: %s", path, ErrUnknownKeys, strings.Join(keys, ", "))
	}
	if !meta.IsDefined("store") {
		return Config{}, fmt.Errorf("%s: %w", path, ErrStoreSectionMissing)
	}
	if meta.IsDefined("store", "dir") && strings.TrimSpace(cfg.Store.Dir) == "" {
		return Config{}, fmt.Errorf("%s: [store].dir is empty", path)
	}
	if cfg.Serializer.Version < 0 {
		return Config{}, fmt.Errorf("%s: [serializer].version must not be negative", path)
	}
	if cfg.Generate.Jobs < 0 {
		return Config{}, fmt.Errorf("%s: [generate].jobs must not be negative", path)
	}
	return cfg, nil
}
