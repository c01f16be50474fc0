// Package assets ties the game archives to the decoders: it resolves data
// paths, caches decoded models, and assembles whole levels.
package assets

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/fury3-assets/internal/config"
	"github.com/Faultbox/fury3-assets/internal/logger"
	"github.com/Faultbox/fury3-assets/pkg/encoding"
	"github.com/Faultbox/fury3-assets/pkg/formats"
	"github.com/Faultbox/fury3-assets/pkg/pod"
)

// ErrNoArchive is returned when a path names an archive that is not open.
var ErrNoArchive = errors.New("archive not open")

// Manager handles asset loading from the startup and game archives.
type Manager struct {
	cfg      *config.Config
	archives map[ArchiveName]*pod.Archive
	cache    *Cache
	models   map[DataPath]*formats.Model
	mu       sync.RWMutex
}

// NewManager creates a new asset manager. A nil cfg uses config.Default().
func NewManager(cfg *config.Config) *Manager {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Manager{
		cfg:      cfg,
		archives: make(map[ArchiveName]*pod.Archive),
		cache:    NewCache(),
		models:   make(map[DataPath]*formats.Model),
	}
}

// Config returns the configuration the manager was created with.
func (m *Manager) Config() *config.Config {
	return m.cfg
}

// AddArchive opens the archive at path under the given name, replacing any
// archive previously registered under it.
func (m *Manager) AddArchive(name ArchiveName, path string) error {
	archive, err := pod.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s archive %s: %w", name, path, err)
	}

	m.mu.Lock()
	if old, ok := m.archives[name]; ok {
		old.Close()
	}
	m.archives[name] = archive
	m.mu.Unlock()

	logger.Info("archive opened",
		zap.String("archive", string(name)),
		zap.String("path", path),
		zap.Int("entries", archive.Len()),
		zap.String("comment", archive.Comment()))

	return nil
}

// OpenConfigured opens the archives named in the configuration. The game
// archive is required; a missing startup archive is only logged.
func (m *Manager) OpenConfigured() error {
	if err := m.AddArchive(Game, m.cfg.Data.GamePOD); err != nil {
		return err
	}
	if m.cfg.Data.StartupPOD == "" {
		return nil
	}
	if err := m.AddArchive(Startup, m.cfg.Data.StartupPOD); err != nil {
		if errors.Is(err, pod.ErrNotFound) {
			logger.Warn("startup archive missing", zap.String("path", m.cfg.Data.StartupPOD))
			return nil
		}
		return err
	}
	return nil
}

// Archive returns the open archive registered under name.
func (m *Manager) Archive(name ArchiveName) (*pod.Archive, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	archive, ok := m.archives[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoArchive, name)
	}
	return archive, nil
}

// Open returns a handle to the file at p.
func (m *Manager) Open(p DataPath) (*pod.Handle, error) {
	archive, err := m.Archive(p.Archive)
	if err != nil {
		return nil, err
	}
	return archive.OpenByPath(string(p.Folder), p.File)
}

// Load reads the whole file at p, consulting the cache first.
func (m *Manager) Load(p DataPath) ([]byte, error) {
	key := p.String()
	if data, ok := m.cache.Get(key); ok {
		return data, nil
	}

	h, err := m.Open(p)
	if err != nil {
		return nil, err
	}
	defer h.Close()

	data, err := h.ReadAll()
	if err != nil {
		return nil, err
	}
	m.cache.Set(key, data)
	return data, nil
}

// Model decodes the BIN model at p. Decoded models are cached.
func (m *Manager) Model(p DataPath) (*formats.Model, error) {
	m.mu.RLock()
	model, ok := m.models[p]
	m.mu.RUnlock()
	if ok {
		return model, nil
	}

	h, err := m.Open(p)
	if err != nil {
		return nil, err
	}
	defer h.Close()

	model, err = formats.DecodeModel(h)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", p, err)
	}

	m.mu.Lock()
	m.models[p] = model
	m.mu.Unlock()

	logger.Debug("model decoded",
		zap.Stringer("path", p),
		zap.Int("vertices", len(model.Vertices)),
		zap.Int("faces", len(model.Faces)))

	return model, nil
}

// DefaultPalette returns the palette named by data.default_palette in the
// game archive, or a grayscale palette when none is configured.
func (m *Manager) DefaultPalette() (formats.Palette, error) {
	name := m.cfg.Data.DefaultPalette
	if name == "" {
		return formats.GrayscalePalette(), nil
	}

	dir, file := encoding.SplitPath(name)
	data, err := m.Load(DataPath{Archive: Game, Folder: Folder(dir), File: file})
	if err != nil {
		return formats.Palette{}, fmt.Errorf("default palette: %w", err)
	}
	return formats.ParsePalette(data)
}

// Close closes all archives and drops cached data.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	hits, misses := m.cache.Stats()
	logger.Debug("asset manager closed",
		zap.Int("cache_hits", hits),
		zap.Int("cache_misses", misses),
		zap.Int("models", len(m.models)))

	for _, archive := range m.archives {
		archive.Close()
	}
	m.archives = make(map[ArchiveName]*pod.Archive)
	m.models = make(map[DataPath]*formats.Model)
	m.cache.Clear()
}

// Cache is a simple in-memory cache for raw file contents.
type Cache struct {
	data map[string][]byte
	mu   sync.Mutex

	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string][]byte),
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return data, ok
}

// Set stores an item in cache.
func (c *Cache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string][]byte)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
