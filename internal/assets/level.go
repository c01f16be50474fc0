package assets

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/fury3-assets/internal/atlas"
	"github.com/Faultbox/fury3-assets/internal/config"
	"github.com/Faultbox/fury3-assets/internal/logger"
	"github.com/Faultbox/fury3-assets/internal/terrain"
	"github.com/Faultbox/fury3-assets/pkg/formats"
)

// ErrLevelMismatch is returned when a level's index map does not match its
// heightfield.
var ErrLevelMismatch = errors.New("level index map does not match heightfield")

// Level is everything decoded for one level.
type Level struct {
	Name     string
	Files    config.LevelConfig
	Atlas    *atlas.Atlas
	Terrain  *terrain.Mesh
	Entities *formats.EntityCatalog
}

// LoadLevel packs the level's texture atlas, meshes its heightfield with UVs
// into that atlas, and parses its entity file. All files come from the game
// archive.
func (m *Manager) LoadLevel(name string) (*Level, error) {
	files := m.cfg.LevelFiles(name)
	folder := Folder(files.Folder)

	archive, err := m.Archive(Game)
	if err != nil {
		return nil, err
	}

	pal, err := m.DefaultPalette()
	if err != nil {
		return nil, err
	}

	a, err := m.packAtlas(DataPath{Archive: Game, Folder: folder, File: files.Manifest}, pal)
	if err != nil {
		return nil, fmt.Errorf("level %s: %w", name, err)
	}

	height, err := archive.OpenByPath(string(folder), files.Heightmap)
	if err != nil {
		return nil, fmt.Errorf("level %s: %w", name, err)
	}
	defer height.Close()

	index, err := archive.OpenByPath(string(folder), files.IndexMap)
	if err != nil {
		return nil, fmt.Errorf("level %s: %w", name, err)
	}
	defer index.Close()

	if index.Size() != height.Size() {
		return nil, fmt.Errorf("%w: %s is %d bytes, %s is %d bytes",
			ErrLevelMismatch, files.IndexMap, index.Size(), files.Heightmap, height.Size())
	}

	mesh, err := terrain.BuildMesh(height, height.Size(), terrain.Options{
		IndexMap:      index,
		Atlas:         a,
		VerticalScale: m.cfg.Terrain.VerticalScale,
		PlanarScale:   m.cfg.Terrain.PlanarScale,
	})
	if err != nil {
		return nil, fmt.Errorf("level %s: terrain: %w", name, err)
	}

	catalog, err := m.Entities(DataPath{Archive: Game, Folder: folder, File: files.Entities})
	if err != nil {
		return nil, fmt.Errorf("level %s: %w", name, err)
	}

	logger.Named("level").Info("level loaded",
		zap.String("level", name),
		zap.Int("side", mesh.Side),
		zap.Int("triangles", mesh.TriangleCount()),
		zap.Int("textures", len(a.Rects)),
		zap.Int("entity_types", len(catalog.Types)),
		zap.Int("placements", len(catalog.Placements)))

	return &Level{
		Name:     name,
		Files:    files,
		Atlas:    a,
		Terrain:  mesh,
		Entities: catalog,
	}, nil
}

// Atlas packs the textures listed by the manifest at p.
func (m *Manager) Atlas(p DataPath) (*atlas.Atlas, error) {
	pal, err := m.DefaultPalette()
	if err != nil {
		return nil, err
	}
	return m.packAtlas(p, pal)
}

func (m *Manager) packAtlas(p DataPath, pal formats.Palette) (*atlas.Atlas, error) {
	archive, err := m.Archive(p.Archive)
	if err != nil {
		return nil, err
	}

	h, err := m.Open(p)
	if err != nil {
		return nil, fmt.Errorf("texture manifest: %w", err)
	}
	defer h.Close()

	return atlas.Pack(archive, h, pal, atlas.Options{
		Dir:        m.cfg.Extract.TextureDir,
		PaletteExt: m.cfg.Extract.PaletteExt,
	})
}

// Entities parses the entity file at p. The file bytes go through the cache.
func (m *Manager) Entities(p DataPath) (*formats.EntityCatalog, error) {
	data, err := m.Load(p)
	if err != nil {
		return nil, err
	}
	return formats.ParseEntitiesData(data)
}

// Heightfield meshes the heightfield at p without textures.
func (m *Manager) Heightfield(p DataPath) (*terrain.Mesh, error) {
	h, err := m.Open(p)
	if err != nil {
		return nil, err
	}
	defer h.Close()

	return terrain.BuildMesh(h, h.Size(), terrain.Options{
		VerticalScale: m.cfg.Terrain.VerticalScale,
		PlanarScale:   m.cfg.Terrain.PlanarScale,
	})
}
