package main

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/fury3-assets/internal/assets"
	"github.com/Faultbox/fury3-assets/internal/atlas"
	"github.com/Faultbox/fury3-assets/internal/config"
	"github.com/Faultbox/fury3-assets/internal/export"
	"github.com/Faultbox/fury3-assets/internal/logger"
	"github.com/Faultbox/fury3-assets/pkg/math"
)

func openManager(cfg *config.Config) (*assets.Manager, error) {
	m := assets.NewManager(cfg)
	if err := m.OpenConfigured(); err != nil {
		return nil, err
	}
	return m, nil
}

// parsePathArg parses the single data path argument of a convert command.
func parsePathArg(args []string, usage string) (assets.DataPath, error) {
	if len(args) < 1 {
		return assets.DataPath{}, fmt.Errorf("%w: podtool %s", errUsage, usage)
	}
	return assets.ParseDataPath(args[0])
}

// outputPath names an output file after the source file, with a new extension.
func outputPath(cfg *config.Config, p assets.DataPath, ext string) string {
	base := strings.TrimSuffix(p.File, path.Ext(p.File))
	return filepath.Join(cfg.Extract.OutputDir, base+ext)
}

func createOutput(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	logger.Info("wrote file", zap.String("path", path))
	return nil
}

// formatBounds renders a box as its corners, size and center.
func formatBounds(b math.Bounds) string {
	if b.Empty() {
		return "(empty)"
	}
	return fmt.Sprintf("%v .. %v size %v center %v",
		b.Min.Array(), b.Max.Array(), b.Size().Array(), b.Center().Array())
}

func cmdModel(cfg *config.Config, args []string) error {
	p, err := parsePathArg(args, "model <FOLDER/FILE.BIN>")
	if err != nil {
		return err
	}

	m, err := openManager(cfg)
	if err != nil {
		return err
	}
	defer m.Close()

	model, err := m.Model(p)
	if err != nil {
		return err
	}

	bounds := model.Bounds()
	fmt.Printf("Model:     %s\n", p)
	fmt.Printf("Vertices:  %d\n", len(model.Vertices))
	fmt.Printf("Triangles: %d\n", len(model.Faces))
	fmt.Printf("Textures:  %s\n", strings.Join(model.Textures, ", "))
	fmt.Printf("Bounds:    %s\n", formatBounds(bounds))

	out := outputPath(cfg, p, ".obj")
	return createOutput(out, func(w io.Writer) error {
		return export.WriteModelOBJ(w, model)
	})
}

func cmdTerrain(cfg *config.Config, args []string) error {
	p, err := parsePathArg(args, "terrain <FOLDER/FILE.RAW>")
	if err != nil {
		return err
	}

	m, err := openManager(cfg)
	if err != nil {
		return err
	}
	defer m.Close()

	mesh, err := m.Heightfield(p)
	if err != nil {
		return err
	}

	fmt.Printf("Terrain:   %s (%dx%d)\n", p, mesh.Side, mesh.Side)
	fmt.Printf("Triangles: %d\n", mesh.TriangleCount())
	fmt.Printf("Bounds:    %s\n", formatBounds(mesh.Bounds))

	out := outputPath(cfg, p, ".obj")
	return createOutput(out, func(w io.Writer) error {
		return export.WriteTerrainOBJ(w, mesh)
	})
}

func cmdAtlas(cfg *config.Config, args []string) error {
	p, err := parsePathArg(args, "atlas <FOLDER/MANIFEST> [texture]")
	if err != nil {
		return err
	}

	m, err := openManager(cfg)
	if err != nil {
		return err
	}
	defer m.Close()

	a, err := m.Atlas(p)
	if err != nil {
		return err
	}

	fmt.Printf("Atlas:    %s (%dx%d, %d textures)\n", p, a.Width, a.Height, len(a.Rects))
	for i, r := range a.Rects {
		fmt.Printf("  %3d %-16s %4d,%-4d %dx%d\n", i, a.Names[i], r.X, r.Y, r.Side, r.Side)
	}

	if len(args) > 1 {
		line, err := describeTexture(a, args[1])
		if err != nil {
			return err
		}
		fmt.Println(line)
	}

	return writeAtlas(cfg, a, outputPath(cfg, p, ""))
}

// describeTexture reports where a named texture sits in the atlas.
func describeTexture(a *atlas.Atlas, name string) (string, error) {
	i, ok := a.Lookup(name)
	if !ok {
		return "", fmt.Errorf("%w: texture %s not in atlas", errUsage, name)
	}
	r, uv := a.Rects[i], a.UV(i)
	return fmt.Sprintf("%s: index %d at %d,%d size %d uv (%g,%g)-(%g,%g)",
		a.Names[i], i, r.X, r.Y, r.Side, uv.U0, uv.V0, uv.U1, uv.V1), nil
}

func cmdEntities(cfg *config.Config, args []string) error {
	p, err := parsePathArg(args, "entities <FOLDER/FILE.DEF>")
	if err != nil {
		return err
	}

	m, err := openManager(cfg)
	if err != nil {
		return err
	}
	defer m.Close()

	catalog, err := m.Entities(p)
	if err != nil {
		return err
	}

	fmt.Printf("Entities: %s (%d types, %d placements)\n", p, len(catalog.Types), len(catalog.Placements))

	out := outputPath(cfg, p, ".yaml")
	return createOutput(out, func(w io.Writer) error {
		return export.WriteEntitiesYAML(w, catalog)
	})
}

func cmdLevel(cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("%w: podtool level <NAME>", errUsage)
	}
	name := strings.ToUpper(args[0])

	m, err := openManager(cfg)
	if err != nil {
		return err
	}
	defer m.Close()

	level, err := m.LoadLevel(name)
	if err != nil {
		return err
	}

	dir := filepath.Join(cfg.Extract.OutputDir, name)
	fmt.Printf("Level:      %s\n", name)
	fmt.Printf("Terrain:    %dx%d, %d triangles\n", level.Terrain.Side, level.Terrain.Side, level.Terrain.TriangleCount())
	fmt.Printf("Atlas:      %dx%d, %d textures\n", level.Atlas.Width, level.Atlas.Height, len(level.Atlas.Rects))
	fmt.Printf("Entities:   %d types, %d placements\n", len(level.Entities.Types), len(level.Entities.Placements))

	if err := createOutput(filepath.Join(dir, "terrain.obj"), func(w io.Writer) error {
		return export.WriteTerrainOBJ(w, level.Terrain)
	}); err != nil {
		return err
	}
	if err := createOutput(filepath.Join(dir, "entities.yaml"), func(w io.Writer) error {
		return export.WriteEntitiesYAML(w, level.Entities)
	}); err != nil {
		return err
	}
	return writeAtlas(cfg, level.Atlas, filepath.Join(dir, "atlas"))
}

// writeAtlas writes the atlas and, when enabled, a downscaled preview next to
// it. base has no extension.
func writeAtlas(cfg *config.Config, a *atlas.Atlas, base string) error {
	ext := "." + strings.ToLower(cfg.Extract.AtlasFormat)
	if err := export.WriteAtlasImage(base+ext, a); err != nil {
		return err
	}
	logger.Info("wrote atlas", zap.String("path", base+ext))

	if cfg.Extract.PreviewSize > 0 {
		preview := export.Preview(a, cfg.Extract.PreviewSize)
		if err := export.WriteImage(base+"_preview"+ext, preview); err != nil {
			return err
		}
	}
	return nil
}

// cmdConfig writes the effective configuration, with flags applied, to the
// given file or to the user config directory.
func cmdConfig(cfg *config.Config, args []string) error {
	if len(args) > 0 {
		if err := cfg.SaveTo(args[0]); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", args[0])
		return nil
	}
	if err := cfg.Save(); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", filepath.Join(config.ConfigDir(), "config.yaml"))
	return nil
}
