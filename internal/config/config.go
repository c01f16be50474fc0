// Package config handles asset tool configuration loading and management.
package config

import "strings"

// Config holds all asset tool settings.
type Config struct {
	Data    DataConfig             `yaml:"data"`
	Extract ExtractConfig          `yaml:"extract"`
	Terrain TerrainConfig          `yaml:"terrain"`
	Levels  map[string]LevelConfig `yaml:"levels"`
	Logging LoggingConfig          `yaml:"logging"`
}

// DataConfig holds game archive locations.
type DataConfig struct {
	StartupPOD string `yaml:"startup_pod"`
	GamePOD    string `yaml:"game_pod"`
	// DefaultPalette is a member of the game archive, e.g. "ART\\DEFAULT.PAL".
	// Empty selects a grayscale palette.
	DefaultPalette string `yaml:"default_palette"`
}

// ExtractConfig holds output settings.
type ExtractConfig struct {
	OutputDir   string `yaml:"output_dir"`
	AtlasFormat string `yaml:"atlas_format"` // png, webp or bmp
	TextureDir  string `yaml:"texture_dir"`
	PaletteExt  string `yaml:"palette_ext"`
	PreviewSize int    `yaml:"preview_size"` // 0 disables previews
}

// TerrainConfig holds heightfield scale factors.
type TerrainConfig struct {
	VerticalScale float32 `yaml:"vertical_scale"`
	PlanarScale   float32 `yaml:"planar_scale"`
}

// LevelConfig names the archive members that make up one level. Empty fields
// are derived from the level name by LevelFiles.
type LevelConfig struct {
	Folder    string `yaml:"folder"`
	Heightmap string `yaml:"heightmap"`
	IndexMap  string `yaml:"index_map"`
	Manifest  string `yaml:"manifest"`
	Entities  string `yaml:"entities"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
	JSON    bool   `yaml:"json"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Data: DataConfig{
			StartupPOD: "STARTUP.POD",
			GamePOD:    "FURY3.POD",
		},
		Extract: ExtractConfig{
			OutputDir:   "out",
			AtlasFormat: "png",
			TextureDir:  "ART",
			PaletteExt:  ".PAL",
			PreviewSize: 256,
		},
		Terrain: TerrainConfig{
			VerticalScale: 8,
			PlanarScale:   0.125,
		},
		Levels: map[string]LevelConfig{},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LevelFiles returns the member names of a level. Entries configured under
// Levels win; anything left empty defaults to DATA\<NAME>.RAW, .CLR, .TEX
// and .DEF.
func (c *Config) LevelFiles(name string) LevelConfig {
	base := strings.ToUpper(name)
	lc := c.Levels[name]
	if lc == (LevelConfig{}) {
		lc = c.Levels[base]
	}

	if lc.Folder == "" {
		lc.Folder = "DATA"
	}
	if lc.Heightmap == "" {
		lc.Heightmap = base + ".RAW"
	}
	if lc.IndexMap == "" {
		lc.IndexMap = base + ".CLR"
	}
	if lc.Manifest == "" {
		lc.Manifest = base + ".TEX"
	}
	if lc.Entities == "" {
		lc.Entities = base + ".DEF"
	}
	return lc
}
