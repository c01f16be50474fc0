package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Data.StartupPOD != "STARTUP.POD" {
		t.Errorf("expected startup pod STARTUP.POD, got %s", cfg.Data.StartupPOD)
	}
	if cfg.Data.GamePOD != "FURY3.POD" {
		t.Errorf("expected game pod FURY3.POD, got %s", cfg.Data.GamePOD)
	}
	if cfg.Data.DefaultPalette != "" {
		t.Errorf("expected empty default palette, got %s", cfg.Data.DefaultPalette)
	}

	if cfg.Extract.AtlasFormat != "png" {
		t.Errorf("expected atlas format png, got %s", cfg.Extract.AtlasFormat)
	}
	if cfg.Extract.TextureDir != "ART" {
		t.Errorf("expected texture dir ART, got %s", cfg.Extract.TextureDir)
	}
	if cfg.Extract.PaletteExt != ".PAL" {
		t.Errorf("expected palette ext .PAL, got %s", cfg.Extract.PaletteExt)
	}

	if cfg.Terrain.VerticalScale != 8 {
		t.Errorf("expected vertical scale 8, got %f", cfg.Terrain.VerticalScale)
	}
	if cfg.Terrain.PlanarScale != 0.125 {
		t.Errorf("expected planar scale 0.125, got %f", cfg.Terrain.PlanarScale)
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
data:
  startup_pod: /games/fury3/SYSTEM/STARTUP.POD
  game_pod: /games/fury3/SYSTEM/FURY3.POD
  default_palette: 'ART\DEFAULT.PAL'

extract:
  output_dir: ./export
  atlas_format: webp
  preview_size: 128

terrain:
  vertical_scale: 4
  planar_scale: 0.25

levels:
  EGYPT:
    manifest: EGYPTTEX.TXT

logging:
  level: "debug"
  log_file: "podtool.log"
  json: true
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Data.GamePOD != "/games/fury3/SYSTEM/FURY3.POD" {
		t.Errorf("unexpected game pod %s", cfg.Data.GamePOD)
	}
	if cfg.Data.DefaultPalette != `ART\DEFAULT.PAL` {
		t.Errorf("unexpected default palette %s", cfg.Data.DefaultPalette)
	}
	if cfg.Extract.OutputDir != "./export" {
		t.Errorf("expected output dir ./export, got %s", cfg.Extract.OutputDir)
	}
	if cfg.Extract.AtlasFormat != "webp" {
		t.Errorf("expected atlas format webp, got %s", cfg.Extract.AtlasFormat)
	}
	if cfg.Extract.TextureDir != "ART" {
		t.Errorf("texture dir should keep its default, got %s", cfg.Extract.TextureDir)
	}
	if cfg.Extract.PreviewSize != 128 {
		t.Errorf("expected preview size 128, got %d", cfg.Extract.PreviewSize)
	}
	if cfg.Terrain.VerticalScale != 4 || cfg.Terrain.PlanarScale != 0.25 {
		t.Errorf("unexpected terrain scales %+v", cfg.Terrain)
	}
	if cfg.Levels["EGYPT"].Manifest != "EGYPTTEX.TXT" {
		t.Errorf("expected EGYPT manifest override, got %+v", cfg.Levels["EGYPT"])
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
	if !cfg.Logging.JSON {
		t.Error("expected json logging")
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
terrain:
  vertical_scale: not a number
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	if err := loadFromFile(cfg, "/nonexistent/path/config.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		valid  bool
	}{
		{"defaults", func(*Config) {}, true},
		{"webp", func(c *Config) { c.Extract.AtlasFormat = "webp" }, true},
		{"upper case bmp", func(c *Config) { c.Extract.AtlasFormat = "BMP" }, true},
		{"unknown format", func(c *Config) { c.Extract.AtlasFormat = "tga" }, false},
		{"zero vertical scale", func(c *Config) { c.Terrain.VerticalScale = 0 }, false},
		{"negative planar scale", func(c *Config) { c.Terrain.PlanarScale = -1 }, false},
		{"negative preview", func(c *Config) { c.Extract.PreviewSize = -1 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.valid && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.valid && !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestLevelFiles(t *testing.T) {
	cfg := Default()
	cfg.Levels["EGYPT"] = LevelConfig{Manifest: "EGYPTTEX.TXT", Folder: "LEVELS"}

	tests := []struct {
		name string
		want LevelConfig
	}{
		{
			name: "EGYPT",
			want: LevelConfig{Folder: "LEVELS", Heightmap: "EGYPT.RAW", IndexMap: "EGYPT.CLR", Manifest: "EGYPTTEX.TXT", Entities: "EGYPT.DEF"},
		},
		{
			name: "egypt",
			want: LevelConfig{Folder: "LEVELS", Heightmap: "EGYPT.RAW", IndexMap: "EGYPT.CLR", Manifest: "EGYPTTEX.TXT", Entities: "EGYPT.DEF"},
		},
		{
			name: "moon",
			want: LevelConfig{Folder: "DATA", Heightmap: "MOON.RAW", IndexMap: "MOON.CLR", Manifest: "MOON.TEX", Entities: "MOON.DEF"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cfg.LevelFiles(tt.name); got != tt.want {
				t.Errorf("LevelFiles(%q) = %+v, want %+v", tt.name, got, tt.want)
			}
		})
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	os.Chdir(tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))
	t.Setenv("HOME", tmpDir)

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	configPath := filepath.Join(tmpDir, "fury3.yaml")
	if err := os.WriteFile(configPath, []byte("extract:\n  atlas_format: bmp\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	if path := findConfigFile(); path == "" {
		t.Error("expected to find fury3.yaml in current directory")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*testing.T, *Config)
		teardown func()
	}{
		{
			name:  "debug flag",
			setup: func() { *flagDebug = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() { *flagDebug = false },
		},
		{
			name: "archive flags",
			setup: func() {
				*flagStartup = "/data/STARTUP.POD"
				*flagGame = "/data/FURY3.POD"
			},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Data.StartupPOD != "/data/STARTUP.POD" {
					t.Errorf("unexpected startup pod %s", cfg.Data.StartupPOD)
				}
				if cfg.Data.GamePOD != "/data/FURY3.POD" {
					t.Errorf("unexpected game pod %s", cfg.Data.GamePOD)
				}
			},
			teardown: func() {
				*flagStartup = ""
				*flagGame = ""
			},
		},
		{
			name: "output flags",
			setup: func() {
				*flagOut = "/tmp/export"
				*flagFormat = "bmp"
			},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Extract.OutputDir != "/tmp/export" {
					t.Errorf("unexpected output dir %s", cfg.Extract.OutputDir)
				}
				if cfg.Extract.AtlasFormat != "bmp" {
					t.Errorf("unexpected atlas format %s", cfg.Extract.AtlasFormat)
				}
			},
			teardown: func() {
				*flagOut = ""
				*flagFormat = ""
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			applyFlags(cfg)

			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
data:
  game_pod: /file/FURY3.POD
extract:
  output_dir: /file/out
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	*flagOut = "/flag/out"
	defer func() {
		*flagConfig = ""
		*flagOut = ""
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Extract.OutputDir != "/flag/out" {
		t.Errorf("expected output dir from flag, got %s", cfg.Extract.OutputDir)
	}
	if cfg.Data.GamePOD != "/file/FURY3.POD" {
		t.Errorf("expected game pod from file, got %s", cfg.Data.GamePOD)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	*flagFormat = "gif"
	defer func() { *flagFormat = "" }()

	if _, err := Load(); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Extract.AtlasFormat = "webp"
	cfg.Levels["EGYPT"] = LevelConfig{Heightmap: "EGYPT.RAW"}
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if loaded.Extract.AtlasFormat != "webp" {
		t.Errorf("expected webp after reload, got %s", loaded.Extract.AtlasFormat)
	}
	if loaded.Levels["EGYPT"].Heightmap != "EGYPT.RAW" {
		t.Errorf("level not saved: %+v", loaded.Levels)
	}
}
