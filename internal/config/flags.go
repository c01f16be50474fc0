package config

import "flag"

var (
	flagConfig  = flag.String("config", "", "Path to config file")
	flagDebug   = flag.Bool("debug", false, "Enable debug logging")
	flagStartup = flag.String("startup", "", "Path to STARTUP.POD")
	flagGame    = flag.String("game", "", "Path to FURY3.POD")
	flagOut     = flag.String("out", "", "Output directory")
	flagFormat  = flag.String("format", "", "Atlas image format (png, webp, bmp)")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// Args returns the positional arguments left after flag parsing.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagStartup != "" {
		cfg.Data.StartupPOD = *flagStartup
	}
	if *flagGame != "" {
		cfg.Data.GamePOD = *flagGame
	}
	if *flagOut != "" {
		cfg.Extract.OutputDir = *flagOut
	}
	if *flagFormat != "" {
		cfg.Extract.AtlasFormat = *flagFormat
	}
}
