// podtool is a CLI utility for inspecting and converting Fury3 POD archives.
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/fury3-assets/internal/config"
	"github.com/Faultbox/fury3-assets/internal/logger"
)

func main() {
	config.ParseFlags()
	args := config.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fileCfg := logger.FileConfig{}
	if cfg.Logging.LogFile != "" {
		fileCfg = logger.DefaultFileConfig(cfg.Logging.LogFile)
		fileCfg.JSON = cfg.Logging.JSON
	}
	if err := logger.InitWithFileConfig(cfg.Logging.Level, fileCfg, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	command := args[0]
	args = args[1:]

	switch command {
	case "info":
		err = cmdInfo(args)
	case "list", "ls":
		err = cmdList(args)
	case "extract", "x":
		err = cmdExtract(args)
	case "model":
		err = cmdModel(cfg, args)
	case "terrain":
		err = cmdTerrain(cfg, args)
	case "atlas":
		err = cmdAtlas(cfg, args)
	case "entities":
		err = cmdEntities(cfg, args)
	case "level":
		err = cmdLevel(cfg, args)
	case "config":
		err = cmdConfig(cfg, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		logger.Error("command failed", zap.String("command", command), zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		logger.Sync()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`podtool - Fury3 POD archive utility

Usage:
  podtool [flags] <command> [options]

Flags:
  -config <file>   Config file (default ./fury3.yaml or user config dir)
  -startup <pod>   Path to STARTUP.POD
  -game <pod>      Path to FURY3.POD
  -out <dir>       Output directory
  -format <fmt>    Atlas image format: png, webp, bmp
  -debug           Enable debug logging

Commands:
  info <file.pod>                     Show archive information
  list <file.pod> [pattern]           List files (optional glob pattern)
  extract <file.pod> <name> [output]  Extract file(s) to directory
  model <path>                        Convert a BIN model to OBJ
  terrain <path>                      Convert a heightfield to OBJ
  atlas <path> [texture]              Pack the textures of a manifest
  entities <path>                     Convert a DEF entity file to YAML
  level <name>                        Export terrain, atlas and entities of a level
  config [file]                       Write the effective config (default user config dir)

Paths name a file inside the configured archives as [startup:|game:]FOLDER/FILE.

Examples:
  podtool info FURY3.POD
  podtool list FURY3.POD "*.bin"
  podtool extract FURY3.POD "MODELS\SHIP.BIN" ./output
  podtool -game FURY3.POD model MODELS/SHIP.BIN
  podtool -game FURY3.POD -format webp level EGYPT`)
}
