package assets

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/fury3-assets/internal/logger"
	"github.com/Faultbox/fury3-assets/pkg/encoding"
)

// ErrBadPath is returned by ParseDataPath for malformed paths.
var ErrBadPath = errors.New("invalid data path")

// ArchiveName selects one of the two game archives.
type ArchiveName string

// The two archives shipped with the game.
const (
	Startup ArchiveName = "startup"
	Game    ArchiveName = "game"
)

// Folder is a top-level directory inside an archive.
type Folder string

// Folders known to appear in the game archives.
const (
	Art     Folder = "ART"
	Data    Folder = "DATA"
	Demo    Folder = "DEMO"
	Fog     Folder = "FOG"
	Levels  Folder = "LEVELS"
	Models  Folder = "MODELS"
	Music   Folder = "MUSIC"
	Sound   Folder = "SOUND"
	StartUp Folder = "STARTUP"
)

// Folders lists every known folder in archive order.
var Folders = []Folder{Art, Data, Demo, Fog, Levels, Models, Music, Sound, StartUp}

// Known reports whether the top-level segment of f is one of Folders.
func (f Folder) Known() bool {
	top, _, _ := strings.Cut(string(f), `\`)
	for _, k := range Folders {
		if Folder(top) == k {
			return true
		}
	}
	return false
}

// DataPath addresses one file inside one of the archives.
type DataPath struct {
	Archive ArchiveName
	Folder  Folder
	File    string
}

// String formats the path as archive:FOLDER\FILE.
func (p DataPath) String() string {
	return string(p.Archive) + ":" + encoding.JoinPath(string(p.Folder), p.File)
}

// ParseDataPath parses "archive:FOLDER/FILE" or "archive:FOLDER\FILE". The
// archive prefix is optional and defaults to the game archive. Folder and
// file are upper-cased to match stored names.
func ParseDataPath(s string) (DataPath, error) {
	p := DataPath{Archive: Game}

	if archive, rest, ok := strings.Cut(s, ":"); ok {
		switch ArchiveName(strings.ToLower(archive)) {
		case Startup:
			p.Archive = Startup
		case Game:
			p.Archive = Game
		default:
			return DataPath{}, fmt.Errorf("%w: unknown archive %q", ErrBadPath, archive)
		}
		s = rest
	}

	s = strings.ReplaceAll(s, "/", "\\")
	dir, file := encoding.SplitPath(s)
	if dir == "" || file == "" {
		return DataPath{}, fmt.Errorf("%w: %q needs FOLDER\\FILE", ErrBadPath, s)
	}

	p.Folder = Folder(strings.ToUpper(dir))
	p.File = strings.ToUpper(file)
	if !p.Folder.Known() {
		logger.Warn("unknown archive folder", zap.String("path", p.String()))
	}
	return p, nil
}
