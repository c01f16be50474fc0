// Package formats provides decoders for the POD asset formats.
package formats

import (
	"path"
	"strings"
)

// Kind identifies which decoder handles an archive member.
type Kind int

// Known member kinds.
const (
	KindUnknown Kind = iota
	KindModel
	KindPalette
	KindEntities
	KindHeightfield
	KindIndexMap
	KindManifest
	KindImage
)

var kindNames = [...]string{
	KindUnknown:     "unknown",
	KindModel:       "model",
	KindPalette:     "palette",
	KindEntities:    "entities",
	KindHeightfield: "heightfield",
	KindIndexMap:    "index map",
	KindManifest:    "manifest",
	KindImage:       "image",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

var kindByExt = map[string]Kind{
	".BIN": KindModel,
	".PAL": KindPalette,
	".DEF": KindEntities,
	".RAW": KindHeightfield,
	".CLR": KindIndexMap,
	".TEX": KindManifest,
	".IMG": KindImage,
}

// KindOf guesses the kind of a member from its file extension.
func KindOf(name string) Kind {
	if i := strings.LastIndexByte(name, '\\'); i >= 0 {
		name = name[i+1:]
	}
	return kindByExt[strings.ToUpper(path.Ext(name))]
}
