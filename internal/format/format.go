// Package format maps asset filenames to the format tag that selects their decoder.
package format

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Tag identifies the on-disk format of an asset.
type Tag int

const (
	// None means "no hint": callers pass it to let the filename decide.
	None Tag = iota
	Unknown
	Config
	StringTable
	Animation
	Map
	MissionList
	Container
	Palette
	PlayerPositions
	Sprite
	Tile
	Voxel
)

func (t Tag) String() string {
	switch t {
	case None:
		return "none"
	case Unknown:
		return "unknown"
	case Config:
		return "config"
	case StringTable:
		return "string-table"
	case Animation:
		return "animation"
	case Map:
		return "map"
	case MissionList:
		return "mission-list"
	case Container:
		return "container"
	case Palette:
		return "palette"
	case PlayerPositions:
		return "player-positions"
	case Sprite:
		return "sprite"
	case Tile:
		return "tile"
	case Voxel:
		return "voxel"
	default:
		return "unknown"
	}
}

// ParseTag is the inverse of Tag.String.
func ParseTag(s string) (Tag, error) {
	for t := None; t <= Voxel; t++ {
		if strings.EqualFold(s, t.String()) {
			return t, nil
		}
	}
	return None, fmt.Errorf("unknown format tag: %q", s)
}

var extensions = map[string]Tag{
	".ini": Config,
	".csf": StringTable,
	".hva": Animation,
	".map": Map,
	".mpr": Map,
	".yrm": Map,
	".mix": Container,
	".mmx": Container,
	".yro": Container,
	".pal": Palette,
	".pkt": PlayerPositions,
	".shp": Sprite,
	".tmp": Tile,
	".tem": Tile,
	".sno": Tile,
	".urb": Tile,
	".ubn": Tile,
	".des": Tile,
	".lun": Tile,
	".vxl": Voxel,
}

// ContainerExtensions is the allowlist of extensions that are mounted as containers.
var ContainerExtensions = []string{".mix", ".mmx", ".yro"}

// Guess returns the tag for filename's extension, or Unknown.
func Guess(filename string) Tag {
	if t, ok := extensions[strings.ToLower(filepath.Ext(filename))]; ok {
		return t
	}
	return Unknown
}

// IsContainer reports whether path carries a container extension.
func IsContainer(path string) bool {
	ext := filepath.Ext(path)
	for _, c := range ContainerExtensions {
		if strings.EqualFold(ext, c) {
			return true
		}
	}
	return false
}
