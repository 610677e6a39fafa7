// Package level reads LDtk projects and exposes a level as a terrain tile
// source.
package level

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/Garsondee/battlegrid/internal/nav"
)

//go:embed maps/*.ldtk
var mapsFS embed.FS

// DefaultMap is the embedded project used when no path is configured.
const DefaultMap = "maps/default.ldtk"

// ErrNoLevel is returned when a project has no level at the requested index.
var ErrNoLevel = errors.New("level: no such level")

// Project is the subset of an LDtk project file battlegrid reads.
type Project struct {
	Defs   Defs    `json:"defs"`
	Levels []Level `json:"levels"`
}

type Defs struct {
	Tilesets []TilesetDef `json:"tilesets"`
}

// TilesetDef carries the enum tags attached to a tileset's tile ids.
type TilesetDef struct {
	UID        int       `json:"uid"`
	Identifier string    `json:"identifier"`
	EnumTags   []EnumTag `json:"enumTags"`
}

type EnumTag struct {
	EnumValueID string `json:"enumValueId"`
	TileIDs     []int  `json:"tileIds"`
}

type Level struct {
	Identifier     string          `json:"identifier"`
	PxWid          int             `json:"pxWid"`
	PxHei          int             `json:"pxHei"`
	LayerInstances []LayerInstance `json:"layerInstances"`
}

type LayerInstance struct {
	Identifier     string     `json:"__identifier"`
	GridSize       int        `json:"__gridSize"`
	TilesetDefUID  *int       `json:"__tilesetDefUid"`
	GridTiles      []GridTile `json:"gridTiles"`
	AutoLayerTiles []GridTile `json:"autoLayerTiles"`
}

// GridTile is one placed tile: its pixel position in the layer and its
// tile id in the layer's tileset.
type GridTile struct {
	Px [2]float64 `json:"px"`
	T  int        `json:"t"`
}

// Parse decodes an LDtk project.
func Parse(data []byte) (*Project, error) {
	var p Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("level: parse: %w", err)
	}
	return &p, nil
}

// LoadFile reads and decodes the project at path.
func LoadFile(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("level: load %s: %w", path, err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("level: %s: %w", path, err)
	}
	return p, nil
}

// LoadDefault decodes the embedded project.
func LoadDefault() (*Project, error) {
	data, err := mapsFS.ReadFile(DefaultMap)
	if err != nil {
		return nil, fmt.Errorf("level: load embedded map: %w", err)
	}
	return Parse(data)
}

// Open loads the project at path, or the embedded one when path is empty,
// and returns its level at index.
func Open(path string, index int) (*Source, error) {
	var (
		p   *Project
		err error
	)
	if path == "" {
		p, err = LoadDefault()
	} else {
		p, err = LoadFile(path)
	}
	if err != nil {
		return nil, err
	}
	return p.Source(index)
}

// Source returns the level at index as a terrain tile source.
func (p *Project) Source(index int) (*Source, error) {
	if index < 0 || index >= len(p.Levels) {
		return nil, fmt.Errorf("%w: index %d of %d", ErrNoLevel, index, len(p.Levels))
	}
	return &Source{level: &p.Levels[index], tags: p.tagIndex()}, nil
}

// tagIndex maps tileset uid → tile id → enum value names.
func (p *Project) tagIndex() map[int]map[int][]string {
	idx := make(map[int]map[int][]string, len(p.Defs.Tilesets))
	for _, ts := range p.Defs.Tilesets {
		byTile := make(map[int][]string)
		for _, tag := range ts.EnumTags {
			for _, id := range tag.TileIDs {
				byTile[id] = append(byTile[id], tag.EnumValueID)
			}
		}
		idx[ts.UID] = byTile
	}
	return idx
}

// Source adapts one LDtk level to nav.TileSource. Only tile layers (those
// bound to a tileset) are exposed; entity and int-grid layers carry no
// terrain tags.
type Source struct {
	level *Level
	tags  map[int]map[int][]string
}

// Name returns the level identifier.
func (s *Source) Name() string { return s.level.Identifier }

// Layers implements nav.TileSource. LDtk lists layers top first, which is
// the order Import expects.
func (s *Source) Layers() []nav.TileLayer {
	out := make([]nav.TileLayer, 0, len(s.level.LayerInstances))
	for _, li := range s.level.LayerInstances {
		if li.TilesetDefUID == nil || li.GridSize <= 0 {
			continue
		}
		byTile := s.tags[*li.TilesetDefUID]
		layer := nav.TileLayer{
			Name:     li.Identifier,
			GridSize: li.GridSize,
			PxWidth:  s.level.PxWid,
			PxHeight: s.level.PxHei,
		}
		tiles := li.GridTiles
		if len(tiles) == 0 {
			tiles = li.AutoLayerTiles
		}
		layer.Tiles = make([]nav.Tile, 0, len(tiles))
		for _, gt := range tiles {
			x, y := layer.TileAt(gt.Px[0], gt.Px[1])
			layer.Tiles = append(layer.Tiles, nav.Tile{X: x, Y: y, Tags: byTile[gt.T]})
		}
		out = append(out, layer)
	}
	return out
}
