package nav

import (
	"errors"
	"fmt"
	"math"
)

// ErrEmptySource is returned by Import when the source has no usable layer.
var ErrEmptySource = errors.New("nav: tile source has no layers")

// Tag is a recognised semantic tile tag. Tile sources hand tags over as
// strings; ParseTag is the only way in.
type Tag uint8

const (
	TagStart Tag = iota
	TagEnd
	TagUnwalkable
	TagWalkable
)

// ParseTag maps a tile tag name onto the closed Tag set. Names outside
// {"Start","End","Unwalkable","Walkable"} are rejected.
func ParseTag(name string) (Tag, bool) {
	switch name {
	case "Start":
		return TagStart, true
	case "End":
		return TagEnd, true
	case "Unwalkable":
		return TagUnwalkable, true
	case "Walkable":
		return TagWalkable, true
	default:
		return 0, false
	}
}

// Classification returns the cell classification the tag stands for.
func (tg Tag) Classification() Classification {
	switch tg {
	case TagStart:
		return Start
	case TagEnd:
		return End
	case TagUnwalkable:
		return Unwalkable
	default:
		return Walkable
	}
}

func (tg Tag) String() string {
	return tg.Classification().String()
}

// Tile is one placed tile: its grid-space position (cell units, relative to
// the terrain origin) and the tag names attached to it.
type Tile struct {
	X, Y float64
	Tags []string
}

// TileLayer is one layer of a tile source.
type TileLayer struct {
	Name     string
	GridSize int // pixels per cell
	PxWidth  int
	PxHeight int
	Tiles    []Tile
}

// Cols returns the layer width in cells.
func (l TileLayer) Cols() int {
	if l.GridSize <= 0 {
		return 0
	}
	return l.PxWidth / l.GridSize
}

// Rows returns the layer height in cells.
func (l TileLayer) Rows() int {
	if l.GridSize <= 0 {
		return 0
	}
	return l.PxHeight / l.GridSize
}

// TileSource is the external map abstraction consumed by Import. Layers are
// listed top first.
type TileSource interface {
	Layers() []TileLayer
}

// ImportStats summarises an Import.
type ImportStats struct {
	Width, Height int
	Layers        int // layers applied
	Tagged        int // cells reclassified (counting repeats)
	Ignored       int // unrecognised tag names seen
	OffGrid       int // tagged tiles outside the grid
}

// Import resizes the terrain to the source's grid and reclassifies every
// tile that carries a recognised tag. Untagged tiles keep their default
// (Empty after the resize). Layers are applied bottom first so the top
// layer wins. Importing the same source twice gives the same terrain.
func (t *Terrain) Import(src TileSource) (ImportStats, error) {
	layers := src.Layers()
	if len(layers) == 0 {
		return ImportStats{}, ErrEmptySource
	}
	cols, rows := layers[0].Cols(), layers[0].Rows()
	for _, l := range layers[1:] {
		if l.Cols() != cols || l.Rows() != rows {
			return ImportStats{}, fmt.Errorf("nav: import: layer %q is %dx%d, want %dx%d",
				l.Name, l.Cols(), l.Rows(), cols, rows)
		}
	}
	if err := t.Resize(cols, rows); err != nil {
		return ImportStats{}, fmt.Errorf("nav: import: %w", err)
	}

	stats := ImportStats{Width: cols, Height: rows}
	for i := len(layers) - 1; i >= 0; i-- {
		stats.Layers++
		for _, tile := range layers[i].Tiles {
			x, y := gridCoord(tile.X), gridCoord(tile.Y)
			for _, name := range tile.Tags {
				tag, ok := ParseTag(name)
				if !ok {
					stats.Ignored++
					continue
				}
				if !t.SetClassification(x, y, tag.Classification()) {
					stats.OffGrid++
					continue
				}
				stats.Tagged++
			}
		}
	}
	return stats, nil
}

// TileAt converts a pixel position within a layer to grid-space.
func (l TileLayer) TileAt(px, py float64) (float64, float64) {
	if l.GridSize <= 0 {
		return math.NaN(), math.NaN()
	}
	g := float64(l.GridSize)
	return px / g, py / g
}
