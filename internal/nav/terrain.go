package nav

import (
	"errors"
	"fmt"
	"math"

	"github.com/jakecoffman/cp"
)

// ErrInvalidSize is returned when a terrain is created or resized with a
// non-positive dimension.
var ErrInvalidSize = errors.New("nav: invalid terrain size")

// Classification is the walkability/role tag of a cell.
type Classification uint8

const (
	Empty      Classification = iota // Freshly resized, not yet imported
	Walkable                         // Open ground
	Unwalkable                       // Wall, water, anything impassable
	Path                             // Route overlay marking
	Start                            // Edit-placed route start
	End                              // Edit-placed route end
	Neighbor                         // Debug marking for expanded cells
)

func (c Classification) String() string {
	switch c {
	case Empty:
		return "empty"
	case Walkable:
		return "walkable"
	case Unwalkable:
		return "unwalkable"
	case Path:
		return "path"
	case Start:
		return "start"
	case End:
		return "end"
	case Neighbor:
		return "neighbor"
	default:
		return "unknown"
	}
}

// Glyph is the single-character form of c used by text renderers.
func (c Classification) Glyph() rune {
	switch c {
	case Empty:
		return ' '
	case Walkable:
		return '.'
	case Unwalkable:
		return '#'
	case Path:
		return '*'
	case Start:
		return 'S'
	case End:
		return 'E'
	case Neighbor:
		return 'n'
	default:
		return '?'
	}
}

// Cell is one grid-addressable unit of terrain. Cells handed out by Terrain
// are copies; mutate through SetClassification.
type Cell struct {
	X, Y int
	Kind Classification
}

// SameCoord reports whether c and o address the same grid position,
// regardless of classification.
func (c Cell) SameCoord(o Cell) bool {
	return c.X == o.X && c.Y == o.Y
}

// Successor is a neighbouring cell and the cost of stepping onto it.
type Successor struct {
	Cell Cell
	Cost int
}

// Terrain is a dense row-major grid of classified cells.
//
// Terrain is not safe for concurrent use. Edits, imports, path marking and
// searches all run on the simulation thread.
type Terrain struct {
	width  int
	height int
	kinds  []Classification
	origin cp.Vector // world position of cell (0,0)'s anchor
}

// New creates a width×height terrain with every cell Walkable.
func New(width, height int) (*Terrain, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	t := &Terrain{
		width:  width,
		height: height,
		kinds:  make([]Classification, width*height),
	}
	t.Fill(Walkable)
	return t, nil
}

// Resize discards every cell and reallocates width×height Empty cells.
// Used when importing a differently-sized map.
func (t *Terrain) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	t.width = width
	t.height = height
	t.kinds = make([]Classification, width*height) // zero value is Empty
	return nil
}

// Width returns the number of columns.
func (t *Terrain) Width() int { return t.width }

// Height returns the number of rows.
func (t *Terrain) Height() int { return t.height }

// Origin returns the world-space offset of cell (0,0)'s anchor.
func (t *Terrain) Origin() cp.Vector { return t.origin }

// SetOrigin moves the terrain in world space. Search ignores it.
func (t *Terrain) SetOrigin(o cp.Vector) { t.origin = o }

// InBounds reports whether (x, y) addresses a cell.
func (t *Terrain) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < t.width && y < t.height
}

// Cell returns the cell at (x, y), or false when the coordinate is outside
// the grid. It is the only way to look a coordinate up.
func (t *Terrain) Cell(x, y int) (Cell, bool) {
	if !t.InBounds(x, y) {
		return Cell{}, false
	}
	return Cell{X: x, Y: y, Kind: t.kinds[y*t.width+x]}, true
}

// SetClassification overwrites the classification at (x, y). Out-of-range
// coordinates are a caller bug; they write nothing and return false.
func (t *Terrain) SetClassification(x, y int, kind Classification) bool {
	if !t.InBounds(x, y) {
		return false
	}
	t.kinds[y*t.width+x] = kind
	return true
}

// Fill reclassifies every cell.
func (t *Terrain) Fill(kind Classification) {
	for i := range t.kinds {
		t.kinds[i] = kind
	}
}

// Neighbors returns the orthogonally adjacent, in-range cells of c that are
// not Unwalkable, each with cost 1. The order is fixed: dx then dy over
// {-1,0,1}, i.e. left, up, down, right. A* tie-breaking depends on it.
// An out-of-range c has no neighbours.
func (t *Terrain) Neighbors(c Cell) []Successor {
	if !t.InBounds(c.X, c.Y) {
		return nil
	}
	out := make([]Successor, 0, 4)
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			if abs(dx)+abs(dy) != 1 {
				continue
			}
			n, ok := t.Cell(c.X+dx, c.Y+dy)
			if !ok || n.Kind == Unwalkable {
				continue
			}
			out = append(out, Successor{Cell: n, Cost: 1})
		}
	}
	return out
}

// ClearPathMarkings reverts every Path cell to Walkable. Other
// classifications are untouched.
func (t *Terrain) ClearPathMarkings() {
	for i, k := range t.kinds {
		if k == Path {
			t.kinds[i] = Walkable
		}
	}
}

// MarkRoute classifies the cells of r as Path, leaving Start and End cells
// as they are.
func (t *Terrain) MarkRoute(r Route) {
	for _, c := range r {
		cur, ok := t.Cell(c.X, c.Y)
		if !ok || cur.Kind == Start || cur.Kind == End {
			continue
		}
		t.SetClassification(c.X, c.Y, Path)
	}
}

// Endpoints returns the first Start and End cells in row-major order.
func (t *Terrain) Endpoints() (start, end Cell, ok bool) {
	var haveStart, haveEnd bool
	for i, k := range t.kinds {
		switch {
		case k == Start && !haveStart:
			start = Cell{X: i % t.width, Y: i / t.width, Kind: k}
			haveStart = true
		case k == End && !haveEnd:
			end = Cell{X: i % t.width, Y: i / t.width, Kind: k}
			haveEnd = true
		}
	}
	return start, end, haveStart && haveEnd
}

// Snapshot copies every cell in row-major order for rendering.
func (t *Terrain) Snapshot() []Cell {
	out := make([]Cell, len(t.kinds))
	for i, k := range t.kinds {
		out[i] = Cell{X: i % t.width, Y: i / t.width, Kind: k}
	}
	return out
}

// Anchor returns the world position a unit aims for when c is its waypoint.
func (t *Terrain) Anchor(c Cell) cp.Vector {
	return cp.Vector{X: float64(c.X), Y: float64(c.Y)}.Add(t.origin)
}

// CellAt returns the cell whose anchor is nearest to the world point p, or
// false when p falls outside the grid.
func (t *Terrain) CellAt(p cp.Vector) (Cell, bool) {
	local := p.Sub(t.origin)
	return t.Cell(gridCoord(local.X), gridCoord(local.Y))
}

const maxGridCoord = 1 << 30

// gridCoord rounds a grid-space coordinate to its cell index. Floor keeps
// negative positions from aliasing onto row/column 0.
func gridCoord(v float64) int {
	if math.IsNaN(v) || math.Abs(v) > maxGridCoord {
		return -1
	}
	return int(math.Floor(v + 0.5))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
