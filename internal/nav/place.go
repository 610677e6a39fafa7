package nav

// PlaceMode selects what a manual terrain edit writes.
type PlaceMode int

const (
	PlaceStart    PlaceMode = iota // single route start
	PlaceEnd                       // single route end
	PlaceWall                      // Unwalkable
	PlaceWalkable                  // Walkable
)

func (m PlaceMode) String() string {
	switch m {
	case PlaceStart:
		return "start"
	case PlaceEnd:
		return "end"
	case PlaceWall:
		return "wall"
	case PlaceWalkable:
		return "walkable"
	default:
		return "unknown"
	}
}

// Place applies a manual edit at (x, y). Start and End are unique: placing
// one reverts the previous Start (or End) to Walkable first. Returns false
// when (x, y) is off the grid.
func (t *Terrain) Place(mode PlaceMode, x, y int) bool {
	if !t.InBounds(x, y) {
		return false
	}
	switch mode {
	case PlaceStart:
		t.replace(Start, Walkable)
		t.SetClassification(x, y, Start)
	case PlaceEnd:
		t.replace(End, Walkable)
		t.SetClassification(x, y, End)
	case PlaceWall:
		t.SetClassification(x, y, Unwalkable)
	case PlaceWalkable:
		t.SetClassification(x, y, Walkable)
	default:
		return false
	}
	return true
}

func (t *Terrain) replace(from, to Classification) {
	for i, k := range t.kinds {
		if k == from {
			t.kinds[i] = to
		}
	}
}
