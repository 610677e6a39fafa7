package nav

import (
	"errors"
	"strings"
	"testing"
)

type stubSource []TileLayer

func (s stubSource) Layers() []TileLayer { return s }

func TestParseTag(t *testing.T) {
	cases := []struct {
		name string
		want Classification
		ok   bool
	}{
		{"Start", Start, true},
		{"End", End, true},
		{"Unwalkable", Unwalkable, true},
		{"Walkable", Walkable, true},
		{"walkable", 0, false},
		{"Water", 0, false},
		{"", 0, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			tag, ok := ParseTag(c.name)
			if ok != c.ok {
				t.Fatalf("ParseTag(%q) ok=%v, want %v", c.name, ok, c.ok)
			}
			if ok && tag.Classification() != c.want {
				t.Fatalf("ParseTag(%q) → %s, want %s", c.name, tag.Classification(), c.want)
			}
		})
	}
}

func TestImport_ResizesAndClassifies(t *testing.T) {
	ground := TileLayer{Name: "Ground", GridSize: 16, PxWidth: 64, PxHeight: 48}
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			ground.Tiles = append(ground.Tiles, Tile{X: float64(x), Y: float64(y), Tags: []string{"Walkable"}})
		}
	}
	walls := TileLayer{Name: "Walls", GridSize: 16, PxWidth: 64, PxHeight: 48, Tiles: []Tile{
		{X: 2, Y: 0, Tags: []string{"Unwalkable"}},
		{X: 2, Y: 1, Tags: []string{"Unwalkable", "Decoration"}},
		{X: 0, Y: 2, Tags: []string{"Start"}},
		{X: 3, Y: 2, Tags: []string{"End"}},
		{X: 9, Y: 9, Tags: []string{"Unwalkable"}},
	}}
	// Top layer first: walls override ground.
	src := stubSource{walls, ground}

	tr := mustTerrain(t, 2, 2)
	stats, err := tr.Import(src)
	if err != nil {
		t.Fatal(err)
	}
	if tr.Width() != 4 || tr.Height() != 3 {
		t.Fatalf("expected 4x3 after import, got %dx%d", tr.Width(), tr.Height())
	}
	if stats.Ignored != 1 || stats.OffGrid != 1 || stats.Layers != 2 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	checks := map[[2]int]Classification{
		{0, 0}: Walkable, {2, 0}: Unwalkable, {2, 1}: Unwalkable,
		{0, 2}: Start, {3, 2}: End, {1, 1}: Walkable,
	}
	for p, want := range checks {
		if c, _ := tr.Cell(p[0], p[1]); c.Kind != want {
			t.Fatalf("cell %v = %s, want %s", p, c.Kind, want)
		}
	}
}

func TestImport_UntaggedTilesStayEmpty(t *testing.T) {
	src := stubSource{{Name: "L", GridSize: 8, PxWidth: 16, PxHeight: 16, Tiles: []Tile{
		{X: 0, Y: 0, Tags: []string{"Unwalkable"}},
		{X: 1, Y: 0},
	}}}
	tr := mustTerrain(t, 5, 5)
	if _, err := tr.Import(src); err != nil {
		t.Fatal(err)
	}
	if c, _ := tr.Cell(1, 0); c.Kind != Empty {
		t.Fatalf("untagged tile = %s, want empty", c.Kind)
	}
	if c, _ := tr.Cell(1, 1); c.Kind != Empty {
		t.Fatalf("missing tile = %s, want empty", c.Kind)
	}
}

func TestImport_Idempotent(t *testing.T) {
	src := stubSource{{Name: "L", GridSize: 10, PxWidth: 50, PxHeight: 30, Tiles: []Tile{
		{X: 1, Y: 1, Tags: []string{"Unwalkable"}},
		{X: 4, Y: 2, Tags: []string{"Walkable"}},
	}}}
	tr := mustTerrain(t, 1, 1)
	if _, err := tr.Import(src); err != nil {
		t.Fatal(err)
	}
	first := tr.Snapshot()
	tr.SetClassification(0, 0, Path)
	if _, err := tr.Import(src); err != nil {
		t.Fatal(err)
	}
	second := tr.Snapshot()
	if len(first) != len(second) {
		t.Fatalf("cell count changed: %d → %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("cell %d differs after re-import: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestImport_Errors(t *testing.T) {
	tr := mustTerrain(t, 2, 2)
	if _, err := tr.Import(stubSource{}); !errors.Is(err, ErrEmptySource) {
		t.Fatalf("expected ErrEmptySource, got %v", err)
	}
	if _, err := tr.Import(stubSource{{Name: "Zero", GridSize: 0, PxWidth: 10, PxHeight: 10}}); !errors.Is(err, ErrInvalidSize) {
		t.Fatalf("expected ErrInvalidSize for zero grid size, got %v", err)
	}
	mismatch := stubSource{
		{Name: "A", GridSize: 8, PxWidth: 16, PxHeight: 16},
		{Name: "B", GridSize: 8, PxWidth: 32, PxHeight: 16},
	}
	_, err := tr.Import(mismatch)
	if err == nil || !strings.Contains(err.Error(), `"B"`) {
		t.Fatalf("expected a layer mismatch error naming B, got %v", err)
	}
	if tr.Width() != 2 || tr.Height() != 2 {
		t.Fatal("failed import must leave the terrain untouched")
	}
}
