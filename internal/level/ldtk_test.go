package level

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Garsondee/battlegrid/internal/nav"
)

const tinyProject = `{
  "defs": {"tilesets": [{"uid": 7, "identifier": "T", "enumTags": [
    {"enumValueId": "Unwalkable", "tileIds": [1, 5]},
    {"enumValueId": "Start", "tileIds": [2]},
    {"enumValueId": "Lava", "tileIds": [9]}
  ]}]},
  "levels": [{"identifier": "Tiny", "pxWid": 32, "pxHei": 24, "layerInstances": [
    {"__identifier": "Walls", "__gridSize": 8, "__tilesetDefUid": 7, "gridTiles": [
      {"px": [8, 0], "t": 1}, {"px": [8, 8], "t": 5}, {"px": [0, 16], "t": 2}, {"px": [24, 16], "t": 9}
    ]},
    {"__identifier": "Entities", "__gridSize": 8, "__tilesetDefUid": null, "gridTiles": []},
    {"__identifier": "Auto", "__gridSize": 8, "__tilesetDefUid": 7, "gridTiles": [],
     "autoLayerTiles": [{"px": [16, 16], "t": 1}]}
  ]}]
}`

func writeProject(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tiny.ldtk")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSource_Layers(t *testing.T) {
	p, err := Parse([]byte(tinyProject))
	if err != nil {
		t.Fatal(err)
	}
	src, err := p.Source(0)
	if err != nil {
		t.Fatal(err)
	}
	if src.Name() != "Tiny" {
		t.Fatalf("name = %q", src.Name())
	}
	layers := src.Layers()
	if len(layers) != 2 {
		t.Fatalf("expected the entity layer to be skipped, got %d layers", len(layers))
	}
	walls := layers[0]
	if walls.Cols() != 4 || walls.Rows() != 3 {
		t.Fatalf("walls layer is %dx%d, want 4x3", walls.Cols(), walls.Rows())
	}
	if got := walls.Tiles[2]; got.X != 0 || got.Y != 2 || len(got.Tags) != 1 || got.Tags[0] != "Start" {
		t.Fatalf("tile 2 = %+v", got)
	}
	if len(layers[1].Tiles) != 1 {
		t.Fatal("auto-layer tiles should be used when a layer has no grid tiles")
	}
}

func TestSource_ImportIntoTerrain(t *testing.T) {
	src, err := Open(writeProject(t, tinyProject), 0)
	if err != nil {
		t.Fatal(err)
	}
	tr, _ := nav.New(1, 1)
	stats, err := tr.Import(src)
	if err != nil {
		t.Fatal(err)
	}
	if tr.Width() != 4 || tr.Height() != 3 {
		t.Fatalf("terrain is %dx%d, want 4x3", tr.Width(), tr.Height())
	}
	if stats.Ignored != 1 {
		t.Fatalf("expected the Lava tag to be ignored, got %+v", stats)
	}
	checks := map[[2]int]nav.Classification{
		{1, 0}: nav.Unwalkable, {1, 1}: nav.Unwalkable, {2, 2}: nav.Unwalkable,
		{0, 2}: nav.Start, {3, 2}: nav.Empty, {0, 0}: nav.Empty,
	}
	for xy, want := range checks {
		if c, _ := tr.Cell(xy[0], xy[1]); c.Kind != want {
			t.Fatalf("cell %v is %s, want %s", xy, c.Kind, want)
		}
	}
}

func TestOpen_DefaultMap(t *testing.T) {
	src, err := Open("", 0)
	if err != nil {
		t.Fatal(err)
	}
	tr, _ := nav.New(1, 1)
	if _, err := tr.Import(src); err != nil {
		t.Fatal(err)
	}
	if tr.Width() != 47 || tr.Height() != 36 {
		t.Fatalf("default map is %dx%d, want 47x36", tr.Width(), tr.Height())
	}
	start, end, ok := tr.Endpoints()
	if !ok {
		t.Fatal("default map should carry a start and an end")
	}
	if _, found := nav.FindPath(tr, start, end); !found {
		t.Fatal("default map start and end should be connected")
	}
	for _, xy := range [][2]int{{10, 0}, {20, 0}, {30, 0}} {
		if c, _ := tr.Cell(xy[0], xy[1]); c.Kind != nav.Walkable {
			t.Fatalf("default spawn %v is %s", xy, c.Kind)
		}
	}
}

func TestProject_NoLevel(t *testing.T) {
	p, err := Parse([]byte(tinyProject))
	if err != nil {
		t.Fatal(err)
	}
	for _, idx := range []int{-1, 1} {
		if _, err := p.Source(idx); !errors.Is(err, ErrNoLevel) {
			t.Fatalf("index %d: expected ErrNoLevel, got %v", idx, err)
		}
	}
}

func TestLoadFile_Errors(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.ldtk")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}
	if _, err := LoadFile(writeProject(t, "{not json")); err == nil {
		t.Fatal("expected a parse error")
	}
}

func TestWatcher_ReportsWrites(t *testing.T) {
	path := writeProject(t, tinyProject)
	w, err := NewWatcher(path)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	other := filepath.Join(filepath.Dir(path), "other.txt")
	if err := os.WriteFile(other, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(tinyProject), 0o600); err != nil {
		t.Fatal(err)
	}

	select {
	case name := <-w.Events:
		if filepath.Base(name) != "tiny.ldtk" {
			t.Fatalf("unexpected event for %s", name)
		}
	case err := <-w.Errors:
		t.Fatalf("watch error: %v", err)
	case <-time.After(3 * time.Second):
		t.Fatal("no event for a write to the watched file")
	}

	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
