package game

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/jakecoffman/cp"
	"github.com/zyedidia/generic/mapset"

	"github.com/Garsondee/battlegrid/internal/nav"
	"github.com/Garsondee/battlegrid/internal/sim"
)

// placeKeys maps 1-4 to the terrain edit modes.
var placeKeys = map[ebiten.Key]nav.PlaceMode{
	ebiten.Key1: nav.PlaceStart,
	ebiten.Key2: nav.PlaceEnd,
	ebiten.Key3: nav.PlaceWall,
	ebiten.Key4: nav.PlaceWalkable,
}

// handleInput processes keyboard and mouse input. Toggles are
// edge-triggered; panning and painting act every frame the input is held.
func (g *Game) handleInput() {
	currentKeys := map[ebiten.Key]bool{}
	pressed := func(k ebiten.Key) bool {
		currentKeys[k] = ebiten.IsKeyPressed(k)
		return currentKeys[k] && !g.prevKeys[k]
	}

	for k, mode := range placeKeys {
		if pressed(k) {
			g.placeMode = mode
			g.setStatus("place: %s", mode)
		}
	}
	if pressed(ebiten.KeyP) {
		g.toggleOverlay()
	}
	if pressed(ebiten.KeySpace) {
		g.paused = !g.paused
	}
	if pressed(ebiten.KeyC) {
		g.copyReport()
	}
	if pressed(ebiten.KeyB) {
		g.toggleBroadphase()
	}
	if pressed(ebiten.KeyR) {
		g.reloadLevel()
	}
	if pressed(ebiten.KeyH) {
		g.showHUD = !g.showHUD
	}
	if pressed(ebiten.KeyEscape) {
		g.selected = mapset.New[sim.AgentID]()
	}

	mx, my := ebiten.CursorPosition()
	inPlayfield := mx >= 0 && mx < g.playW && my >= 0 && my < g.height
	cursor := g.cam.toWorld(float64(mx), float64(my))

	if pressed(ebiten.KeyN) && inPlayfield {
		g.spawnAt(cursor)
	}

	// Camera pan: WASD or arrow keys.
	const panPixels = 8.0
	if ebiten.IsKeyPressed(ebiten.KeyW) || ebiten.IsKeyPressed(ebiten.KeyArrowUp) {
		g.cam.pan(0, -panPixels)
	}
	if ebiten.IsKeyPressed(ebiten.KeyS) || ebiten.IsKeyPressed(ebiten.KeyArrowDown) {
		g.cam.pan(0, panPixels)
	}
	if ebiten.IsKeyPressed(ebiten.KeyA) || ebiten.IsKeyPressed(ebiten.KeyArrowLeft) {
		g.cam.pan(-panPixels, 0)
	}
	if ebiten.IsKeyPressed(ebiten.KeyD) || ebiten.IsKeyPressed(ebiten.KeyArrowRight) {
		g.cam.pan(panPixels, 0)
	}

	// Camera zoom: mouse wheel or =/- keys.
	if _, wy := ebiten.Wheel(); wy != 0 && inPlayfield {
		g.cam.zoomAt(math.Pow(1.12, wy), float64(mx), float64(my))
	}
	if pressed(ebiten.KeyEqual) {
		g.cam.zoomAt(1.25, g.cam.vpW/2, g.cam.vpH/2)
	}
	if pressed(ebiten.KeyMinus) {
		g.cam.zoomAt(1/1.25, g.cam.vpW/2, g.cam.vpH/2)
	}
	g.clampCamera()

	// Left button: Shift paints terrain, otherwise drag a selection box.
	left := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	shift := ebiten.IsKeyPressed(ebiten.KeyShift)
	switch {
	case left && shift && inPlayfield:
		g.placeAt(cursor)
	case left && !g.prevMouseLeft && inPlayfield:
		g.box.begin(cursor)
	case left && g.box.active:
		g.box.drag(cursor)
	case !left && g.prevMouseLeft && g.box.active:
		g.box.drag(cursor)
		g.finishSelection()
	}
	g.prevMouseLeft = left

	// Right click: move order.
	right := ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight)
	if right && !g.prevMouseRight && inPlayfield {
		g.orderMove(cursor)
	}
	g.prevMouseRight = right

	g.prevKeys = currentKeys
}

// clampCamera keeps the view centre over the terrain.
func (g *Game) clampCamera() {
	t := g.world.Terrain()
	half := cp.Vector{X: 0.5, Y: 0.5}
	lo := t.Origin().Sub(half)
	hi := t.Origin().Add(cp.Vector{X: float64(t.Width()), Y: float64(t.Height())}).Sub(half)
	g.cam.clamp(lo, hi)
}
