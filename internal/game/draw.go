package game

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/jakecoffman/cp"

	"github.com/Garsondee/battlegrid/internal/sim"
)

// minGridScale is the smallest cell size, in pixels, that still gets grid
// lines.
const minGridScale = 8

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(backgroundColor)

	g.drawTerrain(screen)
	g.drawRoutes(screen)
	g.drawMarkers(screen)
	g.drawAgents(screen)
	g.drawSelectionBox(screen)

	g.panel.Draw(screen, g.playW, g.height)
	if g.showHUD {
		g.drawHUD(screen)
	}
}

func (g *Game) drawTerrain(screen *ebiten.Image) {
	t := g.world.Terrain()
	s := g.cam.scale()
	half := cp.Vector{X: 0.5, Y: 0.5}
	vpW, vpH := float32(g.playW), float32(g.height)

	for _, c := range g.world.Cells() {
		x, y := g.cam.toScreen(t.Anchor(c).Sub(half))
		fx, fy, fs := float32(x), float32(y), float32(s)
		if fx+fs < 0 || fy+fs < 0 || fx > vpW || fy > vpH {
			continue
		}
		vector.FillRect(screen, fx, fy, fs, fs, cellColor(c.Kind), false)
		if s >= minGridScale {
			vector.StrokeRect(screen, fx, fy, fs, fs, 1.0, gridLineColor, false)
		}
	}
}

// drawRoutes draws each agent's remaining route from its position.
func (g *Game) drawRoutes(screen *ebiten.Image) {
	t := g.world.Terrain()
	for _, a := range g.world.Agents() {
		if a.State != sim.AgentFollowing {
			continue
		}
		px, py := g.cam.toScreen(a.Pos)
		for _, c := range a.Route[a.Cursor:] {
			x, y := g.cam.toScreen(t.Anchor(c))
			vector.StrokeLine(screen, float32(px), float32(py), float32(x), float32(y), 1.5, routeColor, true)
			px, py = x, y
		}
	}
}

func (g *Game) drawMarkers(screen *ebiten.Image) {
	r := float32(0.35 * g.cam.scale())
	for _, m := range g.markers {
		x, y := g.cam.toScreen(m.pos)
		vector.StrokeCircle(screen, float32(x), float32(y), r, 2, withAlpha(markerColor, m.alpha()), true)
	}
}

func (g *Game) drawAgents(screen *ebiten.Image) {
	s := g.cam.scale()
	for _, a := range g.world.Agents() {
		x, y := g.cam.toScreen(a.Pos)
		r := float32(a.Radius * s)
		vector.FillCircle(screen, float32(x), float32(y), r, agentColor, true)
		if g.selected.Has(a.ID) {
			vector.StrokeCircle(screen, float32(x), float32(y), r+2, 2, selectedColor, true)
		}
		if s >= 2*minGridScale {
			ebitenutil.DebugPrintAt(screen, a.Label, int(x)+int(r)+2, int(y)-8)
		}
	}
}

func (g *Game) drawSelectionBox(screen *ebiten.Image) {
	if !g.box.active {
		return
	}
	bd := g.box.bound()
	x0, y0 := g.cam.toScreen(cp.Vector{X: bd.Min[0], Y: bd.Min[1]})
	x1, y1 := g.cam.toScreen(cp.Vector{X: bd.Max[0], Y: bd.Max[1]})
	vector.StrokeRect(screen, float32(x0), float32(y0), float32(x1-x0), float32(y1-y0), 1.0, selectBoxColor, false)
}

// drawHUD renders the mode line and key hints in the bottom-left corner.
func (g *Game) drawHUD(screen *ebiten.Image) {
	state := "RUNNING"
	if g.paused {
		state = "PAUSED"
	}
	overlay := "off"
	if g.world.PathOverlay() {
		overlay = "on"
	}
	lines := []string{
		fmt.Sprintf("SIM: %s  tick %d  Space=pause", state, g.world.TickCount()),
		fmt.Sprintf("place: %s  1=start 2=end 3=wall 4=walkable  Shift+click", g.placeMode),
		fmt.Sprintf("overlay: %s (P)  broadphase: %s (B)", overlay, g.world.Avoidance().Broadphase),
		fmt.Sprintf("selected: %d  drag=select  right-click=move  N=spawn", g.selected.Size()),
		fmt.Sprintf("zoom: %.2fx  WASD/scroll  C=copy report  R=reload  H=hide", g.cam.zoom),
	}
	if g.statusTTL > 0 && g.status != "" {
		lines = append(lines, "> "+g.status)
	}

	const lineH = 16
	const padX, padY = 6, 4
	maxLen := 0
	for _, l := range lines {
		if len(l) > maxLen {
			maxLen = len(l)
		}
	}
	boxW := float32(maxLen*6 + padX*2)
	boxH := float32(len(lines)*lineH + padY*2)
	bx := float32(4)
	by := float32(g.height) - boxH - 4

	vector.FillRect(screen, bx, by, boxW, boxH, color.RGBA{R: 6, G: 10, B: 6, A: 210}, false)
	vector.StrokeRect(screen, bx, by, boxW, boxH, 1.0, color.RGBA{R: 60, G: 100, B: 60, A: 180}, false)
	for i, line := range lines {
		ebitenutil.DebugPrintAt(screen, line, int(bx)+padX, int(by)+padY+i*lineH)
	}
}
