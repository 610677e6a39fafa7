package game

import (
	"image/color"

	"golang.org/x/image/colornames"

	"github.com/Garsondee/battlegrid/internal/nav"
)

var (
	backgroundColor = color.RGBA{R: 12, G: 14, B: 12, A: 255}
	gridLineColor   = color.RGBA{R: 40, G: 52, B: 40, A: 120}
	selectBoxColor  = colornames.White
	selectedColor   = colornames.Gold
	routeColor      = color.RGBA{R: 120, G: 200, B: 255, A: 160}
	agentColor      = colornames.Crimson
	markerColor     = colornames.Lime
)

// cellColor is the fill used for each terrain classification.
func cellColor(k nav.Classification) color.RGBA {
	switch k {
	case nav.Empty:
		return colornames.Black
	case nav.Walkable:
		return colornames.Darkolivegreen
	case nav.Unwalkable:
		return colornames.Dimgray
	case nav.Path:
		return colornames.Steelblue
	case nav.Start:
		return colornames.Limegreen
	case nav.End:
		return colornames.Orangered
	case nav.Neighbor:
		return colornames.Khaki
	default:
		return colornames.Magenta
	}
}

// withAlpha returns c with its alpha scaled by a in [0, 1]. The colour is
// premultiplied, as ebiten expects.
func withAlpha(c color.RGBA, a float64) color.RGBA {
	if a <= 0 {
		return color.RGBA{}
	}
	if a > 1 {
		a = 1
	}
	return color.RGBA{
		R: uint8(float64(c.R) * a),
		G: uint8(float64(c.G) * a),
		B: uint8(float64(c.B) * a),
		A: uint8(float64(c.A) * a),
	}
}
