package game

import "github.com/jakecoffman/cp"

// moveMarker acknowledges a move order at its target point. It fades out
// over its lifetime.
type moveMarker struct {
	pos  cp.Vector
	ttl  float64 // seconds left
	life float64 // initial ttl
}

// alpha is the remaining fraction of the marker's life, in [0, 1].
func (m moveMarker) alpha() float64 {
	if m.life <= 0 {
		return 0
	}
	a := m.ttl / m.life
	if a < 0 {
		return 0
	}
	return a
}

type markers []moveMarker

func (ms *markers) add(pos cp.Vector, ttl float64) {
	if ttl <= 0 {
		return
	}
	*ms = append(*ms, moveMarker{pos: pos, ttl: ttl, life: ttl})
}

// update ages every marker by dt and drops expired ones in place.
func (ms *markers) update(dt float64) {
	kept := (*ms)[:0]
	for _, m := range *ms {
		m.ttl -= dt
		if m.ttl > 0 {
			kept = append(kept, m)
		}
	}
	*ms = kept
}
