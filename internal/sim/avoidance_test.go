package sim

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/jakecoffman/cp"
)

func TestAvoidance_CloseAgentsSeparate(t *testing.T) {
	w := newTestWorld(t, WithAgent(5, 5), WithAgent(5.2, 5))
	w.Tick(0.1)

	a, _ := w.Agent(0)
	b, _ := w.Agent(1)
	// reach 1.0, dist 0.2 → push of 0.8 each way, scaled by dt.
	if !near(a.Position(), cp.Vector{X: 4.92, Y: 5}, 1e-9) {
		t.Fatalf("a at %v, want (4.92,5)", a.Position())
	}
	if !near(b.Position(), cp.Vector{X: 5.28, Y: 5}, 1e-9) {
		t.Fatalf("b at %v, want (5.28,5)", b.Position())
	}
}

func TestAvoidance_FarAgentsUntouched(t *testing.T) {
	w := newTestWorld(t, WithAgent(5, 5), WithAgent(6.01, 5))
	w.Tick(0.1)
	a, _ := w.Agent(0)
	b, _ := w.Agent(1)
	if a.Position() != (cp.Vector{X: 5, Y: 5}) || b.Position() != (cp.Vector{X: 6.01, Y: 5}) {
		t.Fatalf("non-overlapping agents moved: %v %v", a.Position(), b.Position())
	}
}

func TestAvoidance_CoincidentAgentsSkipped(t *testing.T) {
	w := newTestWorld(t, WithAgent(5, 5), WithAgent(5, 5))
	w.Tick(0.1)
	for _, v := range w.Agents() {
		if math.IsNaN(v.Pos.X) || math.IsNaN(v.Pos.Y) {
			t.Fatalf("%s position became NaN", v.Label)
		}
		if v.Pos != (cp.Vector{X: 5, Y: 5}) {
			t.Fatalf("%s moved to %v", v.Label, v.Pos)
		}
	}
}

func TestAvoidance_UsesPreCorrectionPositions(t *testing.T) {
	agents := []*Agent{
		newAgent(0, cp.Vector{X: 0, Y: 0}, 0.5),
		newAgent(1, cp.Vector{X: 0.5, Y: 0}, 0.5),
		newAgent(2, cp.Vector{X: 1, Y: 0}, 0.5),
	}
	v := avoidanceVectors(agents, DefaultAvoidance())
	if v[1] != (cp.Vector{}) {
		t.Fatalf("middle agent is pushed equally both ways, got %v", v[1])
	}
	if v[0].X != -v[2].X {
		t.Fatalf("outer pushes should mirror: %v vs %v", v[0], v[2])
	}
}

func TestAvoidance_StrengthScales(t *testing.T) {
	agents := []*Agent{
		newAgent(0, cp.Vector{X: 0, Y: 0}, 0.5),
		newAgent(1, cp.Vector{X: 0.4, Y: 0}, 0.5),
	}
	one := avoidanceVectors(agents, AvoidanceParams{Strength: 1})
	two := avoidanceVectors(agents, AvoidanceParams{Strength: 2})
	if two[0].X != 2*one[0].X {
		t.Fatalf("strength 2 should double the push: %v vs %v", two[0], one[0])
	}
	zero := avoidanceVectors(agents, AvoidanceParams{Strength: 0})
	if zero[0] != (cp.Vector{}) {
		t.Fatalf("strength 0 should disable avoidance, got %v", zero[0])
	}
}

func TestAvoidance_RTreeMatchesPairwise(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		rng := rand.New(rand.NewSource(seed)) // #nosec G404 -- test only
		agents := make([]*Agent, 60)
		for i := range agents {
			pos := cp.Vector{X: rng.Float64() * 10, Y: rng.Float64() * 10}
			agents[i] = newAgent(AgentID(i), pos, 0.3+rng.Float64()*0.4)
		}
		pair := avoidanceVectors(agents, AvoidanceParams{Strength: 1, Broadphase: BroadphasePairwise})
		tree := avoidanceVectors(agents, AvoidanceParams{Strength: 1, Broadphase: BroadphaseRTree})
		for i := range agents {
			if pair[i] != tree[i] {
				t.Fatalf("seed %d agent %d: pairwise %v != rtree %v", seed, i, pair[i], tree[i])
			}
		}
	}
}

func TestParseBroadphase(t *testing.T) {
	cases := map[string]Broadphase{"": BroadphasePairwise, "pairwise": BroadphasePairwise, "RTree": BroadphaseRTree}
	for in, want := range cases {
		got, err := ParseBroadphase(in)
		if err != nil || got != want {
			t.Fatalf("ParseBroadphase(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseBroadphase("grid"); !errors.Is(err, ErrInvalidParams) {
		t.Fatalf("expected ErrInvalidParams, got %v", err)
	}
}

func TestAvoidanceParams_Validate(t *testing.T) {
	bad := []AvoidanceParams{
		{Strength: -1},
		{Strength: math.NaN()},
		{Strength: math.Inf(1)},
		{Strength: 1, Broadphase: Broadphase(9)},
	}
	for _, p := range bad {
		if err := p.Validate(); !errors.Is(err, ErrInvalidParams) {
			t.Fatalf("%+v: expected ErrInvalidParams, got %v", p, err)
		}
	}
}
