package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/jakecoffman/cp"

	"github.com/Garsondee/battlegrid/internal/config"
	"github.com/Garsondee/battlegrid/internal/sim"
)

func testBase(t *testing.T) []sim.Option {
	t.Helper()
	opts, err := tuningOptions(config.Default(), nil)
	if err != nil {
		t.Fatal(err)
	}
	return opts
}

func TestCollectStats_CountsOrdersAndArrivals(t *testing.T) {
	entries := []sim.Event{
		{Tick: 1, Agent: "U0", Category: "order", Key: "attached"},
		{Tick: 1, Agent: "U1", Category: "order", Key: "unreachable"},
		{Tick: 2, Agent: "U2", Category: "order", Key: "unreachable"},
		{Tick: 4, Agent: "U0", Category: "route", Key: "replan"},
		{Tick: 9, Agent: "U0", Category: "route", Key: "arrived"},
		{Tick: 12, Agent: "U3", Category: "route", Key: "arrived"},
	}
	agents := []sim.AgentView{
		{Label: "U0", State: sim.AgentIdle},
		{Label: "U1", State: sim.AgentFollowing},
	}

	rs := collectStats(entries, agents)
	if rs.attached != 1 || rs.rejected != 2 || rs.rejects["unreachable"] != 2 {
		t.Fatalf("order counts wrong: %+v", rs)
	}
	if rs.replans != 1 || rs.arrivals != 2 {
		t.Fatalf("route counts wrong: replans=%d arrivals=%d", rs.replans, rs.arrivals)
	}
	if rs.firstArrivalTick != 9 || rs.lastArrivalTick != 12 {
		t.Fatalf("arrival ticks %d..%d, want 9..12", rs.firstArrivalTick, rs.lastArrivalTick)
	}
	if rs.stillMoving != 1 {
		t.Fatalf("expected one agent still moving, got %d", rs.stillMoving)
	}
	if _, ok := rs.stuck["U1"]; !ok {
		t.Fatal("U1 should be reported as stuck")
	}
}

func TestFirstTick_MissingIsNegative(t *testing.T) {
	if got := firstTick(nil, "route", "arrived"); got != -1 {
		t.Fatalf("firstTick on empty log = %d", got)
	}
	if got := lastTick(nil, "route", "arrived"); got != -1 {
		t.Fatalf("lastTick on empty log = %d", got)
	}
}

func TestMaxPairOverlap(t *testing.T) {
	agents := []sim.AgentView{
		{Pos: cp.Vector{X: 0, Y: 0}, Radius: 0.5},
		{Pos: cp.Vector{X: 0.75, Y: 0}, Radius: 0.5},
		{Pos: cp.Vector{X: 5, Y: 5}, Radius: 0.5},
	}
	if got := maxPairOverlap(agents); got < 0.249 || got > 0.251 {
		t.Fatalf("overlap = %v, want 0.25", got)
	}
	if got := maxPairOverlap(agents[2:]); got != 0 {
		t.Fatalf("single agent overlap = %v", got)
	}
}

func TestRunScenario_SameSeedSameResult(t *testing.T) {
	base := testBase(t)
	a, _, err := runScenario(scenarios["crossing"], base, 1, 7, 120, 0.05)
	if err != nil {
		t.Fatal(err)
	}
	b, _, err := runScenario(scenarios["crossing"], base, 1, 7, 120, 0.05)
	if err != nil {
		t.Fatal(err)
	}
	if a.arrivals != b.arrivals || a.maxOverlap != b.maxOverlap || a.lastArrivalTick != b.lastArrivalTick {
		t.Fatalf("runs diverged: %+v vs %+v", a, b)
	}
	if a.attached != 12 || a.rejected != 0 {
		t.Fatalf("expected all 12 orders attached, got attached=%d rejected=%d", a.attached, a.rejected)
	}
}

func TestRunScenario_CorridorRoutesThroughGap(t *testing.T) {
	rs, w, err := runScenario(scenarios["corridor"], testBase(t), 1, 3, 1, 0.05)
	if err != nil {
		t.Fatal(err)
	}
	if rs.attached != 6 {
		t.Fatalf("expected six attached orders, got %d (%v)", rs.attached, rs.rejects)
	}
	for _, a := range w.Agents() {
		through := false
		for _, c := range a.Route {
			if c.X == 15 {
				if c.Y != 7 {
					t.Fatalf("%s crosses the wall at (%d,%d)", a.Label, c.X, c.Y)
				}
				through = true
			}
		}
		if !through {
			t.Fatalf("%s route never crosses the wall column", a.Label)
		}
	}
}

func TestPrintAggregate(t *testing.T) {
	all := []runStats{
		{agents: 4, attached: 4, arrivals: 4, firstArrivalTick: 10, lastArrivalTick: 20, maxOverlap: 0.1,
			rejects: map[string]int{}, stuck: map[string]struct{}{}},
		{agents: 4, attached: 3, rejected: 1, arrivals: 2, stillMoving: 1, firstArrivalTick: 12, lastArrivalTick: 30,
			maxOverlap: 0.3, rejects: map[string]int{"unreachable": 1}, stuck: map[string]struct{}{"U2": {}}},
	}
	var buf bytes.Buffer
	printAggregate(&buf, all)
	out := buf.String()
	for _, want := range []string{
		"runs=2",
		"arrival_rate=75%",
		"first=11.0 last=25.0",
		"worst_overlap=0.300",
		"unreachable(1)",
		"unique_stuck_labels=1 [U2]",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("aggregate output missing %q:\n%s", want, out)
		}
	}
}
