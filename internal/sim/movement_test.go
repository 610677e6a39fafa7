package sim

import (
	"errors"
	"testing"

	"github.com/jakecoffman/cp"

	"github.com/Garsondee/battlegrid/internal/nav"
)

func TestMovement_ThreeCellRoute(t *testing.T) {
	w := newTestWorld(t, WithAgent(0, 0))
	out := w.Move(NewMoveOrder(cp.Vector{X: 2, Y: 0}, 0))
	if len(out) != 1 || out[0].Result != MoveAttached || out[0].Steps != 3 {
		t.Fatalf("unexpected outcome %+v", out)
	}
	a, _ := w.Agent(0)
	if a.Cursor() != 1 {
		t.Fatalf("cursor should skip the cell the agent stands on, got %d", a.Cursor())
	}

	cursors := runTicks(w, 6, 0)
	for i := 1; i < len(cursors); i++ {
		if cursors[i] < cursors[i-1] && cursors[i] != 0 {
			t.Fatalf("cursor went backwards: %v", cursors)
		}
	}
	if a.State() != AgentIdle {
		dumpEvents(t, w)
		t.Fatalf("expected idle after 6 ticks, got %s (cursors %v)", a.State(), cursors)
	}
	if !near(a.Position(), cp.Vector{X: 2, Y: 0}, 1e-9) {
		t.Fatalf("expected to stop on (2,0), got %v", a.Position())
	}
	if got := len(w.Events().Filter("route", "arrived")); got != 1 {
		t.Fatalf("expected one arrival event, got %d", got)
	}
}

func TestMovement_WaypointTickDoesNotMove(t *testing.T) {
	w := newTestWorld(t, WithAgent(0, 0))
	w.Move(NewMoveOrder(cp.Vector{X: 2, Y: 0}, 0))
	a, _ := w.Agent(0)

	w.Tick(testDT) // (0.5,0)
	w.Tick(testDT) // (1,0)
	before := a.Position()
	w.Tick(testDT) // reaches waypoint 1
	if a.Position() != before {
		t.Fatalf("agent moved on the waypoint tick: %v → %v", before, a.Position())
	}
	if a.Cursor() != 2 {
		t.Fatalf("expected cursor 2, got %d", a.Cursor())
	}
}

func TestMovement_StepNeverOvershoots(t *testing.T) {
	w := newTestWorld(t, WithAgent(0, 0))
	w.Move(NewMoveOrder(cp.Vector{X: 1, Y: 0}, 0))
	a, _ := w.Agent(0)

	w.Tick(5) // 50 units of travel budget
	if !near(a.Position(), cp.Vector{X: 1, Y: 0}, 1e-9) {
		t.Fatalf("large dt overshot the waypoint: %v", a.Position())
	}
	w.Tick(5)
	if a.State() != AgentIdle {
		t.Fatalf("expected arrival, got %s", a.State())
	}
}

func TestMovement_SingleCellRoutePullsOntoAnchor(t *testing.T) {
	w := newTestWorld(t, WithAgent(3.3, 0.2))
	out := w.Move(NewMoveOrder(cp.Vector{X: 3, Y: 0}, 0))
	if out[0].Result != MoveAttached || out[0].Steps != 1 {
		t.Fatalf("expected a single-cell route, got %+v", out[0])
	}
	runUntilIdle(w, 20)
	a, _ := w.Agent(0)
	if !near(a.Position(), cp.Vector{X: 3, Y: 0}, DefaultArriveEpsilon) {
		t.Fatalf("expected to settle on (3,0), got %v", a.Position())
	}
}

func TestMovement_IdleAgentStaysPut(t *testing.T) {
	w := newTestWorld(t, WithAgent(4, 4))
	runTicks(w, 10, 0)
	a, _ := w.Agent(0)
	if a.Position() != (cp.Vector{X: 4, Y: 4}) {
		t.Fatalf("idle agent drifted to %v", a.Position())
	}
}

func TestMovement_Replan(t *testing.T) {
	w := newTestWorld(t, WithAgent(0, 0))
	w.Move(NewMoveOrder(cp.Vector{X: 10, Y: 0}, 0))
	runTicks(w, 3, 0)

	out := w.Move(NewMoveOrder(cp.Vector{X: 0, Y: 5}, 0))
	if out[0].Result != MoveAttached {
		t.Fatalf("replan failed: %+v", out[0])
	}
	a, _ := w.Agent(0)
	goal, ok := a.Route().Goal()
	if !ok || !goal.SameCoord(nav.Cell{X: 0, Y: 5}) {
		t.Fatalf("route goal should be (0,5), got %+v", goal)
	}
	if len(w.Events().Filter("route", "replan")) != 1 {
		t.Fatal("expected a replan event")
	}
	runUntilIdle(w, 200)
	if !near(a.Position(), cp.Vector{X: 0, Y: 5}, 1e-9) {
		t.Fatalf("expected to end on (0,5), got %v", a.Position())
	}
}

func TestMovementParams_Validate(t *testing.T) {
	bad := []MovementParams{
		{Speed: 0, ArriveEpsilon: 0.1},
		{Speed: -1, ArriveEpsilon: 0.1},
		{Speed: 10, ArriveEpsilon: 0},
	}
	for _, p := range bad {
		if err := p.Validate(); !errors.Is(err, ErrInvalidParams) {
			t.Fatalf("%+v: expected ErrInvalidParams, got %v", p, err)
		}
	}
	if err := DefaultMovement().Validate(); err != nil {
		t.Fatalf("default movement rejected: %v", err)
	}
}
