package main

import (
	"flag"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"sort"
	"strings"

	"github.com/jakecoffman/cp"
	"github.com/sirupsen/logrus"

	"github.com/Garsondee/battlegrid/internal/config"
	"github.com/Garsondee/battlegrid/internal/nav"
	"github.com/Garsondee/battlegrid/internal/sim"
)

type runStats struct {
	runIndex int
	seed     int64

	agents int

	firstArrivalTick int
	lastArrivalTick  int

	attached    int
	rejected    int
	replans     int
	arrivals    int
	stillMoving int

	maxOverlap   float64
	overlapTicks int
	rejects      map[string]int
	stuck        map[string]struct{}
}

// scenario builds a populated world and the orders to issue on tick 0.
type scenario struct {
	name  string
	about string
	build func(rng *rand.Rand, base []sim.Option) (*sim.World, []sim.MoveOrder, error)
}

var scenarios = map[string]scenario{
	"crossing": {
		name:  "crossing",
		about: "two columns swap sides of an open field",
		build: buildCrossing,
	},
	"corridor": {
		name:  "corridor",
		about: "one group funnels through a single-cell gap in a wall",
		build: buildCorridor,
	},
}

func main() {
	var runs int
	var ticks int
	var seedBase int64
	var seedStep int64
	var scenarioName string
	var cfgPath string
	var dt float64
	var dump bool

	flag.IntVar(&runs, "runs", 5, "number of headless simulation runs")
	flag.IntVar(&ticks, "ticks", 600, "ticks per run")
	flag.Int64Var(&seedBase, "seed-base", 42, "base RNG seed for run 1")
	flag.Int64Var(&seedStep, "seed-step", 1, "seed increment between runs")
	flag.StringVar(&scenarioName, "scenario", "crossing", "scenario name ("+scenarioNames()+")")
	flag.StringVar(&cfgPath, "config", config.DefaultPath, "YAML config for movement and avoidance tuning")
	flag.Float64Var(&dt, "dt", 0.05, "seconds per tick")
	flag.BoolVar(&dump, "dump", false, "print the event log of every run")
	flag.Parse()

	if runs <= 0 {
		fmt.Println("error: -runs must be > 0")
		return
	}
	if ticks <= 0 {
		fmt.Println("error: -ticks must be > 0")
		return
	}
	if !(dt > 0) {
		fmt.Println("error: -dt must be > 0")
		return
	}
	sc, ok := scenarios[scenarioName]
	if !ok {
		fmt.Printf("error: unsupported scenario %q (supported: %s)\n", scenarioName, scenarioNames())
		return
	}

	cfg, err := config.LoadOptional(cfgPath)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	logger, err := cfg.Log.NewLogger(os.Stderr)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	base, err := tuningOptions(cfg, logger)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}

	fmt.Printf("=== Headless Movement Report ===\n")
	fmt.Printf("scenario=%s (%s) runs=%d ticks=%d dt=%.3f seed_base=%d seed_step=%d\n\n",
		sc.name, sc.about, runs, ticks, dt, seedBase, seedStep)

	all := make([]runStats, 0, runs)
	for i := 0; i < runs; i++ {
		seed := seedBase + int64(i)*seedStep
		stats, w, err := runScenario(sc, base, i+1, seed, ticks, dt)
		if err != nil {
			fmt.Printf("error: run %d: %v\n", i+1, err)
			return
		}
		all = append(all, stats)
		printRun(os.Stdout, stats)
		if dump {
			fmt.Println(w.Events().Dump())
		}
	}

	printAggregate(os.Stdout, all)
}

func scenarioNames() string {
	names := make([]string, 0, len(scenarios))
	for n := range scenarios {
		names = append(names, n)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// tuningOptions keeps the movement, avoidance and radius settings of cfg.
// Scenarios choose their own grid and spawns.
func tuningOptions(cfg config.Config, logger logrus.FieldLogger) ([]sim.Option, error) {
	av, err := cfg.AvoidanceParams()
	if err != nil {
		return nil, err
	}
	opts := []sim.Option{
		sim.WithMovement(cfg.Movement()),
		sim.WithAvoidance(av),
		sim.WithRadius(cfg.Agent.Radius),
		sim.WithPathOverlay(false),
	}
	if logger != nil {
		opts = append(opts, sim.WithLogger(logger))
	}
	return opts, nil
}

// jitter returns v nudged by up to ±amount on each axis.
func jitter(rng *rand.Rand, v cp.Vector, amount float64) cp.Vector {
	return cp.Vector{
		X: v.X + (rng.Float64()*2-1)*amount,
		Y: v.Y + (rng.Float64()*2-1)*amount,
	}
}

func buildCrossing(rng *rand.Rand, base []sim.Option) (*sim.World, []sim.MoveOrder, error) {
	const w, h, perSide = 40, 20, 6
	w0, err := sim.NewWorld(append([]sim.Option{sim.WithGridSize(w, h)}, base...)...)
	if err != nil {
		return nil, nil, err
	}
	var orders []sim.MoveOrder
	for i := 0; i < perSide; i++ {
		y := float64(7 + i)
		left := w0.Spawn(jitter(rng, cp.Vector{X: 2, Y: y}, 0.2))
		right := w0.Spawn(jitter(rng, cp.Vector{X: w - 3, Y: y}, 0.2))
		orders = append(orders,
			sim.NewMoveOrder(cp.Vector{X: w - 3, Y: y}, left),
			sim.NewMoveOrder(cp.Vector{X: 2, Y: y}, right),
		)
	}
	return w0, orders, nil
}

func buildCorridor(rng *rand.Rand, base []sim.Option) (*sim.World, []sim.MoveOrder, error) {
	const w, h, group = 30, 15, 6
	const wallX, gapY = 15, 7
	w0, err := sim.NewWorld(append([]sim.Option{sim.WithGridSize(w, h)}, base...)...)
	if err != nil {
		return nil, nil, err
	}
	t := w0.Terrain()
	for y := 0; y < h; y++ {
		if y != gapY {
			t.SetClassification(wallX, y, nav.Unwalkable)
		}
	}
	ids := make([]sim.AgentID, 0, group)
	for i := 0; i < group; i++ {
		ids = append(ids, w0.Spawn(jitter(rng, cp.Vector{X: 3, Y: float64(4 + i)}, 0.2)))
	}
	return w0, []sim.MoveOrder{sim.NewMoveOrder(cp.Vector{X: w - 4, Y: gapY}, ids...)}, nil
}

func runScenario(sc scenario, base []sim.Option, runIndex int, seed int64, ticks int, dt float64) (runStats, *sim.World, error) {
	rng := rand.New(rand.NewSource(seed))
	w, orders, err := sc.build(rng, base)
	if err != nil {
		return runStats{}, nil, err
	}
	for _, o := range orders {
		w.Issue(o)
	}

	maxOverlap := 0.0
	overlapTicks := 0
	for i := 0; i < ticks; i++ {
		w.Tick(dt)
		if o := maxPairOverlap(w.Agents()); o > 0 {
			overlapTicks++
			maxOverlap = math.Max(maxOverlap, o)
		}
	}

	rs := collectStats(w.Events().Entries(), w.Agents())
	rs.runIndex = runIndex
	rs.seed = seed
	rs.maxOverlap = maxOverlap
	rs.overlapTicks = overlapTicks
	return rs, w, nil
}

// maxPairOverlap returns the deepest penetration between any two agents.
func maxPairOverlap(agents []sim.AgentView) float64 {
	worst := 0.0
	for i := range agents {
		for j := i + 1; j < len(agents); j++ {
			d := agents[i].Pos.Distance(agents[j].Pos)
			if o := agents[i].Radius + agents[j].Radius - d; o > worst {
				worst = o
			}
		}
	}
	return worst
}

func collectStats(entries []sim.Event, agents []sim.AgentView) runStats {
	rs := runStats{
		agents:           len(agents),
		firstArrivalTick: firstTick(entries, "route", "arrived"),
		lastArrivalTick:  lastTick(entries, "route", "arrived"),
		rejects:          map[string]int{},
		stuck:            map[string]struct{}{},
	}
	for _, e := range entries {
		switch e.Category {
		case "order":
			if e.Key == sim.MoveAttached.String() {
				rs.attached++
			} else {
				rs.rejected++
				rs.rejects[e.Key]++
			}
		case "route":
			switch e.Key {
			case "arrived":
				rs.arrivals++
			case "replan":
				rs.replans++
			}
		}
	}
	for _, a := range agents {
		if a.State == sim.AgentFollowing {
			rs.stillMoving++
			rs.stuck[a.Label] = struct{}{}
		}
	}
	return rs
}

func firstTick(entries []sim.Event, category, key string) int {
	for _, e := range entries {
		if e.Category == category && e.Key == key {
			return e.Tick
		}
	}
	return -1
}

func lastTick(entries []sim.Event, category, key string) int {
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Category == category && entries[i].Key == key {
			return entries[i].Tick
		}
	}
	return -1
}

func printRun(out io.Writer, rs runStats) {
	fmt.Fprintf(out, "--- Run %d (seed=%d) ---\n", rs.runIndex, rs.seed)
	fmt.Fprintf(out, "orders: agents=%d attached=%d rejected=%d replans=%d rejects=[%s]\n",
		rs.agents, rs.attached, rs.rejected, rs.replans, joinCounts(rs.rejects))
	fmt.Fprintf(out, "arrivals: count=%d first=%d last=%d still_moving=%d\n",
		rs.arrivals, rs.firstArrivalTick, rs.lastArrivalTick, rs.stillMoving)
	fmt.Fprintf(out, "spacing: max_overlap=%.3f overlap_ticks=%d\n", rs.maxOverlap, rs.overlapTicks)
	fmt.Fprintf(out, "stuck_labels: %s\n", joinSet(rs.stuck))
	fmt.Fprintln(out)
}

func printAggregate(out io.Writer, all []runStats) {
	totalAttached := 0
	totalRejected := 0
	totalReplans := 0
	totalArrivals := 0
	totalAgents := 0
	totalStill := 0
	totalOverlapTicks := 0
	worstOverlap := 0.0

	firstTicks := make([]int, 0, len(all))
	lastTicks := make([]int, 0, len(all))
	stuckGlobal := map[string]struct{}{}
	rejects := map[string]int{}

	for _, rs := range all {
		totalAttached += rs.attached
		totalRejected += rs.rejected
		totalReplans += rs.replans
		totalArrivals += rs.arrivals
		totalAgents += rs.agents
		totalStill += rs.stillMoving
		totalOverlapTicks += rs.overlapTicks
		worstOverlap = math.Max(worstOverlap, rs.maxOverlap)
		if rs.firstArrivalTick >= 0 {
			firstTicks = append(firstTicks, rs.firstArrivalTick)
		}
		if rs.lastArrivalTick >= 0 {
			lastTicks = append(lastTicks, rs.lastArrivalTick)
		}
		for label := range rs.stuck {
			stuckGlobal[label] = struct{}{}
		}
		for k, v := range rs.rejects {
			rejects[k] += v
		}
	}

	arrivalRate := 0.0
	if totalAgents > 0 {
		arrivalRate = float64(totalArrivals) / float64(totalAgents) * 100
	}

	fmt.Fprintln(out, "=== Aggregate ===")
	fmt.Fprintf(out, "runs=%d\n", len(all))
	fmt.Fprintf(out, "avg_orders_per_run: attached=%.1f rejected=%.1f replans=%.1f\n",
		avg(totalAttached, len(all)), avg(totalRejected, len(all)), avg(totalReplans, len(all)))
	fmt.Fprintf(out, "arrival_rate=%.0f%% avg_still_moving=%.1f\n", arrivalRate, avg(totalStill, len(all)))
	fmt.Fprintf(out, "arrival_avg_ticks: first=%s last=%s\n", avgTickString(firstTicks), avgTickString(lastTicks))
	fmt.Fprintf(out, "spacing: worst_overlap=%.3f avg_overlap_ticks=%.1f\n", worstOverlap, avg(totalOverlapTicks, len(all)))
	fmt.Fprintf(out, "rejects: [%s]\n", joinCounts(rejects))
	fmt.Fprintf(out, "unique_stuck_labels=%d [%s]\n", len(stuckGlobal), joinSet(stuckGlobal))
}

func avg(sum int, n int) float64 {
	if n <= 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

func avgTickString(vals []int) string {
	if len(vals) == 0 {
		return "n/a"
	}
	sum := 0
	for _, v := range vals {
		sum += v
	}
	return fmt.Sprintf("%.1f", float64(sum)/float64(len(vals)))
}

func joinCounts(counts map[string]int) string {
	if len(counts) == 0 {
		return "none"
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s(%d)", k, counts[k]))
	}
	return strings.Join(parts, ",")
}

func joinSet(s map[string]struct{}) string {
	if len(s) == 0 {
		return "none"
	}
	labels := make([]string, 0, len(s))
	for k := range s {
		labels = append(labels, k)
	}
	sort.Strings(labels)
	return strings.Join(labels, ",")
}
