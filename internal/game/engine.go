// Package game runs the agent: it localizes itself on the ship, then tracks
// and catches a hidden target using a noisy proximity detector.
//
// An Engine is single-threaded and turn-based. Each call to Step performs
// exactly one sense, move or detect action and returns. All randomness comes
// from one seeded *rand.Rand, so a fixed topology and seed replay exactly.
package game

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/Garsondee/Rat-Sense/internal/grid"
)

// Phase is the engine's top-level state.
type Phase uint8

const (
	PhaseLocalizing Phase = iota
	PhaseTracking
	PhaseCaught
)

func (p Phase) String() string {
	switch p {
	case PhaseLocalizing:
		return "localizing"
	case PhaseTracking:
		return "tracking"
	case PhaseCaught:
		return "caught"
	default:
		return "unknown"
	}
}

// Counters tallies actions over the whole run.
type Counters struct {
	Movements  int // every attempted move, successful or not
	Sensing    int
	Detections int
	Pings      int
}

// TickResult reports what one Step did.
type TickResult struct {
	Tick        int
	Phase       Phase // phase the action ran in
	Action      ActionKind
	Description string
	Direction   grid.Direction
	Moved       bool
	Pinged      bool
	Localized   bool // localization finished this tick
	Failsafe    bool // ... by forced collapse
	Caught      bool
	Stuck       bool
	Warning     error // recoverable conditions, joined
}

// Engine owns the ship, the true agent and target cells, and the agent's
// estimates of both.
type Engine struct {
	topo   *grid.Topology
	cfg    Config
	rng    *rand.Rand
	log    *slog.Logger
	simLog *SimLog
	policy MovePolicy

	agent, target           grid.Cell
	agentFixed, targetFixed bool

	phase     Phase
	tick      int
	phaseTick int
	visited   []bool
	counters  Counters

	loc *Localizer
	trk *Tracker

	last TickResult
}

// New builds an engine on topo. A nil topo generates a ship of
// cfg.Dimension from the engine's random source. Invalid configuration is
// rejected here; Step never fails.
func New(topo *grid.Topology, cfg Config, opts ...Option) (*Engine, error) {
	if topo != nil {
		cfg.Dimension = topo.Dimension()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:    cfg,
		rng:    rand.New(rand.NewSource(cfg.Seed)), // #nosec G404 -- simulation randomness
		log:    slog.New(slog.DiscardHandler),
		simLog: NewSimLog(false),
	}
	for _, o := range opts {
		if o.kind == optInfra {
			o.fn(e)
		}
	}

	if topo == nil {
		var err error
		topo, err = grid.GenerateShip(cfg.Dimension, e.rng)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	e.topo = topo

	if e.policy == nil {
		p, err := NewPolicy(cfg)
		if err != nil {
			return nil, err
		}
		e.policy = p
	}

	for _, o := range opts {
		if o.kind == optPlacement {
			o.fn(e)
		}
	}
	if err := e.place(); err != nil {
		return nil, err
	}

	e.visited = make([]bool, topo.Size())
	e.visited[topo.Index(e.agent)] = true
	e.loc = NewLocalizer(topo, e.rng, cfg.FailsafeTicks)
	e.trk = NewTracker(topo, cfg, e.policy, e.rng, e.visited)
	e.last = TickResult{Tick: -1, Phase: PhaseLocalizing, Description: "Initialized"}

	e.log.Info("engine ready",
		"dimension", topo.Dimension(),
		"open_cells", topo.OpenCount(),
		"policy", e.policy.Name(),
		"agent", e.agent.String(),
		"target", e.target.String())
	return e, nil
}

// place puts the agent on a random open cell and the target on a random open
// cell at least MinSeparation away, falling back to the farthest open cell.
func (e *Engine) place() error {
	open := e.topo.OpenCells()
	if e.agentFixed {
		if !e.topo.IsOpen(e.agent) {
			return fmt.Errorf("%w: agent cell %v is not open", ErrInvalidConfig, e.agent)
		}
	} else {
		e.agent = open[e.rng.Intn(len(open))]
	}

	if e.targetFixed {
		if !e.topo.IsOpen(e.target) {
			return fmt.Errorf("%w: target cell %v is not open", ErrInvalidConfig, e.target)
		}
		return nil
	}

	var far []grid.Cell
	farthest, farthestD := open[0], -1
	for _, c := range open {
		d := grid.Manhattan(c, e.agent)
		if d >= e.cfg.MinSeparation {
			far = append(far, c)
		}
		if d > farthestD {
			farthest, farthestD = c, d
		}
	}
	if len(far) == 0 {
		e.target = farthest
		return nil
	}
	e.target = far[e.rng.Intn(len(far))]
	return nil
}

// Step performs one action. After the target is caught further calls are
// no-ops that return the terminal result.
func (e *Engine) Step() TickResult {
	if e.phase == PhaseCaught {
		return e.last
	}

	res := TickResult{Tick: e.tick, Phase: e.phase}
	switch e.phase {
	case PhaseLocalizing:
		e.stepLocalize(&res)
	case PhaseTracking:
		e.stepTrack(&res)
	}

	if res.Warning != nil {
		e.log.Warn("recoverable condition", "tick", res.Tick, "phase", res.Phase.String(), "err", res.Warning)
		e.simLog.Add(res.Tick, res.Phase.String(), CatWarning, warningKey(res.Warning), res.Warning.Error(), 0)
	}
	e.log.Debug("tick",
		"tick", res.Tick,
		"phase", res.Phase.String(),
		"action", res.Action.String(),
		"desc", res.Description)

	e.tick++
	e.last = res
	return res
}

func (e *Engine) stepLocalize(res *TickResult) {
	out := e.loc.Step(e.agent, e.phaseTick)
	e.phaseTick++

	res.Action = out.Action
	res.Description = out.Description
	res.Direction = out.Direction
	res.Moved = out.Moved
	res.Warning = out.Warning

	phase := PhaseLocalizing.String()
	switch out.Action {
	case ActionSense:
		e.counters.Sensing++
		e.simLog.Add(res.Tick, phase, CatSense, "blocked", out.Description, float64(out.Sensed))
	case ActionMove:
		e.counters.Movements++
		key := "failed"
		if out.Moved {
			key = "success"
			e.agent = out.Agent
			e.visited[e.topo.Index(e.agent)] = true
		}
		e.simLog.Add(res.Tick, phase, CatMove, key, out.Direction.String(), float64(out.Candidates))
	}

	if out.Localized {
		res.Localized = true
		res.Failsafe = out.Failsafe
		est, _ := e.loc.Estimate()
		e.simLog.Add(res.Tick, phase, CatPhase, "localized", est.String(), float64(res.Tick))
		e.log.Info("localized", "tick", res.Tick, "estimate", est.String(), "failsafe", out.Failsafe)
		e.enterPhase(PhaseTracking)
		if e.agent == e.target {
			e.catch(res)
		}
	}
}

func (e *Engine) stepTrack(res *TickResult) {
	out := e.trk.Step(e.agent, e.target, e.phaseTick)
	e.phaseTick++

	res.Action = out.Action
	res.Description = out.Description
	res.Direction = out.Direction
	res.Moved = out.Moved
	res.Pinged = out.Pinged
	res.Stuck = out.Stuck
	res.Warning = out.Warning

	phase := PhaseTracking.String()
	switch out.Action {
	case ActionDetect:
		e.counters.Detections++
		key := "no_ping"
		if out.Pinged {
			e.counters.Pings++
			key = "ping"
		}
		e.simLog.Add(res.Tick, phase, CatDetect, key, fmt.Sprintf("distance=%d", grid.Manhattan(e.agent, e.target)), 0)
		e.target = out.Target
	case ActionMove:
		if out.Moved {
			e.counters.Movements++
			e.agent = out.Agent
			// Dead-reckon the estimate along with the move.
			if err := e.loc.Candidates().Shift(out.Direction); err != nil {
				res.Warning = errors.Join(res.Warning, fmt.Errorf("dead reckoning: %w", err))
			}
			e.simLog.Add(res.Tick, phase, CatMove, out.Reason, out.Direction.String(), 0)
		} else if out.Stuck {
			e.simLog.Add(res.Tick, phase, CatMove, "stuck", e.agent.String(), 0)
		}
	}

	b := e.trk.Belief()
	e.simLog.AddVerbose(res.Tick, phase, CatBelief, "max", b.MostProbable().String(), b.Max())
	e.simLog.AddVerbose(res.Tick, phase, CatBelief, "entropy", "", b.Entropy())

	if out.Caught {
		e.catch(res)
	}
}

func (e *Engine) catch(res *TickResult) {
	res.Caught = true
	res.Description = "Successfully caught the target!"
	e.simLog.Add(res.Tick, e.phase.String(), CatPhase, "caught", e.target.String(), float64(res.Tick))
	e.log.Info("target caught", "tick", res.Tick, "cell", e.target.String(),
		"movements", e.counters.Movements, "detections", e.counters.Detections)
	e.enterPhase(PhaseCaught)
}

func (e *Engine) enterPhase(p Phase) {
	e.phase = p
	e.phaseTick = 0
}

func warningKey(err error) string {
	switch {
	case errors.Is(err, ErrStuck):
		return "stuck"
	case errors.Is(err, ErrUnreachable):
		return "unreachable"
	default:
		return "inconsistent"
	}
}

// RunTicks advances the engine n ticks.
func (e *Engine) RunTicks(n int) {
	for i := 0; i < n; i++ {
		e.Step()
	}
}

// RunUntil advances up to maxTicks, stopping early once predicate holds for
// the post-tick snapshot. Returns the tick at which it held, or -1.
func (e *Engine) RunUntil(predicate func(Snapshot) bool, maxTicks int) int {
	for i := 0; i < maxTicks; i++ {
		res := e.Step()
		if predicate(e.Snapshot()) {
			return res.Tick
		}
	}
	return -1
}

// RunUntilCaught advances until the target is caught and returns the catching
// tick, or -1 if maxTicks pass first.
func (e *Engine) RunUntilCaught(maxTicks int) int {
	for i := 0; i < maxTicks; i++ {
		if res := e.Step(); res.Caught {
			return res.Tick
		}
	}
	return -1
}

// Topology returns the ship.
func (e *Engine) Topology() *grid.Topology { return e.topo }

// Config returns the configuration the engine was built with.
func (e *Engine) Config() Config { return e.cfg }

// Phase returns the current phase.
func (e *Engine) Phase() Phase { return e.phase }

// Tick returns the number of ticks executed so far.
func (e *Engine) Tick() int { return e.tick }

// Counters returns the action tallies.
func (e *Engine) Counters() Counters { return e.counters }

// PolicyName returns the active movement policy's name.
func (e *Engine) PolicyName() string { return e.policy.Name() }

// SimLog returns the structured event log.
func (e *Engine) SimLog() *SimLog { return e.simLog }
