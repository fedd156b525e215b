package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/nstehr/trackside/trackside-core/calendar"
	"github.com/nstehr/trackside/trackside-core/config"
	"github.com/nstehr/trackside/trackside-core/events"
	"github.com/nstehr/trackside/trackside-core/metrics"
	"github.com/nstehr/trackside/trackside-core/model"
	"github.com/nstehr/trackside/trackside-core/races"
	"github.com/nstehr/trackside/trackside-core/scoring"
)

// defaultGate is the training gate used whenever the active preset has none.
const defaultGate = 2.5

// EventSource supplies the event-map documents and the cache used to
// persist the built database between runs.
type EventSource struct {
	Sources *events.Sources
	Cache   events.Cache
}

type Options struct {
	// TickInterval is the minimum gap between ticks. Zero means unpaced.
	TickInterval time.Duration
	// ManualPoll is how often the event overlay is re-checked while waiting
	// for a manual choice.
	ManualPoll time.Duration
	Events     EventSource
	Metrics    *metrics.Registry
	Logger     *slog.Logger
}

func DefaultOptions() Options {
	return Options{TickInterval: 500 * time.Millisecond, ManualPoll: time.Second}
}

// TickResult describes what one tick did. Action is nil when the tick
// emitted nothing, for example while waiting for the lobby.
type TickResult struct {
	State      State
	Action     *model.Action
	Stop       StopReason
	Milestones []Milestone
}

// Status is the externally visible progress of a run.
type Status struct {
	Running    bool
	State      State
	Ticks      int
	Day        int
	LastAction string
	Stop       StopReason
}

// Engine runs the career loop on a single goroutine. Only Stop and Status
// may be called from other goroutines.
type Engine struct {
	perception Perception
	sink       ActionSink
	store      *config.Store
	catalog    *races.Catalog
	opts       Options
	log        *slog.Logger
	limiter    *rate.Limiter

	stop atomic.Bool

	// Confined to the loop goroutine.
	resolver      *events.Resolver
	resolverKey   string
	lobbyMisses   int
	raceFailedDay int
	prev          *careerSnapshot
	ticks         int

	mu     sync.Mutex
	status Status
}

func NewEngine(p Perception, sink ActionSink, store *config.Store, catalog *races.Catalog, opts Options) *Engine {
	if opts.ManualPoll <= 0 {
		opts.ManualPoll = time.Second
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	limit := rate.Inf
	if opts.TickInterval > 0 {
		limit = rate.Every(opts.TickInterval)
	}
	return &Engine{
		perception: p,
		sink:       sink,
		store:      store,
		catalog:    catalog,
		opts:       opts,
		log:        log,
		limiter:    rate.NewLimiter(limit, 1),
	}
}

// Stop requests a cooperative stop. The loop notices at its next checkpoint.
func (e *Engine) Stop() { e.stop.Store(true) }

func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

func (e *Engine) updateStatus(fn func(*Status)) {
	e.mu.Lock()
	fn(&e.status)
	e.mu.Unlock()
}

// checkpoint is consulted before and after every perception and action call.
func (e *Engine) checkpoint(ctx context.Context) error {
	if e.stop.Load() {
		return fmt.Errorf("stop requested: %w", model.ErrCancelled)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", model.ErrCancelled, err)
	}
	return nil
}

// Run ticks until a stop condition fires, Stop is called or ctx ends.
func (e *Engine) Run(ctx context.Context) StopReason {
	e.updateStatus(func(s *Status) { s.Running = true; s.Stop = StopNone })
	e.opts.Metrics.SetRunning(true)
	defer func() {
		e.updateStatus(func(s *Status) { s.Running = false })
		e.opts.Metrics.SetRunning(false)
	}()

	e.log.Info("career loop started")
	for {
		if err := e.checkpoint(ctx); err != nil {
			return e.terminate(StopRequested)
		}
		if err := e.limiter.Wait(ctx); err != nil {
			return e.terminate(StopRequested)
		}

		res, err := e.safeTick(ctx)
		switch {
		case errors.Is(err, model.ErrCancelled):
			return e.terminate(StopRequested)
		case err != nil:
			e.log.Error("tick failed", "tick", e.ticks, "error", err)
			continue
		}
		if res.Stop != StopNone {
			return e.terminate(res.Stop)
		}
	}
}

func (e *Engine) terminate(reason StopReason) StopReason {
	e.updateStatus(func(s *Status) { s.State = StateTerminal; s.Stop = reason })
	e.opts.Metrics.Stopped(string(reason))
	e.log.Info("career loop stopped", "reason", reason, "ticks", e.ticks)
	return reason
}

// safeTick keeps a panicking tick from taking the loop down.
func (e *Engine) safeTick(ctx context.Context) (res TickResult, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tick panic: %v", r)
		}
		e.opts.Metrics.Tick(res.State.String(), time.Since(start))
	}()
	return e.Tick(ctx)
}

// Tick runs one pass of the state machine and emits at most one action.
func (e *Engine) Tick(ctx context.Context) (TickResult, error) {
	e.ticks++
	e.updateStatus(func(s *Status) { s.Ticks = e.ticks })
	res := TickResult{State: StateIdle}

	if err := e.checkpoint(ctx); err != nil {
		return res, err
	}
	st := e.store.Strategy()
	sc := e.store.Scoring()

	res.State = StateCheckOverlay
	visible, err := e.overlay(ctx, model.OverlayEventChoice)
	if err != nil {
		return res, err
	}
	if visible {
		return e.handleEvent(ctx, res, st)
	}

	res.State = StateCheckLobby
	inLobby, err := e.overlay(ctx, model.OverlayLobby)
	if err != nil {
		return res, err
	}
	if !inLobby {
		e.lobbyMisses++
		limit := st.MaxLobbyAttempts
		e.log.Debug("lobby not detected", "attempt", e.lobbyMisses, "max", limit)
		if limit > 0 && e.lobbyMisses >= limit {
			res.Stop = StopLobbyNotFound
		}
		return res, nil
	}
	e.lobbyMisses = 0

	res.State = StateCheckDebuff
	debuffed, err := e.overlay(ctx, model.OverlayDebuff)
	if err != nil {
		return res, err
	}
	if debuffed {
		d, err := e.readDate(ctx)
		if err != nil {
			return res, err
		}
		if stopOnDebuff(st, d.AbsoluteDay) {
			res.Stop = StopInfirmary
			return res, nil
		}
		return e.act(ctx, res, model.VisitInfirmary())
	}

	res.State = StateUpdateState
	ec, err := e.buildContext(ctx, st, sc)
	if err != nil {
		return res, err
	}
	cur := takeSnapshot(ec)
	res.Milestones = detectMilestones(cur, e.prev)
	e.prev = &cur
	for _, m := range res.Milestones {
		e.log.Info("career milestone", "kind", m.Kind, "day", m.Day, "detail", m.Detail)
	}
	e.updateStatus(func(s *Status) { s.Day = ec.Day() })

	if reason := checkStops(ec); reason != StopNone {
		res.Stop = reason
		return res, nil
	}

	res.State = next(ec)
	switch res.State {
	case StateDecideFinale:
		if !isRaceDay(ec) {
			res.Stop = StopCareerComplete
			return res, nil
		}
		return e.race(ctx, res, ec, "")
	case StateDecideRaceDay:
		name := ""
		if e.catalog != nil {
			if r, ok := e.catalog.HighestGrade(ec.Snapshot.Date); ok {
				name = r.Name
			}
		}
		return e.race(ctx, res, ec, name)
	default:
		return e.decideNormal(ctx, res, ec)
	}
}

func (e *Engine) buildContext(ctx context.Context, st config.StrategyConfig, sc config.ScoringConfig) (EngineContext, error) {
	d, err := e.readDate(ctx)
	if err != nil {
		return EngineContext{}, err
	}
	current, max, err := e.readEnergy(ctx)
	if err != nil {
		return EngineContext{}, err
	}
	mood, err := e.readMood(ctx)
	if err != nil {
		return EngineContext{}, err
	}
	var turn model.Turn
	err = e.sense(ctx, "turn", func(ctx context.Context) (err error) {
		turn, err = e.perception.ReadTurn(ctx)
		return err
	})
	if err != nil {
		return EngineContext{}, err
	}

	snap := model.NewSnapshot(mood, current, max, turn, d)
	ec := newEngineContext(e.ticks, snap, st, sc)
	e.log.Debug("state updated",
		"date", calendar.Format(d),
		"day", d.AbsoluteDay,
		"stage", ec.Stage,
		"energy", fmt.Sprintf("%.0f/%.0f", snap.EnergyCurrent, snap.EnergyMax),
		"mood", mood,
		"raceDay", turn.RaceDay,
	)
	return ec, nil
}

// decideNormal covers ordinary days, branching on the energy band.
func (e *Engine) decideNormal(ctx context.Context, res TickResult, ec EngineContext) (TickResult, error) {
	band := energyBand(ec)
	rest := restAction(ec)
	if band == EnergyCritical {
		e.log.Info("energy critical, resting", "energy", ec.Snapshot.EnergyPercent())
		return e.act(ctx, res, rest)
	}

	if ec.Strategy.Kind == config.RaceOnly {
		if r, ok := e.eligibleRace(ec, ec.Strategy.AcceptsGrade); ok {
			return e.race(ctx, res, ec, r.Name)
		}
		e.log.Debug("no qualifying race, training instead", "strategy", ec.Strategy.Name)
	}

	if needsRecreation(ec) {
		e.log.Info("mood below minimum", "mood", ec.Snapshot.Mood, "minimum", ec.StrategyConfig.MinimumMood)
		return e.act(ctx, res, model.Recreation())
	}

	stats, err := e.readStats(ctx)
	if err != nil {
		return res, err
	}
	ec.Snapshot.Stats = stats
	obs, err := e.observe(ctx)
	if err != nil {
		return res, err
	}
	sctx := ec.ScoringContext()
	ranked := scoring.Evaluate(obs, sctx)
	anyRace := func(model.Grade) bool { return true }

	if band == EnergyLow {
		if c, ok := scoring.WitOnly(ranked, sctx); ok {
			return e.train(ctx, res, c, "wit_only")
		}
		if r, ok := e.eligibleRace(ec, anyRace); ok {
			return e.race(ctx, res, ec, r.Name)
		}
		return e.act(ctx, res, rest)
	}

	gate := ec.Strategy.Threshold
	if ec.Strategy.Kind == config.RaceOnly || gate <= 0 {
		gate = defaultGate
	}
	dec := scoring.Decide(ranked, sctx, gate)
	switch dec.Outcome {
	case scoring.OutcomeTrain:
		return e.train(ctx, res, dec.Candidate, dec.Policy)
	case scoring.OutcomePreferRaceOrRest:
		e.log.Info("energy shortage, skipping training", "shortage", ec.Snapshot.EnergyShortage())
		if r, ok := e.eligibleRace(ec, anyRace); ok {
			return e.race(ctx, res, ec, r.Name)
		}
		return e.act(ctx, res, rest)
	}
	if c, ok := scoring.FallbackSelection(ranked); ok {
		return e.train(ctx, res, c, "fallback")
	}
	return e.act(ctx, res, rest)
}

func (e *Engine) train(ctx context.Context, res TickResult, c scoring.Candidate, policy string) (TickResult, error) {
	e.log.Info("training selected", "stat", c.Stat, "score", c.Score, "policy", policy)
	return e.act(ctx, res, model.SelectTraining(c.Stat))
}

// eligibleRace returns the best eligible race today whose grade passes
// accept. A race that failed to start is not retried the same day.
func (e *Engine) eligibleRace(ec EngineContext, accept func(model.Grade) bool) (model.RaceRecord, bool) {
	if e.catalog == nil || e.raceFailedDay == ec.Day() {
		return model.RaceRecord{}, false
	}
	for _, r := range e.catalog.Eligible(ec.Snapshot.Date, ec.StrategyConfig.Filters) {
		if accept(r.Grade) {
			return r, true
		}
	}
	return model.RaceRecord{}, false
}

// race enters the race flow. When the sink reports failure the engine backs
// out of the race screens.
func (e *Engine) race(ctx context.Context, res TickResult, ec EngineContext, name string) (TickResult, error) {
	e.log.Info("entering race", "race", name, "date", calendar.Format(ec.Snapshot.Date))
	a := model.EnterRace(name)
	a.CancelOnRaceLimit = !ec.StrategyConfig.AllowContinuousRacing
	ok, err := e.perform(ctx, res.State, a)
	if err != nil {
		return res, err
	}
	res.Action = &a
	if ok {
		return res, nil
	}
	e.raceFailedDay = ec.Day()
	e.log.Warn("race flow failed, navigating back", "race", name)
	back := model.NavigateBack()
	if _, err := e.perform(ctx, res.State, back); err != nil {
		return res, err
	}
	res.Action = &back
	return res, nil
}

func (e *Engine) act(ctx context.Context, res TickResult, a model.Action) (TickResult, error) {
	if _, err := e.perform(ctx, res.State, a); err != nil {
		return res, err
	}
	res.Action = &a
	return res, nil
}

func (e *Engine) perform(ctx context.Context, state State, a model.Action) (bool, error) {
	if err := e.checkpoint(ctx); err != nil {
		return false, err
	}
	ok := e.sink.Perform(ctx, a)
	if err := e.checkpoint(ctx); err != nil {
		return ok, err
	}
	e.opts.Metrics.Decision(string(a.Kind), state.String())
	e.updateStatus(func(s *Status) { s.State = state; s.LastAction = a.String() })
	e.log.Info("action performed", "tick", e.ticks, "state", state, "action", a, "ok", ok)
	return ok, nil
}
