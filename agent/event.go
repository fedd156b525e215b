package agent

import (
	"context"
	"time"

	"github.com/nstehr/trackside/trackside-core/config"
	"github.com/nstehr/trackside/trackside-core/events"
	"github.com/nstehr/trackside/trackside-core/model"
	"github.com/nstehr/trackside/trackside-core/rules"
)

const sourceAutoFirst = "auto_first"

// handleEvent resolves a visible event-choice overlay. It short-circuits
// the rest of the tick.
func (e *Engine) handleEvent(ctx context.Context, res TickResult, st config.StrategyConfig) (TickResult, error) {
	ev := st.Events
	if ev.AutoFirstChoice {
		e.opts.Metrics.EventResolved(sourceAutoFirst, "")
		return e.act(ctx, res, model.SelectEventChoice(model.MinChoice))
	}
	if !ev.AutoEventMap {
		return e.waitManual(ctx, res, ev)
	}

	var name string
	err := e.sense(ctx, "event_name", func(ctx context.Context) (err error) {
		name, err = e.perception.ExtractEventName(ctx)
		return err
	})
	if err != nil {
		return res, err
	}
	var detected model.Category
	err = e.sense(ctx, "event_type", func(ctx context.Context) (err error) {
		detected, err = e.perception.DetectEventType(ctx)
		return err
	})
	if err != nil {
		return res, err
	}

	sensors, cancelled := e.lazySensors(ctx)
	resolution := events.Resolution{Choice: model.MinChoice, Source: events.SourceNoMatch}
	if r := e.resolverFor(ev); r != nil {
		resolution = r.Resolve(name, detected, sensors)
		if !resolution.Matched && ev.UnknownAction == config.UnknownSearchOther {
			resolution = r.ResolveOther(name, sensors)
		}
	}
	if err := *cancelled; err != nil {
		return res, err
	}

	if !resolution.Matched {
		e.log.Info("event not recognised", "title", name, "type", detected, "policy", ev.UnknownAction)
		if ev.UnknownAction == config.UnknownWaitManual {
			return e.waitManual(ctx, res, ev)
		}
		resolution.Choice = model.MinChoice
	}

	e.opts.Metrics.EventResolved(string(resolution.Source), string(resolution.Category))
	e.log.Info("event choice selected",
		"title", name,
		"event", resolution.Event,
		"category", resolution.Category,
		"score", resolution.Score,
		"choice", resolution.Choice,
		"source", resolution.Source,
		"rule", resolution.Rule,
	)
	return e.act(ctx, res, model.SelectEventChoice(resolution.Choice))
}

// lazySensors builds rule sensors that read perception only when a rule
// asks. Cancellation seen inside a read is reported through the returned
// pointer, since rule evaluation itself cannot fail.
func (e *Engine) lazySensors(ctx context.Context) (rules.Sensors, *error) {
	cancelled := new(error)
	record := func(err error) {
		if err != nil && *cancelled == nil {
			*cancelled = err
		}
	}
	return rules.Sensors{
		Day: func() int {
			d, err := e.readDate(ctx)
			record(err)
			return d.AbsoluteDay
		},
		Energy: func() (float64, float64) {
			c, m, err := e.readEnergy(ctx)
			record(err)
			return c, m
		},
		Mood: func() model.Mood {
			m, err := e.readMood(ctx)
			record(err)
			return m
		},
	}, cancelled
}

// resolverFor returns a resolver for the configured loadout, rebuilding the
// database only when the loadout changes.
func (e *Engine) resolverFor(ev config.EventSettings) *events.Resolver {
	src := e.opts.Events
	if src.Sources == nil {
		return nil
	}
	key := events.CacheKey(ev.UmaMusume, ev.SupportCards)
	if e.resolver != nil && key == e.resolverKey {
		return e.resolver
	}
	db, rebuilt := events.LoadOrBuild(src.Cache, src.Sources, ev.UmaMusume, ev.SupportCards)
	if rebuilt {
		e.opts.Metrics.CacheRebuilt()
	}
	e.resolver = events.NewResolver(db, ev.UmaMusume)
	e.resolverKey = key
	return e.resolver
}

// waitManual polls until the operator resolves the event or the configured
// wait runs out.
func (e *Engine) waitManual(ctx context.Context, res TickResult, ev config.EventSettings) (TickResult, error) {
	wait := time.Duration(ev.ManualWaitSeconds) * time.Second
	if wait <= 0 {
		wait = time.Duration(config.DefaultStrategy().Events.ManualWaitSeconds) * time.Second
	}
	e.log.Info("waiting for manual event choice", "maxWait", wait)

	deadline := time.Now().Add(wait)
	ticker := time.NewTicker(e.opts.ManualPoll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return res, e.checkpoint(ctx)
		case <-ticker.C:
		}
		visible, err := e.overlay(ctx, model.OverlayEventChoice)
		if err != nil {
			return res, err
		}
		if !visible {
			e.log.Info("manual event choice made")
			e.opts.Metrics.EventResolved("manual", "")
			return res, nil
		}
		if !time.Now().Before(deadline) {
			e.log.Warn("manual event wait timed out", "waited", wait)
			res.Stop = StopManualEventTimeout
			return res, nil
		}
	}
}
