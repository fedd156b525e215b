package agent

import (
	"context"
	"fmt"

	"github.com/nstehr/trackside/trackside-core/calendar"
	"github.com/nstehr/trackside/trackside-core/model"
)

// sense wraps one perception call with checkpoints on both sides. A failed
// read is logged and swallowed; the caller keeps its default. Only
// cancellation is returned.
func (e *Engine) sense(ctx context.Context, sensor string, read func(context.Context) error) error {
	if err := e.checkpoint(ctx); err != nil {
		return err
	}
	err := read(ctx)
	if cerr := e.checkpoint(ctx); cerr != nil {
		return cerr
	}
	if err != nil {
		e.opts.Metrics.PerceptionFailed(sensor)
		e.log.Warn("perception failed", "sensor", sensor, "error", err)
	}
	return nil
}

func (e *Engine) overlay(ctx context.Context, o model.Overlay) (bool, error) {
	var visible bool
	err := e.sense(ctx, "overlay_"+string(o), func(ctx context.Context) error {
		v, err := e.perception.IsOverlayVisible(ctx, o)
		if err == nil {
			visible = v
		}
		return err
	})
	return visible, err
}

// readDate substitutes the fallback date when the reading is missing.
func (e *Engine) readDate(ctx context.Context) (model.CareerDate, error) {
	var d *model.CareerDate
	err := e.sense(ctx, "date", func(ctx context.Context) error {
		got, err := e.perception.ReadDate(ctx)
		if err != nil {
			return err
		}
		if got == nil {
			return fmt.Errorf("empty date reading: %w", model.ErrPerceptionUnavailable)
		}
		d = got
		return nil
	})
	if err != nil {
		return model.CareerDate{}, err
	}
	if d == nil {
		fb := calendar.Fallback()
		e.log.Error("date unavailable, using fallback", "fallback", calendar.Format(fb), "day", fb.AbsoluteDay)
		return fb, nil
	}
	return *d, nil
}

func (e *Engine) readEnergy(ctx context.Context) (current, max float64, err error) {
	current, max = 100, 100
	err = e.sense(ctx, "energy", func(ctx context.Context) error {
		c, m, err := e.perception.ReadEnergy(ctx)
		if err != nil {
			return err
		}
		if m <= 0 {
			return fmt.Errorf("energy max %v: %w", m, model.ErrPerceptionUnavailable)
		}
		current, max = c, m
		return nil
	})
	return current, max, err
}

func (e *Engine) readMood(ctx context.Context) (model.Mood, error) {
	mood := model.MoodUnknown
	err := e.sense(ctx, "mood", func(ctx context.Context) error {
		m, err := e.perception.ReadMood(ctx)
		if err == nil {
			mood = m
		}
		return err
	})
	return mood, err
}

func (e *Engine) readStats(ctx context.Context) (map[model.Stat]int, error) {
	var stats map[model.Stat]int
	err := e.sense(ctx, "stats", func(ctx context.Context) (err error) {
		stats, err = e.perception.ReadStats(ctx)
		return err
	})
	return stats, err
}

// observe reads every training facility. An unreadable facility counts as
// empty so it scores zero rather than vanishing from the ranking.
func (e *Engine) observe(ctx context.Context) ([]model.TrainingObservation, error) {
	obs := make([]model.TrainingObservation, 0, len(model.AllStats))
	for _, s := range model.AllStats {
		o := model.TrainingObservation{Stat: s}
		err := e.sense(ctx, "training", func(ctx context.Context) error {
			got, err := e.perception.ReadTrainingSupport(ctx, s)
			if err == nil {
				o = got
				o.Stat = s
			}
			return err
		})
		if err != nil {
			return nil, err
		}
		obs = append(obs, o)
	}
	return obs, nil
}
