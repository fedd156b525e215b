package events

import (
	"log/slog"

	"github.com/nstehr/trackside/trackside-core/model"
	"github.com/nstehr/trackside/trackside-core/rules"
)

// Source says how a resolved choice was decided.
type Source string

const (
	SourceFixed    Source = "fixed"
	SourceRule     Source = "rule"
	SourceDefault  Source = "default"
	SourceNoMatch  Source = "no_match"
	SourceRuleFail Source = "rule_error"
)

// Resolution is the outcome of one lookup. Choice is always in 1..5.
type Resolution struct {
	Choice    int
	Matched   bool
	Event     string
	Category  model.Category
	Score     float64
	Threshold float64
	Rule      string
	Source    Source
}

// Resolver matches extracted titles against a built database.
type Resolver struct {
	db        Database
	character string
	base      float64
	engines   map[string]*rules.Engine
}

func NewResolver(db Database, character string) *Resolver {
	return &Resolver{
		db:        db,
		character: character,
		base:      DefaultThreshold,
		engines:   make(map[string]*rules.Engine),
	}
}

// searchOrder puts the detected category first, then the other searchable
// pools. The "other" pool is never part of a normal search.
func searchOrder(detected model.Category) []model.Category {
	order := make([]model.Category, 0, len(model.SearchCategories))
	for _, c := range model.SearchCategories {
		if c == detected {
			order = append(order, c)
		}
	}
	for _, c := range model.SearchCategories {
		if c != detected {
			order = append(order, c)
		}
	}
	return order
}

// Resolve finds the event named name and picks its choice. The first pool
// with an accepted match wins. s supplies lazy sensor readings for
// conditional events.
func (r *Resolver) Resolve(name string, detected model.Category, s rules.Sensors) Resolution {
	return r.resolveIn(name, searchOrder(detected), s)
}

// ResolveOther searches only the other-special-events pool.
func (r *Resolver) ResolveOther(name string, s rules.Sensors) Resolution {
	return r.resolveIn(name, []model.Category{model.CategoryOther}, s)
}

func (r *Resolver) resolveIn(name string, order []model.Category, s rules.Sensors) Resolution {
	if Normalize(name) == "" {
		return Resolution{Choice: model.MinChoice, Source: SourceNoMatch}
	}
	for _, cat := range order {
		m, ok := BestMatch(name, r.db[cat], r.base)
		if !ok {
			continue
		}
		res := Resolution{
			Matched:   true,
			Event:     m.Event.Name,
			Category:  cat,
			Score:     m.Score,
			Threshold: m.Threshold,
		}
		r.choose(&res, m.Event, s)
		slog.Debug("event resolved",
			"title", name,
			"event", res.Event,
			"category", cat,
			"score", res.Score,
			"threshold", res.Threshold,
			"choice", res.Choice,
			"source", res.Source)
		return res
	}
	slog.Debug("event not matched", "title", name, "pools", order)
	return Resolution{Choice: model.MinChoice, Source: SourceNoMatch}
}

func (r *Resolver) choose(res *Resolution, e model.EventRecord, s rules.Sensors) {
	if e.Choice != nil {
		res.Choice, res.Source = model.ClampChoice(*e.Choice), SourceFixed
		return
	}

	engine, err := r.engine(res.Category, e)
	if err != nil {
		slog.Warn("event rules failed to compile", "event", e.Name, "error", err)
		res.Choice, res.Source = model.MinChoice, SourceRuleFail
		if e.DefaultChoice != nil {
			res.Choice = model.ClampChoice(*e.DefaultChoice)
		}
		return
	}

	if s.Character == "" && selected(r.character) {
		s.Character = r.character
	}
	env := rules.NewEnv(s)
	choice, fired := engine.Choose(env)
	res.Choice = choice
	if fired != nil {
		res.Rule, res.Source = fired.Name, SourceRule
		return
	}
	res.Source = SourceDefault
	if e.NeedsMood() && s.Mood != nil && !env.MoodAtLeast("AWFUL") {
		slog.Debug("mood unknown, mood conditions skipped", "event", e.Name)
	}
}

func (r *Resolver) engine(cat model.Category, e model.EventRecord) (*rules.Engine, error) {
	key := string(cat) + "/" + e.Name
	if eng, ok := r.engines[key]; ok {
		return eng, nil
	}
	eng, err := rules.EngineFor(e)
	if err != nil {
		return nil, err
	}
	r.engines[key] = eng
	return eng, nil
}
