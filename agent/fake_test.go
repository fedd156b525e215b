package agent

import (
	"context"
	"errors"
	"sync"

	"github.com/nstehr/trackside/trackside-core/config"
	"github.com/nstehr/trackside/trackside-core/model"
	"github.com/nstehr/trackside/trackside-core/races"
)

var errSensor = errors.New("sensor offline")

// fakePerception serves canned readings. Zero values mean "in the lobby,
// nothing special on screen".
type fakePerception struct {
	mu sync.Mutex

	overlays  map[model.Overlay]bool
	mood      model.Mood
	current   float64
	max       float64
	turn      model.Turn
	date      *model.CareerDate
	training  map[model.Stat]model.TrainingObservation
	stats     map[model.Stat]int
	eventName string
	eventType model.Category

	failing map[string]bool
	calls   map[string]int
	onCall  func(sensor string)
}

func newFakePerception(d model.CareerDate, current float64) *fakePerception {
	return &fakePerception{
		overlays: map[model.Overlay]bool{model.OverlayLobby: true},
		mood:     model.MoodGood,
		current:  current,
		max:      100,
		turn:     model.Turn{Days: 5},
		date:     &d,
		training: map[model.Stat]model.TrainingObservation{},
		failing:  map[string]bool{},
		calls:    map[string]int{},
	}
}

func (f *fakePerception) hit(sensor string) error {
	f.mu.Lock()
	f.calls[sensor]++
	fail := f.failing[sensor]
	hook := f.onCall
	f.mu.Unlock()
	if hook != nil {
		hook(sensor)
	}
	if fail {
		return errSensor
	}
	return nil
}

func (f *fakePerception) count(sensor string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[sensor]
}

func (f *fakePerception) setOverlay(o model.Overlay, v bool) {
	f.mu.Lock()
	f.overlays[o] = v
	f.mu.Unlock()
}

func (f *fakePerception) ReadMood(ctx context.Context) (model.Mood, error) {
	if err := f.hit("mood"); err != nil {
		return 0, err
	}
	return f.mood, nil
}

func (f *fakePerception) ReadEnergy(ctx context.Context) (float64, float64, error) {
	if err := f.hit("energy"); err != nil {
		return 0, 0, err
	}
	return f.current, f.max, nil
}

func (f *fakePerception) ReadTurn(ctx context.Context) (model.Turn, error) {
	if err := f.hit("turn"); err != nil {
		return model.Turn{}, err
	}
	return f.turn, nil
}

func (f *fakePerception) ReadDate(ctx context.Context) (*model.CareerDate, error) {
	if err := f.hit("date"); err != nil {
		return nil, err
	}
	return f.date, nil
}

func (f *fakePerception) ReadTrainingSupport(ctx context.Context, s model.Stat) (model.TrainingObservation, error) {
	if err := f.hit("training"); err != nil {
		return model.TrainingObservation{}, err
	}
	return f.training[s], nil
}

func (f *fakePerception) ReadStats(ctx context.Context) (map[model.Stat]int, error) {
	if err := f.hit("stats"); err != nil {
		return nil, err
	}
	return f.stats, nil
}

func (f *fakePerception) IsOverlayVisible(ctx context.Context, o model.Overlay) (bool, error) {
	if err := f.hit("overlay_" + string(o)); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.overlays[o], nil
}

func (f *fakePerception) ExtractEventName(ctx context.Context) (string, error) {
	if err := f.hit("event_name"); err != nil {
		return "", err
	}
	return f.eventName, nil
}

func (f *fakePerception) DetectEventType(ctx context.Context) (model.Category, error) {
	if err := f.hit("event_type"); err != nil {
		return "", err
	}
	return f.eventType, nil
}

// fakeSink records every action. result decides the reported outcome.
type fakeSink struct {
	mu      sync.Mutex
	actions []model.Action
	result  func(model.Action) bool
}

func (s *fakeSink) Perform(ctx context.Context, a model.Action) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions = append(s.actions, a)
	if s.result != nil {
		return s.result(a)
	}
	return true
}

func (s *fakeSink) performed() []model.Action {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Action(nil), s.actions...)
}

func testCatalog() *races.Catalog {
	return races.New([]model.RaceRecord{
		{Name: "Kikuka Sho", Year: "Classic Year", Date: "October 2", GradeText: "G1", TrackText: "Turf", DistanceText: "3000m (Long)"},
		{Name: "Fuchu Himba Stakes", Year: "Classic Year", Date: "October 2", GradeText: "G2", TrackText: "Turf", DistanceText: "1800m"},
		{Name: "Musashino Stakes", Year: "Classic Year", Date: "October 1", GradeText: "G3", TrackText: "Dirt", DistanceText: "1600m"},
		{Name: "Junior Stakes", Year: "Junior Year", Date: "May 2", GradeText: "G1", TrackText: "Turf", DistanceText: "1600m"},
	})
}

func newTestEngine(p Perception, sink ActionSink, st config.StrategyConfig) *Engine {
	store := config.NewStaticStore(config.DefaultScoring(), st)
	return NewEngine(p, sink, store, testCatalog(), Options{})
}

func cards(t model.CardType, n int) map[model.CardType]int {
	return map[model.CardType]int{t: n}
}
