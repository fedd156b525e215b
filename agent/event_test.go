package agent

import (
	"testing"
	"time"

	"github.com/nstehr/trackside/trackside-core/config"
	"github.com/nstehr/trackside/trackside-core/events"
	"github.com/nstehr/trackside/trackside-core/model"
)

func intPtr(v int) *int { return &v }

func eventSources() *events.Sources {
	return &events.Sources{
		Scenario: []model.EventRecord{
			{Name: "Extra Training", Choice: intPtr(2)},
			{Name: "Dance Lesson", DefaultChoice: intPtr(3), Conditions: []model.ChoiceCondition{
				{Slot: 2, Kind: model.CondEnergyLTE, Number: 50},
			}},
		},
		Other: []model.EventRecord{
			{Name: "Mysterious Stranger", Choice: intPtr(4)},
		},
	}
}

func eventEngine(p *fakePerception, st config.StrategyConfig) *Engine {
	store := config.NewStaticStore(config.DefaultScoring(), st)
	return NewEngine(p, &fakeSink{}, store, testCatalog(), Options{
		ManualPoll: 10 * time.Millisecond,
		Events:     EventSource{Sources: eventSources()},
	})
}

func mapStrategy(unknown config.UnknownEventAction) config.StrategyConfig {
	st := config.DefaultStrategy()
	st.Events.AutoFirstChoice = false
	st.Events.AutoEventMap = true
	st.Events.UnknownAction = unknown
	return st
}

func eventScreen(name string, cat model.Category, energy float64) *fakePerception {
	p := newFakePerception(dateOf(model.Classic, 4, model.Early), energy)
	p.setOverlay(model.OverlayEventChoice, true)
	p.eventName = name
	p.eventType = cat
	return p
}

func TestEvent_AutoFirstChoice(t *testing.T) {
	p := eventScreen("Extra Training", model.CategoryScenario, 100)
	e := eventEngine(p, config.DefaultStrategy())

	res := mustTick(t, e)
	if res.State != StateCheckOverlay {
		t.Errorf("expected check_overlay, got %s", res.State)
	}
	expectAction(t, res, model.SelectEventChoice(1))
	if n := p.count("overlay_" + string(model.OverlayLobby)); n != 0 {
		t.Errorf("event tick should short-circuit the lobby check, read %d times", n)
	}
	if n := p.count("event_name"); n != 0 {
		t.Errorf("auto first choice should not read the title, read %d times", n)
	}
}

func TestEvent_FixedChoice(t *testing.T) {
	p := eventScreen("Extra Training", model.CategoryScenario, 100)
	e := eventEngine(p, mapStrategy(config.UnknownAutoFirst))

	expectAction(t, mustTick(t, e), model.SelectEventChoice(2))
	if n := p.count("energy") + p.count("mood") + p.count("date"); n != 0 {
		t.Errorf("fixed choice should read no sensors, read %d", n)
	}
}

func TestEvent_ConditionalChoiceReadsOnlyWhatItNeeds(t *testing.T) {
	p := eventScreen("Dance Lesson", model.CategoryScenario, 40)
	e := eventEngine(p, mapStrategy(config.UnknownAutoFirst))

	expectAction(t, mustTick(t, e), model.SelectEventChoice(2))
	if n := p.count("energy"); n != 1 {
		t.Errorf("expected one energy read, got %d", n)
	}
	if n := p.count("mood"); n != 0 {
		t.Errorf("mood should not be read, got %d", n)
	}

	p = eventScreen("Dance Lesson", model.CategoryScenario, 90)
	e = eventEngine(p, mapStrategy(config.UnknownAutoFirst))
	expectAction(t, mustTick(t, e), model.SelectEventChoice(3))
}

func TestEvent_UnknownPolicies(t *testing.T) {
	p := eventScreen("Mysterious Stranger", model.CategoryScenario, 100)
	e := eventEngine(p, mapStrategy(config.UnknownAutoFirst))
	expectAction(t, mustTick(t, e), model.SelectEventChoice(1))

	p = eventScreen("Mysterious Stranger", model.CategoryScenario, 100)
	e = eventEngine(p, mapStrategy(config.UnknownSearchOther))
	expectAction(t, mustTick(t, e), model.SelectEventChoice(4))

	p = eventScreen("Completely Unrelated Title", model.CategoryScenario, 100)
	e = eventEngine(p, mapStrategy(config.UnknownSearchOther))
	expectAction(t, mustTick(t, e), model.SelectEventChoice(1))
}

func TestEvent_ManualWaitTimesOut(t *testing.T) {
	st := mapStrategy(config.UnknownWaitManual)
	st.Events.ManualWaitSeconds = 1
	p := eventScreen("Completely Unrelated Title", model.CategoryScenario, 100)
	e := eventEngine(p, st)

	res := mustTick(t, e)
	if res.Stop != StopManualEventTimeout {
		t.Errorf("expected manual_event_timeout, got %q", res.Stop)
	}
	if res.Action != nil {
		t.Errorf("expected no action, got %s", *res.Action)
	}
}

func TestEvent_ManualWaitResolved(t *testing.T) {
	st := config.DefaultStrategy()
	st.Events.AutoFirstChoice = false
	st.Events.AutoEventMap = false
	p := eventScreen("Extra Training", model.CategoryScenario, 100)
	overlayKey := "overlay_" + string(model.OverlayEventChoice)
	p.onCall = func(sensor string) {
		if sensor == overlayKey && p.count(overlayKey) >= 3 {
			p.setOverlay(model.OverlayEventChoice, false)
		}
	}
	e := eventEngine(p, st)

	res := mustTick(t, e)
	if res.Stop != StopNone || res.Action != nil {
		t.Errorf("expected a quiet tick, got stop %q action %v", res.Stop, res.Action)
	}
	if n := p.count("event_name"); n != 0 {
		t.Errorf("manual mode should not read the title, read %d times", n)
	}
}

func TestEvent_ResolverReusedUntilLoadoutChanges(t *testing.T) {
	p := eventScreen("Extra Training", model.CategoryScenario, 100)
	store := config.NewStaticStore(config.DefaultScoring(), mapStrategy(config.UnknownAutoFirst))
	e := NewEngine(p, &fakeSink{}, store, testCatalog(), Options{Events: EventSource{Sources: eventSources()}})

	mustTick(t, e)
	first := e.resolver
	mustTick(t, e)
	if e.resolver != first {
		t.Error("resolver rebuilt without a loadout change")
	}

	st := mapStrategy(config.UnknownAutoFirst)
	st.Events.SupportCards = []string{"Kitasan Black"}
	if err := store.SetStrategy(st); err != nil {
		t.Fatalf("set strategy: %v", err)
	}
	mustTick(t, e)
	if e.resolver == first {
		t.Error("resolver not rebuilt after the loadout changed")
	}
}
