package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nstehr/trackside/trackside-core/model"
	"github.com/nstehr/trackside/trackside-core/rules"
)

func intPtr(v int) *int { return &v }

func testDatabase() Database {
	src := &Sources{
		Scenario: []model.EventRecord{
			{Name: "Extra Training", Conditions: []model.ChoiceCondition{
				{Slot: 2, Kind: model.CondEnergyLTE, Number: 40},
			}},
			{Name: "New Year's Shrine Visit", Choice: intPtr(3)},
		},
		CommonUma: []model.EventRecord{
			{Name: "Dance Lesson", Choice: intPtr(2)},
		},
		Characters: map[string][]model.EventRecord{
			"Special Week": {{Name: "Dance Lesson", Choice: intPtr(1)}},
		},
		SupportCards: map[string][]model.EventRecord{
			"Kitasan Black": {{Name: "Festival Prep", DefaultChoice: intPtr(2), Conditions: []model.ChoiceCondition{
				{Slot: 1, Kind: model.CondMoodLT, Text: "GOOD"},
			}}},
		},
		Other: []model.EventRecord{
			{Name: "Rainy Day Reading", Choice: intPtr(4)},
		},
	}
	return src.Build("Special Week", []string{"Kitasan Black", NoSelection})
}

func energy(current float64) rules.Sensors {
	return rules.Sensors{Energy: func() (float64, float64) { return current, 100 }}
}

func TestResolveFixedChoice(t *testing.T) {
	r := NewResolver(testDatabase(), "Special Week")
	res := r.Resolve("Shrine Visit", model.CategoryScenario, rules.Sensors{})
	require.True(t, res.Matched)
	assert.Equal(t, "New Year's Shrine Visit", res.Event)
	assert.Equal(t, 3, res.Choice)
	assert.Equal(t, SourceFixed, res.Source)
}

func TestResolveCharacterEventsBeforeCommon(t *testing.T) {
	r := NewResolver(testDatabase(), "Special Week")
	res := r.Resolve("Dance Lesson", model.CategoryUmaMusume, rules.Sensors{})
	require.True(t, res.Matched)
	assert.Equal(t, 1, res.Choice)
}

func TestResolveConditional(t *testing.T) {
	r := NewResolver(testDatabase(), "Special Week")

	res := r.Resolve("Extra Trainng", model.CategoryScenario, energy(30))
	require.True(t, res.Matched)
	assert.Equal(t, 2, res.Choice)
	assert.Equal(t, SourceRule, res.Source)
	assert.Equal(t, "choice_2_if_energy_lte", res.Rule)

	res = r.Resolve("Extra Training", model.CategoryScenario, energy(90))
	assert.Equal(t, 1, res.Choice)
	assert.Equal(t, SourceDefault, res.Source)
}

func TestResolveUnknownMoodUsesDefault(t *testing.T) {
	r := NewResolver(testDatabase(), "Special Week")
	s := rules.Sensors{Mood: func() model.Mood { return model.MoodUnknown }}
	res := r.Resolve("Festival Prep", model.CategorySupportCard, s)
	require.True(t, res.Matched)
	assert.Equal(t, 2, res.Choice)

	s.Mood = func() model.Mood { return model.MoodBad }
	res = r.Resolve("Festival Prep", model.CategorySupportCard, s)
	assert.Equal(t, 1, res.Choice)
}

func TestResolveFallsBackAcrossCategories(t *testing.T) {
	r := NewResolver(testDatabase(), "Special Week")
	res := r.Resolve("Festival Prep", model.CategoryScenario, rules.Sensors{Mood: func() model.Mood { return model.MoodGreat }})
	require.True(t, res.Matched)
	assert.Equal(t, model.CategorySupportCard, res.Category)
}

func TestResolveOtherPoolOnlyOnRequest(t *testing.T) {
	r := NewResolver(testDatabase(), "Special Week")
	res := r.Resolve("Rainy Day Reading", model.CategoryScenario, rules.Sensors{})
	assert.False(t, res.Matched)
	assert.Equal(t, 1, res.Choice)
	assert.Equal(t, SourceNoMatch, res.Source)

	res = r.ResolveOther("Rainy Day Reading", rules.Sensors{})
	require.True(t, res.Matched)
	assert.Equal(t, 4, res.Choice)
}

func TestResolveRejectsPoorMatch(t *testing.T) {
	r := NewResolver(testDatabase(), "Special Week")
	res := r.Resolve("Exta Trainig", model.CategoryScenario, rules.Sensors{})
	assert.False(t, res.Matched)
}

func TestResolveDecoratedTitleLowersThreshold(t *testing.T) {
	db := Database{
		model.CategoryScenario: normalized([]model.EventRecord{
			{Name: "Extra Training", Choice: intPtr(1)},
			{Name: "Dance Party", Choice: intPtr(2)},
		}),
	}
	r := NewResolver(db, NoSelection)

	res := r.Resolve("Dance Party!?", model.CategoryScenario, rules.Sensors{})
	require.True(t, res.Matched)
	assert.Equal(t, "Dance Party", res.Event)
	assert.Equal(t, 2, res.Choice)
	assert.Equal(t, SourceFixed, res.Source)
	assert.Less(t, res.Threshold, DefaultThreshold)
	assert.GreaterOrEqual(t, res.Score, res.Threshold)
}
