package events

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nstehr/trackside/trackside-core/model"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestLoadSources(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "common.json"), `{
  "train_event_scenario": [{"name": "Extra Training", "choice_2_if_energy_lte": 40}],
  "train_event_uma_musume": [{"name": "Dance Lesson", "choice": "bottom"}]
}`)
	writeFile(t, filepath.Join(dir, "uma_musume", "Special Week.json"),
		`{"events": [{"name": "★Hearty Meal★", "choice": 2}]}`)
	writeFile(t, filepath.Join(dir, "support_card", "Kitasan Black.json"),
		`{"events": [{"name": "Festival Prep", "default_choice": 2, "choice_1_if_mood_lt": "GOOD"}]}`)

	src, err := LoadSources(dir)
	require.NoError(t, err)
	assert.Len(t, src.Scenario, 1)
	assert.Len(t, src.CommonUma, 1)
	assert.Empty(t, src.Other, "missing other file is skipped")
	require.Contains(t, src.Characters, "Special Week")
	require.Contains(t, src.SupportCards, "Kitasan Black")

	assert.Equal(t, 5, *src.CommonUma[0].Choice)
	require.Len(t, src.Scenario[0].Conditions, 1)
	assert.Equal(t, model.CondEnergyLTE, src.Scenario[0].Conditions[0].Kind)

	db := src.Build("Special Week", []string{"Kitasan Black"})
	uma := db[model.CategoryUmaMusume]
	require.Len(t, uma, 2)
	assert.Equal(t, "Hearty Meal", uma[0].NormalizedName)
	assert.Len(t, db[model.CategorySupportCard], 1)
}

func TestLoadSourcesMalformedCommon(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "common.json"), `{"train_event_scenario": [{"name": "x", "choice_1_if_bogus": 1}]}`)
	writeFile(t, filepath.Join(dir, "other_special_events.json"), `{"events": [{"name": "Rainy Day", "choice": 2}]}`)

	src, err := LoadSources(dir)
	assert.ErrorIs(t, err, model.ErrConfigMalformed)
	require.NotNil(t, src)
	assert.Empty(t, src.Scenario)
	assert.Empty(t, src.CommonUma)
	assert.Len(t, src.Other, 1, "other pool still loads")
}

func TestLoadSourcesSkipsBadCard(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "common.json"),
		`{"train_event_scenario": [{"name": "Extra Training", "choice": 2}]}`)
	writeFile(t, filepath.Join(dir, "support_card", "Bad.json"),
		`{"events": [{"name": "X", "choice_1_if_stamina_gt": 1}]}`)
	writeFile(t, filepath.Join(dir, "support_card", "Kitasan Black.json"),
		`{"events": [{"name": "Festival Prep", "choice": 1}]}`)

	src, err := LoadSources(dir)
	assert.ErrorIs(t, err, model.ErrConfigMalformed)
	assert.ErrorContains(t, err, "Bad.json")
	require.NotNil(t, src)
	assert.Len(t, src.Scenario, 1)
	assert.Contains(t, src.SupportCards, "Kitasan Black")
	assert.NotContains(t, src.SupportCards, "Bad")

	db := src.Build(NoSelection, []string{"Kitasan Black", "Bad"})
	assert.Len(t, db[model.CategoryScenario], 1)
	assert.Len(t, db[model.CategorySupportCard], 1)
}

func TestBuildSkipsUnselected(t *testing.T) {
	src := &Sources{
		CommonUma:    []model.EventRecord{{Name: "Dance Lesson"}},
		Characters:   map[string][]model.EventRecord{"None": {{Name: "should not load"}}},
		SupportCards: map[string][]model.EventRecord{},
	}
	db := src.Build(NoSelection, []string{NoSelection, "Unknown Card"})
	assert.Len(t, db[model.CategoryUmaMusume], 1)
	assert.Empty(t, db[model.CategorySupportCard])
}

func TestCacheKey(t *testing.T) {
	a := CacheKey("Special Week", []string{"Kitasan Black", "Fine Motion"})
	b := CacheKey("Special Week", []string{"Fine Motion", NoSelection, "Kitasan Black"})
	c := CacheKey("Gold Ship", []string{"Fine Motion", "Kitasan Black"})
	assert.Equal(t, a, b, "order and empty slots do not matter")
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}

type memCache struct {
	key   string
	pools map[model.Category][]model.EventRecord
	err   error
	saves int
}

func (m *memCache) Load(key string) (map[model.Category][]model.EventRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	if key != m.key || m.pools == nil {
		return nil, errors.New("miss")
	}
	return m.pools, nil
}

func (m *memCache) Save(key string, pools map[model.Category][]model.EventRecord) error {
	m.key, m.pools, m.err = key, pools, nil
	m.saves++
	return nil
}

func TestLoadOrBuild(t *testing.T) {
	src := &Sources{Scenario: []model.EventRecord{{Name: "Extra Training"}}}
	cache := &memCache{}

	db, rebuilt := LoadOrBuild(cache, src, "Special Week", nil)
	assert.True(t, rebuilt)
	assert.Equal(t, 1, cache.saves)
	assert.Len(t, db[model.CategoryScenario], 1)

	_, rebuilt = LoadOrBuild(cache, src, "Special Week", nil)
	assert.False(t, rebuilt, "same configuration hits the cache")

	_, rebuilt = LoadOrBuild(cache, src, "Gold Ship", nil)
	assert.True(t, rebuilt, "new configuration rebuilds")

	cache.err = model.ErrCacheCorrupt
	_, rebuilt = LoadOrBuild(cache, src, "Gold Ship", nil)
	assert.True(t, rebuilt, "corrupt snapshot rebuilds")
	assert.Equal(t, 3, cache.saves)
}

func TestLoadOrBuildWithoutCache(t *testing.T) {
	src := &Sources{}
	db, rebuilt := LoadOrBuild(nil, src, "", nil)
	assert.True(t, rebuilt)
	assert.Equal(t, 0, db.Count())
}
