package events

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nstehr/trackside/trackside-core/model"
)

// NoSelection is the placeholder name for an empty character or card slot.
const NoSelection = "None"

// Database holds the searchable pools for one character + loadout.
type Database map[model.Category][]model.EventRecord

// Count is the total number of records across every pool.
func (db Database) Count() int {
	n := 0
	for _, recs := range db {
		n += len(recs)
	}
	return n
}

// Sources is every event-map document found under one directory. Character
// and card maps are keyed by file name without extension.
type Sources struct {
	Scenario     []model.EventRecord
	CommonUma    []model.EventRecord
	Characters   map[string][]model.EventRecord
	SupportCards map[string][]model.EventRecord
	Other        []model.EventRecord
}

type commonDoc struct {
	Scenario  []model.EventRecord `yaml:"train_event_scenario"`
	UmaMusume []model.EventRecord `yaml:"train_event_uma_musume"`
}

type eventsDoc struct {
	Events []model.EventRecord `yaml:"events"`
}

// LoadSources reads common.json, other_special_events.json and the
// uma_musume/ and support_card/ folders below dir. Missing files are
// skipped with a warning. A malformed file contributes an empty pool and is
// reported in the returned error; the returned Sources is always usable.
func LoadSources(dir string) (*Sources, error) {
	src := &Sources{
		Characters:   make(map[string][]model.EventRecord),
		SupportCards: make(map[string][]model.EventRecord),
	}
	var errs []error

	var common commonDoc
	if err := readDoc(filepath.Join(dir, "common.json"), &common); err != nil {
		errs = append(errs, err)
	} else {
		src.Scenario, src.CommonUma = common.Scenario, common.UmaMusume
	}

	var other eventsDoc
	if err := readDoc(filepath.Join(dir, "other_special_events.json"), &other); err != nil {
		errs = append(errs, err)
	} else {
		src.Other = other.Events
	}

	errs = append(errs, loadFolder(filepath.Join(dir, "uma_musume"), src.Characters)...)
	errs = append(errs, loadFolder(filepath.Join(dir, "support_card"), src.SupportCards)...)

	slog.Info("event sources loaded",
		"scenario", len(src.Scenario),
		"commonUma", len(src.CommonUma),
		"characters", len(src.Characters),
		"supportCards", len(src.SupportCards),
		"other", len(src.Other),
		"skipped", len(errs))
	return src, errors.Join(errs...)
}

// loadFolder reads every *.json below dir into into. Bad files are skipped
// and returned.
func loadFolder(dir string, into map[string][]model.EventRecord) []error {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return []error{fmt.Errorf("listing %s: %w", dir, err)}
	}
	var errs []error
	for _, p := range paths {
		var doc eventsDoc
		if err := readDoc(p, &doc); err != nil {
			errs = append(errs, err)
			continue
		}
		into[strings.TrimSuffix(filepath.Base(p), ".json")] = doc.Events
	}
	return errs
}

func readDoc(path string, v any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Warn("event map not found", "path", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		slog.Warn("event map malformed, skipping", "path", path, "error", err)
		return fmt.Errorf("decoding %s: %w: %w", path, model.ErrConfigMalformed, err)
	}
	return nil
}

// Build assembles the pools for character and cards. The uma_musume pool
// lists character-specific events before the common ones.
func (s *Sources) Build(character string, cards []string) Database {
	db := Database{
		model.CategoryScenario: normalized(s.Scenario),
	}

	var uma []model.EventRecord
	if selected(character) {
		if recs, ok := s.Characters[character]; ok {
			uma = append(uma, recs...)
		} else {
			slog.Warn("no event map for character", "character", character)
		}
	}
	db[model.CategoryUmaMusume] = normalized(append(uma, s.CommonUma...))

	var support []model.EventRecord
	for _, c := range cards {
		if !selected(c) {
			continue
		}
		recs, ok := s.SupportCards[c]
		if !ok {
			slog.Warn("no event map for support card", "card", c)
			continue
		}
		support = append(support, recs...)
	}
	db[model.CategorySupportCard] = normalized(support)
	db[model.CategoryOther] = normalized(s.Other)
	return db
}

func selected(name string) bool {
	return name != "" && !strings.EqualFold(name, NoSelection)
}

func normalized(recs []model.EventRecord) []model.EventRecord {
	out := make([]model.EventRecord, len(recs))
	for i, r := range recs {
		r.NormalizedName = Normalize(r.Name)
		out[i] = r
	}
	return out
}

// CacheKey identifies a database by character and the set of selected
// cards; card order does not matter.
func CacheKey(character string, cards []string) string {
	var picked []string
	for _, c := range cards {
		if selected(c) {
			picked = append(picked, c)
		}
	}
	slices.Sort(picked)
	if !selected(character) {
		character = NoSelection
	}
	sum := sha256.Sum256([]byte(character + "\x00" + strings.Join(picked, "\x00")))
	return hex.EncodeToString(sum[:])
}

// Cache persists one built database keyed by CacheKey. Load returns an
// error when the stored key differs or the snapshot cannot be decoded.
type Cache interface {
	Load(key string) (map[model.Category][]model.EventRecord, error)
	Save(key string, pools map[model.Category][]model.EventRecord) error
}

// LoadOrBuild returns the cached database for the configuration, or
// rebuilds and stores it. rebuilt reports whether Build ran.
func LoadOrBuild(cache Cache, src *Sources, character string, cards []string) (db Database, rebuilt bool) {
	key := CacheKey(character, cards)
	if cache != nil {
		pools, err := cache.Load(key)
		if err == nil {
			slog.Debug("event database cache hit", "key", key[:12])
			return Database(pools), false
		}
		if errors.Is(err, model.ErrCacheCorrupt) {
			slog.Warn("event database cache corrupt, rebuilding", "error", err)
		} else {
			slog.Debug("event database cache miss", "key", key[:12], "reason", err)
		}
	}

	db = src.Build(character, cards)
	if cache != nil {
		if err := cache.Save(key, db); err != nil {
			slog.Warn("saving event database cache", "error", err)
		}
	}
	slog.Info("event database built", "character", character, "events", db.Count())
	return db, true
}
