// Package races holds the race catalog and decides which races may be
// entered on a given date.
package races

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nstehr/trackside/trackside-core/calendar"
	"github.com/nstehr/trackside/trackside-core/model"
)

// Filters are the per-dimension allow lists. Missing keys are disallowed.
type Filters struct {
	Track    map[model.Track]bool    `yaml:"track" json:"track"`
	Distance map[model.Distance]bool `yaml:"distance" json:"distance"`
	Grade    map[model.Grade]bool    `yaml:"grade" json:"grade"`
}

// filterDoc is Filters without the decode hooks, so every decode starts
// from fresh maps.
type filterDoc Filters

// UnmarshalYAML replaces each dimension the document names instead of
// merging into the existing map. Keys missing from a named dimension are
// disallowed; dimensions the document omits keep their current set.
func (f *Filters) UnmarshalYAML(value *yaml.Node) error {
	var doc filterDoc
	if err := value.Decode(&doc); err != nil {
		return err
	}
	f.replace(doc)
	return nil
}

// UnmarshalJSON is UnmarshalYAML for strategy pushes over ipc.
func (f *Filters) UnmarshalJSON(b []byte) error {
	var doc filterDoc
	if err := json.Unmarshal(b, &doc); err != nil {
		return err
	}
	f.replace(doc)
	return nil
}

func (f *Filters) replace(doc filterDoc) {
	if doc.Track != nil {
		f.Track = doc.Track
	}
	if doc.Distance != nil {
		f.Distance = doc.Distance
	}
	if doc.Grade != nil {
		f.Grade = doc.Grade
	}
}

// DefaultFilters allows every track and distance and graded races only.
func DefaultFilters() Filters {
	return Filters{
		Track:    map[model.Track]bool{model.Turf: true, model.Dirt: true},
		Distance: map[model.Distance]bool{model.Sprint: true, model.Mile: true, model.Medium: true, model.Long: true},
		Grade: map[model.Grade]bool{
			model.GradeG1: true, model.GradeG2: true, model.GradeG3: true,
			model.GradeOP: false, model.GradeUnknown: false,
		},
	}
}

// Allows reports whether r passes all three filter sets.
func (f Filters) Allows(r model.RaceRecord) bool {
	return f.Track[r.Track] && f.Distance[r.Distance] && f.Grade[r.Grade]
}

type slot struct {
	year  model.Year
	month int
	day   int
}

// Catalog is immutable after construction.
type Catalog struct {
	races  []model.RaceRecord
	byDate map[slot][]int
}

// Load reads a JSON (or YAML) array of race records.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read race catalog: %w", err)
	}
	var records []model.RaceRecord
	if err := yaml.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: race catalog %s: %v", model.ErrConfigMalformed, path, err)
	}
	return New(records), nil
}

// New classifies and indexes records. Records with an unreadable year or
// date are kept for listing but can never be eligible.
func New(records []model.RaceRecord) *Catalog {
	c := &Catalog{byDate: make(map[slot][]int)}
	skipped := 0
	for _, r := range records {
		r = Classify(r)
		c.races = append(c.races, r)
		s, ok := slotOf(r)
		if !ok {
			skipped++
			continue
		}
		c.byDate[s] = append(c.byDate[s], len(c.races)-1)
	}
	if skipped > 0 {
		slog.Warn("race records with unreadable dates", "count", skipped)
	}
	return c
}

func slotOf(r model.RaceRecord) (slot, bool) {
	y, ok := calendar.ParseYear(r.Year)
	if !ok {
		return slot{}, false
	}
	parts := strings.Fields(r.Date)
	if len(parts) < 2 {
		return slot{}, false
	}
	month, ok := calendar.ParseMonth(parts[0])
	if !ok {
		return slot{}, false
	}
	day, err := strconv.Atoi(parts[1])
	if err != nil {
		return slot{}, false
	}
	return slot{year: y, month: month, day: day}, true
}

func (c *Catalog) Len() int { return len(c.races) }

// All returns a copy of every record.
func (c *Catalog) All() []model.RaceRecord {
	out := make([]model.RaceRecord, len(c.races))
	copy(out, c.races)
	return out
}

// OnDate returns every race scheduled for d, ignoring filters and the
// restricted period.
func (c *Catalog) OnDate(d model.CareerDate) []model.RaceRecord {
	if d.PreDebut || d.Finale || d.Month == 0 {
		return nil
	}
	idx := c.byDate[slot{year: d.Year, month: d.Month, day: calendar.RaceDayNumber(d.Period)}]
	out := make([]model.RaceRecord, 0, len(idx))
	for _, i := range idx {
		out = append(out, c.races[i])
	}
	sortByGrade(out)
	return out
}

// Eligible returns the races that may be entered on d under f, best grade
// first. Nothing is eligible during the restricted period.
func (c *Catalog) Eligible(d model.CareerDate, f Filters) []model.RaceRecord {
	if calendar.IsRestricted(d) {
		return nil
	}
	var out []model.RaceRecord
	for _, r := range c.OnDate(d) {
		if f.Allows(r) {
			out = append(out, r)
		}
	}
	return out
}

// HighestGrade returns the best race on d regardless of filters.
func (c *Catalog) HighestGrade(d model.CareerDate) (model.RaceRecord, bool) {
	if calendar.IsRestricted(d) {
		return model.RaceRecord{}, false
	}
	on := c.OnDate(d)
	if len(on) == 0 {
		return model.RaceRecord{}, false
	}
	return on[0], true
}

func sortByGrade(rs []model.RaceRecord) {
	sort.SliceStable(rs, func(i, j int) bool {
		if rs[i].Grade.Rank() != rs[j].Grade.Rank() {
			return rs[i].Grade.Rank() < rs[j].Grade.Rank()
		}
		return rs[i].Name < rs[j].Name
	})
}
