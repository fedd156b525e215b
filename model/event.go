package model

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Category names the event pool an event was detected in.
type Category string

const (
	CategoryScenario    Category = "train_event_scenario"
	CategoryUmaMusume   Category = "train_event_uma_musume"
	CategorySupportCard Category = "train_event_support_card"
	CategoryOther       Category = "other_special_event"
)

// SearchCategories is the default search order for matched events. The
// "other" pool is consulted only through the unknown-event policy.
var SearchCategories = []Category{CategoryScenario, CategoryUmaMusume, CategorySupportCard}

func (c Category) Valid() bool {
	switch c {
	case CategoryScenario, CategoryUmaMusume, CategorySupportCard, CategoryOther:
		return true
	}
	return false
}

const (
	MinChoice = 1
	MaxChoice = 5
)

// ConditionKind is the suffix of a choice_N_if_<kind> key.
type ConditionKind string

const (
	CondDayLT             ConditionKind = "day_lt"
	CondDayGTE            ConditionKind = "day_gte"
	CondEnergyShortageGTE ConditionKind = "energy_shortage_gte"
	CondEnergyLTE         ConditionKind = "energy_lte"
	CondEnergyGT          ConditionKind = "energy_gt"
	CondMoodLT            ConditionKind = "mood_lt"
	CondMoodGTE           ConditionKind = "mood_gte"
	CondUma               ConditionKind = "uma"
	CondUmaIn             ConditionKind = "uma_in"
)

// ConditionOrder is the order kinds are checked within a single choice slot.
var ConditionOrder = []ConditionKind{
	CondDayLT, CondDayGTE, CondEnergyShortageGTE, CondEnergyLTE, CondEnergyGT,
	CondMoodLT, CondMoodGTE, CondUma, CondUmaIn,
}

// Order returns the kind's position in ConditionOrder, or -1.
func (k ConditionKind) Order() int {
	for i, c := range ConditionOrder {
		if c == k {
			return i
		}
	}
	return -1
}

// ChoiceCondition is one parsed choice_N_if_<kind> entry.
type ChoiceCondition struct {
	Slot   int           `json:"slot"`
	Kind   ConditionKind `json:"kind"`
	Number float64       `json:"number,omitempty"`
	Text   string        `json:"text,omitempty"`
	List   []string      `json:"list,omitempty"`
}

// EventRecord is one narrative event from an event-map document.
type EventRecord struct {
	Name           string            `json:"name"`
	NormalizedName string            `json:"normalizedName"`
	Choice         *int              `json:"choice,omitempty"`
	DefaultChoice  *int              `json:"defaultChoice,omitempty"`
	Conditions     []ChoiceCondition `json:"conditions,omitempty"`
}

// NeedsMood reports whether any condition reads the mood sensor.
func (e EventRecord) NeedsMood() bool {
	for _, c := range e.Conditions {
		if c.Kind == CondMoodLT || c.Kind == CondMoodGTE {
			return true
		}
	}
	return false
}

// NeedsEnergy reports whether any condition reads the energy sensor.
func (e EventRecord) NeedsEnergy() bool {
	for _, c := range e.Conditions {
		switch c.Kind {
		case CondEnergyShortageGTE, CondEnergyLTE, CondEnergyGT:
			return true
		}
	}
	return false
}

var conditionKey = regexp.MustCompile(`^choice_([1-5])_if_([a-z_]+)$`)

// UnmarshalYAML decodes the flat event-map shape, where conditions are
// sibling keys of the name. The same decoder handles the JSON files.
func (e *EventRecord) UnmarshalYAML(value *yaml.Node) error {
	var raw map[string]any
	if err := value.Decode(&raw); err != nil {
		return err
	}

	name, _ := raw["name"].(string)
	if name == "" {
		return fmt.Errorf("event record missing name")
	}
	*e = EventRecord{Name: name}

	if v, ok := raw["choice"]; ok {
		c, err := parseChoice(v)
		if err != nil {
			return fmt.Errorf("event %q choice: %w", name, err)
		}
		e.Choice = &c
	}
	if v, ok := raw["default_choice"]; ok {
		c, err := parseChoice(v)
		if err != nil {
			return fmt.Errorf("event %q default_choice: %w", name, err)
		}
		e.DefaultChoice = &c
	}

	for key, v := range raw {
		m := conditionKey.FindStringSubmatch(key)
		if m == nil {
			continue
		}
		slot, _ := strconv.Atoi(m[1])
		kind := ConditionKind(m[2])
		if kind.Order() < 0 {
			return fmt.Errorf("event %q: unknown condition %q", name, key)
		}
		cond, err := parseCondition(slot, kind, v)
		if err != nil {
			return fmt.Errorf("event %q %s: %w", name, key, err)
		}
		e.Conditions = append(e.Conditions, cond)
	}
	SortConditions(e.Conditions)
	return nil
}

// SortConditions orders by slot, then by ConditionOrder.
func SortConditions(conds []ChoiceCondition) {
	for i := 1; i < len(conds); i++ {
		for j := i; j > 0 && conditionBefore(conds[j], conds[j-1]); j-- {
			conds[j], conds[j-1] = conds[j-1], conds[j]
		}
	}
}

func conditionBefore(a, b ChoiceCondition) bool {
	if a.Slot != b.Slot {
		return a.Slot < b.Slot
	}
	return a.Kind.Order() < b.Kind.Order()
}

func parseChoice(v any) (int, error) {
	switch c := v.(type) {
	case int:
		return ClampChoice(c), nil
	case float64:
		return ClampChoice(int(c)), nil
	case string:
		if strings.EqualFold(c, "bottom") {
			return MaxChoice, nil
		}
		n, err := strconv.Atoi(c)
		if err != nil {
			return 0, fmt.Errorf("invalid choice %q", c)
		}
		return ClampChoice(n), nil
	}
	return 0, fmt.Errorf("invalid choice %v", v)
}

func parseCondition(slot int, kind ConditionKind, v any) (ChoiceCondition, error) {
	cond := ChoiceCondition{Slot: slot, Kind: kind}
	switch kind {
	case CondMoodLT, CondMoodGTE, CondUma:
		s, ok := v.(string)
		if !ok {
			return cond, fmt.Errorf("expected string, got %T", v)
		}
		cond.Text = s
	case CondUmaIn:
		list, ok := v.([]any)
		if !ok {
			return cond, fmt.Errorf("expected list, got %T", v)
		}
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return cond, fmt.Errorf("expected string list item, got %T", item)
			}
			cond.List = append(cond.List, s)
		}
	default:
		switch n := v.(type) {
		case int:
			cond.Number = float64(n)
		case float64:
			cond.Number = n
		default:
			return cond, fmt.Errorf("expected number, got %T", v)
		}
	}
	return cond, nil
}

// ClampChoice restricts c to the valid choice range.
func ClampChoice(c int) int {
	if c < MinChoice {
		return MinChoice
	}
	if c > MaxChoice {
		return MaxChoice
	}
	return c
}
