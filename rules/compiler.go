package rules

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nstehr/trackside/trackside-core/model"
)

// CompileEvent builds the rule set for one event record. All conditions are
// built via fmt.Sprintf with quoted values, so the compiler never generates
// invalid expr. Lower slots win, and within a slot the kinds are tried in
// model.ConditionOrder.
func CompileEvent(e model.EventRecord) []*Rule {
	rules := make([]*Rule, 0, len(e.Conditions))
	for _, c := range e.Conditions {
		src := conditionSource(c)
		if src == "" {
			continue
		}
		rules = append(rules, &Rule{
			Name:         fmt.Sprintf("choice_%d_if_%s", c.Slot, c.Kind),
			Priority:     (model.MaxChoice-c.Slot+1)*100 + len(model.ConditionOrder) - c.Kind.Order(),
			Kind:         c.Kind,
			ConditionSrc: src,
			Choice:       c.Slot,
		})
	}
	return rules
}

// EngineFor compiles e and picks its fallback: default_choice, else 1.
func EngineFor(e model.EventRecord) (*Engine, error) {
	fallback := model.MinChoice
	if e.DefaultChoice != nil {
		fallback = *e.DefaultChoice
	}
	return NewEngine(CompileEvent(e), fallback)
}

func conditionSource(c model.ChoiceCondition) string {
	num := strconv.FormatFloat(c.Number, 'f', -1, 64)
	switch c.Kind {
	case model.CondDayLT:
		return fmt.Sprintf("Day() < %s", num)
	case model.CondDayGTE:
		return fmt.Sprintf("Day() >= %s", num)
	case model.CondEnergyShortageGTE:
		return fmt.Sprintf("EnergyShortage() >= %s", num)
	case model.CondEnergyLTE:
		return fmt.Sprintf("Energy() <= %s", num)
	case model.CondEnergyGT:
		return fmt.Sprintf("Energy() > %s", num)
	case model.CondMoodLT:
		return fmt.Sprintf("MoodBelow(%s)", strconv.Quote(c.Text))
	case model.CondMoodGTE:
		return fmt.Sprintf("MoodAtLeast(%s)", strconv.Quote(c.Text))
	case model.CondUma:
		return fmt.Sprintf("CharacterIs(%s)", strconv.Quote(c.Text))
	case model.CondUmaIn:
		quoted := make([]string, len(c.List))
		for i, name := range c.List {
			quoted[i] = strconv.Quote(name)
		}
		return fmt.Sprintf("CharacterIn([%s])", strings.Join(quoted, ", "))
	}
	return ""
}
