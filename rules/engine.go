package rules

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/nstehr/trackside/trackside-core/model"
)

// Engine holds the compiled choice rules of one event, sorted by priority.
type Engine struct {
	rules    []*Rule
	fallback int
}

// NewEngine compiles all rule conditions into expr bytecode and sorts by
// priority. fallback is returned by Choose when no rule fires.
func NewEngine(rules []*Rule, fallback int) (*Engine, error) {
	compiled, err := compileRules(rules)
	if err != nil {
		return nil, err
	}
	return &Engine{rules: compiled, fallback: model.ClampChoice(fallback)}, nil
}

// Rules returns the compiled rules in evaluation order.
func (e *Engine) Rules() []*Rule { return e.rules }

// Evaluate runs every rule against env and returns those that hold. It
// reads every sensor a rule touches; Choose stops at the first hit.
func (e *Engine) Evaluate(env RuleEnv) []*Rule {
	var fired []*Rule
	for _, r := range e.rules {
		if holds(r, env) {
			fired = append(fired, r)
		}
	}
	return fired
}

// Choose returns the choice of the first rule that holds, or the fallback.
func (e *Engine) Choose(env RuleEnv) (int, *Rule) {
	for _, r := range e.rules {
		if holds(r, env) {
			slog.Debug("rule fired", "rule", r.Name, "priority", r.Priority, "kind", r.Kind)
			return model.ClampChoice(r.Choice), r
		}
	}
	return e.fallback, nil
}

func holds(r *Rule, env RuleEnv) bool {
	result, err := vm.Run(r.program, env)
	if err != nil {
		slog.Warn("rule condition error", "rule", r.Name, "error", err)
		return false
	}
	match, ok := result.(bool)
	return ok && match
}

func compileRules(rules []*Rule) ([]*Rule, error) {
	compiled := make([]*Rule, len(rules))
	for i, r := range rules {
		program, err := expr.Compile(r.ConditionSrc, expr.Env(RuleEnv{}), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("compiling rule %q: %w", r.Name, err)
		}
		cp := *r
		cp.program = program
		compiled[i] = &cp
	}
	sort.SliceStable(compiled, func(i, j int) bool {
		return compiled[i].Priority > compiled[j].Priority
	})
	return compiled, nil
}
