package rules

import (
	"github.com/expr-lang/expr/vm"
	"github.com/nstehr/trackside/trackside-core/model"
)

// Rule is one choice_N_if_<kind> entry: an expr condition that, when it
// holds, selects Choice. Rules are tried by priority and the first that
// holds wins.
type Rule struct {
	Name         string              // choice_N_if_<kind>
	Priority     int                 // higher = evaluated first
	Kind         model.ConditionKind // condition family
	ConditionSrc string              // expr source (preserved for logging)
	Choice       int                 // choice to select when the condition holds
	program      *vm.Program         // compiled bytecode
}
