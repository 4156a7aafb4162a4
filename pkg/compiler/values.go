package compiler

import "github.com/sandrolain/goperon/pkg/types"

// value is a reduction value: what one rule leaves on the operand stack.
// The set of variants is closed.
type value interface {
	isValue()
}

type (
	// nodeVal is an AST node.
	nodeVal struct{ node types.Node }

	// constraintVal is a '<' expr '>' predicate.
	constraintVal struct{ c *types.Constraint }

	// bindingVal is a Let declaration, bound by the time it is pushed.
	bindingVal struct{ b *types.Binding }

	// bodyVal is a body expression with the lets declared before it.
	bodyVal struct {
		node     types.Node
		bindings []*types.Binding
	}

	// paramVal is a function or lambda parameter; value is the bound
	// argument of an immediately invoked lambda.
	paramVal struct {
		b     *types.Binding
		value types.Node
	}

	patternVal    struct{ path types.Path }
	filterItemVal struct{ item types.FilterItem }
	pairVal       struct{ pair types.ObjectPair }
	updatePairVal struct{ pair types.UpdatePair }
	whenVal       struct{ branch types.ChoiceBranch }
	otherwiseVal  struct{ node types.Node }

	catchVal struct {
		v    *types.Binding
		body bodyVal
	}

	// declVal marks a top-level declaration whose effect is already
	// recorded on the program.
	declVal struct{}
)

func (nodeVal) isValue()       {}
func (constraintVal) isValue() {}
func (bindingVal) isValue()    {}
func (bodyVal) isValue()       {}
func (paramVal) isValue()      {}
func (patternVal) isValue()    {}
func (filterItemVal) isValue() {}
func (pairVal) isValue()       {}
func (updatePairVal) isValue() {}
func (whenVal) isValue()       {}
func (otherwiseVal) isValue()  {}
func (catchVal) isValue()      {}
func (declVal) isValue()       {}

func describe(v value) string {
	switch v := v.(type) {
	case nodeVal:
		if v.node == nil {
			return "empty node"
		}
		return "node " + string(v.node.Type())
	case constraintVal:
		return "constraint"
	case bindingVal:
		return "binding"
	case bodyVal:
		return "body"
	case paramVal:
		return "parameter"
	case patternVal:
		return "path pattern"
	case filterItemVal:
		return "filter item"
	case pairVal:
		return "object pair"
	case updatePairVal:
		return "update pair"
	case whenVal:
		return "when branch"
	case otherwiseVal:
		return "otherwise branch"
	case catchVal:
		return "catch clause"
	case declVal:
		return "declaration"
	case nil:
		return "nothing"
	default:
		return "unknown value"
	}
}
