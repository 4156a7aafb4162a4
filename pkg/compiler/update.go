package compiler

import (
	"github.com/sandrolain/goperon/pkg/parser"
	"github.com/sandrolain/goperon/pkg/types"
)

// update assembles Update and Build. The keyed form lists Path(...): value
// pairs; the whole form takes one template expression.
func (a *assembler) update(kind parser.RuleKind, c *cursor) (value, error) {
	config, err := c.Config(1)
	if err != nil {
		return nil, err
	}

	var (
		pairs []types.UpdatePair
		whole types.Node
	)
	for i := 0; i < c.Len(); i++ {
		switch v := c.Value(i).(type) {
		case nil:
		case updatePairVal:
			pairs = append(pairs, v.pair)
		case nodeVal:
			if config != nil && i == 1 {
				continue
			}
			whole = v.node
		default:
			return nil, c.unexpected(i, "an update pair or expression")
		}
	}
	if (whole == nil) == (len(pairs) == 0) {
		return nil, c.malformed("expected either update pairs or one expression")
	}

	line := types.Pos(c.Line())
	if kind == parser.RuleBuild {
		return nodeVal{&types.Build{Pos: line, Pairs: pairs, Whole: whole, Config: config}}, nil
	}
	return nodeVal{&types.Update{Pos: line, Pairs: pairs, Whole: whole, Config: config}}, nil
}

func (a *assembler) updatePair(c *cursor) (value, error) {
	pi := c.FindRule(parser.RulePattern, 0)
	path, err := patternAt(c, pi)
	if err != nil {
		return nil, err
	}
	val, err := c.Node(c.FindRule(parser.RuleExpr, pi))
	if err != nil {
		return nil, err
	}
	return updatePairVal{types.UpdatePair{Path: path, Value: val}}, nil
}

// updateArray decides the replacement mode from the shape of the assembled
// value alone; the value is never evaluated here.
func (a *assembler) updateArray(c *cursor) (value, error) {
	config, err := c.Config(1)
	if err != nil {
		return nil, err
	}
	val, err := c.Node(c.FindRule(parser.RuleExpr, 0))
	if err != nil {
		return nil, err
	}
	return nodeVal{&types.UpdateArray{
		Pos:    types.Pos(c.Line()),
		Value:  val,
		Mode:   updateMode(val),
		Config: config,
	}}, nil
}

func updateMode(n types.Node) types.UpdateMode {
	switch types.Unwrap(n).(type) {
	case *types.Array:
		return types.UpdateElements
	case *types.Literal, *types.Object:
		return types.UpdateSingle
	default:
		return types.UpdateDynamic
	}
}
