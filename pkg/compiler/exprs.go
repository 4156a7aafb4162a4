package compiler

import (
	"strconv"

	"github.com/sandrolain/goperon/pkg/parser"
	"github.com/sandrolain/goperon/pkg/types"
)

// binaryOps maps infix operator tokens to their implementations.
var binaryOps = map[parser.TokenType]*types.Operator{
	parser.TokenPlus:         types.OpAdd,
	parser.TokenMinus:        types.OpSub,
	parser.TokenMult:         types.OpMul,
	parser.TokenDiv:          types.OpDiv,
	parser.TokenMod:          types.OpMod,
	parser.TokenPow:          types.OpPow,
	parser.TokenEqual:        types.OpEq,
	parser.TokenNotEqual:     types.OpNeq,
	parser.TokenGreater:      types.OpGt,
	parser.TokenGreaterEqual: types.OpGte,
	parser.TokenLess:         types.OpLt,
	parser.TokenLessEqual:    types.OpLte,
	parser.TokenAnd:          types.OpAnd,
	parser.TokenOr:           types.OpOr,
}

var unaryOps = map[parser.TokenType]*types.Operator{
	parser.TokenNot:   types.OpNot,
	parser.TokenMinus: types.OpNegate,
}

// expr disambiguates the generic expression rule by the shape of its
// children.
func (a *assembler) expr(c *cursor) (value, error) {
	line := types.Pos(c.Line())
	n := c.Len()

	switch {
	case n == 1:
		inner, err := c.Node(0)
		if err != nil {
			return nil, err
		}
		return nodeVal{&types.Unary{Pos: line, Operand: inner, Text: c.rule.Text()}}, nil

	case n == 2 && c.Terminal(0) != nil:
		op, ok := unaryOps[c.Terminal(0).Type]
		if !ok {
			return nil, c.malformed("unknown prefix operator %q", c.Terminal(0).Lexeme)
		}
		operand, err := c.Node(1)
		if err != nil {
			return nil, err
		}
		return nodeVal{&types.Unary{Pos: line, Op: op, Operand: operand, Text: c.rule.Text()}}, nil

	case n == 3 && c.Terminal(0) != nil && c.Terminal(2) != nil:
		if !c.IsTerminal(0, parser.TokenParenOpen) || !c.IsTerminal(2, parser.TokenParenClose) {
			return nil, c.malformed("unbalanced group")
		}
		inner, err := c.Node(1)
		if err != nil {
			return nil, err
		}
		return nodeVal{&types.Unary{Pos: line, Operand: inner, Text: c.rule.Text()}}, nil

	case n == 3 && c.Terminal(1) != nil:
		op, ok := binaryOps[c.Terminal(1).Type]
		if !ok {
			return nil, c.malformed("unknown operator %q", c.Terminal(1).Lexeme)
		}
		lhs, err := c.Node(0)
		if err != nil {
			return nil, err
		}
		rhs, err := c.Node(2)
		if err != nil {
			return nil, err
		}
		return nodeVal{&types.Binary{Pos: line, Op: op, LHS: lhs, RHS: rhs}}, nil

	case n >= 2 && c.rule.RuleCount() == n:
		nodes, err := c.Nodes()
		if err != nil {
			return nil, err
		}
		return nodeVal{&types.Multi{Pos: line, Nodes: nodes}}, nil
	}
	return nil, c.malformed("unrecognised shape with %d children", n)
}

func (a *assembler) rangeExpr(c *cursor) (value, error) {
	if c.Len() != 3 || !c.IsTerminal(1, parser.TokenRange) {
		return nil, c.malformed("expected lhs .. rhs")
	}
	from, err := c.Node(0)
	if err != nil {
		return nil, err
	}
	to, err := c.Node(2)
	if err != nil {
		return nil, err
	}
	return nodeVal{&types.Range{Pos: types.Pos(c.Line()), From: from, To: to}}, nil
}

func (a *assembler) literal(c *cursor) (value, error) {
	t := c.Terminal(0)
	if t == nil {
		return nil, c.malformed("literal without a token")
	}
	lit := &types.Literal{Pos: types.Pos(t.Line())}
	switch t.Type {
	case parser.TokenString:
		lit.Kind, lit.Str = types.LitString, t.Value
	case parser.TokenNumber:
		f, err := strconv.ParseFloat(t.Lexeme, 64)
		if err != nil {
			return nil, c.errorf(types.ErrNumberOutOfRange, "invalid number %q", t.Lexeme).WithCause(err)
		}
		lit.Kind, lit.Num = types.LitNumber, f
	case parser.TokenBoolean:
		lit.Kind, lit.Bool = types.LitBoolean, t.Value == "true"
	case parser.TokenNull:
		lit.Kind = types.LitNull
	case parser.TokenEmpty:
		lit.Kind = types.LitEmpty
	case parser.TokenEnd:
		lit.Kind = types.LitEnd
	case parser.TokenBytes:
		lit.Kind, lit.Bytes = types.LitBytes, []byte(t.Value)
	default:
		return nil, c.malformed("token %s is not a literal", t.Type)
	}
	return nodeVal{lit}, nil
}

func (a *assembler) array(c *cursor) (value, error) {
	elems, err := c.Nodes()
	if err != nil {
		return nil, err
	}
	return nodeVal{&types.Array{Pos: types.Pos(c.Line()), Elements: elems}}, nil
}

func (a *assembler) object(c *cursor) (value, error) {
	obj := &types.Object{Pos: types.Pos(c.Line())}
	for i := 0; i < c.Len(); i++ {
		if c.Sub(i) == nil {
			continue
		}
		p, ok := c.Value(i).(pairVal)
		if !ok {
			return nil, c.unexpected(i, "an object pair")
		}
		obj.Pairs = append(obj.Pairs, p.pair)
	}
	return nodeVal{obj}, nil
}

func (a *assembler) objectPair(c *cursor) (value, error) {
	key := c.Terminal(0)
	if key == nil {
		return nil, c.malformed("pair without a key")
	}
	val, err := c.Node(2)
	if err != nil {
		return nil, err
	}
	return pairVal{types.ObjectPair{Key: key.Value, Value: val}}, nil
}

// Postfix navigation steps.

func (a *assembler) access(c *cursor) (value, error) {
	key := c.Terminal(1)
	if key == nil {
		return nil, c.malformed("access without a key")
	}
	return nodeVal{&types.ObjAccess{Pos: types.Pos(c.Line()), Key: key.Value}}, nil
}

func (a *assembler) dynamicAccess(c *cursor) (value, error) {
	key, err := c.Node(c.FindRule(parser.RuleExpr, 0))
	if err != nil {
		return nil, err
	}
	return nodeVal{&types.ObjDynamicAccess{Pos: types.Pos(c.Line()), Key: key}}, nil
}

func (a *assembler) deepScan(c *cursor) (value, error) {
	config, err := c.Config(1)
	if err != nil {
		return nil, err
	}
	key := c.Terminal(c.Len() - 1)
	if key == nil {
		return nil, c.malformed("deep scan without a key")
	}
	return nodeVal{&types.ObjDeepScan{Pos: types.Pos(c.Line()), Key: key.Value, Config: config}}, nil
}

func (a *assembler) index(c *cursor) (value, error) {
	list, err := a.filterListAt(c, c.FindRule(parser.RuleFilterList, 0))
	if err != nil {
		return nil, err
	}
	return nodeVal{&types.Filter{Pos: types.Pos(c.Line()), List: list}}, nil
}

func (a *assembler) throw(c *cursor) (value, error) {
	val, err := c.Node(c.FindRule(parser.RuleExpr, 0))
	if err != nil {
		return nil, err
	}
	return nodeVal{&types.Throw{Pos: types.Pos(c.Line()), Value: val}}, nil
}
