package compiler

import (
	"fmt"

	"github.com/sandrolain/goperon/pkg/parser"
	"github.com/sandrolain/goperon/pkg/types"
)

// cursor gives a rule handler typed access to the rule's children. Each
// nested rule child is paired with the value it reduced to.
type cursor struct {
	rule *parser.Rule
	vals []value // vals[i] is nil for terminals
}

func newCursor(r *parser.Rule, reduced []value) *cursor {
	c := &cursor{rule: r, vals: make([]value, len(r.Children))}
	j := 0
	for i, ch := range r.Children {
		if _, ok := ch.(*parser.Rule); ok {
			c.vals[i] = reduced[j]
			j++
		}
	}
	return c
}

// Len returns the number of children.
func (c *cursor) Len() int {
	return len(c.rule.Children)
}

// Line returns the rule's line.
func (c *cursor) Line() int {
	return c.rule.Line()
}

// Terminal returns child i when it is a terminal.
func (c *cursor) Terminal(i int) *parser.Token {
	if i < 0 || i >= len(c.rule.Children) {
		return nil
	}
	t, _ := c.rule.Children[i].(*parser.Token)
	return t
}

// IsTerminal reports whether child i is a terminal of type tt.
func (c *cursor) IsTerminal(i int, tt parser.TokenType) bool {
	t := c.Terminal(i)
	return t != nil && t.Type == tt
}

// Sub returns child i when it is a nested rule.
func (c *cursor) Sub(i int) *parser.Rule {
	if i < 0 || i >= len(c.rule.Children) {
		return nil
	}
	r, _ := c.rule.Children[i].(*parser.Rule)
	return r
}

// IsRule reports whether child i is a nested rule of the given kind.
func (c *cursor) IsRule(i int, kind parser.RuleKind) bool {
	r := c.Sub(i)
	return r != nil && r.Kind == kind
}

// FindTerminal returns the index of the first terminal of type tt at or
// after from, or -1.
func (c *cursor) FindTerminal(tt parser.TokenType, from int) int {
	for i := from; i < len(c.rule.Children); i++ {
		if c.IsTerminal(i, tt) {
			return i
		}
	}
	return -1
}

// FindRule returns the index of the first nested rule of the given kind at
// or after from, or -1.
func (c *cursor) FindRule(kind parser.RuleKind, from int) int {
	for i := from; i < len(c.rule.Children); i++ {
		if c.IsRule(i, kind) {
			return i
		}
	}
	return -1
}

// Value returns the reduced value of child i.
func (c *cursor) Value(i int) value {
	if i < 0 || i >= len(c.vals) {
		return nil
	}
	return c.vals[i]
}

// Node returns the AST node child i reduced to.
func (c *cursor) Node(i int) (types.Node, error) {
	v, ok := c.Value(i).(nodeVal)
	if !ok {
		return nil, c.unexpected(i, "a node")
	}
	return v.node, nil
}

// Nodes returns the nodes of every nested rule child, in source order.
func (c *cursor) Nodes() ([]types.Node, error) {
	var out []types.Node
	for i := range c.vals {
		if c.Sub(i) == nil {
			continue
		}
		n, err := c.Node(i)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// Body returns the body child i reduced to.
func (c *cursor) Body(i int) (bodyVal, error) {
	v, ok := c.Value(i).(bodyVal)
	if !ok {
		return bodyVal{}, c.unexpected(i, "a body")
	}
	return v, nil
}

// Config returns the configuration object found at the first candidate
// position holding an object literal.
func (c *cursor) Config(positions ...int) (*types.Object, error) {
	for _, i := range positions {
		if !c.IsRule(i, parser.RuleObject) {
			continue
		}
		n, err := c.Node(i)
		if err != nil {
			return nil, err
		}
		obj, ok := n.(*types.Object)
		if !ok {
			return nil, c.unexpected(i, "a configuration object")
		}
		return obj, nil
	}
	return nil, nil
}

// Constraint returns the rule's own constraint child, if any.
func (c *cursor) Constraint() (*types.Constraint, error) {
	i := c.FindRule(parser.RuleConstraint, 0)
	if i < 0 {
		return nil, nil
	}
	v, ok := c.Value(i).(constraintVal)
	if !ok {
		return nil, c.unexpected(i, "a constraint")
	}
	return v.c, nil
}

// errorf builds an error at the rule's line.
func (c *cursor) errorf(code types.ErrorCode, format string, args ...any) *types.Error {
	return types.Errorf(code, c.Line(), format, args...)
}

func (c *cursor) unexpected(i int, want string) *types.Error {
	return c.errorf(types.ErrUnexpectedValue, "%s: expected %s at child %d, found %s", c.rule.Kind, want, i, describe(c.Value(i)))
}

func (c *cursor) malformed(format string, args ...any) *types.Error {
	return c.errorf(types.ErrMalformedRule, "%s: %s", c.rule.Kind, fmt.Sprintf(format, args...))
}
