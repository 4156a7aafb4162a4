package compiler

import (
	"github.com/sandrolain/goperon/pkg/functions"
	"github.com/sandrolain/goperon/pkg/parser"
	"github.com/sandrolain/goperon/pkg/scope"
	"github.com/sandrolain/goperon/pkg/types"
)

// Declarations and statements: program, function, let, exception, from,
// select and body.

func (a *assembler) program(c *cursor) (value, error) {
	if !a.module && a.prog.Select == nil {
		return nil, c.errorf(types.ErrMissingSelect, "program has no Select statement").
			WithHint("add 'Select: <expr>' after the declarations")
	}
	return declVal{}, nil
}

func (a *assembler) function(r *parser.Rule, c *cursor) (value, error) {
	def := a.defs[r]
	if def == nil {
		return nil, c.malformed("function was not registered")
	}

	var params []*types.Binding
	for i := 0; i < c.Len(); i++ {
		if p, ok := c.Value(i).(paramVal); ok {
			params = append(params, p.b)
		}
	}
	if len(params) != def.Arity {
		return nil, c.malformed("registered with %d parameters, assembled %d", def.Arity, len(params))
	}
	constraint, err := c.Constraint()
	if err != nil {
		return nil, err
	}
	body, err := c.Body(c.FindRule(parser.RuleBody, 0))
	if err != nil {
		return nil, err
	}

	def.Params = params
	def.Constraint = constraint
	def.Body = body.node
	def.Bindings = body.bindings
	return declVal{}, nil
}

// param declares a function or lambda parameter. It stays invisible until
// the body of its construct is entered.
func (a *assembler) param(c *cursor, kind types.BindingKind) (value, error) {
	name := c.Terminal(0)
	if name == nil || name.Type != parser.TokenVariable {
		return nil, c.malformed("parameter without a variable")
	}
	constraint, err := c.Constraint()
	if err != nil {
		return nil, err
	}

	var bound types.Node
	if i := c.FindTerminal(parser.TokenColon, 1); i >= 0 {
		if bound, err = c.Node(i + 1); err != nil {
			return nil, err
		}
	}

	b := &types.Binding{Name: name.Value, Kind: kind, Constraint: constraint, Line: name.Line()}
	if err := a.chain.Defer(b); err != nil {
		return nil, err
	}
	return paramVal{b: b, value: bound}, nil
}

// let binds into the frame enclosing the Let frame, so the value cannot see
// its own name and later siblings can.
func (a *assembler) let(c *cursor) (value, error) {
	var ns string
	if c.IsTerminal(1, parser.TokenName) {
		ns = c.Terminal(1).Value
	}
	vi := c.FindTerminal(parser.TokenVariable, 1)
	if vi < 0 {
		return nil, c.malformed("let without a variable")
	}
	name := c.Terminal(vi)
	if ns == functions.CoreNamespace {
		return nil, c.errorf(types.ErrReservedNamespace, "cannot declare $%s in the reserved namespace %q", name.Value, ns)
	}

	constraint, err := c.Constraint()
	if err != nil {
		return nil, err
	}
	val, err := c.Node(c.FindRule(parser.RuleExpr, vi))
	if err != nil {
		return nil, err
	}

	b := &types.Binding{
		Namespace:  ns,
		Name:       name.Value,
		Kind:       types.BindLet,
		Value:      val,
		Constraint: constraint,
		Line:       c.Line(),
	}
	parent, ok := a.chain.Parent(a.chain.Current())
	if !ok {
		return nil, c.malformed("let frame has no parent")
	}
	if err := a.chain.Bind(parent, b); err != nil {
		return nil, err
	}
	a.prog.Bindings = append(a.prog.Bindings, b)
	if parent == scope.Root {
		a.prog.Globals[b.Key()] = b
	}
	return bindingVal{b}, nil
}

func (a *assembler) exception(r *parser.Rule, c *cursor) (value, error) {
	if a.prog.Exception != nil {
		return nil, c.errorf(types.ErrDuplicateBinding, "exception handler already declared at line %d", a.prog.Exception.Line)
	}
	body, err := c.Body(c.FindRule(parser.RuleBody, 0))
	if err != nil {
		return nil, err
	}
	a.prog.Exception = &types.Handler{
		Var:      a.ruleVars[r],
		Body:     body.node,
		Bindings: body.bindings,
		Line:     c.Line(),
	}
	return declVal{}, nil
}

// from binds the input variable in the root frame so the Select body and
// its nested constructs see it.
func (a *assembler) from(c *cursor) (value, error) {
	name := c.Terminal(1)
	if name == nil || name.Type != parser.TokenVariable {
		return nil, c.malformed("From without a variable")
	}
	constraint, err := c.Constraint()
	if err != nil {
		return nil, err
	}
	b := &types.Binding{Name: name.Value, Kind: types.BindFromVar, Constraint: constraint, Line: c.Line()}
	if err := a.chain.Bind(scope.Root, b); err != nil {
		return nil, err
	}
	a.prog.From = b
	return declVal{}, nil
}

func (a *assembler) selectStmt(c *cursor) (value, error) {
	constraint, err := c.Constraint()
	if err != nil {
		return nil, err
	}
	config, err := c.Config(1, 2)
	if err != nil {
		return nil, err
	}
	body, err := c.Body(c.FindRule(parser.RuleBody, 0))
	if err != nil {
		return nil, err
	}
	a.prog.Select = &types.Select{
		Constraint: constraint,
		Config:     config,
		Body:       body.node,
		Bindings:   body.bindings,
		Line:       c.Line(),
	}
	a.prog.Root = body.node
	return declVal{}, nil
}

func (a *assembler) body(c *cursor) (value, error) {
	var out bodyVal
	for i := 0; i < c.Len(); i++ {
		switch v := c.Value(i).(type) {
		case bindingVal:
			out.bindings = append(out.bindings, v.b)
		case nodeVal:
			if out.node != nil {
				return nil, c.malformed("body with more than one expression")
			}
			out.node = v.node
		case nil:
		default:
			return nil, c.unexpected(i, "a let or an expression")
		}
	}
	if out.node == nil {
		return nil, c.malformed("body without an expression")
	}
	return out, nil
}

func (a *assembler) constraint(c *cursor) (value, error) {
	i := c.FindRule(parser.RuleExpr, 0)
	n, err := c.Node(i)
	if err != nil {
		return nil, err
	}
	return constraintVal{&types.Constraint{Expr: n, Text: c.Sub(i).Text()}}, nil
}
