package compiler

import (
	"github.com/sandrolain/goperon/pkg/parser"
	"github.com/sandrolain/goperon/pkg/types"
)

// Control flow: choice, loops, map and try/catch.

func (a *assembler) choice(c *cursor) (value, error) {
	ch := &types.Choice{Pos: types.Pos(c.Line())}
	for i := 0; i < c.Len(); i++ {
		switch v := c.Value(i).(type) {
		case nil:
		case whenVal:
			ch.Branches = append(ch.Branches, v.branch)
		case otherwiseVal:
			ch.Otherwise = v.node
		default:
			return nil, c.unexpected(i, "a When or Otherwise branch")
		}
	}
	if len(ch.Branches) == 0 {
		return nil, c.malformed("choice without branches")
	}
	return nodeVal{ch}, nil
}

func (a *assembler) when(c *cursor) (value, error) {
	cond, err := c.Node(1)
	if err != nil {
		return nil, err
	}
	then, err := c.Node(3)
	if err != nil {
		return nil, err
	}
	return whenVal{types.ChoiceBranch{When: cond, Then: then}}, nil
}

func (a *assembler) otherwise(c *cursor) (value, error) {
	n, err := c.Node(c.FindRule(parser.RuleExpr, 0))
	if err != nil {
		return nil, err
	}
	return otherwiseVal{n}, nil
}

func (a *assembler) loop(r *parser.Rule, c *cursor) (value, error) {
	config, err := c.Config(1)
	if err != nil {
		return nil, err
	}
	over, err := c.Node(c.FindRule(parser.RuleExpr, 0))
	if err != nil {
		return nil, err
	}
	body, err := c.Body(c.FindRule(parser.RuleBody, 0))
	if err != nil {
		return nil, err
	}
	v := a.ruleVars[r]
	if v == nil {
		return nil, c.malformed("loop variable was not declared")
	}
	return nodeVal{&types.Loop{
		Pos:      types.Pos(c.Line()),
		Var:      v,
		Over:     over,
		Body:     body.node,
		Bindings: body.bindings,
		Config:   config,
	}}, nil
}

func (a *assembler) while(c *cursor) (value, error) {
	config, err := c.Config(1)
	if err != nil {
		return nil, err
	}
	cond, err := c.Node(c.FindRule(parser.RuleExpr, 0))
	if err != nil {
		return nil, err
	}
	body, err := c.Body(c.FindRule(parser.RuleBody, 0))
	if err != nil {
		return nil, err
	}
	return nodeVal{&types.While{
		Pos:      types.Pos(c.Line()),
		Cond:     cond,
		Body:     body.node,
		Bindings: body.bindings,
		Config:   config,
	}}, nil
}

func (a *assembler) doWhile(c *cursor) (value, error) {
	config, err := c.Config(1)
	if err != nil {
		return nil, err
	}
	bi := c.FindRule(parser.RuleBody, 0)
	body, err := c.Body(bi)
	if err != nil {
		return nil, err
	}
	cond, err := c.Node(c.FindRule(parser.RuleExpr, bi))
	if err != nil {
		return nil, err
	}
	return nodeVal{&types.DoWhile{
		Pos:      types.Pos(c.Line()),
		Cond:     cond,
		Body:     body.node,
		Bindings: body.bindings,
		Config:   config,
	}}, nil
}

func (a *assembler) mapBlock(c *cursor) (value, error) {
	config, err := c.Config(1)
	if err != nil {
		return nil, err
	}
	body, err := c.Body(c.FindRule(parser.RuleBody, 0))
	if err != nil {
		return nil, err
	}
	return nodeVal{&types.Map{
		Pos:      types.Pos(c.Line()),
		Body:     body.node,
		Bindings: body.bindings,
		Config:   config,
	}}, nil
}

func (a *assembler) try(c *cursor) (value, error) {
	config, err := c.Config(1)
	if err != nil {
		return nil, err
	}
	body, err := c.Body(c.FindRule(parser.RuleBody, 0))
	if err != nil {
		return nil, err
	}
	ci := c.FindRule(parser.RuleCatch, 0)
	handler, ok := c.Value(ci).(catchVal)
	if !ok {
		return nil, c.unexpected(ci, "a catch clause")
	}
	return nodeVal{&types.TryCatch{
		Pos:             types.Pos(c.Line()),
		Body:            body.node,
		Bindings:        body.bindings,
		ErrVar:          handler.v,
		Handler:         handler.body.node,
		HandlerBindings: handler.body.bindings,
		Config:          config,
	}}, nil
}

func (a *assembler) catch(r *parser.Rule, c *cursor) (value, error) {
	body, err := c.Body(c.FindRule(parser.RuleBody, 0))
	if err != nil {
		return nil, err
	}
	return catchVal{v: a.ruleVars[r], body: body}, nil
}
