package compiler

import (
	"github.com/sandrolain/goperon/pkg/functions"
	"github.com/sandrolain/goperon/pkg/parser"
	"github.com/sandrolain/goperon/pkg/types"
)

// Built-ins the weaver calls. Both take the call site key and an expression.
const (
	mockBuiltin   = "mock"
	assertBuiltin = "assert"
)

// ioCall assembles an external component call site and, under a test
// context, weaves its mock or assertions in.
func (a *assembler) ioCall(c *cursor) (value, error) {
	var names []string
	for i := 1; i < c.Len(); i++ {
		if c.IsTerminal(i, parser.TokenName) {
			names = append(names, c.Terminal(i).Value)
		}
	}
	config, err := c.Config(4, 6)
	if err != nil {
		return nil, err
	}

	call := &types.IOCall{Pos: types.Pos(c.Line()), Config: config}
	switch len(names) {
	case 2:
		call.Name, call.Identifier = names[0], names[1]
	case 3:
		call.Namespace, call.Name, call.Identifier = names[0], names[1], names[2]
	default:
		return nil, c.malformed("expected name:identifier or namespace:name:identifier")
	}

	n, err := a.weave(call)
	if err != nil {
		return nil, err
	}
	return nodeVal{n}, nil
}

// weave replaces call with its mock, or follows it with its assertions.
// A call site may have one or the other, never both.
func (a *assembler) weave(call *types.IOCall) (types.Node, error) {
	tc := a.opts.TestContext
	if tc == nil {
		return call, nil
	}
	key := call.Key()

	mock, mocked, err := tc.Mock(key)
	if err != nil {
		return nil, err
	}
	asserts, err := tc.Assertions(key)
	if err != nil {
		return nil, err
	}
	if mocked && len(asserts) > 0 {
		return nil, types.Errorf(types.ErrMockAndAssert, call.Line(), "component %s has both a mock and assertions", key)
	}

	switch {
	case mocked:
		a.log.Debug("weaving mock", "component", key)
		return a.builtinCall(call.Line(), mockBuiltin, key, mock), nil
	case len(asserts) > 0:
		a.log.Debug("weaving assertions", "component", key, "count", len(asserts))
		seq := &types.Multi{Pos: call.Pos, Nodes: []types.Node{call}}
		for _, as := range asserts {
			seq.Nodes = append(seq.Nodes, a.builtinCall(call.Line(), assertBuiltin, key, as))
		}
		return seq, nil
	}
	return call, nil
}

func (a *assembler) builtinCall(line int, name, key string, expr types.Node) *types.FunctionCall {
	if b, ok := a.opts.Registry.Lookup(functions.CoreNamespace, name, 2); ok {
		a.prog.Capabilities |= b.Caps
	}
	return &types.FunctionCall{
		Pos:        types.Pos(line),
		Namespace:  functions.CoreNamespace,
		Name:       name,
		Args:       []types.Node{types.StringLiteral(line, key), expr},
		Key:        types.FunctionKey(functions.CoreNamespace, name, 2),
		Resolution: types.ResolvedBuiltin,
	}
}
