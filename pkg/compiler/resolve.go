package compiler

import (
	"slices"
	"strings"

	"github.com/sandrolain/goperon/pkg/functions"
	"github.com/sandrolain/goperon/pkg/parser"
	"github.com/sandrolain/goperon/pkg/types"
)

// resolution is the outcome of resolving a function name.
type resolution struct {
	key    string
	kind   types.Resolution
	def    *types.FunctionDef
	module string
}

// resolveFunction resolves ns:name called with arity arguments.
//
// A definition in the current unit wins. A qualified name then tries the
// module imported under ns, and only after both fail is the built-in
// library consulted. An unqualified name that core lacks resolves to a
// library built-in when exactly one namespace provides it.
func (a *assembler) resolveFunction(ns, name string, arity, line int) (resolution, error) {
	key := types.FunctionKey(ns, name, arity)
	if def, ok := a.prog.Functions[key]; ok {
		a.log.Debug("resolved function", "key", key, "resolution", types.ResolvedUser)
		return resolution{key: key, kind: types.ResolvedUser, def: def}, nil
	}

	if ns != "" {
		if mod, ok := a.prog.Imports[ns]; ok {
			if def, ok := mod.Functions[types.FunctionKey("", name, arity)]; ok {
				a.log.Debug("resolved function", "key", key, "resolution", types.ResolvedModule, "module", mod.URI)
				return resolution{key: key, kind: types.ResolvedModule, def: def, module: ns}, nil
			}
		}
	}

	b, ok := a.opts.Registry.Lookup(ns, name, arity)
	if ok && b.Internal {
		return resolution{}, types.Errorf(types.ErrUndefinedFunction, line, "undefined function %s with %d arguments", qualify(ns, name), arity).
			WithHint(name + " is reserved for test context instrumentation")
	}
	var candidates []*functions.Builtin
	if !ok && ns == "" {
		candidates = a.opts.Registry.Library(name, arity)
		if len(candidates) == 1 {
			b, ok = candidates[0], true
		}
	}
	if ok {
		a.prog.Capabilities |= b.Caps
		bkey := b.Key(arity)
		a.log.Debug("resolved function", "key", bkey, "resolution", types.ResolvedBuiltin)
		return resolution{key: bkey, kind: types.ResolvedBuiltin}, nil
	}

	err := types.Errorf(types.ErrUndefinedFunction, line, "undefined function %s with %d arguments", qualify(ns, name), arity)
	if len(candidates) > 1 {
		names := make([]string, len(candidates))
		for i, cand := range candidates {
			names[i] = cand.Namespace + ":" + name
		}
		err.WithHint("ambiguous built-in, qualify it as one of " + strings.Join(names, ", "))
	}
	if ns != "" {
		if _, ok := a.prog.Imports[ns]; !ok && !a.registryHasNamespace(ns) {
			err.WithHint("namespace " + ns + " is neither imported nor a built-in library")
		}
	}
	return resolution{}, err
}

func (a *assembler) registryHasNamespace(ns string) bool {
	return slices.Contains(a.opts.Registry.Namespaces(), ns)
}

func qualify(ns, name string) string {
	if ns == "" {
		return name
	}
	return ns + ":" + name
}

// resolveVar resolves $name or ns:$name to its binding.
func (a *assembler) resolveVar(ns, name string, line int) (*types.Binding, error) {
	if ns == "" {
		if b, _, ok := a.chain.Lookup(name); ok {
			return b, nil
		}
		if slices.Contains(a.opts.Globals, name) {
			b, ok := a.hostGlobals[name]
			if !ok {
				b = &types.Binding{Name: name, Kind: types.BindGlobal, Scope: "host"}
				a.hostGlobals[name] = b
			}
			return b, nil
		}
		return nil, types.Errorf(types.ErrUndefinedVariable, line, "undefined variable $%s", name)
	}

	if b, _, ok := a.chain.Lookup(types.BindingKey(ns, name)); ok {
		return b, nil
	}
	mod, ok := a.prog.Imports[ns]
	if !ok {
		return nil, types.Errorf(types.ErrUnknownNamespace, line, "unknown namespace %q in %s:$%s", ns, ns, name).
			WithHint("import the module with 'Import \"...\" As " + ns + ";'")
	}
	b, ok := mod.Globals[name]
	if !ok {
		return nil, types.Errorf(types.ErrUndefinedVariable, line, "module %s does not declare $%s", ns, name)
	}
	return b, nil
}

func (a *assembler) variable(c *cursor) (value, error) {
	var ns string
	vi := 0
	if c.Len() == 3 {
		t := c.Terminal(0)
		if t == nil || t.Type != parser.TokenName {
			return nil, c.malformed("namespaced reference without a namespace")
		}
		ns = t.Value
		vi = 2
	}
	name := c.Terminal(vi)
	if name == nil || name.Type != parser.TokenVariable {
		return nil, c.malformed("reference without a variable")
	}
	b, err := a.resolveVar(ns, name.Value, c.Line())
	if err != nil {
		return nil, err
	}
	return nodeVal{&types.ValueRef{Pos: types.Pos(c.Line()), Namespace: ns, Name: name.Value, Binding: b}}, nil
}

func (a *assembler) computedRef(c *cursor) (value, error) {
	expr, err := c.Node(c.FindRule(parser.RuleExpr, 0))
	if err != nil {
		return nil, err
	}
	return nodeVal{&types.ValueRef{Pos: types.Pos(c.Line()), Computed: expr}}, nil
}

func (a *assembler) assign(c *cursor) (value, error) {
	name := c.Terminal(0)
	if name == nil || name.Type != parser.TokenVariable {
		return nil, c.malformed("assignment without a variable")
	}
	b, _, ok := a.chain.Lookup(name.Value)
	if !ok {
		return nil, c.errorf(types.ErrUndefinedVariable, "assignment to undeclared variable $%s", name.Value).
			WithHint("declare it first with 'Let $" + name.Value + ": ...;'")
	}
	val, err := c.Node(2)
	if err != nil {
		return nil, err
	}
	return nodeVal{&types.Assign{Pos: types.Pos(c.Line()), Name: name.Value, Binding: b, Value: val}}, nil
}

// qualifiedName reads NAME or NAME ':' NAME starting at child i and returns
// the index of the first child after it.
func qualifiedName(c *cursor, i int) (ns, name string, next int, err error) {
	if !c.IsTerminal(i, parser.TokenName) {
		return "", "", 0, c.malformed("expected a function name")
	}
	if c.IsTerminal(i+1, parser.TokenColon) && c.IsTerminal(i+2, parser.TokenName) {
		return c.Terminal(i).Value, c.Terminal(i + 2).Value, i + 3, nil
	}
	return "", c.Terminal(i).Value, i + 1, nil
}

func (a *assembler) call(c *cursor) (value, error) {
	ns, name, next, err := qualifiedName(c, 0)
	if err != nil {
		return nil, err
	}
	args, err := a.args(c, next, false)
	if err != nil {
		return nil, err
	}
	res, err := a.resolveFunction(ns, name, len(args), c.Line())
	if err != nil {
		return nil, err
	}
	return nodeVal{&types.FunctionCall{
		Pos:        types.Pos(c.Line()),
		Namespace:  ns,
		Name:       name,
		Args:       args,
		Key:        res.key,
		Resolution: res.kind,
		Def:        res.def,
		Module:     res.module,
	}}, nil
}

// functionRef flattens every argument group into one list; the arity is the
// total number of arguments and placeholders.
func (a *assembler) functionRef(c *cursor) (value, error) {
	ns, name, next, err := qualifiedName(c, 1)
	if err != nil {
		return nil, err
	}
	args, err := a.args(c, next, true)
	if err != nil {
		return nil, err
	}
	res, err := a.resolveFunction(ns, name, len(args), c.Line())
	if err != nil {
		return nil, err
	}
	return nodeVal{&types.FunctionRef{
		Pos:        types.Pos(c.Line()),
		Namespace:  ns,
		Name:       name,
		Args:       args,
		Key:        res.key,
		Resolution: res.kind,
		Def:        res.def,
		Module:     res.module,
	}}, nil
}

// args collects the argument nodes from child i on, in source order.
// Separators and parentheses are skipped; with placeholders set, '_' yields
// a nil argument.
func (a *assembler) args(c *cursor, from int, placeholders bool) ([]types.Node, error) {
	args := []types.Node{}
	for i := from; i < c.Len(); i++ {
		if t := c.Terminal(i); t != nil {
			if t.Type == parser.TokenPlaceholder {
				if !placeholders {
					return nil, c.malformed("placeholder outside a function reference")
				}
				args = append(args, nil)
			}
			continue
		}
		n, err := c.Node(i)
		if err != nil {
			return nil, err
		}
		args = append(args, n)
	}
	return args, nil
}

func (a *assembler) invoke(c *cursor) (value, error) {
	name := c.Terminal(0)
	if name == nil || name.Type != parser.TokenVariable {
		return nil, c.malformed("invocation without a variable")
	}
	b, err := a.resolveVar("", name.Value, c.Line())
	if err != nil {
		return nil, err
	}
	config, err := c.Config(1)
	if err != nil {
		return nil, err
	}
	from := 1
	if config != nil {
		from = 2
	}
	args, err := a.args(c, from, false)
	if err != nil {
		return nil, err
	}
	ref := &types.ValueRef{Pos: types.Pos(c.Line()), Name: name.Value, Binding: b}
	return nodeVal{&types.FunctionRefInvoke{Pos: types.Pos(c.Line()), Ref: ref, Args: args, Config: config}}, nil
}

// lambda builds a lambda value, or an immediate call when every parameter
// carries an argument.
func (a *assembler) lambda(c *cursor) (value, error) {
	var (
		params []*types.Binding
		args   []types.Node
		bound  int
	)
	for i := 0; i < c.Len(); i++ {
		p, ok := c.Value(i).(paramVal)
		if !ok {
			continue
		}
		params = append(params, p.b)
		args = append(args, p.value)
		if p.value != nil {
			bound++
		}
	}
	if bound != 0 && bound != len(params) {
		return nil, c.errorf(types.ErrLambdaParameters, "%d of %d lambda parameters have values: bind all of them or none", bound, len(params))
	}

	constraint, err := c.Constraint()
	if err != nil {
		return nil, err
	}
	body, err := c.Body(c.FindRule(parser.RuleBody, 0))
	if err != nil {
		return nil, err
	}

	line := types.Pos(c.Line())
	if bound > 0 {
		return nodeVal{&types.LambdaCall{
			Pos:        line,
			Params:     params,
			Args:       args,
			Constraint: constraint,
			Body:       body.node,
			Bindings:   body.bindings,
		}}, nil
	}
	return nodeVal{&types.LambdaRef{
		Pos:        line,
		Params:     params,
		Constraint: constraint,
		Body:       body.node,
		Bindings:   body.bindings,
	}}, nil
}
