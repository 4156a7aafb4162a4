package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/sandrolain/goperon/pkg/functions"
	"github.com/sandrolain/goperon/pkg/parser"
	"github.com/sandrolain/goperon/pkg/types"
)

// declare runs before any declaration of the unit is assembled: it compiles
// the imported modules and registers every function signature, so bodies
// may call functions declared later in the unit or recursively.
func (a *assembler) declare(root *parser.Rule) error {
	for _, ch := range root.Children {
		if r, ok := ch.(*parser.Rule); ok && r.Kind == parser.RuleImport {
			if err := a.importModule(r); err != nil {
				return err
			}
		}
	}
	for _, ch := range root.Children {
		if r, ok := ch.(*parser.Rule); ok && r.Kind == parser.RuleFunction {
			if err := a.registerFunction(r); err != nil {
				return err
			}
		}
	}
	return nil
}

func (a *assembler) registerFunction(r *parser.Rule) error {
	c := newCursor(r, make([]value, r.RuleCount()))
	ns, name, _, err := qualifiedName(c, 1)
	if err != nil {
		return err
	}
	if ns == functions.CoreNamespace {
		return types.Errorf(types.ErrReservedNamespace, r.Line(), "cannot declare function %s:%s in the reserved namespace %q", ns, name, ns)
	}

	var arity int
	for _, ch := range r.Children {
		if sub, ok := ch.(*parser.Rule); ok && sub.Kind == parser.RuleParam {
			arity++
		}
	}
	def := &types.FunctionDef{Namespace: ns, Name: name, Arity: arity, Line: r.Line()}
	key := def.Key()
	if prev, ok := a.prog.Functions[key]; ok {
		return types.Errorf(types.ErrDuplicateFunction, r.Line(), "function %s already declared at line %d", key, prev.Line)
	}
	a.prog.Functions[key] = def
	a.defs[r] = def
	return nil
}

// importModule compiles the module named by an Import declaration with a
// fresh assembler and attaches it under its namespace.
func (a *assembler) importModule(r *parser.Rule) error {
	c := newCursor(r, nil)
	uriTok, nsTok := c.Terminal(1), c.Terminal(3)
	if uriTok == nil || nsTok == nil {
		return c.malformed("expected Import STRING As NAME")
	}
	uri, ns := uriTok.Value, nsTok.Value

	switch {
	case ns == functions.CoreNamespace:
		return c.errorf(types.ErrReservedNamespace, "cannot import %q under the reserved namespace %q", uri, ns)
	case a.prog.Imports[ns] != nil:
		return c.errorf(types.ErrNamespaceImported, "namespace %s is already imported", ns)
	case a.opts.Loader == nil:
		return c.errorf(types.ErrModuleLoad, "cannot import %q: no module loader configured", uri)
	}

	src, err := a.opts.Loader.Load(uri, a.prog.URI)
	if err != nil {
		if terr, ok := err.(*types.Error); ok {
			if terr.Line == 0 {
				terr.Line = c.Line()
			}
			return terr
		}
		return c.errorf(types.ErrModuleLoad, "cannot import %q", uri).WithCause(err)
	}

	chain := append(slices.Clone(a.importing), src.URI)
	if slices.Contains(a.importing, src.URI) {
		return c.errorf(types.ErrImportCycle, "import cycle detected: %s", strings.Join(chain, " -> "))
	}

	a.log.Debug("importing module", "namespace", ns, "uri", src.URI, "depth", len(a.importing))
	child, err := compileUnit(a.opts, ns, src.URI, src.Text, true, chain)
	if err != nil {
		return fmt.Errorf("in module %s: %w", ns, err)
	}
	a.prog.AttachImport(child)
	return nil
}
