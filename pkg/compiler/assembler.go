package compiler

import (
	"errors"
	"log/slog"

	"github.com/sandrolain/goperon/pkg/parser"
	"github.com/sandrolain/goperon/pkg/scope"
	"github.com/sandrolain/goperon/pkg/types"
)

// assembler builds the AST of one source unit from the rule events of its
// syntax tree. It implements parser.Listener.
//
// Each rule leaves exactly one value on the stack. On exit the driver pops
// the values of the rule's nested rules and hands them to the rule's handler
// through a cursor; handlers never touch the stack.
type assembler struct {
	opts   *Options
	log    *slog.Logger
	prog   *types.Program
	chain  *scope.Chain
	file   string
	module bool

	stack []value
	marks []int

	// flushAt maps the body of a parameterised construct to the frame whose
	// deferred bindings become visible when that body is entered.
	flushAt map[*parser.Rule]scope.Handle
	// ruleVars holds the loop and catch variables bound on rule entry.
	ruleVars map[*parser.Rule]*types.Binding
	// defs holds the function definitions registered by the signature pass.
	defs map[*parser.Rule]*types.FunctionDef
	// hostGlobals holds the bindings created for Options.Globals on first use.
	hostGlobals map[string]*types.Binding

	// importing is the chain of canonical URIs currently being compiled,
	// outermost first.
	importing []string
}

func newAssembler(opts *Options, prog *types.Program, module bool, importing []string) *assembler {
	file := opts.File
	if prog.URI != "" && (module || file == "") {
		file = prog.URI
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &assembler{
		opts:        opts,
		log:         logger,
		prog:        prog,
		chain:       scope.New(),
		file:        file,
		module:      module,
		flushAt:     make(map[*parser.Rule]scope.Handle),
		ruleVars:    make(map[*parser.Rule]*types.Binding),
		defs:        make(map[*parser.Rule]*types.FunctionDef),
		hostGlobals: make(map[string]*types.Binding),
		importing:   importing,
	}
}

// run walks root and returns the single value it reduced to.
func (a *assembler) run(root *parser.Rule) (value, error) {
	if err := parser.Walk(root, a); err != nil {
		return nil, a.annotate(err)
	}
	if len(a.stack) != 1 || len(a.marks) != 0 {
		return nil, types.Errorf(types.ErrStackImbalance, root.Line(),
			"assembly finished with %d values and %d open rules", len(a.stack), len(a.marks)).WithFile(a.file)
	}
	return a.stack[0], nil
}

// annotate records the unit's file on err unless a nested unit already did.
func (a *assembler) annotate(err error) error {
	var terr *types.Error
	if errors.As(err, &terr) {
		terr.WithFile(a.file)
	}
	return err
}

// EnterRule opens the scope frame of r, if it has one.
func (a *assembler) EnterRule(r *parser.Rule) (func(), error) {
	a.marks = append(a.marks, len(a.stack))

	switch r.Kind {
	case parser.RuleProgram:
		return nil, a.declare(r)

	case parser.RuleBody:
		if h, ok := a.flushAt[r]; ok {
			delete(a.flushAt, r)
			return nil, a.chain.Flush(h)
		}
		return nil, nil

	case parser.RuleFunction, parser.RuleLambda:
		h, leave := a.chain.Enter(scope.Function, r.Line())
		a.flushBody(r, h)
		return leave, nil

	case parser.RuleLet:
		_, leave := a.chain.Enter(scope.Let, r.Line())
		return leave, nil

	case parser.RuleLoop:
		h, leave := a.chain.Enter(scope.Loop, r.Line())
		if err := a.deferVar(r, h, types.BindLoopVar); err != nil {
			leave()
			return nil, err
		}
		return leave, nil

	case parser.RuleWhile, parser.RuleDoWhile:
		_, leave := a.chain.Enter(scope.Loop, r.Line())
		return leave, nil

	case parser.RuleMap:
		_, leave := a.chain.Enter(scope.Map, r.Line())
		return leave, nil

	case parser.RuleChoice:
		_, leave := a.chain.Enter(scope.Choice, r.Line())
		return leave, nil

	case parser.RuleWhere:
		_, leave := a.chain.Enter(scope.Where, r.Line())
		return leave, nil

	case parser.RuleException, parser.RuleCatch:
		h, leave := a.chain.Enter(scope.Exception, r.Line())
		if err := a.deferVar(r, h, types.BindCatchVar); err != nil {
			leave()
			return nil, err
		}
		return leave, nil

	case parser.RuleFrom:
		_, leave := a.chain.Enter(scope.From, r.Line())
		return leave, nil

	case parser.RuleSelect:
		_, leave := a.chain.Enter(scope.Select, r.Line())
		return leave, nil
	}
	return nil, nil
}

// flushBody registers the body child of r as the point where the deferred
// bindings of frame h become visible.
func (a *assembler) flushBody(r *parser.Rule, h scope.Handle) {
	for _, ch := range r.Children {
		if sub, ok := ch.(*parser.Rule); ok && sub.Kind == parser.RuleBody {
			a.flushAt[sub] = h
			return
		}
	}
}

// deferVar declares the variable terminal of r, if any, as a pending binding
// of frame h that the body of r will see.
func (a *assembler) deferVar(r *parser.Rule, h scope.Handle, kind types.BindingKind) error {
	a.flushBody(r, h)
	for _, ch := range r.Children {
		t, ok := ch.(*parser.Token)
		if !ok || t.Type != parser.TokenVariable {
			continue
		}
		b := &types.Binding{Name: t.Value, Kind: kind, Line: t.Line()}
		if err := a.chain.Defer(b); err != nil {
			return err
		}
		a.ruleVars[r] = b
		return nil
	}
	return nil
}

// ExitRule reduces r and pushes its value.
func (a *assembler) ExitRule(r *parser.Rule) error {
	mark := a.marks[len(a.marks)-1]
	a.marks = a.marks[:len(a.marks)-1]

	n := r.RuleCount()
	if got := len(a.stack) - mark; got != n {
		return types.Errorf(types.ErrStackImbalance, r.Line(),
			"%s: expected %d reduced children, found %d", r.Kind, n, got)
	}
	c := newCursor(r, a.stack[mark:])
	a.stack = a.stack[:mark]

	v, err := a.reduce(r, c)
	if err != nil {
		return err
	}
	if v == nil {
		return types.Errorf(types.ErrMalformedRule, r.Line(), "%s: rule reduced to nothing", r.Kind)
	}
	a.stack = append(a.stack, v)
	return nil
}

// reduce dispatches r to its handler.
func (a *assembler) reduce(r *parser.Rule, c *cursor) (value, error) {
	switch r.Kind {
	case parser.RuleProgram:
		return a.program(c)
	case parser.RuleImport:
		return declVal{}, nil
	case parser.RuleFunction:
		return a.function(r, c)
	case parser.RuleParam:
		return a.param(c, types.BindParam)
	case parser.RuleLet:
		return a.let(c)
	case parser.RuleException:
		return a.exception(r, c)
	case parser.RuleFrom:
		return a.from(c)
	case parser.RuleSelect:
		return a.selectStmt(c)
	case parser.RuleBody:
		return a.body(c)
	case parser.RuleConstraint:
		return a.constraint(c)
	case parser.RuleExpr:
		return a.expr(c)
	case parser.RuleRange:
		return a.rangeExpr(c)
	case parser.RuleAssign:
		return a.assign(c)
	case parser.RuleLiteral:
		return a.literal(c)
	case parser.RuleArray:
		return a.array(c)
	case parser.RuleObject:
		return a.object(c)
	case parser.RuleObjectPair:
		return a.objectPair(c)
	case parser.RuleCurrent:
		return nodeVal{&types.Current{Pos: types.Pos(c.Line())}}, nil
	case parser.RuleVar:
		return a.variable(c)
	case parser.RuleComputedRef:
		return a.computedRef(c)
	case parser.RuleEnv:
		return a.env(c)
	case parser.RuleCall:
		return a.call(c)
	case parser.RuleFunctionRef:
		return a.functionRef(c)
	case parser.RuleInvoke:
		return a.invoke(c)
	case parser.RuleLambda:
		return a.lambda(c)
	case parser.RuleLambdaParam:
		return a.param(c, types.BindLambdaParam)
	case parser.RulePathValue, parser.RuleMatches:
		return a.pathCall(r.Kind, c)
	case parser.RulePattern:
		return a.pattern(c)
	case parser.RuleFilter:
		return a.filter(c)
	case parser.RuleFilterList:
		return a.filterList(c)
	case parser.RuleFilterItem:
		return a.filterItem(c)
	case parser.RuleUpdate, parser.RuleBuild:
		return a.update(r.Kind, c)
	case parser.RuleUpdatePair:
		return a.updatePair(c)
	case parser.RuleUpdateArray:
		return a.updateArray(c)
	case parser.RuleChoice:
		return a.choice(c)
	case parser.RuleWhen:
		return a.when(c)
	case parser.RuleOtherwise:
		return a.otherwise(c)
	case parser.RuleLoop:
		return a.loop(r, c)
	case parser.RuleWhile:
		return a.while(c)
	case parser.RuleDoWhile:
		return a.doWhile(c)
	case parser.RuleMap:
		return a.mapBlock(c)
	case parser.RuleWhere:
		return a.where(c)
	case parser.RuleTry:
		return a.try(c)
	case parser.RuleCatch:
		return a.catch(r, c)
	case parser.RuleThrow:
		return a.throw(c)
	case parser.RuleAggregate:
		return a.aggregate(c)
	case parser.RuleIOCall:
		return a.ioCall(c)
	case parser.RuleAccess:
		return a.access(c)
	case parser.RuleDynamicAccess:
		return a.dynamicAccess(c)
	case parser.RuleDeepScan:
		return a.deepScan(c)
	case parser.RuleIndex:
		return a.index(c)
	default:
		return nil, types.Errorf(types.ErrMalformedRule, r.Line(), "no handler for rule %s", r.Kind)
	}
}
