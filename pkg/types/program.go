// Package types defines the compiled form of a goperon program.
//
// This package contains type definitions for:
//   - Node: the AST variants produced by the compiler
//   - Path: structural address patterns
//   - Binding, FunctionDef: declarations resolved at compile time
//   - Program: the compiled unit handed to an evaluator
//   - Error: structured errors with codes
package types

import (
	"sort"
	"strconv"
)

// BindingKind tells how a name was introduced.
type BindingKind uint8

const (
	BindLet BindingKind = iota
	BindParam
	BindLambdaParam
	BindLoopVar
	BindCatchVar
	BindFromVar
	BindGlobal
)

func (k BindingKind) String() string {
	switch k {
	case BindLet:
		return "let"
	case BindParam:
		return "param"
	case BindLambdaParam:
		return "lambda-param"
	case BindLoopVar:
		return "loop-var"
	case BindCatchVar:
		return "catch-var"
	case BindFromVar:
		return "from"
	case BindGlobal:
		return "global"
	default:
		return "unknown"
	}
}

// Constraint is a value predicate attached to a binding, parameter or
// result. Text is the predicate's source, kept for diagnostics.
type Constraint struct {
	Expr Node
	Text string
}

// Binding is a named value introduced into a scope.
type Binding struct {
	Namespace  string
	Name       string
	Kind       BindingKind
	Value      Node // nil for parameters and loop/catch variables
	Constraint *Constraint
	Scope      string // kind of the scope frame holding the binding
	Line       int
}

// Key returns namespace:name, or the bare name without a namespace.
func (b *Binding) Key() string {
	return BindingKey(b.Namespace, b.Name)
}

// BindingKey builds the scope-table key of a binding.
func BindingKey(namespace, name string) string {
	if namespace == "" {
		return name
	}
	return namespace + ":" + name
}

// FunctionKey builds the qualified namespace:name:arity key.
func FunctionKey(namespace, name string, arity int) string {
	if namespace == "" {
		return name + ":" + strconv.Itoa(arity)
	}
	return namespace + ":" + name + ":" + strconv.Itoa(arity)
}

// FunctionDef is a user-defined function.
type FunctionDef struct {
	Namespace  string
	Name       string
	Arity      int
	Params     []*Binding
	Constraint *Constraint
	Body       Node
	Bindings   []*Binding
	Line       int
}

// Key returns the qualified key.
func (d *FunctionDef) Key() string {
	return FunctionKey(d.Namespace, d.Name, d.Arity)
}

// Select is the root statement producing a program's output.
type Select struct {
	Constraint *Constraint
	Config     *Object
	Body       Node
	Bindings   []*Binding
	Line       int
}

// Handler is the program-level exception handler.
type Handler struct {
	Var      *Binding
	Body     Node
	Bindings []*Binding
	Line     int
}

// AggregateDescriptor configures an Aggregate operator. Buffering and
// windowing are the evaluator's business.
type AggregateDescriptor struct {
	ID                string
	CorrelationID     Node
	FirePredicate     Node
	AggregateFunction Node
	HasTimeout        bool
	TimeoutMillis     float64
}

// Capability flags ask the evaluator to track extra traversal metadata.
type Capability uint8

const (
	// CapPosition is set when positional built-ins are referenced.
	CapPosition Capability = 1 << iota
	// CapParent is set when parent-navigation built-ins are referenced.
	CapParent
)

// String lists the set flags.
func (c Capability) String() string {
	var s string
	if c&CapPosition != 0 {
		s = "position"
	}
	if c&CapParent != 0 {
		if s != "" {
			s += "|"
		}
		s += "parent"
	}
	if s == "" {
		return "none"
	}
	return s
}

// Program is the compiled form of one source unit (a main program, a
// module or a standalone expression).
//
// A Program is not modified after compilation returns and is safe for
// concurrent reads.
type Program struct {
	// Namespace is the namespace a module is imported under; empty for the
	// main program.
	Namespace string
	// URI is the canonical source location, empty for in-memory sources.
	URI string
	// Root is the top-level node: the Select body, or the expression for
	// expression units. Nil for modules.
	Root Node

	Functions   map[string]*FunctionDef
	Imports     map[string]*Program
	ImportOrder []string

	// Bindings holds every let-binding created in this unit, in creation
	// order.
	Bindings []*Binding
	// Globals holds the root-level let-bindings by key.
	Globals map[string]*Binding

	Capabilities Capability

	From      *Binding
	Select    *Select
	Exception *Handler

	source string
	parent *Program
}

// NewProgram creates an empty program context.
func NewProgram(namespace, uri, source string) *Program {
	return &Program{
		Namespace: namespace,
		URI:       uri,
		Functions: make(map[string]*FunctionDef),
		Imports:   make(map[string]*Program),
		Globals:   make(map[string]*Binding),
		source:    source,
	}
}

// Source returns the source text the program was compiled from.
func (p *Program) Source() string {
	return p.source
}

// Parent returns the importing program, or nil for the main program.
func (p *Program) Parent() *Program {
	return p.parent
}

// AttachImport registers child under its namespace and links it back.
func (p *Program) AttachImport(child *Program) {
	child.parent = p
	p.Imports[child.Namespace] = child
	p.ImportOrder = append(p.ImportOrder, child.Namespace)
	p.Capabilities |= child.Capabilities
}

// Function returns the function registered under key.
func (p *Program) Function(key string) (*FunctionDef, bool) {
	d, ok := p.Functions[key]
	return d, ok
}

// Has reports whether all flags in c are set.
func (p *Program) Has(c Capability) bool {
	return p.Capabilities&c == c
}

// FunctionKeys returns the registered function keys, sorted.
func (p *Program) FunctionKeys() []string {
	keys := make([]string, 0, len(p.Functions))
	for k := range p.Functions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Files returns the URIs of this unit and every unit it imports,
// depth-first, without duplicates or empty entries.
func (p *Program) Files() []string {
	seen := make(map[string]bool)
	var out []string
	var visit func(*Program)
	visit = func(q *Program) {
		if q.URI != "" && !seen[q.URI] {
			seen[q.URI] = true
			out = append(out, q.URI)
		}
		for _, ns := range q.ImportOrder {
			visit(q.Imports[ns])
		}
	}
	visit(p)
	return out
}

// String returns the source text.
func (p *Program) String() string {
	return p.source
}
