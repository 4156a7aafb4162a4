// Package functions describes the built-in function library known to the
// compiler.
//
// The registry holds names, namespaces, arities and capability flags only.
// Implementations belong to the evaluator; the compiler needs just enough to
// resolve a call site to a qualified key.
//
// # Example
//
//	reg := functions.Default().Clone()
//	reg.Register(functions.Builtin{
//	    Namespace: "geo",
//	    Name:      "distance",
//	    MinArgs:   2,
//	    MaxArgs:   2,
//	    Signature: "<o-o:n>",
//	})
//	b, ok := reg.Lookup("geo", "distance", 2)
package functions

import (
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/sandrolain/goperon/pkg/types"
)

// CoreNamespace is the namespace of unqualified built-ins. User code may not
// declare into it.
const CoreNamespace = "core"

// Variadic marks a Builtin without an upper argument bound.
const Variadic = -1

// Builtin describes one built-in function.
type Builtin struct {
	// Namespace is the library namespace; empty means core.
	Namespace string
	// Name is the function name as written at call sites.
	Name string
	// MinArgs and MaxArgs bound the accepted argument count. MaxArgs may be
	// Variadic.
	MinArgs int
	MaxArgs int
	// Caps is set on the calling program when the function is referenced.
	Caps types.Capability
	// Signature is an informational type signature (e.g. "<s-s:b>").
	Signature string
	// Internal built-ins are only emitted by the compiler itself; call
	// sites in source code never resolve to them.
	Internal bool
}

// Accepts reports whether arity is within the argument bounds.
func (b *Builtin) Accepts(arity int) bool {
	if arity < b.MinArgs {
		return false
	}
	return b.MaxArgs == Variadic || arity <= b.MaxArgs
}

// Key returns the qualified key for a call with the given arity.
func (b *Builtin) Key(arity int) string {
	return types.FunctionKey(b.namespace(), b.Name, arity)
}

func (b *Builtin) namespace() string {
	if b.Namespace == "" {
		return CoreNamespace
	}
	return b.Namespace
}

// String returns ns:name/min-max.
func (b *Builtin) String() string {
	upper := "*"
	if b.MaxArgs != Variadic {
		upper = strconv.Itoa(b.MaxArgs)
	}
	return fmt.Sprintf("%s:%s/%d-%s", b.namespace(), b.Name, b.MinArgs, upper)
}

// Registry maps namespace:name to built-in descriptions.
// It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]*Builtin
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{funcs: make(map[string]*Builtin)}
}

// Register adds or replaces a built-in.
func (r *Registry) Register(defs ...Builtin) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range defs {
		b := defs[i]
		b.Namespace = b.namespace()
		r.funcs[b.Namespace+":"+b.Name] = &b
	}
}

// Lookup finds the built-in namespace:name accepting arity arguments.
// An empty namespace looks in core.
func (r *Registry) Lookup(namespace, name string, arity int) (*Builtin, bool) {
	if namespace == "" {
		namespace = CoreNamespace
	}
	r.mu.RLock()
	b, ok := r.funcs[namespace+":"+name]
	r.mu.RUnlock()
	if !ok || !b.Accepts(arity) {
		return nil, false
	}
	return b, true
}

// Library returns the built-ins named name outside core that accept arity,
// sorted by namespace. Unqualified calls resolve to the single match.
func (r *Registry) Library(name string, arity int) []*Builtin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Builtin
	for _, b := range r.funcs {
		if b.Namespace != CoreNamespace && b.Name == name && !b.Internal && b.Accepts(arity) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Namespace < out[j].Namespace })
	return out
}

// Namespaces returns the namespaces with at least one built-in, sorted.
func (r *Registry) Namespaces() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]bool)
	var out []string
	for _, b := range r.funcs {
		if !seen[b.Namespace] {
			seen[b.Namespace] = true
			out = append(out, b.Namespace)
		}
	}
	sort.Strings(out)
	return out
}

// Names returns every namespace:name, sorted. Core built-ins are listed
// without their namespace; internal ones are left out.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.funcs))
	for _, b := range r.funcs {
		if b.Internal {
			continue
		}
		if b.Namespace == CoreNamespace {
			out = append(out, b.Name)
		} else {
			out = append(out, b.Namespace+":"+b.Name)
		}
	}
	sort.Strings(out)
	return out
}

// Len returns the number of registered built-ins.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.funcs)
}

// Clone returns an independent copy of the registry.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c := NewRegistry()
	for k, b := range r.funcs {
		cp := *b
		c.funcs[k] = &cp
	}
	return c
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the shared registry holding the standard library.
// Callers that want to add functions should Clone it first.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry()
		defaultRegistry.Register(Core()...)
		defaultRegistry.Register(String()...)
		defaultRegistry.Register(Numeric()...)
		defaultRegistry.Register(Array()...)
		defaultRegistry.Register(Object()...)
		defaultRegistry.Register(Types()...)
		defaultRegistry.Register(DateTime()...)
		defaultRegistry.Register(Crypto()...)
		defaultRegistry.Register(Format()...)
		defaultRegistry.Register(Functional()...)
	})
	return defaultRegistry
}
