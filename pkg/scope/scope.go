// Package scope tracks lexical scope frames during compilation.
//
// Frames live in an arena and are addressed by Handle. Entering a construct
// returns a restore func meant for defer, so the previous frame becomes
// current again on every exit path.
package scope

import (
	"fmt"

	"github.com/sandrolain/goperon/pkg/types"
)

// Kind tags the construct that opened a frame.
type Kind uint8

const (
	Default Kind = iota
	Function
	Let
	Loop
	Choice
	Map
	Where
	Exception
	From
	Select
)

func (k Kind) String() string {
	switch k {
	case Default:
		return "default"
	case Function:
		return "function"
	case Let:
		return "let"
	case Loop:
		return "loop"
	case Choice:
		return "choice"
	case Map:
		return "map"
	case Where:
		return "where"
	case Exception:
		return "exception"
	case From:
		return "from"
	case Select:
		return "select"
	default:
		return "unknown"
	}
}

// Handle addresses a frame in a Chain.
type Handle int

// Root is the handle of the Default frame every chain starts with.
const Root Handle = 0

// None is the parent of the root frame.
const None Handle = -1

// Frame is one lexical scope.
type Frame struct {
	Kind   Kind
	Parent Handle
	Line   int

	// bindings visible to lookups
	bindings map[string]*types.Binding
	order    []*types.Binding

	// bindings declared but not yet visible (parameters before the body)
	pending []*types.Binding
}

// Bindings returns the frame's bindings in insertion order.
func (f *Frame) Bindings() []*types.Binding {
	return f.order
}

// Stats counts frame transitions.
type Stats struct {
	Pushes int
	Pops   int
	Frames int
}

// Chain is the scope chain of one compilation. It is not safe for
// concurrent use.
type Chain struct {
	frames  []Frame
	current Handle
	pushes  int
	pops    int
}

// New creates a chain holding only the root frame.
func New() *Chain {
	c := &Chain{}
	c.frames = append(c.frames, Frame{
		Kind:     Default,
		Parent:   None,
		bindings: make(map[string]*types.Binding),
	})
	return c
}

// Current returns the handle of the innermost frame.
func (c *Chain) Current() Handle {
	return c.current
}

// Frame returns the frame addressed by h.
func (c *Chain) Frame(h Handle) *Frame {
	return &c.frames[h]
}

// Parent returns the enclosing frame of h.
func (c *Chain) Parent(h Handle) (Handle, bool) {
	p := c.frames[h].Parent
	return p, p != None
}

// Depth returns the number of frames between the current frame and the root.
func (c *Chain) Depth() int {
	var d int
	for h := c.current; h != Root; h = c.frames[h].Parent {
		d++
	}
	return d
}

// Enter opens a frame of the given kind inside the current one and makes it
// current. The returned func restores the previous frame; it must run
// exactly once, in LIFO order with other restores. Extra calls are no-ops.
func (c *Chain) Enter(kind Kind, line int) (Handle, func()) {
	prev := c.current
	h := Handle(len(c.frames))
	c.frames = append(c.frames, Frame{
		Kind:     kind,
		Parent:   prev,
		Line:     line,
		bindings: make(map[string]*types.Binding),
	})
	c.current = h
	c.pushes++

	var done bool
	return h, func() {
		if done {
			return
		}
		if c.current != h {
			panic(fmt.Sprintf("scope: leaving %s frame %d while frame %d is current", kind, h, c.current))
		}
		done = true
		c.current = prev
		c.pops++
	}
}

// Bind inserts b into frame h. A binding with the same key in the same
// frame is a declaration error; shadowing an outer frame is allowed.
func (c *Chain) Bind(h Handle, b *types.Binding) error {
	f := &c.frames[h]
	key := b.Key()
	if _, ok := f.bindings[key]; ok {
		return types.Errorf(types.ErrDuplicateBinding, b.Line, "duplicate binding %q in %s scope", key, f.Kind)
	}
	if b.Scope == "" {
		b.Scope = f.Kind.String()
	}
	f.bindings[key] = b
	f.order = append(f.order, b)
	return nil
}

// Defer declares b in the current frame without making it visible yet.
// Parameters use this so that their default values and constraints cannot
// see sibling parameters.
func (c *Chain) Defer(b *types.Binding) error {
	f := &c.frames[c.current]
	for _, p := range f.pending {
		if p.Key() == b.Key() {
			return types.Errorf(types.ErrDuplicateParameter, b.Line, "duplicate parameter $%s", b.Name)
		}
	}
	f.pending = append(f.pending, b)
	return nil
}

// Pending returns the deferred bindings of frame h.
func (c *Chain) Pending(h Handle) []*types.Binding {
	return c.frames[h].pending
}

// Flush makes the deferred bindings of frame h visible.
func (c *Chain) Flush(h Handle) error {
	f := &c.frames[h]
	pending := f.pending
	f.pending = nil
	for _, b := range pending {
		if err := c.Bind(h, b); err != nil {
			return err
		}
	}
	return nil
}

// Lookup finds the binding stored under key in the current frame or the
// nearest enclosing frame holding it.
func (c *Chain) Lookup(key string) (*types.Binding, Handle, bool) {
	for h := c.current; h != None; h = c.frames[h].Parent {
		if b, ok := c.frames[h].bindings[key]; ok {
			return b, h, true
		}
	}
	return nil, None, false
}

// Stats returns the transition counters.
func (c *Chain) Stats() Stats {
	return Stats{Pushes: c.pushes, Pops: c.pops, Frames: len(c.frames)}
}

// String returns a short description of the chain state.
func (c *Chain) String() string {
	return fmt.Sprintf("Chain{current=%d, depth=%d, frames=%d}", c.current, c.Depth(), len(c.frames))
}
