package scope_test

import (
	"errors"
	"testing"

	"github.com/sandrolain/goperon/pkg/scope"
	"github.com/sandrolain/goperon/pkg/types"
)

func binding(name string) *types.Binding {
	return &types.Binding{Name: name, Kind: types.BindLet, Line: 1}
}

func codeOf(t *testing.T, err error) types.ErrorCode {
	t.Helper()
	var perr *types.Error
	if !errors.As(err, &perr) {
		t.Fatalf("error %v is not a *types.Error", err)
	}
	return perr.Code
}

func TestEnterRestores(t *testing.T) {
	c := scope.New()

	fn, leaveFn := c.Enter(scope.Function, 1)
	loop, leaveLoop := c.Enter(scope.Loop, 2)

	if c.Current() != loop {
		t.Fatalf("current = %d, want %d", c.Current(), loop)
	}
	if p, _ := c.Parent(loop); p != fn {
		t.Errorf("parent of loop = %d, want %d", p, fn)
	}
	if d := c.Depth(); d != 2 {
		t.Errorf("depth = %d, want 2", d)
	}

	leaveLoop()
	leaveLoop() // no-op
	leaveFn()

	if c.Current() != scope.Root {
		t.Errorf("current = %d, want root", c.Current())
	}
	st := c.Stats()
	if st.Pushes != 2 || st.Pops != 2 || st.Frames != 3 {
		t.Errorf("stats = %+v", st)
	}
}

func TestEnterOutOfOrderPanics(t *testing.T) {
	c := scope.New()
	_, leaveOuter := c.Enter(scope.Map, 1)
	_, _ = c.Enter(scope.Choice, 2)

	defer func() {
		if recover() == nil {
			t.Error("expected a panic when leaving a frame that is not current")
		}
	}()
	leaveOuter()
}

func TestBindDuplicates(t *testing.T) {
	c := scope.New()

	if err := c.Bind(scope.Root, binding("x")); err != nil {
		t.Fatalf("first bind: %v", err)
	}
	err := c.Bind(scope.Root, binding("x"))
	if code := codeOf(t, err); code != types.ErrDuplicateBinding {
		t.Errorf("code = %s, want %s", code, types.ErrDuplicateBinding)
	}

	// The same key in two sibling frames is fine.
	for i := 0; i < 2; i++ {
		h, leave := c.Enter(scope.Function, 2)
		if err := c.Bind(h, binding("y")); err != nil {
			t.Errorf("bind in sibling %d: %v", i, err)
		}
		leave()
	}

	// Namespaced keys differ from bare ones.
	if err := c.Bind(scope.Root, &types.Binding{Namespace: "ns", Name: "x"}); err != nil {
		t.Errorf("namespaced bind: %v", err)
	}
}

func TestLookupShadowing(t *testing.T) {
	c := scope.New()
	outer := binding("x")
	if err := c.Bind(scope.Root, outer); err != nil {
		t.Fatal(err)
	}

	h, leave := c.Enter(scope.Let, 3)
	inner := binding("x")
	if err := c.Bind(h, inner); err != nil {
		t.Fatal(err)
	}
	if b, at, ok := c.Lookup("x"); !ok || b != inner || at != h {
		t.Errorf("lookup inside = %v at %d, want inner binding", b, at)
	}
	if inner.Scope != "let" {
		t.Errorf("scope tag = %q, want let", inner.Scope)
	}
	leave()

	if b, _, ok := c.Lookup("x"); !ok || b != outer {
		t.Errorf("lookup outside = %v, want outer binding", b)
	}
	if _, _, ok := c.Lookup("missing"); ok {
		t.Error("lookup of an unknown name succeeded")
	}
}

func TestDeferFlush(t *testing.T) {
	c := scope.New()
	h, leave := c.Enter(scope.Function, 1)
	defer leave()

	if err := c.Defer(&types.Binding{Name: "a", Kind: types.BindParam}); err != nil {
		t.Fatal(err)
	}
	err := c.Defer(&types.Binding{Name: "a", Kind: types.BindParam})
	if code := codeOf(t, err); code != types.ErrDuplicateParameter {
		t.Errorf("code = %s, want %s", code, types.ErrDuplicateParameter)
	}
	if err := c.Defer(&types.Binding{Name: "b", Kind: types.BindParam}); err != nil {
		t.Fatal(err)
	}

	if _, _, ok := c.Lookup("a"); ok {
		t.Error("pending binding visible before flush")
	}
	if err := c.Flush(h); err != nil {
		t.Fatal(err)
	}
	if _, _, ok := c.Lookup("a"); !ok {
		t.Error("binding not visible after flush")
	}
	if got := len(c.Frame(h).Bindings()); got != 2 {
		t.Errorf("frame bindings = %d, want 2", got)
	}
	if len(c.Pending(h)) != 0 {
		t.Error("pending list not cleared")
	}
}

// Restores deferred in nested helpers keep the chain balanced on every
// exit path, including early errors.
func TestBalancedOnError(t *testing.T) {
	c := scope.New()
	errStop := errors.New("stop")

	var nest func(depth int) error
	nest = func(depth int) error {
		kinds := []scope.Kind{scope.Function, scope.Let, scope.Loop, scope.Choice, scope.Map}
		_, leave := c.Enter(kinds[depth%len(kinds)], depth)
		defer leave()
		if depth == 4 {
			return errStop
		}
		return nest(depth + 1)
	}

	if err := nest(0); !errors.Is(err, errStop) {
		t.Fatalf("err = %v", err)
	}
	st := c.Stats()
	if st.Pushes != st.Pops || st.Pushes != 5 {
		t.Errorf("pushes = %d, pops = %d", st.Pushes, st.Pops)
	}
	if c.Current() != scope.Root {
		t.Errorf("current = %d, want root", c.Current())
	}
}
