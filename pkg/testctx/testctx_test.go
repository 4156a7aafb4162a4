package testctx

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/sandrolain/goperon/pkg/cache"
	"github.com/sandrolain/goperon/pkg/compiler"
	"github.com/sandrolain/goperon/pkg/types"
)

func loadFixture(t *testing.T) *Context {
	t.Helper()
	ctx, err := Load(filepath.Join("testdata", "orders.yaml"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	return ctx
}

func TestLoad(t *testing.T) {
	ctx := loadFixture(t)

	want := []string{"db:query:orders", "http:get:users", "kafka:events"}
	got := ctx.Keys()
	if len(got) != len(want) {
		t.Fatalf("Keys() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Keys()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestLookups(t *testing.T) {
	ctx := loadFixture(t)

	n, ok, err := ctx.Mock("http:get:users")
	if err != nil || !ok {
		t.Fatalf("Mock() = %v, %v", ok, err)
	}
	if _, isArray := types.Unwrap(n).(*types.Array); !isArray {
		t.Errorf("mock = %s", types.Sprint(n))
	}
	again, _, _ := ctx.Mock("http:get:users")
	if again == n {
		t.Error("mock nodes are shared between lookups")
	}

	if _, ok, _ := ctx.Mock("db:query:orders"); ok {
		t.Error("component without a mock reported one")
	}
	if _, ok, _ := ctx.Mock("unknown:key"); ok {
		t.Error("unknown component reported a mock")
	}

	asserts, err := ctx.Assertions("db:query:orders")
	if err != nil || len(asserts) != 2 {
		t.Fatalf("Assertions() = %d nodes, %v", len(asserts), err)
	}
	if asserts, _ := ctx.Assertions("kafka:events"); len(asserts) != 0 {
		t.Errorf("kafka:events assertions = %d", len(asserts))
	}
}

func TestWeaving(t *testing.T) {
	ctx := loadFixture(t)
	c := compiler.New(compiler.WithTestContext(ctx))

	prog, err := c.Compile(`Select: [-> http:get:users, -> db:query:orders {sql: 'x'}, -> kafka:events]`)
	if err != nil {
		t.Fatal(err)
	}
	arr := types.Unwrap(prog.Root).(*types.Array)
	if len(arr.Elements) != 3 {
		t.Fatalf("elements = %d", len(arr.Elements))
	}

	mock := types.Unwrap(arr.Elements[0]).(*types.FunctionCall)
	if mock.Key != "core:mock:2" {
		t.Errorf("mock call = %s", mock.Key)
	}
	seq := types.Unwrap(arr.Elements[1]).(*types.Multi)
	if len(seq.Nodes) != 3 {
		t.Errorf("assertion sequence = %s", types.Sprint(seq))
	}
	kafka := types.Unwrap(arr.Elements[2]).(*types.FunctionCall)
	if kafka.Args[0].(*types.Literal).Str != "kafka:events" {
		t.Errorf("mock key = %s", types.Sprint(kafka))
	}
}

func TestInvalidFixtures(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"mock does not compile", "components:\n  http:get:a:\n    mock: '1 +'\n"},
		{"assertion does not compile", "components:\n  http:get:a:\n    assert: ['nope(1)']\n"},
		{"key without identifier", "components:\n  http:\n    mock: '1'\n"},
		{"key with empty part", "components:\n  'a::b':\n    mock: '1'\n"},
		{"key with too many parts", "components:\n  a:b:c:d:\n    mock: '1'\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml), "inline.yaml")
			var terr *types.Error
			if !errors.As(err, &terr) || terr.Code != types.ErrTestContextCompile {
				t.Fatalf("error = %v, want %s", err, types.ErrTestContextCompile)
			}
			if terr.File != "inline.yaml" {
				t.Errorf("file = %q", terr.File)
			}
		})
	}

	if _, err := Parse([]byte("components: ["), "bad.yaml"); err == nil {
		t.Error("expected a YAML error")
	}
}

func TestCompilerOptions(t *testing.T) {
	yaml := "components:\n  http:get:a:\n    mock: '$fixture'\n"
	if _, err := Parse([]byte(yaml), "globals.yaml"); err == nil {
		t.Fatal("expected an undefined variable error")
	}
	if _, err := Parse([]byte(yaml), "globals.yaml", compiler.WithGlobals("fixture")); err != nil {
		t.Fatalf("Parse() with globals error: %v", err)
	}
}

func TestCachedCompilerKeepsNodesUnique(t *testing.T) {
	ctx, err := Load(filepath.Join("testdata", "orders.yaml"), compiler.WithCache(cache.New(16)))
	if err != nil {
		t.Fatal(err)
	}
	c := compiler.New(compiler.WithTestContext(ctx))

	prog, err := c.Compile(`Select: [-> http:get:users, -> http:get:users, -> db:query:orders, -> db:query:orders]`)
	if err != nil {
		t.Fatal(err)
	}
	elems := types.Unwrap(prog.Root).(*types.Array).Elements

	first := types.Unwrap(elems[0]).(*types.FunctionCall).Args[1]
	second := types.Unwrap(elems[1]).(*types.FunctionCall).Args[1]
	if first == second {
		t.Error("mock node shared between call sites")
	}

	a := types.Unwrap(elems[2]).(*types.Multi).Nodes[1].(*types.FunctionCall).Args[1]
	b := types.Unwrap(elems[3]).(*types.Multi).Nodes[1].(*types.FunctionCall).Args[1]
	if a == b {
		t.Error("assertion node shared between call sites")
	}
}
