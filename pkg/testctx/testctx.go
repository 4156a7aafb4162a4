// Package testctx loads test contexts: per-component mocks and assertions
// that the compiler weaves into external call sites.
//
// A fixture file maps component keys (name:identifier or
// namespace:name:identifier) to a mock expression or a list of assertion
// expressions:
//
//	components:
//	  http:get:users:
//	    mock: '[{"id": 1}]'
//	  db:query:orders:
//	    assert:
//	      - 'count(@) > 0'
package testctx

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sandrolain/goperon/pkg/compiler"
	"github.com/sandrolain/goperon/pkg/types"
)

// Fixture is the decoded form of a fixture file.
type Fixture struct {
	Components map[string]Component `yaml:"components"`
}

// Component holds the instrumentation of one call site key.
type Component struct {
	Mock   string   `yaml:"mock"`
	Assert []string `yaml:"assert"`
}

// Context implements compiler.TestContext. Expressions are validated when
// the context is built and compiled again on every lookup, so each woven
// call site owns its nodes.
type Context struct {
	name     string
	fixture  Fixture
	compiler *compiler.Compiler
}

var _ compiler.TestContext = (*Context)(nil)

// Load reads a fixture file. opts configure the compiler used for the
// fixture expressions.
func Load(path string, opts ...compiler.Option) (*Context, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read test context: %w", err)
	}
	return Parse(data, path, opts...)
}

// Parse decodes fixture YAML. name identifies the fixture in errors.
func Parse(data []byte, name string, opts ...compiler.Option) (*Context, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse test context %s: %w", name, err)
	}
	return New(f, name, opts...)
}

// New builds a context from a decoded fixture. Any cache in opts is
// ignored: a cached program would hand the same nodes to several call sites.
func New(f Fixture, name string, opts ...compiler.Option) (*Context, error) {
	opts = append(slices.Clip(opts), compiler.WithCache(nil))
	c := &Context{name: name, fixture: f, compiler: compiler.New(opts...)}
	for _, key := range c.Keys() {
		if err := checkKey(key); err != nil {
			return nil, c.fail(key, err.Error(), nil)
		}
		comp := f.Components[key]
		if comp.Mock != "" {
			if _, err := c.compile(key, "mock", comp.Mock); err != nil {
				return nil, err
			}
		}
		for i, src := range comp.Assert {
			if _, err := c.compile(key, fmt.Sprintf("assertion %d", i+1), src); err != nil {
				return nil, err
			}
		}
	}
	return c, nil
}

// Keys returns the instrumented component keys, sorted.
func (c *Context) Keys() []string {
	keys := make([]string, 0, len(c.fixture.Components))
	for k := range c.fixture.Components {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Mock implements compiler.TestContext.
func (c *Context) Mock(key string) (types.Node, bool, error) {
	comp, ok := c.fixture.Components[key]
	if !ok || comp.Mock == "" {
		return nil, false, nil
	}
	n, err := c.compile(key, "mock", comp.Mock)
	if err != nil {
		return nil, false, err
	}
	return n, true, nil
}

// Assertions implements compiler.TestContext.
func (c *Context) Assertions(key string) ([]types.Node, error) {
	comp, ok := c.fixture.Components[key]
	if !ok {
		return nil, nil
	}
	nodes := make([]types.Node, 0, len(comp.Assert))
	for i, src := range comp.Assert {
		n, err := c.compile(key, fmt.Sprintf("assertion %d", i+1), src)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func (c *Context) compile(key, what, src string) (types.Node, error) {
	prog, err := c.compiler.CompileExpression(src)
	if err != nil {
		return nil, c.fail(key, "cannot compile "+what, err)
	}
	return prog.Root, nil
}

func (c *Context) fail(key, msg string, cause error) *types.Error {
	return types.Errorf(types.ErrTestContextCompile, 0, "component %s: %s", key, msg).
		WithCause(cause).
		WithFile(c.name)
}

// checkKey accepts name:identifier and namespace:name:identifier.
func checkKey(key string) error {
	parts := strings.Split(key, ":")
	if len(parts) < 2 || len(parts) > 3 || slices.Contains(parts, "") {
		return fmt.Errorf("invalid component key %q: expected name:identifier or namespace:name:identifier", key)
	}
	return nil
}
