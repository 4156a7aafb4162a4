// Package compiler turns the syntax tree of a goperon source unit into a
// scope-resolved AST attached to a types.Program.
//
// Assembly is bottom-up: every rule of the tree reduces to one typed value
// once its nested rules have reduced. Along the way the compiler maintains
// the lexical scope chain, resolves function and variable names across the
// unit, its imported modules and the built-in registry, assembles path,
// update and aggregation sub-languages, and weaves test mocks and
// assertions into external call sites.
//
// # Example
//
//	c := compiler.New(compiler.WithLoader(loader.NewFileLoader("lib")))
//	prog, err := c.CompileFile("main.gp")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(types.Sprint(prog.Root))
package compiler

import (
	"time"

	"github.com/sandrolain/goperon/pkg/cache"
	"github.com/sandrolain/goperon/pkg/loader"
	"github.com/sandrolain/goperon/pkg/parser"
	"github.com/sandrolain/goperon/pkg/types"
)

// Unit kinds, part of the cache key.
const (
	kindProgram    = "program"
	kindExpression = "expression"
)

// Compiler compiles programs, modules and expressions.
//
// A Compiler holds only configuration; every compilation uses fresh state,
// so one Compiler may be used from several goroutines.
type Compiler struct {
	opts Options
}

// New creates a compiler.
func New(opts ...Option) *Compiler {
	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}
	return &Compiler{opts: options}
}

// Options returns a copy of the compiler configuration.
func (c *Compiler) Options() Options {
	return c.opts
}

// Compile compiles a main program held in memory.
func (c *Compiler) Compile(src string) (*types.Program, error) {
	return c.cached("", src, kindProgram, func() (*types.Program, error) {
		return compileUnit(&c.opts, "", "", src, false, nil)
	})
}

// CompileFile reads and compiles the main program stored at path. Imports
// are resolved relative to the file; without a configured loader a
// FileLoader is used.
func (c *Compiler) CompileFile(path string) (*types.Program, error) {
	src, err := loader.NewFileLoader().Load(path, "")
	if err != nil {
		if terr, ok := err.(*types.Error); ok {
			return nil, terr.WithFile(path)
		}
		return nil, err
	}

	opts := c.opts
	if opts.Loader == nil {
		opts.Loader = loader.NewFileLoader()
	}
	if opts.File == "" {
		opts.File = path
	}
	return c.cached(src.URI, src.Text, kindProgram, func() (*types.Program, error) {
		return compileUnit(&opts, "", src.URI, src.Text, false, []string{src.URI})
	})
}

// CompileExpression compiles a standalone expression. Declarations are not
// allowed; the expression becomes the program root.
func (c *Compiler) CompileExpression(src string) (*types.Program, error) {
	return c.cached("", src, kindExpression, func() (*types.Program, error) {
		root, err := parser.ParseExpression(src, parser.WithFile(c.opts.File), parser.WithMaxDepth(c.opts.MaxDepth))
		if err != nil {
			return nil, err
		}
		return assemble(&c.opts, types.NewProgram("", "", src), root, true, nil)
	})
}

// CompileTree assembles a syntax tree produced elsewhere. A RuleExpr root
// compiles as an expression, anything else as a main program. src is kept
// on the program for diagnostics.
func (c *Compiler) CompileTree(root *parser.Rule, src string) (*types.Program, error) {
	return assemble(&c.opts, types.NewProgram("", "", src), root, root.Kind == parser.RuleExpr, nil)
}

func (c *Compiler) cached(uri, src, kind string, compile func() (*types.Program, error)) (*types.Program, error) {
	if c.opts.Cache == nil || c.opts.TestContext != nil {
		return compile()
	}
	return c.opts.Cache.GetOrCompile(cache.Key(uri, src, kind), compile)
}

// compileUnit parses and assembles one program or module.
func compileUnit(opts *Options, ns, uri, src string, module bool, importing []string) (*types.Program, error) {
	file := opts.File
	if module || file == "" {
		file = uri
	}
	root, err := parser.Parse(src, parser.WithFile(file), parser.WithMaxDepth(opts.MaxDepth))
	if err != nil {
		return nil, err
	}
	return assemble(opts, types.NewProgram(ns, uri, src), root, module, importing)
}

func assemble(opts *Options, prog *types.Program, root *parser.Rule, module bool, importing []string) (*types.Program, error) {
	start := time.Now()
	a := newAssembler(opts, prog, module, importing)
	v, err := a.run(root)
	if err != nil {
		return nil, err
	}
	if root.Kind == parser.RuleExpr {
		nv, ok := v.(nodeVal)
		if !ok {
			return nil, types.Errorf(types.ErrUnexpectedValue, root.Line(), "expression reduced to %s", describe(v))
		}
		prog.Root = nv.node
	}

	stats := a.chain.Stats()
	a.log.Debug("compiled unit",
		"namespace", prog.Namespace,
		"uri", prog.URI,
		"functions", len(prog.Functions),
		"imports", len(prog.Imports),
		"bindings", len(prog.Bindings),
		"frames", stats.Frames,
		"capabilities", prog.Capabilities,
		"elapsed", time.Since(start))
	return prog, nil
}
