// Package goperon compiles goperon programs into scope-resolved ASTs.
//
// goperon is a JSON query and transformation language organised as a main
// program (imports, functions, lets, an exception handler, From and Select)
// plus reusable modules. This module is the compiler front-end: it parses
// source, resolves every name statically and hands a types.Program to an
// evaluator. It never executes programs.
//
// # Quick Start
//
//	// Compile a program held in memory
//	prog, err := goperon.Compile(`Select: count(@.items)`)
//
//	// Compile a file; imports resolve relative to it
//	prog, err := goperon.CompileFile("main.gp")
//
//	// With options
//	prog, err := goperon.Compile(src,
//	    compiler.WithLoader(loader.NewFileLoader("lib")),
//	    compiler.WithGlobals("input"),
//	)
//
// # More Information
//
// For detailed documentation, see:
//   - Compiler: github.com/sandrolain/goperon/pkg/compiler
//   - Parser: github.com/sandrolain/goperon/pkg/parser
//   - Functions: github.com/sandrolain/goperon/pkg/functions
//   - Types: github.com/sandrolain/goperon/pkg/types
package goperon

import (
	"fmt"

	"github.com/sandrolain/goperon/pkg/compiler"
	"github.com/sandrolain/goperon/pkg/types"
)

// Version returns the current version of goperon.
func Version() string {
	return "v0.1.0-dev"
}

// Compile compiles a main program.
//
// The returned program is immutable and safe for concurrent use.
//
// Example:
//
//	prog, err := goperon.Compile("Select: @.name")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(types.Sprint(prog.Root))
func Compile(src string, opts ...compiler.Option) (*types.Program, error) {
	return compiler.New(opts...).Compile(src)
}

// CompileFile compiles the main program stored at path.
func CompileFile(path string, opts ...compiler.Option) (*types.Program, error) {
	return compiler.New(opts...).CompileFile(path)
}

// CompileExpression compiles a standalone expression.
func CompileExpression(src string, opts ...compiler.Option) (*types.Program, error) {
	return compiler.New(opts...).CompileExpression(src)
}

// MustCompile is like Compile but panics if the program cannot be compiled.
// It simplifies safe initialization of global variables.
func MustCompile(src string, opts ...compiler.Option) *types.Program {
	prog, err := Compile(src, opts...)
	if err != nil {
		panic(fmt.Sprintf("goperon: Compile(%q): %v", src, err))
	}
	return prog
}
