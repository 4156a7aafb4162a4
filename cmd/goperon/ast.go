package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/sandrolain/goperon/pkg/types"
)

// runAST prints the compiled tree of a program or an inline expression.
func runAST(args []string, stdout, stderr io.Writer, getenv func(string) string) error {
	var common commonFlags
	flags := newFlagSet("ast", &common)
	asJSON := flags.Bool("json", false, "Print the tree as JSON")
	expr := flags.String("e", "", "Compile an expression instead of a file")
	if help, err := parseFlags(flags, args, stdout); help || err != nil {
		return err
	}
	if *expr == "" && flags.NArg() != 1 {
		return errors.New("ast requires exactly one file or -e <expr>")
	}

	s, err := newSession(&common, stdout, stderr, getenv)
	if err != nil {
		return err
	}
	defer s.Close()

	c, err := s.compiler(false)
	if err != nil {
		return err
	}

	var prog *types.Program
	if *expr != "" {
		prog, err = c.CompileExpression(*expr)
	} else {
		prog, err = c.CompileFile(flags.Arg(0))
	}
	if err != nil {
		report(stderr, err)
		return errFailed
	}
	return printProgram(stdout, prog, *asJSON)
}

// printProgram writes the program's functions and root.
func printProgram(w io.Writer, prog *types.Program, asJSON bool) error {
	if asJSON {
		functions := make(map[string]any, len(prog.Functions))
		for key, def := range prog.Functions {
			functions[key] = types.Tree(def.Body)
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"uri":          prog.URI,
			"capabilities": prog.Capabilities.String(),
			"imports":      prog.ImportOrder,
			"functions":    functions,
			"root":         types.Tree(prog.Root),
		})
	}

	for _, key := range prog.FunctionKeys() {
		fmt.Fprintf(w, "%s: %s\n", key, types.Sprint(prog.Functions[key].Body))
	}
	if prog.Root != nil {
		fmt.Fprintln(w, types.Sprint(prog.Root))
	}
	return nil
}
