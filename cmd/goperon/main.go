// Command goperon checks, inspects and watches goperon programs.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sandrolain/goperon"
)

// Version information, set at build time via -ldflags
var (
	Version = goperon.Version() // -X main.Version=$(git describe --tags --always)
	Commit  = "unknown"         // -X main.Commit=$(git rev-parse --short HEAD)
)

// errFailed reports that a command already printed its diagnostics.
var errFailed = errors.New("compilation failed")

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr, os.Getenv)
	cancel()
	if err != nil {
		if !errors.Is(err, errFailed) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

// run is the main entry point, designed for testability (Mat Ryer pattern)
func run(ctx context.Context, args []string, stdout, stderr io.Writer, getenv func(string) string) error {
	if len(args) == 0 {
		printUsage(stderr)
		return errors.New("no command given")
	}

	switch args[0] {
	case "check":
		return runCheck(args[1:], stdout, stderr, getenv)
	case "ast":
		return runAST(args[1:], stdout, stderr, getenv)
	case "repl":
		return runREPL(args[1:], os.Stdin, stdout, stderr, getenv)
	case "watch":
		return runWatch(ctx, args[1:], stdout, stderr, getenv)
	case "version", "--version", "-V":
		fmt.Fprintf(stdout, "goperon version %s (%s)\n", Version, Commit)
		return nil
	case "help", "--help", "-h":
		printUsage(stdout)
		return nil
	default:
		printUsage(stderr)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, `goperon - compiler front-end for the goperon query language

Usage:
  goperon <command> [options] [args]

Commands:
  check <file>...       Compile programs and report errors
  ast [--json] <file>   Print the compiled AST of a program
  ast -e <expr>         Print the compiled AST of an expression
  repl                  Compile expressions interactively
  watch <file>          Recompile a program whenever it or an imported module changes
  version               Show version information

Common Options:
  --config <path>       Config file (default: $%[1]s or ./goperon.yaml)
  -I <dir>              Add a module search root (repeatable)
  --global <name>       Declare a host variable (repeatable)
  --test <path>         Weave mocks and assertions from a test context file
  -v                    Debug logging

Examples:
  goperon check main.gp lib/*.gp
  goperon ast --json main.gp
  goperon ast -e 'count(@.items) > 2'
  goperon watch -I lib main.gp
`, envConfigName)
}
