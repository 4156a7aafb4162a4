package main

import (
	"errors"
	"fmt"
	"io"
)

// runCheck compiles each file and reports the outcome per file.
func runCheck(args []string, stdout, stderr io.Writer, getenv func(string) string) error {
	var common commonFlags
	flags := newFlagSet("check", &common)
	quiet := flags.Bool("q", false, "Only report failures")
	if help, err := parseFlags(flags, args, stdout); help || err != nil {
		return err
	}
	if flags.NArg() == 0 {
		return errors.New("check requires at least one file")
	}

	s, err := newSession(&common, stdout, stderr, getenv)
	if err != nil {
		return err
	}
	defer s.Close()

	c, err := s.compiler(true)
	if err != nil {
		return err
	}

	var failed int
	for _, path := range flags.Args() {
		prog, err := c.CompileFile(path)
		if err != nil {
			failed++
			report(stderr, err)
			continue
		}
		if !*quiet {
			fmt.Fprintf(stdout, "ok  %s (%d functions, %d modules)\n", path, len(prog.Functions), len(prog.Files())-1)
		}
	}
	if failed > 0 {
		fmt.Fprintf(stderr, "%d of %d files failed\n", failed, flags.NArg())
		return errFailed
	}
	return nil
}
