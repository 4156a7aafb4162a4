package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sandrolain/goperon/pkg/compiler"
	"github.com/sandrolain/goperon/pkg/loader"
	"github.com/sandrolain/goperon/pkg/types"
)

// runWatch compiles a program and recompiles it whenever the program or one
// of its imported modules changes.
func runWatch(ctx context.Context, args []string, stdout, stderr io.Writer, getenv func(string) string) error {
	var common commonFlags
	flags := newFlagSet("watch", &common)
	quiet := flags.Bool("q", false, "Only print errors and status lines")
	if help, err := parseFlags(flags, args, stdout); help || err != nil {
		return err
	}
	if flags.NArg() != 1 {
		return errors.New("watch: exactly one file required")
	}
	path := flags.Arg(0)

	s, err := newSession(&common, stdout, stderr, getenv)
	if err != nil {
		return err
	}
	defer s.Close()

	// Modules change between compilations, so the cache stays off.
	c, err := s.compiler(false)
	if err != nil {
		return err
	}

	w := &watchLoop{c: c, path: path, quiet: *quiet, stdout: stdout, stderr: stderr}
	watcher, err := loader.NewWatcher(w.changed, loader.WithWatchLogger(s.log))
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer watcher.Close()
	w.watcher = watcher

	if err := w.build(); err != nil {
		return err
	}
	s.log.Info("watching", "path", path, "files", watcher.Files())

	if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

type watchLoop struct {
	c       *compiler.Compiler
	watcher *loader.Watcher
	path    string
	quiet   bool
	stdout  io.Writer
	stderr  io.Writer
	files   []string
}

func (w *watchLoop) changed(string) {
	if err := w.build(); err != nil {
		fmt.Fprintf(w.stderr, "watch: %v\n", err)
	}
}

// build recompiles the program and updates the watched file set. A failed
// compilation keeps the previous set so the fix is still noticed.
func (w *watchLoop) build() error {
	prog, err := w.c.CompileFile(w.path)
	if err != nil {
		report(w.stderr, err)
		files := w.files
		if len(files) == 0 {
			files = failedFiles(w.path, err)
		}
		return w.watcher.Watch(files...)
	}

	w.files = prog.Files()
	fmt.Fprintf(w.stdout, "ok  %s (%d functions, %d modules)\n", w.path, len(prog.Functions), len(w.files)-1)
	if !w.quiet {
		if err := printProgram(w.stdout, prog, false); err != nil {
			return err
		}
	}
	return w.watcher.Watch(w.files...)
}

// failedFiles lists the files to watch when the first compilation fails.
func failedFiles(path string, err error) []string {
	files := []string{path}
	var terr *types.Error
	if errors.As(err, &terr) && terr.File != "" && terr.File != path {
		files = append(files, terr.File)
	}
	return files
}
