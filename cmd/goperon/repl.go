package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"sort"
	"strings"
	"unicode"

	"github.com/peterh/liner"

	"github.com/sandrolain/goperon/pkg/compiler"
	"github.com/sandrolain/goperon/pkg/types"
)

const continuationPrompt = "... "

// Declaration keywords; input starting with one compiles as a program.
var declKeywords = []string{"Import", "Function", "Let", "Exception", "From", "Select"}

var exprKeywords = []string{
	"Not", "And", "Or", "Lambda", "Path", "Matches", "Filter", "Update", "UpdateArray",
	"Build", "Choice", "When", "Otherwise", "Loop", "While", "Do", "Map", "Where",
	"Try", "Catch", "Throw", "Aggregate", "End", "As",
}

// replSession compiles input and prints the resulting trees.
type replSession struct {
	c      *compiler.Compiler
	out    io.Writer
	json   bool
	buffer strings.Builder
	words  []string
}

func newREPLSession(c *compiler.Compiler, out io.Writer) *replSession {
	words := append(append([]string{}, declKeywords...), exprKeywords...)
	words = append(words, c.Options().Registry.Names()...)
	sort.Strings(words)
	return &replSession{c: c, out: out, words: words}
}

// pending reports whether a multi-line input is being collected.
func (r *replSession) pending() bool {
	return r.buffer.Len() > 0
}

// handle processes one input line. It returns false when the user quits.
func (r *replSession) handle(line string) bool {
	trimmed := strings.TrimSpace(line)
	if !r.pending() {
		switch {
		case trimmed == "":
			return true
		case trimmed == "exit" || trimmed == "quit" || trimmed == ":quit":
			return false
		case strings.HasPrefix(trimmed, ":"):
			r.command(trimmed)
			return true
		}
	}

	if r.pending() {
		r.buffer.WriteByte('\n')
	}
	r.buffer.WriteString(line)
	src := r.buffer.String()

	prog, err := r.compile(src)
	if err != nil && incomplete(err) && trimmed != "" {
		return true
	}
	r.buffer.Reset()
	if err != nil {
		report(r.out, err)
		return true
	}
	if err := printProgram(r.out, prog, r.json); err != nil {
		fmt.Fprintln(r.out, err)
	}
	return true
}

func (r *replSession) compile(src string) (*types.Program, error) {
	src = strings.TrimSpace(src)
	end := strings.IndexFunc(src, func(ch rune) bool { return !unicode.IsLetter(ch) })
	first := src
	if end >= 0 {
		first = src[:end]
	}
	if slices.Contains(declKeywords, first) {
		return r.c.Compile(src)
	}
	return r.c.CompileExpression(src)
}

func (r *replSession) command(cmd string) {
	switch cmd {
	case ":json":
		r.json = !r.json
		fmt.Fprintf(r.out, "json output %s\n", onOff(r.json))
	case ":builtins":
		for _, name := range r.c.Options().Registry.Names() {
			fmt.Fprintln(r.out, name)
		}
	case ":help":
		fmt.Fprint(r.out, `Commands:
  :json       Toggle JSON output
  :builtins   List built-in functions
  :quit       Exit (also exit, quit, Ctrl+D)
Input starting with Import, Function, Let, Exception, From or Select compiles
as a program; anything else as an expression. An empty line ends multi-line input.
`)
	default:
		fmt.Fprintf(r.out, "unknown command %s (try :help)\n", cmd)
	}
}

// complete returns the words completing the last token of line.
func (r *replSession) complete(line string) []string {
	start := strings.LastIndexAny(line, " \t([{,.&") + 1
	prefix := line[start:]
	if prefix == "" {
		return nil
	}
	var out []string
	for _, w := range r.words {
		if strings.HasPrefix(w, prefix) {
			out = append(out, line[:start]+w)
		}
	}
	return out
}

// incomplete reports whether err was raised at the end of the input.
func incomplete(err error) bool {
	var terr *types.Error
	if !errors.As(err, &terr) || terr.Class() != types.ClassSyntax {
		return false
	}
	return terr.Code == types.ErrUnexpectedEnd || terr.Code == types.ErrStringNotClosed || terr.Token == ""
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// runREPL starts the interactive shell. Without a terminal, lines are read
// from in.
func runREPL(args []string, in io.Reader, stdout, stderr io.Writer, getenv func(string) string) error {
	var common commonFlags
	flags := newFlagSet("repl", &common)
	if help, err := parseFlags(flags, args, stdout); help || err != nil {
		return err
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
	session := newREPLSession(c, stdout)

	if f, ok := in.(*os.File); ok && isTerminal(f) && liner.TerminalSupported() {
		return lineEditor(session, s.cfg.REPL.Prompt, s.cfg.REPL.History, stdout)
	}

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if !session.handle(scanner.Text()) {
			return nil
		}
	}
	if session.pending() {
		session.handle("")
	}
	return scanner.Err()
}

func lineEditor(session *replSession, prompt, history string, out io.Writer) error {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(session.complete)

	if history != "" {
		if f, err := os.Open(history); err == nil {
			line.ReadHistory(f)
			f.Close()
		}
		defer func() {
			if f, err := os.Create(history); err == nil {
				line.WriteHistory(f)
				f.Close()
			}
		}()
	}

	fmt.Fprintf(out, "goperon %s\nType :help for commands, Ctrl+D to quit\n", Version)
	for {
		p := prompt
		if session.pending() {
			p = continuationPrompt
		}
		input, err := line.Prompt(p)
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				session.buffer.Reset()
				fmt.Fprintln(out, "^C")
				continue
			}
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(out)
				return nil
			}
			return err
		}
		if strings.TrimSpace(input) != "" {
			line.AppendHistory(input)
		}
		if !session.handle(input) {
			return nil
		}
	}
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}
