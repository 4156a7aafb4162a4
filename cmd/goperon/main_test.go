package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sandrolain/goperon/pkg/compiler"
	"github.com/sandrolain/goperon/pkg/types"
)

func noEnv(string) string { return "" }

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func runArgs(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, &stdout, &stderr, noEnv)
	return stdout.String(), stderr.String(), err
}

func TestRunCommands(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr bool
		stdout  string
		stderr  string
	}{
		{name: "version", args: []string{"version"}, stdout: "goperon version"},
		{name: "version flag", args: []string{"--version"}, stdout: Version},
		{name: "help", args: []string{"help"}, stdout: "Commands:"},
		{name: "no command", args: nil, wantErr: true, stderr: "Usage:"},
		{name: "unknown command", args: []string{"frobnicate"}, wantErr: true, stderr: "Usage:"},
		{name: "check without files", args: []string{"check"}, wantErr: true},
		{name: "ast without input", args: []string{"ast"}, wantErr: true},
		{name: "watch without file", args: []string{"watch"}, wantErr: true},
		{name: "bad flag", args: []string{"check", "--nope"}, wantErr: true},
		{name: "command help", args: []string{"check", "-h"}, stdout: "Usage:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, stderr, err := runArgs(t, tt.args...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("run() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !strings.Contains(stdout, tt.stdout) {
				t.Errorf("stdout = %q, want it to contain %q", stdout, tt.stdout)
			}
			if !strings.Contains(stderr, tt.stderr) {
				t.Errorf("stderr = %q, want it to contain %q", stderr, tt.stderr)
			}
		})
	}
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	writeFile(t, dir, "lib/util.gp", "Function inc($x): $x + 1 End")
	good := writeFile(t, dir, "main.gp", `Import "util.gp" As util; Select: util:inc(1)`)
	bad := writeFile(t, dir, "bad.gp", "Select: $missing")

	t.Run("module root flag", func(t *testing.T) {
		stdout, stderr, err := runArgs(t, "check", "-I", filepath.Join(dir, "lib"), good)
		if err != nil {
			t.Fatalf("check error: %v (stderr %q)", err, stderr)
		}
		if !strings.Contains(stdout, "ok  "+good+" (0 functions, 1 modules)") {
			t.Errorf("stdout = %q", stdout)
		}
	})

	t.Run("module root from config", func(t *testing.T) {
		cfg := writeFile(t, dir, "conf/goperon.yaml", "modules:\n  roots: [../lib]\n")
		_, stderr, err := runArgs(t, "check", "-q", "--config", cfg, good)
		if err != nil {
			t.Fatalf("check error: %v (stderr %q)", err, stderr)
		}
	})

	t.Run("missing module", func(t *testing.T) {
		_, stderr, err := runArgs(t, "check", good)
		if !errors.Is(err, errFailed) {
			t.Fatalf("error = %v, want errFailed", err)
		}
		if !strings.Contains(stderr, "[resolution]") {
			t.Errorf("stderr = %q", stderr)
		}
	})

	t.Run("undefined variable", func(t *testing.T) {
		stdout, stderr, err := runArgs(t, "check", "-I", filepath.Join(dir, "lib"), good, bad)
		if !errors.Is(err, errFailed) {
			t.Fatalf("error = %v, want errFailed", err)
		}
		if !strings.Contains(stdout, "ok  "+good) {
			t.Errorf("stdout = %q", stdout)
		}
		if !strings.Contains(stderr, "1 of 2 files failed") {
			t.Errorf("stderr = %q", stderr)
		}
	})

	t.Run("host global", func(t *testing.T) {
		_, stderr, err := runArgs(t, "check", "--global", "missing", bad)
		if err != nil {
			t.Fatalf("check error: %v (stderr %q)", err, stderr)
		}
	})

	t.Run("invalid config", func(t *testing.T) {
		cfg := writeFile(t, dir, "broken.yaml", "logging:\n  level: loud\n")
		_, _, err := runArgs(t, "check", "--config", cfg, good)
		if err == nil || errors.Is(err, errFailed) {
			t.Fatalf("error = %v, want a config error", err)
		}
	})
}

func TestAST(t *testing.T) {
	t.Chdir(t.TempDir())

	t.Run("expression", func(t *testing.T) {
		stdout, _, err := runArgs(t, "ast", "-e", "1 + 2")
		if err != nil {
			t.Fatal(err)
		}
		if strings.TrimSpace(stdout) != "(+ 1 2)" {
			t.Errorf("stdout = %q", stdout)
		}
	})

	t.Run("json", func(t *testing.T) {
		stdout, _, err := runArgs(t, "ast", "--json", "-e", "count(@.items)")
		if err != nil {
			t.Fatal(err)
		}
		var out map[string]any
		if err := json.Unmarshal([]byte(stdout), &out); err != nil {
			t.Fatalf("invalid JSON %q: %v", stdout, err)
		}
		root, ok := out["root"].(map[string]any)
		if !ok {
			t.Fatalf("root = %v", out["root"])
		}
		if root["type"] == "" || root["line"] == nil {
			t.Errorf("root = %v", root)
		}
	})

	t.Run("file with functions", func(t *testing.T) {
		dir := t.TempDir()
		path := writeFile(t, dir, "f.gp", "Function double($x): $x * 2 End Select: double(2)")
		stdout, _, err := runArgs(t, "ast", path)
		if err != nil {
			t.Fatal(err)
		}
		lines := strings.Split(strings.TrimSpace(stdout), "\n")
		if len(lines) != 2 || !strings.HasPrefix(lines[0], "double:1: ") {
			t.Errorf("stdout = %q", stdout)
		}
	})

	t.Run("syntax error", func(t *testing.T) {
		_, stderr, err := runArgs(t, "ast", "-e", "1 +")
		if !errors.Is(err, errFailed) {
			t.Fatalf("error = %v", err)
		}
		if !strings.Contains(stderr, "[syntax]") {
			t.Errorf("stderr = %q", stderr)
		}
	})
}

func TestREPLSession(t *testing.T) {
	var out bytes.Buffer
	r := newREPLSession(compiler.New(), &out)

	step := func(line string) string {
		t.Helper()
		out.Reset()
		if !r.handle(line) {
			t.Fatalf("handle(%q) quit", line)
		}
		return out.String()
	}

	if got := step("1 + 2"); strings.TrimSpace(got) != "(+ 1 2)" {
		t.Errorf("expression output = %q", got)
	}
	if got := step("Let $a: 1; Select: $a"); !strings.Contains(got, "$a") {
		t.Errorf("program output = %q", got)
	}
	if got := step(":json"); !strings.Contains(got, "on") {
		t.Errorf(":json output = %q", got)
	}
	if got := step("true"); !strings.Contains(got, `"root"`) {
		t.Errorf("json output = %q", got)
	}
	step(":json")

	// Unfinished input waits for more lines.
	if got := step("Select: Choice When 1: 2"); got != "" || !r.pending() {
		t.Fatalf("partial input output = %q, pending = %v", got, r.pending())
	}
	if got := step("Otherwise: 3 End"); got == "" || r.pending() {
		t.Errorf("completed input output = %q, pending = %v", got, r.pending())
	}

	if got := step("$undefined"); !strings.Contains(got, "[resolution]") {
		t.Errorf("error output = %q", got)
	}
	if got := step(":nope"); !strings.Contains(got, "unknown command") {
		t.Errorf("unknown command output = %q", got)
	}
	if got := step(":builtins"); !strings.Contains(got, "count") {
		t.Errorf(":builtins output = %q", got)
	}

	if r.handle("exit") {
		t.Error("exit did not quit")
	}
}

func TestREPLComplete(t *testing.T) {
	r := newREPLSession(compiler.New(), &bytes.Buffer{})

	got := r.complete("Sel")
	if len(got) != 1 || got[0] != "Select" {
		t.Errorf("complete(Sel) = %v", got)
	}
	got = r.complete("1 + cou")
	found := false
	for _, c := range got {
		if c == "1 + count" {
			found = true
		}
	}
	if !found {
		t.Errorf("complete(1 + cou) = %v", got)
	}
	if got := r.complete("string:repl"); len(got) != 1 || got[0] != "string:replace" {
		t.Errorf("complete(string:repl) = %v", got)
	}
	if got := r.complete(""); got != nil {
		t.Errorf("complete(\"\") = %v", got)
	}
}

func TestREPLFromReader(t *testing.T) {
	t.Chdir(t.TempDir())
	var stdout, stderr bytes.Buffer
	in := strings.NewReader("1 + 2\n:quit\n3\n")
	if err := runREPL(nil, in, &stdout, &stderr, noEnv); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(stdout.String()) != "(+ 1 2)" {
		t.Errorf("stdout = %q", stdout.String())
	}
}

func TestSessionTestContextWithCache(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	fixture := writeFile(t, dir, "fixture.yaml", "components:\n  http:get:users:\n    mock: '[1, 2]'\n")

	var stdout, stderr bytes.Buffer
	s, err := newSession(&commonFlags{testPath: fixture}, &stdout, &stderr, noEnv)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if s.cfg.Compiler.CacheSize == 0 {
		t.Fatal("default configuration has no cache")
	}

	c, err := s.compiler(true)
	if err != nil {
		t.Fatal(err)
	}
	prog, err := c.Compile("Select: [-> http:get:users, -> http:get:users]")
	if err != nil {
		t.Fatal(err)
	}
	elems := types.Unwrap(prog.Root).(*types.Array).Elements
	first := types.Unwrap(elems[0]).(*types.FunctionCall).Args[1]
	second := types.Unwrap(elems[1]).(*types.FunctionCall).Args[1]
	if first == second {
		t.Error("mock node shared between call sites")
	}
}
