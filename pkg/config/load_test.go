package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func noEnv(string) string { return "" }

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Logging.Level != "info" {
		t.Errorf("expected default log level 'info', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("expected default log format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Compiler.MaxDepth != 200 {
		t.Errorf("expected default max depth 200, got %d", cfg.Compiler.MaxDepth)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestInterpolateEnv(t *testing.T) {
	getenv := func(key string) string {
		switch key {
		case "LIB_DIR":
			return "/opt/lib"
		case "DEPTH":
			return "50"
		default:
			return ""
		}
	}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple substitution", "root: ${LIB_DIR}", "root: /opt/lib"},
		{"with default (env set)", "root: ${LIB_DIR:-lib}", "root: /opt/lib"},
		{"with default (env not set)", "root: ${UNSET_VAR:-lib}", "root: lib"},
		{"unset without default", "root: ${UNSET_VAR}", "root: "},
		{"multiple substitutions", "x: ${LIB_DIR}/${DEPTH}", "x: /opt/lib/50"},
		{"no substitution needed", "static: value", "static: value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := string(interpolateEnv([]byte(tt.input), getenv))
			if result != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestParse(t *testing.T) {
	yaml := `
logging:
  level: debug
  format: json
modules:
  roots: [lib, /abs/mods]
compiler:
  max_depth: ${DEPTH:-64}
  cache_size: 0
  globals: [input, now]
test:
  context: fixtures/ctx.yaml
repl:
  history: .history
`
	cfg, err := Parse([]byte(yaml), "/work", noEnv)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
	if cfg.Logging.Output != "stderr" {
		t.Errorf("output default lost: %q", cfg.Logging.Output)
	}
	if cfg.Compiler.MaxDepth != 64 || cfg.Compiler.CacheSize != 0 {
		t.Errorf("compiler = %+v", cfg.Compiler)
	}
	if len(cfg.Compiler.Globals) != 2 {
		t.Errorf("globals = %v", cfg.Compiler.Globals)
	}
	wantRoots := []string{filepath.Join("/work", "lib"), "/abs/mods"}
	for i, r := range wantRoots {
		if cfg.Modules.Roots[i] != r {
			t.Errorf("roots[%d] = %q, want %q", i, cfg.Modules.Roots[i], r)
		}
	}
	if cfg.Test.Context != filepath.Join("/work", "fixtures/ctx.yaml") {
		t.Errorf("test context = %q", cfg.Test.Context)
	}
	if cfg.REPL.History != filepath.Join("/work", ".history") {
		t.Errorf("history = %q", cfg.REPL.History)
	}
	if cfg.REPL.Prompt != "goperon> " {
		t.Errorf("prompt default lost: %q", cfg.REPL.Prompt)
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bad level", "logging: {level: loud}", "logging.level"},
		{"bad format", "logging: {format: xml}", "logging.format"},
		{"zero depth", "compiler: {max_depth: 0}", "compiler.max_depth"},
		{"negative cache", "compiler: {cache_size: -1}", "compiler.cache_size"},
		{"sigil in global", "compiler: {globals: [$input]}", "compiler.globals[0]"},
		{"malformed yaml", "logging: [", "failed to parse config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input), "", noEnv)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadWithPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "goperon.yaml")
	if err := os.WriteFile(path, []byte("modules:\n  roots: [mods]\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Run("explicit path", func(t *testing.T) {
		cfg, got, err := LoadWithPath(path, noEnv)
		if err != nil {
			t.Fatal(err)
		}
		if got != path || cfg.BaseDir != dir {
			t.Errorf("path = %q, base = %q", got, cfg.BaseDir)
		}
		if cfg.Modules.Roots[0] != filepath.Join(dir, "mods") {
			t.Errorf("roots = %v", cfg.Modules.Roots)
		}
	})

	t.Run("env variable", func(t *testing.T) {
		getenv := func(key string) string {
			if key == EnvConfig {
				return path
			}
			return ""
		}
		_, got, err := LoadWithPath("", getenv)
		if err != nil || got != path {
			t.Errorf("path = %q, err = %v", got, err)
		}
	})

	t.Run("missing explicit file", func(t *testing.T) {
		if _, err := Load(filepath.Join(dir, "nope.yaml"), noEnv); err == nil {
			t.Error("expected an error")
		}
	})

	t.Run("no file falls back to defaults", func(t *testing.T) {
		t.Chdir(t.TempDir())
		cfg, got, err := LoadWithPath("", noEnv)
		if err != nil {
			t.Fatal(err)
		}
		if got != "" || cfg.Compiler.MaxDepth != 200 {
			t.Errorf("path = %q, cfg = %+v", got, cfg.Compiler)
		}
	})
}
