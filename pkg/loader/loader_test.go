package loader_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sandrolain/goperon/pkg/loader"
	"github.com/sandrolain/goperon/pkg/types"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func errorCode(t *testing.T, err error) types.ErrorCode {
	t.Helper()
	var perr *types.Error
	if !errors.As(err, &perr) {
		t.Fatalf("error %v is not a *types.Error", err)
	}
	return perr.Code
}

func TestFileLoaderForms(t *testing.T) {
	dir := t.TempDir()
	libDir := filepath.Join(dir, "lib")
	writeFile(t, filepath.Join(libDir, "util.gp"), "Let $x: 1;")
	writeFile(t, filepath.Join(dir, "main.gp"), "Select: 1")
	importer := loader.FileURI(filepath.Join(dir, "main.gp"))

	l := loader.NewFileLoader()
	want := loader.FileURI(filepath.Join(libDir, "util.gp"))

	tests := []struct {
		name string
		uri  string
	}{
		{"plain relative", "lib/util.gp"},
		{"opaque file", "file:lib/util.gp"},
		{"opaque dot", "file:./lib/util.gp"},
		{"dot host", "file://./lib/util.gp"},
		{"absolute", loader.FileURI(filepath.Join(libDir, "util.gp"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := l.Load(tt.uri, importer)
			if err != nil {
				t.Fatalf("Load(%q) error: %v", tt.uri, err)
			}
			if src.URI != want {
				t.Errorf("uri = %q, want %q", src.URI, want)
			}
			if src.Text != "Let $x: 1;" {
				t.Errorf("text = %q", src.Text)
			}
		})
	}
}

func TestFileLoaderRoots(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "shared.gp"), "Let $y: 2;")

	l := loader.NewFileLoader(root)
	src, err := l.Load("shared.gp", "")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if src.Text != "Let $y: 2;" {
		t.Errorf("text = %q", src.Text)
	}
}

func TestFileLoaderErrors(t *testing.T) {
	l := loader.NewFileLoader(t.TempDir())

	tests := []struct {
		name string
		uri  string
		code types.ErrorCode
	}{
		{"missing file", "nope.gp", types.ErrModuleLoad},
		{"http scheme", "http://example.com/m.gp", types.ErrUnsupportedScheme},
		{"remote host", "file://server/share/m.gp", types.ErrUnsupportedScheme},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.Load(tt.uri, "")
			if err == nil {
				t.Fatal("expected an error")
			}
			if code := errorCode(t, err); code != tt.code {
				t.Errorf("code = %s, want %s", code, tt.code)
			}
		})
	}
}

func TestFileLoaderReadFailure(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "m.gp"), "")

	boom := errors.New("boom")
	l := &loader.FileLoader{
		Roots:    []string{dir},
		ReadFile: func(string) ([]byte, error) { return nil, boom },
	}
	_, err := l.Load("m.gp", "")
	if code := errorCode(t, err); code != types.ErrModuleLoad {
		t.Errorf("code = %s, want %s", code, types.ErrModuleLoad)
	}
	if !errors.Is(err, boom) {
		t.Error("cause not preserved")
	}
}

func TestMapLoader(t *testing.T) {
	m := loader.MapLoader{"a.gp": "Let $a: 1;"}
	src, err := m.Load("a.gp", "")
	if err != nil || src.URI != "mem:a.gp" {
		t.Fatalf("Load = %+v, %v", src, err)
	}
	if _, err := m.Load("b.gp", ""); errorCode(t, err) != types.ErrModuleLoad {
		t.Error("missing module did not fail with a load error")
	}
}

func TestWatcher(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.gp")
	other := filepath.Join(dir, "notes.txt")
	writeFile(t, path, "Select: 1")
	writeFile(t, other, "")

	changed := make(chan string, 4)
	w, err := loader.NewWatcher(func(p string) { changed <- p }, loader.WithDebounce(time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher error: %v", err)
	}
	defer w.Close()

	if err := w.Watch(loader.FileURI(path), "mem:skip.gp"); err != nil {
		t.Fatalf("Watch error: %v", err)
	}
	if w.Files() != 1 {
		t.Errorf("files = %d, want 1", w.Files())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	writeFile(t, other, "ignored")
	writeFile(t, path, "Select: 2")

	select {
	case got := <-changed:
		want, _ := filepath.Abs(path)
		if got != want {
			t.Errorf("changed = %q, want %q", got, want)
		}
	case <-ctx.Done():
		t.Fatal("no change reported")
	}
}
