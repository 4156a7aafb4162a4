// Package loader reads module sources for Import declarations.
package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/sandrolain/goperon/pkg/types"
)

// Source is the text of one module.
type Source struct {
	// URI is the canonical location; the compiler detects import cycles by
	// comparing it.
	URI  string
	Text string
}

// Loader fetches the source named by uri. importer is the canonical URI of
// the importing unit, empty for the main program.
type Loader interface {
	Load(uri, importer string) (Source, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(uri, importer string) (Source, error)

// Load calls f.
func (f LoaderFunc) Load(uri, importer string) (Source, error) {
	return f(uri, importer)
}

// FileLoader loads modules from the local filesystem.
//
// Accepted forms are plain paths, file:path, file:./path and file:///abs.
// Relative paths are tried against the importer's directory, then each
// root, then the working directory.
type FileLoader struct {
	Roots    []string
	ReadFile func(name string) ([]byte, error)
}

// NewFileLoader creates a FileLoader searching the given roots.
func NewFileLoader(roots ...string) *FileLoader {
	return &FileLoader{Roots: roots, ReadFile: os.ReadFile}
}

// Load implements Loader.
func (l *FileLoader) Load(uri, importer string) (Source, error) {
	path, err := l.Resolve(uri, importer)
	if err != nil {
		return Source{}, err
	}
	read := l.ReadFile
	if read == nil {
		read = os.ReadFile
	}
	data, err := read(path)
	if err != nil {
		return Source{}, types.Errorf(types.ErrModuleLoad, 0, "cannot read module %q", uri).WithCause(err)
	}
	return Source{URI: FileURI(path), Text: string(data)}, nil
}

// Resolve maps uri to an absolute filesystem path.
func (l *FileLoader) Resolve(uri, importer string) (string, error) {
	path, err := pathOf(uri)
	if err != nil {
		return "", err
	}
	if filepath.IsAbs(path) {
		return filepath.Clean(path), nil
	}

	var candidates []string
	if importer != "" {
		if dir, err := PathFromURI(importer); err == nil {
			candidates = append(candidates, filepath.Join(filepath.Dir(dir), path))
		}
	}
	for _, root := range l.Roots {
		candidates = append(candidates, filepath.Join(root, path))
	}
	candidates = append(candidates, path)

	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return filepath.Abs(c)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return "", types.Errorf(types.ErrModuleLoad, 0, "cannot stat module %q", uri).WithCause(err)
		}
	}
	return "", types.Errorf(types.ErrModuleLoad, 0, "module %q not found (tried %s)", uri, strings.Join(candidates, ", "))
}

// pathOf extracts the filesystem path from an import URI.
func pathOf(uri string) (string, error) {
	if !strings.Contains(uri, ":") || filepath.VolumeName(uri) != "" {
		return filepath.FromSlash(uri), nil
	}
	u, err := url.Parse(uri)
	if err != nil {
		return "", types.Errorf(types.ErrUnsupportedScheme, 0, "malformed module URI %q", uri).WithCause(err)
	}
	if u.Scheme != "file" {
		return "", types.Errorf(types.ErrUnsupportedScheme, 0, "unsupported scheme %q in %q: only file: is supported", u.Scheme, uri)
	}
	switch {
	case u.Opaque != "":
		return filepath.FromSlash(u.Opaque), nil
	case u.Host == "" || u.Host == "localhost":
		return filepath.FromSlash(u.Path), nil
	case u.Host == ".":
		return filepath.FromSlash("." + u.Path), nil
	default:
		return "", types.Errorf(types.ErrUnsupportedScheme, 0, "remote module host %q in %q is not supported", u.Host, uri)
	}
}

// FileURI returns the canonical file:// URI of an absolute path.
func FileURI(path string) string {
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
}

// PathFromURI converts a file URI produced by FileURI back to a path.
func PathFromURI(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", err
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("not a file URI: %s", uri)
	}
	if u.Opaque != "" {
		return filepath.FromSlash(u.Opaque), nil
	}
	return filepath.FromSlash(u.Path), nil
}

// MapLoader serves modules from memory, keyed by the URI written in the
// Import declaration. The canonical URI is mem:<key>.
type MapLoader map[string]string

// Load implements Loader.
func (m MapLoader) Load(uri, _ string) (Source, error) {
	text, ok := m[uri]
	if !ok {
		return Source{}, types.Errorf(types.ErrModuleLoad, 0, "module %q not found", uri)
	}
	return Source{URI: "mem:" + uri, Text: text}, nil
}
