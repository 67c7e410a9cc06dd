// Package templates handles HTML template rendering for Datastar SSE responses.
package templates

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"os"
	"strings"
	"sync"
)

//go:embed fragments/*.html
var fragments embed.FS

// funcMap provides common template functions.
var funcMap = template.FuncMap{
	// dict creates a map from key-value pairs, useful for passing multiple values to nested templates
	"dict": func(values ...any) map[string]any {
		if len(values)%2 != 0 {
			return nil
		}
		m := make(map[string]any, len(values)/2)
		for i := 0; i < len(values); i += 2 {
			key, ok := values[i].(string)
			if !ok {
				continue
			}
			m[key] = values[i+1]
		}
		return m
	},
	// swatchURL trusts inline image data returned by the map server
	"swatchURL": func(s string) any {
		if strings.HasPrefix(s, "data:image/") {
			return template.URL(s)
		}
		return s
	},
}

// Renderer manages HTML fragment templates.
type Renderer struct {
	templates *template.Template
	mu        sync.RWMutex
}

// New creates a renderer from the embedded fragments.
func New() (*Renderer, error) {
	tmpl, err := parse(fragments, "fragments/*.html")
	if err != nil {
		return nil, err
	}
	return &Renderer{templates: tmpl}, nil
}

// NewFromDir creates a renderer from the *.html files in dir, for
// overriding the embedded fragments.
func NewFromDir(dir string) (*Renderer, error) {
	tmpl, err := parse(os.DirFS(dir), "*.html")
	if err != nil {
		return nil, err
	}
	return &Renderer{templates: tmpl}, nil
}

func parse(fsys fs.FS, pattern string) (*template.Template, error) {
	return template.New("").Funcs(funcMap).ParseFS(fsys, pattern)
}

// Render renders a named template to a string.
func (r *Renderer) Render(name string, data any) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Reload reloads templates from dir (useful for dev hot-reload).
func (r *Renderer) Reload(dir string) error {
	tmpl, err := parse(os.DirFS(dir), "*.html")
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.templates = tmpl
	r.mu.Unlock()

	return nil
}
