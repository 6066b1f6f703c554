// Package templates holds the HTML views rendered by the web UI.
package templates

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"time"
)

//go:embed *.html
var assets embed.FS

// Funcs are available to every view.
var Funcs = template.FuncMap{
	"date": func(t time.Time) string {
		return t.UTC().Format("2006-01-02 15:04 MST")
	},
}

// Load parses the views. A non-empty dir overrides the embedded set.
func Load(dir string) (*template.Template, error) {
	var fsys fs.FS = assets
	if dir != "" {
		fsys = os.DirFS(dir)
	}

	tmpl, err := template.New("").Funcs(Funcs).ParseFS(fsys, "*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return tmpl, nil
}
