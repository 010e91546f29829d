package view

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"time"

	"github.com/odyssey-erp/salesadmin/internal/shared"
	"github.com/odyssey-erp/salesadmin/web"
)

// Engine renders HTML templates. Every page is parsed into its own set
// together with the layouts and partials, so pages can all define "content".
type Engine struct {
	pages map[string]*template.Template
}

// TemplateData contains values shared across templates.
type TemplateData struct {
	Title       string
	CSRFToken   string
	Flash       *shared.FlashMessage
	CurrentPath string
	Data        any
}

// Funcs exposes the template helpers.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"formatCurrency": func(v any) string { return FormatCurrency(toFloat(v)) },
		"formatNumber":   func(v any) string { return FormatNumber(toFloat(v)) },
		"formatDate": func(v any) string {
			switch t := v.(type) {
			case time.Time:
				return FormatDate(t)
			case interface{ UTC() time.Time }:
				return FormatDate(t.UTC())
			case string:
				return FormatDateString(t)
			default:
				return ""
			}
		},
		"hasError": func(errs map[string]string, field string) bool {
			_, ok := errs[field]
			return ok
		},
		"inc":  func(i int) int { return i + 1 },
		"prev": func(i int) int { return i - 1 },
		"next": func(i int) int { return i + 1 },
	}
}

// NewEngine parses the embedded templates.
func NewEngine() (*Engine, error) {
	return newEngine(web.Templates)
}

func newEngine(fsys fs.FS) (*Engine, error) {
	base, err := template.New("root").Funcs(Funcs()).ParseFS(fsys, "templates/layouts/*.html", "templates/partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse layouts: %w", err)
	}
	files, err := fs.Glob(fsys, "templates/pages/*.html")
	if err != nil {
		return nil, err
	}
	pages := make(map[string]*template.Template, len(files))
	for _, file := range files {
		set, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := set.ParseFS(fsys, file); err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		pages[path.Base(file)] = set
	}
	return &Engine{pages: pages}, nil
}

// Render executes the named page with TemplateData. The page is rendered
// into a buffer first so a template error never leaves a half-written body.
func (e *Engine) Render(w http.ResponseWriter, status int, name string, data TemplateData) error {
	if e == nil {
		return fmt.Errorf("template engine not initialised")
	}
	set, ok := e.pages[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	var buf bytes.Buffer
	if err := set.ExecuteTemplate(&buf, "base", data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
