package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/dmitrijs2005/clubhouse/internal/server/auth"
	"github.com/dustin/go-humanize"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

const layoutFile = "templates/layout.html"

// page is the model every template receives. Data is page specific.
type page struct {
	Title string
	User  *auth.Identity
	Flash string
	Data  any
}

var templateFuncs = template.FuncMap{
	"humanBytes": func(n int64) string {
		if n < 0 {
			n = 0
		}
		return humanize.Bytes(uint64(n))
	},
}

// parsePages builds one template set per page, each with the shared layout.
func parsePages() (map[string]*template.Template, error) {
	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	pages := make(map[string]*template.Template, len(files))
	for _, f := range files {
		if f == layoutFile {
			continue
		}
		name := strings.TrimSuffix(path.Base(f), ".html")
		t, err := template.New(name).Funcs(templateFuncs).ParseFS(templateFS, layoutFile, f)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", f, err)
		}
		pages[name] = t
	}
	return pages, nil
}

// render executes into a buffer first so a template error still yields a
// clean 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name, title string, data any) {
	t, ok := s.pages[name]
	if !ok {
		s.serverError(w, r, fmt.Errorf("unknown template %q", name))
		return
	}

	p := page{Title: title, Flash: popFlash(w, r), Data: data}
	if id, ok := auth.FromContext(r.Context()); ok {
		p.User = &id
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", p); err != nil {
		s.serverError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func staticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic("static assets: " + err.Error())
	}
	fileServer := http.FileServer(http.FS(sub))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		fileServer.ServeHTTP(w, r)
	})
}
