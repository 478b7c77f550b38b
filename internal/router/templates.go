package router

import (
	"html/template"
	"io/fs"
	"path"
	"time"

	"github.com/gin-contrib/multitemplate"
)

const isoLayout = "2006-01-02T15:04:05.000Z07:00"

var funcMap = template.FuncMap{
	"isoTime": func(t time.Time) string {
		return t.UTC().Format(isoLayout)
	},
}

// loadTemplates builds one template set per page: the base layout plus the
// page's view, keyed by the view path the handlers render.
func loadTemplates(fsys fs.FS, templatesDir string) (multitemplate.Render, error) {
	r := multitemplate.New()

	layouts, err := fs.Glob(fsys, path.Join(templatesDir, "layouts", "*.html"))
	if err != nil {
		return nil, err
	}

	views := []string{"index.html", "thanks.html", "admin.html", "error.html"}
	for _, view := range views {
		files := append([]string{}, layouts...)
		files = append(files, path.Join(templatesDir, "views", view))

		tmpl, err := template.New(path.Base(files[0])).Funcs(funcMap).ParseFS(fsys, files...)
		if err != nil {
			return nil, err
		}
		r.Add(view, tmpl)
	}

	return r, nil
}
