// Package web embeds the page templates and static assets of the web shell.
//
// Usage in the API server:
//
//	import "github.com/seenimoa/commodityavg/web"
//	static := web.StaticFS()          // io/fs.FS rooted at static/
//	pages, err := web.Templates(funcs) // parsed templates/*.html
package web

import (
	"embed"
	"html/template"
	"io/fs"
	"log"
)

//go:embed templates/*.html
var templates embed.FS

//go:embed static
var static embed.FS

// StaticFS returns a filesystem rooted at the embedded static/ directory.
// This is ready to use with http.FileServerFS.
func StaticFS() fs.FS {
	sub, err := fs.Sub(static, "static")
	if err != nil {
		log.Fatalf("web.StaticFS: %v", err)
	}
	return sub
}

// Templates parses the embedded page templates with the given functions.
func Templates(funcs template.FuncMap) (*template.Template, error) {
	return template.New("pages").Funcs(funcs).ParseFS(templates, "templates/*.html")
}
