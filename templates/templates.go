// Package templates embeds the HTML served by the form routers.
package templates

import (
	"embed"
	"html/template"
)

//go:embed *.html
var FS embed.FS

// Parse compiles every embedded template into one set
func Parse() (*template.Template, error) {
	return template.ParseFS(FS, "*.html")
}
