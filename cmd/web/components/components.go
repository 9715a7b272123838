// Package components renders the HTML pages. Markup lives in embedded
// html/template files; each page is exposed as a templ.Component.
package components

import (
	"embed"
	"html/template"
	"strings"

	"github.com/a-h/templ"

	"github.com/rubiojr/sparks/cmd/web/components/types"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.New("pages").Funcs(template.FuncMap{
	"join": strings.Join,
}).ParseFS(templateFS, "templates/*.html"))

// Index is the home page: search form, search outcome and the inspiration
// panel.
func Index(data types.PageData) templ.Component {
	return templ.FromGoHTML(pages.Lookup("index"), data)
}

// Panel renders only the inspiration panel section.
func Panel(data types.PanelData) templ.Component {
	return templ.FromGoHTML(pages.Lookup("panel"), data)
}
