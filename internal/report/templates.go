package report

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"slices"
	"strings"
)

//go:embed templates/*.html templates/*.tmpl templates/assets
var templatesFS embed.FS

const (
	dashboardTemplate = "templates/index.html"
	hostTemplate      = "templates/vbh_template.html"
)

var fragments = template.Must(template.New("fragments").Funcs(template.FuncMap{
	"multiline": multiline,
}).ParseFS(templatesFS, "templates/fragments.tmpl"))

// Assets returns the static files every report folder needs, rooted so that
// "assets/style.css" is a valid path.
func Assets() fs.FS {
	sub, err := fs.Sub(templatesFS, "templates")
	if err != nil {
		panic(fmt.Sprintf("embedded templates missing: %v", err))
	}
	return sub
}

func readTemplate(name string) (string, error) {
	b, err := templatesFS.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("reading template %s: %w", name, err)
	}
	return string(b), nil
}

// Substitute replaces every placeholder token in text with its value. It
// knows nothing about the structure of the document.
func Substitute(values map[string]string, text string) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	// Longest key first; NewReplacer gives earlier arguments priority.
	slices.SortFunc(keys, func(a, b string) int {
		if len(a) != len(b) {
			return len(b) - len(a)
		}
		return strings.Compare(a, b)
	})
	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		pairs = append(pairs, k, values[k])
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

// multiline escapes scanner text and keeps its line breaks. Nessus exports
// use both real newlines and a literal "`n".
func multiline(s string) template.HTML {
	escaped := template.HTMLEscapeString(strings.TrimSpace(s))
	escaped = strings.ReplaceAll(escaped, "`n", "\n")
	return template.HTML(strings.ReplaceAll(escaped, "\n", "<br />"))
}
