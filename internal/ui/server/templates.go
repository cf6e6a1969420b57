package server

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

//go:embed templates/*.tmpl
var embeddedTemplates embed.FS

// loadTemplates parses the page templates from dir, or from the embedded copies
// when dir is empty. It returns a map keyed by logical template name.
func loadTemplates(dir string) (map[string]*template.Template, error) {
	var fsys fs.FS
	if strings.TrimSpace(dir) == "" {
		sub, err := fs.Sub(embeddedTemplates, "templates")
		if err != nil {
			return nil, err
		}
		fsys = sub
	} else {
		fsys = os.DirFS(dir)
	}

	funcs := template.FuncMap{
		"plainText":   plainText,
		"formatViews": formatViews,
		"lower":       strings.ToLower,
	}

	templates := make(map[string]*template.Template)
	for _, name := range []string{"loading", "home", "video"} {
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(fsys, "base.tmpl", name+".tmpl")
		if err != nil {
			return nil, fmt.Errorf("parse %s templates: %w", name, err)
		}
		templates[name] = tmpl
	}
	return templates, nil
}

// plainText reduces an HTML fragment to its text. Descriptions may carry markup
// from the service; only the text is rendered.
func plainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.TrimSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// formatViews renders a view count as 950, 12.3K or 1.2M.
func formatViews(n int64) string {
	switch {
	case n >= 1_000_000:
		return strconv.FormatFloat(float64(n)/1_000_000, 'f', 1, 64) + "M"
	case n >= 1_000:
		return strconv.FormatFloat(float64(n)/1_000, 'f', 1, 64) + "K"
	default:
		return strconv.FormatInt(n, 10)
	}
}
