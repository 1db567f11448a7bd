package docs

import (
	"html/template"
	"net/http"
	"strings"
)

var pageTmpl = template.Must(template.New("help").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}} · Pagedoor help</title>
<style>
body { margin: 0; font: 15px/1.6 system-ui, sans-serif; color: #24292f; }
.wrap { display: flex; min-height: 100vh; }
nav { width: 220px; padding: 24px 16px; background: #f6f8fa; border-right: 1px solid #d8dee4; }
nav a { display: block; padding: 4px 8px; color: #0969da; text-decoration: none; border-radius: 4px; }
nav a.active { background: #ddf4ff; font-weight: 600; }
main { flex: 1; max-width: 760px; padding: 24px 32px; }
pre { background: #f6f8fa; padding: 12px; border-radius: 6px; overflow-x: auto; }
code { font-family: ui-monospace, monospace; font-size: 13px; }
table { border-collapse: collapse; }
td, th { border: 1px solid #d8dee4; padding: 4px 10px; }
</style>
</head>
<body>
<div class="wrap">
<nav>
{{range .Pages}}<a href="/help/{{.Slug}}"{{if eq .Slug $.Current}} class="active"{{end}}>{{.Title}}</a>
{{end}}</nav>
<main>{{.Body}}</main>
</div>
</body>
</html>
`))

type pageView struct {
	Title   string
	Current string
	Pages   []Page
	Body    template.HTML
}

// Handler serves the guide: the index redirects to the first page, and each
// page is reachable under its slug. Mount at /help/ with a StripPrefix.
func (s *Site) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slug := strings.Trim(strings.TrimPrefix(r.URL.Path, "/"), "/")
		if slug == "" {
			if len(s.Pages) == 0 {
				http.NotFound(w, r)
				return
			}
			http.Redirect(w, r, "/help/"+s.Pages[0].Slug, http.StatusFound)
			return
		}

		page, ok := s.BySlug[slug]
		if !ok {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = pageTmpl.Execute(w, pageView{
			Title:   page.Title,
			Current: page.Slug,
			Pages:   s.Pages,
			Body:    page.HTML,
		})
	})
}
