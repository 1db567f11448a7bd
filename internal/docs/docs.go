// Package docs renders the embedded user guide once at startup and serves
// it over the bridge at /help/.
package docs

import (
	"bytes"
	"embed"
	"html/template"
	"path"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

//go:embed all:guide
var guideFS embed.FS

// Page holds a single rendered guide page.
type Page struct {
	Slug  string
	Title string
	Order int
	HTML  template.HTML
}

// Site holds all guide pages, rendered at startup.
type Site struct {
	Pages  []Page
	BySlug map[string]*Page
}

// New reads all .md files from the embedded guide directory, renders them
// with goldmark, and returns a Site with pages sorted by filename prefix.
func New() *Site {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.Table,
			highlighting.NewHighlighting(highlighting.WithStyle("github")),
		),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)

	entries, err := guideFS.ReadDir("guide")
	if err != nil {
		return &Site{BySlug: map[string]*Page{}}
	}

	site := &Site{BySlug: map[string]*Page{}}

	for i, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}

		data, err := guideFS.ReadFile(path.Join("guide", e.Name()))
		if err != nil {
			continue
		}

		// Slug: strip the ordering prefix and extension.
		// "01-getting-started.md" -> "getting-started"
		name := strings.TrimSuffix(e.Name(), ".md")
		slug := name
		if parts := strings.SplitN(name, "-", 2); len(parts) == 2 {
			slug = parts[1]
		}

		// Title: first "# Heading" line.
		title := slug
		for _, line := range strings.Split(string(data), "\n") {
			line = strings.TrimSpace(line)
			if strings.HasPrefix(line, "# ") {
				title = strings.TrimPrefix(line, "# ")
				break
			}
		}

		var buf bytes.Buffer
		if err := md.Convert(data, &buf); err != nil {
			continue
		}

		site.Pages = append(site.Pages, Page{
			Slug:  slug,
			Title: title,
			Order: i,
			HTML:  template.HTML(buf.String()),
		})
	}

	sort.Slice(site.Pages, func(i, j int) bool {
		return site.Pages[i].Order < site.Pages[j].Order
	})
	for idx := range site.Pages {
		site.BySlug[site.Pages[idx].Slug] = &site.Pages[idx]
	}

	return site
}
