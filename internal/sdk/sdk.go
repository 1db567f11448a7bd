// Package sdk serves the JavaScript the embedded editor page loads to talk
// back to the app: the well-known close function and the save channel. The
// script is embedded and minified once at startup.
package sdk

import (
	"embed"
	"log"
	"net/http"
	"strings"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/js"
)

// FileName is the script name integration pages request under /sdk/.
const FileName = "pagedoor-editor.js"

//go:embed pagedoor-editor.js
var rawFS embed.FS

var minified []byte

func init() {
	raw, err := rawFS.ReadFile(FileName)
	if err != nil {
		log.Printf("sdk: read embedded %s: %v", FileName, err)
		return
	}

	m := minify.New()
	m.AddFunc("application/javascript", js.Minify)

	out, err := m.Bytes("application/javascript", raw)
	if err != nil {
		log.Printf("sdk: minify warning: %s: %v (using original)", FileName, err)
		minified = raw
		return
	}
	minified = out
}

// Source returns the minified script bytes.
func Source() []byte { return minified }

// Handler serves the SDK script. Mount it at /sdk/ with a StripPrefix.
func Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.TrimPrefix(r.URL.Path, "/") != FileName {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		_, _ = w.Write(minified)
	})
}
