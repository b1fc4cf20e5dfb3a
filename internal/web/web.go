// Package web serves the tracker's landing page and its static assets.
package web

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed views/index.html public
var assets embed.FS

// Index writes the landing page.
func Index(w http.ResponseWriter, r *http.Request) {
	http.ServeFileFS(w, r, assets, "views/index.html")
}

// Static serves files under public/. Mount it with the /public/ prefix
// stripped.
func Static() http.Handler {
	public, err := fs.Sub(assets, "public")
	if err != nil {
		panic(err)
	}
	return http.FileServerFS(public)
}
