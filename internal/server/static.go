package server

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed web
var webAssets embed.FS

// staticHandler serves dir, or the bundled dashboard when dir is empty.
// Directory paths resolve to index.html.
func staticHandler(dir string) http.Handler {
	if dir != "" {
		return http.FileServer(http.Dir(dir))
	}
	sub, err := fs.Sub(webAssets, "web")
	if err != nil {
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}
