package stream

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
)

//go:embed web
var webFS embed.FS

// Routes mounts the browser page, its static assets and the WebSocket endpoint.
func (h *Hub) Routes() http.Handler {
	root, err := fs.Sub(webFS, "web")
	if err != nil {
		panic(err)
	}
	files := http.FileServer(http.FS(root))

	r := chi.NewRouter()
	r.Get("/", files.ServeHTTP)
	r.Handle("/static/*", files)
	r.Get("/ws", h.ServeWS)
	r.Get("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}
