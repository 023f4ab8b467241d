package handler

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/livecharge/livecharge/internal/api/response"
)

// StaticHandler serves the board's single-page frontend. Paths that do not
// name a file fall back to index.html so client-side routes resolve.
type StaticHandler struct {
	dir   string
	files http.Handler
}

// NewStaticHandler serves files from dir. An empty dir disables the frontend.
func NewStaticHandler(dir string) *StaticHandler {
	h := &StaticHandler{dir: dir}
	if dir != "" {
		h.files = http.FileServer(http.Dir(dir))
	}
	return h
}

// ServeHTTP implements http.Handler.
func (h *StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.files == nil || r.URL.Path == "/api" || strings.HasPrefix(r.URL.Path, "/api/") {
		response.Problem(w, r, http.StatusNotFound, "Resource not found")
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		response.Problem(w, r, http.StatusMethodNotAllowed, "static files are read-only")
		return
	}

	name := filepath.Join(h.dir, filepath.FromSlash(path.Clean("/"+r.URL.Path)))
	if info, err := os.Stat(name); err == nil && !info.IsDir() {
		h.files.ServeHTTP(w, r)
		return
	}

	index := filepath.Join(h.dir, "index.html")
	if _, err := os.Stat(index); err != nil {
		response.Problem(w, r, http.StatusNotFound, "Resource not found")
		return
	}
	http.ServeFile(w, r, index)
}
