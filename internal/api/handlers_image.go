package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// handleImage serves an original inspection image by absolute path.
func (r *Router) handleImage(w http.ResponseWriter, req *http.Request) {
	path, ok := r.confinedPath(w, req)
	if !ok {
		return
	}
	http.ServeFile(w, req, path)
}

// handleThumb serves a cached thumbnail of the requested image, falling back
// to the original when a thumbnail cannot be rendered.
func (r *Router) handleThumb(w http.ResponseWriter, req *http.Request) {
	path, ok := r.confinedPath(w, req)
	if !ok {
		return
	}

	serve, err := r.thumbs.Path(path)
	if err != nil {
		r.logger.Error("thumbnail lookup failed", "path", path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	http.ServeFile(w, req, serve)
}

// confinedPath validates the path query parameter: it must resolve to a
// regular file under the watch root. Anything else gets a 400 or 404 written
// and ok=false returned.
func (r *Router) confinedPath(w http.ResponseWriter, req *http.Request) (string, bool) {
	raw := req.URL.Query().Get("path")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return "", false
	}

	abs, err := filepath.Abs(raw)
	if err != nil || !underRoot(r.watchRoot, abs) {
		writeError(w, http.StatusBadRequest, "path outside watch root")
		return "", false
	}

	info, err := os.Stat(abs)
	if err != nil || !info.Mode().IsRegular() {
		writeError(w, http.StatusNotFound, "not found")
		return "", false
	}
	return abs, true
}

// underRoot reports whether abs sits at or below root.
func underRoot(root, abs string) bool {
	rel, err := filepath.Rel(filepath.Clean(root), abs)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
