package http

import (
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Naude555/watson/internal/gateway/app"
)

// MediaHandler serves stored media files: signed browser-friendly links
// on the public route, key-guarded previews on the admin route.
type MediaHandler struct {
	signer    *app.MediaSigner
	uploadDir string
	logger    *slog.Logger
}

func NewMediaHandler(signer *app.MediaSigner, uploadDir string, logger *slog.Logger) *MediaHandler {
	return &MediaHandler{signer: signer, uploadDir: uploadDir, logger: logger}
}

func (h *MediaHandler) RegisterRoutes(r chi.Router) {
	r.Get("/media/{name}", h.ServeSigned)
}

func (h *MediaHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/media/{name}", h.ServeAdmin)
}

// safeName rejects anything that could escape the upload directory.
func safeName(name string) bool {
	return name != "" &&
		!strings.Contains(name, "..") &&
		!strings.Contains(name, "/") &&
		!strings.Contains(name, "\\")
}

func (h *MediaHandler) ServeSigned(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !safeName(name) {
		respondWithError(w, http.StatusBadRequest, "Bad name")
		return
	}

	exp := r.URL.Query().Get("exp")
	sig := r.URL.Query().Get("sig")
	if err := h.signer.Verify(name, exp, sig); err != nil {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized: "+err.Error())
		return
	}

	w.Header().Set("Cache-Control", "private, max-age=300")
	http.ServeFile(w, r, filepath.Join(h.uploadDir, name))
}

func (h *MediaHandler) ServeAdmin(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !safeName(name) {
		respondWithError(w, http.StatusBadRequest, "Bad name")
		return
	}
	http.ServeFile(w, r, filepath.Join(h.uploadDir, name))
}
