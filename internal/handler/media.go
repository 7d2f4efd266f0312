package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/affeed/affeed/internal/storage"
)

type MediaHandler struct {
	storage storage.Storage
}

func NewMediaHandler(st storage.Storage) *MediaHandler {
	return &MediaHandler{storage: st}
}

// Serve resolves a preview reference: it streams the stored blob so
// image and video elements can render it without leaving the app.
func (h *MediaHandler) Serve(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	blob, contentType, err := h.storage.Open(key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		slog.Error("failed to open media", "error", err, "key", key)
		respondError(w, http.StatusInternalServerError, "failed to load media")
		return
	}
	defer func() { _ = blob.Close() }()

	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	w.Header().Set("Cache-Control", "private, max-age=3600")

	_, err = io.Copy(w, blob)
	if err != nil {
		slog.Debug("media stream interrupted", "error", err, "key", key)
	}
}
