package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/affeed/affeed/internal/service"
)

type FeedHandler struct {
	feedService *service.FeedService
}

func NewFeedHandler(feedService *service.FeedService) *FeedHandler {
	return &FeedHandler{
		feedService: feedService,
	}
}

// Feed returns the filtered, searched feed projection, newest first.
func (h *FeedHandler) Feed(w http.ResponseWriter, r *http.Request) {
	filter, err := service.ParseFilter(r.URL.Query().Get("filter"))
	if err != nil {
		if errors.Is(err, service.ErrUnknownFilter) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondError(w, http.StatusBadRequest, "invalid filter")
		return
	}

	page, err := h.feedService.Feed(filter, r.URL.Query().Get("q"))
	if err != nil {
		slog.Error("failed to build feed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load feed")
		return
	}

	respondJSON(w, http.StatusOK, page)
}

// ToggleLike flips the liked flag. Unknown ids are a no-op, so this
// always answers 204.
func (h *FeedHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	err := h.feedService.ToggleLike(id)
	if err != nil {
		slog.Error("failed to toggle like", "error", err, "post_id", id)
		respondError(w, http.StatusInternalServerError, "failed to toggle like")
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}
