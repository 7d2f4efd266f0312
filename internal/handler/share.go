package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/affeed/affeed/internal/repository"
	"github.com/affeed/affeed/internal/service"
)

type ShareHandler struct {
	shareService *service.ShareService
	feedService  *service.FeedService
}

func NewShareHandler(shareService *service.ShareService, feedService *service.FeedService) *ShareHandler {
	return &ShareHandler{
		shareService: shareService,
		feedService:  feedService,
	}
}

// Share returns the shareable reference for a published post. The copy
// action itself runs on the client; failures there are reported, not
// fatal.
func (h *ShareHandler) Share(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	post, err := h.feedService.Post(id)
	if err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			respondError(w, http.StatusNotFound, "post not found")
			return
		}
		slog.Error("failed to load post for sharing", "error", err, "post_id", id)
		respondError(w, http.StatusInternalServerError, "failed to load post")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"url": h.shareService.ShareURL(post.ID),
	})
}

// ShareEmail mails the share link to a recipient.
func (h *ShareHandler) ShareEmail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req struct {
		To string `json:"to"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	to := strings.TrimSpace(req.To)
	if to == "" || !strings.Contains(to, "@") {
		respondError(w, http.StatusUnprocessableEntity, "valid recipient email required")
		return
	}

	post, err := h.feedService.Post(id)
	if err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			respondError(w, http.StatusNotFound, "post not found")
			return
		}
		slog.Error("failed to load post for sharing", "error", err, "post_id", id)
		respondError(w, http.StatusInternalServerError, "failed to load post")
		return
	}

	err = h.shareService.SendShareEmail(post, to)
	if err != nil {
		slog.Error("failed to send share email", "error", err, "post_id", id)
		respondError(w, http.StatusBadGateway, "failed to send share email")
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]string{
		"url": h.shareService.ShareURL(post.ID),
	})
}
