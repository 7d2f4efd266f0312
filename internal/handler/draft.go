package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/affeed/affeed/internal/ctxkeys"
	"github.com/affeed/affeed/internal/service"
	"github.com/affeed/affeed/internal/validation"
)

type DraftHandler struct {
	composerService *service.ComposerService
	maxUploadSize   int64
}

func NewDraftHandler(composerService *service.ComposerService, maxUploadSize int64) *DraftHandler {
	return &DraftHandler{
		composerService: composerService,
		maxUploadSize:   maxUploadSize,
	}
}

// Draft returns the current draft.
func (h *DraftHandler) Draft(w http.ResponseWriter, r *http.Request) {
	sessionID := ctxkeys.SessionID(r.Context())

	draft, err := h.composerService.Draft(sessionID)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "no active session")
		return
	}

	respondJSON(w, http.StatusOK, draft)
}

// AttachMedia accepts a single image or video upload for the draft.
func (h *DraftHandler) AttachMedia(w http.ResponseWriter, r *http.Request) {
	sessionID := ctxkeys.SessionID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+(1<<20))
	err := r.ParseMultipartForm(32 << 20)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart upload")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer func() { _ = file.Close() }()

	draft, err := h.composerService.AttachMedia(sessionID, header)
	if err != nil {
		if errors.Is(err, validation.ErrUnsupportedMedia) {
			respondError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		slog.Error("failed to attach media", "error", err, "session_id", sessionID)
		respondError(w, http.StatusInternalServerError, "failed to attach media")
		return
	}

	respondJSON(w, http.StatusOK, draft)
}

// Update applies caption and product-link edits to the draft.
func (h *DraftHandler) Update(w http.ResponseWriter, r *http.Request) {
	sessionID := ctxkeys.SessionID(r.Context())

	var req struct {
		Caption     *string `json:"caption"`
		ProductLink *string `json:"productLink"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	draft, err := h.composerService.UpdateFields(sessionID, req.Caption, req.ProductLink)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, draft)
}

// GenerateCaption asks the caption service to write a caption for the
// attached media. Single attempt; on failure the draft is untouched and
// the error is surfaced for the user to retry or type one by hand.
func (h *DraftHandler) GenerateCaption(w http.ResponseWriter, r *http.Request) {
	sessionID := ctxkeys.SessionID(r.Context())

	draft, err := h.composerService.GenerateCaption(r.Context(), sessionID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoMedia):
			respondError(w, http.StatusConflict, "attach an image or video first")
		case errors.Is(err, service.ErrStaleCaption):
			respondError(w, http.StatusConflict, "draft changed, caption discarded")
		default:
			slog.Error("caption generation failed", "error", err, "session_id", sessionID)
			respondError(w, http.StatusBadGateway, "caption generation failed")
		}
		return
	}

	respondJSON(w, http.StatusOK, draft)
}

// Reset discards the draft, releasing its preview media.
func (h *DraftHandler) Reset(w http.ResponseWriter, r *http.Request) {
	sessionID := ctxkeys.SessionID(r.Context())

	err := h.composerService.Reset(sessionID)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "no active session")
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}

// Publish turns the draft into a feed post.
func (h *DraftHandler) Publish(w http.ResponseWriter, r *http.Request) {
	sessionID := ctxkeys.SessionID(r.Context())

	post, err := h.composerService.Publish(sessionID)
	if err != nil {
		if errors.Is(err, service.ErrNoMedia) {
			// Submit without a file is blocked, not an error state.
			respondError(w, http.StatusConflict, "nothing to publish")
			return
		}
		slog.Error("publish failed", "error", err, "session_id", sessionID)
		respondError(w, http.StatusInternalServerError, "failed to publish post")
		return
	}

	respondJSON(w, http.StatusCreated, post)
}
