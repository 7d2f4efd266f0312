package validation

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
)

// ErrUnsupportedMedia is returned for uploads that are neither image nor
// video. The caller leaves the draft untouched and surfaces the message.
var ErrUnsupportedMedia = errors.New("please select an image or video file")

// ClassifyMedia determines the media kind ("image" or "video") from the
// MIME type's primary segment, the text before the "/".
func ClassifyMedia(mimeType string) (string, error) {
	primary, _, _ := strings.Cut(mimeType, "/")
	switch primary {
	case "image", "video":
		return primary, nil
	default:
		return "", ErrUnsupportedMedia
	}
}

// ValidateMedia checks an uploaded file and returns its media kind.
// The declared Content-Type decides the kind, but the first bytes are
// sniffed as well so a renamed executable can't pass as an image.
func ValidateMedia(header *multipart.FileHeader, maxSize int64) (string, error) {
	if header.Size > maxSize {
		return "", fmt.Errorf("file too large: maximum size is %d MB", maxSize/(1<<20))
	}

	kind, err := ClassifyMedia(header.Header.Get("Content-Type"))
	if err != nil {
		return "", err
	}

	file, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// http.DetectContentType reads max 512 bytes to determine MIME type
	buffer := make([]byte, 512)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	detected := http.DetectContentType(buffer[:n])
	detectedKind, _, _ := strings.Cut(detected, "/")

	// Sniffing is best effort: many video containers come back as
	// application/octet-stream, which we let through on the declared type.
	if detected != "application/octet-stream" && detectedKind != kind {
		return "", ErrUnsupportedMedia
	}

	return kind, nil
}
