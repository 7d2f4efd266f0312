package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"google.golang.org/genai"
)

// captionPrompt is the fixed instruction sent with every caption request:
// a catchy Japanese promotional caption with a call-to-action and hashtags.
const captionPrompt = "この画像のアフィリエイト投稿用のキャッチーなキャプションを日本語で書いてください。製品を宣伝し、行動を促すフレーズと関連するハッシュタグを含めてください。"

// Captioner generates a caption for a media payload. Single attempt, no
// retry; callers decide how to surface a failure.
type Captioner interface {
	GenerateCaption(ctx context.Context, dataBase64, mimeType string) (string, error)
}

// CaptionService calls the Gemini API. Without an API key in development
// it runs in log mode and returns a canned caption, the same fallback
// shape the share email service uses.
type CaptionService struct {
	client *genai.Client
	model  string
	isDev  bool
}

func NewCaptionService(apiKey, model string, isDev bool) (*CaptionService, error) {
	s := &CaptionService{
		model: model,
		isDev: isDev,
	}

	if apiKey == "" {
		if !isDev {
			return nil, fmt.Errorf("caption service not configured (missing GEMINI_API_KEY)")
		}
		return s, nil
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	s.client = client

	return s, nil
}

func (s *CaptionService) GenerateCaption(ctx context.Context, dataBase64, mimeType string) (string, error) {
	if s.client == nil {
		slog.Info("caption generated (dev mode)", "mime_type", mimeType, "payload_bytes", base64.StdEncoding.DecodedLen(len(dataBase64)))
		return "素敵な商品を見つけました！今すぐチェック！ #PR #おすすめ", nil
	}

	data, err := base64.StdEncoding.DecodeString(dataBase64)
	if err != nil {
		return "", fmt.Errorf("invalid base64 payload: %w", err)
	}

	contents := []*genai.Content{{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}},
			{Text: captionPrompt},
		},
	}}

	resp, err := s.client.Models.GenerateContent(ctx, s.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("caption generation failed: %w", err)
	}

	caption := strings.TrimSpace(resp.Text())
	if caption == "" {
		return "", fmt.Errorf("caption generation returned an empty response")
	}

	slog.Info("caption generated", "model", s.model, "mime_type", mimeType, "caption_len", len(caption))
	return caption, nil
}

// FileToBase64 reads a file's full contents and transcodes them to the
// base64 payload the caption contract expects.
func FileToBase64(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// TrimDataURI strips a "data:mime/type;base64," prefix if present, leaving
// only the encoded payload.
func TrimDataURI(s string) string {
	if strings.HasPrefix(s, "data:") {
		if _, rest, ok := strings.Cut(s, ","); ok {
			return rest
		}
	}
	return s
}
