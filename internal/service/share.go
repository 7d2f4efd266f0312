package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"

	"github.com/affeed/affeed/internal/model"
)

// ShareService builds shareable references for published posts and can
// send them by email. Copying the reference to the clipboard happens on
// the client; this side only supplies the string.
type ShareService struct {
	client    *resend.Client
	fromEmail string
	appURL    string
	appName   string
	isDev     bool
}

func NewShareService(apiKey, fromEmail, appURL, appName string, isDev bool) *ShareService {
	var client *resend.Client
	if apiKey != "" && !isDev {
		client = resend.NewClient(apiKey)
	}

	return &ShareService{
		client:    client,
		fromEmail: fromEmail,
		appURL:    appURL,
		appName:   appName,
		isDev:     isDev,
	}
}

// ShareURL returns the shareable reference for a post.
func (s *ShareService) ShareURL(postID string) string {
	return fmt.Sprintf("%s/p/%s", s.appURL, postID)
}

// SendShareEmail mails a post's share link. Dev mode logs instead of
// sending, so the flow works without a Resend key.
func (s *ShareService) SendShareEmail(post *model.Post, to string) error {
	shareURL := s.ShareURL(post.ID)
	subject := fmt.Sprintf("%s shared a post on %s", post.Author.Name, s.appName)
	body := shareEmailBody(post, shareURL, s.appName)

	if s.isDev {
		slog.Info("share email sent (dev mode)", "to", to, "post_id", post.ID, "url", shareURL)
		return nil
	}

	if s.client == nil {
		return fmt.Errorf("share email not configured (missing RESEND_API_KEY)")
	}

	params := &resend.SendEmailRequest{
		From:    s.fromEmail,
		To:      []string{to},
		Subject: subject,
		Text:    body,
	}

	_, err := s.client.Emails.SendWithContext(context.Background(), params)
	if err == nil {
		slog.Info("share email sent", "to", to, "post_id", post.ID)
	}
	return err
}

func shareEmailBody(post *model.Post, shareURL, appName string) string {
	caption := post.Caption
	if caption == "" {
		caption = "(no caption)"
	}
	return fmt.Sprintf(`%s shared a post with you on %s.

%s

View it here: %s
`, post.Author.Name, appName, caption, shareURL)
}
