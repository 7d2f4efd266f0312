package validation

import (
	"errors"
	"net/url"
	"strings"
)

// ValidateProductLink validates an affiliate link. Empty is allowed, the
// link is optional on a post.
func ValidateProductLink(link string) error {
	trimmed := strings.TrimSpace(link)
	if trimmed == "" {
		return nil
	}

	if len(trimmed) > 2048 {
		return errors.New("link is too long (max 2048 characters)")
	}

	u, err := url.Parse(trimmed)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("link must be a valid http(s) URL")
	}

	return nil
}
