package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"

	"github.com/google/uuid"

	"github.com/affeed/affeed/internal/model"
	"github.com/affeed/affeed/internal/repository"
	"github.com/affeed/affeed/internal/storage"
	"github.com/affeed/affeed/internal/validation"
)

var (
	// ErrNoMedia blocks publish and caption generation while the draft is
	// empty. Not a failure: the composer simply ignores the action.
	ErrNoMedia = errors.New("no media attached to draft")

	// ErrStaleCaption means the draft changed while the caption request
	// was in flight; the response is discarded.
	ErrStaleCaption = errors.New("draft changed during caption generation")
)

// ComposerService runs the post-creation workflow: attach media, edit
// fields, optionally generate a caption, publish into the feed store.
type ComposerService struct {
	sessions      *repository.SessionStore
	posts         repository.PostRepository
	users         repository.UserRepository
	storage       storage.Storage
	captioner     Captioner
	maxUploadSize int64
}

func NewComposerService(
	sessions *repository.SessionStore,
	posts repository.PostRepository,
	users repository.UserRepository,
	st storage.Storage,
	captioner Captioner,
	maxUploadSize int64,
) *ComposerService {
	return &ComposerService{
		sessions:      sessions,
		posts:         posts,
		users:         users,
		storage:       st,
		captioner:     captioner,
		maxUploadSize: maxUploadSize,
	}
}

// Draft returns the session's current draft.
func (s *ComposerService) Draft(sessionID string) (*model.Draft, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	d := sess.Draft
	return &d, nil
}

// AttachMedia validates and stores an uploaded file on the draft. A blob
// already attached is released first, so at most one preview reference is
// live per draft.
func (s *ComposerService) AttachMedia(sessionID string, header *multipart.FileHeader) (*model.Draft, error) {
	kind, err := validation.ValidateMedia(header, s.maxUploadSize)
	if err != nil {
		return nil, err
	}

	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer func() { _ = file.Close() }()

	contentType := header.Header.Get("Content-Type")
	key := "drafts/" + uuid.New().String()

	err = s.storage.Save(key, contentType, file)
	if err != nil {
		return nil, fmt.Errorf("failed to store media: %w", err)
	}

	var replaced string
	sess, err := s.sessions.Update(sessionID, func(sess *repository.Session) error {
		replaced = sess.Draft.MediaKey
		sess.Draft.MediaKey = key
		sess.Draft.PreviewURL = s.storage.URL(key)
		sess.Draft.MimeType = contentType
		sess.Draft.Type = kind
		sess.Draft.Rev++
		return nil
	})
	if err != nil {
		// Session is gone; don't leak the blob we just stored.
		s.release(key)
		return nil, err
	}

	if replaced != "" {
		s.release(replaced)
	}

	d := sess.Draft
	return &d, nil
}

// UpdateFields applies caption and product-link edits. Nil means "leave
// unchanged"; the most recent edit wins.
func (s *ComposerService) UpdateFields(sessionID string, caption, productLink *string) (*model.Draft, error) {
	if productLink != nil {
		err := validation.ValidateProductLink(*productLink)
		if err != nil {
			return nil, err
		}
	}

	sess, err := s.sessions.Update(sessionID, func(sess *repository.Session) error {
		if caption != nil {
			sess.Draft.Caption = *caption
		}
		if productLink != nil {
			sess.Draft.ProductLink = *productLink
		}
		sess.Draft.Rev++
		return nil
	})
	if err != nil {
		return nil, err
	}

	d := sess.Draft
	return &d, nil
}

// GenerateCaption asks the captioner for a caption of the attached media
// and writes it to the draft. The result only applies if the draft was not
// reset, replaced, or edited while the request was in flight.
func (s *ComposerService) GenerateCaption(ctx context.Context, sessionID string) (*model.Draft, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.Draft.HasMedia() {
		return nil, ErrNoMedia
	}

	startRev := sess.Draft.Rev
	mediaKey := sess.Draft.MediaKey
	mimeType := sess.Draft.MimeType

	blob, _, err := s.storage.Open(mediaKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read draft media: %w", err)
	}
	defer func() { _ = blob.Close() }()

	payload, err := FileToBase64(blob)
	if err != nil {
		return nil, err
	}

	caption, err := s.captioner.GenerateCaption(ctx, payload, mimeType)
	if err != nil {
		// Draft stays untouched; the user may retry or type a caption.
		return nil, err
	}

	sess, err = s.sessions.Update(sessionID, func(sess *repository.Session) error {
		if sess.Draft.Rev != startRev {
			return ErrStaleCaption
		}
		sess.Draft.Caption = caption
		sess.Draft.Rev++
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrStaleCaption) {
			slog.Warn("discarding stale caption response", "session_id", sessionID)
		}
		return nil, err
	}

	d := sess.Draft
	return &d, nil
}

// Reset clears the draft back to empty, releasing its preview blob. The
// key is detached under the store lock, so the blob is released exactly
// once even under concurrent resets.
func (s *ComposerService) Reset(sessionID string) error {
	var detached string
	_, err := s.sessions.Update(sessionID, func(sess *repository.Session) error {
		detached = sess.Draft.MediaKey
		sess.Draft = model.Draft{Rev: sess.Draft.Rev + 1}
		return nil
	})
	if err != nil {
		return err
	}

	if detached != "" {
		s.release(detached)
	}

	return nil
}

// Publish turns the draft into a Published Post and prepends it to the
// feed. Blocked while no media is attached. On success the draft is
// cleared; blob ownership moves to the post, so nothing is released.
func (s *ComposerService) Publish(sessionID string) (*model.Post, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}

	author, err := s.users.ByID(sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load author: %w", err)
	}

	var post *model.Post
	_, err = s.sessions.Update(sessionID, func(sess *repository.Session) error {
		if !sess.Draft.HasMedia() {
			return ErrNoMedia
		}

		post = model.NewPost(uuid.New().String(), &sess.Draft, *author)
		createErr := s.posts.Create(post)
		if createErr != nil {
			return fmt.Errorf("failed to publish post: %w", createErr)
		}

		// Ownership of the media blob transferred to the post.
		sess.Draft = model.Draft{Rev: sess.Draft.Rev + 1}
		sess.Screen = model.ScreenFeed
		return nil
	})
	if err != nil {
		return nil, err
	}

	post.MediaURL = s.storage.URL(post.MediaKey)
	slog.Info("post published", "post_id", post.ID, "author_id", post.AuthorID, "type", post.Type)

	return post, nil
}

// ReleaseDraftMedia releases a draft's blob outside the normal composer
// flow (logout, session expiry).
func (s *ComposerService) ReleaseDraftMedia(d model.Draft) {
	if d.MediaKey != "" {
		s.release(d.MediaKey)
	}
}

func (s *ComposerService) release(key string) {
	err := s.storage.Delete(key)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		slog.Error("failed to release draft media", "error", err, "key", key)
	}
}
