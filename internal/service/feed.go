package service

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	"github.com/affeed/affeed/internal/model"
	"github.com/affeed/affeed/internal/repository"
	"github.com/affeed/affeed/internal/storage"
)

// Feed filters. "all" passes everything, "image"/"video" match the media
// type exactly, "liked" keeps liked posts regardless of type.
const (
	FilterAll   = "all"
	FilterImage = "image"
	FilterVideo = "video"
	FilterLiked = "liked"
)

var ErrUnknownFilter = errors.New("unknown feed filter")

// ParseFilter validates a filter query parameter. Empty means "all".
func ParseFilter(s string) (string, error) {
	switch s {
	case "":
		return FilterAll, nil
	case FilterAll, FilterImage, FilterVideo, FilterLiked:
		return s, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFilter, s)
	}
}

// FeedPage is a filtered projection of the feed. Total counts the whole
// store and Matched the projection, so clients can tell first use
// (nothing published yet) from an empty search result.
type FeedPage struct {
	Posts   []*model.Post `json:"posts"`
	Total   int           `json:"total"`
	Matched int           `json:"matched"`
}

// FeedService derives feed projections and owns the like toggle.
type FeedService struct {
	posts   repository.PostRepository
	users   repository.UserRepository
	storage storage.Storage
}

func NewFeedService(posts repository.PostRepository, users repository.UserRepository, st storage.Storage) *FeedService {
	return &FeedService{
		posts:   posts,
		users:   users,
		storage: st,
	}
}

// Feed returns the posts passing both the filter and the search query,
// newest first. The search matches case-insensitively against the caption
// or the author's name.
func (s *FeedService) Feed(filter, query string) (*FeedPage, error) {
	posts, err := s.posts.All()
	if err != nil {
		return nil, fmt.Errorf("failed to load feed: %w", err)
	}

	authors, err := s.authorsByID()
	if err != nil {
		return nil, err
	}

	folded := fold(strings.TrimSpace(query))

	page := &FeedPage{
		Posts: make([]*model.Post, 0, len(posts)),
		Total: len(posts),
	}
	for _, post := range posts {
		if author, ok := authors[post.AuthorID]; ok {
			post.Author = *author
		}
		post.MediaURL = s.storage.URL(post.MediaKey)

		if matchesFilter(post, filter) && matchesQuery(post, folded) {
			page.Posts = append(page.Posts, post)
		}
	}
	page.Matched = len(page.Posts)

	return page, nil
}

// Post returns a single published post with its author attached.
func (s *FeedService) Post(id string) (*model.Post, error) {
	post, err := s.posts.ByID(id)
	if err != nil {
		return nil, err
	}

	author, err := s.users.ByID(post.AuthorID)
	if err == nil {
		post.Author = *author
	}
	post.MediaURL = s.storage.URL(post.MediaKey)

	return post, nil
}

// ToggleLike flips the liked flag on a post. Unknown ids are a no-op.
func (s *FeedService) ToggleLike(id string) error {
	return s.posts.ToggleLike(id)
}

func (s *FeedService) authorsByID() (map[string]*model.User, error) {
	users, err := s.users.All()
	if err != nil {
		return nil, fmt.Errorf("failed to load authors: %w", err)
	}

	byID := make(map[string]*model.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	return byID, nil
}

func matchesFilter(post *model.Post, filter string) bool {
	switch filter {
	case FilterImage:
		return post.Type == model.MediaTypeImage
	case FilterVideo:
		return post.Type == model.MediaTypeVideo
	case FilterLiked:
		return post.Liked
	default:
		return true
	}
}

func matchesQuery(post *model.Post, foldedQuery string) bool {
	if foldedQuery == "" {
		return true
	}
	return strings.Contains(fold(post.Caption), foldedQuery) ||
		strings.Contains(fold(post.Author.Name), foldedQuery)
}

// fold normalizes for caseless matching. Captions mix Japanese and Latin
// script, so Unicode case folding beats plain ASCII lowering.
func fold(s string) string {
	return cases.Fold().String(s)
}
