package model

import (
	"time"
)

// Media kinds, derived from the MIME type's primary segment.
const (
	MediaTypeImage = "image"
	MediaTypeVideo = "video"
)

// Post is a published post. Immutable after publish except for Liked, which
// is toggled in place by id.
type Post struct {
	Position    int64     `db:"position" json:"-"`
	ID          string    `db:"id" json:"id"`
	AuthorID    string    `db:"author_id" json:"-"`
	Caption     string    `db:"caption" json:"caption"`
	Type        string    `db:"type" json:"type"`
	ProductLink string    `db:"product_link" json:"productLink"`
	MediaKey    string    `db:"media_key" json:"-"`
	MimeType    string    `db:"mime_type" json:"mimeType"`
	Liked       bool      `db:"liked" json:"liked"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`

	// Joined from the users table, not a posts column
	Author User `db:"-" json:"author"`

	// Computed from MediaKey by the storage layer
	MediaURL string `db:"-" json:"mediaUrl"`
}

// NewPost builds a Published Post from a finished draft. Pure constructor:
// the caller supplies the fresh id and the author active at publish time.
func NewPost(id string, d *Draft, author User) *Post {
	return &Post{
		ID:          id,
		AuthorID:    author.ID,
		Caption:     d.Caption,
		Type:        d.Type,
		ProductLink: d.ProductLink,
		MediaKey:    d.MediaKey,
		MimeType:    d.MimeType,
		Liked:       false,
		CreatedAt:   time.Now(),
		Author:      author,
	}
}
