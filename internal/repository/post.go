package repository

import (
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/affeed/affeed/internal/model"
)

const postColumns = `position, id, author_id, caption, type, product_link, media_key, mime_type, liked, created_at`

// PostRepository is the feed store. Posts are prepended on create (the
// feed reads newest-first) and immutable afterwards except for the liked
// flag.
type PostRepository interface {
	Create(post *model.Post) error
	All() ([]*model.Post, error)
	ByID(id string) (*model.Post, error)
	ToggleLike(id string) error
	Count() (int, error)
}

type postRepository struct {
	db *sqlx.DB
}

func NewPostRepository(db *sqlx.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(post *model.Post) error {
	res, err := r.db.Exec(`
		INSERT INTO posts (id, author_id, caption, type, product_link, media_key, mime_type, liked, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, post.ID, post.AuthorID, post.Caption, post.Type, post.ProductLink, post.MediaKey, post.MimeType, post.Liked, post.CreatedAt)
	if err != nil {
		return err
	}

	position, err := res.LastInsertId()
	if err == nil {
		post.Position = position
	}

	return nil
}

// All returns the feed newest-first.
func (r *postRepository) All() ([]*model.Post, error) {
	var posts []*model.Post
	err := r.db.Select(&posts, `SELECT `+postColumns+` FROM posts ORDER BY position DESC`)
	if err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *postRepository) ByID(id string) (*model.Post, error) {
	var post model.Post
	err := r.db.Get(&post, `SELECT `+postColumns+` FROM posts WHERE id = $1`, id)

	if err == sql.ErrNoRows {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}

	return &post, nil
}

// ToggleLike flips the liked flag on the post with the given id. A missing
// id is a benign no-op: ids are never taken from untrusted input.
func (r *postRepository) ToggleLike(id string) error {
	_, err := r.db.Exec(`UPDATE posts SET liked = NOT liked WHERE id = $1`, id)
	return err
}

func (r *postRepository) Count() (int, error) {
	var count int
	err := r.db.Get(&count, `SELECT COUNT(*) FROM posts`)
	return count, err
}
