package model

// User is a roster identity. The roster is seeded at startup and users are
// immutable for the lifetime of the process.
type User struct {
	ID        string `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	AvatarURL string `db:"avatar_url" json:"avatarUrl"`
}
