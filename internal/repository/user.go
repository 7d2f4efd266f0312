package repository

import (
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/affeed/affeed/internal/model"
)

type UserRepository interface {
	All() ([]*model.User, error)
	ByID(id string) (*model.User, error)
}

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) All() ([]*model.User, error) {
	var users []*model.User
	err := r.db.Select(&users, `SELECT * FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) ByID(id string) (*model.User, error) {
	var user model.User
	err := r.db.Get(&user, `SELECT * FROM users WHERE id = $1`, id)

	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	return &user, nil
}
