package repository

import "errors"

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrPostNotFound    = errors.New("post not found")
	ErrSessionNotFound = errors.New("session not found")
)
