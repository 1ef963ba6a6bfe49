package models

import "errors"

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrUserExists      = errors.New("user with this email already exists")
	ErrProfileNotFound = errors.New("user profile not found")
	ErrEmptyMessage    = errors.New("message content is empty")
)
