package storage

import "errors"

var (
	ErrUserExists      = errors.New("user already exists")
	ErrUserNotFound    = errors.New("user not found")
	ErrTokenExists     = errors.New("refresh token already exists")
	ErrTokenNotFound   = errors.New("refresh token not found")
	ErrProductNotFound = errors.New("product not found")
)
