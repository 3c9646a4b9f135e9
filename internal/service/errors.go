package service

import "errors"

var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrNotFound      = errors.New("not found")
	ErrMisconfigured = errors.New("auth config invalid")
)
