package model

import "time"

type AuthenticateRequest struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
}

type AuthenticateResponse struct {
	Token string `json:"token"`
}

type CreateUserRequest struct {
	User *UserParams `json:"user"`
}

type UserParams struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type UserResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// AuthUser is the identity the auth gate attaches to the request context.
// It never carries the password hash.
type AuthUser struct {
	ID       int64
	Username string
}

type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
