package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/bookstore/backend/internal/config"
	"github.com/bookstore/backend/internal/db"
	"github.com/bookstore/backend/internal/model"
)

// dummyHash is compared against when the username does not resolve, so
// the miss path costs the same bcrypt work as the wrong-password path.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

type AuthService struct {
	repo      UserRepository
	jwtSecret []byte
	tokenTTL  time.Duration
}

type tokenClaims struct {
	jwt.RegisteredClaims
}

func NewAuthService(repo UserRepository, cfg config.AuthConfig) (*AuthService, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("%w: JWT_SECRET_KEY is required", ErrMisconfigured)
	}

	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = time.Hour
	}

	return &AuthService{
		repo:      repo,
		jwtSecret: []byte(cfg.JWTSecret),
		tokenTTL:  ttl,
	}, nil
}

// Register creates a user with a bcrypt-hashed password. Duplicate and
// blank usernames come back as *model.ValidationError.
func (s *AuthService) Register(ctx context.Context, username, password string) (*model.User, error) {
	if verr := model.ValidateUserParams(&model.UserParams{Username: username, Password: password}); verr != nil {
		return nil, verr
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.CreateUser(ctx, username, string(hash))
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, &model.ValidationError{Messages: []string{"Username has already been taken"}}
		}
		return nil, err
	}
	return user, nil
}

// Authenticate resolves a username/password pair to a user. Unknown user
// and wrong password both return ErrUnauthorized; the caller never learns
// which one happened.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	user, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		if db.IsNoRows(err) {
			_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
			return nil, ErrUnauthorized
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrUnauthorized
	}
	return user, nil
}

// IssueToken signs a bearer token for the user: sub, iat, exp = iat + TTL.
func (s *AuthService) IssueToken(userID int64) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// VerifyToken returns the subject user id of a valid token. Malformed,
// expired and badly signed tokens all come back as ErrUnauthorized.
func (s *AuthService) VerifyToken(tokenStr string) (int64, error) {
	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrUnauthorized
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return 0, ErrUnauthorized
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, ErrUnauthorized
	}
	return userID, nil
}

// ResolveUser verifies a bearer token and looks the subject up in the
// credential store, so tokens for deleted accounts stop working.
func (s *AuthService) ResolveUser(ctx context.Context, tokenStr string) (*model.AuthUser, error) {
	userID, err := s.VerifyToken(tokenStr)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}

	return &model.AuthUser{ID: user.ID, Username: user.Username}, nil
}
