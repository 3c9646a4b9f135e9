package service

import (
	"context"

	"github.com/bookstore/backend/internal/model"
)

// UserRepository is the credential store the auth service runs against.
// *db.Postgres satisfies it; tests use in-memory fakes.
type UserRepository interface {
	CreateUser(ctx context.Context, username, passwordHash string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByID(ctx context.Context, userID int64) (*model.User, error)
}

// BookRepository is the catalog store behind the book service.
type BookRepository interface {
	ListBooks(ctx context.Context, limit, offset int) ([]*model.Book, error)
	GetBookByID(ctx context.Context, bookID int64) (*model.Book, error)
	FindOrCreateAuthor(ctx context.Context, firstName, lastName string, age int) (*model.Author, error)
	CreateBook(ctx context.Context, title string, authorID int64) (*model.Book, error)
	UpdateBookWithAuthor(ctx context.Context, book *model.Book) error
	DeleteBook(ctx context.Context, bookID int64) error
}
