package service

import (
	"context"

	"github.com/bookstore/backend/internal/db"
	"github.com/bookstore/backend/internal/model"
)

const MaxPaginationLimit = 100

type BookService struct {
	repo BookRepository
}

func NewBookService(repo BookRepository) *BookService {
	return &BookService{repo: repo}
}

// List returns a page of books. The limit is clamped to MaxPaginationLimit
// no matter what the client asked for; offset passes through.
func (s *BookService) List(ctx context.Context, limit, offset int) ([]*model.Book, error) {
	if limit <= 0 || limit > MaxPaginationLimit {
		limit = MaxPaginationLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListBooks(ctx, limit, offset)
}

func (s *BookService) Get(ctx context.Context, bookID int64) (*model.Book, error) {
	book, err := s.repo.GetBookByID(ctx, bookID)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return book, nil
}

// Create validates the payload, finds or creates the author on an exact
// field match, then inserts the book.
func (s *BookService) Create(ctx context.Context, req *model.BookRequest) (*model.Book, error) {
	title := ""
	if req.Book != nil && req.Book.Title != nil {
		title = *req.Book.Title
	}

	var firstName, lastName string
	age := 0
	if req.Author != nil {
		if req.Author.FirstName != nil {
			firstName = *req.Author.FirstName
		}
		if req.Author.LastName != nil {
			lastName = *req.Author.LastName
		}
		if req.Author.Age != nil {
			age = req.Author.Age.Int()
		}
	}

	verr := &model.ValidationError{}
	model.ValidateBookTitle(verr, title)
	model.ValidateAuthorFields(verr, firstName, lastName, age)
	if verr.HasErrors() {
		return nil, verr
	}

	author, err := s.repo.FindOrCreateAuthor(ctx, firstName, lastName, age)
	if err != nil {
		return nil, err
	}

	return s.repo.CreateBook(ctx, title, author.ID)
}

// Update applies a partial patch to a book and its author. The merged
// state is validated first and both rows are written in one transaction,
// so either everything lands or nothing does.
func (s *BookService) Update(ctx context.Context, bookID int64, req *model.BookRequest) (*model.Book, error) {
	book, err := s.Get(ctx, bookID)
	if err != nil {
		return nil, err
	}

	if req.Book != nil && req.Book.Title != nil {
		book.Title = *req.Book.Title
	}
	if req.Author != nil {
		if req.Author.FirstName != nil {
			book.Author.FirstName = *req.Author.FirstName
		}
		if req.Author.LastName != nil {
			book.Author.LastName = *req.Author.LastName
		}
		if req.Author.Age != nil {
			book.Author.Age = req.Author.Age.Int()
		}
	}

	verr := &model.ValidationError{}
	model.ValidateBookTitle(verr, book.Title)
	model.ValidateAuthorFields(verr, book.Author.FirstName, book.Author.LastName, book.Author.Age)
	if verr.HasErrors() {
		return nil, verr
	}

	if err := s.repo.UpdateBookWithAuthor(ctx, book); err != nil {
		return nil, err
	}
	return book, nil
}

func (s *BookService) Delete(ctx context.Context, bookID int64) error {
	if _, err := s.Get(ctx, bookID); err != nil {
		return err
	}
	return s.repo.DeleteBook(ctx, bookID)
}
