package model

import (
	"fmt"
	"time"
)

type Author struct {
	ID        int64
	FirstName string
	LastName  string
	Age       int
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Book struct {
	ID        int64
	Title     string
	AuthorID  int64
	Author    *Author
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BookParams and AuthorParams use pointers so a PATCH can distinguish
// "field absent" from "field set to zero value".
type BookParams struct {
	Title *string `json:"title"`
}

type AuthorParams struct {
	FirstName *string  `json:"first_name"`
	LastName  *string  `json:"last_name"`
	Age       *FlexInt `json:"age"`
}

type BookRequest struct {
	Book   *BookParams   `json:"book"`
	Author *AuthorParams `json:"author"`
}

// BookResponse is the representer shape for a book: the author is
// flattened into a display name and age.
type BookResponse struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	AuthorName string `json:"author_name"`
	AuthorAge  int    `json:"author_age"`
}

func RepresentBook(book *Book) BookResponse {
	res := BookResponse{
		ID:    book.ID,
		Title: book.Title,
	}
	if book.Author != nil {
		res.AuthorName = fmt.Sprintf("%s %s", book.Author.FirstName, book.Author.LastName)
		res.AuthorAge = book.Author.Age
	}
	return res
}

func RepresentBooks(books []*Book) []BookResponse {
	out := make([]BookResponse, 0, len(books))
	for _, b := range books {
		out = append(out, RepresentBook(b))
	}
	return out
}
