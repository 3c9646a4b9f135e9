package db

import (
	"context"

	"github.com/bookstore/backend/internal/model"
)

const bookColumns = `
	b.id, b.title, b.author_id, b.created_at, b.updated_at,
	a.id, a.first_name, a.last_name, a.age, a.created_at, a.updated_at
`

func scanBook(row interface{ Scan(dest ...any) error }) (*model.Book, error) {
	var book model.Book
	var author model.Author
	err := row.Scan(
		&book.ID,
		&book.Title,
		&book.AuthorID,
		&book.CreatedAt,
		&book.UpdatedAt,
		&author.ID,
		&author.FirstName,
		&author.LastName,
		&author.Age,
		&author.CreatedAt,
		&author.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	book.Author = &author
	return &book, nil
}

func (db *Postgres) ListBooks(ctx context.Context, limit, offset int) ([]*model.Book, error) {
	query := `
		SELECT ` + bookColumns + `
		FROM books b
		JOIN authors a ON a.id = b.author_id
		ORDER BY b.id
		LIMIT $1 OFFSET $2
	`
	rows, err := db.Pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	books := []*model.Book{}
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, book)
	}
	return books, rows.Err()
}

func (db *Postgres) GetBookByID(ctx context.Context, bookID int64) (*model.Book, error) {
	query := `
		SELECT ` + bookColumns + `
		FROM books b
		JOIN authors a ON a.id = b.author_id
		WHERE b.id = $1
	`
	return scanBook(db.Pool.QueryRow(ctx, query, bookID))
}

// FindOrCreateAuthor returns the existing author matching all given fields
// or inserts a new one.
func (db *Postgres) FindOrCreateAuthor(ctx context.Context, firstName, lastName string, age int) (*model.Author, error) {
	var author model.Author
	err := db.Pool.QueryRow(ctx, `
		SELECT id, first_name, last_name, age, created_at, updated_at
		FROM authors
		WHERE first_name = $1 AND last_name = $2 AND age = $3
		LIMIT 1
	`, firstName, lastName, age).Scan(
		&author.ID,
		&author.FirstName,
		&author.LastName,
		&author.Age,
		&author.CreatedAt,
		&author.UpdatedAt,
	)
	if err == nil {
		return &author, nil
	}
	if !IsNoRows(err) {
		return nil, err
	}

	err = db.Pool.QueryRow(ctx, `
		INSERT INTO authors (first_name, last_name, age, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING id, first_name, last_name, age, created_at, updated_at
	`, firstName, lastName, age).Scan(
		&author.ID,
		&author.FirstName,
		&author.LastName,
		&author.Age,
		&author.CreatedAt,
		&author.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &author, nil
}

func (db *Postgres) CreateBook(ctx context.Context, title string, authorID int64) (*model.Book, error) {
	var bookID int64
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO books (title, author_id, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		RETURNING id
	`, title, authorID).Scan(&bookID)
	if err != nil {
		return nil, err
	}
	return db.GetBookByID(ctx, bookID)
}

// UpdateBookWithAuthor writes the book row and its author row inside one
// transaction so a failure on either leaves both untouched.
func (db *Postgres) UpdateBookWithAuthor(ctx context.Context, book *model.Book) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err = tx.Exec(ctx, `
		UPDATE books
		SET title = $1, updated_at = NOW()
		WHERE id = $2
	`, book.Title, book.ID); err != nil {
		return err
	}

	if _, err = tx.Exec(ctx, `
		UPDATE authors
		SET first_name = $1, last_name = $2, age = $3, updated_at = NOW()
		WHERE id = $4
	`, book.Author.FirstName, book.Author.LastName, book.Author.Age, book.Author.ID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (db *Postgres) DeleteBook(ctx context.Context, bookID int64) error {
	_, err := db.Pool.Exec(ctx, `DELETE FROM books WHERE id = $1`, bookID)
	return err
}
