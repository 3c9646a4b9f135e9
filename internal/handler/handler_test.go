package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookstore/backend/internal/config"
	"github.com/bookstore/backend/internal/model"
	"github.com/bookstore/backend/internal/service"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	m.Run()
}

type fakeUserRepo struct {
	nextID int64
	users  map[int64]*model.User
}

func (r *fakeUserRepo) CreateUser(_ context.Context, username, passwordHash string) (*model.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			return nil, &pgconn.PgError{Code: "23505"}
		}
	}
	r.nextID++
	user := &model.User{ID: r.nextID, Username: username, PasswordHash: passwordHash}
	r.users[user.ID] = user
	return user, nil
}

func (r *fakeUserRepo) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) GetUserByID(_ context.Context, userID int64) (*model.User, error) {
	if u, ok := r.users[userID]; ok {
		return u, nil
	}
	return nil, pgx.ErrNoRows
}

type fakeBookRepo struct {
	nextAuthorID int64
	nextBookID   int64
	authors      []*model.Author
	books        []*model.Book
}

func (r *fakeBookRepo) ListBooks(_ context.Context, limit, offset int) ([]*model.Book, error) {
	if offset > len(r.books) {
		offset = len(r.books)
	}
	end := offset + limit
	if end > len(r.books) {
		end = len(r.books)
	}
	out := []*model.Book{}
	for _, b := range r.books[offset:end] {
		out = append(out, cloneBook(b))
	}
	return out, nil
}

func (r *fakeBookRepo) GetBookByID(_ context.Context, bookID int64) (*model.Book, error) {
	for _, b := range r.books {
		if b.ID == bookID {
			return cloneBook(b), nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeBookRepo) FindOrCreateAuthor(_ context.Context, firstName, lastName string, age int) (*model.Author, error) {
	for _, a := range r.authors {
		if a.FirstName == firstName && a.LastName == lastName && a.Age == age {
			return a, nil
		}
	}
	r.nextAuthorID++
	author := &model.Author{ID: r.nextAuthorID, FirstName: firstName, LastName: lastName, Age: age}
	r.authors = append(r.authors, author)
	return author, nil
}

func (r *fakeBookRepo) CreateBook(_ context.Context, title string, authorID int64) (*model.Book, error) {
	var author *model.Author
	for _, a := range r.authors {
		if a.ID == authorID {
			author = a
		}
	}
	if author == nil {
		return nil, pgx.ErrNoRows
	}
	r.nextBookID++
	book := &model.Book{ID: r.nextBookID, Title: title, AuthorID: authorID, Author: author}
	r.books = append(r.books, book)
	return cloneBook(book), nil
}

func (r *fakeBookRepo) UpdateBookWithAuthor(_ context.Context, book *model.Book) error {
	for _, b := range r.books {
		if b.ID == book.ID {
			b.Title = book.Title
			b.Author.FirstName = book.Author.FirstName
			b.Author.LastName = book.Author.LastName
			b.Author.Age = book.Author.Age
		}
	}
	return nil
}

func (r *fakeBookRepo) DeleteBook(_ context.Context, bookID int64) error {
	books := []*model.Book{}
	for _, b := range r.books {
		if b.ID != bookID {
			books = append(books, b)
		}
	}
	r.books = books
	return nil
}

func cloneBook(b *model.Book) *model.Book {
	book := *b
	author := *b.Author
	book.Author = &author
	return &book
}

type testEnv struct {
	router   *gin.Engine
	authSvc  *service.AuthService
	userRepo *fakeUserRepo
	bookRepo *fakeBookRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	userRepo := &fakeUserRepo{users: map[int64]*model.User{}}
	bookRepo := &fakeBookRepo{}

	authSvc, err := service.NewAuthService(userRepo, config.AuthConfig{
		JWTSecret: "test-secret",
		TokenTTL:  time.Hour,
	})
	require.NoError(t, err)
	bookSvc := service.NewBookService(bookRepo)

	return &testEnv{
		router:   NewRouter(authSvc, bookSvc, nil),
		authSvc:  authSvc,
		userRepo: userRepo,
		bookRepo: bookRepo,
	}
}

func (e *testEnv) do(t *testing.T, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) registerUser(t *testing.T, username, password string) int64 {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/v1/users",
		fmt.Sprintf(`{"user":{"username":%q,"password":%q}}`, username, password), "")
	require.Equal(t, http.StatusCreated, w.Code)

	var res model.UserResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	return res.ID
}

func (e *testEnv) tokenFor(t *testing.T, userID int64) string {
	t.Helper()
	token, err := e.authSvc.IssueToken(userID)
	require.NoError(t, err)
	return token
}

func (e *testEnv) seedBook(t *testing.T, title, firstName, lastName string, age int) *model.Book {
	t.Helper()
	author, err := e.bookRepo.FindOrCreateAuthor(context.Background(), firstName, lastName, age)
	require.NoError(t, err)
	book, err := e.bookRepo.CreateBook(context.Background(), title, author.ID)
	require.NoError(t, err)
	return book
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestRegisterAuthenticateScenario(t *testing.T) {
	env := newTestEnv(t)

	userID := env.registerUser(t, "BookSeller99", "Password1")
	assert.NotZero(t, userID)

	// Correct password: 201 with a token whose subject is the user id.
	w := env.do(t, http.MethodPost, "/api/v1/authenticate",
		`{"username":"BookSeller99","password":"Password1"}`, "")
	require.Equal(t, http.StatusCreated, w.Code)

	var res model.AuthenticateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.NotEmpty(t, res.Token)

	subject, err := env.authSvc.VerifyToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, userID, subject)

	// Wrong password: generic 401.
	w = env.do(t, http.MethodPost, "/api/v1/authenticate",
		`{"username":"BookSeller99","password":"WrongPassword1"}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, map[string]any{"error": "Invalid username or password"}, decodeJSON(t, w))

	// Creating a book without a token: 401.
	w = env.do(t, http.MethodPost, "/api/v1/books",
		`{"book":{"title":"The Martian"},"author":{"first_name":"Andy","last_name":"Weir","age":48}}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticateMissingParams(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/authenticate", `{"password":"Password1"}`, "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, map[string]any{
		"error": "param is missing or the value is empty or invalid: username",
	}, decodeJSON(t, w))

	w = env.do(t, http.MethodPost, "/api/v1/authenticate", `{"username":"BookSeller99"}`, "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, map[string]any{
		"error": "param is missing or the value is empty or invalid: password",
	}, decodeJSON(t, w))
}

func TestAuthenticateUnknownUserSameShapeAsWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.registerUser(t, "real_user", "Password1")

	wNoUser := env.do(t, http.MethodPost, "/api/v1/authenticate", `{"username":"nosuch","password":"x"}`, "")
	wBadPass := env.do(t, http.MethodPost, "/api/v1/authenticate", `{"username":"real_user","password":"wrong"}`, "")

	assert.Equal(t, http.StatusUnauthorized, wNoUser.Code)
	assert.Equal(t, wNoUser.Code, wBadPass.Code)
	assert.JSONEq(t, wNoUser.Body.String(), wBadPass.Body.String())
}

func TestCreateUserValidationErrors(t *testing.T) {
	env := newTestEnv(t)
	env.registerUser(t, "BookSeller99", "Password1")

	w := env.do(t, http.MethodPost, "/api/v1/users",
		`{"user":{"username":"BookSeller99","password":"Password2"}}`, "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var res model.ValidationErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, []string{"Username has already been taken"}, res.Errors)

	w = env.do(t, http.MethodPost, "/api/v1/users", `{}`, "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, map[string]any{
		"error": "param is missing or the value is empty or invalid: user",
	}, decodeJSON(t, w))
}

func TestListBooks(t *testing.T) {
	env := newTestEnv(t)
	env.seedBook(t, "1984", "George", "Orwell", 46)
	env.seedBook(t, "The Great Gatsby", "H.G.", "Wells", 78)

	w := env.do(t, http.MethodGet, "/api/v1/books", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	var books []model.BookResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &books))
	require.Len(t, books, 2)
	assert.Equal(t, "1984", books[0].Title)
	assert.Equal(t, "George Orwell", books[0].AuthorName)
	assert.Equal(t, 46, books[0].AuthorAge)
	assert.Equal(t, "The Great Gatsby", books[1].Title)
	assert.Equal(t, "H.G. Wells", books[1].AuthorName)
	assert.Equal(t, 78, books[1].AuthorAge)
}

func TestListBooksPagination(t *testing.T) {
	env := newTestEnv(t)
	env.seedBook(t, "1984", "George", "Orwell", 46)
	env.seedBook(t, "The Great Gatsby", "H.G.", "Wells", 78)

	w := env.do(t, http.MethodGet, "/api/v1/books?limit=1&offset=1", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	var books []model.BookResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &books))
	require.Len(t, books, 1)
	assert.Equal(t, "The Great Gatsby", books[0].Title)

	// A limit beyond the maximum never returns more than the cap allows.
	w = env.do(t, http.MethodGet, "/api/v1/books?limit=999", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &books))
	assert.LessOrEqual(t, len(books), service.MaxPaginationLimit)
}

func TestShowBook(t *testing.T) {
	env := newTestEnv(t)
	book := env.seedBook(t, "Brave New World", "Aldous", "Huxley", 69)

	w := env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/books/%d", book.ID), "", "")
	require.Equal(t, http.StatusOK, w.Code)

	var res model.BookResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "Brave New World", res.Title)
	assert.Equal(t, "Aldous Huxley", res.AuthorName)
	assert.Equal(t, 69, res.AuthorAge)

	w = env.do(t, http.MethodGet, "/api/v1/books/999999", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, map[string]any{"error": "Book not found"}, decodeJSON(t, w))
}

func TestCreateBook(t *testing.T) {
	env := newTestEnv(t)
	userID := env.registerUser(t, "BookSeller99", "Password1")
	token := env.tokenFor(t, userID)

	w := env.do(t, http.MethodPost, "/api/v1/books",
		`{"book":{"title":"The Martian"},"author":{"first_name":"Andy","last_name":"Weir","age":"48"}}`, token)
	require.Equal(t, http.StatusCreated, w.Code)

	var res model.BookResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "The Martian", res.Title)
	assert.Equal(t, "Andy Weir", res.AuthorName)
	assert.Equal(t, 48, res.AuthorAge)
	assert.Len(t, env.bookRepo.books, 1)
	assert.Len(t, env.bookRepo.authors, 1)
}

func TestCreateBookValidation(t *testing.T) {
	env := newTestEnv(t)
	userID := env.registerUser(t, "BookSeller99", "Password1")
	token := env.tokenFor(t, userID)

	w := env.do(t, http.MethodPost, "/api/v1/books",
		`{"book":{"title":"ab"},"author":{"first_name":"Andy","last_name":"Weir","age":48}}`, token)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var res model.ValidationErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Contains(t, res.Errors, "Title is too short (minimum is 3 characters)")
	assert.Empty(t, env.bookRepo.books)
}

func TestUpdateBookAndAuthor(t *testing.T) {
	env := newTestEnv(t)
	userID := env.registerUser(t, "BookSeller99", "Password1")
	token := env.tokenFor(t, userID)
	book := env.seedBook(t, "1984", "George", "Orwell", 46)

	w := env.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/books/%d", book.ID),
		`{"book":{"title":"1984 (Updated Edition)"},"author":{"age":47}}`, token)
	require.Equal(t, http.StatusOK, w.Code)

	var res model.BookResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "1984 (Updated Edition)", res.Title)
	assert.Equal(t, "George Orwell", res.AuthorName)
	assert.Equal(t, 47, res.AuthorAge)
}

func TestUpdateRollsBackBookWhenAuthorPatchInvalid(t *testing.T) {
	env := newTestEnv(t)
	userID := env.registerUser(t, "BookSeller99", "Password1")
	token := env.tokenFor(t, userID)
	book := env.seedBook(t, "1984", "George", "Orwell", 46)

	w := env.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/books/%d", book.ID),
		`{"book":{"title":"1984 (Updated Edition)"},"author":{"age":-1}}`, token)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	stored, err := env.bookRepo.GetBookByID(context.Background(), book.ID)
	require.NoError(t, err)
	assert.Equal(t, "1984", stored.Title)
	assert.Equal(t, 46, stored.Author.Age)
}

func TestUpdateWithoutTokenIsUnauthorized(t *testing.T) {
	env := newTestEnv(t)
	book := env.seedBook(t, "1984", "George", "Orwell", 46)

	w := env.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/books/%d", book.ID),
		`{"book":{"title":"Unauthorized Edit"}}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	stored, err := env.bookRepo.GetBookByID(context.Background(), book.ID)
	require.NoError(t, err)
	assert.Equal(t, "1984", stored.Title)
}

func TestDeleteBook(t *testing.T) {
	env := newTestEnv(t)
	userID := env.registerUser(t, "BookSeller99", "Password1")
	token := env.tokenFor(t, userID)
	book := env.seedBook(t, "1984", "George", "Orwell", 46)

	w := env.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/books/%d", book.ID), "", token)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.Bytes())
	assert.Empty(t, env.bookRepo.books)

	w = env.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/books/%d", book.ID), "", token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteWithoutTokenIsUnauthorized(t *testing.T) {
	env := newTestEnv(t)
	book := env.seedBook(t, "1984", "George", "Orwell", 46)

	w := env.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/books/%d", book.ID), "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Len(t, env.bookRepo.books, 1)
}
