package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/bookstore/backend/internal/model"
	"github.com/bookstore/backend/internal/service"
)

type BookHandler struct {
	svc *service.BookService
}

func NewBookHandler(svc *service.BookService) *BookHandler {
	return &BookHandler{svc: svc}
}

// Index godoc
// @Summary List books
// @Tags books
// @Produce json
// @Param limit query int false "Page size, clamped to 100"
// @Param offset query int false "Records to skip"
// @Success 200 {array} model.BookResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/v1/books [get]
func (h *BookHandler) Index(c *gin.Context) {
	limit := queryInt(c, "limit", service.MaxPaginationLimit)
	offset := queryInt(c, "offset", 0)

	books, err := h.svc.List(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "server error"})
		return
	}

	c.JSON(http.StatusOK, model.RepresentBooks(books))
}

// Show godoc
// @Summary Get a book by id
// @Tags books
// @Produce json
// @Param id path int true "Book ID"
// @Success 200 {object} model.BookResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /api/v1/books/{id} [get]
func (h *BookHandler) Show(c *gin.Context) {
	bookID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, model.ErrorResponse{Error: "Book not found"})
		return
	}

	book, err := h.svc.Get(c.Request.Context(), bookID)
	if err != nil {
		writeBookError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.RepresentBook(book))
}

// Create godoc
// @Summary Create a book, finding or creating its author
// @Tags books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body model.BookRequest true "Book and author attributes"
// @Success 201 {object} model.BookResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 422 {object} model.ValidationErrorResponse
// @Router /api/v1/books [post]
func (h *BookHandler) Create(c *gin.Context) {
	var req model.BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeParamMissing(c, "book")
		return
	}
	if req.Book == nil {
		writeParamMissing(c, "book")
		return
	}
	if req.Author == nil {
		writeParamMissing(c, "author")
		return
	}

	book, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		writeBookError(c, err)
		return
	}

	c.JSON(http.StatusCreated, model.RepresentBook(book))
}

// Update godoc
// @Summary Patch a book and its author atomically
// @Tags books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Book ID"
// @Param request body model.BookRequest true "Partial book and author attributes"
// @Success 200 {object} model.BookResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Failure 422 {object} model.ValidationErrorResponse
// @Router /api/v1/books/{id} [patch]
func (h *BookHandler) Update(c *gin.Context) {
	bookID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, model.ErrorResponse{Error: "Book not found"})
		return
	}

	var req model.BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeParamMissing(c, "book")
		return
	}

	book, err := h.svc.Update(c.Request.Context(), bookID, &req)
	if err != nil {
		writeBookError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.RepresentBook(book))
}

// Destroy godoc
// @Summary Delete a book
// @Tags books
// @Produce json
// @Security BearerAuth
// @Param id path int true "Book ID"
// @Success 204
// @Failure 401 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /api/v1/books/{id} [delete]
func (h *BookHandler) Destroy(c *gin.Context) {
	bookID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, model.ErrorResponse{Error: "Book not found"})
		return
	}

	if err := h.svc.Delete(c.Request.Context(), bookID); err != nil {
		writeBookError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func writeBookError(c *gin.Context, err error) {
	var verr *model.ValidationError
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, model.ErrorResponse{Error: "Book not found"})
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, model.ValidationErrorResponse{Errors: verr.Messages})
	default:
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "server error"})
	}
}

func queryInt(c *gin.Context, name string, fallback int) int {
	if val, err := strconv.Atoi(c.Query(name)); err == nil {
		return val
	}
	return fallback
}
