package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bookstore/backend/internal/model"
	"github.com/bookstore/backend/internal/service"
)

type AuthHandler struct {
	svc *service.AuthService
}

func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// Authenticate godoc
// @Summary Exchange credentials for a bearer token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body model.AuthenticateRequest true "Username and password"
// @Success 201 {object} model.AuthenticateResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 422 {object} model.ErrorResponse
// @Router /api/v1/authenticate [post]
func (h *AuthHandler) Authenticate(c *gin.Context) {
	var req model.AuthenticateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeParamMissing(c, "username")
		return
	}
	if req.Username == nil || *req.Username == "" {
		writeParamMissing(c, "username")
		return
	}
	if req.Password == nil || *req.Password == "" {
		writeParamMissing(c, "password")
		return
	}

	user, err := h.svc.Authenticate(c.Request.Context(), *req.Username, *req.Password)
	if err != nil {
		if errors.Is(err, service.ErrUnauthorized) {
			c.JSON(http.StatusUnauthorized, model.ErrorResponse{Error: "Invalid username or password"})
			return
		}
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "server error"})
		return
	}

	token, err := h.svc.IssueToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "server error"})
		return
	}

	c.JSON(http.StatusCreated, model.AuthenticateResponse{Token: token})
}

// CreateUser godoc
// @Summary Register a new user
// @Tags users
// @Accept json
// @Produce json
// @Param request body model.CreateUserRequest true "Username and password"
// @Success 201 {object} model.UserResponse
// @Failure 422 {object} model.ValidationErrorResponse
// @Router /api/v1/users [post]
func (h *AuthHandler) CreateUser(c *gin.Context) {
	var req model.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeParamMissing(c, "user")
		return
	}
	if req.User == nil {
		writeParamMissing(c, "user")
		return
	}

	user, err := h.svc.Register(c.Request.Context(), req.User.Username, req.User.Password)
	if err != nil {
		var verr *model.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusUnprocessableEntity, model.ValidationErrorResponse{Errors: verr.Messages})
			return
		}
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "server error"})
		return
	}

	c.JSON(http.StatusCreated, model.UserResponse{ID: user.ID, Username: user.Username})
}

func writeParamMissing(c *gin.Context, param string) {
	c.JSON(http.StatusUnprocessableEntity, model.ErrorResponse{
		Error: "param is missing or the value is empty or invalid: " + param,
	})
}
