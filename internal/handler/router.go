package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/bookstore/backend/internal/service"
)

// NewRouter wires the HTTP surface. Reads on the catalog are public;
// mutations sit behind the auth gate.
func NewRouter(authService *service.AuthService, bookService *service.BookService, allowedOrigins []string) *gin.Engine {
	router := gin.Default()
	router.Use(RequestIDMiddleware())
	router.Use(CORSMiddleware(allowedOrigins))

	router.GET("/", Root)
	router.GET("/ping", Ping)
	router.GET("/openapi.json", OpenAPIDoc)

	authHandler := NewAuthHandler(authService)
	bookHandler := NewBookHandler(bookService)
	requireAuth := AuthMiddleware(authService)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/authenticate", authHandler.Authenticate)
		v1.POST("/users", authHandler.CreateUser)

		v1.GET("/books", bookHandler.Index)
		v1.GET("/books/:id", bookHandler.Show)
		v1.POST("/books", requireAuth, bookHandler.Create)
		v1.PATCH("/books/:id", requireAuth, bookHandler.Update)
		v1.DELETE("/books/:id", requireAuth, bookHandler.Destroy)
	}

	return router
}
