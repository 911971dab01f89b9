package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/library/internal/auth"
	"github.com/mrlokans/library/internal/entities"
	"github.com/mrlokans/library/internal/logging"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	router := gin.New()
	router.Use(logging.GinMiddleware(logger))
	router.Use(gin.Recovery())

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())
	router.Use(auth.StrictTransportSecurityMiddleware())
	if cfg.CORSAllowedOrigin != "" {
		router.Use(corsMiddleware(cfg.CORSAllowedOrigin))
	}

	if cfg.Maintenance != nil {
		router.Use(cfg.Maintenance.Handler())
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
	})

	health := NewHealthController(cfg.Database, cfg.Version)
	router.GET("/health", health.Status)

	// Everything under /api requires a bearer token except login. The
	// middleware is attached to the group so unknown routes still 404.
	api := router.Group("/api")
	api.Use(cfg.AuthMiddleware.Handler())
	librarian := cfg.AuthMiddleware.RequireRole(entities.UserRoleLibrarian)

	authController := NewAuthController(cfg.AuthService, cfg.RateLimiter)
	api.POST("/auth/login", authController.Login)
	api.POST("/auth/logout", authController.Logout)
	api.GET("/auth/me", authController.Me)

	usersController := NewUsersController(cfg.AuthService)
	api.POST("/users/change-password", usersController.ChangePassword)
	api.POST("/users/:userId/reset-password", librarian, usersController.ResetPassword)

	// Books API endpoints
	booksController := NewBooksController(cfg.Catalog)
	api.GET("/books", booksController.GetAllBooks)
	api.GET("/books/search", booksController.SearchBooks)
	api.GET("/books/:id", booksController.GetBook)
	api.POST("/books", librarian, booksController.CreateBook)
	api.PUT("/books/:id", librarian, booksController.UpdateBook)
	api.DELETE("/books/:id", librarian, booksController.DeleteBook)

	// Members API endpoints; per-member access is decided by the service
	membersController := NewMembersController(cfg.Membership)
	api.POST("/members", librarian, membersController.CreateMember)
	api.GET("/members", librarian, membersController.ListMembers)
	api.GET("/members/:id", membersController.GetMember)
	api.GET("/members/:id/history", membersController.GetHistory)
	api.DELETE("/members/:id", librarian, membersController.DeleteMember)

	// Lending endpoints
	borrowController := NewBorrowController(cfg.Lending)
	api.POST("/borrow/issue", librarian, borrowController.IssueBook)
	api.POST("/borrow/return", librarian, borrowController.ReturnBook)
	api.GET("/borrow", borrowController.ListRecords)

	if cfg.Audit != nil {
		auditController := NewAuditController(cfg.Audit)
		api.GET("/audit", librarian, auditController.GetAuditEvents)
	}

	// Task management endpoints
	if cfg.TaskQueue != nil {
		tasksController := NewTasksController(cfg.TaskQueue)
		api.GET("/tasks/types", librarian, tasksController.ListTaskTypes)
		api.GET("/tasks/:id", librarian, tasksController.GetTaskStatus)
		api.POST("/tasks/:type/run", librarian, tasksController.RunTask)
	}

	return router
}
