package api

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"ledger/internal/service"
	"ledger/pkg/interceptor"
)

// Handler holds the HTTP handlers for the ledger surface.
type Handler struct {
	transfers service.TransferService
	auth      service.AuthService
	users     service.UserService
	logger    *zap.SugaredLogger
}

func NewHandler(transfers service.TransferService, auth service.AuthService, users service.UserService, logger *zap.Logger) *Handler {
	return &Handler{
		transfers: transfers,
		auth:      auth,
		users:     users,
		logger:    logger.Sugar(),
	}
}

func NewRouter(h *Handler, authmw *interceptor.AuthInterceptor) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestID())

	v1 := r.Group("/api/v1")

	user := v1.Group("/user")
	user.POST("/signup", h.Signup)
	user.POST("/signin", h.Signin)

	userAuthed := user.Group("", authmw.Handler())
	userAuthed.POST("/logout", h.Logout)
	userAuthed.PUT("", h.UpdateProfile)
	userAuthed.GET("/bulk", h.SearchUsers)

	account := v1.Group("/account", authmw.Handler())
	account.GET("/balance", h.GetBalance)
	account.GET("/transactions", h.ListTransactions)
	account.POST("/transfer", h.Transfer)

	return r
}

// RequestID tags every request so log lines across the stack correlate.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("requestID", id)
		c.Writer.Header().Set("X-Request-Id", id)
		c.Next()
	}
}
