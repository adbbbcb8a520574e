package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ledger/internal/model"
	"ledger/pkg/interceptor"
)

type SignupRequest struct {
	Username  string `json:"username" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
	FirstName string `json:"firstName" binding:"required,max=50"`
	LastName  string `json:"lastName" binding:"required,max=50"`
}

type SigninRequest struct {
	Username string `json:"username" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type AuthResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

type UpdateProfileRequest struct {
	Password  *string `json:"password" binding:"omitempty,min=6"`
	FirstName *string `json:"firstName" binding:"omitempty,max=50"`
	LastName  *string `json:"lastName" binding:"omitempty,max=50"`
}

type UserResponse struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Signup handles POST /api/v1/user/signup.
func (h *Handler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid data"})
		return
	}

	out, err := h.auth.Signup(c.Request.Context(), model.SignupInput{
		Username:  req.Username,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	switch {
	case errors.Is(err, model.ErrUserExists):
		c.JSON(http.StatusConflict, gin.H{"message": "user already exists"})
	case errors.Is(err, model.ErrStoreUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "store unavailable"})
	case err != nil:
		h.logger.Errorw("signup", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
	default:
		c.JSON(http.StatusCreated, AuthResponse{
			Message: "user created successfully",
			Token:   out.AccessToken,
		})
	}
}

// Signin handles POST /api/v1/user/signin.
func (h *Handler) Signin(c *gin.Context) {
	var req SigninRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid credentials"})
		return
	}

	out, err := h.auth.Login(c.Request.Context(), model.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	switch {
	case errors.Is(err, model.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid username or password"})
	case errors.Is(err, model.ErrStoreUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "store unavailable"})
	case err != nil:
		h.logger.Errorw("signin", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
	default:
		c.JSON(http.StatusOK, AuthResponse{
			Message: "user logged in successfully",
			Token:   out.AccessToken,
		})
	}
}

// Logout handles POST /api/v1/user/logout.
func (h *Handler) Logout(c *gin.Context) {
	callerID, ok := interceptor.CallerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "unauthorized"})
		return
	}
	if err := h.auth.Logout(c.Request.Context(), callerID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to logout"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// UpdateProfile handles PUT /api/v1/user.
func (h *Handler) UpdateProfile(c *gin.Context) {
	callerID, ok := interceptor.CallerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "unauthorized"})
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid data"})
		return
	}

	err := h.users.Update(c.Request.Context(), callerID, req.Password, req.FirstName, req.LastName)
	switch {
	case errors.Is(err, model.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "user not found"})
	case err != nil:
		h.logger.Errorw("update profile", "user_id", callerID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
	default:
		c.JSON(http.StatusOK, gin.H{"message": "updated successfully"})
	}
}

// SearchUsers handles GET /api/v1/user/bulk?filter=.
func (h *Handler) SearchUsers(c *gin.Context) {
	filter := c.Query("filter")

	users, err := h.users.Search(c.Request.Context(), filter)
	if err != nil {
		h.logger.Errorw("search users", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
		return
	}

	resp := make([]UserResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, UserResponse{
			ID:        u.ID,
			Username:  u.Username,
			FirstName: u.FirstName,
			LastName:  u.LastName,
		})
	}
	c.JSON(http.StatusOK, gin.H{"users": resp})
}
