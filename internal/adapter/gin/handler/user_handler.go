package handler

import (
	"net/http"

	"user-pool-service/internal/usecase/user"
	pkgerrors "user-pool-service/pkg/errors"
	"user-pool-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserHandler handles HTTP requests for user operations
type UserHandler struct {
	uc  user.Usecase
	log *zap.Logger
}

// NewUserHandler creates a new UserHandler instance
func NewUserHandler(uc user.Usecase, log *zap.Logger) *UserHandler {
	return &UserHandler{
		uc:  uc,
		log: log,
	}
}

// CreateUserRequest represents the HTTP request body for creating a user
type CreateUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UserResponse represents the HTTP response for user data
type UserResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// CreateUser handles POST /users
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleError(c, pkgerrors.NewValidationError("body", err.Error()))
		return
	}

	resp, err := h.uc.CreateUser(c.Request.Context(), user.CreateUserRequest{
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, UserResponse{
		ID:    resp.ID,
		Name:  resp.Name,
		Email: resp.Email,
	})
}

// ListUsers handles GET /users
func (h *UserHandler) ListUsers(c *gin.Context) {
	resp, err := h.uc.ListUsers(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	users := make([]UserResponse, len(resp))
	for i, u := range resp {
		users[i] = UserResponse{
			ID:    u.ID,
			Name:  u.Name,
			Email: u.Email,
		}
	}

	c.JSON(http.StatusOK, users)
}

// handleError converts usecase errors to appropriate HTTP responses.
// Internal error details are logged, never returned.
func (h *UserHandler) handleError(c *gin.Context, err error) {
	log := logger.WithContext(c.Request.Context(), h.log)

	status, code := pkgerrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(status, ErrorResponse{
			Error:   code,
			Message: "An internal error occurred",
		})
		return
	}

	log.Warn("request rejected", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(status, ErrorResponse{
		Error:   code,
		Message: err.Error(),
	})
}
