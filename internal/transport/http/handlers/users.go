package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arklim/capability-identity/internal/core/domain"
	"github.com/arklim/capability-identity/internal/usecase"
)

// UserHandler exposes user management endpoints.
type UserHandler struct {
	users *usecase.UserService
}

// NewUserHandler constructs UserHandler.
func NewUserHandler(users *usecase.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// RegisterRoutes binds user routes. Self-registration is open to
// anyone and always yields a Client; elevated roles are only assignable
// through the guarded admin route.
func (h *UserHandler) RegisterRoutes(public, protected *gin.RouterGroup, readGuard, createGuard gin.HandlerFunc) {
	public.POST("/users", h.register)
	protected.GET("/users", readGuard, h.list)
	protected.POST("/admin/users", createGuard, h.create)
}

func (h *UserHandler) register(c *gin.Context) {
	var req RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid user payload"))
		return
	}

	h.registerWithRole(c, usecase.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     domain.RoleClient,
	})
}

func (h *UserHandler) create(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid user payload"))
		return
	}

	role := domain.RoleClient
	if req.Role != "" {
		parsed, err := domain.ParseRole(req.Role)
		if err != nil {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "unknown role"))
			return
		}
		role = parsed
	}

	h.registerWithRole(c, usecase.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     role,
	})
}

func (h *UserHandler) registerWithRole(c *gin.Context, input usecase.RegisterInput) {
	user, err := h.users.Register(c.Request.Context(), input)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrUsernameTaken, Status: http.StatusConflict, Message: "username already taken"},
			{Err: usecase.ErrEmailTaken, Status: http.StatusConflict, Message: "email already registered"},
			{Err: usecase.ErrRegistrationConflict, Status: http.StatusConflict, Message: "user already exists"},
			{Err: usecase.ErrWeakPassword, Status: http.StatusBadRequest, Message: "password does not meet strength requirements"},
		}, http.StatusInternalServerError, "user creation failed")
		return
	}

	c.JSON(http.StatusCreated, toUserResponse(*user))
}

func (h *UserHandler) list(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "list users failed"))
		return
	}

	response := make([]UserResponse, 0, len(users))
	for _, user := range users {
		response = append(response, toUserResponse(user))
	}

	c.JSON(http.StatusOK, response)
}

func toUserResponse(user domain.User) UserResponse {
	return UserResponse{
		ID:           user.ID,
		Username:     user.Username,
		Email:        user.Email,
		RegisteredAt: user.RegisteredAt,
	}
}
