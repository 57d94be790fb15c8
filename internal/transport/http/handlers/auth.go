package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arklim/capability-identity/internal/usecase"
)

// AuthHandler exposes authentication endpoints.
type AuthHandler struct {
	auth *usecase.AuthService
	ttl  int64
}

// NewAuthHandler constructs AuthHandler. tokenTTLSeconds is reported in
// login responses; it matches the codec's configured lifetime.
func NewAuthHandler(auth *usecase.AuthService, tokenTTLSeconds int64) *AuthHandler {
	return &AuthHandler{auth: auth, ttl: tokenTTLSeconds}
}

// RegisterRoutes binds authentication routes, applying optional
// middleware ahead of the login handler.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup, loginMiddlewares ...gin.HandlerFunc) {
	chain := append([]gin.HandlerFunc{}, loginMiddlewares...)
	chain = append(chain, h.login)
	r.POST("/login", chain...)
}

func (h *AuthHandler) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid login payload"))
		return
	}

	token, credential, err := h.auth.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidCredentials, Status: http.StatusUnauthorized, Message: "invalid credentials"},
		}, http.StatusInternalServerError, "authentication failed")
		return
	}

	permissions := make([]uint32, len(credential.Permissions))
	for i, p := range credential.Permissions {
		permissions[i] = uint32(p)
	}

	c.JSON(http.StatusOK, LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   h.ttl,
		Role:        credential.Role.String(),
		Permissions: permissions,
	})
}
