package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arklim/capability-identity/internal/transport/http/middleware"
)

// ErrorResponse is the uniform error payload for all endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse builds an error payload carrying the request trace ID.
func NewErrorResponse(c *gin.Context, message string) ErrorResponse {
	return ErrorResponse{
		Error:   message,
		TraceID: middleware.GetTraceID(c),
	}
}

// LoginRequest is the credential payload for token issuance.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse returns the issued access token.
type LoginResponse struct {
	AccessToken string   `json:"access_token"`
	TokenType   string   `json:"token_type"`
	ExpiresIn   int64    `json:"expires_in"`
	Role        string   `json:"role"`
	Permissions []uint32 `json:"permissions"`
}

// RegisterUserRequest is the payload for public self-registration. A
// role field, if sent, is ignored; self-registered users are Clients.
type RegisterUserRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// CreateUserRequest is the payload for administrative user creation.
type CreateUserRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role"`
}

// UserResponse is the public view of a user profile.
type UserResponse struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	RegisteredAt time.Time `json:"registered_at"`
}

// CatalogEntryPayload is one role to permission mapping in import
// requests and catalog listings.
type CatalogEntryPayload struct {
	Role        string   `json:"role" binding:"required"`
	Permissions []uint32 `json:"permissions"`
}

// CatalogImportRequest replaces the whole catalog.
type CatalogImportRequest struct {
	Entries []CatalogEntryPayload `json:"entries" binding:"required"`
}

// CatalogSyncResponse reports the outcome of a snapshot sweep. Failed
// counts credentials whose snapshot could not be rewritten; a sweep
// with failures is not a converged sweep.
type CatalogSyncResponse struct {
	Scanned int `json:"scanned"`
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
}

// HealthResponse reports liveness status.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}
