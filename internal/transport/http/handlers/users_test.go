package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zaptest"

	"github.com/arklim/capability-identity/internal/core/domain"
	"github.com/arklim/capability-identity/internal/usecase"
)

func newUserRouter(t *testing.T, credentials *credentialStoreStub, catalog *catalogStoreStub) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	service := usecase.NewUserService(&userStoreStub{}, credentials, catalog, publisherStub{}, zaptest.NewLogger(t))

	requireToken := func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "authorization required"})
		}
	}
	allow := func(c *gin.Context) { c.Next() }

	r := gin.New()
	api := r.Group("/api/v1")
	protected := api.Group("")
	protected.Use(requireToken)

	NewUserHandler(service).RegisterRoutes(api, protected, allow, allow)
	return r
}

func TestSelfRegistrationIsPublicAndForcesClientRole(t *testing.T) {
	catalog := &catalogStoreStub{entries: []domain.RolePermissionEntry{
		{Role: domain.RoleClient, Permissions: []domain.PermissionCode{1}},
		{Role: domain.RoleSuperAdmin, Permissions: []domain.PermissionCode{1, 2, 3}},
	}}
	credentials := &credentialStoreStub{}
	router := newUserRouter(t, credentials, catalog)

	// No Authorization header, and the role field is ignored.
	body := `{"username":"mallory","email":"mallory@example.com","password":"sturdy-passw0rd","role":"SuperAdmin"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	credential, err := credentials.GetByUsername(context.Background(), "mallory")
	if err != nil {
		t.Fatalf("credential not created: %v", err)
	}
	if credential.Role != domain.RoleClient {
		t.Fatalf("expected Client role, got %s", credential.Role)
	}
	if !domain.SamePermissions(credential.Permissions, []domain.PermissionCode{1}) {
		t.Fatalf("expected the Client snapshot, got %v", credential.Permissions)
	}
}

func TestSelfRegistrationRejectsMissingFields(t *testing.T) {
	router := newUserRouter(t, &credentialStoreStub{}, &catalogStoreStub{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users", strings.NewReader(`{"username":"mallory"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAdminUserCreationStaysGuarded(t *testing.T) {
	credentials := &credentialStoreStub{}
	router := newUserRouter(t, credentials, &catalogStoreStub{})

	body := `{"username":"eve","email":"eve@example.com","password":"sturdy-passw0rd","role":"Admin"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/users", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a token, got %d", rec.Code)
	}
	if len(credentials.credentials) != 0 {
		t.Fatal("no credential may be created without authorization")
	}
}
