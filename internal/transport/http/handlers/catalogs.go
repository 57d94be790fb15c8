package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arklim/capability-identity/internal/core/domain"
	"github.com/arklim/capability-identity/internal/usecase"
)

// CatalogHandler exposes permission catalog endpoints.
type CatalogHandler struct {
	catalog *usecase.CatalogService
	logger  *zap.Logger
}

// NewCatalogHandler constructs CatalogHandler.
func NewCatalogHandler(catalog *usecase.CatalogService, log *zap.Logger) *CatalogHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &CatalogHandler{catalog: catalog, logger: log}
}

// RegisterRoutes binds catalog routes behind the provided guard.
func (h *CatalogHandler) RegisterRoutes(r *gin.RouterGroup, importGuard gin.HandlerFunc) {
	r.GET("/catalogs", importGuard, h.list)
	r.POST("/catalogs/import", importGuard, h.importCatalog)
	r.POST("/catalogs/sync", importGuard, h.sync)
}

func (h *CatalogHandler) list(c *gin.Context) {
	entries, err := h.catalog.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "list catalog failed"))
		return
	}

	response := make([]CatalogEntryPayload, 0, len(entries))
	for _, entry := range entries {
		permissions := make([]uint32, len(entry.Permissions))
		for i, p := range entry.Permissions {
			permissions[i] = uint32(p)
		}
		response = append(response, CatalogEntryPayload{
			Role:        entry.Role.String(),
			Permissions: permissions,
		})
	}

	c.JSON(http.StatusOK, response)
}

// importCatalog replaces the catalog and immediately sweeps credential
// snapshots so the new contents take effect for future tokens.
func (h *CatalogHandler) importCatalog(c *gin.Context) {
	var req CatalogImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid catalog payload"))
		return
	}

	entries := make([]domain.RolePermissionEntry, 0, len(req.Entries))
	for _, payload := range req.Entries {
		role, err := domain.ParseRole(payload.Role)
		if err != nil {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "unknown role in catalog payload"))
			return
		}

		permissions := make([]domain.PermissionCode, len(payload.Permissions))
		for i, code := range payload.Permissions {
			permissions[i] = domain.PermissionCode(code)
		}

		entries = append(entries, domain.RolePermissionEntry{Role: role, Permissions: permissions})
	}

	if err := h.catalog.Import(c.Request.Context(), entries); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrEmptyCatalog, Status: http.StatusBadRequest, Message: "catalog import requires at least one entry"},
			{Err: usecase.ErrDuplicateRole, Status: http.StatusBadRequest, Message: "catalog import defines a role more than once"},
		}, http.StatusInternalServerError, "catalog import failed")
		return
	}

	result, err := h.catalog.Sync(c.Request.Context())
	if err != nil {
		// The import itself committed, so the request does not fail
		// outright; the failed count tells the caller the sweep has
		// credentials left to converge.
		h.logger.Warn("post-import sync incomplete", zap.Error(err))
	}

	c.JSON(http.StatusOK, toSyncResponse(result))
}

func (h *CatalogHandler) sync(c *gin.Context) {
	result, err := h.catalog.Sync(c.Request.Context())
	if err != nil {
		h.logger.Warn("catalog sync incomplete", zap.Error(err))
		c.JSON(http.StatusInternalServerError, toSyncResponse(result))
		return
	}

	c.JSON(http.StatusOK, toSyncResponse(result))
}

func toSyncResponse(result usecase.SyncResult) CatalogSyncResponse {
	return CatalogSyncResponse{
		Scanned: result.Scanned,
		Updated: result.Updated,
		Failed:  result.Failed,
	}
}
