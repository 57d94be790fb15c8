package migration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/arklim/capability-identity/internal/core/domain"
	"github.com/arklim/capability-identity/internal/core/port"
	"github.com/arklim/capability-identity/internal/infra/config"
	"github.com/arklim/capability-identity/internal/infra/security"
)

// SeedStepName identifies the bootstrap step that installs the initial
// permission catalog and the administrator account.
const SeedStepName = "create_admin_and_relationships"

type catalogDefinition struct {
	Role        string   `json:"role"`
	Permissions []uint32 `json:"permissions"`
}

type adminDefinition struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SeedDependencies collects the collaborators the bootstrap step writes
// through.
type SeedDependencies struct {
	Users       port.UserRepository
	Credentials port.CredentialRepository
	Catalog     port.CatalogRepository
}

// NewSeedStep builds the bootstrap step. It reads the catalog and admin
// definitions from the configured paths, installs every catalog entry,
// and creates the administrator with a SuperAdmin permission snapshot.
// The ledger guarantees it runs at most once; the step itself does not
// tolerate partial re-runs.
func NewSeedStep(deps SeedDependencies, cfg config.CatalogSettings, now func() time.Time) Step {
	if now == nil {
		now = time.Now
	}

	return Step{
		Name: SeedStepName,
		Apply: func(ctx context.Context) error {
			entries, err := loadCatalogDefinitions(cfg.DefinitionsPath)
			if err != nil {
				return err
			}

			admin, err := loadAdminDefinition(cfg.AdminPath)
			if err != nil {
				return err
			}

			if err := deps.Catalog.InsertMany(ctx, entries); err != nil {
				return fmt.Errorf("install catalog entries: %w", err)
			}

			adminPerms := permissionsForRole(entries, domain.RoleSuperAdmin)

			hash, err := security.HashPassword(admin.Password)
			if err != nil {
				return fmt.Errorf("hash admin password: %w", err)
			}

			registeredAt := now().UTC()
			user := domain.User{
				ID:           uuid.NewString(),
				Username:     admin.Username,
				Email:        admin.Email,
				RegisteredAt: registeredAt,
			}
			if err := deps.Users.Create(ctx, user); err != nil {
				return fmt.Errorf("create admin user: %w", err)
			}

			credential := domain.Credential{
				ID:           uuid.NewString(),
				UserID:       user.ID,
				Username:     admin.Username,
				Email:        admin.Email,
				PasswordHash: hash,
				Role:         domain.RoleSuperAdmin,
				Permissions:  adminPerms,
			}
			if err := deps.Credentials.Create(ctx, credential); err != nil {
				return fmt.Errorf("create admin credential: %w", err)
			}

			return nil
		},
	}
}

func loadCatalogDefinitions(path string) ([]domain.RolePermissionEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog definitions %s: %w", path, err)
	}

	var defs []catalogDefinition
	if err := json.Unmarshal(raw, &defs); err != nil {
		return nil, fmt.Errorf("decode catalog definitions %s: %w", path, err)
	}
	if len(defs) == 0 {
		return nil, fmt.Errorf("catalog definitions %s: no entries", path)
	}

	seen := make(map[domain.Role]struct{}, len(defs))
	entries := make([]domain.RolePermissionEntry, 0, len(defs))
	for _, def := range defs {
		role, err := domain.ParseRole(def.Role)
		if err != nil {
			return nil, fmt.Errorf("catalog definitions %s: %w", path, err)
		}
		if _, ok := seen[role]; ok {
			return nil, fmt.Errorf("catalog definitions %s: duplicate role %s", path, role)
		}
		seen[role] = struct{}{}

		perms := make([]domain.PermissionCode, len(def.Permissions))
		for i, code := range def.Permissions {
			perms[i] = domain.PermissionCode(code)
		}

		entries = append(entries, domain.RolePermissionEntry{Role: role, Permissions: perms})
	}

	return entries, nil
}

func loadAdminDefinition(path string) (*adminDefinition, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read admin definition %s: %w", path, err)
	}

	var admin adminDefinition
	if err := json.Unmarshal(raw, &admin); err != nil {
		return nil, fmt.Errorf("decode admin definition %s: %w", path, err)
	}

	if admin.Username == "" || admin.Email == "" || admin.Password == "" {
		return nil, errors.New("admin definition requires username, email and password")
	}

	return &admin, nil
}

func permissionsForRole(entries []domain.RolePermissionEntry, role domain.Role) []domain.PermissionCode {
	for _, entry := range entries {
		if entry.Role == role {
			return entry.Permissions
		}
	}
	return nil
}
