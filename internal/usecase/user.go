package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arklim/capability-identity/internal/core/domain"
	"github.com/arklim/capability-identity/internal/core/port"
	"github.com/arklim/capability-identity/internal/infra/logger"
	"github.com/arklim/capability-identity/internal/infra/security"
	"github.com/arklim/capability-identity/internal/repository"
)

var (
	// ErrUsernameTaken indicates a credential already exists for the
	// requested username.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrEmailTaken indicates a credential already exists for the
	// requested email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrWeakPassword mirrors the security package policy error so
	// transport code depends on the usecase layer only.
	ErrWeakPassword = security.ErrWeakPassword
	// ErrRegistrationConflict indicates a concurrent registration claimed
	// the username or email first, but the colliding field could not be
	// identified afterwards.
	ErrRegistrationConflict = errors.New("user registration conflict")
)

// RegisterInput carries the fields needed to create a user.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Role     domain.Role
}

// UserService creates and lists users. Every new credential receives a
// permission snapshot taken from the catalog at creation time.
type UserService struct {
	users       port.UserRepository
	credentials port.CredentialRepository
	catalog     port.CatalogRepository
	events      port.EventPublisher
	logger      *zap.Logger
	now         func() time.Time
}

// NewUserService constructs a UserService instance.
func NewUserService(
	users port.UserRepository,
	credentials port.CredentialRepository,
	catalog port.CatalogRepository,
	events port.EventPublisher,
	log *zap.Logger,
) *UserService {
	return &UserService{
		users:       users,
		credentials: credentials,
		catalog:     catalog,
		events:      events,
		logger:      log,
		now:         time.Now,
	}
}

// WithClock overrides the time source, used by tests.
func (s *UserService) WithClock(now func() time.Time) *UserService {
	s.now = now
	return s
}

// Register creates a user and its credential. The credential's
// permission snapshot is the catalog entry for the requested role at
// this moment; later catalog changes reach it only through sync.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.ToLower(strings.TrimSpace(input.Email))

	if username == "" {
		return nil, fmt.Errorf("username is required")
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("valid email is required")
	}

	role := input.Role
	if role == "" {
		role = domain.RoleClient
	}

	if err := security.ValidatePassword(input.Password, username, email); err != nil {
		return nil, err
	}

	if _, err := s.credentials.GetByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("check username: %w", err)
	}

	if _, err := s.credentials.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("check email: %w", err)
	}

	permissions, err := s.snapshotPermissions(ctx, role)
	if err != nil {
		return nil, err
	}

	hash, err := security.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	registeredAt := s.now().UTC()
	user := domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		RegisteredAt: registeredAt,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, s.classifyConflict(ctx, username, email)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	credential := domain.Credential{
		ID:           uuid.NewString(),
		UserID:       user.ID,
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Permissions:  permissions,
	}

	if err := s.credentials.Create(ctx, credential); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, s.classifyConflict(ctx, username, email)
		}
		return nil, fmt.Errorf("create credential: %w", err)
	}

	event := domain.UserRegisteredEvent{
		EventID:      uuid.NewString(),
		UserID:       user.ID,
		Username:     username,
		Email:        email,
		Role:         role,
		RegisteredAt: registeredAt,
	}
	if err := s.events.PublishUserRegistered(ctx, event); err != nil {
		s.logger.Warn("publish user registered event failed",
			zap.String("user_id", user.ID),
			zap.String("email", logger.MaskEmail(email)),
			zap.Error(err),
		)
	}

	return &user, nil
}

// List returns every user profile.
func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// classifyConflict resolves which unique field a storage conflict raced
// on. Both fields were free moments earlier, so whichever one now
// resolves identifies the collision.
func (s *UserService) classifyConflict(ctx context.Context, username, email string) error {
	if _, err := s.credentials.GetByUsername(ctx, username); err == nil {
		return ErrUsernameTaken
	}
	if _, err := s.credentials.GetByEmail(ctx, email); err == nil {
		return ErrEmailTaken
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return ErrEmailTaken
	}
	return ErrRegistrationConflict
}

// snapshotPermissions resolves the catalog entry for the role. A role
// with no catalog entry yields the empty set.
func (s *UserService) snapshotPermissions(ctx context.Context, role domain.Role) ([]domain.PermissionCode, error) {
	entry, err := s.catalog.GetByRole(ctx, role)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("resolve catalog entry for %s: %w", role, err)
	}
	return entry.Permissions, nil
}
