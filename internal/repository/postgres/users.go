package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/arklim/capability-identity/internal/core/domain"
	"github.com/arklim/capability-identity/internal/core/port"
	"github.com/arklim/capability-identity/internal/repository"
)

type userDoc struct {
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	RegisteredAt time.Time `json:"registered_at"`
}

// UserRepository implements port.UserRepository over the users collection.
type UserRepository struct {
	coll collection
}

// NewUserRepository wires a user repository backed by the provided executor.
func NewUserRepository(exec pgExecutor) *UserRepository {
	return &UserRepository{coll: newCollection(exec, usersTable)}
}

// Create inserts a new user document.
func (r *UserRepository) Create(ctx context.Context, user domain.User) error {
	payload, err := json.Marshal(userDoc{
		Username:     user.Username,
		Email:        user.Email,
		RegisteredAt: user.RegisteredAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	return r.coll.insertOne(ctx, user.ID, payload)
}

// GetByEmail retrieves a user by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row, err := r.coll.findOne(ctx, fieldEq("email", email))
	if err != nil {
		return nil, err
	}
	return decodeUser(row)
}

// List returns all stored users.
func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	rows, err := r.coll.find(ctx, nil)
	if err != nil {
		return nil, err
	}

	users := make([]domain.User, 0, len(rows))
	for _, row := range rows {
		user, err := decodeUser(row)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}

	return users, nil
}

func decodeUser(row documentRow) (*domain.User, error) {
	var doc userDoc
	if err := json.Unmarshal(row.Payload, &doc); err != nil {
		return nil, fmt.Errorf("%w: decode user %s: %v", repository.ErrIntegrity, row.ID, err)
	}

	return &domain.User{
		ID:           row.ID,
		Username:     doc.Username,
		Email:        doc.Email,
		RegisteredAt: doc.RegisteredAt,
	}, nil
}

var _ port.UserRepository = (*UserRepository)(nil)
