package repository

import (
	"context"
	"net/url"
	"strings"

	"coursetrack/internal/model"
	"coursetrack/internal/remote"
)

// UserRepository defines the interface for interacting with the users
// resource on the data service.
type UserRepository interface {
	// FindByEmail looks a user up by exact (lowercased) email. Returns nil
	// without error when no user matches.
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	CreateUser(ctx context.Context, u *model.User) (*model.User, error)
}

type userRepo struct {
	client *remote.Client
}

// NewUserRepo creates a new UserRepository
func NewUserRepo(client *remote.Client) UserRepository {
	return &userRepo{client: client}
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	query := url.Values{"email": []string{strings.ToLower(strings.TrimSpace(email))}}
	var users []model.User
	if err := r.client.Get(ctx, "/users", query, &users); err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, nil
	}
	return &users[0], nil
}

func (r *userRepo) CreateUser(ctx context.Context, u *model.User) (*model.User, error) {
	var created model.User
	if err := r.client.Post(ctx, "/users", u, &created); err != nil {
		return nil, err
	}
	return &created, nil
}
