package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/dtroode/chatdemo-server/internal/model"
)

var _ model.UserStore = (*UserRepository)(nil)

// UserRepository keeps users in insertion order.
type UserRepository struct {
	mu    sync.RWMutex
	users []model.User
}

func NewUserRepository(seed ...model.User) *UserRepository {
	return &UserRepository{users: slices.Clone(seed)}
}

// FindByEmailOrName returns the first user whose email or name equals key, ignoring case.
func (r *UserRepository) FindByEmailOrName(_ context.Context, key string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Email, key) || strings.EqualFold(u.Name, key) {
			return u, nil
		}
	}
	return model.User{}, model.ErrNotFound
}

func (r *UserRepository) GetByID(_ context.Context, id string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return model.User{}, model.ErrNotFound
}

func (r *UserRepository) Create(_ context.Context, user model.User) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.ID == user.ID {
			return model.User{}, fmt.Errorf("failed to create user: id %s already exists", user.ID)
		}
	}
	r.users = append(r.users, user)
	return user, nil
}

func (r *UserRepository) List(_ context.Context) ([]model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Clone(r.users), nil
}
