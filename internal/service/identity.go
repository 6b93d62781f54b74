package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/dtroode/chatdemo-server/internal/logger"
	"github.com/dtroode/chatdemo-server/internal/model"
	"github.com/dtroode/chatdemo-server/internal/sanitize"
)

// Identity owns users: lookup, registration and the demo credential check.
//
// Every account shares one demo password. This is not a security boundary.
type Identity struct {
	userStore    model.UserStore
	demoPassword string
	logger       *logger.Logger
}

func NewIdentity(userStore model.UserStore, demoPassword string, logger *logger.Logger) *Identity {
	return &Identity{
		userStore:    userStore,
		demoPassword: demoPassword,
		logger:       logger,
	}
}

// FindByEmailOrName returns the user whose email or name equals key, ignoring case.
func (i *Identity) FindByEmailOrName(ctx context.Context, key string) (model.User, error) {
	return i.userStore.FindByEmailOrName(ctx, strings.TrimSpace(key))
}

func (i *Identity) GetByID(ctx context.Context, id string) (model.User, error) {
	return i.userStore.GetByID(ctx, id)
}

func (i *Identity) List(ctx context.Context) ([]model.User, error) {
	return i.userStore.List(ctx)
}

// Register appends a new online user with a default avatar.
func (i *Identity) Register(ctx context.Context, name, email string) (model.User, error) {
	name, err := sanitize.Name(name)
	if err != nil {
		return model.User{}, err
	}
	email = strings.TrimSpace(email)
	if name == "" || email == "" {
		return model.User{}, fmt.Errorf("%w: name and email are required", model.ErrValidation)
	}

	user := model.User{
		ID:     "user-" + uuid.NewString(),
		Name:   name,
		Email:  email,
		Avatar: model.DefaultAvatar(name),
		Status: model.PresenceOnline,
	}

	created, err := i.userStore.Create(ctx, user)
	if err != nil {
		i.logger.Error("Identity service: failed to create user",
			"email", email,
			"error", err.Error())
		return model.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	i.logger.Info("Identity service: user registered",
		"user_id", created.ID,
		"email", created.Email)

	return created, nil
}

// Authenticate resolves key and checks password against the demo password.
func (i *Identity) Authenticate(ctx context.Context, key, password string) (model.User, error) {
	user, err := i.FindByEmailOrName(ctx, key)
	if errors.Is(err, model.ErrNotFound) {
		i.logger.Info("Identity service: unknown login",
			"key", key)
		return model.User{}, model.ErrInvalidCredentials
	}
	if err != nil {
		return model.User{}, fmt.Errorf("failed to find user: %w", err)
	}

	if password != i.demoPassword {
		i.logger.Info("Identity service: wrong password",
			"user_id", user.ID)
		return model.User{}, model.ErrInvalidCredentials
	}

	return user, nil
}
