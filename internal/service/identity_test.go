package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/chatdemo-server/internal/mocks"
	"github.com/dtroode/chatdemo-server/internal/model"
	"github.com/dtroode/chatdemo-server/internal/repository/memory"
	"github.com/dtroode/chatdemo-server/internal/testutil"
)

const testPassword = "user123"

func demoUsers() []model.User {
	return []model.User{
		{ID: "user-1", Name: "User 1", Email: "user1@example.com", Status: model.PresenceOnline},
		{ID: "user-2", Name: "User 2", Email: "user2@example.com", Status: model.PresenceOffline},
		{ID: "user-3", Name: "User 3", Email: "user3@example.com", Status: model.PresenceOnline},
	}
}

func TestIdentity_Authenticate(t *testing.T) {
	ctx := context.Background()
	identity := NewIdentity(memory.NewUserRepository(demoUsers()...), testPassword, testutil.MakeNoopLogger())

	tests := []struct {
		name     string
		key      string
		password string
		wantID   string
		wantErr  error
	}{
		{name: "email", key: "user1@example.com", password: testPassword, wantID: "user-1"},
		{name: "email any case", key: "USER1@Example.com", password: testPassword, wantID: "user-1"},
		{name: "name", key: "user 3", password: testPassword, wantID: "user-3"},
		{name: "surrounding spaces", key: "  user2@example.com ", password: testPassword, wantID: "user-2"},
		{name: "wrong password", key: "user1@example.com", password: "nope", wantErr: model.ErrInvalidCredentials},
		{name: "unknown user", key: "ghost@example.com", password: testPassword, wantErr: model.ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := identity.Authenticate(ctx, tt.key, tt.password)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, user.ID)
		})
	}
}

func TestIdentity_Register(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUserRepository(demoUsers()...)
	identity := NewIdentity(repo, testPassword, testutil.MakeNoopLogger())

	user, err := identity.Register(ctx, "Alice", "  alice@example.com ")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(user.ID, "user-"))
	assert.Equal(t, "Alice", user.Name)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, model.DefaultAvatar("Alice"), user.Avatar)
	assert.Equal(t, model.PresenceOnline, user.Status)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)
	assert.Equal(t, user, all[3])

	found, err := identity.FindByEmailOrName(ctx, "ALICE@EXAMPLE.COM")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	// Every account shares the demo password.
	_, err = identity.Authenticate(ctx, "alice", testPassword)
	assert.NoError(t, err)
}

func TestIdentity_Register_Validation(t *testing.T) {
	identity := NewIdentity(memory.NewUserRepository(), testPassword, testutil.MakeNoopLogger())

	tests := []struct {
		name  string
		uname string
		email string
	}{
		{name: "empty name", uname: "", email: "a@b.c"},
		{name: "blank name", uname: "   ", email: "a@b.c"},
		{name: "empty email", uname: "Bob", email: ""},
		{name: "markup only name", uname: "<b></b>", email: "a@b.c"},
		{name: "name too long", uname: strings.Repeat("é", 65), email: "a@b.c"},
		{name: "blank email", uname: "Bob", email: "  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := identity.Register(context.Background(), tt.uname, tt.email)
			assert.ErrorIs(t, err, model.ErrValidation)
		})
	}
}

func TestIdentity_Register_StoreError(t *testing.T) {
	userStore := mocks.NewUserStore(t)
	userStore.On("Create", mock.Anything, mock.AnythingOfType("model.User")).
		Return(model.User{}, errors.New("boom"))

	identity := NewIdentity(userStore, testPassword, testutil.MakeNoopLogger())

	_, err := identity.Register(context.Background(), "Bob", "bob@example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create user")
}
