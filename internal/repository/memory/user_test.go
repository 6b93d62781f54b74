package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/chatdemo-server/internal/model"
)

func TestUserRepository_FindByEmailOrName(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(
		model.User{ID: "user-1", Name: "User 1", Email: "user1@example.com"},
		model.User{ID: "user-2", Name: "Alice", Email: "alice@example.com"},
	)

	tests := []struct {
		name    string
		key     string
		wantID  string
		wantErr error
	}{
		{name: "by email", key: "user1@example.com", wantID: "user-1"},
		{name: "by email ignoring case", key: "USER1@Example.com", wantID: "user-1"},
		{name: "by name", key: "alice", wantID: "user-2"},
		{name: "partial match is not a match", key: "user1", wantErr: model.ErrNotFound},
		{name: "unknown", key: "nobody@example.com", wantErr: model.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := repo.FindByEmailOrName(ctx, tt.key)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, u.ID)
		})
	}
}

func TestUserRepository_CreateAndList(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(model.User{ID: "user-1"})

	_, err := repo.Create(ctx, model.User{ID: "user-2", Name: "Bob"})
	require.NoError(t, err)

	_, err = repo.Create(ctx, model.User{ID: "user-2", Name: "Bob again"})
	require.Error(t, err)

	users, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "user-1", users[0].ID)
	assert.Equal(t, "user-2", users[1].ID)

	got, err := repo.GetByID(ctx, "user-2")
	require.NoError(t, err)
	assert.Equal(t, "Bob", got.Name)

	_, err = repo.GetByID(ctx, "user-3")
	assert.ErrorIs(t, err, model.ErrNotFound)
}
