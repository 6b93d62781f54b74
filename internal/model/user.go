package model

import (
	"context"
	"fmt"
	"net/url"
)

// UserStore defines operations of the identity store.
type UserStore interface {
	FindByEmailOrName(ctx context.Context, key string) (User, error)
	GetByID(ctx context.Context, id string) (User, error)
	Create(ctx context.Context, user User) (User, error)
	List(ctx context.Context) ([]User, error)
}

// Presence is a user's presence status.
type Presence string

const (
	PresenceOnline  Presence = "online"
	PresenceOffline Presence = "offline"
)

// User represents a chat participant.
type User struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Email  string   `json:"email"`
	Avatar string   `json:"avatar"`
	Status Presence `json:"status"`
}

// DefaultAvatar derives the avatar reference assigned to newly registered users.
func DefaultAvatar(name string) string {
	return fmt.Sprintf("https://picsum.photos/seed/%s/200", url.PathEscape(name))
}
