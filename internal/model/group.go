package model

import (
	"context"
	"slices"
)

// GroupStore defines persistence operations for groups.
type GroupStore interface {
	Create(ctx context.Context, group Group) (Group, error)
	GetByID(ctx context.Context, id string) (Group, error)
	Save(ctx context.Context, group Group) (Group, error)
	List(ctx context.Context) ([]Group, error)
}

// Group is a named set of members with a deny-list.
//
// The creator is always a member and never denied.
type Group struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	CreatorID     string   `json:"creator_id"`
	Members       []string `json:"members"`
	DeniedMembers []string `json:"denied_members"`
}

// GroupPatch carries a partial group update. Nil fields are left unchanged.
type GroupPatch struct {
	Name          *string   `json:"name,omitempty"`
	Members       *[]string `json:"members,omitempty"`
	DeniedMembers *[]string `json:"denied_members,omitempty"`
}

// IsDenied reports whether userID is on the group's deny-list.
func (g Group) IsDenied(userID string) bool {
	return slices.Contains(g.DeniedMembers, userID)
}

// IsMember reports whether userID is in the group's member set.
func (g Group) IsMember(userID string) bool {
	return slices.Contains(g.Members, userID)
}

// Clone returns a deep copy so callers can't alias store-owned slices.
func (g Group) Clone() Group {
	g.Members = slices.Clone(g.Members)
	g.DeniedMembers = slices.Clone(g.DeniedMembers)
	return g
}
