package service

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/dtroode/chatdemo-server/internal/logger"
	"github.com/dtroode/chatdemo-server/internal/model"
	"github.com/dtroode/chatdemo-server/internal/sanitize"
)

// Groups is the group registry.
type Groups struct {
	groupStore model.GroupStore
	logger     *logger.Logger
}

func NewGroups(groupStore model.GroupStore, logger *logger.Logger) *Groups {
	return &Groups{groupStore: groupStore, logger: logger}
}

// Create stores a group whose members are the creator followed by memberIDs,
// duplicates collapsed. The deny-list starts empty.
func (g *Groups) Create(ctx context.Context, name, creatorID string, memberIDs []string) (model.Group, error) {
	name, err := sanitize.Name(name)
	if err != nil {
		return model.Group{}, err
	}
	if name == "" {
		return model.Group{}, fmt.Errorf("%w: group name is required", model.ErrValidation)
	}
	if creatorID == "" {
		return model.Group{}, fmt.Errorf("%w: creator is required", model.ErrValidation)
	}

	group := model.Group{
		ID:            "group-" + uuid.NewString(),
		Name:          name,
		CreatorID:     creatorID,
		Members:       withCreator(creatorID, memberIDs),
		DeniedMembers: []string{},
	}

	created, err := g.groupStore.Create(ctx, group)
	if err != nil {
		return model.Group{}, fmt.Errorf("failed to create group: %w", err)
	}

	g.logger.Info("Groups service: group created",
		"group_id", created.ID,
		"creator_id", creatorID,
		"members", len(created.Members))

	return created, nil
}

// Update merges patch into the group. Invariants are coerced, not rejected:
// the creator is forced into the members and out of the deny-list.
func (g *Groups) Update(ctx context.Context, groupID string, patch model.GroupPatch) (model.Group, error) {
	group, err := g.groupStore.GetByID(ctx, groupID)
	if err != nil {
		return model.Group{}, fmt.Errorf("failed to get group: %w", err)
	}

	group, err = applyPatch(group, patch)
	if err != nil {
		return model.Group{}, err
	}

	saved, err := g.groupStore.Save(ctx, group)
	if err != nil {
		return model.Group{}, fmt.Errorf("failed to save group: %w", err)
	}

	g.logger.Info("Groups service: group updated",
		"group_id", saved.ID,
		"members", len(saved.Members),
		"denied", len(saved.DeniedMembers))

	return saved, nil
}

// UpdateAs is Update restricted to the group's creator.
func (g *Groups) UpdateAs(ctx context.Context, actorID, groupID string, patch model.GroupPatch) (model.Group, error) {
	group, err := g.groupStore.GetByID(ctx, groupID)
	if err != nil {
		return model.Group{}, fmt.Errorf("failed to get group: %w", err)
	}
	if group.CreatorID != actorID {
		g.logger.Info("Groups service: update by non-creator refused",
			"group_id", groupID,
			"actor_id", actorID)
		return model.Group{}, fmt.Errorf("%w: only the creator can edit a group", model.ErrForbidden)
	}
	return g.Update(ctx, groupID, patch)
}

func (g *Groups) GetByID(ctx context.Context, id string) (model.Group, error) {
	return g.groupStore.GetByID(ctx, id)
}

func (g *Groups) List(ctx context.Context) ([]model.Group, error) {
	return g.groupStore.List(ctx)
}

// IsDenied reports whether userID is on the group's deny-list.
func (g *Groups) IsDenied(group model.Group, userID string) bool {
	return group.IsDenied(userID)
}

func applyPatch(group model.Group, patch model.GroupPatch) (model.Group, error) {
	if patch.Name != nil {
		name, err := sanitize.Name(*patch.Name)
		if err != nil {
			return model.Group{}, err
		}
		if name == "" {
			return model.Group{}, fmt.Errorf("%w: group name is required", model.ErrValidation)
		}
		group.Name = name
	}
	if patch.Members != nil {
		group.Members = dedupe(*patch.Members)
	}
	if patch.DeniedMembers != nil {
		group.DeniedMembers = dedupe(*patch.DeniedMembers)
	}

	if !slices.Contains(group.Members, group.CreatorID) {
		group.Members = append([]string{group.CreatorID}, group.Members...)
	}
	group.DeniedMembers = slices.DeleteFunc(group.DeniedMembers, func(id string) bool {
		return id == group.CreatorID
	})
	if group.DeniedMembers == nil {
		group.DeniedMembers = []string{}
	}

	return group, nil
}

func withCreator(creatorID string, memberIDs []string) []string {
	return dedupe(append([]string{creatorID}, memberIDs...))
}

// dedupe drops empty and repeated ids, keeping first occurrences in order.
func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
