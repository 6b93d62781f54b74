package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/dtroode/chatdemo-server/internal/model"
)

var _ model.GroupStore = (*GroupRepository)(nil)

// GroupRepository keeps groups in creation order. Stored groups are deep
// copies; callers never share slices with the repository.
type GroupRepository struct {
	mu     sync.RWMutex
	groups []model.Group
}

func NewGroupRepository(seed ...model.Group) *GroupRepository {
	r := &GroupRepository{}
	for _, g := range seed {
		r.groups = append(r.groups, g.Clone())
	}
	return r
}

func (r *GroupRepository) Create(_ context.Context, group model.Group) (model.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexOf(group.ID) >= 0 {
		return model.Group{}, fmt.Errorf("failed to create group: id %s already exists", group.ID)
	}
	r.groups = append(r.groups, group.Clone())
	return group.Clone(), nil
}

func (r *GroupRepository) GetByID(_ context.Context, id string) (model.Group, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexOf(id)
	if i < 0 {
		return model.Group{}, model.ErrNotFound
	}
	return r.groups[i].Clone(), nil
}

func (r *GroupRepository) Save(_ context.Context, group model.Group) (model.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(group.ID)
	if i < 0 {
		return model.Group{}, model.ErrNotFound
	}
	r.groups[i] = group.Clone()
	return group.Clone(), nil
}

func (r *GroupRepository) List(_ context.Context) ([]model.Group, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Group, 0, len(r.groups))
	for _, g := range r.groups {
		out = append(out, g.Clone())
	}
	return out, nil
}

func (r *GroupRepository) indexOf(id string) int {
	for i, g := range r.groups {
		if g.ID == id {
			return i
		}
	}
	return -1
}
