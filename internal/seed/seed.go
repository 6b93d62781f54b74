// Package seed holds the fixed demo data loaded on every start.
package seed

import (
	"fmt"

	"github.com/dtroode/chatdemo-server/internal/model"
)

// UserCount is the number of seeded demo users.
const UserCount = 20

// Users returns user-1..user-20. Every third user is offline.
func Users() []model.User {
	users := make([]model.User, 0, UserCount)
	for i := 1; i <= UserCount; i++ {
		name := fmt.Sprintf("User %d", i)
		status := model.PresenceOnline
		if i%3 == 0 {
			status = model.PresenceOffline
		}
		users = append(users, model.User{
			ID:     fmt.Sprintf("user-%d", i),
			Name:   name,
			Email:  fmt.Sprintf("user%d@example.com", i),
			Avatar: model.DefaultAvatar(fmt.Sprintf("user%d", i)),
			Status: status,
		})
	}
	return users
}

// Groups returns the demo groups.
func Groups() []model.Group {
	return []model.Group{
		{
			ID:            "group-1",
			Name:          "General",
			CreatorID:     "user-1",
			Members:       []string{"user-1", "user-2", "user-3", "user-4", "user-5"},
			DeniedMembers: []string{},
		},
		{
			ID:            "group-2",
			Name:          "Weekend Plans",
			CreatorID:     "user-2",
			Members:       []string{"user-2", "user-3", "user-6"},
			DeniedMembers: []string{},
		},
	}
}
