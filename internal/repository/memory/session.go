package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/dtroode/chatdemo-server/internal/model"
)

var _ model.SessionStore = (*SessionRepository)(nil)

type SessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]model.Session
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{sessions: map[string]model.Session{}}
}

func (r *SessionRepository) Create(_ context.Context, session model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[session.ID]; ok {
		return fmt.Errorf("failed to create session: id %s already exists", session.ID)
	}
	r.sessions[session.ID] = cloneSession(session)
	return nil
}

func (r *SessionRepository) GetByID(_ context.Context, id string) (model.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return model.Session{}, model.ErrNotFound
	}
	return cloneSession(s), nil
}

func (r *SessionRepository) Save(_ context.Context, session model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[session.ID]; !ok {
		return model.ErrNotFound
	}
	r.sessions[session.ID] = cloneSession(session)
	return nil
}

func (r *SessionRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, id)
	return nil
}

// Viewers lists, sorted and without duplicates, the users of authenticated
// sessions whose active target is target.
func (r *SessionRepository) Viewers(_ context.Context, target model.Target) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0)
	for _, s := range r.sessions {
		if s.State == model.StateAuthenticated && s.Target != nil && *s.Target == target {
			ids = append(ids, s.UserID)
		}
	}
	slices.Sort(ids)
	return slices.Compact(ids), nil
}

func cloneSession(s model.Session) model.Session {
	if s.Target != nil {
		t := *s.Target
		s.Target = &t
	}
	return s
}
