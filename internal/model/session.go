package model

import (
	"context"
	"fmt"
	"time"
)

// SessionStore keeps ephemeral client sessions.
type SessionStore interface {
	Create(ctx context.Context, session Session) error
	GetByID(ctx context.Context, id string) (Session, error)
	Save(ctx context.Context, session Session) error
	Delete(ctx context.Context, id string) error
}

// AuthState is the session's position in the authentication state machine.
type AuthState string

const (
	StateLoggedOut     AuthState = "logged_out"
	StateRegistering   AuthState = "registering"
	StateAuthenticated AuthState = "authenticated"
)

// Tab is the sidebar view mode.
type Tab string

const (
	TabPersonal Tab = "personal"
	TabGroup    Tab = "group"
)

// Challenge is a single-use captcha code.
type Challenge struct {
	Code     string    `json:"-"`
	IssuedAt time.Time `json:"issued_at"`
}

// Session is the per-client application state. Transitions are value
// methods returning the next state; the receiver is never mutated.
type Session struct {
	ID        string
	State     AuthState
	UserID    string
	Target    *Target
	Tab       Tab
	Challenge Challenge
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewSession returns a logged-out session holding the given challenge.
func NewSession(id string, challenge Challenge, now time.Time) Session {
	return Session{
		ID:        id,
		State:     StateLoggedOut,
		Tab:       TabPersonal,
		Challenge: challenge,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s Session) require(state AuthState) error {
	if s.State != state {
		return fmt.Errorf("%w: session is %s, want %s", ErrInvalidState, s.State, state)
	}
	return nil
}

// Login moves a logged-out session to authenticated as userID.
func (s Session) Login(userID string) (Session, error) {
	if err := s.require(StateLoggedOut); err != nil {
		return s, err
	}
	s.State = StateAuthenticated
	s.UserID = userID
	return s, nil
}

// StartRegistration moves a logged-out session to the registration form.
func (s Session) StartRegistration() (Session, error) {
	if err := s.require(StateLoggedOut); err != nil {
		return s, err
	}
	s.State = StateRegistering
	return s, nil
}

// CancelRegistration returns from the registration form to logged out.
func (s Session) CancelRegistration() (Session, error) {
	if err := s.require(StateRegistering); err != nil {
		return s, err
	}
	s.State = StateLoggedOut
	return s, nil
}

// Register completes registration and authenticates as the new userID.
func (s Session) Register(userID string) (Session, error) {
	if err := s.require(StateRegistering); err != nil {
		return s, err
	}
	s.State = StateAuthenticated
	s.UserID = userID
	return s, nil
}

// Logout clears the identity and the active target.
func (s Session) Logout() (Session, error) {
	if err := s.require(StateAuthenticated); err != nil {
		return s, err
	}
	s.State = StateLoggedOut
	s.UserID = ""
	s.Target = nil
	return s, nil
}

// Select sets the active conversation target.
func (s Session) Select(target Target) (Session, error) {
	if err := s.require(StateAuthenticated); err != nil {
		return s, err
	}
	if !target.Kind.Valid() || target.ID == "" {
		return s, fmt.Errorf("%w: invalid target", ErrValidation)
	}
	s.Target = &target
	return s, nil
}

// SelectTab switches the sidebar tab.
func (s Session) SelectTab(tab Tab) (Session, error) {
	if err := s.require(StateAuthenticated); err != nil {
		return s, err
	}
	if tab != TabPersonal && tab != TabGroup {
		return s, fmt.Errorf("%w: unknown tab %q", ErrValidation, tab)
	}
	s.Tab = tab
	return s, nil
}

// WithChallenge replaces the captcha challenge.
func (s Session) WithChallenge(c Challenge) Session {
	s.Challenge = c
	return s
}
