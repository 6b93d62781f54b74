package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/chatdemo-server/internal/captcha"
	"github.com/dtroode/chatdemo-server/internal/logger"
	"github.com/dtroode/chatdemo-server/internal/model"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 6

// CaptchaGenerator issues captcha codes.
type CaptchaGenerator interface {
	Generate() string
}

// MessageLog is the part of the message service the controller drives.
type MessageLog interface {
	Append(ctx context.Context, senderID string, target *model.Target, text string, attachment *model.Attachment) (model.Message, bool, error)
	ThreadFor(ctx context.Context, target model.Target, currentUserID string) ([]model.Message, error)
}

// Disconnector drops the push connections a session opened.
type Disconnector interface {
	Disconnect(sessionID string)
}

// LoginParams is a submitted login form.
type LoginParams struct {
	Key      string
	Password string
	Captcha  string
}

// RegisterParams is a submitted registration form.
type RegisterParams struct {
	Name     string
	Email    string
	Password string
	Captcha  string
}

// Session is the controller: it owns per-client sessions and routes user
// actions to the stores. Actions are applied one at a time.
type Session struct {
	mu           sync.Mutex
	sessionStore model.SessionStore
	identity     *Identity
	groups       *Groups
	messages     MessageLog
	captcha      CaptchaGenerator
	connections  Disconnector
	logger       *logger.Logger
	now          func() time.Time
}

func NewSession(
	sessionStore model.SessionStore,
	identity *Identity,
	groups *Groups,
	messages MessageLog,
	captcha CaptchaGenerator,
	connections Disconnector,
	logger *logger.Logger,
) *Session {
	return &Session{
		sessionStore: sessionStore,
		identity:     identity,
		groups:       groups,
		messages:     messages,
		captcha:      captcha,
		connections:  connections,
		logger:       logger,
		now:          time.Now,
	}
}

// Start creates a logged-out session with a fresh challenge.
func (s *Session) Start(ctx context.Context) (model.Session, error) {
	sess := model.NewSession(uuid.NewString(), s.newChallenge(), s.now())
	if err := s.sessionStore.Create(ctx, sess); err != nil {
		return model.Session{}, fmt.Errorf("failed to create session: %w", err)
	}

	s.logger.Debug("Session service: session started",
		"session_id", sess.ID)

	return sess, nil
}

func (s *Session) Get(ctx context.Context, sessionID string) (model.Session, error) {
	return s.sessionStore.GetByID(ctx, sessionID)
}

// CaptchaCode returns the code of the session's current challenge.
func (s *Session) CaptchaCode(ctx context.Context, sessionID string) (string, error) {
	sess, err := s.sessionStore.GetByID(ctx, sessionID)
	if err != nil {
		return "", err
	}
	return sess.Challenge.Code, nil
}

// RefreshCaptcha replaces the current challenge.
func (s *Session) RefreshCaptcha(ctx context.Context, sessionID string) (model.Session, error) {
	return s.apply(ctx, sessionID, func(sess model.Session) (model.Session, error) {
		return sess.WithChallenge(s.newChallenge()), nil
	})
}

// Login checks the form, consumes the challenge, then checks credentials.
// A captcha or credential failure leaves the session logged out holding a
// new challenge.
func (s *Session) Login(ctx context.Context, sessionID string, params LoginParams) (model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessionStore.GetByID(ctx, sessionID)
	if err != nil {
		return model.Session{}, err
	}
	if sess.State != model.StateLoggedOut {
		return model.Session{}, fmt.Errorf("%w: already %s", model.ErrInvalidState, sess.State)
	}
	if strings.TrimSpace(params.Key) == "" || params.Password == "" || params.Captcha == "" {
		return model.Session{}, fmt.Errorf("%w: please fill in all fields", model.ErrValidation)
	}

	sess, err = s.consumeChallenge(ctx, sess, params.Captcha)
	if err != nil {
		return model.Session{}, err
	}

	user, err := s.identity.Authenticate(ctx, params.Key, params.Password)
	if err != nil {
		return model.Session{}, err
	}

	sess, err = sess.Login(user.ID)
	if err != nil {
		return model.Session{}, err
	}
	if err := s.save(ctx, sess); err != nil {
		return model.Session{}, err
	}

	s.logger.Info("Session service: user logged in",
		"session_id", sess.ID,
		"user_id", user.ID)

	return sess, nil
}

// StartRegistration switches a logged-out session to the registration form.
func (s *Session) StartRegistration(ctx context.Context, sessionID string) (model.Session, error) {
	return s.apply(ctx, sessionID, model.Session.StartRegistration)
}

// CancelRegistration returns to the login form.
func (s *Session) CancelRegistration(ctx context.Context, sessionID string) (model.Session, error) {
	return s.apply(ctx, sessionID, model.Session.CancelRegistration)
}

// Register validates the form, consumes the challenge, registers the user
// and authenticates the session as that user.
func (s *Session) Register(ctx context.Context, sessionID string, params RegisterParams) (model.Session, model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessionStore.GetByID(ctx, sessionID)
	if err != nil {
		return model.Session{}, model.User{}, err
	}
	if sess.State != model.StateRegistering {
		return model.Session{}, model.User{}, fmt.Errorf("%w: session is %s", model.ErrInvalidState, sess.State)
	}
	if strings.TrimSpace(params.Name) == "" || strings.TrimSpace(params.Email) == "" || params.Password == "" || params.Captcha == "" {
		return model.Session{}, model.User{}, fmt.Errorf("%w: please fill in all fields", model.ErrValidation)
	}
	if len(params.Password) < MinPasswordLength {
		return model.Session{}, model.User{}, fmt.Errorf("%w: password must be at least %d characters", model.ErrValidation, MinPasswordLength)
	}

	sess, err = s.consumeChallenge(ctx, sess, params.Captcha)
	if err != nil {
		return model.Session{}, model.User{}, err
	}

	user, err := s.identity.Register(ctx, params.Name, params.Email)
	if err != nil {
		return model.Session{}, model.User{}, err
	}

	sess, err = sess.Register(user.ID)
	if err != nil {
		return model.Session{}, model.User{}, err
	}
	if err := s.save(ctx, sess); err != nil {
		return model.Session{}, model.User{}, err
	}

	return sess, user, nil
}

// Logout returns the session to logged out and clears the target.
func (s *Session) Logout(ctx context.Context, sessionID string) (model.Session, error) {
	sess, err := s.apply(ctx, sessionID, model.Session.Logout)
	if err != nil {
		return model.Session{}, err
	}
	s.disconnect(sessionID)
	return sess, nil
}

// Select makes target the active conversation. The target must exist.
func (s *Session) Select(ctx context.Context, sessionID string, target model.Target) (model.Session, error) {
	if err := s.targetExists(ctx, target); err != nil {
		return model.Session{}, err
	}
	return s.apply(ctx, sessionID, func(sess model.Session) (model.Session, error) {
		return sess.Select(target)
	})
}

// SelectTab switches the sidebar tab.
func (s *Session) SelectTab(ctx context.Context, sessionID string, tab model.Tab) (model.Session, error) {
	return s.apply(ctx, sessionID, func(sess model.Session) (model.Session, error) {
		return sess.SelectTab(tab)
	})
}

// Send appends a message from the session's user to the active target.
// Sending to a group that denies the user is refused.
func (s *Session) Send(ctx context.Context, sessionID, text string, attachment *model.Attachment) (model.Message, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.authenticated(ctx, sessionID)
	if err != nil {
		return model.Message{}, false, err
	}

	if sess.Target != nil && sess.Target.Kind == model.TargetGroup {
		group, err := s.groups.GetByID(ctx, sess.Target.ID)
		if err != nil {
			return model.Message{}, false, fmt.Errorf("failed to get group: %w", err)
		}
		if group.IsDenied(sess.UserID) {
			return model.Message{}, false, fmt.Errorf("%w: access to group denied", model.ErrForbidden)
		}
	}

	return s.messages.Append(ctx, sess.UserID, sess.Target, text, attachment)
}

// CreateGroup creates a group owned by the session's user and selects it.
func (s *Session) CreateGroup(ctx context.Context, sessionID, name string, memberIDs []string) (model.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.authenticated(ctx, sessionID)
	if err != nil {
		return model.Group{}, err
	}

	group, err := s.groups.Create(ctx, name, sess.UserID, memberIDs)
	if err != nil {
		return model.Group{}, err
	}

	sess, err = sess.Select(model.GroupTarget(group.ID))
	if err != nil {
		return model.Group{}, err
	}
	if err := s.save(ctx, sess); err != nil {
		return model.Group{}, err
	}

	return group, nil
}

// UpdateGroup applies patch to a group created by the session's user.
func (s *Session) UpdateGroup(ctx context.Context, sessionID, groupID string, patch model.GroupPatch) (model.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.authenticated(ctx, sessionID)
	if err != nil {
		return model.Group{}, err
	}
	return s.groups.UpdateAs(ctx, sess.UserID, groupID, patch)
}

// View derives what the client renders. The thread of a group that denies
// the user is never read.
func (s *Session) View(ctx context.Context, sessionID string) (model.View, error) {
	sess, err := s.sessionStore.GetByID(ctx, sessionID)
	if err != nil {
		return model.View{}, err
	}

	v := model.View{SessionID: sess.ID, State: sess.State}
	if sess.State != model.StateAuthenticated {
		return v, nil
	}
	v.Tab = sess.Tab

	user, err := s.identity.GetByID(ctx, sess.UserID)
	if err != nil {
		return model.View{}, fmt.Errorf("failed to get current user: %w", err)
	}
	v.User = &user

	if v.Friends, err = s.friends(ctx, user.ID); err != nil {
		return model.View{}, err
	}
	if v.Groups, err = s.groupSummaries(ctx, user.ID); err != nil {
		return model.View{}, err
	}

	if sess.Target == nil {
		return v, nil
	}
	target := *sess.Target
	v.Target = &target

	switch target.Kind {
	case model.TargetGroup:
		group, err := s.groups.GetByID(ctx, target.ID)
		if err != nil {
			return model.View{}, fmt.Errorf("failed to get group: %w", err)
		}
		v.Group = &group
		if group.IsDenied(user.ID) {
			v.Denied = true
			return v, nil
		}
	case model.TargetPersonal:
		peer, err := s.identity.GetByID(ctx, target.ID)
		if err != nil {
			return model.View{}, fmt.Errorf("failed to get peer: %w", err)
		}
		v.Peer = &peer
	}

	if v.Thread, err = s.messages.ThreadFor(ctx, target, user.ID); err != nil {
		return model.View{}, err
	}

	return v, nil
}

// End forgets the session. Its token stops working.
func (s *Session) End(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessionStore.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	s.disconnect(sessionID)

	s.logger.Debug("Session service: session ended",
		"session_id", sessionID)
	return nil
}

// Authenticated returns the user a session is logged in as.
func (s *Session) Authenticated(ctx context.Context, sessionID string) (model.User, error) {
	sess, err := s.authenticated(ctx, sessionID)
	if err != nil {
		return model.User{}, err
	}
	return s.identity.GetByID(ctx, sess.UserID)
}

func (s *Session) apply(ctx context.Context, sessionID string, transition func(model.Session) (model.Session, error)) (model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessionStore.GetByID(ctx, sessionID)
	if err != nil {
		return model.Session{}, err
	}
	next, err := transition(sess)
	if err != nil {
		return model.Session{}, err
	}
	if err := s.save(ctx, next); err != nil {
		return model.Session{}, err
	}
	return next, nil
}

// consumeChallenge validates input against the current challenge and
// replaces it whatever the outcome.
func (s *Session) consumeChallenge(ctx context.Context, sess model.Session, input string) (model.Session, error) {
	code := sess.Challenge.Code
	sess = sess.WithChallenge(s.newChallenge())
	if err := s.save(ctx, sess); err != nil {
		return model.Session{}, err
	}
	if !captcha.Validate(input, code) {
		s.logger.Info("Session service: captcha mismatch",
			"session_id", sess.ID)
		return sess, model.ErrCaptchaMismatch
	}
	return sess, nil
}

func (s *Session) authenticated(ctx context.Context, sessionID string) (model.Session, error) {
	sess, err := s.sessionStore.GetByID(ctx, sessionID)
	if err != nil {
		return model.Session{}, err
	}
	if sess.State != model.StateAuthenticated {
		return model.Session{}, fmt.Errorf("%w: not logged in", model.ErrInvalidState)
	}
	return sess, nil
}

func (s *Session) targetExists(ctx context.Context, target model.Target) error {
	var err error
	switch target.Kind {
	case model.TargetPersonal:
		_, err = s.identity.GetByID(ctx, target.ID)
	case model.TargetGroup:
		_, err = s.groups.GetByID(ctx, target.ID)
	default:
		return fmt.Errorf("%w: unknown target kind %q", model.ErrValidation, target.Kind)
	}
	if errors.Is(err, model.ErrNotFound) {
		return fmt.Errorf("%s %s: %w", target.Kind, target.ID, model.ErrNotFound)
	}
	return err
}

func (s *Session) friends(ctx context.Context, currentUserID string) ([]model.User, error) {
	users, err := s.identity.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	out := make([]model.User, 0, len(users))
	for _, u := range users {
		if u.ID != currentUserID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *Session) groupSummaries(ctx context.Context, currentUserID string) ([]model.GroupSummary, error) {
	groups, err := s.groups.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	out := make([]model.GroupSummary, 0, len(groups))
	for _, g := range groups {
		out = append(out, model.GroupSummary{
			Group:       g,
			MemberCount: len(g.Members),
			Joined:      g.IsMember(currentUserID),
		})
	}
	return out, nil
}

func (s *Session) disconnect(sessionID string) {
	if s.connections != nil {
		s.connections.Disconnect(sessionID)
	}
}

func (s *Session) newChallenge() model.Challenge {
	return model.Challenge{Code: s.captcha.Generate(), IssuedAt: s.now()}
}

func (s *Session) save(ctx context.Context, sess model.Session) error {
	sess.UpdatedAt = s.now()
	if err := s.sessionStore.Save(ctx, sess); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}
