package handler

import (
	"context"
	"fmt"
	"image"
	"net/http"

	"github.com/dtroode/chatdemo-server/internal/captcha"
	"github.com/dtroode/chatdemo-server/internal/logger"
	"github.com/dtroode/chatdemo-server/internal/model"
	"github.com/dtroode/chatdemo-server/internal/service"
)

// CaptchaRenderer draws a challenge code.
type CaptchaRenderer interface {
	Render(code string) image.Image
}

type startSessionResponse struct {
	Token string     `json:"token"`
	View  model.View `json:"view"`
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
	Captcha  string `json:"captcha"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Captcha  string `json:"captcha"`
}

type selectTabRequest struct {
	Tab model.Tab `json:"tab"`
}

// Session serves the authentication flow and the derived view.
type Session struct {
	sessionService *service.Session
	tokenManager   model.TokenManager
	contextManager model.ContextManager
	renderer       CaptchaRenderer
	logger         *logger.Logger
}

func NewSession(
	sessionService *service.Session,
	tokenManager model.TokenManager,
	contextManager model.ContextManager,
	renderer CaptchaRenderer,
	logger *logger.Logger,
) *Session {
	return &Session{
		sessionService: sessionService,
		tokenManager:   tokenManager,
		contextManager: contextManager,
		renderer:       renderer,
		logger:         logger,
	}
}

// Start opens a logged-out session and returns its bearer token.
func (h *Session) Start(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sess, err := h.sessionService.Start(ctx)
	if err != nil {
		h.logger.Error("Session handler: failed to start session", "error", err.Error())
		writeError(w, err)
		return
	}

	token, err := h.tokenManager.GenerateSessionToken(sess.ID)
	if err != nil {
		h.logger.Error("Session handler: failed to issue token", "error", err.Error())
		writeError(w, fmt.Errorf("failed to issue token: %w", err))
		return
	}

	view, err := h.sessionService.View(ctx, sess.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, startSessionResponse{Token: token, View: view})
}

func (h *Session) View(w http.ResponseWriter, r *http.Request) {
	h.respondView(w, r, http.StatusOK, func(context.Context, string) error { return nil })
}

// Captcha renders the current challenge as PNG.
func (h *Session) Captcha(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.contextManager.GetSessionIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing session"})
		return
	}

	code, err := h.sessionService.CaptchaCode(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := captcha.EncodePNG(w, h.renderer.Render(code)); err != nil {
		h.logger.Error("Session handler: failed to encode captcha", "error", err.Error())
	}
}

func (h *Session) RefreshCaptcha(w http.ResponseWriter, r *http.Request) {
	h.respondView(w, r, http.StatusOK, func(ctx context.Context, id string) error {
		_, err := h.sessionService.RefreshCaptcha(ctx, id)
		return err
	})
}

func (h *Session) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, fmt.Errorf("%w: %w", model.ErrValidation, err))
		return
	}

	h.respondView(w, r, http.StatusOK, func(ctx context.Context, id string) error {
		_, err := h.sessionService.Login(ctx, id, service.LoginParams{
			Key:      req.Login,
			Password: req.Password,
			Captcha:  req.Captcha,
		})
		return err
	})
}

func (h *Session) StartRegistration(w http.ResponseWriter, r *http.Request) {
	h.respondView(w, r, http.StatusOK, func(ctx context.Context, id string) error {
		_, err := h.sessionService.StartRegistration(ctx, id)
		return err
	})
}

func (h *Session) CancelRegistration(w http.ResponseWriter, r *http.Request) {
	h.respondView(w, r, http.StatusOK, func(ctx context.Context, id string) error {
		_, err := h.sessionService.CancelRegistration(ctx, id)
		return err
	})
}

func (h *Session) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, fmt.Errorf("%w: %w", model.ErrValidation, err))
		return
	}

	h.respondView(w, r, http.StatusCreated, func(ctx context.Context, id string) error {
		_, _, err := h.sessionService.Register(ctx, id, service.RegisterParams{
			Name:     req.Name,
			Email:    req.Email,
			Password: req.Password,
			Captcha:  req.Captcha,
		})
		return err
	})
}

func (h *Session) Logout(w http.ResponseWriter, r *http.Request) {
	h.respondView(w, r, http.StatusOK, func(ctx context.Context, id string) error {
		_, err := h.sessionService.Logout(ctx, id)
		return err
	})
}

// End drops the session behind the token.
func (h *Session) End(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessionID, ok := h.contextManager.GetSessionIDFromContext(ctx)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing session"})
		return
	}

	if err := h.sessionService.End(ctx, sessionID); err != nil {
		h.logger.Error("Session handler: failed to end session",
			"session_id", sessionID,
			"error", err.Error())
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Session) SelectTarget(w http.ResponseWriter, r *http.Request) {
	var target model.Target
	if err := decodeJSON(r, &target); err != nil {
		writeError(w, fmt.Errorf("%w: %w", model.ErrValidation, err))
		return
	}

	h.respondView(w, r, http.StatusOK, func(ctx context.Context, id string) error {
		_, err := h.sessionService.Select(ctx, id, target)
		return err
	})
}

func (h *Session) SelectTab(w http.ResponseWriter, r *http.Request) {
	var req selectTabRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, fmt.Errorf("%w: %w", model.ErrValidation, err))
		return
	}

	h.respondView(w, r, http.StatusOK, func(ctx context.Context, id string) error {
		_, err := h.sessionService.SelectTab(ctx, id, req.Tab)
		return err
	})
}

// respondView runs action on the caller's session and answers with the
// resulting view.
func (h *Session) respondView(w http.ResponseWriter, r *http.Request, status int, action func(ctx context.Context, sessionID string) error) {
	ctx := r.Context()

	sessionID, ok := h.contextManager.GetSessionIDFromContext(ctx)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing session"})
		return
	}

	if err := action(ctx, sessionID); err != nil {
		h.logger.Debug("Session handler: action rejected",
			"session_id", sessionID,
			"path", r.URL.Path,
			"error", err.Error())
		writeError(w, err)
		return
	}

	view, err := h.sessionService.View(ctx, sessionID)
	if err != nil {
		h.logger.Error("Session handler: failed to build view",
			"session_id", sessionID,
			"error", err.Error())
		writeError(w, err)
		return
	}

	writeJSON(w, status, view)
}
