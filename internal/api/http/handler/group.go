package handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dtroode/chatdemo-server/internal/logger"
	"github.com/dtroode/chatdemo-server/internal/model"
	"github.com/dtroode/chatdemo-server/internal/service"
)

type createGroupRequest struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

// Group serves group creation and editing.
type Group struct {
	sessionService *service.Session
	contextManager model.ContextManager
	logger         *logger.Logger
}

func NewGroup(sessionService *service.Session, contextManager model.ContextManager, logger *logger.Logger) *Group {
	return &Group{
		sessionService: sessionService,
		contextManager: contextManager,
		logger:         logger,
	}
}

func (h *Group) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessionID, ok := h.contextManager.GetSessionIDFromContext(ctx)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing session"})
		return
	}

	var req createGroupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, fmt.Errorf("%w: %w", model.ErrValidation, err))
		return
	}

	group, err := h.sessionService.CreateGroup(ctx, sessionID, req.Name, req.Members)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, group)
}

func (h *Group) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessionID, ok := h.contextManager.GetSessionIDFromContext(ctx)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing session"})
		return
	}

	var patch model.GroupPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, fmt.Errorf("%w: %w", model.ErrValidation, err))
		return
	}

	group, err := h.sessionService.UpdateGroup(ctx, sessionID, chi.URLParam(r, "groupID"), patch)
	if err != nil {
		h.logger.Debug("Group handler: update rejected",
			"session_id", sessionID,
			"error", err.Error())
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, group)
}
