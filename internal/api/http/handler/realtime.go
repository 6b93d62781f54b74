package handler

import (
	"net/http"

	"github.com/dtroode/chatdemo-server/internal/logger"
	"github.com/dtroode/chatdemo-server/internal/model"
	"github.com/dtroode/chatdemo-server/internal/service"
)

// ConnectionServer takes over a request as a push connection opened by a
// session logged in as userID.
type ConnectionServer interface {
	Serve(w http.ResponseWriter, r *http.Request, sessionID, userID string)
	Disconnect(sessionID string)
}

// Realtime upgrades authenticated sessions to websocket connections.
type Realtime struct {
	sessionService *service.Session
	connections    ConnectionServer
	contextManager model.ContextManager
	logger         *logger.Logger
}

func NewRealtime(sessionService *service.Session, connections ConnectionServer, contextManager model.ContextManager, logger *logger.Logger) *Realtime {
	return &Realtime{
		sessionService: sessionService,
		connections:    connections,
		contextManager: contextManager,
		logger:         logger,
	}
}

func (h *Realtime) Connect(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.contextManager.GetSessionIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing session"})
		return
	}

	user, err := h.sessionService.Authenticated(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}

	h.connections.Serve(w, r, sessionID, user.ID)

	// A logout that raced the upgrade found nothing to disconnect.
	current, err := h.sessionService.Authenticated(r.Context(), sessionID)
	if err != nil || current.ID != user.ID {
		h.logger.Debug("Realtime handler: session changed during connect",
			"session_id", sessionID)
		h.connections.Disconnect(sessionID)
	}
}

// Health reports liveness.
func Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
