package handler

import (
	"fmt"
	"net/http"

	"github.com/dtroode/chatdemo-server/internal/logger"
	"github.com/dtroode/chatdemo-server/internal/model"
	"github.com/dtroode/chatdemo-server/internal/service"
)

type sendMessageRequest struct {
	Text       string            `json:"text"`
	Attachment *model.Attachment `json:"attachment,omitempty"`
}

// Message appends messages to the session's active conversation.
type Message struct {
	sessionService *service.Session
	attachments    *service.Attachments
	contextManager model.ContextManager
	logger         *logger.Logger
}

func NewMessage(sessionService *service.Session, attachments *service.Attachments, contextManager model.ContextManager, logger *logger.Logger) *Message {
	return &Message{
		sessionService: sessionService,
		attachments:    attachments,
		contextManager: contextManager,
		logger:         logger,
	}
}

// Send answers 201 with the stored message, or 204 when there was nothing
// to send.
func (h *Message) Send(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessionID, ok := h.contextManager.GetSessionIDFromContext(ctx)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing session"})
		return
	}

	var req sendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, fmt.Errorf("%w: %w", model.ErrValidation, err))
		return
	}

	if req.Attachment != nil {
		release, err := h.holdAttachment(r, req.Attachment)
		if err != nil {
			writeError(w, err)
			return
		}
		defer release()
	}

	msg, appended, err := h.sessionService.Send(ctx, sessionID, req.Text, req.Attachment)
	if err != nil {
		h.logger.Debug("Message handler: send rejected",
			"session_id", sessionID,
			"error", err.Error())
		writeError(w, err)
		return
	}
	if !appended {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, http.StatusCreated, msg)
}

// holdAttachment makes sure the reference points at an uploaded blob and
// pins it until the send completes.
func (h *Message) holdAttachment(r *http.Request, a *model.Attachment) (func(), error) {
	if a.Reference == "" {
		return nil, fmt.Errorf("%w: attachment reference is required", model.ErrValidation)
	}

	release, err := h.attachments.Hold(r.Context(), a.Reference)
	if err != nil {
		h.logger.Debug("Message handler: attachment rejected",
			"reference", a.Reference,
			"error", err.Error())
		return nil, err
	}
	return release, nil
}
