package handler

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dtroode/chatdemo-server/internal/logger"
	"github.com/dtroode/chatdemo-server/internal/model"
	"github.com/dtroode/chatdemo-server/internal/sanitize"
	"github.com/dtroode/chatdemo-server/internal/service"
)

const (
	attachmentField   = "file"
	maxAttachmentName = 128
)

// Attachment stores uploaded files and serves them back.
type Attachment struct {
	sessionService *service.Session
	attachments    *service.Attachments
	contextManager model.ContextManager
	maxBytes       int64
	logger         *logger.Logger
}

func NewAttachment(
	sessionService *service.Session,
	attachments *service.Attachments,
	contextManager model.ContextManager,
	maxBytes int64,
	logger *logger.Logger,
) *Attachment {
	return &Attachment{
		sessionService: sessionService,
		attachments:    attachments,
		contextManager: contextManager,
		maxBytes:       maxBytes,
		logger:         logger,
	}
}

// Upload stores the multipart "file" field and returns an attachment
// reference to put into a message.
func (h *Attachment) Upload(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.authorized(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	file, header, err := r.FormFile(attachmentField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "attachment too large"})
			return
		}
		writeError(w, fmt.Errorf("%w: %s is required", model.ErrValidation, attachmentField))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	att, err := h.attachments.Upload(r.Context(), sessionID, attachmentName(header.Filename), file, header.Size, contentType)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, att)
}

// Download streams the attachment whose reference follows the route prefix.
func (h *Attachment) Download(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authorized(w, r); !ok {
		return
	}

	key, ok := attachmentKey(w, r)
	if !ok {
		return
	}

	rc, err := h.attachments.Download(r.Context(), key)
	if err != nil {
		writeError(w, err)
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(path.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": path.Base(key)}))
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Debug("Attachment handler: download interrupted",
			"key", key,
			"error", err.Error())
	}
}

// Discard removes an attachment the caller uploaded but did not send.
func (h *Attachment) Discard(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.authorized(w, r)
	if !ok {
		return
	}

	key, ok := attachmentKey(w, r)
	if !ok {
		return
	}

	if err := h.attachments.Discard(r.Context(), sessionID, key); err != nil {
		h.logger.Debug("Attachment handler: discard rejected",
			"key", key,
			"session_id", sessionID,
			"error", err.Error())
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func attachmentKey(w http.ResponseWriter, r *http.Request) (string, bool) {
	key := chi.URLParam(r, "*")
	if key == "" || strings.Contains(key, "..") {
		writeError(w, fmt.Errorf("%w: bad attachment reference", model.ErrValidation))
		return "", false
	}
	return key, true
}

func (h *Attachment) authorized(w http.ResponseWriter, r *http.Request) (string, bool) {
	sessionID, ok := h.contextManager.GetSessionIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing session"})
		return "", false
	}
	if _, err := h.sessionService.Authenticated(r.Context(), sessionID); err != nil {
		writeError(w, err)
		return "", false
	}
	return sessionID, true
}

// attachmentName reduces a client file name to a safe single path segment.
func attachmentName(filename string) string {
	name := path.Base(strings.ReplaceAll(filename, `\`, "/"))
	name = sanitize.Markup(name)
	if r := []rune(name); len(r) > maxAttachmentName {
		name = string(r[len(r)-maxAttachmentName:])
	}
	name = strings.Map(func(r rune) rune {
		if r == '/' || r < 0x20 {
			return '_'
		}
		return r
	}, name)
	if name == "" || name == "." || name == ".." {
		return "file"
	}
	return name
}
