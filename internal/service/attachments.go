package service

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/dtroode/chatdemo-server/internal/logger"
	"github.com/dtroode/chatdemo-server/internal/model"
)

// ReferenceChecker reports whether a stored message carries an attachment.
type ReferenceChecker interface {
	Referenced(ctx context.Context, ref string) (bool, error)
}

type upload struct {
	sessionID string
	held      int
}

// Attachments owns uploaded blobs. A blob may be discarded only by the
// session that uploaded it and only while no message references it.
type Attachments struct {
	storage    model.Storage
	references ReferenceChecker
	mu         sync.Mutex
	uploads    map[string]*upload
	logger     *logger.Logger
}

func NewAttachments(storage model.Storage, references ReferenceChecker, logger *logger.Logger) *Attachments {
	return &Attachments{
		storage:    storage,
		references: references,
		uploads:    make(map[string]*upload),
		logger:     logger,
	}
}

// Upload stores the blob under a fresh reference owned by sessionID.
func (a *Attachments) Upload(ctx context.Context, sessionID, name string, reader io.Reader, size int64, contentType string) (model.Attachment, error) {
	key := uuid.NewString() + "/" + name

	if err := a.storage.Upload(ctx, key, reader, size, contentType); err != nil {
		a.logger.Error("Attachments service: upload failed",
			"key", key,
			"error", err.Error())
		return model.Attachment{}, fmt.Errorf("failed to store attachment: %w", err)
	}

	a.mu.Lock()
	a.uploads[key] = &upload{sessionID: sessionID}
	a.mu.Unlock()

	a.logger.Info("Attachments service: attachment stored",
		"key", key,
		"session_id", sessionID,
		"size", size)

	return model.Attachment{
		Name:        name,
		Reference:   key,
		ContentType: contentType,
		Size:        size,
	}, nil
}

func (a *Attachments) Download(ctx context.Context, ref string) (io.ReadCloser, error) {
	return a.storage.Download(ctx, ref)
}

// Hold checks that ref names a stored blob and keeps it from being discarded
// until release is called. Callers hold a reference while sending it.
func (a *Attachments) Hold(ctx context.Context, ref string) (release func(), err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	exists, err := a.storage.Exists(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to look up attachment: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: unknown attachment %q", model.ErrValidation, ref)
	}

	u, ok := a.uploads[ref]
	if !ok {
		return func() {}, nil
	}
	u.held++

	var once sync.Once
	return func() {
		once.Do(func() {
			a.mu.Lock()
			defer a.mu.Unlock()
			u.held--
		})
	}, nil
}

// Discard deletes an attachment that was uploaded by sessionID and never
// sent.
func (a *Attachments) Discard(ctx context.Context, sessionID, ref string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	exists, err := a.storage.Exists(ctx, ref)
	if err != nil {
		return fmt.Errorf("failed to look up attachment: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: attachment %q", model.ErrNotFound, ref)
	}

	u, ok := a.uploads[ref]
	if !ok || u.sessionID != sessionID {
		a.logger.Info("Attachments service: discard by non-uploader refused",
			"key", ref,
			"session_id", sessionID)
		return fmt.Errorf("%w: attachment was uploaded by another session", model.ErrForbidden)
	}

	if u.held > 0 {
		return fmt.Errorf("%w: attachment is being sent", model.ErrInvalidState)
	}
	sent, err := a.references.Referenced(ctx, ref)
	if err != nil {
		return err
	}
	if sent {
		return fmt.Errorf("%w: attachment was already sent", model.ErrInvalidState)
	}

	if err := a.storage.Delete(ctx, ref); err != nil {
		a.logger.Error("Attachments service: delete failed",
			"key", ref,
			"error", err.Error())
		return fmt.Errorf("failed to delete attachment: %w", err)
	}
	delete(a.uploads, ref)

	a.logger.Info("Attachments service: attachment discarded",
		"key", ref,
		"session_id", sessionID)

	return nil
}
