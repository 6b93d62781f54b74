package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/dtroode/chatdemo-server/internal/logger"
	"github.com/dtroode/chatdemo-server/internal/model"
)

const (
	replyPromptTemplate = `Act as a user in a chat application. Reply briefly to: "%s"`
	fallbackReply       = "Got it!"
)

// ReplySink stores a reply produced by the worker.
type ReplySink func(ctx context.Context, msg model.Message) error

type replyJob struct {
	requesterID string
	text        string
}

// AutoReply answers personal messages sent to one scripted contact. Each
// qualifying message queues one job; workers call the completer and append
// its answer. Failures are logged and dropped.
type AutoReply struct {
	contactID string
	completer model.Completer
	jobs      chan replyJob
	workers   int
	wg        sync.WaitGroup
	logger    *logger.Logger
}

func NewAutoReply(contactID string, completer model.Completer, workers, queueSize int, logger *logger.Logger) *AutoReply {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	return &AutoReply{
		contactID: contactID,
		completer: completer,
		jobs:      make(chan replyJob, queueSize),
		workers:   workers,
		logger:    logger,
	}
}

// ContactID is the user that replies automatically.
func (a *AutoReply) ContactID() string {
	return a.contactID
}

// Start launches the workers. They run until ctx is cancelled.
func (a *AutoReply) Start(ctx context.Context, sink ReplySink) {
	for range a.workers {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case job := <-a.jobs:
					a.handle(ctx, sink, job)
				}
			}
		}()
	}
}

// Wait blocks until all workers have returned.
func (a *AutoReply) Wait() {
	a.wg.Wait()
}

// Trigger queues a reply when msg is a personal message to the contact.
// It never blocks the caller.
func (a *AutoReply) Trigger(msg model.Message) {
	if msg.GroupID != "" || msg.RecipientID != a.contactID || msg.SenderID == a.contactID {
		return
	}

	text := msg.Text
	if text == "" && msg.Attachment != nil {
		text = "You sent me a file: " + msg.Attachment.Name
	}
	if text == "" {
		return
	}

	select {
	case a.jobs <- replyJob{requesterID: msg.SenderID, text: text}:
		a.logger.Debug("AutoReply service: reply scheduled",
			"message_id", msg.ID,
			"requester_id", msg.SenderID)
	default:
		a.logger.Warn("AutoReply service: queue full, reply dropped",
			"message_id", msg.ID,
			"requester_id", msg.SenderID)
	}
}

func (a *AutoReply) handle(ctx context.Context, sink ReplySink, job replyJob) {
	reply, err := a.completer.Complete(ctx, fmt.Sprintf(replyPromptTemplate, job.text))
	if err != nil {
		a.logger.Error("AutoReply service: completion failed",
			"requester_id", job.requesterID,
			"error", fmt.Errorf("%w: %w", model.ErrExternalService, err).Error())
		return
	}
	if strings.TrimSpace(reply) == "" {
		reply = fallbackReply
	}

	err = sink(ctx, model.Message{
		SenderID:    a.contactID,
		RecipientID: job.requesterID,
		Text:        reply,
	})
	if err != nil {
		a.logger.Error("AutoReply service: failed to store reply",
			"requester_id", job.requesterID,
			"error", err.Error())
		return
	}

	a.logger.Info("AutoReply service: reply delivered",
		"requester_id", job.requesterID)
}
