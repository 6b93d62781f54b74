package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/dtroode/chatdemo-server/internal/model"
)

var _ model.MessageStore = (*MessageRepository)(nil)

// MessageRepository is an append-only in-memory log. Message IDs are a
// sequence starting at 1 that increases with every append.
type MessageRepository struct {
	mu       sync.RWMutex
	messages []model.Message
	next     int64
	now      func() time.Time
}

func NewMessageRepository() *MessageRepository {
	return &MessageRepository{
		messages: make([]model.Message, 0, 64),
		next:     1,
		now:      time.Now,
	}
}

// Append assigns the message its ID and creation time and stores it.
func (r *MessageRepository) Append(_ context.Context, msg model.Message) (model.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	msg.ID = r.next
	r.next++
	msg.CreatedAt = r.now().UTC()
	if msg.Attachment != nil {
		a := *msg.Attachment
		msg.Attachment = &a
	}
	r.messages = append(r.messages, msg)
	return msg, nil
}

// All returns a snapshot of the log in append order.
func (r *MessageRepository) All(_ context.Context) ([]model.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Clone(r.messages), nil
}

func (r *MessageRepository) Len(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.messages), nil
}
