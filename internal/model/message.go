package model

import (
	"context"
	"time"
)

// MessageStore is the append-only message log.
type MessageStore interface {
	Append(ctx context.Context, msg Message) (Message, error)
	All(ctx context.Context) ([]Message, error)
	Len(ctx context.Context) (int, error)
}

// TargetKind is the addressing mode of a message or a session.
type TargetKind string

const (
	TargetPersonal TargetKind = "personal"
	TargetGroup    TargetKind = "group"
)

// Valid reports whether k is a known target kind.
func (k TargetKind) Valid() bool {
	return k == TargetPersonal || k == TargetGroup
}

// Target addresses either a single user or a group.
type Target struct {
	Kind TargetKind `json:"kind"`
	ID   string     `json:"id"`
}

// PersonalTarget addresses a single user.
func PersonalTarget(userID string) Target {
	return Target{Kind: TargetPersonal, ID: userID}
}

// GroupTarget addresses a group.
func GroupTarget(groupID string) Target {
	return Target{Kind: TargetGroup, ID: groupID}
}

// Attachment references an uploaded blob.
type Attachment struct {
	Name        string `json:"name"`
	Reference   string `json:"reference"`
	ContentType string `json:"content_type,omitempty"`
	Size        int64  `json:"size,omitempty"`
}

// Message is an immutable log entry. Exactly one of RecipientID and GroupID is set.
type Message struct {
	ID          int64       `json:"id"`
	SenderID    string      `json:"sender_id"`
	RecipientID string      `json:"recipient_id,omitempty"`
	GroupID     string      `json:"group_id,omitempty"`
	Text        string      `json:"text,omitempty"`
	Attachment  *Attachment `json:"attachment,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}

// Target returns the message's addressing.
func (m Message) Target() Target {
	if m.GroupID != "" {
		return GroupTarget(m.GroupID)
	}
	return PersonalTarget(m.RecipientID)
}

// Completer is the external text-completion collaborator.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Notifier delivers freshly appended messages to connected users.
type Notifier interface {
	Publish(audience []string, msg Message)
}
