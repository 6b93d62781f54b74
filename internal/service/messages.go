package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/dtroode/chatdemo-server/internal/logger"
	"github.com/dtroode/chatdemo-server/internal/model"
)

// ReplyTrigger is notified of every appended message.
type ReplyTrigger interface {
	Trigger(msg model.Message)
}

// ViewerIndex lists the users whose sessions currently show target.
type ViewerIndex interface {
	Viewers(ctx context.Context, target model.Target) ([]string, error)
}

// Messages is the message log service.
type Messages struct {
	messageStore model.MessageStore
	groupStore   model.GroupStore
	viewers      ViewerIndex
	notifier     model.Notifier
	trigger      ReplyTrigger
	logger       *logger.Logger
}

func NewMessages(
	messageStore model.MessageStore,
	groupStore model.GroupStore,
	viewers ViewerIndex,
	notifier model.Notifier,
	trigger ReplyTrigger,
	logger *logger.Logger,
) *Messages {
	return &Messages{
		messageStore: messageStore,
		groupStore:   groupStore,
		viewers:      viewers,
		notifier:     notifier,
		trigger:      trigger,
		logger:       logger,
	}
}

// Append adds a message from senderID to target. It is a silent no-op,
// reported by ok == false, when target is nil or when there is neither text
// nor attachment.
func (m *Messages) Append(ctx context.Context, senderID string, target *model.Target, text string, attachment *model.Attachment) (msg model.Message, ok bool, err error) {
	text = strings.TrimSpace(text)
	if attachment != nil && attachment.Name == "" && attachment.Reference == "" {
		attachment = nil
	}
	if target == nil || (text == "" && attachment == nil) {
		m.logger.Debug("Messages service: empty message ignored",
			"sender_id", senderID)
		return model.Message{}, false, nil
	}

	msg = model.Message{
		SenderID:   senderID,
		Text:       text,
		Attachment: attachment,
	}
	switch target.Kind {
	case model.TargetGroup:
		msg.GroupID = target.ID
	case model.TargetPersonal:
		msg.RecipientID = target.ID
	default:
		return model.Message{}, false, fmt.Errorf("%w: unknown target kind %q", model.ErrValidation, target.Kind)
	}

	msg, err = m.append(ctx, msg)
	if err != nil {
		return model.Message{}, false, err
	}

	if m.trigger != nil {
		m.trigger.Trigger(msg)
	}

	return msg, true, nil
}

// AppendReply stores a message produced by the auto-reply worker. It never
// triggers another reply.
func (m *Messages) AppendReply(ctx context.Context, msg model.Message) error {
	msg.Text = strings.TrimSpace(msg.Text)
	_, err := m.append(ctx, msg)
	return err
}

// ThreadFor returns the conversation with target as seen by currentUserID.
func (m *Messages) ThreadFor(ctx context.Context, target model.Target, currentUserID string) ([]model.Message, error) {
	all, err := m.messageStore.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read message log: %w", err)
	}
	return Thread(all, target, currentUserID), nil
}

// Referenced reports whether any stored message carries the attachment ref.
func (m *Messages) Referenced(ctx context.Context, ref string) (bool, error) {
	all, err := m.messageStore.All(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to read message log: %w", err)
	}
	for _, msg := range all {
		if msg.Attachment != nil && msg.Attachment.Reference == ref {
			return true, nil
		}
	}
	return false, nil
}

func (m *Messages) Len(ctx context.Context) (int, error) {
	return m.messageStore.Len(ctx)
}

func (m *Messages) append(ctx context.Context, msg model.Message) (model.Message, error) {
	stored, err := m.messageStore.Append(ctx, msg)
	if err != nil {
		m.logger.Error("Messages service: failed to append message",
			"sender_id", msg.SenderID,
			"error", err.Error())
		return model.Message{}, fmt.Errorf("failed to append message: %w", err)
	}

	m.logger.Debug("Messages service: message appended",
		"id", stored.ID,
		"sender_id", stored.SenderID,
		"recipient_id", stored.RecipientID,
		"group_id", stored.GroupID)

	if m.notifier != nil {
		m.notifier.Publish(m.audience(ctx, stored), stored)
	}

	return stored, nil
}

// audience lists the users allowed to see msg. For a group these are the
// sender, the members and whoever has the group open, minus the deny-list.
func (m *Messages) audience(ctx context.Context, msg model.Message) []string {
	if msg.GroupID == "" {
		return dedupe([]string{msg.SenderID, msg.RecipientID})
	}

	group, err := m.groupStore.GetByID(ctx, msg.GroupID)
	if err != nil {
		m.logger.Warn("Messages service: audience lookup failed",
			"group_id", msg.GroupID,
			"error", err.Error())
		return []string{msg.SenderID}
	}

	candidates := append([]string{msg.SenderID}, group.Members...)
	if m.viewers != nil {
		viewers, err := m.viewers.Viewers(ctx, model.GroupTarget(group.ID))
		if err != nil {
			m.logger.Warn("Messages service: viewer lookup failed",
				"group_id", group.ID,
				"error", err.Error())
		}
		candidates = append(candidates, viewers...)
	}

	ids := make([]string, 0, len(candidates))
	for _, id := range candidates {
		if !group.IsDenied(id) {
			ids = append(ids, id)
		}
	}
	return dedupe(ids)
}

// Thread projects the log onto one conversation, keeping append order.
// A group thread holds every message of the group. A personal thread holds
// the ungrouped messages exchanged between currentUserID and the target in
// either direction.
func Thread(log []model.Message, target model.Target, currentUserID string) []model.Message {
	out := make([]model.Message, 0)
	for _, msg := range log {
		switch target.Kind {
		case model.TargetGroup:
			if msg.GroupID == target.ID {
				out = append(out, msg)
			}
		case model.TargetPersonal:
			if msg.GroupID != "" {
				continue
			}
			if (msg.SenderID == currentUserID && msg.RecipientID == target.ID) ||
				(msg.SenderID == target.ID && msg.RecipientID == currentUserID) {
				out = append(out, msg)
			}
		}
	}
	return out
}
