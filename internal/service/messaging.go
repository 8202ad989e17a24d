package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/abhishek-bajpai1/athletecho/internal/metrics"
	"github.com/abhishek-bajpai1/athletecho/internal/model"
	"github.com/abhishek-bajpai1/athletecho/internal/realtime"
	apperrors "github.com/abhishek-bajpai1/athletecho/pkg/errors"
	"github.com/abhishek-bajpai1/athletecho/pkg/snowflake"
)

// MessagingService keeps one conversation per pair of users and the
// ordered messages inside it.
type MessagingService struct {
	conversations ConversationStore
	users         UserStore
	hub           *realtime.Hub
	snowflake     *snowflake.Node
	changes       changes
	metrics       *metrics.Metrics
}

// NewMessagingService creates a messaging service.
func NewMessagingService(conversations ConversationStore, users UserStore, hub *realtime.Hub, notifier realtime.Notifier, sf *snowflake.Node, m *metrics.Metrics) *MessagingService {
	return &MessagingService{
		conversations: conversations,
		users:         users,
		hub:           hub,
		snowflake:     sf,
		changes:       newChanges(notifier, slog.Default()),
		metrics:       m,
	}
}

// GetOrCreateConversation returns the key of the conversation between a
// and b, creating it on first contact. Concurrent first contacts from both
// sides end up on the same record.
func (s *MessagingService) GetOrCreateConversation(ctx context.Context, a, b string) (string, error) {
	key, err := s.getOrCreateConversation(ctx, a, b)
	s.metrics.RecordMutation("conversation.open", err)
	return key, err
}

func (s *MessagingService) getOrCreateConversation(ctx context.Context, a, b string) (string, error) {
	if blank(a) || blank(b) {
		return "", apperrors.ErrInvalidParams
	}
	if a == b {
		return "", apperrors.ErrSelfConversation
	}
	if _, err := s.users.GetByUID(ctx, b); err != nil {
		return "", err
	}

	conv := model.NewConversation(a, b)
	created, err := s.conversations.CreateIfAbsent(ctx, conv)
	if err != nil {
		return "", err
	}
	if created {
		s.changes.publish(ctx, realtime.ConversationsTopic(a), realtime.ConversationsTopic(b))
	}
	return conv.ID, nil
}

// participantOf loads the conversation and checks that uid takes part in it.
func (s *MessagingService) participantOf(ctx context.Context, key, uid string) (*model.Conversation, error) {
	if blank(key) || blank(uid) {
		return nil, apperrors.ErrInvalidParams
	}
	conv, err := s.conversations.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(uid) {
		return nil, apperrors.ErrNotParticipant
	}
	return conv, nil
}

// SendMessage appends text from sender to the conversation. Blank text is
// rejected before anything is read or written.
func (s *MessagingService) SendMessage(ctx context.Context, key, sender, text string) (*model.Message, error) {
	msg, err := s.sendMessage(ctx, key, sender, text)
	s.metrics.RecordMutation("message.send", err)
	return msg, err
}

func (s *MessagingService) sendMessage(ctx context.Context, key, sender, text string) (*model.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.ErrEmptyText
	}

	conv, err := s.participantOf(ctx, key, sender)
	if err != nil {
		return nil, err
	}

	msg := &model.Message{
		ID:             s.snowflake.Generate().Int64(),
		ConversationID: conv.ID,
		SenderID:       sender,
		Text:           text,
	}
	if err := s.conversations.AppendMessage(ctx, msg); err != nil {
		return nil, err
	}

	s.changes.publish(ctx,
		realtime.MessagesTopic(conv.ID),
		realtime.ConversationsTopic(conv.Participants[0]),
		realtime.ConversationsTopic(conv.Participants[1]),
	)
	return msg, nil
}

// MarkRead flips every unread message the viewer received in the
// conversation. Repeated calls converge; the count of flipped messages is
// returned.
func (s *MessagingService) MarkRead(ctx context.Context, key, viewer string) (int64, error) {
	n, err := s.markRead(ctx, key, viewer)
	s.metrics.RecordMutation("message.read", err)
	return n, err
}

func (s *MessagingService) markRead(ctx context.Context, key, viewer string) (int64, error) {
	conv, err := s.participantOf(ctx, key, viewer)
	if err != nil {
		return 0, err
	}
	n, err := s.conversations.MarkRead(ctx, conv.ID, viewer)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.changes.publish(ctx, realtime.MessagesTopic(conv.ID), realtime.ConversationsTopic(viewer))
	}
	return n, nil
}

// ListConversations returns uid's conversations, most recent activity first.
func (s *MessagingService) ListConversations(ctx context.Context, uid string) ([]*model.ConversationSummary, error) {
	if blank(uid) {
		return nil, apperrors.ErrInvalidParams
	}
	return s.conversations.ListForUser(ctx, uid)
}

// ListMessages returns the messages of a conversation in send order.
func (s *MessagingService) ListMessages(ctx context.Context, key, viewer string) ([]*model.Message, error) {
	conv, err := s.participantOf(ctx, key, viewer)
	if err != nil {
		return nil, err
	}
	return s.conversations.ListMessages(ctx, conv.ID)
}

// SubscribeConversations delivers ListConversations snapshots to fn.
func (s *MessagingService) SubscribeConversations(ctx context.Context, uid string, fn func([]*model.ConversationSummary)) (*realtime.Subscription, error) {
	if blank(uid) {
		return nil, apperrors.ErrInvalidParams
	}
	return realtime.Watch(ctx, s.hub, realtime.ConversationsTopic(uid),
		func(ctx context.Context) ([]*model.ConversationSummary, error) {
			return s.ListConversations(ctx, uid)
		}, fn)
}

// SubscribeMessages delivers ListMessages snapshots to fn. Only
// participants may subscribe.
func (s *MessagingService) SubscribeMessages(ctx context.Context, key, viewer string, fn func([]*model.Message)) (*realtime.Subscription, error) {
	conv, err := s.participantOf(ctx, key, viewer)
	if err != nil {
		return nil, err
	}
	return realtime.Watch(ctx, s.hub, realtime.MessagesTopic(conv.ID),
		func(ctx context.Context) ([]*model.Message, error) {
			return s.conversations.ListMessages(ctx, conv.ID)
		}, fn)
}
