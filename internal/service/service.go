package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/abhishek-bajpai1/athletecho/internal/model"
	"github.com/abhishek-bajpai1/athletecho/internal/realtime"
	"github.com/abhishek-bajpai1/athletecho/internal/repository"
	"github.com/abhishek-bajpai1/athletecho/internal/storage"
)

// UserStore persists user profiles.
type UserStore interface {
	UpsertSignIn(ctx context.Context, id *model.Identity) (*model.UserProfile, error)
	SetPresence(ctx context.Context, uid string, online bool) error
	GetByUID(ctx context.Context, uid string) (*model.UserProfile, error)
	UpdateProfile(ctx context.Context, p *model.UserProfile) error
	UpdatePhoto(ctx context.Context, uid, photoURL string) error
	ListExcept(ctx context.Context, uid string) ([]*model.UserProfile, error)
}

// ConnectionStore persists connection records keyed by pair key.
type ConnectionStore interface {
	CreateIfAbsent(ctx context.Context, c *model.Connection) error
	Get(ctx context.Context, id string) (*model.Connection, error)
	Accept(ctx context.Context, id, acceptor string) (*model.Connection, error)
	Delete(ctx context.Context, id string) (bool, error)
	ListForUser(ctx context.Context, uid string) ([]*model.Connection, error)
}

// ConversationStore persists conversations and messages.
type ConversationStore interface {
	CreateIfAbsent(ctx context.Context, c *model.Conversation) (bool, error)
	Get(ctx context.Context, id string) (*model.Conversation, error)
	AppendMessage(ctx context.Context, msg *model.Message) error
	MarkRead(ctx context.Context, id, viewer string) (int64, error)
	ListForUser(ctx context.Context, uid string) ([]*model.ConversationSummary, error)
	ListMessages(ctx context.Context, id string) ([]*model.Message, error)
}

// PostStore persists posts and comments.
type PostStore interface {
	Create(ctx context.Context, p *model.Post) error
	Get(ctx context.Context, id int64) (*model.Post, error)
	SetLike(ctx context.Context, id int64, uid string, liked bool) (*model.Post, error)
	DeleteByAuthor(ctx context.Context, id int64, actor string) error
	Recent(ctx context.Context, limit int) ([]*model.Post, error)
	AddComment(ctx context.Context, c *model.Comment) error
	ListComments(ctx context.Context, postID int64) ([]*model.Comment, error)
}

// PresenceStore tracks the live connections of each user.
type PresenceStore interface {
	Connect(ctx context.Context, uid, connID string) (int64, error)
	Disconnect(ctx context.Context, uid, connID string) (int64, error)
	Touch(ctx context.Context, uid, connID string) error
	Count(ctx context.Context, uid string) (int64, error)
}

// SessionStore tracks signed-in access tokens.
type SessionStore interface {
	SaveToken(ctx context.Context, info *repository.SessionInfo, accessToken string, expiration time.Duration) error
	GetSession(ctx context.Context, accessToken string) (*repository.SessionInfo, error)
	DeleteToken(ctx context.Context, uid, platform, accessToken string) error
}

// StateStore holds pending OAuth states.
type StateStore interface {
	Save(ctx context.Context, state string, ttl time.Duration) error
	Consume(ctx context.Context, state string) (bool, error)
}

// ImageStore uploads images and returns their public URL.
type ImageStore interface {
	Upload(ctx context.Context, folder string, img *storage.Image) (string, error)
}

// IdentityProvider is the external sign-in collaborator.
type IdentityProvider interface {
	AuthURL(state string) string
	Identify(ctx context.Context, code string) (*model.Identity, error)
}

// changes publishes topics after a successful mutation. A failed
// notification is logged and never fails the mutation.
type changes struct {
	notifier realtime.Notifier
	logger   *slog.Logger
}

func (c changes) publish(ctx context.Context, topics ...string) {
	if c.notifier == nil || len(topics) == 0 {
		return
	}
	if err := c.notifier.Publish(context.WithoutCancel(ctx), topics...); err != nil {
		c.logger.Warn("Failed to publish change", "topics", topics, "error", err)
	}
}

func newChanges(n realtime.Notifier, logger *slog.Logger) changes {
	if logger == nil {
		logger = slog.Default()
	}
	return changes{notifier: n, logger: logger}
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
