package handler

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/abhishek-bajpai1/athletecho/internal/model"
	"github.com/abhishek-bajpai1/athletecho/internal/service"
	"github.com/abhishek-bajpai1/athletecho/internal/storage"
	apperrors "github.com/abhishek-bajpai1/athletecho/pkg/errors"
	"github.com/abhishek-bajpai1/athletecho/pkg/response"
)

// AuthService is what AuthHandler needs from the auth service.
type AuthService interface {
	LoginURL(ctx context.Context) (string, error)
	Callback(ctx context.Context, state, code string, device service.DeviceInfo) (*service.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*service.LoginResponse, error)
	Logout(ctx context.Context, uid, platform, accessToken string) error
}

// UserService is what UserHandler needs from the user directory.
type UserService interface {
	GetProfile(ctx context.Context, uid string) (*model.UserProfile, error)
	UpdateProfile(ctx context.Context, uid string, update *model.ProfileUpdate) (*model.UserProfile, error)
	UploadAvatar(ctx context.Context, uid string, img *storage.Image) (string, error)
	ListOthers(ctx context.Context, viewer string) ([]*model.UserProfile, error)
}

// ConnectionService is what ConnectionHandler needs.
type ConnectionService interface {
	SendRequest(ctx context.Context, from, to string) (*model.Connection, error)
	Accept(ctx context.Context, actor, other string) (*model.Connection, error)
	Remove(ctx context.Context, actor, other string) error
	Status(ctx context.Context, viewer, other string) (model.RelationStatus, error)
	List(ctx context.Context, viewer string) ([]model.ConnectionView, error)
	Statuses(ctx context.Context, viewer string) (map[string]model.RelationStatus, error)
}

// MessagingService is what ConversationHandler needs.
type MessagingService interface {
	GetOrCreateConversation(ctx context.Context, a, b string) (string, error)
	SendMessage(ctx context.Context, key, sender, text string) (*model.Message, error)
	MarkRead(ctx context.Context, key, viewer string) (int64, error)
	ListConversations(ctx context.Context, uid string) ([]*model.ConversationSummary, error)
	ListMessages(ctx context.Context, key, viewer string) ([]*model.Message, error)
}

// FeedService is what PostHandler needs.
type FeedService interface {
	CreatePost(ctx context.Context, author string, req *service.CreatePostRequest) (*model.Post, error)
	CreateTextPost(ctx context.Context, author string, req *service.CreatePostRequest) (*model.Post, error)
	ToggleLike(ctx context.Context, postID int64, uid string, currentlyLiked bool) (*model.Post, error)
	AddComment(ctx context.Context, postID int64, author, text string) (*model.Comment, error)
	DeletePost(ctx context.Context, postID int64, actor string) error
	RecentFeed(ctx context.Context, sport string) ([]*model.Post, error)
	ListComments(ctx context.Context, postID int64) ([]*model.Comment, error)
}

// CoachingService is what CoachingHandler needs.
type CoachingService interface {
	Coaches(sport string) []model.Coach
	Facilities() []model.Facility
}

// fail writes err to the client. Errors without a code are logged since
// the client only sees a generic message.
func fail(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || apperrors.Is(err, apperrors.ErrBackendUnavailable) {
		slog.Error("Request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err)
	}
	_ = c.Error(err)
	response.ErrorFromAppError(c, err)
}

func invalidParams(c *gin.Context, err error) {
	response.ErrorWithMsg(c, apperrors.CodeInvalidParams, err.Error())
}

func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, apperrors.ErrInvalidParams)
		return 0, false
	}
	return id, true
}
