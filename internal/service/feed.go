package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/abhishek-bajpai1/athletecho/internal/metrics"
	"github.com/abhishek-bajpai1/athletecho/internal/model"
	"github.com/abhishek-bajpai1/athletecho/internal/realtime"
	"github.com/abhishek-bajpai1/athletecho/internal/storage"
	apperrors "github.com/abhishek-bajpai1/athletecho/pkg/errors"
	"github.com/abhishek-bajpai1/athletecho/pkg/snowflake"
)

const postImageFolder = "posts"

// CreatePostRequest is the input of CreatePost.
type CreatePostRequest struct {
	Content string
	Sport   string
	Image   *storage.Image // optional
}

// FeedService manages posts, likes and comments.
type FeedService struct {
	posts       PostStore
	users       UserStore
	images      ImageStore
	hub         *realtime.Hub
	snowflake   *snowflake.Node
	recentLimit int
	changes     changes
	metrics     *metrics.Metrics
}

// NewFeedService creates a feed service. images may be nil, in which case
// every image upload fails with ErrImageUploadFailed.
func NewFeedService(posts PostStore, users UserStore, images ImageStore, hub *realtime.Hub, notifier realtime.Notifier, sf *snowflake.Node, recentLimit int, m *metrics.Metrics) *FeedService {
	if recentLimit <= 0 {
		recentLimit = 30
	}
	return &FeedService{
		posts:       posts,
		users:       users,
		images:      images,
		hub:         hub,
		snowflake:   sf,
		recentLimit: recentLimit,
		changes:     newChanges(notifier, slog.Default()),
		metrics:     m,
	}
}

// CreatePost publishes a post. When an image is attached it is uploaded
// first; an upload failure aborts the post with ErrImageUploadFailed so the
// caller can retry with CreateTextPost.
func (s *FeedService) CreatePost(ctx context.Context, author string, req *CreatePostRequest) (*model.Post, error) {
	post, err := s.createPost(ctx, author, req)
	s.metrics.RecordMutation("post.create", err)
	return post, err
}

// CreateTextPost publishes a post without an image.
func (s *FeedService) CreateTextPost(ctx context.Context, author string, req *CreatePostRequest) (*model.Post, error) {
	var textOnly *CreatePostRequest
	if req != nil {
		textOnly = &CreatePostRequest{Content: req.Content, Sport: req.Sport}
	}
	post, err := s.createPost(ctx, author, textOnly)
	s.metrics.RecordMutation("post.create", err)
	return post, err
}

func (s *FeedService) createPost(ctx context.Context, author string, req *CreatePostRequest) (*model.Post, error) {
	if blank(author) || req == nil {
		return nil, apperrors.ErrInvalidParams
	}
	sport, ok := model.ParseSport(strings.TrimSpace(req.Sport))
	if !ok {
		return nil, apperrors.ErrInvalidSport
	}
	content := strings.TrimSpace(req.Content)
	if content == "" && req.Image == nil {
		return nil, apperrors.ErrEmptyPost
	}

	profile, err := s.users.GetByUID(ctx, author)
	if err != nil {
		return nil, err
	}

	var imageURL string
	if req.Image != nil {
		if s.images == nil {
			return nil, apperrors.ErrImageUploadFailed.Wrap(storage.ErrNotConfigured)
		}
		imageURL, err = s.images.Upload(ctx, postImageFolder, req.Image)
		if err != nil {
			return nil, apperrors.ErrImageUploadFailed.Wrap(err)
		}
	}

	post := &model.Post{
		ID:          s.snowflake.Generate().Int64(),
		AuthorID:    profile.UID,
		AuthorName:  profile.DisplayName,
		AuthorPhoto: profile.PhotoURL,
		Content:     content,
		ImageURL:    imageURL,
		Sport:       sport,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}

	s.changes.publish(ctx, realtime.FeedTopic())
	return post, nil
}

// ToggleLike flips uid's like on a post. currentlyLiked is the state the
// caller saw; liking an already liked post or unliking an unliked one
// leaves the liker set unchanged.
func (s *FeedService) ToggleLike(ctx context.Context, postID int64, uid string, currentlyLiked bool) (*model.Post, error) {
	if blank(uid) {
		s.metrics.RecordMutation("post.like", apperrors.ErrInvalidParams)
		return nil, apperrors.ErrInvalidParams
	}
	post, err := s.posts.SetLike(ctx, postID, uid, !currentlyLiked)
	s.metrics.RecordMutation("post.like", err)
	if err != nil {
		return nil, err
	}
	s.changes.publish(ctx, realtime.FeedTopic())
	return post, nil
}

// AddComment appends a comment and bumps the post's counter atomically.
func (s *FeedService) AddComment(ctx context.Context, postID int64, author, text string) (*model.Comment, error) {
	comment, err := s.addComment(ctx, postID, author, text)
	s.metrics.RecordMutation("comment.add", err)
	return comment, err
}

func (s *FeedService) addComment(ctx context.Context, postID int64, author, text string) (*model.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.ErrEmptyText
	}
	if blank(author) {
		return nil, apperrors.ErrInvalidParams
	}

	profile, err := s.users.GetByUID(ctx, author)
	if err != nil {
		return nil, err
	}

	comment := &model.Comment{
		ID:          s.snowflake.Generate().Int64(),
		PostID:      postID,
		AuthorID:    profile.UID,
		AuthorName:  profile.DisplayName,
		AuthorPhoto: profile.PhotoURL,
		Text:        text,
	}
	if err := s.posts.AddComment(ctx, comment); err != nil {
		return nil, err
	}

	s.changes.publish(ctx, realtime.CommentsTopic(postID), realtime.FeedTopic())
	return comment, nil
}

// DeletePost removes a post and its comments. Only the author may delete.
func (s *FeedService) DeletePost(ctx context.Context, postID int64, actor string) error {
	err := s.deletePost(ctx, postID, actor)
	s.metrics.RecordMutation("post.delete", err)
	return err
}

func (s *FeedService) deletePost(ctx context.Context, postID int64, actor string) error {
	if blank(actor) {
		return apperrors.ErrInvalidParams
	}
	if err := s.posts.DeleteByAuthor(ctx, postID, actor); err != nil {
		return err
	}
	s.changes.publish(ctx, realtime.FeedTopic(), realtime.CommentsTopic(postID))
	return nil
}

// RecentFeed returns the newest posts, then keeps those tagged sport. The
// filter runs on the bounded window, so a sport absent from the newest
// posts yields an empty feed even when older posts match.
func (s *FeedService) RecentFeed(ctx context.Context, sport string) ([]*model.Post, error) {
	filter, ok := model.ParseSportFilter(strings.TrimSpace(sport))
	if !ok {
		return nil, apperrors.ErrInvalidSport
	}
	return s.recentFeed(ctx, filter)
}

func (s *FeedService) recentFeed(ctx context.Context, filter model.Sport) ([]*model.Post, error) {
	posts, err := s.posts.Recent(ctx, s.recentLimit)
	if err != nil {
		return nil, err
	}
	return model.FilterBySport(posts, filter), nil
}

// ListComments returns a post's comments oldest first.
func (s *FeedService) ListComments(ctx context.Context, postID int64) ([]*model.Comment, error) {
	if _, err := s.posts.Get(ctx, postID); err != nil {
		return nil, err
	}
	return s.posts.ListComments(ctx, postID)
}

// SubscribeFeed delivers RecentFeed snapshots to fn.
func (s *FeedService) SubscribeFeed(ctx context.Context, sport string, fn func([]*model.Post)) (*realtime.Subscription, error) {
	filter, ok := model.ParseSportFilter(strings.TrimSpace(sport))
	if !ok {
		return nil, apperrors.ErrInvalidSport
	}
	return realtime.Watch(ctx, s.hub, realtime.FeedTopic(),
		func(ctx context.Context) ([]*model.Post, error) {
			return s.recentFeed(ctx, filter)
		}, fn)
}

// SubscribeComments delivers ListComments snapshots to fn.
func (s *FeedService) SubscribeComments(ctx context.Context, postID int64, fn func([]*model.Comment)) (*realtime.Subscription, error) {
	if _, err := s.posts.Get(ctx, postID); err != nil {
		return nil, err
	}
	return realtime.Watch(ctx, s.hub, realtime.CommentsTopic(postID),
		func(ctx context.Context) ([]*model.Comment, error) {
			return s.posts.ListComments(ctx, postID)
		}, fn)
}
