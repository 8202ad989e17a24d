package service

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhishek-bajpai1/athletecho/internal/model"
	"github.com/abhishek-bajpai1/athletecho/internal/realtime"
	"github.com/abhishek-bajpai1/athletecho/internal/storage"
	apperrors "github.com/abhishek-bajpai1/athletecho/pkg/errors"
)

func newTestFeedService(t *testing.T, images ImageStore, limit int) (*FeedService, *memPosts, *topicLog) {
	t.Helper()
	hub := newTestHub(t)
	posts := newMemPosts()
	log := &topicLog{hub: hub}
	svc := NewFeedService(posts, newMemUsers("u1", "u2"), images, hub, log, newTestSnowflake(t), limit, nil)
	return svc, posts, log
}

func TestFeedService_SportFilter(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestFeedService(t, nil, 30)

	post, err := svc.CreateTextPost(ctx, "u1", &CreatePostRequest{Content: "Five-for today", Sport: "Cricket"})
	require.NoError(t, err)
	assert.Equal(t, "Name u1", post.AuthorName)
	assert.Equal(t, model.SportCricket, post.Sport)

	cricket, err := svc.RecentFeed(ctx, "Cricket")
	require.NoError(t, err)
	require.Len(t, cricket, 1)
	assert.Equal(t, post.ID, cricket[0].ID)

	football, err := svc.RecentFeed(ctx, "Football")
	require.NoError(t, err)
	assert.Empty(t, football)

	all, err := svc.RecentFeed(ctx, "All")
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = svc.RecentFeed(ctx, "Curling")
	assert.ErrorIs(t, err, apperrors.ErrInvalidSport)
}

func TestFeedService_FilterAppliesToBoundedWindow(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestFeedService(t, nil, 3)

	_, err := svc.CreateTextPost(ctx, "u1", &CreatePostRequest{Content: "old", Sport: "Tennis"})
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := svc.CreateTextPost(ctx, "u2", &CreatePostRequest{Content: "new", Sport: "Football"})
		require.NoError(t, err)
	}

	tennis, err := svc.RecentFeed(ctx, "Tennis")
	require.NoError(t, err)
	assert.Empty(t, tennis, "older matches outside the window are not returned")

	all, err := svc.RecentFeed(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestFeedService_CreatePostValidation(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestFeedService(t, nil, 30)

	_, err := svc.CreateTextPost(ctx, "u1", &CreatePostRequest{Content: "  "})
	assert.ErrorIs(t, err, apperrors.ErrEmptyPost)

	_, err = svc.CreateTextPost(ctx, "u1", &CreatePostRequest{Content: "x", Sport: "All"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidSport)

	_, err = svc.CreateTextPost(ctx, "ghost", &CreatePostRequest{Content: "x"})
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)

	post, err := svc.CreateTextPost(ctx, "u1", &CreatePostRequest{Content: "untagged"})
	require.NoError(t, err)
	assert.Equal(t, model.SportOther, post.Sport)
}

func TestFeedService_ImageUploadFailureIsDistinct(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		images ImageStore
		cause  error
	}{
		{"not configured", nil, storage.ErrNotConfigured},
		{"rejected payload", &fakeImages{err: storage.ErrPayloadRejected}, storage.ErrPayloadRejected},
		{"upstream failure", &fakeImages{err: errors.New("s3 down")}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, posts, _ := newTestFeedService(t, tt.images, 30)
			req := &CreatePostRequest{
				Content: "with a picture",
				Sport:   "Tennis",
				Image:   &storage.Image{Filename: "x.png", Body: bytes.NewReader([]byte("img"))},
			}

			_, err := svc.CreatePost(ctx, "u1", req)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrImageUploadFailed)
			if tt.cause != nil {
				assert.ErrorIs(t, err, tt.cause)
			}

			feed, err := svc.RecentFeed(ctx, "")
			require.NoError(t, err)
			assert.Empty(t, feed, "no post is written when the upload fails")

			// the text-only fallback always works
			post, err := svc.CreateTextPost(ctx, "u1", req)
			require.NoError(t, err)
			assert.Empty(t, post.ImageURL)
			_, err = posts.Get(ctx, post.ID)
			require.NoError(t, err)
		})
	}
}

func TestFeedService_CreatePostWithImage(t *testing.T) {
	ctx := context.Background()
	images := &fakeImages{}
	svc, _, _ := newTestFeedService(t, images, 30)

	post, err := svc.CreatePost(ctx, "u1", &CreatePostRequest{
		Sport: "Athletics",
		Image: &storage.Image{Filename: "finish.jpg", Body: bytes.NewReader([]byte("jpg"))},
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/posts/finish.jpg", post.ImageURL)
	assert.Equal(t, 1, images.uploads)
}

func TestFeedService_LikeRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestFeedService(t, nil, 30)

	post, err := svc.CreateTextPost(ctx, "u1", &CreatePostRequest{Content: "PB in the 400m"})
	require.NoError(t, err)

	liked, err := svc.ToggleLike(ctx, post.ID, "u2", false)
	require.NoError(t, err)
	assert.True(t, liked.LikedByUser("u2"))

	// a repeated like from a stale view keeps one entry
	liked, err = svc.ToggleLike(ctx, post.ID, "u2", false)
	require.NoError(t, err)
	assert.Equal(t, 1, liked.LikeCount())

	unliked, err := svc.ToggleLike(ctx, post.ID, "u2", true)
	require.NoError(t, err)
	assert.Empty(t, unliked.LikedBy)

	_, err = svc.ToggleLike(ctx, 999, "u2", false)
	assert.ErrorIs(t, err, apperrors.ErrPostNotFound)
}

func TestFeedService_CommentsKeepCounter(t *testing.T) {
	ctx := context.Background()
	svc, posts, log := newTestFeedService(t, nil, 30)

	post, err := svc.CreateTextPost(ctx, "u1", &CreatePostRequest{Content: "match report"})
	require.NoError(t, err)

	_, err = svc.AddComment(ctx, post.ID, "u2", "   ")
	assert.ErrorIs(t, err, apperrors.ErrEmptyText)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AddComment(ctx, post.ID, "u2", "well played")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stored, err := posts.Get(ctx, post.ID)
	require.NoError(t, err)
	comments, err := svc.ListComments(ctx, post.ID)
	require.NoError(t, err)
	assert.Len(t, comments, 10)
	assert.Equal(t, len(comments), stored.CommentCount)
	assert.Equal(t, "Name u2", comments[0].AuthorName)

	assert.Contains(t, log.published(), realtime.CommentsTopic(post.ID))

	_, err = svc.AddComment(ctx, 12345, "u2", "orphan")
	assert.ErrorIs(t, err, apperrors.ErrPostNotFound)
}

func TestFeedService_DeleteOnlyByAuthor(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestFeedService(t, nil, 30)

	post, err := svc.CreateTextPost(ctx, "u1", &CreatePostRequest{Content: "mine"})
	require.NoError(t, err)

	err = svc.DeletePost(ctx, post.ID, "u2")
	assert.ErrorIs(t, err, apperrors.ErrNotPostAuthor)

	require.NoError(t, svc.DeletePost(ctx, post.ID, "u1"))

	err = svc.DeletePost(ctx, post.ID, "u1")
	assert.ErrorIs(t, err, apperrors.ErrPostNotFound)

	_, err = svc.ListComments(ctx, post.ID)
	assert.ErrorIs(t, err, apperrors.ErrPostNotFound)
}

func TestFeedService_SubscribeFeedFiltered(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc, _, _ := newTestFeedService(t, nil, 30)

	snaps := &latest[[]*model.Post]{}
	sub, err := svc.SubscribeFeed(ctx, "Badminton", snaps.deliver)
	require.NoError(t, err)
	defer sub.Close()

	_, err = svc.CreateTextPost(ctx, "u1", &CreatePostRequest{Content: "smash", Sport: "Badminton"})
	require.NoError(t, err)
	_, err = svc.CreateTextPost(ctx, "u1", &CreatePostRequest{Content: "goal", Sport: "Football"})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		got, _ := snaps.last()
		return len(got) == 1 && got[0].Content == "smash"
	}, 2*time.Second, 10*time.Millisecond)

	_, err = svc.SubscribeFeed(ctx, "Curling", snaps.deliver)
	assert.ErrorIs(t, err, apperrors.ErrInvalidSport)
}
