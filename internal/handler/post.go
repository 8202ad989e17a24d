package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/abhishek-bajpai1/athletecho/internal/middleware"
	"github.com/abhishek-bajpai1/athletecho/internal/model"
	"github.com/abhishek-bajpai1/athletecho/internal/service"
	"github.com/abhishek-bajpai1/athletecho/pkg/response"
)

// PostHandler serves the feed.
type PostHandler struct {
	feedService FeedService
}

// NewPostHandler creates a PostHandler.
func NewPostHandler(feedService FeedService) *PostHandler {
	return &PostHandler{feedService: feedService}
}

// TextPostRequest is a post without an image.
type TextPostRequest struct {
	Content string `json:"content"`
	Sport   string `json:"sport"`
}

// LikeRequest carries the like state the client currently shows.
type LikeRequest struct {
	Liked bool `json:"liked"`
}

// CommentRequest carries comment text.
type CommentRequest struct {
	Text string `json:"text"`
}

// Feed returns the recent posts
// @Summary      Recent feed
// @Description  Newest first, filtered by sport. "All" or empty returns every sport.
// @Tags         posts
// @Produce      json
// @Security     BearerAuth
// @Param        sport  query  string  false  "sport filter"
// @Success      200  {object}  response.Response{data=[]model.PostView}
// @Failure      200  {object}  response.Response
// @Router       /posts [get]
func (h *PostHandler) Feed(c *gin.Context) {
	posts, err := h.feedService.RecentFeed(c.Request.Context(), c.Query("sport"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, model.ViewPosts(posts, middleware.GetUserID(c)))
}

// Create publishes a post with an optional image
// @Summary      Create post
// @Tags         posts
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        content  formData  string  false  "text"
// @Param        sport    formData  string  false  "sport tag"
// @Param        image    formData  file    false  "image"
// @Success      200  {object}  response.Response{data=model.PostView}
// @Failure      200  {object}  response.Response
// @Router       /posts [post]
func (h *PostHandler) Create(c *gin.Context) {
	img, closeFn, err := formImage(c, "image")
	if err != nil {
		fail(c, err)
		return
	}
	defer closeFn()

	uid := middleware.GetUserID(c)
	post, err := h.feedService.CreatePost(c.Request.Context(), uid, &service.CreatePostRequest{
		Content: c.PostForm("content"),
		Sport:   c.PostForm("sport"),
		Image:   img,
	})
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, post.ViewFor(uid))
}

// CreateText publishes a post without an image
// @Summary      Create text post
// @Description  Fallback for clients whose image upload failed.
// @Tags         posts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body  TextPostRequest  true  "post"
// @Success      200  {object}  response.Response{data=model.PostView}
// @Failure      200  {object}  response.Response
// @Router       /posts/text [post]
func (h *PostHandler) CreateText(c *gin.Context) {
	var req TextPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidParams(c, err)
		return
	}

	uid := middleware.GetUserID(c)
	post, err := h.feedService.CreateTextPost(c.Request.Context(), uid, &service.CreatePostRequest{
		Content: req.Content,
		Sport:   req.Sport,
	})
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, post.ViewFor(uid))
}

// Like flips the caller's like
// @Summary      Toggle like
// @Tags         posts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path  string       true  "post id"
// @Param        request  body  LikeRequest  true  "current like state"
// @Success      200  {object}  response.Response{data=model.PostView}
// @Failure      200  {object}  response.Response
// @Router       /posts/{id}/like [post]
func (h *PostHandler) Like(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req LikeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidParams(c, err)
		return
	}

	uid := middleware.GetUserID(c)
	post, err := h.feedService.ToggleLike(c.Request.Context(), id, uid, req.Liked)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, post.ViewFor(uid))
}

// Delete removes one of the caller's posts
// @Summary      Delete post
// @Tags         posts
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "post id"
// @Success      200  {object}  response.Response
// @Failure      200  {object}  response.Response
// @Router       /posts/{id} [delete]
func (h *PostHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.feedService.DeletePost(c.Request.Context(), id, middleware.GetUserID(c)); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, nil)
}

// Comments returns a post's comments, oldest first
// @Summary      List comments
// @Tags         posts
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "post id"
// @Success      200  {object}  response.Response{data=[]model.Comment}
// @Failure      200  {object}  response.Response
// @Router       /posts/{id}/comments [get]
func (h *PostHandler) Comments(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	comments, err := h.feedService.ListComments(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, comments)
}

// Comment adds a comment
// @Summary      Add comment
// @Tags         posts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path  string          true  "post id"
// @Param        request  body  CommentRequest  true  "comment"
// @Success      200  {object}  response.Response{data=model.Comment}
// @Failure      200  {object}  response.Response
// @Router       /posts/{id}/comments [post]
func (h *PostHandler) Comment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidParams(c, err)
		return
	}

	comment, err := h.feedService.AddComment(c.Request.Context(), id, middleware.GetUserID(c), req.Text)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, comment)
}
