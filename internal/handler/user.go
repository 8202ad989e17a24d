package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abhishek-bajpai1/athletecho/internal/middleware"
	"github.com/abhishek-bajpai1/athletecho/internal/model"
	"github.com/abhishek-bajpai1/athletecho/internal/storage"
	apperrors "github.com/abhishek-bajpai1/athletecho/pkg/errors"
	"github.com/abhishek-bajpai1/athletecho/pkg/response"
)

// UserHandler serves the user directory.
type UserHandler struct {
	userService UserService
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(userService UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// Me returns the caller's profile
// @Summary      Get my profile
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=model.UserProfile}
// @Router       /user/profile [get]
func (h *UserHandler) Me(c *gin.Context) {
	h.profile(c, middleware.GetUserID(c))
}

// Get returns a profile by uid
// @Summary      Get a profile
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        uid  path  string  true  "user id"
// @Success      200  {object}  response.Response{data=model.UserProfile}
// @Failure      200  {object}  response.Response
// @Router       /users/{uid} [get]
func (h *UserHandler) Get(c *gin.Context) {
	h.profile(c, c.Param("uid"))
}

func (h *UserHandler) profile(c *gin.Context, uid string) {
	profile, err := h.userService.GetProfile(c.Request.Context(), uid)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, profile)
}

// List returns every user except the caller
// @Summary      List users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]model.UserProfile}
// @Router       /users [get]
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.userService.ListOthers(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, users)
}

// Update edits the caller's profile
// @Summary      Update my profile
// @Description  Only the fields present in the body are changed.
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body  model.ProfileUpdate  true  "fields to change"
// @Success      200  {object}  response.Response{data=model.UserProfile}
// @Failure      200  {object}  response.Response
// @Router       /user/profile [put]
func (h *UserHandler) Update(c *gin.Context) {
	var req model.ProfileUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidParams(c, err)
		return
	}

	profile, err := h.userService.UpdateProfile(c.Request.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, profile)
}

// UploadPhoto replaces the caller's profile photo
// @Summary      Upload profile photo
// @Tags         users
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        avatar  formData  file  true  "image file"
// @Success      200  {object}  response.Response{data=object{photo_url=string}}
// @Failure      200  {object}  response.Response
// @Router       /user/avatar [post]
func (h *UserHandler) UploadPhoto(c *gin.Context) {
	img, closeFn, err := formImage(c, "avatar")
	if err != nil {
		fail(c, err)
		return
	}
	if img == nil {
		response.Error(c, apperrors.ErrInvalidParams)
		return
	}
	defer closeFn()

	url, err := h.userService.UploadAvatar(c.Request.Context(), middleware.GetUserID(c), img)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"photo_url": url})
}

// formImage opens the optional file field. A missing field yields a nil
// image and no error.
func formImage(c *gin.Context, field string) (*storage.Image, func(), error) {
	header, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, func() {}, apperrors.ErrInvalidParams.Wrap(err)
	}
	f, err := header.Open()
	if err != nil {
		return nil, func() {}, apperrors.ErrImageUploadFailed.Wrap(err)
	}
	return &storage.Image{Filename: header.Filename, Body: f}, func() { _ = f.Close() }, nil
}
