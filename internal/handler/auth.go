package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abhishek-bajpai1/athletecho/internal/middleware"
	"github.com/abhishek-bajpai1/athletecho/internal/service"
	apperrors "github.com/abhishek-bajpai1/athletecho/pkg/errors"
	"github.com/abhishek-bajpai1/athletecho/pkg/response"
)

// AuthHandler serves sign-in and session endpoints.
type AuthHandler struct {
	authService AuthService
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(authService AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// RefreshRequest carries a refresh token.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Login starts a Google sign-in
// @Summary      Start sign-in
// @Description  Returns the identity provider consent URL. With redirect=true the client is redirected there directly.
// @Tags         auth
// @Produce      json
// @Param        redirect  query  bool  false  "redirect to the provider"
// @Success      200  {object}  response.Response{data=object{url=string}}
// @Failure      200  {object}  response.Response
// @Router       /auth/google/login [get]
func (h *AuthHandler) Login(c *gin.Context) {
	url, err := h.authService.LoginURL(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	if c.Query("redirect") == "true" {
		c.Redirect(http.StatusFound, url)
		return
	}
	response.Success(c, gin.H{"url": url})
}

// Callback finishes a Google sign-in
// @Summary      Finish sign-in
// @Description  Exchanges the authorization code, creates or refreshes the directory entry and opens a session.
// @Tags         auth
// @Produce      json
// @Param        state      query  string  true   "state returned by the provider"
// @Param        code       query  string  true   "authorization code"
// @Param        device_id  query  string  false  "client device id"
// @Param        platform   query  string  false  "web, android or ios"
// @Success      200  {object}  response.Response{data=service.LoginResponse}
// @Failure      200  {object}  response.Response
// @Router       /auth/google/callback [get]
func (h *AuthHandler) Callback(c *gin.Context) {
	state := c.Query("state")
	code := c.Query("code")
	if state == "" || code == "" {
		response.Error(c, apperrors.ErrInvalidOAuthState)
		return
	}

	device := service.DeviceInfo{
		DeviceID: c.Query("device_id"),
		Platform: c.DefaultQuery("platform", "web"),
	}
	resp, err := h.authService.Callback(c.Request.Context(), state, code, device)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, resp)
}

// Refresh rotates a token pair
// @Summary      Refresh tokens
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body  RefreshRequest  true  "refresh token"
// @Success      200  {object}  response.Response{data=service.LoginResponse}
// @Failure      200  {object}  response.Response
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidParams(c, err)
		return
	}

	resp, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, resp)
}

// Logout ends the current session
// @Summary      Sign out
// @Description  Revokes the access token and marks the user offline.
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	userID := middleware.GetUserID(c)
	platform := middleware.GetPlatform(c)
	accessToken := middleware.GetAccessToken(c)

	if err := h.authService.Logout(c.Request.Context(), userID, platform, accessToken); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, nil)
}
