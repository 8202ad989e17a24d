package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/abhishek-bajpai1/athletecho/pkg/errors"
	"github.com/abhishek-bajpai1/athletecho/pkg/jwt"
	"github.com/abhishek-bajpai1/athletecho/pkg/response"
)

const (
	ctxUserID      = "user_id"
	ctxDeviceID    = "device_id"
	ctxPlatform    = "platform"
	ctxAccessToken = "access_token"
)

// Authenticator validates an access token against the live sessions.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*jwt.Claims, error)
}

// TokenAuth requires a signed-in access token. Browsers cannot set headers
// on WebSocket upgrades, so the token may also come as the access_token
// query parameter.
func TokenAuth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c.GetHeader("Authorization"))
		if token == "" {
			token = c.Query("access_token")
		}
		if token == "" {
			response.Unauthorized(c)
			c.Abort()
			return
		}

		claims, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			if apperrors.Is(err, apperrors.ErrBackendUnavailable) {
				response.ErrorFromAppError(c, err)
			} else if apperrors.Is(err, apperrors.ErrTokenExpired) {
				response.Error(c, apperrors.ErrTokenExpired)
			} else {
				response.Error(c, apperrors.ErrTokenInvalid)
			}
			c.Abort()
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxDeviceID, claims.DeviceID)
		c.Set(ctxPlatform, string(claims.Platform))
		c.Set(ctxAccessToken, token)
		c.Next()
	}
}

// extractToken returns the bearer token of an Authorization header.
func extractToken(authHeader string) string {
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

// GetUserID returns the signed-in user's uid.
func GetUserID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

// GetDeviceID returns the device of the session.
func GetDeviceID(c *gin.Context) string {
	return c.GetString(ctxDeviceID)
}

// GetPlatform returns the platform of the session.
func GetPlatform(c *gin.Context) string {
	return c.GetString(ctxPlatform)
}

// GetAccessToken returns the token the request was authenticated with.
func GetAccessToken(c *gin.Context) string {
	return c.GetString(ctxAccessToken)
}
