package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/abhishek-bajpai1/athletecho/pkg/errors"
)

// Response is the envelope of every API reply.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// Success writes a successful reply.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    apperrors.CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

// Error writes the predefined error e.
func Error(c *gin.Context, e *apperrors.AppError) {
	c.JSON(http.StatusOK, Response{
		Code:    e.Code,
		Message: e.Message,
		Data:    nil,
	})
}

// ErrorWithMsg writes code with a custom message.
func ErrorWithMsg(c *gin.Context, code int, message string) {
	c.JSON(http.StatusOK, Response{
		Code:    code,
		Message: message,
		Data:    nil,
	})
}

// ErrorFromAppError translates any error into a reply. Errors that are not
// AppErrors are reported as CodeServerError.
func ErrorFromAppError(c *gin.Context, err error) {
	status := http.StatusOK
	if apperrors.Is(err, apperrors.ErrBackendUnavailable) {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, Response{
		Code:    apperrors.GetCode(err),
		Message: apperrors.GetMessage(err),
		Data:    nil,
	})
}

// Unauthorized rejects a request without valid credentials.
func Unauthorized(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, Response{
		Code:    apperrors.CodeTokenInvalid,
		Message: apperrors.ErrTokenInvalid.Message,
		Data:    nil,
	})
}

// TooManyRequests rejects a rate limited request.
func TooManyRequests(c *gin.Context) {
	c.JSON(http.StatusTooManyRequests, Response{
		Code:    apperrors.CodeTooManyRequest,
		Message: apperrors.ErrTooManyRequest.Message,
		Data:    nil,
	})
}
