package errors

import (
	"errors"
	"fmt"
)

// AppError is a business error carrying a stable code for API clients.
type AppError struct {
	Code    int    // error code
	Message string // user-facing message
	Err     error  // underlying cause, optional
}

// Error implements error.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap supports errors.Unwrap.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match two AppErrors by code, so wrapped copies still
// compare equal to the predefined values below.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewError creates an error with the given code.
func NewError(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap returns a copy of e with err attached as cause.
func (e *AppError) Wrap(err error) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Err:     err,
	}
}

// Is reports whether err is, or wraps, an AppError with target's code.
func Is(err error, target *AppError) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == target.Code
	}
	return false
}

// GetCode returns the code of err, or CodeServerError for foreign errors.
func GetCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeServerError
}

// GetMessage returns the user-facing message of err.
func GetMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "internal server error"
}

// ============== codes ==============

const (
	CodeSuccess = 0

	// auth 10000-10999
	CodeTokenInvalid      = 10003
	CodeTokenExpired      = 10004
	CodeInvalidOAuthState = 10006
	CodeIdentityFailed    = 10007

	// user 11000-11999
	CodeUserNotFound  = 11001
	CodeInvalidParams = 11002

	// connection 12000-12999
	CodeConnectionNotFound  = 12001
	CodeAlreadyConnected    = 12002
	CodeCannotConnectSelf   = 12003
	CodeConnectionExists    = 12004
	CodeNotRequestRecipient = 12005

	// messaging 13000-13999
	CodeConversationNotFound = 13001
	CodeNotParticipant       = 13002
	CodeEmptyText            = 13003
	CodeSelfConversation     = 13004

	// feed 14000-14999
	CodePostNotFound      = 14001
	CodeNotPostAuthor     = 14002
	CodeImageUploadFailed = 14003
	CodeEmptyPost         = 14004
	CodeInvalidSport      = 14005

	// system 50000-50999
	CodeServerError        = 50001
	CodeDBError            = 50002
	CodeTooManyRequest     = 50003
	CodeBackendUnavailable = 50004
)

// ============== predefined errors ==============

// auth
var (
	ErrTokenInvalid      = NewError(CodeTokenInvalid, "invalid token")
	ErrTokenExpired      = NewError(CodeTokenExpired, "token expired")
	ErrInvalidOAuthState = NewError(CodeInvalidOAuthState, "sign-in session expired, please try again")
	ErrIdentityFailed    = NewError(CodeIdentityFailed, "identity provider rejected the sign-in")
)

// user
var (
	ErrUserNotFound  = NewError(CodeUserNotFound, "user not found")
	ErrInvalidParams = NewError(CodeInvalidParams, "invalid parameters")
)

// connection
var (
	ErrConnectionNotFound  = NewError(CodeConnectionNotFound, "connection request not found")
	ErrAlreadyConnected    = NewError(CodeAlreadyConnected, "already connected")
	ErrCannotConnectSelf   = NewError(CodeCannotConnectSelf, "cannot connect with yourself")
	ErrConnectionExists    = NewError(CodeConnectionExists, "a connection request already exists")
	ErrNotRequestRecipient = NewError(CodeNotRequestRecipient, "only the recipient can accept a request")
)

// messaging
var (
	ErrConversationNotFound = NewError(CodeConversationNotFound, "conversation not found")
	ErrNotParticipant       = NewError(CodeNotParticipant, "not a participant of this conversation")
	ErrEmptyText            = NewError(CodeEmptyText, "text must not be empty")
	ErrSelfConversation     = NewError(CodeSelfConversation, "cannot start a conversation with yourself")
)

// feed
var (
	ErrPostNotFound      = NewError(CodePostNotFound, "post not found")
	ErrNotPostAuthor     = NewError(CodeNotPostAuthor, "only the author can delete a post")
	ErrImageUploadFailed = NewError(CodeImageUploadFailed, "image upload failed")
	ErrEmptyPost         = NewError(CodeEmptyPost, "post needs content or an image")
	ErrInvalidSport      = NewError(CodeInvalidSport, "unknown sport")
)

// system
var (
	ErrServerError        = NewError(CodeServerError, "internal server error")
	ErrDBError            = NewError(CodeDBError, "database error")
	ErrTooManyRequest     = NewError(CodeTooManyRequest, "too many requests, please retry later")
	ErrBackendUnavailable = NewError(CodeBackendUnavailable, "backend unavailable")
)
