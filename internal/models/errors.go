package models

import "errors"

// Application-wide standard errors
var (
	// Common resource/DB errors
	ErrNotFound = errors.New("resource not found")

	// User & authentication errors
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user with this username already exists")
	ErrEmailAlreadyExists = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrForbidden          = errors.New("forbidden")

	// Token errors
	ErrTokenInvalid   = errors.New("token is invalid")
	ErrTokenMalformed = errors.New("token is malformed")
	ErrTokenExpired   = errors.New("token has expired")

	// Authoring & publishing errors
	ErrOperationInFlight  = errors.New("another persistence operation is already in flight for this draft")
	ErrGenerationInFlight = errors.New("a generation request is already in flight")
	ErrAlreadyPublished   = errors.New("story is already published")
	ErrNotPublished       = errors.New("story is not published")
	ErrNotStoryOwner      = errors.New("story does not belong to this user")
	ErrEmptyPrompt        = errors.New("generation prompt is empty")
	ErrGenerationFailed   = errors.New("story generation failed")
	ErrEmptyCompletion    = errors.New("generation returned no text")

	// Contest & reward errors
	ErrContestEnded         = errors.New("contest has already ended")
	ErrAlreadyEntered       = errors.New("story is already entered in this contest")
	ErrRewardAlreadyClaimed = errors.New("daily reward already claimed today")

	// General request/server errors
	ErrInternalServer = errors.New("internal server error")
	ErrBadRequest     = errors.New("bad request")
)
