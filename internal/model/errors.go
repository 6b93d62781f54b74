package model

import "errors"

var (
	// ErrNotFound is returned by stores when an entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation marks an empty required field or a malformed value.
	ErrValidation = errors.New("validation error")
	// ErrCaptchaMismatch is returned when the captcha guess does not match the challenge.
	ErrCaptchaMismatch = errors.New("invalid verification code")
	// ErrInvalidCredentials is returned when the login key or password is wrong.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrExternalService wraps failures of the text-completion collaborator.
	ErrExternalService = errors.New("external service error")

	ErrForbidden    = errors.New("forbidden")
	ErrInvalidState = errors.New("operation not allowed in current session state")
)
