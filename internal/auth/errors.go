package auth

import "errors"

var (
	// ErrEmailAlreadyExists indicates the email is already registered.
	ErrEmailAlreadyExists = errors.New("email already exists")
	// ErrInvalidCredentials is returned when authentication fails.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound signals that the user could not be located.
	ErrUserNotFound = errors.New("user not found")
	// ErrUnauthorized represents missing or invalid authentication tokens.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidRefreshToken is returned for unknown, expired or revoked refresh tokens.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	// ErrInvalidResetToken is returned for unknown, expired or already-used reset tokens.
	ErrInvalidResetToken = errors.New("invalid reset token")
)
