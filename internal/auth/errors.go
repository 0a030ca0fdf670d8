package auth

import "errors"

var (
	// ErrInvalidToken indicates the token failed signature or claims validation.
	ErrInvalidToken = errors.New("invalid token")

	// ErrUnauthorized indicates missing or unusable credentials.
	ErrUnauthorized = errors.New("unauthorized")
)
