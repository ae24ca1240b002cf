package user

import "errors"

// Module errors.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("email already registered")
	ErrForbidden          = errors.New("forbidden")

	// Profile errors
	ErrTitleReserved  = errors.New("the Admin title is reserved")
	ErrAvatarTooLarge = errors.New("avatar image exceeds the 1 MiB limit")
	ErrAvatarInvalid  = errors.New("avatar data URI is malformed")
)
