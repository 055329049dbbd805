package identity

import "errors"

var (
	ErrEmailTaken         = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrExternalAuth       = errors.New("account uses external authentication")
	ErrUserNotFound       = errors.New("user not found")
	ErrWrongPassword      = errors.New("incorrect current password")
	ErrInvalidPasscode    = errors.New("invalid or expired passcode")
	ErrForbidden          = errors.New("insufficient role")
)
