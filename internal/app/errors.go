package app

import "errors"

var (
	// ErrInvalidCredentials is returned for both an unknown email and a
	// password mismatch. One message for both, so responses do not enable
	// account enumeration.
	ErrInvalidCredentials = errors.New("Invalid email or password")

	ErrFieldsRequired           = errors.New("All fields are required")
	ErrInvalidEmail             = errors.New("Invalid email format")
	ErrPasswordTooShort         = errors.New("Password must be at least 6 characters")
	ErrEmailTaken               = errors.New("Email already registered")
	ErrUsernameTaken            = errors.New("Username already taken")
	ErrEmailAndPasswordRequired = errors.New("Email and password are required")
)
