package constants

import "errors"

// Authentication errors.
var (
	ErrNoCredentialProvider = errors.New("no credential provider configured")
	ErrEmptyToken           = errors.New("login response contained an empty token")
)
