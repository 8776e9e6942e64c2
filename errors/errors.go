package errors

import "fmt"

var (
	ErrMissingRecipient   = fmt.Errorf("missing required fields: recipientId and content are required")
	ErrEmptyContent       = fmt.Errorf("message content cannot be empty")
	ErrSelfMessage        = fmt.Errorf("cannot send message to yourself")
	ErrInvalidIdentity    = fmt.Errorf("invalid participant identifier")
	ErrInvalidCredentials = fmt.Errorf("invalid email or password")
	ErrEmailTaken         = fmt.Errorf("email already registered")
	ErrInvalidSignup      = fmt.Errorf("invalid signup request")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
	ErrInvalidToken       = fmt.Errorf("invalid or expired token")
	ErrThreadNotFound     = fmt.Errorf("thread not found")
	ErrAccountNotFound    = fmt.Errorf("account not found")
)
