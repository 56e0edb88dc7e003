package service

import "errors"

// Error kinds the REST layer branches on with errors.Is. Handlers must
// never match on message text; NotFound vs Unauthorized in particular
// map to different status codes.
var (
	ErrNotFound           = errors.New("resource not found")
	ErrUnauthorized       = errors.New("resource does not belong to the user")
	ErrLogExists          = errors.New("a log already exists for this date")
	ErrGenerationFailed   = errors.New("failed to generate a response")
	ErrInsufficientTokens = errors.New("no chat tokens remaining")
	ErrInvalidDate        = errors.New("invalid date")
)
