package ai

import (
	"context"
	"errors"
)

var ErrEmptyResponse = errors.New("model returned no content")

// Generator produces assistant text from a system instruction and a user
// input. Implementations are expected to be safe for concurrent use.
type Generator interface {
	Generate(ctx context.Context, instructions string, input string) (string, error)
	ModelVersion() string
}
