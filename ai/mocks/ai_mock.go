package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, instructions string, input string) (string, error) {
	args := m.Called(ctx, instructions, input)
	return args.String(0), args.Error(1)
}

func (m *MockGenerator) ModelVersion() string {
	args := m.Called()
	return args.String(0)
}
