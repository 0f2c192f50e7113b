package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"pichat/internal/llm"
)

type MockClient struct {
	mock.Mock
}

func (m *MockClient) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func (m *MockClient) Chat(ctx context.Context, system string, contents []llm.Content, decls []llm.FunctionDeclaration) (*llm.Content, error) {
	args := m.Called(ctx, system, contents, decls)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*llm.Content), args.Error(1)
}
