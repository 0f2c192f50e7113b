package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"pichat/internal/model"
	"pichat/internal/service"
)

type MockArchiveService struct {
	mock.Mock
}

func (m *MockArchiveService) Archive(ctx context.Context, conv *model.Conversation, entries []model.TranscriptEntry) error {
	args := m.Called(ctx, conv, entries)
	return args.Error(0)
}

func (m *MockArchiveService) Get(ctx context.Context, id string) (*model.Conversation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Conversation), args.Error(1)
}

func (m *MockArchiveService) List(ctx context.Context, limit, offset int) (*service.ConversationListResult, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ConversationListResult), args.Error(1)
}

func (m *MockArchiveService) Transcript(ctx context.Context, id string) (*model.Transcript, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Transcript), args.Error(1)
}

func (m *MockArchiveService) Enabled() bool {
	return m.Called().Bool(0)
}
