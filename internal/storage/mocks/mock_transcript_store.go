package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"pichat/internal/model"
	"pichat/internal/storage"
)

type MockTranscriptStore struct {
	mock.Mock
}

func (m *MockTranscriptStore) Put(ctx context.Context, key string, tr *model.Transcript) (storage.ObjectInfo, error) {
	args := m.Called(ctx, key, tr)
	return args.Get(0).(storage.ObjectInfo), args.Error(1)
}

func (m *MockTranscriptStore) Get(ctx context.Context, key string) (*model.Transcript, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Transcript), args.Error(1)
}

func (m *MockTranscriptStore) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockTranscriptStore) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, key, expiry)
	return args.String(0), args.Error(1)
}
