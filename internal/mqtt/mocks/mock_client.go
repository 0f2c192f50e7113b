package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"pichat/internal/model"
)

type MockClient struct {
	mock.Mock
}

func (m *MockClient) Connect(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockClient) Close() {
	m.Called()
}

func (m *MockClient) SendChat(ctx context.Context, to, body string) (model.ChatMessage, error) {
	args := m.Called(ctx, to, body)
	return args.Get(0).(model.ChatMessage), args.Error(1)
}

func (m *MockClient) PublishPresence(online bool) error {
	args := m.Called(online)
	return args.Error(0)
}

func (m *MockClient) AnnounceSubject(subject string) error {
	args := m.Called(subject)
	return args.Error(0)
}

func (m *MockClient) Messages() <-chan model.ChatMessage {
	args := m.Called()
	return args.Get(0).(chan model.ChatMessage)
}

func (m *MockClient) PeerOnline(node string) bool {
	args := m.Called(node)
	return args.Bool(0)
}

func (m *MockClient) PeerSubject(node string) string {
	args := m.Called(node)
	return args.String(0)
}

func (m *MockClient) Connected() bool {
	args := m.Called()
	return args.Bool(0)
}
