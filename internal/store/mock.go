package store

import (
	"github.com/stretchr/testify/mock"

	"github.com/npezzotti/go-hangout/internal/types"
)

type MockHangoutStore struct {
	mock.Mock
}

func (m *MockHangoutStore) Ping() error {
	args := m.Called()
	return args.Error(0)
}
func (m *MockHangoutStore) EnsureAccount(username, email string) (types.User, error) {
	args := m.Called(username, email)
	return args.Get(0).(types.User), args.Error(1)
}
func (m *MockHangoutStore) GetAccount(username string) (types.User, error) {
	args := m.Called(username)
	return args.Get(0).(types.User), args.Error(1)
}
func (m *MockHangoutStore) EnsureBrowser(username, browserId string) error {
	args := m.Called(username, browserId)
	return args.Error(0)
}
func (m *MockHangoutStore) UpsertHangout(owner string, record types.Hangout) error {
	args := m.Called(owner, record)
	return args.Error(0)
}
func (m *MockHangoutStore) AppendMessageHistory(owner, counterpart string, msg types.Message) error {
	args := m.Called(owner, counterpart, msg)
	return args.Error(0)
}
func (m *MockHangoutStore) EnqueueForBrowser(owner, browserId string, queue Queue, record types.Hangout) error {
	args := m.Called(owner, browserId, queue, record)
	return args.Error(0)
}
func (m *MockHangoutStore) DrainBrowserQueue(owner, browserId string, queue Queue) ([]types.Hangout, error) {
	args := m.Called(owner, browserId, queue)
	if records, ok := args.Get(0).([]types.Hangout); ok {
		return records, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *MockHangoutStore) AppendUnread(owner string, record types.Hangout) error {
	args := m.Called(owner, record)
	return args.Error(0)
}
func (m *MockHangoutStore) ClearUnread(owner, counterpart string) error {
	args := m.Called(owner, counterpart)
	return args.Error(0)
}
func (m *MockHangoutStore) GetMessages(owner, counterpart string, limit int) ([]types.Message, error) {
	args := m.Called(owner, counterpart, limit)
	if msgs, ok := args.Get(0).([]types.Message); ok {
		return msgs, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *MockHangoutStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
