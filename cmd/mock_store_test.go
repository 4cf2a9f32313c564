package cmd

import (
	"time"

	"github.com/stretchr/testify/mock"

	"tidy/internal/txn"
)

// MockStore is a mock implementation of txn.StoreInterface for testing
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Init() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockStore) Save(record txn.Transaction) error {
	args := m.Called(record)
	return args.Error(0)
}

func (m *MockStore) List() ([]txn.Transaction, error) {
	args := m.Called()
	return args.Get(0).([]txn.Transaction), args.Error(1)
}

func (m *MockStore) Get(id string) (txn.Transaction, error) {
	args := m.Called(id)
	return args.Get(0).(txn.Transaction), args.Error(1)
}

func (m *MockStore) MarkUndone(id string, at time.Time) error {
	args := m.Called(id, at)
	return args.Error(0)
}

func (m *MockStore) Delete(id string) (int, error) {
	args := m.Called(id)
	return args.Int(0), args.Error(1)
}

func (m *MockStore) DeleteOlderThan(cutoff time.Time) (int, error) {
	args := m.Called(cutoff)
	return args.Int(0), args.Error(1)
}

func (m *MockStore) CountOlderThan(cutoff time.Time) (int, error) {
	args := m.Called(cutoff)
	return args.Int(0), args.Error(1)
}

func (m *MockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
