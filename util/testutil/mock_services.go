package testutil

import (
	"context"
	"sync"

	"github.com/assetcrawler/import-services/models/common"
	"github.com/assetcrawler/import-services/network"
)

// MockStorageProvider hands out sessions that return a fixed listing
// or a fixed error. It records whether sessions were opened and closed.
type MockStorageProvider struct {
	ConnectErr error
	Entries    []string
	ListErr    error
	Truncated  bool

	mutex      sync.Mutex
	connects   int
	closes     int
	listedDirs []string
}

func (p *MockStorageProvider) Name() string {
	return "mock"
}

func (p *MockStorageProvider) Connect(ctx context.Context) (network.StorageSession, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.connects++
	if p.ConnectErr != nil {
		return nil, p.ConnectErr
	}
	return &mockSession{provider: p}, nil
}

// Connects returns the number of times Connect was called.
func (p *MockStorageProvider) Connects() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.connects
}

// Closes returns the number of sessions that were closed.
func (p *MockStorageProvider) Closes() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.closes
}

// ListedDirs returns the directories passed to List, in order.
func (p *MockStorageProvider) ListedDirs() []string {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return append([]string{}, p.listedDirs...)
}

type mockSession struct {
	provider *MockStorageProvider
}

func (s *mockSession) List(ctx context.Context, dir string) ([]string, error) {
	s.provider.mutex.Lock()
	defer s.provider.mutex.Unlock()
	s.provider.listedDirs = append(s.provider.listedDirs, dir)
	if s.provider.ListErr != nil {
		return nil, s.provider.ListErr
	}
	return append([]string{}, s.provider.Entries...), nil
}

func (s *mockSession) Truncated() bool {
	return s.provider.Truncated
}

func (s *mockSession) Close() error {
	s.provider.mutex.Lock()
	defer s.provider.mutex.Unlock()
	s.provider.closes++
	return nil
}

// SentMessage is one message recorded by MockQueueTransport.
type SentMessage struct {
	Target common.QueueTarget
	Body   string
}

// MockQueueTransport records every message it is asked to send. If
// FailWhen returns true for a body, Send returns FailErr instead.
type MockQueueTransport struct {
	FailErr  error
	FailWhen func(body string) bool

	mutex  sync.Mutex
	sent   []SentMessage
	calls  int
	closed bool
}

func (q *MockQueueTransport) Name() string {
	return "mock"
}

func (q *MockQueueTransport) Send(ctx context.Context, target common.QueueTarget, body string) error {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	q.calls++
	if q.FailWhen != nil && q.FailWhen(body) {
		return q.FailErr
	}
	q.sent = append(q.sent, SentMessage{Target: target, Body: body})
	return nil
}

func (q *MockQueueTransport) Close() error {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	q.closed = true
	return nil
}

// Sent returns the messages that were sent successfully, in the order
// they arrived.
func (q *MockQueueTransport) Sent() []SentMessage {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	return append([]SentMessage{}, q.sent...)
}

// Calls returns the number of Send calls, failed ones included.
func (q *MockQueueTransport) Calls() int {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	return q.calls
}

func (q *MockQueueTransport) Closed() bool {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	return q.closed
}
