package mocks

import (
	"context"
	"sync"

	"github.com/AchilleasB/care-portal/care-portal-service/internal/core/ports"
)

// MockCareEventPublisher implements ports.CareEventPublisher for testing
// the relay without a RabbitMQ connection.
type MockCareEventPublisher struct {
	mu sync.RWMutex

	PublishedEvents  []ports.CareEvent
	PublishError     error
	PublishCallCount int

	// FailIDs makes publishing of the listed event ids fail.
	FailIDs map[string]error
}

var _ ports.CareEventPublisher = (*MockCareEventPublisher)(nil)

func NewMockCareEventPublisher() *MockCareEventPublisher {
	return &MockCareEventPublisher{PublishedEvents: make([]ports.CareEvent, 0)}
}

func (m *MockCareEventPublisher) PublishCareEvent(ctx context.Context, evt ports.CareEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.PublishCallCount++
	if m.PublishError != nil {
		return m.PublishError
	}
	if err, ok := m.FailIDs[evt.ID]; ok {
		return err
	}
	m.PublishedEvents = append(m.PublishedEvents, evt)
	return nil
}

func (m *MockCareEventPublisher) GetPublishedEvents() []ports.CareEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	events := make([]ports.CareEvent, len(m.PublishedEvents))
	copy(events, m.PublishedEvents)
	return events
}

func (m *MockCareEventPublisher) GetPublishCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.PublishCallCount
}
