package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/hackgods/clinic-appointments/internal/notification"
)

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, ev notification.Event) {
	m.Called(ctx, ev)
}
