package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/hackgods/clinic-appointments/internal/appointment"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Create(ctx context.Context, req appointment.CreateRequest) (*appointment.View, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appointment.View), args.Error(1)
}

func (m *MockService) Update(ctx context.Context, id uuid.UUID, req appointment.UpdateRequest) (*appointment.View, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appointment.View), args.Error(1)
}

func (m *MockService) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockService) FindByID(ctx context.Context, id uuid.UUID) (*appointment.View, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appointment.View), args.Error(1)
}

func (m *MockService) FindAll(ctx context.Context) ([]appointment.View, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]appointment.View), args.Error(1)
}

func (m *MockService) FindByPatient(ctx context.Context, patientID uuid.UUID) ([]appointment.View, error) {
	args := m.Called(ctx, patientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]appointment.View), args.Error(1)
}

func (m *MockService) FindByDoctor(ctx context.Context, doctorID uuid.UUID) ([]appointment.View, error) {
	args := m.Called(ctx, doctorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]appointment.View), args.Error(1)
}

func (m *MockService) FindFutureByPatient(ctx context.Context, patientID uuid.UUID) ([]appointment.View, error) {
	args := m.Called(ctx, patientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]appointment.View), args.Error(1)
}
