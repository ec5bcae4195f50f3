package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/hackgods/clinic-appointments/internal/appointment"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Save(ctx context.Context, a *appointment.Appointment) (*appointment.Appointment, error) {
	args := m.Called(ctx, a)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appointment.Appointment), args.Error(1)
}

func (m *MockStore) FindByID(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appointment.Appointment), args.Error(1)
}

func (m *MockStore) FindAll(ctx context.Context) ([]appointment.Appointment, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]appointment.Appointment), args.Error(1)
}

func (m *MockStore) FindByPatient(ctx context.Context, patientID uuid.UUID) ([]appointment.Appointment, error) {
	args := m.Called(ctx, patientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]appointment.Appointment), args.Error(1)
}

func (m *MockStore) FindByDoctor(ctx context.Context, doctorID uuid.UUID) ([]appointment.Appointment, error) {
	args := m.Called(ctx, doctorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]appointment.Appointment), args.Error(1)
}

func (m *MockStore) FindFutureByPatient(ctx context.Context, patientID uuid.UUID, from time.Time) ([]appointment.Appointment, error) {
	args := m.Called(ctx, patientID, from)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]appointment.Appointment), args.Error(1)
}

func (m *MockStore) DeleteByID(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
