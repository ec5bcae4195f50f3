package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrAppointmentNotFound = fmt.Errorf("appointment %w", ErrNotFound)
	ErrPatientNotFound     = fmt.Errorf("patient %w", ErrNotFound)
	ErrDoctorNotFound      = fmt.Errorf("doctor %w", ErrNotFound)
)

// Store is the durable keyed storage for appointments. It owns id assignment
// and the createdAt/updatedAt timestamps.
type Store interface {
	// Save inserts when a.ID is uuid.Nil and assigns a fresh id, otherwise it
	// overwrites every mutable field of the existing row and refreshes
	// UpdatedAt. Updating a missing id returns ErrAppointmentNotFound.
	Save(ctx context.Context, a *Appointment) (*Appointment, error)

	FindByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	FindAll(ctx context.Context) ([]Appointment, error)
	FindByPatient(ctx context.Context, patientID uuid.UUID) ([]Appointment, error)
	FindByDoctor(ctx context.Context, doctorID uuid.UUID) ([]Appointment, error)

	// FindFutureByPatient returns appointments dated at or after from,
	// earliest first.
	FindFutureByPatient(ctx context.Context, patientID uuid.UUID, from time.Time) ([]Appointment, error)

	DeleteByID(ctx context.Context, id uuid.UUID) error
}
