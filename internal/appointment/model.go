package appointment

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusScheduled Status = "SCHEDULED"
	StatusConfirmed Status = "CONFIRMED"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Appointment is the persisted record. PatientName and DoctorName are
// snapshots taken at creation and are never re-synced.
type Appointment struct {
	ID              uuid.UUID
	PatientID       uuid.UUID
	PatientName     string
	DoctorID        uuid.UUID
	DoctorName      string
	AppointmentDate time.Time
	Specialty       string
	Notes           string
	Status          Status
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// View is the consumer-facing projection returned by the service.
type View struct {
	ID              uuid.UUID `json:"id"`
	PatientID       uuid.UUID `json:"patientId"`
	PatientName     string    `json:"patientName"`
	DoctorID        uuid.UUID `json:"doctorId"`
	DoctorName      string    `json:"doctorName"`
	AppointmentDate time.Time `json:"appointmentDate"`
	Specialty       string    `json:"specialty"`
	Notes           string    `json:"notes,omitempty"`
	Status          Status    `json:"status"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func toView(a *Appointment) View {
	return View{
		ID:              a.ID,
		PatientID:       a.PatientID,
		PatientName:     a.PatientName,
		DoctorID:        a.DoctorID,
		DoctorName:      a.DoctorName,
		AppointmentDate: a.AppointmentDate,
		Specialty:       a.Specialty,
		Notes:           a.Notes,
		Status:          a.Status,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

func toViews(list []Appointment) []View {
	out := make([]View, 0, len(list))
	for i := range list {
		out = append(out, toView(&list[i]))
	}
	return out
}
