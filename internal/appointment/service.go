package appointment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/hackgods/clinic-appointments/internal/notification"
	"github.com/hackgods/clinic-appointments/internal/user"
)

const tracerName = "github.com/hackgods/clinic-appointments/internal/appointment"

// EventPublisher hands lifecycle events to the broker. Publish must not block
// indefinitely and reports nothing back; delivery failures stay inside the
// messaging layer.
type EventPublisher interface {
	Publish(ctx context.Context, ev notification.Event)
}

// Service is the appointment lifecycle manager. It decides when the status
// changes and which notification event goes out.
//
// There is no per-appointment locking: concurrent updates of the same id race
// at the store and the last write wins. Status changes are not guarded either,
// any of the four statuses may follow any other.
type Service struct {
	store     Store
	users     user.Resolver
	publisher EventPublisher
	logger    *slog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

func NewService(store Store, users user.Resolver, publisher EventPublisher, logger *slog.Logger) *Service {
	return &Service{
		store:     store,
		users:     users,
		publisher: publisher,
		logger:    logger.With("component", "appointment_service"),
		tracer:    otel.Tracer(tracerName),
		now:       time.Now,
	}
}

// WithClock replaces the clock used for "future" queries.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Create books a new appointment. The status is always SCHEDULED whatever the
// request carries. A failed notification never undoes the stored record.
func (s *Service) Create(ctx context.Context, req CreateRequest) (_ *View, err error) {
	ctx, span := s.tracer.Start(ctx, "appointment.Create")
	defer func() { endSpan(span, err) }()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	patient, err := s.resolve(ctx, req.PatientID, ErrPatientNotFound)
	if err != nil {
		return nil, err
	}
	doctor, err := s.resolve(ctx, req.DoctorID, ErrDoctorNotFound)
	if err != nil {
		return nil, err
	}

	saved, err := s.store.Save(ctx, &Appointment{
		PatientID:       req.PatientID,
		PatientName:     patient.FullName,
		DoctorID:        req.DoctorID,
		DoctorName:      doctor.FullName,
		AppointmentDate: req.AppointmentDate,
		Specialty:       req.Specialty,
		Notes:           req.Notes,
		Status:          StatusScheduled,
	})
	if err != nil {
		return nil, fmt.Errorf("save appointment: %w", err)
	}
	span.SetAttributes(attribute.String("appointment.id", saved.ID.String()))

	s.logger.InfoContext(ctx, "appointment created",
		"appointment_id", saved.ID, "patient_id", saved.PatientID, "doctor_id", saved.DoctorID)

	s.publisher.Publish(ctx, buildEvent(saved, patient.Email, notification.EventCreated))

	view := toView(saved)
	return &view, nil
}

// Update applies the non-nil fields of req. The patient is re-resolved for
// current contact details; the doctor is not.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateRequest) (_ *View, err error) {
	ctx, span := s.tracer.Start(ctx, "appointment.Update",
		trace.WithAttributes(attribute.String("appointment.id", id.String())))
	defer func() { endSpan(span, err) }()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, wrapStoreErr("load appointment", err)
	}

	patient, err := s.resolve(ctx, existing.PatientID, ErrPatientNotFound)
	if err != nil {
		return nil, err
	}

	if req.AppointmentDate != nil {
		existing.AppointmentDate = *req.AppointmentDate
	}
	if req.Notes != nil {
		existing.Notes = *req.Notes
	}
	if req.Status != nil {
		existing.Status = *req.Status
	}

	updated, err := s.store.Save(ctx, existing)
	if err != nil {
		return nil, wrapStoreErr("save appointment", err)
	}

	eventType := notification.EventUpdated
	if updated.Status == StatusCancelled {
		eventType = notification.EventCancelled
	}

	s.logger.InfoContext(ctx, "appointment updated",
		"appointment_id", updated.ID, "status", updated.Status, "event_type", eventType)

	s.publisher.Publish(ctx, buildEvent(updated, patient.Email, eventType))

	view := toView(updated)
	return &view, nil
}

// Delete removes the appointment. No notification is sent for deletes.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) (err error) {
	ctx, span := s.tracer.Start(ctx, "appointment.Delete",
		trace.WithAttributes(attribute.String("appointment.id", id.String())))
	defer func() { endSpan(span, err) }()

	if _, err := s.store.FindByID(ctx, id); err != nil {
		return wrapStoreErr("load appointment", err)
	}
	if err := s.store.DeleteByID(ctx, id); err != nil {
		return wrapStoreErr("delete appointment", err)
	}

	s.logger.InfoContext(ctx, "appointment deleted", "appointment_id", id)
	return nil
}

func (s *Service) FindByID(ctx context.Context, id uuid.UUID) (_ *View, err error) {
	ctx, span := s.tracer.Start(ctx, "appointment.FindByID",
		trace.WithAttributes(attribute.String("appointment.id", id.String())))
	defer func() { endSpan(span, err) }()

	a, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, wrapStoreErr("get appointment", err)
	}
	view := toView(a)
	return &view, nil
}

func (s *Service) FindAll(ctx context.Context) (_ []View, err error) {
	ctx, span := s.tracer.Start(ctx, "appointment.FindAll")
	defer func() { endSpan(span, err) }()

	list, err := s.store.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return toViews(list), nil
}

func (s *Service) FindByPatient(ctx context.Context, patientID uuid.UUID) (_ []View, err error) {
	ctx, span := s.tracer.Start(ctx, "appointment.FindByPatient",
		trace.WithAttributes(attribute.String("patient.id", patientID.String())))
	defer func() { endSpan(span, err) }()

	list, err := s.store.FindByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("list appointments by patient: %w", err)
	}
	return toViews(list), nil
}

func (s *Service) FindByDoctor(ctx context.Context, doctorID uuid.UUID) (_ []View, err error) {
	ctx, span := s.tracer.Start(ctx, "appointment.FindByDoctor",
		trace.WithAttributes(attribute.String("doctor.id", doctorID.String())))
	defer func() { endSpan(span, err) }()

	list, err := s.store.FindByDoctor(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("list appointments by doctor: %w", err)
	}
	return toViews(list), nil
}

// FindFutureByPatient lists the patient's appointments from now on, earliest
// first.
func (s *Service) FindFutureByPatient(ctx context.Context, patientID uuid.UUID) (_ []View, err error) {
	ctx, span := s.tracer.Start(ctx, "appointment.FindFutureByPatient",
		trace.WithAttributes(attribute.String("patient.id", patientID.String())))
	defer func() { endSpan(span, err) }()

	list, err := s.store.FindFutureByPatient(ctx, patientID, s.now())
	if err != nil {
		return nil, fmt.Errorf("list future appointments by patient: %w", err)
	}
	return toViews(list), nil
}

func (s *Service) resolve(ctx context.Context, id uuid.UUID, notFound error) (*user.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: %s", notFound, id)
		}
		return nil, fmt.Errorf("resolve user %s: %w", id, err)
	}
	return u, nil
}

func buildEvent(a *Appointment, patientEmail string, t notification.EventType) notification.Event {
	return notification.Event{
		AppointmentID:   a.ID,
		PatientName:     a.PatientName,
		PatientEmail:    patientEmail,
		DoctorName:      a.DoctorName,
		AppointmentDate: a.AppointmentDate,
		Specialty:       a.Specialty,
		EventType:       t,
	}
}

func wrapStoreErr(op string, err error) error {
	if errors.Is(err, ErrAppointmentNotFound) {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
