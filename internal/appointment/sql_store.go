package appointment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const appointmentColumns = `id, patient_id, patient_name, doctor_id, doctor_name, appointment_date, specialty, notes, status, created_at, updated_at`

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

var _ Store = (*SQLStore)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAppointment(row rowScanner) (*Appointment, error) {
	var a Appointment

	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.PatientName,
		&a.DoctorID,
		&a.DoctorName,
		&a.AppointmentDate,
		&a.Specialty,
		&a.Notes,
		&a.Status,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	return &a, nil
}

func (s *SQLStore) Save(ctx context.Context, a *Appointment) (*Appointment, error) {
	if a.ID == uuid.Nil {
		return s.insert(ctx, a)
	}
	return s.update(ctx, a)
}

func (s *SQLStore) insert(ctx context.Context, a *Appointment) (*Appointment, error) {
	id := uuid.New()

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO appointments (`+appointmentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		RETURNING `+appointmentColumns,
		id,
		a.PatientID,
		a.PatientName,
		a.DoctorID,
		a.DoctorName,
		a.AppointmentDate,
		a.Specialty,
		a.Notes,
		string(a.Status),
	)

	saved, err := scanAppointment(row)
	if err != nil {
		return nil, fmt.Errorf("insert appointment: %w", err)
	}
	return saved, nil
}

func (s *SQLStore) update(ctx context.Context, a *Appointment) (*Appointment, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE appointments
		SET patient_id = $2,
		    patient_name = $3,
		    doctor_id = $4,
		    doctor_name = $5,
		    appointment_date = $6,
		    specialty = $7,
		    notes = $8,
		    status = $9,
		    updated_at = GREATEST(now(), created_at)
		WHERE id = $1
		RETURNING `+appointmentColumns,
		a.ID,
		a.PatientID,
		a.PatientName,
		a.DoctorID,
		a.DoctorName,
		a.AppointmentDate,
		a.Specialty,
		a.Notes,
		string(a.Status),
	)

	saved, err := scanAppointment(row)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update appointment: %w", err)
	}
	return saved, nil
}

func (s *SQLStore) FindByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (s *SQLStore) FindAll(ctx context.Context) ([]Appointment, error) {
	return s.list(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		ORDER BY created_at, id
	`)
}

func (s *SQLStore) FindByPatient(ctx context.Context, patientID uuid.UUID) ([]Appointment, error) {
	return s.list(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE patient_id = $1
		ORDER BY appointment_date, id
	`, patientID)
}

func (s *SQLStore) FindByDoctor(ctx context.Context, doctorID uuid.UUID) ([]Appointment, error) {
	return s.list(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE doctor_id = $1
		ORDER BY appointment_date, id
	`, doctorID)
}

func (s *SQLStore) FindFutureByPatient(ctx context.Context, patientID uuid.UUID, from time.Time) ([]Appointment, error) {
	return s.list(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE patient_id = $1
		  AND appointment_date >= $2
		ORDER BY appointment_date ASC, id
	`, patientID, from)
}

func (s *SQLStore) DeleteByID(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete appointment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete appointment: %w", err)
	}
	if n == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (s *SQLStore) list(ctx context.Context, query string, args ...any) ([]Appointment, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]Appointment, 0)
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
