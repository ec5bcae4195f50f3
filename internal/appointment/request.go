package appointment

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var ErrValidation = errors.New("validation failed")

// CreateRequest carries the caller-supplied fields of a new appointment.
// Status is accepted on the wire but ignored: new appointments always start
// as SCHEDULED.
type CreateRequest struct {
	PatientID       uuid.UUID `json:"patientId" validate:"required"`
	DoctorID        uuid.UUID `json:"doctorId" validate:"required"`
	AppointmentDate time.Time `json:"appointmentDate" validate:"required"`
	Specialty       string    `json:"specialty" validate:"required,max=255"`
	Notes           string    `json:"notes" validate:"max=1000"`
	Status          Status    `json:"status,omitempty"`
}

// UpdateRequest is a partial update; nil fields keep their stored value.
type UpdateRequest struct {
	AppointmentDate *time.Time `json:"appointmentDate"`
	Notes           *string    `json:"notes" validate:"omitempty,max=1000"`
	Status          *Status    `json:"status" validate:"omitempty,oneof=SCHEDULED CONFIRMED COMPLETED CANCELLED"`
}

// ValidationError lists the offending fields by their JSON name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e.Fields[name]))
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (r CreateRequest) Validate() error {
	return validationError(validate.Struct(r))
}

func (r UpdateRequest) Validate() error {
	return validationError(validate.Struct(r))
}

func validationError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	out := &ValidationError{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			out.Fields[fe.Field()] = "is required"
		case "oneof":
			out.Fields[fe.Field()] = "must be one of " + fe.Param()
		case "max":
			out.Fields[fe.Field()] = "must be at most " + fe.Param() + " characters"
		default:
			out.Fields[fe.Field()] = "is invalid"
		}
	}
	return out
}
