package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hackgods/clinic-appointments/internal/appointment"
)

type AppointmentService interface {
	Create(ctx context.Context, req appointment.CreateRequest) (*appointment.View, error)
	Update(ctx context.Context, id uuid.UUID, req appointment.UpdateRequest) (*appointment.View, error)
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*appointment.View, error)
	FindAll(ctx context.Context) ([]appointment.View, error)
	FindByPatient(ctx context.Context, patientID uuid.UUID) ([]appointment.View, error)
	FindByDoctor(ctx context.Context, doctorID uuid.UUID) ([]appointment.View, error)
	FindFutureByPatient(ctx context.Context, patientID uuid.UUID) ([]appointment.View, error)
}

type AppointmentHandler struct {
	svc    AppointmentService
	logger *slog.Logger
}

func NewAppointmentHandler(svc AppointmentService, logger *slog.Logger) *AppointmentHandler {
	return &AppointmentHandler{svc: svc, logger: logger}
}

func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req appointment.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return
	}

	view, err := h.svc.Create(r.Context(), req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, view)
}

func (h *AppointmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "invalid_appointment_id")
	if !ok {
		return
	}

	var req appointment.UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return
	}

	view, err := h.svc.Update(r.Context(), id, req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

func (h *AppointmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "invalid_appointment_id")
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		h.handleError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AppointmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "invalid_appointment_id")
	if !ok {
		return
	}

	view, err := h.svc.FindByID(r.Context(), id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	views, err := h.svc.FindAll(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *AppointmentHandler) ListByPatient(w http.ResponseWriter, r *http.Request) {
	patientID, ok := parseID(w, r, "patientId", "invalid_patient_id")
	if !ok {
		return
	}

	views, err := h.svc.FindByPatient(r.Context(), patientID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *AppointmentHandler) ListFutureByPatient(w http.ResponseWriter, r *http.Request) {
	patientID, ok := parseID(w, r, "patientId", "invalid_patient_id")
	if !ok {
		return
	}

	views, err := h.svc.FindFutureByPatient(r.Context(), patientID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *AppointmentHandler) ListByDoctor(w http.ResponseWriter, r *http.Request) {
	doctorID, ok := parseID(w, r, "doctorId", "invalid_doctor_id")
	if !ok {
		return
	}

	views, err := h.svc.FindByDoctor(r.Context(), doctorID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func parseID(w http.ResponseWriter, r *http.Request, param, code string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		writeError(w, http.StatusBadRequest, code, param+" must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

func (h *AppointmentHandler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *appointment.ValidationError

	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_failed",
			Details: "request validation failed",
			Fields:  verr.Fields,
		})
	case errors.Is(err, appointment.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, appointment.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, appointment.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
	case errors.Is(err, appointment.ErrDoctorNotFound):
		writeError(w, http.StatusNotFound, "doctor_not_found", err.Error())
	default:
		h.logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "request_id", GetRequestID(r.Context()), "err", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
