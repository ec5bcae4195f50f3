package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-appointments/internal/appointment"
	"github.com/hackgods/clinic-appointments/internal/appointment/mocks"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestRouter(t *testing.T, svc AppointmentService) http.Handler {
	t.Helper()
	h, err := NewRouter(RouterConfig{
		Service:  svc,
		Logger:   discardLogger,
		Registry: prometheus.NewRegistry(),
		Env:      "test",
		Version:  "v0.0.0",
	})
	require.NoError(t, err)
	return h
}

func do(h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		buf = bytes.NewBufferString(b)
	default:
		raw, _ := json.Marshal(b)
		buf = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func sampleView() *appointment.View {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	return &appointment.View{
		ID:              uuid.New(),
		PatientID:       uuid.New(),
		PatientName:     "Maria Silva",
		DoctorID:        uuid.New(),
		DoctorName:      "Dr. Costa",
		AppointmentDate: now.Add(24 * time.Hour),
		Specialty:       "Cardiology",
		Status:          appointment.StatusScheduled,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func TestCreateAppointment(t *testing.T) {
	view := sampleView()

	t.Run("created", func(t *testing.T) {
		svc := new(mocks.MockService)
		h := newTestRouter(t, svc)

		svc.On("Create", mock.Anything, mock.MatchedBy(func(req appointment.CreateRequest) bool {
			return req.PatientID == view.PatientID && req.Specialty == "Cardiology"
		})).Return(view, nil).Once()

		rec := do(h, http.MethodPost, "/api/appointments", map[string]any{
			"patientId":       view.PatientID,
			"doctorId":        view.DoctorID,
			"appointmentDate": view.AppointmentDate,
			"specialty":       "Cardiology",
		})

		assert.Equal(t, http.StatusCreated, rec.Code)
		var got appointment.View
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		assert.Equal(t, view.ID, got.ID)
		assert.Equal(t, appointment.StatusScheduled, got.Status)
		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
		svc.AssertExpectations(t)
	})

	t.Run("malformed body", func(t *testing.T) {
		h := newTestRouter(t, new(mocks.MockService))

		rec := do(h, http.MethodPost, "/api/appointments", "{not json")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid_request_body", decodeError(t, rec).Error)
	})

	t.Run("validation failure lists fields", func(t *testing.T) {
		svc := new(mocks.MockService)
		h := newTestRouter(t, svc)

		svc.On("Create", mock.Anything, mock.Anything).Return(nil, &appointment.ValidationError{
			Fields: map[string]string{"doctorId": "is required"},
		}).Once()

		rec := do(h, http.MethodPost, "/api/appointments", map[string]any{"specialty": "x"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeError(t, rec)
		assert.Equal(t, "validation_failed", body.Error)
		assert.Equal(t, "is required", body.Fields["doctorId"])
	})

	t.Run("unknown patient", func(t *testing.T) {
		svc := new(mocks.MockService)
		h := newTestRouter(t, svc)

		svc.On("Create", mock.Anything, mock.Anything).
			Return(nil, fmt.Errorf("%w: %s", appointment.ErrPatientNotFound, view.PatientID)).Once()

		rec := do(h, http.MethodPost, "/api/appointments", map[string]any{"specialty": "x"})
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "patient_not_found", decodeError(t, rec).Error)
	})

	t.Run("unknown doctor", func(t *testing.T) {
		svc := new(mocks.MockService)
		h := newTestRouter(t, svc)

		svc.On("Create", mock.Anything, mock.Anything).Return(nil, appointment.ErrDoctorNotFound).Once()

		rec := do(h, http.MethodPost, "/api/appointments", map[string]any{"specialty": "x"})
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "doctor_not_found", decodeError(t, rec).Error)
	})

	t.Run("internal error hides details", func(t *testing.T) {
		svc := new(mocks.MockService)
		h := newTestRouter(t, svc)

		svc.On("Create", mock.Anything, mock.Anything).Return(nil, errors.New("pq: password authentication failed")).Once()

		rec := do(h, http.MethodPost, "/api/appointments", map[string]any{"specialty": "x"})
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		body := decodeError(t, rec)
		assert.Equal(t, "internal_error", body.Error)
		assert.NotContains(t, body.Details, "password")
	})
}

func TestUpdateAppointment(t *testing.T) {
	view := sampleView()

	t.Run("partial update", func(t *testing.T) {
		svc := new(mocks.MockService)
		h := newTestRouter(t, svc)

		cancelled := *view
		cancelled.Status = appointment.StatusCancelled
		svc.On("Update", mock.Anything, view.ID, mock.MatchedBy(func(req appointment.UpdateRequest) bool {
			return req.Status != nil && *req.Status == appointment.StatusCancelled &&
				req.Notes == nil && req.AppointmentDate == nil
		})).Return(&cancelled, nil).Once()

		rec := do(h, http.MethodPut, "/api/appointments/"+view.ID.String(), map[string]any{"status": "CANCELLED"})
		assert.Equal(t, http.StatusOK, rec.Code)

		var got appointment.View
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		assert.Equal(t, appointment.StatusCancelled, got.Status)
		svc.AssertExpectations(t)
	})

	t.Run("bad id", func(t *testing.T) {
		h := newTestRouter(t, new(mocks.MockService))

		rec := do(h, http.MethodPut, "/api/appointments/not-a-uuid", map[string]any{"notes": "x"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid_appointment_id", decodeError(t, rec).Error)
	})

	t.Run("not found", func(t *testing.T) {
		svc := new(mocks.MockService)
		h := newTestRouter(t, svc)

		svc.On("Update", mock.Anything, view.ID, mock.Anything).Return(nil, appointment.ErrAppointmentNotFound).Once()

		rec := do(h, http.MethodPut, "/api/appointments/"+view.ID.String(), map[string]any{"notes": "x"})
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "appointment_not_found", decodeError(t, rec).Error)
	})

	t.Run("invalid status", func(t *testing.T) {
		svc := new(mocks.MockService)
		h := newTestRouter(t, svc)

		svc.On("Update", mock.Anything, view.ID, mock.Anything).Return(nil, &appointment.ValidationError{
			Fields: map[string]string{"status": "must be one of SCHEDULED CONFIRMED COMPLETED CANCELLED"},
		}).Once()

		rec := do(h, http.MethodPut, "/api/appointments/"+view.ID.String(), map[string]any{"status": "LOST"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decodeError(t, rec).Fields, "status")
	})
}

func TestDeleteAppointment(t *testing.T) {
	id := uuid.New()

	svc := new(mocks.MockService)
	h := newTestRouter(t, svc)
	svc.On("Delete", mock.Anything, id).Return(nil).Once()

	rec := do(h, http.MethodDelete, "/api/appointments/"+id.String(), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	svc.On("Delete", mock.Anything, id).Return(appointment.ErrAppointmentNotFound).Once()
	rec = do(h, http.MethodDelete, "/api/appointments/"+id.String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	svc.AssertExpectations(t)
}

func TestReadEndpoints(t *testing.T) {
	view := sampleView()
	list := []appointment.View{*view}

	svc := new(mocks.MockService)
	h := newTestRouter(t, svc)

	svc.On("FindByID", mock.Anything, view.ID).Return(view, nil)
	svc.On("FindAll", mock.Anything).Return(list, nil)
	svc.On("FindByPatient", mock.Anything, view.PatientID).Return(list, nil)
	svc.On("FindFutureByPatient", mock.Anything, view.PatientID).Return([]appointment.View{}, nil)
	svc.On("FindByDoctor", mock.Anything, view.DoctorID).Return(list, nil)

	tests := []struct {
		path    string
		wantLen int
	}{
		{path: "/api/appointments", wantLen: 1},
		{path: "/api/appointments/patient/" + view.PatientID.String(), wantLen: 1},
		{path: "/api/appointments/patient/" + view.PatientID.String() + "/future", wantLen: 0},
		{path: "/api/appointments/doctor/" + view.DoctorID.String(), wantLen: 1},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := do(h, http.MethodGet, tt.path, nil)
			require.Equal(t, http.StatusOK, rec.Code)

			var got []appointment.View
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			assert.Len(t, got, tt.wantLen)
		})
	}

	t.Run("single", func(t *testing.T) {
		rec := do(h, http.MethodGet, "/api/appointments/"+view.ID.String(), nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var got map[string]any
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		assert.Equal(t, "Maria Silva", got["patientName"])
		assert.Equal(t, "SCHEDULED", got["status"])
	})

	t.Run("bad patient id", func(t *testing.T) {
		rec := do(h, http.MethodGet, "/api/appointments/patient/123/future", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid_patient_id", decodeError(t, rec).Error)
	})
}
