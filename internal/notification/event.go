// Package notification carries appointment lifecycle events from the API to
// the notification worker over a Redis stream.
package notification

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventCreated   EventType = "CREATED"
	EventUpdated   EventType = "UPDATED"
	EventCancelled EventType = "CANCELLED"
)

func (t EventType) Valid() bool {
	switch t {
	case EventCreated, EventUpdated, EventCancelled:
		return true
	}
	return false
}

// Event is built fresh for every lifecycle transition. It has no identity of
// its own and is not deduplicated.
type Event struct {
	AppointmentID   uuid.UUID `json:"appointmentId"`
	PatientName     string    `json:"patientName"`
	PatientEmail    string    `json:"patientEmail"`
	DoctorName      string    `json:"doctorName"`
	AppointmentDate time.Time `json:"appointmentDate"`
	Specialty       string    `json:"specialty"`
	EventType       EventType `json:"eventType"`
}

// eventTypeUnknown labels metrics for messages whose type cannot be trusted.
const eventTypeUnknown EventType = "UNKNOWN"

// Stream message field names.
const (
	fieldPayload    = "payload"
	fieldEventType  = "event_type"
	fieldRoutingKey = "routing_key"
)

var ErrMalformedMessage = errors.New("malformed notification message")

func encodeEvent(ev Event) (string, error) {
	b, err := json.Marshal(ev)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// decodeMessage turns stream field values back into an Event.
func decodeMessage(values map[string]any) (Event, error) {
	raw, ok := values[fieldPayload]
	if !ok {
		return Event{}, fmt.Errorf("%w: missing %s", ErrMalformedMessage, fieldPayload)
	}

	var data []byte
	switch v := raw.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return Event{}, fmt.Errorf("%w: %s has type %T", ErrMalformedMessage, fieldPayload, raw)
	}

	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if ev.AppointmentID == uuid.Nil || !ev.EventType.Valid() {
		return Event{}, fmt.Errorf("%w: missing appointmentId or eventType", ErrMalformedMessage)
	}
	return ev, nil
}
