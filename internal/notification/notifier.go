package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Notifier performs the external side effect for one event.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

type NotifierFunc func(ctx context.Context, ev Event) error

func (f NotifierFunc) Notify(ctx context.Context, ev Event) error { return f(ctx, ev) }

// LogNotifier simulates an email to the patient by logging the message it
// would have sent.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With("component", "notifier", "channel", "email")}
}

// Notify always sends: the message is addressed by patient name, so a missing
// email only leaves the "to" field empty.
func (n *LogNotifier) Notify(ctx context.Context, ev Event) error {
	n.logger.InfoContext(ctx, "notification sent",
		"to", ev.PatientEmail,
		"patient", ev.PatientName,
		"appointment_id", ev.AppointmentID,
		"event_type", ev.EventType,
		"message", FormatMessage(ev),
	)
	return nil
}

// FormatMessage renders the body sent to the patient.
func FormatMessage(ev Event) string {
	return fmt.Sprintf("Notification sent to %s: appointment with %s on %s, specialty %s, event %s",
		ev.PatientName,
		ev.DoctorName,
		ev.AppointmentDate.Format(time.RFC3339),
		ev.Specialty,
		ev.EventType,
	)
}
