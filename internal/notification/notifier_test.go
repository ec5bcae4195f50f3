package notification

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(slog.New(slog.NewJSONHandler(&buf, nil)))

	ev := sampleEvent(EventCreated)
	require.NoError(t, n.Notify(context.Background(), ev))

	out := buf.String()
	assert.Contains(t, out, `"msg":"notification sent"`)
	assert.Contains(t, out, `"to":"maria@example.test"`)
	assert.Contains(t, out, ev.AppointmentID.String())
}

func TestLogNotifier_SendsWithoutEmail(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(slog.New(slog.NewJSONHandler(&buf, nil)))

	ev := sampleEvent(EventUpdated)
	ev.PatientEmail = ""
	require.NoError(t, n.Notify(context.Background(), ev))

	out := buf.String()
	assert.Contains(t, out, `"patient":"Maria Silva"`)
	assert.Contains(t, out, "Notification sent to Maria Silva")
}

func TestFormatMessage(t *testing.T) {
	msg := FormatMessage(sampleEvent(EventCancelled))
	assert.Equal(t,
		"Notification sent to Maria Silva: appointment with Dr. Costa on 2026-04-02T14:30:00Z, specialty Cardiology, event CANCELLED",
		msg)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.incPublished(EventCreated, resultOK)
		m.incConsumed("", resultDecodeError)
	})
}
