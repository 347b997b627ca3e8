package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := New()

	m.Transition("cancel", nil)
	m.Transition("cancel", errors.New("already cancelled"))
	m.SideEffect("appointment.created", "email.patient", nil)
	m.Reminder("24h")
	m.Dropped()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.BookingTransitions.WithLabelValues("cancel", ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BookingTransitions.WithLabelValues("cancel", ResultError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SideEffects.WithLabelValues("appointment.created", "email.patient", ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RemindersSent.WithLabelValues("24h")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DispatchDropped))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Transition("complete", nil)
		m.SideEffect("e", "h", nil)
		m.Reminder("1h")
		m.Dropped()
	})
}

func TestHandlerServesRegistry(t *testing.T) {
	m := New()
	m.Transition("create", nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `booking_transitions_total{operation="create",result="ok"} 1`)
}
