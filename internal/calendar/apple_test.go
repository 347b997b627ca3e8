package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthcare-booking-server/internal/models"
)

func TestICS(t *testing.T) {
	s := NewAppleSyncer("example.com", time.UTC)
	a := appointment()

	out, err := s.ICS(a)
	require.NoError(t, err)
	assert.Contains(t, out, "BEGIN:VCALENDAR")
	assert.Contains(t, out, "UID:"+a.ID+"@example.com")
	assert.Contains(t, out, "DTSTART:20260601T103000Z")
	assert.Contains(t, out, "DTEND:20260601T110000Z")
	assert.Contains(t, out, "SUMMARY:Appointment with Pat")
	assert.Contains(t, out, "LOCATION:Online")
	assert.Contains(t, out, "METHOD:REQUEST")
	assert.Contains(t, out, "STATUS:TENTATIVE")
}

func TestICSCancelled(t *testing.T) {
	s := NewAppleSyncer("example.com", time.UTC)
	a := appointment()
	a.Status = models.StatusCancelled
	a.AppointmentType = models.TypeInClinic

	out, err := s.ICS(a)
	require.NoError(t, err)
	assert.Contains(t, out, "METHOD:CANCEL")
	assert.Contains(t, out, "STATUS:CANCELLED")
	assert.Contains(t, out, "LOCATION:In-Clinic")
}

func TestICSRejectsBadTime(t *testing.T) {
	a := appointment()
	a.AppointmentTime = "25:99"
	_, err := NewAppleSyncer("", nil).ICS(a)
	assert.Error(t, err)
}
