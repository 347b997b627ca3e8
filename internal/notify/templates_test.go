package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthcare-booking-server/internal/models"
)

func TestBuiltInTemplatesRender(t *testing.T) {
	e := NewTemplateEngine()
	ids := []string{
		TplAppointmentConfirmation, TplDoctorNewAppointment, TplAppointmentCancelled,
		TplAppointmentRescheduled, TplAppointmentReminder, TplPrescription,
		TplDoctorApproved, TplDoctorRejected,
	}
	for _, id := range ids {
		subject, body, err := e.Render(id, EmailData{Name: "Pat", HoursBefore: 1})
		require.NoError(t, err, id)
		assert.NotEmpty(t, subject, id)
		assert.Contains(t, body, "Dear Pat", id)
	}
}

func TestReminderSubjectPluralises(t *testing.T) {
	e := NewTemplateEngine()
	subject, _, err := e.Render(TplAppointmentReminder, EmailData{HoursBefore: 24})
	require.NoError(t, err)
	assert.Equal(t, "Appointment Reminder - 24 Hours Before", subject)

	subject, _, err = e.Render(TplAppointmentReminder, EmailData{HoursBefore: 1})
	require.NoError(t, err)
	assert.Equal(t, "Appointment Reminder - 1 Hour Before", subject)
}

func TestBodiesAreEscaped(t *testing.T) {
	e := NewTemplateEngine()
	_, body, err := e.Render(TplAppointmentCancelled, EmailData{Name: "<script>x</script>", Reason: "a & b"})
	require.NoError(t, err)
	assert.NotContains(t, body, "<script>")
	assert.Contains(t, body, "a &amp; b")
}

func TestPrescriptionListsMedications(t *testing.T) {
	e := NewTemplateEngine()
	_, body, err := e.Render(TplPrescription, EmailData{
		Name: "Pat",
		Medications: []models.Medication{
			{Name: "Amoxicillin", Dosage: "500mg", Frequency: "3x daily", Duration: "7 days"},
		},
		Instructions: "Take with food",
	})
	require.NoError(t, err)
	assert.Contains(t, body, "<li>Amoxicillin - 500mg, 3x daily, 7 days</li>")
	assert.Contains(t, body, "Take with food")
	assert.NotContains(t, body, "Follow-up")
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, _, err := NewTemplateEngine().Render("missing", EmailData{})
	assert.Error(t, err)
}

func TestRegisterRejectsBadTemplate(t *testing.T) {
	err := NewTemplateEngine().Register(Template{ID: "bad", Subject: "{{.Name", Body: "x"})
	assert.Error(t, err)
}
