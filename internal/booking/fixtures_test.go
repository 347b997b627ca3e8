package booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"healthcare-booking-server/internal/access"
	"healthcare-booking-server/internal/dispatch"
	"healthcare-booking-server/internal/metrics"
	"healthcare-booking-server/internal/models"
	"healthcare-booking-server/internal/store"
	"healthcare-booking-server/internal/store/memstore"
)

type recorder struct {
	mu      sync.Mutex
	intents []dispatch.Intent
}

func (r *recorder) Dispatch(in dispatch.Intent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.intents = append(r.intents, in)
}

func (r *recorder) events() []dispatch.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]dispatch.Event, 0, len(r.intents))
	for _, in := range r.intents {
		out = append(out, in.Event)
	}
	return out
}

type fixture struct {
	store    *store.Store
	svc      *Service
	rec      *recorder
	metrics  *metrics.Metrics
	patient  access.Actor
	other    access.Actor
	doctor   access.Actor
	admin    access.Actor
	profile  *models.DoctorProfile
	otherDoc access.Actor
}

func newUser(t *testing.T, s *store.Store, name, email string, role models.Role, status models.AccountStatus) access.Actor {
	t.Helper()
	u := &models.User{Name: name, Email: email, Role: role, Status: status, Phone: "555-0100"}
	require.NoError(t, s.Users.Create(context.Background(), u))
	return access.ActorFromUser(u)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	s := memstore.New()
	f := &fixture{store: s, rec: &recorder{}, metrics: metrics.New()}

	f.patient = newUser(t, s, "Pat Patient", "pat@example.com", models.RolePatient, models.AccountApproved)
	f.other = newUser(t, s, "Olly Other", "olly@example.com", models.RolePatient, models.AccountApproved)
	f.doctor = newUser(t, s, "Dr Dana", "dana@example.com", models.RoleDoctor, models.AccountApproved)
	f.otherDoc = newUser(t, s, "Dr Eli", "eli@example.com", models.RoleDoctor, models.AccountApproved)
	f.admin = newUser(t, s, "Ada Admin", "ada@example.com", models.RoleAdmin, models.AccountApproved)

	f.profile = &models.DoctorProfile{UserID: f.doctor.ID, Specialization: "Cardiology", IsActive: true}
	require.NoError(t, s.Doctors.Create(ctx, f.profile))
	require.NoError(t, s.Doctors.Create(ctx, &models.DoctorProfile{UserID: f.otherDoc.ID, Specialization: "Neurology", IsActive: true}))

	f.svc = NewService(s, access.NewPolicy(s.Doctors), f.rec, f.metrics, zerolog.Nop())
	f.svc.now = func() time.Time { return time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC) }
	return f
}

func (f *fixture) book(t *testing.T) *models.Appointment {
	t.Helper()
	a, err := f.svc.CreateAppointment(context.Background(), f.patient, CreateInput{
		DoctorID:        f.profile.ID,
		AppointmentDate: "2026-05-10",
		AppointmentTime: "10:30",
		AppointmentType: models.TypeOnline,
		Symptoms:        "chest pain",
	})
	require.NoError(t, err)
	return a
}
