package reviews

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthcare-booking-server/internal/access"
	"healthcare-booking-server/internal/apperr"
	"healthcare-booking-server/internal/booking"
	"healthcare-booking-server/internal/dispatch"
	"healthcare-booking-server/internal/models"
	"healthcare-booking-server/internal/rating"
	"healthcare-booking-server/internal/store"
	"healthcare-booking-server/internal/store/memstore"
)

type env struct {
	store   *store.Store
	booking *booking.Service
	reviews *Service
	patient access.Actor
	other   access.Actor
	doctor  access.Actor
	admin   access.Actor
	profile *models.DoctorProfile
}

func actor(t *testing.T, s *store.Store, email string, role models.Role) access.Actor {
	t.Helper()
	u := &models.User{Name: email, Email: email, Role: role, Status: models.AccountApproved}
	require.NoError(t, s.Users.Create(context.Background(), u))
	return access.ActorFromUser(u)
}

func newEnv(t *testing.T, autoApprove bool) *env {
	t.Helper()
	s := memstore.New()
	e := &env{store: s}
	e.patient = actor(t, s, "p@example.com", models.RolePatient)
	e.other = actor(t, s, "o@example.com", models.RolePatient)
	e.doctor = actor(t, s, "d@example.com", models.RoleDoctor)
	e.admin = actor(t, s, "a@example.com", models.RoleAdmin)
	e.profile = &models.DoctorProfile{UserID: e.doctor.ID, Specialization: "Pediatrics", IsActive: true}
	require.NoError(t, s.Doctors.Create(context.Background(), e.profile))

	policy := access.NewPolicy(s.Doctors)
	e.booking = booking.NewService(s, policy, dispatch.Nop{}, nil, zerolog.Nop())
	e.reviews = NewService(s, policy, rating.NewAggregator(s.Reviews, s.Doctors), dispatch.Nop{}, autoApprove, zerolog.Nop())
	return e
}

func (e *env) completedAppointment(t *testing.T) *models.Appointment {
	t.Helper()
	ctx := context.Background()
	a, err := e.booking.CreateAppointment(ctx, e.patient, booking.CreateInput{
		DoctorID: e.profile.ID, AppointmentDate: "2026-07-01", AppointmentTime: "09:00",
	})
	require.NoError(t, err)
	a, err = e.booking.Complete(ctx, e.doctor, a.ID)
	require.NoError(t, err)
	return a
}

func (e *env) doctorRating(t *testing.T) (float64, int) {
	t.Helper()
	d, err := e.store.Doctors.Get(context.Background(), e.profile.ID)
	require.NoError(t, err)
	return d.Rating, d.TotalReviews
}

// Book, complete, review with 5, then a second review for the same appointment is refused.
func TestBookCompleteReviewScenario(t *testing.T) {
	e := newEnv(t, true)
	ctx := context.Background()

	a, err := e.booking.CreateAppointment(ctx, e.patient, booking.CreateInput{
		DoctorID: e.profile.ID, AppointmentDate: "2026-07-01", AppointmentTime: "09:00",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, a.Status)

	a, err = e.booking.Complete(ctx, e.doctor, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, a.Status)

	_, err = e.reviews.Create(ctx, e.patient, CreateInput{AppointmentID: a.ID, Rating: 5, Comment: "great"})
	require.NoError(t, err)

	avg, total := e.doctorRating(t)
	assert.Equal(t, 5.0, avg)
	assert.Equal(t, 1, total)

	_, err = e.reviews.Create(ctx, e.patient, CreateInput{AppointmentID: a.ID, Rating: 1})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
	ae, _ := apperr.As(err)
	assert.Equal(t, apperr.CodeDuplicateReview, ae.Code)

	avg, total = e.doctorRating(t)
	assert.Equal(t, 5.0, avg)
	assert.Equal(t, 1, total)
}

func TestCreateRequiresCompletedOwnAppointment(t *testing.T) {
	e := newEnv(t, true)
	ctx := context.Background()

	pending, err := e.booking.CreateAppointment(ctx, e.patient, booking.CreateInput{
		DoctorID: e.profile.ID, AppointmentDate: "2026-07-01", AppointmentTime: "09:00",
	})
	require.NoError(t, err)
	_, err = e.reviews.Create(ctx, e.patient, CreateInput{AppointmentID: pending.ID, Rating: 4})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	done := e.completedAppointment(t)
	_, err = e.reviews.Create(ctx, e.other, CreateInput{AppointmentID: done.ID, Rating: 4})
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))

	_, err = e.reviews.Create(ctx, e.patient, CreateInput{AppointmentID: done.ID, Rating: 6})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	_, err = e.reviews.Create(ctx, e.patient, CreateInput{AppointmentID: done.ID, Rating: 0})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = e.reviews.Create(ctx, e.patient, CreateInput{AppointmentID: done.ID, DoctorID: "someone-else", Rating: 4})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = e.reviews.Create(ctx, e.patient, CreateInput{AppointmentID: "missing", Rating: 4})
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestRatingTracksEveryMutation(t *testing.T) {
	e := newEnv(t, true)
	ctx := context.Background()

	r1, err := e.reviews.Create(ctx, e.patient, CreateInput{AppointmentID: e.completedAppointment(t).ID, Rating: 4})
	require.NoError(t, err)
	r2, err := e.reviews.Create(ctx, e.patient, CreateInput{AppointmentID: e.completedAppointment(t).ID, Rating: 5})
	require.NoError(t, err)
	_, err = e.reviews.Create(ctx, e.patient, CreateInput{AppointmentID: e.completedAppointment(t).ID, Rating: 5})
	require.NoError(t, err)

	avg, total := e.doctorRating(t)
	assert.Equal(t, 4.7, avg)
	assert.Equal(t, 3, total)

	two := 2
	_, err = e.reviews.Update(ctx, e.patient, r1.ID, &two, nil)
	require.NoError(t, err)
	avg, total = e.doctorRating(t)
	assert.Equal(t, 4.0, avg)
	assert.Equal(t, 3, total)

	_, err = e.reviews.Moderate(ctx, e.admin, r2.ID, models.ReviewRejected)
	require.NoError(t, err)
	avg, total = e.doctorRating(t)
	assert.Equal(t, 3.5, avg)
	assert.Equal(t, 2, total)

	_, err = e.reviews.Moderate(ctx, e.admin, r2.ID, models.ReviewApproved)
	require.NoError(t, err)
	avg, total = e.doctorRating(t)
	assert.Equal(t, 4.0, avg)
	assert.Equal(t, 3, total)

	require.NoError(t, e.reviews.Delete(ctx, e.patient, r1.ID))
	avg, total = e.doctorRating(t)
	assert.Equal(t, 5.0, avg)
	assert.Equal(t, 2, total)

	public, err := e.reviews.ListForDoctor(ctx, e.profile.ID)
	require.NoError(t, err)
	assert.Len(t, public, 2)
}

func TestPendingReviewsDoNotCount(t *testing.T) {
	e := newEnv(t, false)
	ctx := context.Background()

	r, err := e.reviews.Create(ctx, e.patient, CreateInput{AppointmentID: e.completedAppointment(t).ID, Rating: 3})
	require.NoError(t, err)
	assert.Equal(t, models.ReviewPending, r.Status)

	avg, total := e.doctorRating(t)
	assert.Zero(t, avg)
	assert.Zero(t, total)

	public, err := e.reviews.ListForDoctor(ctx, e.profile.ID)
	require.NoError(t, err)
	assert.Empty(t, public)

	_, err = e.reviews.Moderate(ctx, e.admin, r.ID, models.ReviewApproved)
	require.NoError(t, err)
	avg, total = e.doctorRating(t)
	assert.Equal(t, 3.0, avg)
	assert.Equal(t, 1, total)
}

func TestReviewChangePermissions(t *testing.T) {
	e := newEnv(t, true)
	ctx := context.Background()

	r, err := e.reviews.Create(ctx, e.patient, CreateInput{AppointmentID: e.completedAppointment(t).ID, Rating: 3})
	require.NoError(t, err)

	comment := "edited"
	_, err = e.reviews.Update(ctx, e.other, r.ID, nil, &comment)
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))
	assert.True(t, apperr.IsKind(e.reviews.Delete(ctx, e.doctor, r.ID), apperr.KindForbidden))

	_, err = e.reviews.Moderate(ctx, e.patient, r.ID, models.ReviewRejected)
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))
	_, err = e.reviews.Moderate(ctx, e.admin, r.ID, "maybe")
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	bad := 9
	_, err = e.reviews.Update(ctx, e.patient, r.ID, &bad, nil)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	got, err := e.reviews.Update(ctx, e.admin, r.ID, nil, &comment)
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Comment)
}
