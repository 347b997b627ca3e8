package accounts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthcare-booking-server/internal/apperr"
	"healthcare-booking-server/internal/models"
)

func ptr[T any](v T) *T { return &v }

func TestSearchDoctors(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, dana := e.registerDoctor(t, "Dr Dana", "dana@example.com", "Cardiology")
	_, eli := e.registerDoctor(t, "Dr Eli", "eli@example.com", "Neurology")
	_, fay := e.registerDoctor(t, "Dr Fay", "fay@example.com", "Cardiology")

	require.NoError(t, e.store.Doctors.UpdateRating(ctx, dana.ID, 4.5, 10))
	require.NoError(t, e.store.Doctors.UpdateRating(ctx, eli.ID, 4.9, 3))
	require.NoError(t, e.store.Doctors.UpdateRating(ctx, fay.ID, 4.5, 20))
	_, err := e.svc.UpdateDoctor(ctx, e.admin, fay.ID, DoctorInput{ConsultationFee: ptr(150.0)})
	require.NoError(t, err)

	all, err := e.svc.SearchDoctors(ctx, DoctorQuery{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{eli.ID, fay.ID, dana.ID}, []string{all[0].ID, all[1].ID, all[2].ID})

	byName, err := e.svc.SearchDoctors(ctx, DoctorQuery{Search: "eli"})
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, eli.ID, byName[0].ID)

	bySpecialty, err := e.svc.SearchDoctors(ctx, DoctorQuery{Search: "CARDIO"})
	require.NoError(t, err)
	assert.Len(t, bySpecialty, 2)

	expensive, err := e.svc.SearchDoctors(ctx, DoctorQuery{MinFee: ptr(100.0)})
	require.NoError(t, err)
	require.Len(t, expensive, 1)
	assert.Equal(t, fay.ID, expensive[0].ID)

	top, err := e.svc.SearchDoctors(ctx, DoctorQuery{MinRating: ptr(4.8)})
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, eli.ID, top[0].ID)

	_, err = e.svc.UpdateDoctor(ctx, e.admin, eli.ID, DoctorInput{IsActive: ptr(false)})
	require.NoError(t, err)
	active, err := e.svc.SearchDoctors(ctx, DoctorQuery{})
	require.NoError(t, err)
	assert.Len(t, active, 2)
	inactive, err := e.svc.SearchDoctors(ctx, DoctorQuery{IsActive: ptr(false)})
	require.NoError(t, err)
	require.Len(t, inactive, 1)
	assert.Equal(t, eli.ID, inactive[0].ID)
}

func TestUpdateDoctorKeepsRating(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, dana := e.registerDoctor(t, "Dr Dana", "dana@example.com", "Cardiology")
	require.NoError(t, e.store.Doctors.UpdateRating(ctx, dana.ID, 4.2, 5))

	d, err := e.svc.UpdateDoctor(ctx, e.admin, dana.ID, DoctorInput{
		Specialization: ptr("Interventional Cardiology"),
		Availability:   map[string][]string{"monday": {"09:00", "10:00"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Interventional Cardiology", d.Specialization)

	stored, err := e.store.Doctors.Get(ctx, dana.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.2, stored.Rating)
	assert.Equal(t, 5, stored.TotalReviews)
	assert.Equal(t, []string{"09:00", "10:00"}, stored.Availability["monday"])

	_, err = e.svc.UpdateDoctor(ctx, e.admin, dana.ID, DoctorInput{Specialization: ptr("")})
	requireKind(t, err, apperr.KindValidation)
}

func TestCreateAndDeleteDoctor(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.registerPatient(t, "pat@example.com")

	docUser := &models.User{Name: "Dr Gil", Email: "gil@example.com", Role: models.RoleDoctor, Status: models.AccountApproved}
	require.NoError(t, e.store.Users.Create(ctx, docUser))

	_, err := e.svc.CreateDoctor(ctx, p, DoctorInput{UserID: docUser.ID, Specialization: ptr("Dermatology")})
	requireKind(t, err, apperr.KindForbidden)
	_, err = e.svc.CreateDoctor(ctx, e.admin, DoctorInput{UserID: p.ID, Specialization: ptr("Dermatology")})
	requireKind(t, err, apperr.KindValidation)
	_, err = e.svc.CreateDoctor(ctx, e.admin, DoctorInput{UserID: docUser.ID})
	requireKind(t, err, apperr.KindValidation)

	d, err := e.svc.CreateDoctor(ctx, e.admin, DoctorInput{UserID: docUser.ID, Specialization: ptr("Dermatology"), ConsultationFee: ptr(80.0)})
	require.NoError(t, err)
	assert.Zero(t, d.Rating)
	assert.Zero(t, d.TotalReviews)
	assert.True(t, d.IsActive)

	_, err = e.svc.CreateDoctor(ctx, e.admin, DoctorInput{UserID: docUser.ID, Specialization: ptr("Dermatology")})
	requireKind(t, err, apperr.KindConflict)

	got, err := e.svc.GetDoctor(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dr Gil", got.User.Name)

	require.NoError(t, e.svc.DeleteDoctor(ctx, e.admin, d.ID))
	requireKind(t, e.svc.DeleteDoctor(ctx, e.admin, d.ID), apperr.KindNotFound)
}
