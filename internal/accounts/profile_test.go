package accounts

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthcare-booking-server/internal/apperr"
	"healthcare-booking-server/internal/models"
)

func TestProfileReadAndUpdate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.registerPatient(t, "pat@example.com")

	prof, err := e.svc.GetProfile(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "pat@example.com", prof.User.Email)
	assert.Nil(t, prof.DoctorProfile)

	name, phone := "Pat Smith", "555-0100"
	dob := time.Date(1990, 3, 4, 0, 0, 0, 0, time.UTC)
	u, err := e.svc.UpdateProfile(ctx, p.ID, ProfileInput{Name: &name, Phone: &phone, DateOfBirth: &dob})
	require.NoError(t, err)
	assert.Equal(t, "Pat Smith", u.Name)
	assert.Equal(t, "555-0100", u.Phone)
	require.NotNil(t, u.DateOfBirth)
	assert.True(t, dob.Equal(*u.DateOfBirth))

	blank := "  "
	_, err = e.svc.UpdateProfile(ctx, p.ID, ProfileInput{Name: &blank})
	requireKind(t, err, apperr.KindValidation)

	future := e.now.Add(24 * time.Hour)
	_, err = e.svc.UpdateProfile(ctx, p.ID, ProfileInput{DateOfBirth: &future})
	requireKind(t, err, apperr.KindValidation)
}

func TestDoctorProfileIncludesDoctorData(t *testing.T) {
	e := newEnv(t)
	doctor, profile := e.registerDoctor(t, "Dr Dana", "dana@example.com", "Cardiology")

	prof, err := e.svc.GetProfile(context.Background(), doctor.ID)
	require.NoError(t, err)
	require.NotNil(t, prof.DoctorProfile)
	assert.Equal(t, profile.ID, prof.DoctorProfile.ID)

	public, err := e.svc.PublicDoctorProfile(context.Background(), profile.ID)
	require.NoError(t, err)
	require.NotNil(t, public.User)
	assert.Equal(t, "Dr Dana", public.User.Name)

	_, err = e.svc.PublicDoctorProfile(context.Background(), "missing")
	requireKind(t, err, apperr.KindNotFound)
}

func TestUpdatePictureReplacesPrevious(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.registerPatient(t, "pat@example.com")

	u, err := e.svc.UpdatePicture(ctx, p.ID, strings.NewReader("first"), "a.png")
	require.NoError(t, err)
	first := u.ProfilePicture
	assert.Contains(t, first, "a.png")
	assert.Empty(t, e.files.deleted)

	u, err = e.svc.UpdatePicture(ctx, p.ID, strings.NewReader("second"), "b.png")
	require.NoError(t, err)
	assert.Contains(t, u.ProfilePicture, "b.png")
	assert.Equal(t, []string{first}, e.files.deleted)
}

func TestUpdatePictureIgnoresDeleteFailure(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.registerPatient(t, "pat@example.com")
	e.files.failDel = true

	_, err := e.svc.UpdatePicture(ctx, p.ID, strings.NewReader("first"), "a.png")
	require.NoError(t, err)
	u, err := e.svc.UpdatePicture(ctx, p.ID, strings.NewReader("second"), "b.png")
	require.NoError(t, err)
	assert.Contains(t, u.ProfilePicture, "b.png")

	stored, err := e.store.Users.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ProfilePicture, stored.ProfilePicture)
}

func TestUpdatePictureWithoutStorage(t *testing.T) {
	e := newEnv(t)
	p := e.registerPatient(t, "pat@example.com")
	e.svc.files = nil

	_, err := e.svc.UpdatePicture(context.Background(), p.ID, strings.NewReader("x"), "a.png")
	requireKind(t, err, apperr.KindInternal)
}

func TestFavorites(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.registerPatient(t, "pat@example.com")
	doctor, profile := e.registerDoctor(t, "Dr Dana", "dana@example.com", "Cardiology")

	fav, err := e.svc.AddFavorite(ctx, p, profile.ID)
	require.NoError(t, err)
	require.NotNil(t, fav.Doctor)
	assert.Equal(t, "Dr Dana", fav.Doctor.User.Name)

	_, err = e.svc.AddFavorite(ctx, p, profile.ID)
	requireKind(t, err, apperr.KindConflict)
	_, err = e.svc.AddFavorite(ctx, p, "missing")
	requireKind(t, err, apperr.KindNotFound)
	_, err = e.svc.AddFavorite(ctx, doctor, profile.ID)
	requireKind(t, err, apperr.KindForbidden)

	ok, err := e.svc.IsFavorite(ctx, p, profile.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	list, err := e.svc.ListFavorites(ctx, p)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, profile.ID, list[0].Doctor.ID)

	require.NoError(t, e.svc.RemoveFavorite(ctx, p, profile.ID))
	ok, err = e.svc.IsFavorite(ctx, p, profile.ID)
	require.NoError(t, err)
	assert.False(t, ok)
	requireKind(t, e.svc.RemoveFavorite(ctx, p, profile.ID), apperr.KindNotFound)
}

func TestNotificationsAreOwnerOnly(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.registerPatient(t, "pat@example.com")
	q := e.registerPatient(t, "quinn@example.com")

	for _, title := range []string{"one", "two"} {
		require.NoError(t, e.store.Notifications.Create(ctx, &models.Notification{UserID: p.ID, Type: models.NotificationSystem, Title: title}))
	}
	list, unread, err := e.svc.ListNotifications(ctx, p)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.EqualValues(t, 2, unread)

	requireKind(t, e.svc.MarkNotificationRead(ctx, q, list[0].ID), apperr.KindForbidden)
	requireKind(t, e.svc.DeleteNotification(ctx, q, list[0].ID), apperr.KindForbidden)
	requireKind(t, e.svc.MarkNotificationRead(ctx, p, "missing"), apperr.KindNotFound)

	require.NoError(t, e.svc.MarkNotificationRead(ctx, p, list[0].ID))
	_, unread, err = e.svc.ListNotifications(ctx, p)
	require.NoError(t, err)
	assert.EqualValues(t, 1, unread)

	require.NoError(t, e.svc.MarkAllNotificationsRead(ctx, p))
	_, unread, err = e.svc.ListNotifications(ctx, p)
	require.NoError(t, err)
	assert.EqualValues(t, 0, unread)

	require.NoError(t, e.svc.DeleteNotification(ctx, p, list[1].ID))
	list, _, err = e.svc.ListNotifications(ctx, p)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
