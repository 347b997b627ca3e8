package mongostore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"healthcare-booking-server/internal/models"
	"healthcare-booking-server/internal/store"
)

func TestMapErr(t *testing.T) {
	other := errors.New("network down")
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"nil", nil, nil},
		{"no documents", mongo.ErrNoDocuments, store.ErrNotFound},
		{"duplicate key", mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000"}}}, store.ErrDuplicate},
		{"other", other, other},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapErr(tt.in)
			if tt.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
		})
	}
}

func TestAppointmentFilter(t *testing.T) {
	from := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	to := from.Add(time.Hour)

	assert.Empty(t, appointmentFilter(store.AppointmentFilter{}))

	got := appointmentFilter(store.AppointmentFilter{
		PatientID: "p1",
		DoctorID:  "d1",
		Statuses:  []models.AppointmentStatus{models.StatusPending, models.StatusConfirmed},
		From:      &from,
		To:        &to,
	})
	assert.Equal(t, "p1", got["patientId"])
	assert.Equal(t, "d1", got["doctorId"])
	assert.Equal(t, bson.M{"$in": []models.AppointmentStatus{models.StatusPending, models.StatusConfirmed}}, got["status"])
	assert.Equal(t, bson.M{"$gte": from, "$lt": to}, got["appointmentDate"])

	onlyFrom := appointmentFilter(store.AppointmentFilter{From: &from})
	assert.Equal(t, bson.M{"$gte": from}, onlyFrom["appointmentDate"])
}

func TestAppointmentFieldsLeaveCalendarIDs(t *testing.T) {
	a := &models.Appointment{
		Status:        models.StatusCancelled,
		GoogleEventID: "g-1",
		AppleEventID:  "uid@host",
	}
	fields := appointmentFields(a, 3)

	assert.NotContains(t, fields, "googleCalendarEventId")
	assert.NotContains(t, fields, "appleCalendarEventId")
	assert.NotContains(t, fields, "_id")
	assert.Equal(t, int64(3), fields["version"])
	assert.Equal(t, models.StatusCancelled, fields["status"])
	// Cleared values must still be written.
	assert.Contains(t, fields, "prescriptionId")
	assert.Contains(t, fields, "cancelledAt")
}

func storedAppointment(t *testing.T, a models.Appointment) bson.Raw {
	t.Helper()
	raw, err := bson.Marshal(a)
	require.NoError(t, err)
	return raw
}

func TestAppointmentUpdate(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("returns stored calendar ids", func(mt *mtest.T) {
		repo := &appointments{col: mt.Coll}
		stored := models.Appointment{
			BaseModel:     models.BaseModel{ID: "a1"},
			Status:        models.StatusConfirmed,
			GoogleEventID: "g-evt-1",
			AppleEventID:  "uid@host",
			Version:       1,
		}
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: storedAppointment(t, stored)}))

		inFlight := &models.Appointment{BaseModel: models.BaseModel{ID: "a1"}, Status: models.StatusConfirmed}
		require.NoError(t, repo.Update(context.Background(), inFlight))
		assert.Equal(t, int64(1), inFlight.Version)
		assert.Equal(t, "g-evt-1", inFlight.GoogleEventID)
		assert.Equal(t, "uid@host", inFlight.AppleEventID)
	})

	mt.Run("stale version", func(mt *mtest.T) {
		repo := &appointments{col: mt.Coll}
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{{Key: "n", Value: int32(1)}}),
		)

		err := repo.Update(context.Background(), &models.Appointment{BaseModel: models.BaseModel{ID: "a1"}})
		assert.ErrorIs(t, err, store.ErrStaleWrite)
	})

	mt.Run("missing document", func(mt *mtest.T) {
		repo := &appointments{col: mt.Coll}
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch),
		)

		err := repo.Update(context.Background(), &models.Appointment{BaseModel: models.BaseModel{ID: "a1"}})
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}
