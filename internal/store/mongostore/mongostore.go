// Package mongostore implements the store ports on MongoDB.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"healthcare-booking-server/internal/store"
)

const opTimeout = 10 * time.Second

// Collection names.
const (
	colUsers          = "users"
	colDoctors        = "doctors"
	colDoctorRequests = "doctorrequests"
	colAppointments   = "appointments"
	colReviews        = "reviews"
	colPrescriptions  = "prescriptions"
	colNotifications  = "notifications"
	colFavorites      = "favorites"
	colActivityLogs   = "activitylogs"
)

// Connect opens a client, ensures indexes and returns a Store on database dbName.
func Connect(ctx context.Context, uri, dbName string) (*store.Store, error) {
	cctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	client, err := mongo.Connect(cctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(cctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	s := New(client.Database(dbName))
	if err := EnsureIndexes(cctx, client.Database(dbName)); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	s.OnClose = client.Disconnect
	return s, nil
}

// New builds a Store on an already connected database.
func New(db *mongo.Database) *store.Store {
	return &store.Store{
		Users:          &users{db.Collection(colUsers)},
		Doctors:        &doctors{db.Collection(colDoctors)},
		DoctorRequests: &doctorRequests{db.Collection(colDoctorRequests)},
		Appointments:   &appointments{db.Collection(colAppointments)},
		Reviews:        &reviews{db.Collection(colReviews)},
		Prescriptions:  &prescriptions{db.Collection(colPrescriptions)},
		Notifications:  &notifications{db.Collection(colNotifications)},
		Favorites:      &favorites{db.Collection(colFavorites)},
		ActivityLogs:   &activityLogs{db.Collection(colActivityLogs)},
	}
}

// EnsureIndexes creates the unique and lookup indexes the repositories rely on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	unique := options.Index().SetUnique(true)
	specs := map[string][]mongo.IndexModel{
		colUsers: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "refreshToken.token", Value: 1}}},
		},
		colDoctors: {
			{Keys: bson.D{{Key: "userId", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "rating", Value: -1}, {Key: "totalReviews", Value: -1}}},
		},
		colAppointments: {
			{Keys: bson.D{{Key: "patientId", Value: 1}}},
			{Keys: bson.D{{Key: "doctorId", Value: 1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "appointmentDate", Value: 1}}},
		},
		colReviews: {
			{Keys: bson.D{{Key: "appointmentId", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "doctorId", Value: 1}, {Key: "status", Value: 1}}},
		},
		colFavorites: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "doctorId", Value: 1}}, Options: unique},
		},
		colNotifications: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
	}
	for col, models := range specs {
		if _, err := db.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", col, err)
		}
	}
	return nil
}

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, opTimeout)
}

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return store.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return store.ErrDuplicate
	}
	return err
}

func findOne[T any](ctx context.Context, col *mongo.Collection, filter any) (*T, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	var out T
	if err := col.FindOne(ctx, filter).Decode(&out); err != nil {
		return nil, mapErr(err)
	}
	return &out, nil
}

func findMany[T any](ctx context.Context, col *mongo.Collection, filter any, opts ...*options.FindOptions) ([]T, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	cursor, err := col.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	out := []T{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func insert(ctx context.Context, col *mongo.Collection, doc any) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	_, err := col.InsertOne(ctx, doc)
	return mapErr(err)
}

func replace(ctx context.Context, col *mongo.Collection, id string, doc any) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	res, err := col.ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if err != nil {
		return mapErr(err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func setFields(ctx context.Context, col *mongo.Collection, id string, fields bson.M) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	res, err := col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return mapErr(err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func deleteOne(ctx context.Context, col *mongo.Collection, filter any) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	res, err := col.DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func count(ctx context.Context, col *mongo.Collection, filter any) (int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	return col.CountDocuments(ctx, filter)
}

func iregex(s string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
}

func newestFirst() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
}
