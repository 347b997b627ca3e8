package mongostore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"healthcare-booking-server/internal/models"
	"healthcare-booking-server/internal/store"
)

type users struct{ col *mongo.Collection }

func (r *users) Create(ctx context.Context, u *models.User) error {
	u.Stamp(time.Now())
	return insert(ctx, r.col, u)
}

func (r *users) Get(ctx context.Context, id string) (*models.User, error) {
	return findOne[models.User](ctx, r.col, bson.M{"_id": id})
}

func (r *users) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return findOne[models.User](ctx, r.col, bson.M{"email": email})
}

func (r *users) GetByRefreshToken(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, store.ErrNotFound
	}
	return findOne[models.User](ctx, r.col, bson.M{"refreshToken.token": token})
}

func (r *users) Update(ctx context.Context, u *models.User) error {
	u.UpdatedAt = time.Now()
	return replace(ctx, r.col, u.ID, u)
}

func (r *users) Delete(ctx context.Context, id string) error {
	return deleteOne(ctx, r.col, bson.M{"_id": id})
}

func (r *users) List(ctx context.Context, f store.UserFilter) ([]models.User, int64, error) {
	filter := bson.M{}
	if f.Role != "" {
		filter["role"] = f.Role
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Search != "" {
		filter["$or"] = []bson.M{
			{"name": iregex(f.Search)},
			{"email": iregex(f.Search)},
		}
	}
	total, err := count(ctx, r.col, filter)
	if err != nil {
		return nil, 0, err
	}
	opts := newestFirst().SetSkip(int64(f.Offset))
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}
	out, err := findMany[models.User](ctx, r.col, filter, opts)
	return out, total, err
}

type doctors struct{ col *mongo.Collection }

func (r *doctors) Create(ctx context.Context, d *models.DoctorProfile) error {
	d.Stamp(time.Now())
	return insert(ctx, r.col, d)
}

func (r *doctors) Get(ctx context.Context, id string) (*models.DoctorProfile, error) {
	return findOne[models.DoctorProfile](ctx, r.col, bson.M{"_id": id})
}

func (r *doctors) GetByUserID(ctx context.Context, userID string) (*models.DoctorProfile, error) {
	return findOne[models.DoctorProfile](ctx, r.col, bson.M{"userId": userID})
}

func (r *doctors) Update(ctx context.Context, d *models.DoctorProfile) error {
	d.UpdatedAt = time.Now()
	return setFields(ctx, r.col, d.ID, bson.M{
		"specialization":  d.Specialization,
		"qualification":   d.Qualification,
		"experience":      d.Experience,
		"availability":    d.Availability,
		"bio":             d.Bio,
		"image":           d.Image,
		"consultationFee": d.ConsultationFee,
		"isActive":        d.IsActive,
		"approvedBy":      d.ApprovedBy,
		"approvedAt":      d.ApprovedAt,
		"updatedAt":       d.UpdatedAt,
	})
}

func (r *doctors) UpdateRating(ctx context.Context, id string, rating float64, totalReviews int) error {
	return setFields(ctx, r.col, id, bson.M{
		"rating":       rating,
		"totalReviews": totalReviews,
		"updatedAt":    time.Now(),
	})
}

func (r *doctors) Delete(ctx context.Context, id string) error {
	return deleteOne(ctx, r.col, bson.M{"_id": id})
}

func (r *doctors) List(ctx context.Context, f store.DoctorFilter) ([]models.DoctorProfile, error) {
	filter := bson.M{}
	if f.Specialization != "" {
		filter["specialization"] = iregex(f.Specialization)
	}
	if f.MinRating != nil {
		filter["rating"] = bson.M{"$gte": *f.MinRating}
	}
	fee := bson.M{}
	if f.MinFee != nil {
		fee["$gte"] = *f.MinFee
	}
	if f.MaxFee != nil {
		fee["$lte"] = *f.MaxFee
	}
	if len(fee) > 0 {
		filter["consultationFee"] = fee
	}
	if f.IsActive != nil {
		filter["isActive"] = *f.IsActive
	}
	opts := options.Find().SetSort(bson.D{{Key: "rating", Value: -1}, {Key: "totalReviews", Value: -1}})
	return findMany[models.DoctorProfile](ctx, r.col, filter, opts)
}

type doctorRequests struct{ col *mongo.Collection }

func (r *doctorRequests) Create(ctx context.Context, req *models.DoctorRequest) error {
	req.Stamp(time.Now())
	return insert(ctx, r.col, req)
}

func (r *doctorRequests) Get(ctx context.Context, id string) (*models.DoctorRequest, error) {
	return findOne[models.DoctorRequest](ctx, r.col, bson.M{"_id": id})
}

func (r *doctorRequests) Update(ctx context.Context, req *models.DoctorRequest) error {
	req.UpdatedAt = time.Now()
	return replace(ctx, r.col, req.ID, req)
}

func (r *doctorRequests) ListByStatus(ctx context.Context, status models.AccountStatus) ([]models.DoctorRequest, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	return findMany[models.DoctorRequest](ctx, r.col, filter, newestFirst())
}

type appointments struct{ col *mongo.Collection }

func (r *appointments) Create(ctx context.Context, a *models.Appointment) error {
	a.Stamp(time.Now())
	a.Version = 0
	return insert(ctx, r.col, a)
}

func (r *appointments) Get(ctx context.Context, id string) (*models.Appointment, error) {
	return findOne[models.Appointment](ctx, r.col, bson.M{"_id": id})
}

func (r *appointments) Update(ctx context.Context, a *models.Appointment) error {
	read := a.Version
	pending := *a
	pending.UpdatedAt = time.Now()

	cctx, cancel := withTimeout(ctx)
	defer cancel()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var next models.Appointment
	err := r.col.FindOneAndUpdate(cctx,
		bson.M{"_id": a.ID, "version": read},
		bson.M{"$set": appointmentFields(&pending, read+1)},
		opts,
	).Decode(&next)
	if errors.Is(err, mongo.ErrNoDocuments) {
		n, err := r.col.CountDocuments(cctx, bson.M{"_id": a.ID})
		if err != nil {
			return err
		}
		if n == 0 {
			return store.ErrNotFound
		}
		return store.ErrStaleWrite
	}
	if err != nil {
		return mapErr(err)
	}
	*a = next
	return nil
}

// appointmentFields is the versioned part of an appointment document.
// Calendar event ids are owned by SetCalendarEvents.
func appointmentFields(a *models.Appointment, version int64) bson.M {
	return bson.M{
		"doctorId":           a.DoctorID,
		"patientId":          a.PatientID,
		"patientName":        a.PatientName,
		"patientEmail":       a.PatientEmail,
		"patientPhone":       a.PatientPhone,
		"appointmentDate":    a.AppointmentDate,
		"appointmentTime":    a.AppointmentTime,
		"appointmentType":    a.AppointmentType,
		"status":             a.Status,
		"symptoms":           a.Symptoms,
		"notes":              a.Notes,
		"prescriptionId":     a.PrescriptionID,
		"cancelledAt":        a.CancelledAt,
		"cancellationReason": a.CancellationReason,
		"cancelledBy":        a.CancelledBy,
		"version":            version,
		"updatedAt":          a.UpdatedAt,
	}
}

func (r *appointments) SetCalendarEvents(ctx context.Context, id, googleEventID, appleEventID string) error {
	fields := bson.M{}
	if googleEventID != "" {
		fields["googleCalendarEventId"] = googleEventID
	}
	if appleEventID != "" {
		fields["appleCalendarEventId"] = appleEventID
	}
	if len(fields) == 0 {
		return nil
	}
	return setFields(ctx, r.col, id, fields)
}

func appointmentFilter(f store.AppointmentFilter) bson.M {
	filter := bson.M{}
	if f.PatientID != "" {
		filter["patientId"] = f.PatientID
	}
	if f.DoctorID != "" {
		filter["doctorId"] = f.DoctorID
	}
	if len(f.Statuses) > 0 {
		filter["status"] = bson.M{"$in": f.Statuses}
	}
	date := bson.M{}
	if f.From != nil {
		date["$gte"] = *f.From
	}
	if f.To != nil {
		date["$lt"] = *f.To
	}
	if len(date) > 0 {
		filter["appointmentDate"] = date
	}
	return filter
}

func (r *appointments) List(ctx context.Context, f store.AppointmentFilter) ([]models.Appointment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "appointmentDate", Value: -1}})
	return findMany[models.Appointment](ctx, r.col, appointmentFilter(f), opts)
}

func (r *appointments) Count(ctx context.Context, f store.AppointmentFilter) (int64, error) {
	return count(ctx, r.col, appointmentFilter(f))
}

type reviews struct{ col *mongo.Collection }

func (r *reviews) Create(ctx context.Context, rev *models.Review) error {
	rev.Stamp(time.Now())
	return insert(ctx, r.col, rev)
}

func (r *reviews) Get(ctx context.Context, id string) (*models.Review, error) {
	return findOne[models.Review](ctx, r.col, bson.M{"_id": id})
}

func (r *reviews) GetByAppointment(ctx context.Context, appointmentID string) (*models.Review, error) {
	return findOne[models.Review](ctx, r.col, bson.M{"appointmentId": appointmentID})
}

func (r *reviews) Update(ctx context.Context, rev *models.Review) error {
	rev.UpdatedAt = time.Now()
	return replace(ctx, r.col, rev.ID, rev)
}

func (r *reviews) Delete(ctx context.Context, id string) error {
	return deleteOne(ctx, r.col, bson.M{"_id": id})
}

func (r *reviews) ListByDoctor(ctx context.Context, doctorID string, status models.ReviewStatus) ([]models.Review, error) {
	filter := bson.M{"doctorId": doctorID}
	if status != "" {
		filter["status"] = status
	}
	return findMany[models.Review](ctx, r.col, filter, newestFirst())
}

type prescriptions struct{ col *mongo.Collection }

func (r *prescriptions) Create(ctx context.Context, p *models.Prescription) error {
	p.Stamp(time.Now())
	return insert(ctx, r.col, p)
}

func (r *prescriptions) Get(ctx context.Context, id string) (*models.Prescription, error) {
	return findOne[models.Prescription](ctx, r.col, bson.M{"_id": id})
}

func (r *prescriptions) Update(ctx context.Context, p *models.Prescription) error {
	p.UpdatedAt = time.Now()
	return replace(ctx, r.col, p.ID, p)
}

func (r *prescriptions) List(ctx context.Context, f store.PrescriptionFilter) ([]models.Prescription, error) {
	filter := bson.M{}
	if f.PatientID != "" {
		filter["patientId"] = f.PatientID
	}
	if f.DoctorID != "" {
		filter["doctorId"] = f.DoctorID
	}
	return findMany[models.Prescription](ctx, r.col, filter, newestFirst())
}

type notifications struct{ col *mongo.Collection }

func (r *notifications) Create(ctx context.Context, n *models.Notification) error {
	n.Stamp(time.Now())
	return insert(ctx, r.col, n)
}

func (r *notifications) Get(ctx context.Context, id string) (*models.Notification, error) {
	return findOne[models.Notification](ctx, r.col, bson.M{"_id": id})
}

func (r *notifications) ListByUser(ctx context.Context, userID string) ([]models.Notification, error) {
	return findMany[models.Notification](ctx, r.col, bson.M{"userId": userID}, newestFirst())
}

func (r *notifications) CountUnread(ctx context.Context, userID string) (int64, error) {
	return count(ctx, r.col, bson.M{"userId": userID, "isRead": false})
}

func (r *notifications) MarkRead(ctx context.Context, id string) error {
	return setFields(ctx, r.col, id, bson.M{"isRead": true, "updatedAt": time.Now()})
}

func (r *notifications) MarkAllRead(ctx context.Context, userID string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	_, err := r.col.UpdateMany(ctx,
		bson.M{"userId": userID, "isRead": false},
		bson.M{"$set": bson.M{"isRead": true, "updatedAt": time.Now()}})
	return err
}

func (r *notifications) Delete(ctx context.Context, id string) error {
	return deleteOne(ctx, r.col, bson.M{"_id": id})
}

type favorites struct{ col *mongo.Collection }

func (r *favorites) Create(ctx context.Context, f *models.Favorite) error {
	f.Stamp(time.Now())
	return insert(ctx, r.col, f)
}

func (r *favorites) Delete(ctx context.Context, userID, doctorID string) error {
	return deleteOne(ctx, r.col, bson.M{"userId": userID, "doctorId": doctorID})
}

func (r *favorites) ListByUser(ctx context.Context, userID string) ([]models.Favorite, error) {
	return findMany[models.Favorite](ctx, r.col, bson.M{"userId": userID}, newestFirst())
}

func (r *favorites) Exists(ctx context.Context, userID, doctorID string) (bool, error) {
	n, err := count(ctx, r.col, bson.M{"userId": userID, "doctorId": doctorID})
	return n > 0, err
}

type activityLogs struct{ col *mongo.Collection }

func (r *activityLogs) Create(ctx context.Context, l *models.ActivityLog) error {
	l.Stamp(time.Now())
	return insert(ctx, r.col, l)
}

func (r *activityLogs) List(ctx context.Context, limit, offset int) ([]models.ActivityLog, int64, error) {
	total, err := count(ctx, r.col, bson.M{})
	if err != nil {
		return nil, 0, err
	}
	opts := newestFirst().SetSkip(int64(offset))
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	out, err := findMany[models.ActivityLog](ctx, r.col, bson.M{}, opts)
	return out, total, err
}
