// Package sqlstore implements the store ports on MySQL through gorm.
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"healthcare-booking-server/internal/models"
	"healthcare-booking-server/internal/store"
)

// DatabaseConfig holds database connection details
type DatabaseConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Name     string
}

// DSN builds the MySQL data source name.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		c.Username, c.Password, c.Host, c.Port, c.Name)
}

// InitDB initializes the database connection and migrates the schema
func InitDB(cfg DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.DoctorProfile{},
		&models.DoctorRequest{},
		&models.Appointment{},
		&models.Review{},
		&models.Prescription{},
		&models.Notification{},
		&models.Favorite{},
		&models.ActivityLog{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

// Open connects to MySQL and returns a Store.
func Open(cfg DatabaseConfig) (*store.Store, error) {
	db, err := InitDB(cfg)
	if err != nil {
		return nil, err
	}
	s := New(db)
	s.OnClose = func(context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return s, nil
}

// New builds a Store on an open gorm handle.
func New(db *gorm.DB) *store.Store {
	return &store.Store{
		Users:          &users{db},
		Doctors:        &doctors{db},
		DoctorRequests: &doctorRequests{db},
		Appointments:   &appointments{db},
		Reviews:        &reviews{db},
		Prescriptions:  &prescriptions{db},
		Notifications:  &notifications{db},
		Favorites:      &favorites{db},
		ActivityLogs:   &activityLogs{db},
	}
}

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return store.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return store.ErrDuplicate
	}
	return err
}

func first[T any](ctx context.Context, db *gorm.DB, query string, args ...any) (*T, error) {
	var out T
	if err := db.WithContext(ctx).Where(query, args...).First(&out).Error; err != nil {
		return nil, mapErr(err)
	}
	return &out, nil
}

func affected(res *gorm.DB) error {
	if res.Error != nil {
		return mapErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func like(s string) string {
	return "%" + strings.ToLower(s) + "%"
}

type users struct{ db *gorm.DB }

func (r *users) Create(ctx context.Context, u *models.User) error {
	u.Stamp(time.Now())
	return mapErr(r.db.WithContext(ctx).Create(u).Error)
}

func (r *users) Get(ctx context.Context, id string) (*models.User, error) {
	return first[models.User](ctx, r.db, "id = ?", id)
}

func (r *users) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return first[models.User](ctx, r.db, "email = ?", email)
}

func (r *users) GetByRefreshToken(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, store.ErrNotFound
	}
	return first[models.User](ctx, r.db, "refresh_token = ?", token)
}

func (r *users) Update(ctx context.Context, u *models.User) error {
	u.UpdatedAt = time.Now()
	return affected(r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", u.ID).Select("*").Omit("id", "created_at").Updates(u))
}

func (r *users) Delete(ctx context.Context, id string) error {
	return affected(r.db.WithContext(ctx).Delete(&models.User{}, "id = ?", id))
}

func (r *users) List(ctx context.Context, f store.UserFilter) ([]models.User, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.User{})
	if f.Role != "" {
		q = q.Where("role = ?", f.Role)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Search != "" {
		q = q.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", like(f.Search), like(f.Search))
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	q = q.Order("created_at desc").Offset(f.Offset)
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	out := []models.User{}
	err := q.Find(&out).Error
	return out, total, err
}

type doctors struct{ db *gorm.DB }

func (r *doctors) Create(ctx context.Context, d *models.DoctorProfile) error {
	d.Stamp(time.Now())
	return mapErr(r.db.WithContext(ctx).Create(d).Error)
}

func (r *doctors) Get(ctx context.Context, id string) (*models.DoctorProfile, error) {
	return first[models.DoctorProfile](ctx, r.db, "id = ?", id)
}

func (r *doctors) GetByUserID(ctx context.Context, userID string) (*models.DoctorProfile, error) {
	return first[models.DoctorProfile](ctx, r.db, "user_id = ?", userID)
}

func (r *doctors) Update(ctx context.Context, d *models.DoctorProfile) error {
	d.UpdatedAt = time.Now()
	return affected(r.db.WithContext(ctx).Model(&models.DoctorProfile{}).Where("id = ?", d.ID).
		Select("specialization", "qualification", "experience", "availability", "bio", "image",
			"consultation_fee", "is_active", "approved_by", "approved_at", "updated_at").
		Updates(d))
}

func (r *doctors) UpdateRating(ctx context.Context, id string, rating float64, totalReviews int) error {
	res := r.db.WithContext(ctx).Model(&models.DoctorProfile{}).Where("id = ?", id).
		Updates(map[string]any{"rating": rating, "total_reviews": totalReviews, "updated_at": time.Now()})
	return affected(res)
}

func (r *doctors) Delete(ctx context.Context, id string) error {
	return affected(r.db.WithContext(ctx).Delete(&models.DoctorProfile{}, "id = ?", id))
}

func (r *doctors) List(ctx context.Context, f store.DoctorFilter) ([]models.DoctorProfile, error) {
	q := r.db.WithContext(ctx).Model(&models.DoctorProfile{})
	if f.Specialization != "" {
		q = q.Where("LOWER(specialization) LIKE ?", like(f.Specialization))
	}
	if f.MinRating != nil {
		q = q.Where("rating >= ?", *f.MinRating)
	}
	if f.MinFee != nil {
		q = q.Where("consultation_fee >= ?", *f.MinFee)
	}
	if f.MaxFee != nil {
		q = q.Where("consultation_fee <= ?", *f.MaxFee)
	}
	if f.IsActive != nil {
		q = q.Where("is_active = ?", *f.IsActive)
	}
	out := []models.DoctorProfile{}
	err := q.Order("rating desc").Order("total_reviews desc").Find(&out).Error
	return out, err
}

type doctorRequests struct{ db *gorm.DB }

func (r *doctorRequests) Create(ctx context.Context, req *models.DoctorRequest) error {
	req.Stamp(time.Now())
	return mapErr(r.db.WithContext(ctx).Create(req).Error)
}

func (r *doctorRequests) Get(ctx context.Context, id string) (*models.DoctorRequest, error) {
	return first[models.DoctorRequest](ctx, r.db, "id = ?", id)
}

func (r *doctorRequests) Update(ctx context.Context, req *models.DoctorRequest) error {
	req.UpdatedAt = time.Now()
	return affected(r.db.WithContext(ctx).Model(&models.DoctorRequest{}).Where("id = ?", req.ID).Select("*").Omit("id", "created_at").Updates(req))
}

func (r *doctorRequests) ListByStatus(ctx context.Context, status models.AccountStatus) ([]models.DoctorRequest, error) {
	q := r.db.WithContext(ctx).Order("created_at desc")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	out := []models.DoctorRequest{}
	err := q.Find(&out).Error
	return out, err
}

type appointments struct{ db *gorm.DB }

func (r *appointments) Create(ctx context.Context, a *models.Appointment) error {
	a.Stamp(time.Now())
	a.Version = 0
	return mapErr(r.db.WithContext(ctx).Create(a).Error)
}

func (r *appointments) Get(ctx context.Context, id string) (*models.Appointment, error) {
	return first[models.Appointment](ctx, r.db, "id = ?", id)
}

func (r *appointments) Update(ctx context.Context, a *models.Appointment) error {
	next := *a
	next.Version = a.Version + 1
	next.UpdatedAt = time.Now()

	res := r.db.WithContext(ctx).Model(&models.Appointment{}).
		Where("id = ? AND version = ?", a.ID, a.Version).
		Select("*").Omit(appointmentUnversioned...).
		Updates(&next)
	if res.Error != nil {
		return mapErr(res.Error)
	}
	if res.RowsAffected == 0 {
		var n int64
		if err := r.db.WithContext(ctx).Model(&models.Appointment{}).Where("id = ?", a.ID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return store.ErrNotFound
		}
		return store.ErrStaleWrite
	}
	stored, err := r.Get(ctx, a.ID)
	if err != nil {
		return err
	}
	next.GoogleEventID = stored.GoogleEventID
	next.AppleEventID = stored.AppleEventID
	*a = next
	return nil
}

// appointmentUnversioned are the columns a versioned update never writes.
// Calendar event ids are owned by SetCalendarEvents.
var appointmentUnversioned = []string{"id", "created_at", "google_event_id", "apple_event_id"}

func (r *appointments) SetCalendarEvents(ctx context.Context, id, googleEventID, appleEventID string) error {
	fields := map[string]any{}
	if googleEventID != "" {
		fields["google_event_id"] = googleEventID
	}
	if appleEventID != "" {
		fields["apple_event_id"] = appleEventID
	}
	if len(fields) == 0 {
		return nil
	}
	return mapErr(r.db.WithContext(ctx).Model(&models.Appointment{}).Where("id = ?", id).UpdateColumns(fields).Error)
}

func (r *appointments) scope(ctx context.Context, f store.AppointmentFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Appointment{})
	if f.PatientID != "" {
		q = q.Where("patient_id = ?", f.PatientID)
	}
	if f.DoctorID != "" {
		q = q.Where("doctor_id = ?", f.DoctorID)
	}
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", f.Statuses)
	}
	if f.From != nil {
		q = q.Where("appointment_date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("appointment_date < ?", *f.To)
	}
	return q
}

func (r *appointments) List(ctx context.Context, f store.AppointmentFilter) ([]models.Appointment, error) {
	out := []models.Appointment{}
	err := r.scope(ctx, f).Order("appointment_date desc").Find(&out).Error
	return out, err
}

func (r *appointments) Count(ctx context.Context, f store.AppointmentFilter) (int64, error) {
	var n int64
	err := r.scope(ctx, f).Count(&n).Error
	return n, err
}

type reviews struct{ db *gorm.DB }

func (r *reviews) Create(ctx context.Context, rev *models.Review) error {
	rev.Stamp(time.Now())
	return mapErr(r.db.WithContext(ctx).Create(rev).Error)
}

func (r *reviews) Get(ctx context.Context, id string) (*models.Review, error) {
	return first[models.Review](ctx, r.db, "id = ?", id)
}

func (r *reviews) GetByAppointment(ctx context.Context, appointmentID string) (*models.Review, error) {
	return first[models.Review](ctx, r.db, "appointment_id = ?", appointmentID)
}

func (r *reviews) Update(ctx context.Context, rev *models.Review) error {
	rev.UpdatedAt = time.Now()
	return affected(r.db.WithContext(ctx).Model(&models.Review{}).Where("id = ?", rev.ID).Select("*").Omit("id", "created_at").Updates(rev))
}

func (r *reviews) Delete(ctx context.Context, id string) error {
	return affected(r.db.WithContext(ctx).Delete(&models.Review{}, "id = ?", id))
}

func (r *reviews) ListByDoctor(ctx context.Context, doctorID string, status models.ReviewStatus) ([]models.Review, error) {
	q := r.db.WithContext(ctx).Where("doctor_id = ?", doctorID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	out := []models.Review{}
	err := q.Order("created_at desc").Find(&out).Error
	return out, err
}

type prescriptions struct{ db *gorm.DB }

func (r *prescriptions) Create(ctx context.Context, p *models.Prescription) error {
	p.Stamp(time.Now())
	return mapErr(r.db.WithContext(ctx).Create(p).Error)
}

func (r *prescriptions) Get(ctx context.Context, id string) (*models.Prescription, error) {
	return first[models.Prescription](ctx, r.db, "id = ?", id)
}

func (r *prescriptions) Update(ctx context.Context, p *models.Prescription) error {
	p.UpdatedAt = time.Now()
	return affected(r.db.WithContext(ctx).Model(&models.Prescription{}).Where("id = ?", p.ID).Select("*").Omit("id", "created_at").Updates(p))
}

func (r *prescriptions) List(ctx context.Context, f store.PrescriptionFilter) ([]models.Prescription, error) {
	q := r.db.WithContext(ctx).Order("created_at desc")
	if f.PatientID != "" {
		q = q.Where("patient_id = ?", f.PatientID)
	}
	if f.DoctorID != "" {
		q = q.Where("doctor_id = ?", f.DoctorID)
	}
	out := []models.Prescription{}
	err := q.Find(&out).Error
	return out, err
}

type notifications struct{ db *gorm.DB }

func (r *notifications) Create(ctx context.Context, n *models.Notification) error {
	n.Stamp(time.Now())
	return mapErr(r.db.WithContext(ctx).Create(n).Error)
}

func (r *notifications) Get(ctx context.Context, id string) (*models.Notification, error) {
	return first[models.Notification](ctx, r.db, "id = ?", id)
}

func (r *notifications) ListByUser(ctx context.Context, userID string) ([]models.Notification, error) {
	out := []models.Notification{}
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at desc").Find(&out).Error
	return out, err
}

func (r *notifications) CountUnread(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Notification{}).Where("user_id = ? AND is_read = ?", userID, false).Count(&n).Error
	return n, err
}

func (r *notifications) MarkRead(ctx context.Context, id string) error {
	return affected(r.db.WithContext(ctx).Model(&models.Notification{}).Where("id = ?", id).
		Updates(map[string]any{"is_read": true, "updated_at": time.Now()}))
}

func (r *notifications) MarkAllRead(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).Model(&models.Notification{}).Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]any{"is_read": true, "updated_at": time.Now()}).Error
}

func (r *notifications) Delete(ctx context.Context, id string) error {
	return affected(r.db.WithContext(ctx).Delete(&models.Notification{}, "id = ?", id))
}

type favorites struct{ db *gorm.DB }

func (r *favorites) Create(ctx context.Context, f *models.Favorite) error {
	f.Stamp(time.Now())
	return mapErr(r.db.WithContext(ctx).Create(f).Error)
}

func (r *favorites) Delete(ctx context.Context, userID, doctorID string) error {
	return affected(r.db.WithContext(ctx).Delete(&models.Favorite{}, "user_id = ? AND doctor_id = ?", userID, doctorID))
}

func (r *favorites) ListByUser(ctx context.Context, userID string) ([]models.Favorite, error) {
	out := []models.Favorite{}
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at desc").Find(&out).Error
	return out, err
}

func (r *favorites) Exists(ctx context.Context, userID, doctorID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Favorite{}).Where("user_id = ? AND doctor_id = ?", userID, doctorID).Count(&n).Error
	return n > 0, err
}

type activityLogs struct{ db *gorm.DB }

func (r *activityLogs) Create(ctx context.Context, l *models.ActivityLog) error {
	l.Stamp(time.Now())
	return mapErr(r.db.WithContext(ctx).Create(l).Error)
}

func (r *activityLogs) List(ctx context.Context, limit, offset int) ([]models.ActivityLog, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.ActivityLog{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	q := r.db.WithContext(ctx).Order("created_at desc").Offset(offset)
	if limit > 0 {
		q = q.Limit(limit)
	}
	out := []models.ActivityLog{}
	err := q.Find(&out).Error
	return out, total, err
}
