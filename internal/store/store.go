// Package store declares the persistence ports used by the services. Each
// backend (mongostore, sqlstore, memstore) implements every repository.
package store

import (
	"context"
	"errors"
	"time"

	"healthcare-booking-server/internal/models"
)

var (
	// ErrNotFound is returned when no document matches the lookup.
	ErrNotFound = errors.New("store: not found")
	// ErrDuplicate is returned when a unique constraint would be violated.
	ErrDuplicate = errors.New("store: duplicate")
	// ErrStaleWrite is returned when a versioned update lost a race.
	ErrStaleWrite = errors.New("store: stale write")
)

// UserFilter narrows account listings. Zero fields do not filter.
type UserFilter struct {
	Role   models.Role
	Status models.AccountStatus
	Search string // case-insensitive match on name or email
	Limit  int
	Offset int
}

// DoctorFilter narrows doctor profile listings.
type DoctorFilter struct {
	Specialization string // case-insensitive substring
	MinRating      *float64
	MinFee         *float64
	MaxFee         *float64
	IsActive       *bool
}

// AppointmentFilter narrows appointment listings. From is inclusive, To exclusive.
type AppointmentFilter struct {
	PatientID string
	DoctorID  string
	Statuses  []models.AppointmentStatus
	From      *time.Time
	To        *time.Time
}

// PrescriptionFilter narrows prescription listings.
type PrescriptionFilter struct {
	PatientID string
	DoctorID  string
}

// Users persists accounts.
type Users interface {
	Create(ctx context.Context, u *models.User) error
	Get(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByRefreshToken(ctx context.Context, token string) (*models.User, error)
	Update(ctx context.Context, u *models.User) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f UserFilter) ([]models.User, int64, error)
}

// Doctors persists doctor profiles.
type Doctors interface {
	Create(ctx context.Context, d *models.DoctorProfile) error
	Get(ctx context.Context, id string) (*models.DoctorProfile, error)
	GetByUserID(ctx context.Context, userID string) (*models.DoctorProfile, error)
	// Update writes every client-editable field. Rating and TotalReviews are left untouched.
	Update(ctx context.Context, d *models.DoctorProfile) error
	UpdateRating(ctx context.Context, id string, rating float64, totalReviews int) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f DoctorFilter) ([]models.DoctorProfile, error)
}

// DoctorRequests persists pending doctor registrations.
type DoctorRequests interface {
	Create(ctx context.Context, r *models.DoctorRequest) error
	Get(ctx context.Context, id string) (*models.DoctorRequest, error)
	Update(ctx context.Context, r *models.DoctorRequest) error
	ListByStatus(ctx context.Context, status models.AccountStatus) ([]models.DoctorRequest, error)
}

// Appointments persists bookings.
type Appointments interface {
	Create(ctx context.Context, a *models.Appointment) error
	Get(ctx context.Context, id string) (*models.Appointment, error)
	// Update writes a only if the stored version equals a.Version, then
	// increments a.Version. A mismatch yields ErrStaleWrite.
	Update(ctx context.Context, a *models.Appointment) error
	// SetCalendarEvents stores external event ids without touching the version.
	SetCalendarEvents(ctx context.Context, id, googleEventID, appleEventID string) error
	List(ctx context.Context, f AppointmentFilter) ([]models.Appointment, error)
	Count(ctx context.Context, f AppointmentFilter) (int64, error)
}

// Reviews persists reviews. AppointmentID is unique.
type Reviews interface {
	Create(ctx context.Context, r *models.Review) error
	Get(ctx context.Context, id string) (*models.Review, error)
	GetByAppointment(ctx context.Context, appointmentID string) (*models.Review, error)
	Update(ctx context.Context, r *models.Review) error
	Delete(ctx context.Context, id string) error
	// ListByDoctor returns reviews for a doctor profile, optionally only with status.
	ListByDoctor(ctx context.Context, doctorID string, status models.ReviewStatus) ([]models.Review, error)
}

// Prescriptions persists prescriptions.
type Prescriptions interface {
	Create(ctx context.Context, p *models.Prescription) error
	Get(ctx context.Context, id string) (*models.Prescription, error)
	Update(ctx context.Context, p *models.Prescription) error
	List(ctx context.Context, f PrescriptionFilter) ([]models.Prescription, error)
}

// Notifications persists in-app notifications.
type Notifications interface {
	Create(ctx context.Context, n *models.Notification) error
	Get(ctx context.Context, id string) (*models.Notification, error)
	ListByUser(ctx context.Context, userID string) ([]models.Notification, error)
	CountUnread(ctx context.Context, userID string) (int64, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context, userID string) error
	Delete(ctx context.Context, id string) error
}

// Favorites persists patient favourites. (UserID, DoctorID) is unique.
type Favorites interface {
	Create(ctx context.Context, f *models.Favorite) error
	Delete(ctx context.Context, userID, doctorID string) error
	ListByUser(ctx context.Context, userID string) ([]models.Favorite, error)
	Exists(ctx context.Context, userID, doctorID string) (bool, error)
}

// ActivityLogs persists the admin audit trail.
type ActivityLogs interface {
	Create(ctx context.Context, l *models.ActivityLog) error
	List(ctx context.Context, limit, offset int) ([]models.ActivityLog, int64, error)
}

// Store bundles every repository of one backend.
type Store struct {
	Users          Users
	Doctors        Doctors
	DoctorRequests DoctorRequests
	Appointments   Appointments
	Reviews        Reviews
	Prescriptions  Prescriptions
	Notifications  Notifications
	Favorites      Favorites
	ActivityLogs   ActivityLogs

	// OnClose releases the backend's connections. May be nil.
	OnClose func(ctx context.Context) error
}

// Close releases the backend.
func (s *Store) Close(ctx context.Context) error {
	if s.OnClose == nil {
		return nil
	}
	return s.OnClose(ctx)
}
