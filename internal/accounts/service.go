// Package accounts manages everything about an account that is not a
// booking: registration and sessions, doctor approvals, admin user
// management, profiles, favourites, notifications, the doctor directory and
// the activity log.
package accounts

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/rs/zerolog"

	"healthcare-booking-server/internal/access"
	"healthcare-booking-server/internal/apperr"
	"healthcare-booking-server/internal/dispatch"
	"healthcare-booking-server/internal/models"
	"healthcare-booking-server/internal/store"
)

// FileStore uploads and deletes profile pictures.
type FileStore interface {
	Upload(ctx context.Context, file io.Reader, filename string) (string, error)
	Delete(ctx context.Context, url string) error
}

// TokenConfig controls credential issuance.
type TokenConfig struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Service implements the account operations.
type Service struct {
	store      *store.Store
	policy     *access.Policy
	dispatcher dispatch.Dispatcher
	files      FileStore
	tokens     TokenConfig
	log        zerolog.Logger
	now        func() time.Time
}

// NewService creates an accounts Service. files may be nil when no file
// storage is configured.
func NewService(s *store.Store, policy *access.Policy, d dispatch.Dispatcher, files FileStore, tokens TokenConfig, log zerolog.Logger) *Service {
	return &Service{
		store:      s,
		policy:     policy,
		dispatcher: d,
		files:      files,
		tokens:     tokens,
		log:        log.With().Str("component", "accounts").Logger(),
		now:        time.Now,
	}
}

// Page is a 1-based page request.
type Page struct {
	Page  int
	Limit int
}

// Normalize applies the page defaults and the limit cap.
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = 10
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
	return p
}

func (p Page) offset() int {
	return (p.Page - 1) * p.Limit
}

// loadUser fetches an account, translating a miss into NotFound.
func (s *Service) loadUser(ctx context.Context, id string) (*models.User, error) {
	u, err := s.store.Users.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("User not found")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return u, nil
}

func (s *Service) loadDoctor(ctx context.Context, id string) (*models.DoctorProfile, error) {
	d, err := s.store.Doctors.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("Doctor not found")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return d, nil
}

// attachUser fills the account summary of a doctor profile. A missing
// account leaves User nil.
func (s *Service) attachUser(ctx context.Context, d *models.DoctorProfile) {
	u, err := s.store.Users.Get(ctx, d.UserID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.log.Warn().Err(err).Str("doctor_id", d.ID).Msg("failed to load doctor account")
		}
		return
	}
	sanitized := u.Sanitize()
	d.User = &sanitized
}

// record writes an activity log entry. Failures are logged only.
func (s *Service) record(ctx context.Context, actor access.Actor, action, entityType, entityID, ip string, details map[string]string) {
	entry := &models.ActivityLog{
		ActorID:    actor.ID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
		IPAddress:  ip,
	}
	if err := s.store.ActivityLogs.Create(ctx, entry); err != nil {
		s.log.Warn().Err(err).Str("action", action).Str("entity_id", entityID).Msg("failed to write activity log")
	}
}

// ListActivity returns the audit trail, newest first.
func (s *Service) ListActivity(ctx context.Context, actor access.Actor, p Page) ([]models.ActivityLog, int64, error) {
	if err := s.policy.RequireRole(actor, models.RoleAdmin); err != nil {
		return nil, 0, err
	}
	p = p.Normalize()
	logs, total, err := s.store.ActivityLogs.List(ctx, p.Limit, p.offset())
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return logs, total, nil
}
