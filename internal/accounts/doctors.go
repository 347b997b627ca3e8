package accounts

import (
	"context"
	"errors"
	"strings"

	"healthcare-booking-server/internal/access"
	"healthcare-booking-server/internal/apperr"
	"healthcare-booking-server/internal/models"
	"healthcare-booking-server/internal/store"
)

// DoctorQuery is the public doctor search.
type DoctorQuery struct {
	Search         string // name or specialization
	Specialization string
	MinRating      *float64
	MinFee         *float64
	MaxFee         *float64
	IsActive       *bool // nil means active only
}

// DoctorInput carries admin edits to a doctor profile. Nil fields are kept.
// Rating and review counts are never taken from here.
type DoctorInput struct {
	UserID          string
	Specialization  *string
	Qualification   *string
	Experience      *int
	Availability    map[string][]string
	Bio             *string
	Image           *string
	ConsultationFee *float64
	IsActive        *bool
}

// SearchDoctors returns matching doctor profiles sorted by rating, then
// review count, both descending.
func (s *Service) SearchDoctors(ctx context.Context, q DoctorQuery) ([]models.DoctorProfile, error) {
	active := true
	if q.IsActive == nil {
		q.IsActive = &active
	}
	doctors, err := s.store.Doctors.List(ctx, store.DoctorFilter{
		Specialization: strings.TrimSpace(q.Specialization),
		MinRating:      q.MinRating,
		MinFee:         q.MinFee,
		MaxFee:         q.MaxFee,
		IsActive:       q.IsActive,
	})
	if err != nil {
		return nil, apperr.Internal(err)
	}

	term := strings.ToLower(strings.TrimSpace(q.Search))
	out := make([]models.DoctorProfile, 0, len(doctors))
	for i := range doctors {
		d := &doctors[i]
		s.attachUser(ctx, d)
		if term != "" && !matchesDoctor(d, term) {
			continue
		}
		out = append(out, *d)
	}
	return out, nil
}

func matchesDoctor(d *models.DoctorProfile, term string) bool {
	if strings.Contains(strings.ToLower(d.Specialization), term) {
		return true
	}
	return d.User != nil && strings.Contains(strings.ToLower(d.User.Name), term)
}

// GetDoctor returns a doctor profile with its account summary.
func (s *Service) GetDoctor(ctx context.Context, id string) (*models.DoctorProfile, error) {
	return s.PublicDoctorProfile(ctx, id)
}

// CreateDoctor creates a profile for an existing doctor account.
func (s *Service) CreateDoctor(ctx context.Context, actor access.Actor, in DoctorInput) (*models.DoctorProfile, error) {
	if err := s.policy.RequireRole(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	if in.UserID == "" {
		return nil, apperr.Validation("User is required")
	}
	if in.Specialization == nil || strings.TrimSpace(*in.Specialization) == "" {
		return nil, apperr.Validation("Specialization is required")
	}
	user, err := s.loadUser(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if user.Role != models.RoleDoctor {
		return nil, apperr.Validation("User is not a doctor")
	}

	now := s.now()
	d := &models.DoctorProfile{UserID: user.ID, IsActive: true, ApprovedBy: actor.ID, ApprovedAt: &now}
	applyDoctorInput(d, in)
	err = s.store.Doctors.Create(ctx, d)
	if errors.Is(err, store.ErrDuplicate) {
		return nil, apperr.Conflict("Doctor profile already exists")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	sanitized := user.Sanitize()
	d.User = &sanitized
	return d, nil
}

// UpdateDoctor applies admin edits to a doctor profile.
func (s *Service) UpdateDoctor(ctx context.Context, actor access.Actor, id string, in DoctorInput) (*models.DoctorProfile, error) {
	if err := s.policy.RequireRole(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	d, err := s.loadDoctor(ctx, id)
	if err != nil {
		return nil, err
	}
	applyDoctorInput(d, in)
	if strings.TrimSpace(d.Specialization) == "" {
		return nil, apperr.Validation("Specialization is required")
	}
	if err := s.store.Doctors.Update(ctx, d); err != nil {
		return nil, apperr.Internal(err)
	}
	s.attachUser(ctx, d)
	return d, nil
}

// DeleteDoctor removes a doctor profile. The account is kept.
func (s *Service) DeleteDoctor(ctx context.Context, actor access.Actor, id string) error {
	if err := s.policy.RequireRole(actor, models.RoleAdmin); err != nil {
		return err
	}
	err := s.store.Doctors.Delete(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("Doctor not found")
	}
	if err != nil {
		return apperr.Internal(err)
	}
	return nil
}

func applyDoctorInput(d *models.DoctorProfile, in DoctorInput) {
	if in.Specialization != nil {
		d.Specialization = strings.TrimSpace(*in.Specialization)
	}
	if in.Qualification != nil {
		d.Qualification = *in.Qualification
	}
	if in.Experience != nil {
		d.Experience = *in.Experience
	}
	if in.Availability != nil {
		d.Availability = in.Availability
	}
	if in.Bio != nil {
		d.Bio = *in.Bio
	}
	if in.Image != nil {
		d.Image = *in.Image
	}
	if in.ConsultationFee != nil {
		d.ConsultationFee = *in.ConsultationFee
	}
	if in.IsActive != nil {
		d.IsActive = *in.IsActive
	}
}
