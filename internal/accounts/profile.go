package accounts

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"healthcare-booking-server/internal/apperr"
	"healthcare-booking-server/internal/models"
	"healthcare-booking-server/internal/store"
)

// Profile is the caller's own account, plus the doctor profile for doctors.
type Profile struct {
	User          models.UserSanitized  `json:"user"`
	DoctorProfile *models.DoctorProfile `json:"doctorProfile,omitempty"`
}

// ProfileInput carries self-service edits. Nil fields are kept.
type ProfileInput struct {
	Name        *string
	Phone       *string
	Address     *string
	Gender      *string
	DateOfBirth *time.Time
}

// GetProfile returns the account of userID.
func (s *Service) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	p := &Profile{User: user.Sanitize()}
	if user.Role == models.RoleDoctor {
		profile, err := s.store.Doctors.GetByUserID(ctx, user.ID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Internal(err)
		}
		p.DoctorProfile = profile
	}
	return p, nil
}

// UpdateProfile applies self-service edits to the caller's account.
func (s *Service) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*models.User, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperr.Validation("Name cannot be empty")
		}
		user.Name = name
	}
	if in.Phone != nil {
		user.Phone = *in.Phone
	}
	if in.Address != nil {
		user.Address = *in.Address
	}
	if in.Gender != nil {
		user.Gender = *in.Gender
	}
	if in.DateOfBirth != nil {
		if in.DateOfBirth.After(s.now()) {
			return nil, apperr.Validation("Date of birth cannot be in the future")
		}
		user.DateOfBirth = in.DateOfBirth
	}
	if err := s.store.Users.Update(ctx, user); err != nil {
		return nil, apperr.Internal(err)
	}
	return user, nil
}

// UpdatePicture uploads a new profile picture and deletes the previous one
// on a best-effort basis.
func (s *Service) UpdatePicture(ctx context.Context, userID string, file io.Reader, filename string) (*models.User, error) {
	if s.files == nil {
		return nil, apperr.Internal(errors.New("file storage is not configured"))
	}
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	url, err := s.files.Upload(ctx, file, filename)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	previous := user.ProfilePicture
	user.ProfilePicture = url
	if err := s.store.Users.Update(ctx, user); err != nil {
		return nil, apperr.Internal(err)
	}

	if previous != "" {
		if err := s.files.Delete(ctx, previous); err != nil {
			s.log.Warn().Err(err).Str("user_id", user.ID).Msg("failed to delete previous profile picture")
		}
	}
	return user, nil
}

// PublicDoctorProfile returns a doctor profile with its account summary.
func (s *Service) PublicDoctorProfile(ctx context.Context, doctorID string) (*models.DoctorProfile, error) {
	d, err := s.loadDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	s.attachUser(ctx, d)
	return d, nil
}
