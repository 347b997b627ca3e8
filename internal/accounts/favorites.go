package accounts

import (
	"context"
	"errors"

	"healthcare-booking-server/internal/access"
	"healthcare-booking-server/internal/apperr"
	"healthcare-booking-server/internal/models"
	"healthcare-booking-server/internal/store"
)

// AddFavorite marks a doctor as a favourite of the acting patient.
func (s *Service) AddFavorite(ctx context.Context, actor access.Actor, doctorID string) (*models.Favorite, error) {
	if err := s.policy.RequireRole(actor, models.RolePatient); err != nil {
		return nil, err
	}
	if doctorID == "" {
		return nil, apperr.Validation("Doctor is required")
	}
	doctor, err := s.loadDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	fav := &models.Favorite{UserID: actor.ID, DoctorID: doctor.ID}
	err = s.store.Favorites.Create(ctx, fav)
	if errors.Is(err, store.ErrDuplicate) {
		return nil, apperr.Conflict("Doctor is already in favorites")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	s.attachUser(ctx, doctor)
	fav.Doctor = doctor
	return fav, nil
}

// RemoveFavorite removes a doctor from the acting patient's favourites.
func (s *Service) RemoveFavorite(ctx context.Context, actor access.Actor, doctorID string) error {
	if err := s.policy.RequireRole(actor, models.RolePatient); err != nil {
		return err
	}
	err := s.store.Favorites.Delete(ctx, actor.ID, doctorID)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("Favorite not found")
	}
	if err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// ListFavorites returns the acting patient's favourites with doctor details.
// Favourites whose doctor no longer exists are skipped.
func (s *Service) ListFavorites(ctx context.Context, actor access.Actor) ([]models.Favorite, error) {
	if err := s.policy.RequireRole(actor, models.RolePatient); err != nil {
		return nil, err
	}
	favs, err := s.store.Favorites.ListByUser(ctx, actor.ID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	out := make([]models.Favorite, 0, len(favs))
	for _, f := range favs {
		doctor, err := s.store.Doctors.Get(ctx, f.DoctorID)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, apperr.Internal(err)
		}
		s.attachUser(ctx, doctor)
		f.Doctor = doctor
		out = append(out, f)
	}
	return out, nil
}

// IsFavorite reports whether doctorID is a favourite of the acting patient.
func (s *Service) IsFavorite(ctx context.Context, actor access.Actor, doctorID string) (bool, error) {
	if err := s.policy.RequireRole(actor, models.RolePatient); err != nil {
		return false, err
	}
	ok, err := s.store.Favorites.Exists(ctx, actor.ID, doctorID)
	if err != nil {
		return false, apperr.Internal(err)
	}
	return ok, nil
}
