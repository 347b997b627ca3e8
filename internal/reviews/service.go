// Package reviews manages patient reviews of completed appointments and
// keeps the doctor rating in step with them.
package reviews

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"healthcare-booking-server/internal/access"
	"healthcare-booking-server/internal/apperr"
	"healthcare-booking-server/internal/dispatch"
	"healthcare-booking-server/internal/models"
	"healthcare-booking-server/internal/rating"
	"healthcare-booking-server/internal/store"
)

// Service implements review operations.
type Service struct {
	reviews      store.Reviews
	appointments store.Appointments
	policy       *access.Policy
	aggregator   *rating.Aggregator
	dispatcher   dispatch.Dispatcher
	autoApprove  bool
	log          zerolog.Logger
}

// NewService creates a review Service. New reviews start approved when autoApprove is set.
func NewService(s *store.Store, policy *access.Policy, agg *rating.Aggregator, d dispatch.Dispatcher, autoApprove bool, log zerolog.Logger) *Service {
	return &Service{
		reviews:      s.Reviews,
		appointments: s.Appointments,
		policy:       policy,
		aggregator:   agg,
		dispatcher:   d,
		autoApprove:  autoApprove,
		log:          log.With().Str("component", "reviews").Logger(),
	}
}

// CreateInput is a new review. DoctorID is optional and must match the appointment.
type CreateInput struct {
	AppointmentID string
	DoctorID      string
	Rating        int
	Comment       string
}

var errDuplicate = apperr.Conflict("You have already reviewed this appointment").WithCode(apperr.CodeDuplicateReview)

func validRating(r int) error {
	if r < 1 || r > 5 {
		return apperr.Validation("Rating must be between 1 and 5")
	}
	return nil
}

func (s *Service) load(ctx context.Context, id string) (*models.Review, error) {
	r, err := s.reviews.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("Review not found")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return r, nil
}

func (s *Service) recompute(ctx context.Context, doctorID string) error {
	if _, _, err := s.aggregator.Recompute(ctx, doctorID); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// Create stores a review for a completed appointment of the acting patient.
func (s *Service) Create(ctx context.Context, actor access.Actor, in CreateInput) (*models.Review, error) {
	if err := validRating(in.Rating); err != nil {
		return nil, err
	}
	if in.AppointmentID == "" {
		return nil, apperr.Validation("Appointment is required")
	}
	appt, err := s.appointments.Get(ctx, in.AppointmentID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("Appointment not found")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if err := s.policy.AuthorizeCreateReview(actor, appt); err != nil {
		return nil, err
	}
	if in.DoctorID != "" && in.DoctorID != appt.DoctorID {
		return nil, apperr.Validation("Doctor does not match the appointment")
	}

	if _, err := s.reviews.GetByAppointment(ctx, appt.ID); err == nil {
		return nil, errDuplicate
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Internal(err)
	}

	status := models.ReviewPending
	if s.autoApprove {
		status = models.ReviewApproved
	}
	review := &models.Review{
		DoctorID:      appt.DoctorID,
		PatientID:     actor.ID,
		AppointmentID: appt.ID,
		Rating:        in.Rating,
		Comment:       in.Comment,
		Status:        status,
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, errDuplicate
		}
		return nil, apperr.Internal(err)
	}
	if err := s.recompute(ctx, review.DoctorID); err != nil {
		return nil, err
	}

	snap := *review
	s.dispatcher.Dispatch(dispatch.Intent{Event: dispatch.ReviewReceived, Review: &snap, ActorID: actor.ID})
	return review, nil
}

// ListForDoctor returns the approved reviews of a doctor profile.
func (s *Service) ListForDoctor(ctx context.Context, doctorID string) ([]models.Review, error) {
	out, err := s.reviews.ListByDoctor(ctx, doctorID, models.ReviewApproved)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}

// Update edits the rating or comment of a review.
func (s *Service) Update(ctx context.Context, actor access.Actor, id string, ratingValue *int, comment *string) (*models.Review, error) {
	review, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.AuthorizeReviewChange(actor, review); err != nil {
		return nil, err
	}
	if ratingValue != nil {
		if err := validRating(*ratingValue); err != nil {
			return nil, err
		}
		review.Rating = *ratingValue
	}
	if comment != nil {
		review.Comment = *comment
	}
	if err := s.reviews.Update(ctx, review); err != nil {
		return nil, apperr.Internal(err)
	}
	if err := s.recompute(ctx, review.DoctorID); err != nil {
		return nil, err
	}
	return review, nil
}

// Delete removes a review.
func (s *Service) Delete(ctx context.Context, actor access.Actor, id string) error {
	review, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.policy.AuthorizeReviewChange(actor, review); err != nil {
		return err
	}
	if err := s.reviews.Delete(ctx, id); err != nil {
		return apperr.Internal(err)
	}
	return s.recompute(ctx, review.DoctorID)
}

// Moderate sets the moderation status of a review (admin).
func (s *Service) Moderate(ctx context.Context, actor access.Actor, id string, status models.ReviewStatus) (*models.Review, error) {
	if err := s.policy.AuthorizeModerateReview(actor); err != nil {
		return nil, err
	}
	if status != models.ReviewApproved && status != models.ReviewRejected {
		return nil, apperr.Validation("Status must be approved or rejected")
	}
	review, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	review.Status = status
	if err := s.reviews.Update(ctx, review); err != nil {
		return nil, apperr.Internal(err)
	}
	if err := s.recompute(ctx, review.DoctorID); err != nil {
		return nil, err
	}
	s.log.Info().Str("review_id", review.ID).Str("status", string(status)).Msg("review moderated")
	return review, nil
}
