package accounts

import (
	"context"
	"errors"

	"healthcare-booking-server/internal/access"
	"healthcare-booking-server/internal/apperr"
	"healthcare-booking-server/internal/dispatch"
	"healthcare-booking-server/internal/models"
	"healthcare-booking-server/internal/store"
)

// PendingDoctors lists doctor registrations awaiting review.
func (s *Service) PendingDoctors(ctx context.Context, actor access.Actor) ([]models.DoctorRequest, error) {
	if err := s.policy.RequireRole(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	reqs, err := s.store.DoctorRequests.ListByStatus(ctx, models.AccountPending)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	for i := range reqs {
		if u, err := s.store.Users.Get(ctx, reqs[i].UserID); err == nil {
			sanitized := u.Sanitize()
			reqs[i].User = &sanitized
		}
	}
	return reqs, nil
}

// ApproveDoctor approves a pending doctor registration: the account becomes
// approved and a DoctorProfile is created from the request.
func (s *Service) ApproveDoctor(ctx context.Context, actor access.Actor, requestID, ip string) (*models.DoctorProfile, error) {
	req, user, err := s.pendingRequest(ctx, actor, requestID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user.Status = models.AccountApproved
	if err := s.store.Users.Update(ctx, user); err != nil {
		return nil, apperr.Internal(err)
	}

	profile, err := s.store.Doctors.GetByUserID(ctx, user.ID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		profile = &models.DoctorProfile{
			UserID:         user.ID,
			Specialization: req.Specialization,
			Qualification:  req.Qualification,
			Experience:     req.Experience,
			Bio:            req.Bio,
			IsActive:       true,
			ApprovedBy:     actor.ID,
			ApprovedAt:     &now,
		}
		if err := s.store.Doctors.Create(ctx, profile); err != nil {
			return nil, apperr.Internal(err)
		}
	case err != nil:
		return nil, apperr.Internal(err)
	default:
		profile.IsActive = true
		profile.ApprovedBy = actor.ID
		profile.ApprovedAt = &now
		if err := s.store.Doctors.Update(ctx, profile); err != nil {
			return nil, apperr.Internal(err)
		}
	}

	req.Status = models.AccountApproved
	req.ReviewedAt = &now
	req.ReviewedBy = actor.ID
	if err := s.store.DoctorRequests.Update(ctx, req); err != nil {
		return nil, apperr.Internal(err)
	}

	sanitized := user.Sanitize()
	profile.User = &sanitized
	s.dispatcher.Dispatch(dispatch.Intent{Event: dispatch.DoctorApproved, Account: &sanitized, ActorID: actor.ID})
	s.record(ctx, actor, "approved doctor", "user", user.ID, ip, map[string]string{"requestId": req.ID})
	return profile, nil
}

// RejectDoctor rejects a pending doctor registration with a reason.
func (s *Service) RejectDoctor(ctx context.Context, actor access.Actor, requestID, reason, ip string) (*models.DoctorRequest, error) {
	req, user, err := s.pendingRequest(ctx, actor, requestID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user.Status = models.AccountRejected
	if err := s.store.Users.Update(ctx, user); err != nil {
		return nil, apperr.Internal(err)
	}

	req.Status = models.AccountRejected
	req.ReviewedAt = &now
	req.ReviewedBy = actor.ID
	req.RejectionReason = reason
	if err := s.store.DoctorRequests.Update(ctx, req); err != nil {
		return nil, apperr.Internal(err)
	}

	sanitized := user.Sanitize()
	req.User = &sanitized
	s.dispatcher.Dispatch(dispatch.Intent{Event: dispatch.DoctorRejected, Account: &sanitized, ActorID: actor.ID, Reason: reason})
	s.record(ctx, actor, "rejected doctor", "user", user.ID, ip, map[string]string{"requestId": req.ID, "reason": reason})
	return req, nil
}

func (s *Service) pendingRequest(ctx context.Context, actor access.Actor, requestID string) (*models.DoctorRequest, *models.User, error) {
	if err := s.policy.RequireRole(actor, models.RoleAdmin); err != nil {
		return nil, nil, err
	}
	req, err := s.store.DoctorRequests.Get(ctx, requestID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil, apperr.NotFound("Doctor request not found")
	}
	if err != nil {
		return nil, nil, apperr.Internal(err)
	}
	if req.Status != models.AccountPending {
		return nil, nil, apperr.Validation("Request has already been processed")
	}
	user, err := s.loadUser(ctx, req.UserID)
	if err != nil {
		return nil, nil, err
	}
	return req, user, nil
}
