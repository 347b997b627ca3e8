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

// Stats summarises accounts and bookings for the admin dashboard.
type Stats struct {
	TotalUsers            int64 `json:"totalUsers"`
	TotalPatients         int64 `json:"totalPatients"`
	TotalDoctors          int64 `json:"totalDoctors"`
	TotalAdmins           int64 `json:"totalAdmins"`
	PendingDoctors        int64 `json:"pendingDoctors"`
	TotalAppointments     int64 `json:"totalAppointments"`
	PendingAppointments   int64 `json:"pendingAppointments"`
	ConfirmedAppointments int64 `json:"confirmedAppointments"`
	CompletedAppointments int64 `json:"completedAppointments"`
	CancelledAppointments int64 `json:"cancelledAppointments"`
}

// UserDetail is an account with its role-specific data.
type UserDetail struct {
	User             models.UserSanitized  `json:"user"`
	DoctorProfile    *models.DoctorProfile `json:"doctorProfile,omitempty"`
	AppointmentCount *int64                `json:"appointmentCount,omitempty"`
}

// UserQuery filters the admin account listing.
type UserQuery struct {
	Role   models.Role
	Status models.AccountStatus
	Search string
	Page
}

// UpdateUserInput carries admin edits. Empty fields are kept.
type UpdateUserInput struct {
	Name    string
	Email   string
	Phone   string
	Address string
}

// Stats counts accounts by role and appointments by status.
func (s *Service) Stats(ctx context.Context, actor access.Actor) (*Stats, error) {
	if err := s.policy.RequireRole(actor, models.RoleAdmin); err != nil {
		return nil, err
	}

	var st Stats
	countUsers := func(f store.UserFilter) (int64, error) {
		f.Limit = 1
		_, total, err := s.store.Users.List(ctx, f)
		return total, err
	}
	countAppts := func(statuses ...models.AppointmentStatus) (int64, error) {
		return s.store.Appointments.Count(ctx, store.AppointmentFilter{Statuses: statuses})
	}

	counters := []struct {
		dst *int64
		fn  func() (int64, error)
	}{
		{&st.TotalUsers, func() (int64, error) { return countUsers(store.UserFilter{}) }},
		{&st.TotalPatients, func() (int64, error) { return countUsers(store.UserFilter{Role: models.RolePatient}) }},
		{&st.TotalDoctors, func() (int64, error) { return countUsers(store.UserFilter{Role: models.RoleDoctor}) }},
		{&st.TotalAdmins, func() (int64, error) { return countUsers(store.UserFilter{Role: models.RoleAdmin}) }},
		{&st.PendingDoctors, func() (int64, error) {
			return countUsers(store.UserFilter{Role: models.RoleDoctor, Status: models.AccountPending})
		}},
		{&st.TotalAppointments, func() (int64, error) { return countAppts() }},
		{&st.PendingAppointments, func() (int64, error) { return countAppts(models.StatusPending) }},
		{&st.ConfirmedAppointments, func() (int64, error) { return countAppts(models.StatusConfirmed) }},
		{&st.CompletedAppointments, func() (int64, error) { return countAppts(models.StatusCompleted) }},
		{&st.CancelledAppointments, func() (int64, error) { return countAppts(models.StatusCancelled) }},
	}
	for _, c := range counters {
		n, err := c.fn()
		if err != nil {
			return nil, apperr.Internal(err)
		}
		*c.dst = n
	}
	return &st, nil
}

// ListUsers returns a filtered page of accounts.
func (s *Service) ListUsers(ctx context.Context, actor access.Actor, q UserQuery) ([]models.UserSanitized, int64, error) {
	if err := s.policy.RequireRole(actor, models.RoleAdmin); err != nil {
		return nil, 0, err
	}
	p := q.Page.Normalize()
	users, total, err := s.store.Users.List(ctx, store.UserFilter{
		Role:   q.Role,
		Status: q.Status,
		Search: strings.TrimSpace(q.Search),
		Limit:  p.Limit,
		Offset: p.offset(),
	})
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	out := make([]models.UserSanitized, len(users))
	for i := range users {
		out[i] = users[i].Sanitize()
	}
	return out, total, nil
}

// GetUser returns an account with its doctor profile or appointment count.
func (s *Service) GetUser(ctx context.Context, actor access.Actor, id string) (*UserDetail, error) {
	if err := s.policy.RequireRole(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	user, err := s.loadUser(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &UserDetail{User: user.Sanitize()}
	switch user.Role {
	case models.RoleDoctor:
		profile, err := s.store.Doctors.GetByUserID(ctx, user.ID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Internal(err)
		}
		detail.DoctorProfile = profile
	case models.RolePatient:
		n, err := s.store.Appointments.Count(ctx, store.AppointmentFilter{PatientID: user.ID})
		if err != nil {
			return nil, apperr.Internal(err)
		}
		detail.AppointmentCount = &n
	}
	return detail, nil
}

// SetUserStatus changes the approval state of an account.
func (s *Service) SetUserStatus(ctx context.Context, actor access.Actor, id string, status models.AccountStatus, ip string) (*models.User, error) {
	if err := s.policy.RequireRole(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, apperr.Validation("Invalid status %q", status)
	}
	user, err := s.loadUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Role == models.RoleAdmin {
		return nil, apperr.Forbidden("Cannot change the status of an admin")
	}

	previous := user.Status
	user.Status = status
	if err := s.store.Users.Update(ctx, user); err != nil {
		return nil, apperr.Internal(err)
	}
	s.record(ctx, actor, "changed user status", "user", user.ID, ip, map[string]string{
		"from": string(previous),
		"to":   string(status),
	})
	return user, nil
}

// UpdateUser applies admin edits to an account.
func (s *Service) UpdateUser(ctx context.Context, actor access.Actor, id string, in UpdateUserInput, ip string) (*models.User, error) {
	if err := s.policy.RequireRole(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	user, err := s.loadUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != "" {
		user.Name = strings.TrimSpace(in.Name)
	}
	if email := normalizeEmail(in.Email); email != "" && email != user.Email {
		if other, err := s.store.Users.GetByEmail(ctx, email); err == nil && other.ID != user.ID {
			return nil, apperr.Conflict("Email is already in use")
		} else if err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Internal(err)
		}
		user.Email = email
	}
	if in.Phone != "" {
		user.Phone = in.Phone
	}
	if in.Address != "" {
		user.Address = in.Address
	}

	err = s.store.Users.Update(ctx, user)
	if errors.Is(err, store.ErrDuplicate) {
		return nil, apperr.Conflict("Email is already in use")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	s.record(ctx, actor, "updated user", "user", user.ID, ip, nil)
	return user, nil
}

// DeleteUser removes an account. A doctor's profile goes with it; admin
// accounts cannot be deleted.
func (s *Service) DeleteUser(ctx context.Context, actor access.Actor, id, ip string) error {
	if err := s.policy.RequireRole(actor, models.RoleAdmin); err != nil {
		return err
	}
	user, err := s.loadUser(ctx, id)
	if err != nil {
		return err
	}
	if err := s.policy.AuthorizeDeleteUser(actor, user); err != nil {
		return err
	}

	if user.Role == models.RoleDoctor {
		profile, err := s.store.Doctors.GetByUserID(ctx, user.ID)
		switch {
		case err == nil:
			if err := s.store.Doctors.Delete(ctx, profile.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
				return apperr.Internal(err)
			}
		case !errors.Is(err, store.ErrNotFound):
			return apperr.Internal(err)
		}
	}

	if err := s.store.Users.Delete(ctx, user.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
		return apperr.Internal(err)
	}
	s.record(ctx, actor, "deleted user", "user", user.ID, ip, map[string]string{
		"email": user.Email,
		"role":  string(user.Role),
	})
	return nil
}
