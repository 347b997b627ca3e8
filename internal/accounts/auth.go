package accounts

import (
	"context"
	"errors"
	"strings"

	"healthcare-booking-server/internal/access"
	"healthcare-booking-server/internal/apperr"
	"healthcare-booking-server/internal/models"
	"healthcare-booking-server/internal/store"
	"healthcare-booking-server/internal/utils"
)

var errInvalidCredentials = apperr.Unauthenticated("Invalid credentials")

// RegisterInput is a self-registration request.
type RegisterInput struct {
	Name           string
	Email          string
	Password       string
	Role           models.Role
	Phone          string
	Specialization string
	Qualification  string
	Experience     int
	Bio            string
}

// Session is the result of a successful login.
type Session struct {
	AccessToken  string               `json:"accessToken"`
	RefreshToken string               `json:"refreshToken"`
	User         models.UserSanitized `json:"user"`
}

// Register creates a patient account, or a pending doctor account together
// with a DoctorRequest for admin review.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if in.Role == "" {
		in.Role = models.RolePatient
	}
	switch in.Role {
	case models.RoleAdmin:
		return nil, apperr.Forbidden("Cannot register as admin")
	case models.RolePatient:
	case models.RoleDoctor:
		if strings.TrimSpace(in.Specialization) == "" || strings.TrimSpace(in.Qualification) == "" {
			return nil, apperr.Validation("Specialization and qualification are required for doctors")
		}
	default:
		return nil, apperr.Validation("Invalid role %q", in.Role)
	}

	user := &models.User{
		Name:   strings.TrimSpace(in.Name),
		Email:  normalizeEmail(in.Email),
		Role:   in.Role,
		Status: models.AccountApproved,
		Phone:  in.Phone,
	}
	if in.Role == models.RoleDoctor {
		user.Status = models.AccountPending
	}
	if err := s.createUser(ctx, user, in.Password); err != nil {
		return nil, err
	}

	if in.Role == models.RoleDoctor {
		req := &models.DoctorRequest{
			UserID:         user.ID,
			Specialization: in.Specialization,
			Qualification:  in.Qualification,
			Experience:     in.Experience,
			Bio:            in.Bio,
			Status:         models.AccountPending,
		}
		if err := s.store.DoctorRequests.Create(ctx, req); err != nil {
			return nil, apperr.Internal(err)
		}
	}

	s.log.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("account registered")
	return user, nil
}

// CreateAdmin creates an approved admin account. Only admins may call it.
func (s *Service) CreateAdmin(ctx context.Context, actor access.Actor, name, email, password string) (*models.User, error) {
	if err := s.policy.RequireRole(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	return s.SeedAdmin(ctx, name, email, password)
}

// SeedAdmin creates an approved admin account without an acting admin. It
// backs the seed-admin command.
func (s *Service) SeedAdmin(ctx context.Context, name, email, password string) (*models.User, error) {
	user := &models.User{
		Name:   strings.TrimSpace(name),
		Email:  normalizeEmail(email),
		Role:   models.RoleAdmin,
		Status: models.AccountApproved,
	}
	if err := s.createUser(ctx, user, password); err != nil {
		return nil, err
	}
	s.log.Info().Str("user_id", user.ID).Msg("admin account created")
	return user, nil
}

func (s *Service) createUser(ctx context.Context, user *models.User, password string) error {
	if user.Name == "" || user.Email == "" {
		return apperr.Validation("Name and email are required")
	}
	if len(password) < 6 {
		return apperr.Validation("Password must be at least 6 characters")
	}
	if _, err := s.store.Users.GetByEmail(ctx, user.Email); err == nil {
		return apperr.Conflict("User already exists")
	} else if !errors.Is(err, store.ErrNotFound) {
		return apperr.Internal(err)
	}
	if err := user.SetPassword(password); err != nil {
		return apperr.Internal(err)
	}
	err := s.store.Users.Create(ctx, user)
	if errors.Is(err, store.ErrDuplicate) {
		return apperr.Conflict("User already exists")
	}
	if err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// Login checks credentials and opens a session. Accounts awaiting approval
// may log in; protected operations refuse them afterwards.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.store.Users.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, store.ErrNotFound) {
		return nil, errInvalidCredentials
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !user.CheckPassword(password) {
		return nil, errInvalidCredentials
	}

	accessToken, err := utils.GenerateAccessToken(user.ID, user.Role, s.tokens.Secret, s.tokens.AccessTTL)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	refresh, err := utils.GenerateRefreshToken()
	if err != nil {
		return nil, apperr.Internal(err)
	}
	expires := s.now().Add(s.tokens.RefreshTTL)
	user.RefreshToken = models.RefreshToken{Token: refresh, ExpiresAt: &expires}
	if err := s.store.Users.Update(ctx, user); err != nil {
		return nil, apperr.Internal(err)
	}

	return &Session{AccessToken: accessToken, RefreshToken: refresh, User: user.Sanitize()}, nil
}

// Refresh issues a new access token for a stored, unexpired refresh token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, *models.User, error) {
	if refreshToken == "" {
		return "", nil, apperr.Unauthenticated("Refresh token is required")
	}
	user, err := s.store.Users.GetByRefreshToken(ctx, refreshToken)
	if errors.Is(err, store.ErrNotFound) {
		return "", nil, apperr.Unauthenticated("Invalid or expired refresh token")
	}
	if err != nil {
		return "", nil, apperr.Internal(err)
	}
	if !user.RefreshToken.ValidAt(s.now()) {
		return "", nil, apperr.Unauthenticated("Invalid or expired refresh token")
	}

	token, err := utils.GenerateAccessToken(user.ID, user.Role, s.tokens.Secret, s.tokens.AccessTTL)
	if err != nil {
		return "", nil, apperr.Internal(err)
	}
	return token, user, nil
}

// Logout clears the stored refresh token of the account that owns it.
// Unknown tokens are ignored.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	user, err := s.store.Users.GetByRefreshToken(ctx, refreshToken)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return apperr.Internal(err)
	}
	user.RefreshToken = models.RefreshToken{}
	if err := s.store.Users.Update(ctx, user); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// Authenticate validates an access token and loads the account behind it.
// It does not apply the status gate.
func (s *Service) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := utils.ValidateToken(token, s.tokens.Secret)
	if errors.Is(err, utils.ErrTokenExpired) {
		return nil, apperr.Unauthenticated("Token expired").WithCode(apperr.CodeTokenExpired)
	}
	if err != nil {
		return nil, apperr.Unauthenticated("Invalid token").WithCode(apperr.CodeInvalidToken)
	}
	user, err := s.store.Users.Get(ctx, claims.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Unauthenticated("User not found").WithCode(apperr.CodeInvalidToken)
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
