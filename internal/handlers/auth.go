package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"healthcare-booking-server/internal/accounts"
	"healthcare-booking-server/internal/models"
	"healthcare-booking-server/internal/utils"
)

const refreshCookie = "refresh_token"

// AuthHandler handles authentication-related requests.
type AuthHandler struct {
	accounts     *accounts.Service
	refreshTTL   time.Duration
	secureCookie bool
}

// NewAuthHandler creates a new AuthHandler. Cookies are marked secure
// outside development.
func NewAuthHandler(svc *accounts.Service, refreshTTL time.Duration, secureCookie bool) *AuthHandler {
	return &AuthHandler{accounts: svc, refreshTTL: refreshTTL, secureCookie: secureCookie}
}

// RegisterRequest represents the request body for user registration.
type RegisterRequest struct {
	Name           string `json:"name" binding:"required"`
	Email          string `json:"email" binding:"required,email"`
	Password       string `json:"password" binding:"required,min=6"`
	Role           string `json:"role"`
	Phone          string `json:"phone"`
	Specialization string `json:"specialization"`
	Qualification  string `json:"qualification"`
	Experience     int    `json:"experience" binding:"gte=0"`
	Bio            string `json:"bio"`
}

// Register handles self-registration of patients and doctors.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	user, err := h.accounts.Register(c.Request.Context(), accounts.RegisterInput{
		Name:           req.Name,
		Email:          req.Email,
		Password:       req.Password,
		Role:           models.Role(req.Role),
		Phone:          req.Phone,
		Specialization: req.Specialization,
		Qualification:  req.Qualification,
		Experience:     req.Experience,
		Bio:            req.Bio,
	})
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	msg := "User registered successfully"
	if user.Role == models.RoleDoctor {
		msg = "Registration submitted. Your account is awaiting admin approval."
	}
	utils.Created(c, msg, user.Sanitize())
}

// LoginRequest represents the request body for user login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login handles user login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	session, err := h.accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	h.setRefreshCookie(c, session.RefreshToken, int(h.refreshTTL.Seconds()))
	utils.Success(c, "Login successful", session)
}

// RefreshTokenRequest is the body fallback when no cookie is sent.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// RefreshTokenResponse represents the response body for successful token refresh.
type RefreshTokenResponse struct {
	AccessToken string               `json:"accessToken"`
	User        models.UserSanitized `json:"user"`
}

// RefreshToken issues a new access token for a valid refresh token.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	token, user, err := h.accounts.Refresh(c.Request.Context(), refreshTokenFrom(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Token refreshed", RefreshTokenResponse{AccessToken: token, User: user.Sanitize()})
}

// Logout clears the stored refresh token and the cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.accounts.Logout(c.Request.Context(), refreshTokenFrom(c)); err != nil {
		utils.RespondError(c, err)
		return
	}
	h.setRefreshCookie(c, "", -1)
	utils.Success(c, "Logged out successfully", nil)
}

// CreateAdminRequest is the body of an admin creation.
type CreateAdminRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// CreateAdmin creates another admin account.
func (h *AuthHandler) CreateAdmin(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req CreateAdminRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	user, err := h.accounts.CreateAdmin(c.Request.Context(), actor, req.Name, req.Email, req.Password)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Created(c, "Admin created successfully", user.Sanitize())
}

// PendingDoctors lists doctor registrations awaiting review.
func (h *AuthHandler) PendingDoctors(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	requests, err := h.accounts.PendingDoctors(c.Request.Context(), actor)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Pending doctors retrieved", requests)
}

// ApproveDoctor approves a doctor registration.
func (h *AuthHandler) ApproveDoctor(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	profile, err := h.accounts.ApproveDoctor(c.Request.Context(), actor, c.Param("id"), c.ClientIP())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Doctor approved successfully", profile)
}

// RejectDoctorRequest carries the optional rejection reason.
type RejectDoctorRequest struct {
	Reason string `json:"reason"`
}

// RejectDoctor rejects a doctor registration.
func (h *AuthHandler) RejectDoctor(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req RejectDoctorRequest
	_ = c.ShouldBindJSON(&req)

	request, err := h.accounts.RejectDoctor(c.Request.Context(), actor, c.Param("id"), req.Reason, c.ClientIP())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Doctor registration rejected", request)
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookie, value, maxAge, "/", "", h.secureCookie, true)
}

// refreshTokenFrom reads the refresh token from the cookie, falling back to
// the JSON body.
func refreshTokenFrom(c *gin.Context) string {
	if token, err := c.Cookie(refreshCookie); err == nil && token != "" {
		return token
	}
	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return ""
	}
	return req.RefreshToken
}
