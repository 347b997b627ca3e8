package handlers

import (
	"github.com/gin-gonic/gin"

	"healthcare-booking-server/internal/accounts"
	"healthcare-booking-server/internal/utils"
)

// maxPictureSize bounds profile picture uploads.
const maxPictureSize = 5 << 20

// ProfileHandler handles the caller's own profile.
type ProfileHandler struct {
	accounts *accounts.Service
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(svc *accounts.Service) *ProfileHandler {
	return &ProfileHandler{accounts: svc}
}

// GetProfile returns the caller's profile.
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	profile, err := h.accounts.GetProfile(c.Request.Context(), actor.ID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Profile retrieved", profile)
}

// UpdateProfileRequest carries self-service edits. Omitted fields are kept.
type UpdateProfileRequest struct {
	Name        *string `json:"name"`
	Phone       *string `json:"phone"`
	Address     *string `json:"address"`
	Gender      *string `json:"gender" binding:"omitempty,oneof=male female other"`
	DateOfBirth *string `json:"dateOfBirth"`
}

// UpdateProfile edits the caller's profile.
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req UpdateProfileRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	dob, err := optionalDate("dateOfBirth", req.DateOfBirth)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	user, err := h.accounts.UpdateProfile(c.Request.Context(), actor.ID, accounts.ProfileInput{
		Name:        req.Name,
		Phone:       req.Phone,
		Address:     req.Address,
		Gender:      req.Gender,
		DateOfBirth: dob,
	})
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Profile updated successfully", user.Sanitize())
}

// UploadProfilePicture stores a new picture from the multipart field
// "profilePicture".
func (h *ProfileHandler) UploadProfilePicture(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	header, err := c.FormFile("profilePicture")
	if err != nil {
		utils.BadRequest(c, "Please upload an image")
		return
	}
	if header.Size > maxPictureSize {
		utils.BadRequest(c, "Image must be 5MB or smaller")
		return
	}
	file, err := header.Open()
	if err != nil {
		utils.BadRequest(c, "Could not read the uploaded file")
		return
	}
	defer file.Close()

	user, err := h.accounts.UpdatePicture(c.Request.Context(), actor.ID, file, header.Filename)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Profile picture updated", user.Sanitize())
}

// GetDoctorProfile returns a doctor's public profile.
func (h *ProfileHandler) GetDoctorProfile(c *gin.Context) {
	profile, err := h.accounts.PublicDoctorProfile(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Doctor profile retrieved", profile)
}
