package handlers

import (
	"github.com/gin-gonic/gin"

	"healthcare-booking-server/internal/accounts"
	"healthcare-booking-server/internal/utils"
)

// DoctorHandler handles the doctor directory.
type DoctorHandler struct {
	accounts *accounts.Service
}

// NewDoctorHandler creates a new DoctorHandler.
func NewDoctorHandler(svc *accounts.Service) *DoctorHandler {
	return &DoctorHandler{accounts: svc}
}

// GetDoctors searches the directory. Public.
func (h *DoctorHandler) GetDoctors(c *gin.Context) {
	q := accounts.DoctorQuery{
		Search:         c.Query("search"),
		Specialization: c.Query("specialization"),
	}
	var err error
	if q.MinRating, err = utils.QueryFloat(c, "minRating"); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}
	if q.MinFee, err = utils.QueryFloat(c, "minFee"); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}
	if q.MaxFee, err = utils.QueryFloat(c, "maxFee"); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}
	if q.IsActive, err = utils.QueryBool(c, "isActive"); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	doctors, err := h.accounts.SearchDoctors(c.Request.Context(), q)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Doctors retrieved", doctors)
}

// GetDoctor returns one doctor profile. Public.
func (h *DoctorHandler) GetDoctor(c *gin.Context) {
	doctor, err := h.accounts.GetDoctor(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Doctor retrieved", doctor)
}

// DoctorRequest carries admin edits to a doctor profile. Rating fields are
// not accepted.
type DoctorRequest struct {
	UserID          string              `json:"userId"`
	Specialization  *string             `json:"specialization"`
	Qualification   *string             `json:"qualification"`
	Experience      *int                `json:"experience" binding:"omitempty,gte=0"`
	Availability    map[string][]string `json:"availability"`
	Bio             *string             `json:"bio"`
	Image           *string             `json:"image"`
	ConsultationFee *float64            `json:"consultationFee" binding:"omitempty,gte=0"`
	IsActive        *bool               `json:"isActive"`
}

func (r DoctorRequest) input() accounts.DoctorInput {
	return accounts.DoctorInput{
		UserID:          r.UserID,
		Specialization:  r.Specialization,
		Qualification:   r.Qualification,
		Experience:      r.Experience,
		Availability:    r.Availability,
		Bio:             r.Bio,
		Image:           r.Image,
		ConsultationFee: r.ConsultationFee,
		IsActive:        r.IsActive,
	}
}

// CreateDoctor creates a profile for an existing doctor account (admin).
func (h *DoctorHandler) CreateDoctor(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req DoctorRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	doctor, err := h.accounts.CreateDoctor(c.Request.Context(), actor, req.input())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Created(c, "Doctor created successfully", doctor)
}

// UpdateDoctor edits a doctor profile (admin).
func (h *DoctorHandler) UpdateDoctor(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req DoctorRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	doctor, err := h.accounts.UpdateDoctor(c.Request.Context(), actor, c.Param("id"), req.input())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Doctor updated successfully", doctor)
}

// DeleteDoctor removes a doctor profile (admin).
func (h *DoctorHandler) DeleteDoctor(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	if err := h.accounts.DeleteDoctor(c.Request.Context(), actor, c.Param("id")); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Doctor deleted successfully", nil)
}
