package handlers

import (
	"github.com/gin-gonic/gin"

	"healthcare-booking-server/internal/booking"
	"healthcare-booking-server/internal/models"
	"healthcare-booking-server/internal/utils"
)

// PrescriptionHandler handles prescription requests.
type PrescriptionHandler struct {
	bookings *booking.Service
}

// NewPrescriptionHandler creates a new PrescriptionHandler.
func NewPrescriptionHandler(bookings *booking.Service) *PrescriptionHandler {
	return &PrescriptionHandler{bookings: bookings}
}

// CreatePrescriptionRequest is a prescription issued for an appointment.
type CreatePrescriptionRequest struct {
	AppointmentID string              `json:"appointmentId" binding:"required"`
	Medications   []models.Medication `json:"medications" binding:"dive"`
	Instructions  string              `json:"instructions"`
	FollowUpDate  *string             `json:"followUpDate"`
}

// CreatePrescription issues a prescription (owning doctor).
func (h *PrescriptionHandler) CreatePrescription(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req CreatePrescriptionRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	followUp, err := optionalDate("followUpDate", req.FollowUpDate)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	rx, err := h.bookings.CreatePrescription(c.Request.Context(), actor, booking.PrescriptionInput{
		AppointmentID: req.AppointmentID,
		Medications:   req.Medications,
		Instructions:  req.Instructions,
		FollowUpDate:  followUp,
	})
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Created(c, "Prescription created successfully", rx)
}

// GetPrescriptions lists the caller's prescriptions.
func (h *PrescriptionHandler) GetPrescriptions(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	list, err := h.bookings.ListPrescriptions(c.Request.Context(), actor)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Prescriptions retrieved", list)
}

// GetPrescription returns one prescription to its patient or author.
func (h *PrescriptionHandler) GetPrescription(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	rx, err := h.bookings.GetPrescription(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Prescription retrieved", rx)
}

// UpdatePrescriptionRequest carries the editable fields. Omitted fields are kept.
type UpdatePrescriptionRequest struct {
	Medications  []models.Medication `json:"medications" binding:"omitempty,dive"`
	Instructions *string             `json:"instructions"`
	FollowUpDate *string             `json:"followUpDate"`
}

// UpdatePrescription edits a prescription (authoring doctor).
func (h *PrescriptionHandler) UpdatePrescription(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req UpdatePrescriptionRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	followUp, err := optionalDate("followUpDate", req.FollowUpDate)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	rx, err := h.bookings.UpdatePrescription(c.Request.Context(), actor, c.Param("id"), booking.PrescriptionUpdate{
		Medications:  req.Medications,
		Instructions: req.Instructions,
		FollowUpDate: followUp,
	})
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Prescription updated successfully", rx)
}
