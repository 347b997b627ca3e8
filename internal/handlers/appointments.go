package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"healthcare-booking-server/internal/access"
	"healthcare-booking-server/internal/booking"
	"healthcare-booking-server/internal/calendar"
	"healthcare-booking-server/internal/models"
	"healthcare-booking-server/internal/utils"
)

// AppointmentHandler handles booking requests.
type AppointmentHandler struct {
	bookings *booking.Service
	ics      *calendar.AppleSyncer
}

type (
	listFunc       func(ctx context.Context, actor access.Actor) ([]models.Appointment, error)
	transitionFunc func(ctx context.Context, actor access.Actor, id string) (*models.Appointment, error)
)

// NewAppointmentHandler creates a new AppointmentHandler.
func NewAppointmentHandler(bookings *booking.Service, ics *calendar.AppleSyncer) *AppointmentHandler {
	return &AppointmentHandler{bookings: bookings, ics: ics}
}

// CreateAppointmentRequest represents the request body for booking a consultation.
type CreateAppointmentRequest struct {
	DoctorID        string `json:"doctorId" binding:"required"`
	AppointmentDate string `json:"appointmentDate" binding:"required"`
	AppointmentTime string `json:"appointmentTime" binding:"required"`
	AppointmentType string `json:"appointmentType" binding:"omitempty,oneof=online in-clinic"`
	Symptoms        string `json:"symptoms"`
	PatientPhone    string `json:"patientPhone"`
}

// CreateAppointment books a consultation for the calling patient.
func (h *AppointmentHandler) CreateAppointment(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req CreateAppointmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	appt, err := h.bookings.CreateAppointment(c.Request.Context(), actor, booking.CreateInput{
		DoctorID:        req.DoctorID,
		AppointmentDate: req.AppointmentDate,
		AppointmentTime: req.AppointmentTime,
		AppointmentType: models.AppointmentType(req.AppointmentType),
		Symptoms:        req.Symptoms,
		PatientPhone:    req.PatientPhone,
	})
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Created(c, "Appointment booked successfully", appt.View())
}

// GetAppointments lists every appointment (admin).
func (h *AppointmentHandler) GetAppointments(c *gin.Context) {
	h.list(c, h.bookings.ListAll)
}

// GetMyAppointments lists the calling patient's appointments.
func (h *AppointmentHandler) GetMyAppointments(c *gin.Context) {
	h.list(c, h.bookings.ListMine)
}

// GetDoctorAppointments lists the calling doctor's appointments.
func (h *AppointmentHandler) GetDoctorAppointments(c *gin.Context) {
	h.list(c, h.bookings.ListForDoctor)
}

func (h *AppointmentHandler) list(c *gin.Context, fetch listFunc) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	list, err := fetch(c.Request.Context(), actor)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Appointments retrieved", appointmentViews(list))
}

// GetAppointmentByID returns one appointment to a party of it or an admin.
func (h *AppointmentHandler) GetAppointmentByID(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	appt, err := h.bookings.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Appointment retrieved", appt.View())
}

// UpdateAppointmentRequest carries admin edits. Omitted fields are kept.
type UpdateAppointmentRequest struct {
	AppointmentDate *string `json:"appointmentDate"`
	AppointmentTime *string `json:"appointmentTime"`
	AppointmentType *string `json:"appointmentType" binding:"omitempty,oneof=online in-clinic"`
	Status          *string `json:"status" binding:"omitempty,oneof=pending confirmed cancelled completed"`
	Symptoms        *string `json:"symptoms"`
	Notes           *string `json:"notes"`
}

// UpdateAppointment applies admin edits.
func (h *AppointmentHandler) UpdateAppointment(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req UpdateAppointmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	in := booking.UpdateInput{
		AppointmentDate: req.AppointmentDate,
		AppointmentTime: req.AppointmentTime,
		Symptoms:        req.Symptoms,
		Notes:           req.Notes,
	}
	if req.AppointmentType != nil {
		t := models.AppointmentType(*req.AppointmentType)
		in.AppointmentType = &t
	}
	if req.Status != nil {
		st := models.AppointmentStatus(*req.Status)
		in.Status = &st
	}

	appt, err := h.bookings.UpdateAppointment(c.Request.Context(), actor, c.Param("id"), in)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Appointment updated", appt.View())
}

// ConfirmAppointment confirms a pending appointment.
func (h *AppointmentHandler) ConfirmAppointment(c *gin.Context) {
	h.transition(c, "Appointment confirmed", h.bookings.Confirm)
}

// CompleteAppointment marks an appointment completed.
func (h *AppointmentHandler) CompleteAppointment(c *gin.Context) {
	h.transition(c, "Appointment marked as completed", h.bookings.Complete)
}

func (h *AppointmentHandler) transition(c *gin.Context, msg string, apply transitionFunc) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	appt, err := apply(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, msg, appt.View())
}

// CancelAppointmentRequest carries the optional cancellation reason.
type CancelAppointmentRequest struct {
	Reason string `json:"reason"`
}

// CancelAppointment cancels an appointment.
func (h *AppointmentHandler) CancelAppointment(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req CancelAppointmentRequest
	_ = c.ShouldBindJSON(&req)

	appt, err := h.bookings.Cancel(c.Request.Context(), actor, c.Param("id"), req.Reason)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Appointment cancelled successfully", appt.View())
}

// RescheduleRequest carries the new slot. Omitted fields are kept.
type RescheduleRequest struct {
	AppointmentDate string `json:"appointmentDate"`
	AppointmentTime string `json:"appointmentTime"`
}

// RescheduleAppointment moves an appointment to a new slot.
func (h *AppointmentHandler) RescheduleAppointment(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req RescheduleRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	appt, err := h.bookings.Reschedule(c.Request.Context(), actor, c.Param("id"), req.AppointmentDate, req.AppointmentTime)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Appointment rescheduled successfully", appt.View())
}

// ConsultationNotesRequest accepts either field name for the notes.
type ConsultationNotesRequest struct {
	Notes             string `json:"notes"`
	ConsultationNotes string `json:"consultationNotes"`
}

// AddConsultationNotes stores the doctor's notes on an appointment.
func (h *AppointmentHandler) AddConsultationNotes(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req ConsultationNotesRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	notes := req.ConsultationNotes
	if notes == "" {
		notes = req.Notes
	}

	appt, err := h.bookings.AddConsultationNotes(c.Request.Context(), actor, c.Param("id"), notes)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Consultation notes added", appt.View())
}

// CalendarFile serves the appointment as an iCalendar attachment.
func (h *AppointmentHandler) CalendarFile(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	appt, err := h.bookings.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	body, err := h.ics.ICS(appt)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="appointment-`+appt.ID+`.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(body))
}
