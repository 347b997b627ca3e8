package handlers

import (
	"github.com/gin-gonic/gin"

	"healthcare-booking-server/internal/models"
	"healthcare-booking-server/internal/reviews"
	"healthcare-booking-server/internal/utils"
)

// ReviewHandler handles review requests.
type ReviewHandler struct {
	reviews *reviews.Service
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(svc *reviews.Service) *ReviewHandler {
	return &ReviewHandler{reviews: svc}
}

// CreateReviewRequest is a patient's rating of a completed appointment.
type CreateReviewRequest struct {
	AppointmentID string `json:"appointmentId" binding:"required"`
	DoctorID      string `json:"doctorId"`
	Rating        int    `json:"rating"`
	Comment       string `json:"comment"`
}

// CreateReview records a review.
func (h *ReviewHandler) CreateReview(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req CreateReviewRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	review, err := h.reviews.Create(c.Request.Context(), actor, reviews.CreateInput{
		AppointmentID: req.AppointmentID,
		DoctorID:      req.DoctorID,
		Rating:        req.Rating,
		Comment:       req.Comment,
	})
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Created(c, "Review submitted successfully", review)
}

// GetDoctorReviews lists the approved reviews of a doctor. Public.
func (h *ReviewHandler) GetDoctorReviews(c *gin.Context) {
	list, err := h.reviews.ListForDoctor(c.Request.Context(), c.Param("doctorId"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Reviews retrieved", list)
}

// UpdateReviewRequest carries the editable review fields.
type UpdateReviewRequest struct {
	Rating  *int    `json:"rating"`
	Comment *string `json:"comment"`
}

// UpdateReview edits the caller's own review.
func (h *ReviewHandler) UpdateReview(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req UpdateReviewRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	review, err := h.reviews.Update(c.Request.Context(), actor, c.Param("id"), req.Rating, req.Comment)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Review updated successfully", review)
}

// DeleteReview removes the caller's own review.
func (h *ReviewHandler) DeleteReview(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	if err := h.reviews.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Review deleted successfully", nil)
}

// ModerateReviewRequest sets the moderation outcome.
type ModerateReviewRequest struct {
	Status string `json:"status" binding:"required,oneof=approved rejected"`
}

// ModerateReview approves or rejects a review (admin).
func (h *ReviewHandler) ModerateReview(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req ModerateReviewRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	review, err := h.reviews.Moderate(c.Request.Context(), actor, c.Param("id"), models.ReviewStatus(req.Status))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Review "+req.Status, review)
}
