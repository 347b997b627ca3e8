package handlers

import (
	"github.com/gin-gonic/gin"

	"healthcare-booking-server/internal/accounts"
	"healthcare-booking-server/internal/models"
	"healthcare-booking-server/internal/utils"
)

// UserHandler handles admin user management.
type UserHandler struct {
	accounts *accounts.Service
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(svc *accounts.Service) *UserHandler {
	return &UserHandler{accounts: svc}
}

// GetStats returns dashboard counters.
func (h *UserHandler) GetStats(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	stats, err := h.accounts.Stats(c.Request.Context(), actor)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Stats retrieved", stats)
}

// GetUsers lists accounts with optional role, status and search filters.
func (h *UserHandler) GetUsers(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	q := accounts.UserQuery{
		Role:   models.Role(c.Query("role")),
		Status: models.AccountStatus(c.Query("status")),
		Search: c.Query("search"),
		Page:   pageFromQuery(c),
	}
	users, total, err := h.accounts.ListUsers(c.Request.Context(), actor, q)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Users retrieved", pageData(users, total, q.Page))
}

// GetUserByID returns one account with its role-specific data.
func (h *UserHandler) GetUserByID(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	detail, err := h.accounts.GetUser(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "User retrieved", detail)
}

// UpdateUserStatusRequest sets the approval state of an account.
type UpdateUserStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending approved rejected"`
}

// UpdateUserStatus changes the approval state of an account.
func (h *UserHandler) UpdateUserStatus(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req UpdateUserStatusRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	user, err := h.accounts.SetUserStatus(c.Request.Context(), actor, c.Param("id"), models.AccountStatus(req.Status), c.ClientIP())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "User status updated", user.Sanitize())
}

// UpdateUserRequest carries admin edits to an account.
type UpdateUserRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email" binding:"omitempty,email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// UpdateUser edits an account.
func (h *UserHandler) UpdateUser(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req UpdateUserRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	user, err := h.accounts.UpdateUser(c.Request.Context(), actor, c.Param("id"), accounts.UpdateUserInput{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
	}, c.ClientIP())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "User updated successfully", user.Sanitize())
}

// DeleteUser removes an account. Admin accounts cannot be deleted.
func (h *UserHandler) DeleteUser(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	if err := h.accounts.DeleteUser(c.Request.Context(), actor, c.Param("id"), c.ClientIP()); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "User deleted successfully", nil)
}

// GetActivityLogs lists admin actions, newest first.
func (h *UserHandler) GetActivityLogs(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	p := pageFromQuery(c)
	logs, total, err := h.accounts.ListActivity(c.Request.Context(), actor, p)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Activity logs retrieved", pageData(logs, total, p))
}
