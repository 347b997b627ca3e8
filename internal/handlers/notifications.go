package handlers

import (
	"github.com/gin-gonic/gin"

	"healthcare-booking-server/internal/accounts"
	"healthcare-booking-server/internal/utils"
)

// NotificationHandler handles the caller's in-app notifications.
type NotificationHandler struct {
	accounts *accounts.Service
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(svc *accounts.Service) *NotificationHandler {
	return &NotificationHandler{accounts: svc}
}

// GetNotifications lists the caller's notifications, newest first.
func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	list, unread, err := h.accounts.ListNotifications(c.Request.Context(), actor)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Notifications retrieved", gin.H{
		"notifications": list,
		"unreadCount":   unread,
	})
}

// MarkAsRead marks one notification read.
func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	if err := h.accounts.MarkNotificationRead(c.Request.Context(), actor, c.Param("id")); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Notification marked as read", nil)
}

// MarkAllAsRead marks every notification of the caller read.
func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	if err := h.accounts.MarkAllNotificationsRead(c.Request.Context(), actor); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "All notifications marked as read", nil)
}

// DeleteNotification removes one notification.
func (h *NotificationHandler) DeleteNotification(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	if err := h.accounts.DeleteNotification(c.Request.Context(), actor, c.Param("id")); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Notification deleted", nil)
}
