// Package handlers exposes the services over HTTP with gin.
package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"healthcare-booking-server/internal/access"
	"healthcare-booking-server/internal/accounts"
	"healthcare-booking-server/internal/apperr"
	"healthcare-booking-server/internal/booking"
	"healthcare-booking-server/internal/middleware"
	"healthcare-booking-server/internal/models"
	"healthcare-booking-server/internal/utils"
)

// currentActor returns the authenticated actor or writes a 401.
func currentActor(c *gin.Context) (access.Actor, bool) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		utils.Unauthorized(c, "Not authorized")
		return access.Actor{}, false
	}
	return actor, true
}

func pageFromQuery(c *gin.Context) accounts.Page {
	return accounts.Page{
		Page:  utils.QueryInt(c, "page", 1),
		Limit: utils.QueryInt(c, "limit", 10),
	}
}

func pageData(items interface{}, total int64, p accounts.Page) utils.PageData {
	p = p.Normalize()
	return utils.PageData{Items: items, Total: total, Page: p.Page, Limit: p.Limit}
}

// optionalDate parses an optional date field.
func optionalDate(field string, raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	t, err := booking.ParseDate(*raw)
	if err != nil {
		return nil, apperr.Validation("Invalid %s", field)
	}
	return &t, nil
}

func appointmentViews(list []models.Appointment) []models.AppointmentView {
	views := make([]models.AppointmentView, 0, len(list))
	for i := range list {
		views = append(views, list[i].View())
	}
	return views
}
