package handlers

import (
	"github.com/gin-gonic/gin"

	"healthcare-booking-server/internal/accounts"
	"healthcare-booking-server/internal/utils"
)

// FavoriteHandler handles a patient's favourite doctors.
type FavoriteHandler struct {
	accounts *accounts.Service
}

// NewFavoriteHandler creates a new FavoriteHandler.
func NewFavoriteHandler(svc *accounts.Service) *FavoriteHandler {
	return &FavoriteHandler{accounts: svc}
}

// AddFavoriteRequest names the doctor profile to add.
type AddFavoriteRequest struct {
	DoctorID string `json:"doctorId" binding:"required"`
}

// AddFavorite adds a doctor to the caller's favourites.
func (h *FavoriteHandler) AddFavorite(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req AddFavoriteRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	fav, err := h.accounts.AddFavorite(c.Request.Context(), actor, req.DoctorID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Created(c, "Doctor added to favorites", fav)
}

// RemoveFavorite removes a doctor from the caller's favourites.
func (h *FavoriteHandler) RemoveFavorite(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	if err := h.accounts.RemoveFavorite(c.Request.Context(), actor, c.Param("doctorId")); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Doctor removed from favorites", nil)
}

// GetFavorites lists the caller's favourites with their doctor profiles.
func (h *FavoriteHandler) GetFavorites(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	favs, err := h.accounts.ListFavorites(c.Request.Context(), actor)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Favorites retrieved", favs)
}

// CheckFavorite reports whether a doctor is among the caller's favourites.
func (h *FavoriteHandler) CheckFavorite(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	isFav, err := h.accounts.IsFavorite(c.Request.Context(), actor, c.Param("doctorId"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Favorite status retrieved", gin.H{"isFavorite": isFav})
}
