package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/unidept/presentation-scheduler/internal/service"
	appErrors "github.com/unidept/presentation-scheduler/pkg/errors"
	"github.com/unidept/presentation-scheduler/pkg/response"
)

// VenueHandler exposes venue endpoints.
type VenueHandler struct {
	venues *service.VenueService
}

// NewVenueHandler constructs VenueHandler.
func NewVenueHandler(venues *service.VenueService) *VenueHandler {
	return &VenueHandler{venues: venues}
}

// List godoc
// @Summary List venues
// @Tags Venues
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /venues [get]
func (h *VenueHandler) List(c *gin.Context) {
	venues, err := h.venues.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, venues, nil)
}

// Get godoc
// @Summary Get venue detail
// @Tags Venues
// @Produce json
// @Param id path string true "Venue ID"
// @Success 200 {object} response.Envelope
// @Router /venues/{id} [get]
func (h *VenueHandler) Get(c *gin.Context) {
	venue, err := h.venues.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, venue, nil)
}

// Create godoc
// @Summary Register venue
// @Tags Venues
// @Accept json
// @Produce json
// @Param payload body service.CreateVenueRequest true "Venue payload"
// @Success 201 {object} response.Envelope
// @Router /venues [post]
func (h *VenueHandler) Create(c *gin.Context) {
	var req service.CreateVenueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	venue, err := h.venues.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, venue)
}

// Update godoc
// @Summary Update venue
// @Tags Venues
// @Accept json
// @Produce json
// @Param id path string true "Venue ID"
// @Param payload body service.UpdateVenueRequest true "Venue payload"
// @Success 200 {object} response.Envelope
// @Router /venues/{id} [put]
func (h *VenueHandler) Update(c *gin.Context) {
	var req service.UpdateVenueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	venue, err := h.venues.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, venue, nil)
}

// Delete godoc
// @Summary Delete venue
// @Tags Venues
// @Produce json
// @Param id path string true "Venue ID"
// @Success 204
// @Router /venues/{id} [delete]
func (h *VenueHandler) Delete(c *gin.Context) {
	if err := h.venues.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
