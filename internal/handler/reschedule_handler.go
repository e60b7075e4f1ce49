package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/unidept/presentation-scheduler/internal/dto"
	"github.com/unidept/presentation-scheduler/internal/models"
	"github.com/unidept/presentation-scheduler/internal/service"
	appErrors "github.com/unidept/presentation-scheduler/pkg/errors"
	"github.com/unidept/presentation-scheduler/pkg/response"
)

// RescheduleHandler exposes reschedule workflow endpoints.
type RescheduleHandler struct {
	reschedules *service.RescheduleService
}

// NewRescheduleHandler constructs RescheduleHandler.
func NewRescheduleHandler(reschedules *service.RescheduleService) *RescheduleHandler {
	return &RescheduleHandler{reschedules: reschedules}
}

// List godoc
// @Summary List reschedule requests
// @Tags Reschedules
// @Produce json
// @Param status query string false "Comma-separated statuses"
// @Param presentationId query string false "Filter by booking"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /reschedules [get]
func (h *RescheduleHandler) List(c *gin.Context) {
	var filter models.RescheduleFilter
	if raw := c.Query("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			filter.Status = append(filter.Status, models.RescheduleStatus(strings.TrimSpace(s)))
		}
	}
	filter.BookingID = c.Query("presentationId")
	filter.RequestedBy = c.Query("requestedBy")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	requests, pagination, err := h.reschedules.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, pagination)
}

// Get godoc
// @Summary Get reschedule request detail
// @Tags Reschedules
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /reschedules/{id} [get]
func (h *RescheduleHandler) Get(c *gin.Context) {
	request, err := h.reschedules.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// Create godoc
// @Summary File a reschedule request
// @Tags Reschedules
// @Accept json
// @Produce json
// @Param payload body dto.CreateRescheduleRequest true "Reschedule proposal"
// @Success 201 {object} response.Envelope
// @Router /reschedules [post]
func (h *RescheduleHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateRescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	principal := service.Principal{ID: claims.UserID, Role: claims.Role}
	request, err := h.reschedules.Create(c.Request.Context(), principal, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, request)
}

// Decide godoc
// @Summary Approve or reject a reschedule request
// @Tags Reschedules
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.DecideRescheduleRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Router /reschedules/{id}/decision [post]
func (h *RescheduleHandler) Decide(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.DecideRescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	principal := service.Principal{ID: claims.UserID, Role: claims.Role}
	decision, err := h.reschedules.Decide(c.Request.Context(), principal, c.Param("id"), req.Action)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, decision, nil)
}

// Delete godoc
// @Summary Delete reschedule request
// @Tags Reschedules
// @Produce json
// @Param id path string true "Request ID"
// @Success 204
// @Router /reschedules/{id} [delete]
func (h *RescheduleHandler) Delete(c *gin.Context) {
	if err := h.reschedules.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
