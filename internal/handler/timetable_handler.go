package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/unidept/presentation-scheduler/internal/models"
	"github.com/unidept/presentation-scheduler/internal/service"
	appErrors "github.com/unidept/presentation-scheduler/pkg/errors"
	"github.com/unidept/presentation-scheduler/pkg/response"
)

// TimetableHandler exposes lecture timetable endpoints.
type TimetableHandler struct {
	timetables *service.TimetableService
}

// NewTimetableHandler constructs TimetableHandler.
func NewTimetableHandler(timetables *service.TimetableService) *TimetableHandler {
	return &TimetableHandler{timetables: timetables}
}

// List godoc
// @Summary List lectures
// @Tags Timetable
// @Produce json
// @Param groupId query string false "Filter by student group"
// @Param lecturerId query string false "Filter by examiner"
// @Param day query string false "Filter by day of week"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /timetable [get]
func (h *TimetableHandler) List(c *gin.Context) {
	var filter models.LectureFilter
	filter.GroupID = c.Query("groupId")
	filter.ExaminerID = c.Query("lecturerId")
	filter.VenueID = c.Query("venueId")
	filter.DayOfWeek = c.Query("day")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	lectures, pagination, err := h.timetables.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lectures, pagination)
}

// Get godoc
// @Summary Get lecture detail
// @Tags Timetable
// @Produce json
// @Param id path string true "Lecture ID"
// @Success 200 {object} response.Envelope
// @Router /timetable/{id} [get]
func (h *TimetableHandler) Get(c *gin.Context) {
	lecture, err := h.timetables.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lecture, nil)
}

// ListByExaminer godoc
// @Summary List an examiner's weekly lectures
// @Tags Timetable
// @Produce json
// @Param id path string true "Examiner ID"
// @Success 200 {object} response.Envelope
// @Router /timetable/examiner/{id} [get]
func (h *TimetableHandler) ListByExaminer(c *gin.Context) {
	lectures, err := h.timetables.ListByExaminer(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lectures, nil)
}

// ListByVenue godoc
// @Summary List lectures held in a venue
// @Tags Timetable
// @Produce json
// @Param id path string true "Venue ID"
// @Success 200 {object} response.Envelope
// @Router /timetable/venue/{id} [get]
func (h *TimetableHandler) ListByVenue(c *gin.Context) {
	lectures, err := h.timetables.ListByVenue(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lectures, nil)
}

// Create godoc
// @Summary Create lecture
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body service.SaveLectureRequest true "Lecture payload"
// @Success 201 {object} response.Envelope
// @Router /timetable [post]
func (h *TimetableHandler) Create(c *gin.Context) {
	var req service.SaveLectureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	lecture, err := h.timetables.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, lecture)
}

// Update godoc
// @Summary Update lecture
// @Tags Timetable
// @Accept json
// @Produce json
// @Param id path string true "Lecture ID"
// @Param payload body service.SaveLectureRequest true "Lecture payload"
// @Success 200 {object} response.Envelope
// @Router /timetable/{id} [put]
func (h *TimetableHandler) Update(c *gin.Context) {
	var req service.SaveLectureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	lecture, err := h.timetables.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lecture, nil)
}

// Delete godoc
// @Summary Delete lecture
// @Tags Timetable
// @Produce json
// @Param id path string true "Lecture ID"
// @Success 204
// @Router /timetable/{id} [delete]
func (h *TimetableHandler) Delete(c *gin.Context) {
	if err := h.timetables.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
