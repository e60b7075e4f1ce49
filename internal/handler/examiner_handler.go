package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/unidept/presentation-scheduler/internal/models"
	"github.com/unidept/presentation-scheduler/internal/service"
	appErrors "github.com/unidept/presentation-scheduler/pkg/errors"
	"github.com/unidept/presentation-scheduler/pkg/response"
)

// ExaminerHandler exposes examiner endpoints.
type ExaminerHandler struct {
	examiners *service.ExaminerService
}

// NewExaminerHandler constructs ExaminerHandler.
func NewExaminerHandler(examiners *service.ExaminerService) *ExaminerHandler {
	return &ExaminerHandler{examiners: examiners}
}

// List godoc
// @Summary List examiners
// @Tags Examiners
// @Produce json
// @Param search query string false "Search by name or code"
// @Param department query string false "Filter by department"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /examiners [get]
func (h *ExaminerHandler) List(c *gin.Context) {
	var filter models.ExaminerFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.Department = c.Query("department")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	examiners, pagination, err := h.examiners.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, examiners, pagination)
}

// Get godoc
// @Summary Get examiner detail
// @Tags Examiners
// @Produce json
// @Param id path string true "Examiner ID"
// @Success 200 {object} response.Envelope
// @Router /examiners/{id} [get]
func (h *ExaminerHandler) Get(c *gin.Context) {
	examiner, err := h.examiners.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, examiner, nil)
}

// Create godoc
// @Summary Register examiner
// @Tags Examiners
// @Accept json
// @Produce json
// @Param payload body service.CreateExaminerRequest true "Examiner payload"
// @Success 201 {object} response.Envelope
// @Router /examiners [post]
func (h *ExaminerHandler) Create(c *gin.Context) {
	var req service.CreateExaminerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	examiner, err := h.examiners.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, examiner)
}

// Update godoc
// @Summary Update examiner
// @Tags Examiners
// @Accept json
// @Produce json
// @Param id path string true "Examiner ID"
// @Param payload body service.UpdateExaminerRequest true "Examiner payload"
// @Success 200 {object} response.Envelope
// @Router /examiners/{id} [put]
func (h *ExaminerHandler) Update(c *gin.Context) {
	var req service.UpdateExaminerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	examiner, err := h.examiners.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, examiner, nil)
}

// Delete godoc
// @Summary Delete examiner
// @Tags Examiners
// @Produce json
// @Param id path string true "Examiner ID"
// @Success 204
// @Router /examiners/{id} [delete]
func (h *ExaminerHandler) Delete(c *gin.Context) {
	if err := h.examiners.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
