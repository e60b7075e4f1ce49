package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/unidept/presentation-scheduler/internal/service"
	appErrors "github.com/unidept/presentation-scheduler/pkg/errors"
	"github.com/unidept/presentation-scheduler/pkg/response"
)

// ExportHandler exposes schedule export endpoints.
type ExportHandler struct {
	exports *service.ExportService
}

// NewExportHandler constructs ExportHandler.
func NewExportHandler(exports *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// DaySchedule godoc
// @Summary Export one day's schedule
// @Tags Exports
// @Produce text/csv
// @Produce application/pdf
// @Param date path string true "Date (YYYY-MM-DD)"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Router /exports/schedule/{date} [get]
func (h *ExportHandler) DaySchedule(c *gin.Context) {
	date := c.Param("date")
	if date == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date is required"))
		return
	}
	format := c.DefaultQuery("format", service.ExportFormatCSV)

	file, err := h.exports.DaySchedule(c.Request.Context(), date, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Data(200, file.ContentType, file.Payload)
}
