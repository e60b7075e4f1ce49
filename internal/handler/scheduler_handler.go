package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/unidept/presentation-scheduler/internal/dto"
	"github.com/unidept/presentation-scheduler/internal/models"
	"github.com/unidept/presentation-scheduler/internal/service"
	appErrors "github.com/unidept/presentation-scheduler/pkg/errors"
	"github.com/unidept/presentation-scheduler/pkg/response"
)

type studentCodeResolver interface {
	FindByCodes(ctx context.Context, codes []string) ([]models.Student, error)
}

type examinerCodeResolver interface {
	FindByCodes(ctx context.Context, codes []string) ([]models.Examiner, error)
}

type venueCodeResolver interface {
	FindByCode(ctx context.Context, code string) (*models.Venue, error)
}

// SchedulerHandler exposes availability and slot suggestion endpoints.
// Clients speak in human-readable codes; resolution to internal ids
// happens here, at the boundary.
type SchedulerHandler struct {
	availability *service.AvailabilityService
	suggestions  *service.SuggestionService
	students     studentCodeResolver
	examiners    examinerCodeResolver
	venues       venueCodeResolver
}

// NewSchedulerHandler constructs SchedulerHandler.
func NewSchedulerHandler(
	availability *service.AvailabilityService,
	suggestions *service.SuggestionService,
	students studentCodeResolver,
	examiners examinerCodeResolver,
	venues venueCodeResolver,
) *SchedulerHandler {
	return &SchedulerHandler{
		availability: availability,
		suggestions:  suggestions,
		students:     students,
		examiners:    examiners,
		venues:       venues,
	}
}

// CheckAvailability godoc
// @Summary List free time slots for a date
// @Tags Scheduler
// @Accept json
// @Produce json
// @Param payload body dto.AvailabilityRequest true "Availability query"
// @Success 200 {object} response.Envelope
// @Router /scheduler/availability [post]
func (h *SchedulerHandler) CheckAvailability(c *gin.Context) {
	var req dto.AvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	filter, err := h.resolveFilter(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	slots, err := h.availability.FreeSlots(c.Request.Context(), filter, req.DurationMinutes)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}

// SuggestSlot godoc
// @Summary Suggest a non-conflicting slot
// @Tags Scheduler
// @Accept json
// @Produce json
// @Param payload body dto.SuggestSlotRequest true "Suggestion query"
// @Success 200 {object} response.Envelope
// @Router /scheduler/suggest [post]
func (h *SchedulerHandler) SuggestSlot(c *gin.Context) {
	var req dto.SuggestSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	suggestion, err := h.suggestions.Suggest(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, suggestion, nil)
}

// SuggestForReschedule godoc
// @Summary Suggest a replacement slot for an existing booking
// @Tags Scheduler
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Envelope
// @Router /scheduler/suggest/reschedule/{id} [get]
func (h *SchedulerHandler) SuggestForReschedule(c *gin.Context) {
	suggestion, err := h.suggestions.SuggestForReschedule(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, suggestion, nil)
}

func (h *SchedulerHandler) resolveFilter(ctx context.Context, req dto.AvailabilityRequest) (models.AvailabilityFilter, error) {
	filter := models.AvailabilityFilter{
		Date:       req.Date,
		Department: req.Department,
	}

	if len(req.StudentCodes) > 0 {
		students, err := h.students.FindByCodes(ctx, req.StudentCodes)
		if err != nil {
			return filter, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve students")
		}
		if len(students) != len(req.StudentCodes) {
			return filter, appErrors.Clone(appErrors.ErrNotFound, "one or more students not found")
		}
		for _, st := range students {
			filter.StudentIDs = append(filter.StudentIDs, st.ID)
		}
	}

	if len(req.ExaminerCodes) > 0 {
		examiners, err := h.examiners.FindByCodes(ctx, req.ExaminerCodes)
		if err != nil {
			return filter, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve examiners")
		}
		if len(examiners) != len(req.ExaminerCodes) {
			return filter, appErrors.Clone(appErrors.ErrNotFound, "one or more examiners not found")
		}
		for _, ex := range examiners {
			filter.ExaminerIDs = append(filter.ExaminerIDs, ex.ID)
		}
	}

	if req.VenueCode != "" {
		venue, err := h.venues.FindByCode(ctx, req.VenueCode)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return filter, appErrors.Clone(appErrors.ErrNotFound, "venue not found")
			}
			return filter, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve venue")
		}
		filter.VenueID = venue.ID
	}
	return filter, nil
}
