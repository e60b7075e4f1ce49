package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/unidept/presentation-scheduler/internal/dto"
	"github.com/unidept/presentation-scheduler/internal/models"
	appErrors "github.com/unidept/presentation-scheduler/pkg/errors"
)

type availabilityBookingRepository interface {
	ListForAvailability(ctx context.Context, filter models.AvailabilityFilter) ([]models.Booking, error)
}

type availabilityCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// AvailabilityService answers the two read-side scheduling questions:
// whether one concrete slot is free, and which windows on a date are
// free for a given venue/participant combination.
type AvailabilityService struct {
	bookings availabilityBookingRepository
	cache    availabilityCache
	grid     ScheduleGrid
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewAvailabilityService constructs the availability service. cache may
// be nil to disable free-slot caching.
func NewAvailabilityService(bookings availabilityBookingRepository, cache availabilityCache, grid ScheduleGrid, cacheTTL time.Duration, logger *zap.Logger) *AvailabilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityService{
		bookings: bookings,
		cache:    cache,
		grid:     grid,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// IsSlotAvailable reports whether the candidate slot is free of
// examiner, venue and student conflicts. excludeID lets a reschedule
// check ignore the booking being moved, so keeping the original slot
// never conflicts with itself. The returned conflicts list every
// blocking booking with the dimension that collides.
func (s *AvailabilityService) IsSlotAvailable(ctx context.Context, filter models.AvailabilityFilter, slot models.TimeRange, excludeID string) (bool, []models.SlotConflict, error) {
	start, end, err := s.parseSlot(slot)
	if err != nil {
		return false, nil, err
	}
	if start < s.grid.DayStartMin || end > s.grid.DayEndMin {
		return false, nil, appErrors.Wrap(nil, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status,
			fmt.Sprintf("slot must lie within the operating day %s-%s", formatClock(s.grid.DayStartMin), formatClock(s.grid.DayEndMin)))
	}

	existing, err := s.bookings.ListForAvailability(ctx, filter)
	if err != nil {
		return false, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load bookings for availability check")
	}

	conflicts := findConflicts(filter, start, end, existing, excludeID)
	return len(conflicts) == 0, conflicts, nil
}

// findConflicts walks the existing bookings and collects every one
// whose time range overlaps the candidate and that shares a venue, an
// examiner or a student with it. Pure so service tests can exercise the
// boundary cases without a repository.
func findConflicts(filter models.AvailabilityFilter, start, end int, existing []models.Booking, excludeID string) []models.SlotConflict {
	var conflicts []models.SlotConflict
	for _, booking := range existing {
		if excludeID != "" && booking.ID == excludeID {
			continue
		}
		bStart, err1 := parseClock(booking.TimeRange.StartTime)
		bEnd, err2 := parseClock(booking.TimeRange.EndTime)
		if err1 != nil || err2 != nil {
			continue
		}
		if !rangesOverlap(start, end, bStart, bEnd) {
			continue
		}
		dimension := conflictDimension(filter, booking)
		if dimension == "" {
			continue
		}
		conflicts = append(conflicts, models.SlotConflict{
			BookingID: booking.ID,
			Dimension: dimension,
			TimeRange: booking.TimeRange,
		})
	}
	return conflicts
}

// conflictDimension reports the first resource shared between the
// candidate and an overlapping booking, checking examiners, then venue,
// then students. Empty means the overlap is harmless.
func conflictDimension(filter models.AvailabilityFilter, booking models.Booking) string {
	if intersects(filter.ExaminerIDs, booking.ExaminerIDs) {
		return models.ConflictDimensionExaminer
	}
	if filter.VenueID != "" && filter.VenueID == booking.VenueID {
		return models.ConflictDimensionVenue
	}
	if intersects(filter.StudentIDs, booking.StudentIDs) {
		return models.ConflictDimensionStudent
	}
	return ""
}

// FreeSlots scans the operating day and emits every window wide enough
// for durationMinutes after blocking out the bookings that match the
// filter. With no matching bookings the whole operating day comes back
// as a single slot.
func (s *AvailabilityService) FreeSlots(ctx context.Context, filter models.AvailabilityFilter, durationMinutes int) ([]dto.FreeSlot, error) {
	if durationMinutes <= 0 {
		return nil, appErrors.Wrap(nil, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "duration must be positive")
	}

	cacheKey := s.freeSlotsCacheKey(filter, durationMinutes)
	if s.cache != nil {
		var cached []dto.FreeSlot
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return cached, nil
		}
	}

	existing, err := s.bookings.ListForAvailability(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load bookings for free-slot scan")
	}

	slots := s.scanGaps(existing, durationMinutes)

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, slots, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache free slots", zap.String("key", cacheKey), zap.Error(err))
		}
	}
	return slots, nil
}

// scanGaps walks the bookings in start order with a cursor from day
// start. The cursor only moves forward, so bookings contained inside an
// earlier one never reopen a gap.
func (s *AvailabilityService) scanGaps(existing []models.Booking, durationMinutes int) []dto.FreeSlot {
	type window struct{ start, end int }
	busy := make([]window, 0, len(existing))
	for _, booking := range existing {
		start, err1 := parseClock(booking.TimeRange.StartTime)
		end, err2 := parseClock(booking.TimeRange.EndTime)
		if err1 != nil || err2 != nil {
			continue
		}
		busy = append(busy, window{start: start, end: end})
	}
	sort.Slice(busy, func(i, j int) bool { return busy[i].start < busy[j].start })

	slots := make([]dto.FreeSlot, 0, len(busy)+1)
	emit := func(start, end int) {
		if end-start >= durationMinutes {
			slots = append(slots, dto.FreeSlot{
				TimeSlot:    formatClock(start) + " - " + formatClock(end),
				StartMinute: start,
				EndMinute:   end,
				Available:   true,
			})
		}
	}

	cursor := s.grid.DayStartMin
	for _, w := range busy {
		if w.start > cursor {
			emit(cursor, min(w.start, s.grid.DayEndMin))
		}
		if w.end > cursor {
			cursor = w.end
		}
		if cursor >= s.grid.DayEndMin {
			break
		}
	}
	if cursor < s.grid.DayEndMin {
		emit(cursor, s.grid.DayEndMin)
	}
	return slots
}

// InvalidateDate drops cached free-slot scans for a date after a write.
func (s *AvailabilityService) InvalidateDate(ctx context.Context, date string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "availability:"+date+":*"); err != nil {
		s.logger.Warn("failed to invalidate availability cache", zap.String("date", date), zap.Error(err))
	}
}

func (s *AvailabilityService) parseSlot(slot models.TimeRange) (int, int, error) {
	start, err := parseClock(slot.StartTime)
	if err != nil {
		return 0, 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid start time")
	}
	end, err := parseClock(slot.EndTime)
	if err != nil {
		return 0, 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid end time")
	}
	if start >= end {
		return 0, 0, appErrors.Wrap(nil, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "start time must be before end time")
	}
	return start, end, nil
}

func (s *AvailabilityService) freeSlotsCacheKey(filter models.AvailabilityFilter, durationMinutes int) string {
	students := append([]string(nil), filter.StudentIDs...)
	examiners := append([]string(nil), filter.ExaminerIDs...)
	sort.Strings(students)
	sort.Strings(examiners)
	return fmt.Sprintf("availability:%s:%s:%s:%s:%s:%d",
		filter.Date, filter.Department, filter.VenueID,
		strings.Join(students, ","), strings.Join(examiners, ","), durationMinutes)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
