package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/unidept/presentation-scheduler/internal/dto"
	"github.com/unidept/presentation-scheduler/internal/models"
	appErrors "github.com/unidept/presentation-scheduler/pkg/errors"
)

type suggestionBookingRepository interface {
	FindByID(ctx context.Context, id string) (*models.Booking, error)
	ListByDate(ctx context.Context, date string) ([]models.Booking, error)
}

type suggestionStudentRepository interface {
	FindByIDs(ctx context.Context, ids []string) ([]models.Student, error)
}

type suggestionExaminerRepository interface {
	ListByDepartment(ctx context.Context, department string) ([]models.Examiner, error)
}

type suggestionVenueRepository interface {
	List(ctx context.Context) ([]models.Venue, error)
}

type suggestionTimetableRepository interface {
	CountForExaminersOnDay(ctx context.Context, examinerIDs []string, dayOfWeek string) (int, error)
}

// SuggestionService searches venues, examiners and candidate start
// times for the first combination that books cleanly. Candidate dates
// are ranked by the department examiners' timetable lecture load so
// suggestions land on the lightest day in the window.
type SuggestionService struct {
	bookings   suggestionBookingRepository
	students   suggestionStudentRepository
	examiners  suggestionExaminerRepository
	venues     suggestionVenueRepository
	timetables suggestionTimetableRepository
	grid       ScheduleGrid
	metrics    *MetricsService
	now        func() time.Time
	logger     *zap.Logger
}

// NewSuggestionService constructs the suggestion service.
func NewSuggestionService(
	bookings suggestionBookingRepository,
	students suggestionStudentRepository,
	examiners suggestionExaminerRepository,
	venues suggestionVenueRepository,
	timetables suggestionTimetableRepository,
	grid ScheduleGrid,
	metrics *MetricsService,
	logger *zap.Logger,
) *SuggestionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SuggestionService{
		bookings:   bookings,
		students:   students,
		examiners:  examiners,
		venues:     venues,
		timetables: timetables,
		grid:       grid,
		metrics:    metrics,
		now:        time.Now,
		logger:     logger,
	}
}

// Suggest finds a non-conflicting slot for the request. The candidate
// window opens today.
func (s *SuggestionService) Suggest(ctx context.Context, req dto.SuggestSlotRequest) (*dto.SuggestSlotResponse, error) {
	return s.suggest(ctx, req, s.today(), "")
}

// SuggestForReschedule finds a replacement slot for an existing
// booking, reusing its participants, duration and department. The
// candidate window opens tomorrow, and the booking being moved never
// counts against its own replacement.
func (s *SuggestionService) SuggestForReschedule(ctx context.Context, bookingID string) (*dto.SuggestSlotResponse, error) {
	booking, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "booking not found")
	}
	req := dto.SuggestSlotRequest{
		StudentIDs:      booking.StudentIDs,
		NumExaminers:    booking.NumExaminers,
		DurationMinutes: booking.DurationMinutes,
		Department:      booking.Department,
	}
	return s.suggest(ctx, req, s.today().AddDate(0, 0, 1), booking.ID)
}

func (s *SuggestionService) suggest(ctx context.Context, req dto.SuggestSlotRequest, windowStart time.Time, excludeBookingID string) (*dto.SuggestSlotResponse, error) {
	if req.NumExaminers < 1 || req.DurationMinutes < 1 {
		return nil, appErrors.Wrap(nil, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "examiner count and duration must be positive")
	}

	students, err := s.students.FindByIDs(ctx, req.StudentIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve students")
	}
	if len(students) == 0 {
		return nil, appErrors.Wrap(nil, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "no valid students")
	}

	// Students in one request are assumed to share a department; the
	// first resolved record decides when the caller leaves it blank.
	department := req.Department
	if department == "" {
		department = students[0].Department
	}

	pool, err := s.examiners.ListByDepartment(ctx, department)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load department examiners")
	}
	if len(pool) < req.NumExaminers {
		return nil, appErrors.Wrap(nil, appErrors.ErrNoSuitableSlot.Code, appErrors.ErrNoSuitableSlot.Status, "not enough examiners in department")
	}

	venues, err := s.venues.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load venues")
	}
	if len(venues) == 0 {
		return nil, appErrors.Wrap(nil, appErrors.ErrNoSuitableSlot.Code, appErrors.ErrNoSuitableSlot.Status, "no venues exist")
	}

	poolIDs := make([]string, len(pool))
	for i, ex := range pool {
		poolIDs[i] = ex.ID
	}

	date, err := s.lightestDate(ctx, poolIDs, windowStart)
	if err != nil {
		return nil, err
	}

	bookings, err := s.bookings.ListByDate(ctx, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load bookings for suggestion date")
	}
	if excludeBookingID != "" {
		filtered := bookings[:0]
		for _, b := range bookings {
			if b.ID != excludeBookingID {
				filtered = append(filtered, b)
			}
		}
		bookings = filtered
	}

	pick := s.searchDay(req, pool, venues, bookings)
	if pick == nil {
		s.metrics.RecordSuggestion("miss")
		return nil, appErrors.Wrap(nil, appErrors.ErrNoSuitableSlot.Code, appErrors.ErrNoSuitableSlot.Status, "no suitable time slot on the selected date")
	}

	s.metrics.RecordSuggestion("hit")
	return &dto.SuggestSlotResponse{
		Date:       date,
		Department: department,
		Examiners:  pick.examiners,
		Venue:      pick.venue,
		TimeRange:  pick.timeRange,
	}, nil
}

// lightestDate scores each date in the search window by the number of
// timetable lectures the department's examiners teach on that weekday
// and returns the minimum, earliest date winning ties.
func (s *SuggestionService) lightestDate(ctx context.Context, examinerIDs []string, windowStart time.Time) (string, error) {
	bestDate := ""
	bestScore := 0
	for i := 0; i < s.grid.SearchSpanDays; i++ {
		day := windowStart.AddDate(0, 0, i)
		score, err := s.timetables.CountForExaminersOnDay(ctx, examinerIDs, strings.ToUpper(day.Weekday().String()))
		if err != nil {
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to score candidate date")
		}
		if bestDate == "" || score < bestScore {
			bestDate = day.Format("2006-01-02")
			bestScore = score
		}
	}
	return bestDate, nil
}

type slotPick struct {
	examiners []models.Examiner
	venue     models.Venue
	timeRange models.TimeRange
}

// searchDay walks the start-time ladder on one date. At each start it
// rejects slots the students are busy in, then tries to reuse an
// examiner group already assigned a venue that day before falling back
// to uncommitted examiners in an unused venue. Selection order is the
// storage fetch order, so results are deterministic.
func (s *SuggestionService) searchDay(req dto.SuggestSlotRequest, pool []models.Examiner, venues []models.Venue, bookings []models.Booking) *slotPick {
	type window struct {
		start, end int
		booking    models.Booking
	}
	busy := make([]window, 0, len(bookings))
	for _, b := range bookings {
		start, err1 := parseClock(b.TimeRange.StartTime)
		end, err2 := parseClock(b.TimeRange.EndTime)
		if err1 != nil || err2 != nil {
			continue
		}
		busy = append(busy, window{start: start, end: end, booking: b})
	}

	poolSet := make(map[string]struct{}, len(pool))
	for _, ex := range pool {
		poolSet[ex.ID] = struct{}{}
	}

	// examiner -> venue pairing from commitments already on this date,
	// plus the set of venues in use at any point of the day.
	pairedVenue := make(map[string]string)
	committed := make(map[string]struct{})
	venuesInUse := make(map[string]struct{})
	for _, b := range bookings {
		if b.VenueID != "" {
			venuesInUse[b.VenueID] = struct{}{}
		}
		for _, exID := range b.ExaminerIDs {
			committed[exID] = struct{}{}
			if _, inPool := poolSet[exID]; inPool && b.VenueID != "" {
				if _, seen := pairedVenue[exID]; !seen {
					pairedVenue[exID] = b.VenueID
				}
			}
		}
	}

	overlapsAt := func(start, end int) []window {
		var hits []window
		for _, w := range busy {
			if rangesOverlap(start, end, w.start, w.end) {
				hits = append(hits, w)
			}
		}
		return hits
	}

	for start := s.grid.DayStartMin; start <= s.grid.LastStartMin; start += s.grid.StepMinutes {
		end := start + req.DurationMinutes
		if end > s.grid.DayEndMin {
			break
		}
		hits := overlapsAt(start, end)

		studentBusy := false
		busyExaminers := make(map[string]struct{})
		busyVenues := make(map[string]struct{})
		for _, w := range hits {
			if intersects(req.StudentIDs, w.booking.StudentIDs) {
				studentBusy = true
				break
			}
			if w.booking.VenueID != "" {
				busyVenues[w.booking.VenueID] = struct{}{}
			}
			for _, exID := range w.booking.ExaminerIDs {
				busyExaminers[exID] = struct{}{}
			}
		}
		if studentBusy {
			continue
		}

		if pick := pickPaired(req.NumExaminers, pool, venues, pairedVenue, busyExaminers, busyVenues); pick != nil {
			pick.timeRange = models.TimeRange{StartTime: formatClock(start), EndTime: formatClock(end)}
			return pick
		}
		if pick := pickUnpaired(req.NumExaminers, pool, venues, committed, busyExaminers, venuesInUse); pick != nil {
			pick.timeRange = models.TimeRange{StartTime: formatClock(start), EndTime: formatClock(end)}
			return pick
		}
	}
	return nil
}

// pickPaired selects examiners already paired with a venue today,
// grouped by that venue, when enough of them are free and the venue
// itself is free at the candidate time.
func pickPaired(count int, pool []models.Examiner, venues []models.Venue, pairedVenue map[string]string, busyExaminers, busyVenues map[string]struct{}) *slotPick {
	byVenue := make(map[string][]models.Examiner)
	for _, ex := range pool {
		venueID, paired := pairedVenue[ex.ID]
		if !paired {
			continue
		}
		if _, busy := busyExaminers[ex.ID]; busy {
			continue
		}
		byVenue[venueID] = append(byVenue[venueID], ex)
	}
	for _, venue := range venues {
		group := byVenue[venue.ID]
		if len(group) < count {
			continue
		}
		if _, busy := busyVenues[venue.ID]; busy {
			continue
		}
		return &slotPick{examiners: group[:count], venue: venue}
	}
	return nil
}

// pickUnpaired selects examiners with no commitment on the date at all
// and the first venue unused that day.
func pickUnpaired(count int, pool []models.Examiner, venues []models.Venue, committed, busyExaminers map[string]struct{}, venuesInUse map[string]struct{}) *slotPick {
	var free []models.Examiner
	for _, ex := range pool {
		if _, c := committed[ex.ID]; c {
			continue
		}
		if _, busy := busyExaminers[ex.ID]; busy {
			continue
		}
		free = append(free, ex)
		if len(free) == count {
			break
		}
	}
	if len(free) < count {
		return nil
	}
	for _, venue := range venues {
		if _, used := venuesInUse[venue.ID]; used {
			continue
		}
		return &slotPick{examiners: free, venue: venue}
	}
	return nil
}

func (s *SuggestionService) today() time.Time {
	now := s.now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}
