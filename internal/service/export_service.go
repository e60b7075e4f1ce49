package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/unidept/presentation-scheduler/internal/models"
	appErrors "github.com/unidept/presentation-scheduler/pkg/errors"
	"github.com/unidept/presentation-scheduler/pkg/export"
)

// Export formats accepted by the day-schedule endpoint.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

type exportBookingRepository interface {
	ListByDate(ctx context.Context, date string) ([]models.Booking, error)
}

type exportStudentRepository interface {
	FindByIDs(ctx context.Context, ids []string) ([]models.Student, error)
}

type exportExaminerRepository interface {
	FindByIDs(ctx context.Context, ids []string) ([]models.Examiner, error)
}

type exportVenueRepository interface {
	FindByID(ctx context.Context, id string) (*models.Venue, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportFile is a rendered schedule ready to stream to the client.
type ExportFile struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ExportService renders one day's presentation schedule as CSV or PDF.
type ExportService struct {
	bookings  exportBookingRepository
	students  exportStudentRepository
	examiners exportExaminerRepository
	venues    exportVenueRepository
	csv       csvRenderer
	pdf       pdfRenderer
	logger    *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(
	bookings exportBookingRepository,
	students exportStudentRepository,
	examiners exportExaminerRepository,
	venues exportVenueRepository,
	csv csvRenderer,
	pdf pdfRenderer,
	logger *zap.Logger,
) *ExportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		bookings:  bookings,
		students:  students,
		examiners: examiners,
		venues:    venues,
		csv:       csv,
		pdf:       pdf,
		logger:    logger,
	}
}

// DaySchedule renders every booking on the date, ordered as stored, in
// the requested format.
func (s *ExportService) DaySchedule(ctx context.Context, date, format string) (*ExportFile, error) {
	bookings, err := s.bookings.ListByDate(ctx, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load bookings for export")
	}

	dataset, err := s.buildDataset(ctx, bookings)
	if err != nil {
		return nil, err
	}

	switch format {
	case ExportFormatCSV:
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportFile{
			Filename:    fmt.Sprintf("schedule-%s.csv", date),
			ContentType: "text/csv",
			Payload:     payload,
		}, nil
	case ExportFormatPDF:
		payload, err := s.pdf.Render(dataset, "Presentation Schedule "+date)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportFile{
			Filename:    fmt.Sprintf("schedule-%s.pdf", date),
			ContentType: "application/pdf",
			Payload:     payload,
		}, nil
	default:
		return nil, appErrors.Wrap(nil, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "format must be csv or pdf")
	}
}

func (s *ExportService) buildDataset(ctx context.Context, bookings []models.Booking) (export.Dataset, error) {
	headers := []string{"Time", "Title", "Department", "Venue", "Students", "Examiners"}
	rows := make([]map[string]string, 0, len(bookings))
	venueNames := make(map[string]string)

	for _, booking := range bookings {
		venueName, ok := venueNames[booking.VenueID]
		if !ok {
			venue, err := s.venues.FindByID(ctx, booking.VenueID)
			if err != nil {
				s.logger.Warn("venue missing for export row", zap.String("venue_id", booking.VenueID), zap.Error(err))
				venueName = booking.VenueID
			} else {
				venueName = venue.Code
			}
			venueNames[booking.VenueID] = venueName
		}

		students, err := s.students.FindByIDs(ctx, booking.StudentIDs)
		if err != nil {
			return export.Dataset{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve students for export")
		}
		examiners, err := s.examiners.FindByIDs(ctx, booking.ExaminerIDs)
		if err != nil {
			return export.Dataset{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve examiners for export")
		}

		studentNames := make([]string, len(students))
		for i, st := range students {
			studentNames[i] = st.FullName
		}
		examinerNames := make([]string, len(examiners))
		for i, ex := range examiners {
			examinerNames[i] = ex.FullName
		}

		rows = append(rows, map[string]string{
			"Time":       booking.TimeRange.StartTime + " - " + booking.TimeRange.EndTime,
			"Title":      booking.Title,
			"Department": booking.Department,
			"Venue":      venueName,
			"Students":   strings.Join(studentNames, "; "),
			"Examiners":  strings.Join(examinerNames, "; "),
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}, nil
}
