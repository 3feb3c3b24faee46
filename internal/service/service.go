package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"gym-service/api"
	"gym-service/internal/authz"
	"gym-service/internal/detail"
	"gym-service/internal/export"
	"gym-service/internal/metrics"
	"gym-service/internal/models"
	"gym-service/internal/schedule"
	"gym-service/pkg/response"
)

type Store interface {
	GetUser(ctx context.Context, id string) (*models.User, error)

	// Bookings
	ListBookingsByMember(ctx context.Context, memberID string) ([]models.BookingRecord, error)
	GetBooking(ctx context.Context, id string) (*models.BookingRecord, error)
	CancelBooking(ctx context.Context, id string) error
	DeleteBooking(ctx context.Context, id string) error

	// Sessions
	ListSessionsByTrainer(ctx context.Context, trainerID string, from, to *time.Time) ([]models.SessionRecord, error)
	GetSession(ctx context.Context, id string) (*models.SessionRecord, error)
}

type Service struct {
	store   Store
	details *detail.Registry
	now     func() time.Time
}

func NewService(store Store) *Service {
	return &Service{
		store:   store,
		details: detail.NewRegistry(),
		now:     time.Now,
	}
}

func (s *Service) subject(ctx context.Context, id string) (export.Subject, error) {
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return export.Subject{}, response.ErrSubjectNotFound
		}

		return export.Subject{}, err
	}

	return export.Subject{ID: user.ID, FullName: user.FullName}, nil
}

// ExportBookingHistory builds the member's booking history document. With
// onlyPast the rows are filtered against one "now" snapshot taken at request
// start; rows are then sorted ascending by (date, time) before bucketing, so
// the emitted weeks come out in chronological order.
func (s *Service) ExportBookingHistory(ctx context.Context, caller authz.Identity, memberID string, onlyPast bool) (*api.ExportFile, error) {
	const op = "service.ExportBookingHistory"

	started := time.Now()

	file, err := s.exportBookingHistory(ctx, caller, memberID, onlyPast)
	if err != nil {
		metrics.ExportFailures.Inc()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	metrics.ExportsGenerated.WithLabelValues("booking_history").Inc()
	metrics.ExportDuration.Observe(time.Since(started).Seconds())

	return file, nil
}

func (s *Service) exportBookingHistory(ctx context.Context, caller authz.Identity, memberID string, onlyPast bool) (*api.ExportFile, error) {
	if memberID == "" {
		memberID = caller.ID
	}

	if err := authz.Check(caller, authz.OpExportBookings, authz.Resource{OwnerID: memberID}); err != nil {
		return nil, err
	}

	subject, err := s.subject(ctx, memberID)
	if err != nil {
		return nil, err
	}

	records, err := s.store.ListBookingsByMember(ctx, memberID)
	if err != nil {
		return nil, err
	}

	now := s.now()

	if onlyPast {
		kept := records[:0]
		for _, rec := range records {
			cls, err := schedule.Classify(rec.SessionDate, rec.SessionTime, now)
			if err != nil {
				continue
			}
			if cls == schedule.Past {
				kept = append(kept, rec)
			}
		}
		records = kept
	}

	sort.SliceStable(records, func(i, j int) bool {
		return schedule.SortKey(records[i].SessionDate, records[i].SessionTime) <
			schedule.SortKey(records[j].SessionDate, records[j].SessionTime)
	})

	rows := make([]export.Record, len(records))
	for i, rec := range records {
		rows[i] = export.Record{
			BookingID: rec.BookingID,
			SessionID: rec.SessionID,
			Date:      rec.SessionDate,
			Time:      rec.SessionTime,
			Activity:  rec.ActivityName,
			Location:  rec.LocationName,
			Trainer:   rec.TrainerName,
		}
	}

	weeks := schedule.Partition(rows, recordDate)

	doc, err := export.Compose(export.BookingHistory, subject, weeks, nil, now)
	if err != nil {
		return nil, err
	}

	return &api.ExportFile{
		Filename:    export.Filename(export.BookingHistory, subject, nil),
		ContentType: "application/xml",
		Body:        export.Render(doc),
	}, nil
}

// ExportWeeklySessions builds the trainer's weekly sessions document. With an
// explicit range the date filter runs in SQL and the range appears in the
// header and filename; without one, only sessions dated today or later are
// kept. Rows are deliberately not re-sorted: bucket order follows whatever
// order the repository returned.
func (s *Service) ExportWeeklySessions(ctx context.Context, caller authz.Identity, trainerID string, from, to *time.Time) (*api.ExportFile, error) {
	const op = "service.ExportWeeklySessions"

	started := time.Now()

	file, err := s.exportWeeklySessions(ctx, caller, trainerID, from, to)
	if err != nil {
		metrics.ExportFailures.Inc()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	metrics.ExportsGenerated.WithLabelValues("weekly_sessions").Inc()
	metrics.ExportDuration.Observe(time.Since(started).Seconds())

	return file, nil
}

func (s *Service) exportWeeklySessions(ctx context.Context, caller authz.Identity, trainerID string, from, to *time.Time) (*api.ExportFile, error) {
	if trainerID == "" {
		trainerID = caller.ID
	}

	if err := authz.Check(caller, authz.OpExportSessions, authz.Resource{OwnerID: trainerID}); err != nil {
		return nil, err
	}

	subject, err := s.subject(ctx, trainerID)
	if err != nil {
		return nil, err
	}

	records, err := s.store.ListSessionsByTrainer(ctx, trainerID, from, to)
	if err != nil {
		return nil, err
	}

	now := s.now()

	if from == nil && to == nil {
		// No explicit range: keep sessions dated today or later. The
		// reference is midnight so a session earlier today still counts.
		ref := schedule.StartOfDay(now)
		kept := records[:0]
		for _, rec := range records {
			cls, err := schedule.Classify(rec.SessionDate, "", ref)
			if err != nil {
				continue
			}
			if cls == schedule.Future {
				kept = append(kept, rec)
			}
		}
		records = kept
	}

	rows := make([]export.Record, len(records))
	for i, rec := range records {
		rows[i] = export.Record{
			SessionID: rec.SessionID,
			Date:      rec.SessionDate,
			Time:      rec.SessionTime,
			Activity:  rec.ActivityName,
			Location:  rec.LocationName,
		}
	}

	weeks := schedule.Partition(rows, recordDate)

	var rng *export.DateRange
	if from != nil && to != nil {
		rng = &export.DateRange{
			Start: from.Format("2006-01-02"),
			End:   to.Format("2006-01-02"),
		}
	}

	doc, err := export.Compose(export.WeeklySessions, subject, weeks, rng, now)
	if err != nil {
		return nil, err
	}

	return &api.ExportFile{
		Filename:    export.Filename(export.WeeklySessions, subject, rng),
		ContentType: "application/xml",
		Body:        export.Render(doc),
	}, nil
}

func recordDate(r export.Record) (time.Time, bool) {
	d, err := schedule.Instant(r.Date, "")
	if err != nil {
		return time.Time{}, false
	}

	return d, true
}

// GetBookingDetail fetches one booking for the caller's detail view. The
// per-viewer guard drops the result if a newer detail fetch was issued while
// this one was in flight.
func (s *Service) GetBookingDetail(ctx context.Context, caller authz.Identity, id string) (*api.BookingDetailResponse, error) {
	const op = "service.GetBookingDetail"

	guard := s.details.For(caller.ID)
	ticket := guard.Begin()

	rec, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := authz.Check(caller, authz.OpReadBooking, authz.Resource{OwnerID: rec.MemberID}); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !guard.Accept(ticket) {
		metrics.StaleDetailDrops.Inc()
		return nil, response.ErrStale
	}

	return &api.BookingDetailResponse{
		BookingID:   rec.BookingID,
		SessionID:   rec.SessionID,
		MemberID:    rec.MemberID,
		SessionDate: rec.SessionDate,
		SessionTime: rec.SessionTime,
		Activity:    rec.ActivityName,
		Location:    rec.LocationName,
		Trainer:     rec.TrainerName,
	}, nil
}

// GetSessionDetail is the trainer-side twin of GetBookingDetail and shares
// the same per-viewer guard.
func (s *Service) GetSessionDetail(ctx context.Context, caller authz.Identity, id string) (*api.SessionDetailResponse, error) {
	const op = "service.GetSessionDetail"

	guard := s.details.For(caller.ID)
	ticket := guard.Begin()

	rec, err := s.store.GetSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := authz.Check(caller, authz.OpReadSession, authz.Resource{OwnerID: rec.TrainerID}); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !guard.Accept(ticket) {
		metrics.StaleDetailDrops.Inc()
		return nil, response.ErrStale
	}

	return &api.SessionDetailResponse{
		SessionID:   rec.SessionID,
		TrainerID:   rec.TrainerID,
		SessionDate: rec.SessionDate,
		SessionTime: rec.SessionTime,
		Activity:    rec.ActivityName,
		Location:    rec.LocationName,
	}, nil
}

// CancelBooking removes a member's reservation. A booking whose session is
// already past is erased outright; a future one is soft-cancelled and stays
// recoverable. An unparsable session date falls back to the soft cancel.
func (s *Service) CancelBooking(ctx context.Context, caller authz.Identity, id string) error {
	const op = "service.CancelBooking"

	rec, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := authz.Check(caller, authz.OpCancelBooking, authz.Resource{OwnerID: rec.MemberID}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	cls, err := schedule.Classify(rec.SessionDate, rec.SessionTime, s.now())
	if err != nil {
		cls = schedule.Future
	}

	if cls == schedule.Past {
		err = s.store.DeleteBooking(ctx, id)
	} else {
		err = s.store.CancelBooking(ctx, id)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// DismissDetail invalidates any in-flight detail fetch for the caller, e.g.
// when the client closes the detail pane or switches tabs.
func (s *Service) DismissDetail(caller authz.Identity) {
	s.details.For(caller.ID).Cancel()
}
