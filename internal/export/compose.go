package export

import (
	"fmt"
	"strings"
	"time"

	"gym-service/internal/schedule"
	"gym-service/pkg/response"
)

// Record is one flat, denormalized export row: the identifiers of the
// booking/session plus the display fields already joined in by the
// repository. Kinds pick the fields they emit via their config.
type Record struct {
	BookingID string
	SessionID string
	Date      string
	Time      string
	Activity  string
	Location  string
	Trainer   string
}

type Subject struct {
	ID       string
	FullName string
}

// DateRange is an explicit caller-supplied period, ISO dates inclusive.
type DateRange struct {
	Start string
	End   string
}

type Field struct {
	Tag   string
	Value string
}

// KindConfig parameterizes the single export pipeline per document kind.
type KindConfig struct {
	Title      string
	RootTag    string
	SubjectTag string
	CountTag   string
	ItemTag    string
	FilePrefix string
	ItemFields func(Record) []Field
}

var BookingHistory = KindConfig{
	Title:      "Booking History",
	RootTag:    "booking_history",
	SubjectTag: "member",
	CountTag:   "total_bookings",
	ItemTag:    "booking",
	FilePrefix: "booking-history",
	ItemFields: func(r Record) []Field {
		return []Field{
			{Tag: "booking_id", Value: r.BookingID},
			{Tag: "session_id", Value: r.SessionID},
			{Tag: "date", Value: r.Date},
			{Tag: "time", Value: r.Time},
			{Tag: "datetime", Value: isoDateTime(r.Date, r.Time)},
			{Tag: "activity", Value: r.Activity},
			{Tag: "location", Value: r.Location},
			{Tag: "trainer", Value: r.Trainer},
		}
	},
}

var WeeklySessions = KindConfig{
	Title:      "Weekly Sessions",
	RootTag:    "weekly_sessions",
	SubjectTag: "trainer",
	CountTag:   "total_sessions",
	ItemTag:    "session",
	FilePrefix: "weekly-sessions",
	ItemFields: func(r Record) []Field {
		return []Field{
			{Tag: "id", Value: r.SessionID},
			{Tag: "date", Value: r.Date},
			{Tag: "time", Value: r.Time},
			{Tag: "datetime", Value: isoDateTime(r.Date, r.Time)},
			{Tag: "activity", Value: r.Activity},
			{Tag: "location", Value: r.Location},
		}
	},
}

func isoDateTime(date, timeOfDay string) string {
	if timeOfDay == "" {
		return date
	}

	return date + "T" + timeOfDay
}

type Document struct {
	RootTag string
	ItemTag string
	Header  Header
	Weeks   []Week
}

type Header struct {
	Title       string
	ExportedAt  string
	SubjectTag  string
	SubjectName string
	CountTag    string
	Total       int
	PeriodStart string
	PeriodEnd   string
}

type Week struct {
	Range string
	Items [][]Field
}

// Compose builds the export document for one kind. The header period is the
// explicit range when the caller supplied one, otherwise the first bucket's
// week start and the last bucket's week end. Composition is all-or-nothing:
// a missing subject aborts before anything is built.
func Compose(cfg KindConfig, subject Subject, weeks []schedule.WeekBucket[Record], rng *DateRange, now time.Time) (*Document, error) {
	const op = "export.Compose"

	if subject.FullName == "" {
		return nil, fmt.Errorf("%s: %w", op, response.ErrSubjectNotFound)
	}

	total := 0
	for _, w := range weeks {
		total += len(w.Items)
	}

	header := Header{
		Title:       cfg.Title + " - " + subject.FullName,
		ExportedAt:  now.Format("2006-01-02 15:04:05"),
		SubjectTag:  cfg.SubjectTag,
		SubjectName: subject.FullName,
		CountTag:    cfg.CountTag,
		Total:       total,
	}

	switch {
	case rng != nil:
		header.PeriodStart = rng.Start
		header.PeriodEnd = rng.End
	case len(weeks) > 0:
		header.PeriodStart = weeks[0].WeekStart.Format("2006-01-02")
		header.PeriodEnd = weeks[len(weeks)-1].WeekEnd.Format("2006-01-02")
	}

	doc := &Document{
		RootTag: cfg.RootTag,
		ItemTag: cfg.ItemTag,
		Header:  header,
	}

	for _, w := range weeks {
		week := Week{Range: w.Label}
		for _, rec := range w.Items {
			week.Items = append(week.Items, cfg.ItemFields(rec))
		}
		doc.Weeks = append(doc.Weeks, week)
	}

	return doc, nil
}

// Filename derives the download name: spaces in the subject become hyphens,
// and the date-range suffix appears only when an explicit range was given.
func Filename(cfg KindConfig, subject Subject, rng *DateRange) string {
	name := cfg.FilePrefix + "-" + strings.ReplaceAll(subject.FullName, " ", "-")

	if rng != nil {
		name += "-" + rng.Start + "-to-" + rng.End
	}

	return name + ".xml"
}
