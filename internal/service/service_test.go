package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"gym-service/internal/authz"
	"gym-service/internal/detail"
	"gym-service/internal/models"
	"gym-service/pkg/response"
)

type fakeStore struct {
	users    map[string]*models.User
	bookings []models.BookingRecord
	sessions []models.SessionRecord

	cancelled []string
	deleted   []string

	onGetBooking func()
}

func (f *fakeStore) GetUser(_ context.Context, id string) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, response.ErrNotFound
	}

	return user, nil
}

func (f *fakeStore) ListBookingsByMember(_ context.Context, memberID string) ([]models.BookingRecord, error) {
	var out []models.BookingRecord
	for _, b := range f.bookings {
		if b.MemberID == memberID {
			out = append(out, b)
		}
	}

	return out, nil
}

func (f *fakeStore) GetBooking(_ context.Context, id string) (*models.BookingRecord, error) {
	if f.onGetBooking != nil {
		f.onGetBooking()
	}

	for _, b := range f.bookings {
		if b.BookingID == id {
			rec := b
			return &rec, nil
		}
	}

	return nil, response.ErrNotFound
}

func (f *fakeStore) CancelBooking(_ context.Context, id string) error {
	f.cancelled = append(f.cancelled, id)
	return nil
}

func (f *fakeStore) DeleteBooking(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeStore) ListSessionsByTrainer(_ context.Context, trainerID string, from, to *time.Time) ([]models.SessionRecord, error) {
	var out []models.SessionRecord
	for _, s := range f.sessions {
		if s.TrainerID != trainerID {
			continue
		}
		d, err := time.Parse("2006-01-02", s.SessionDate)
		if err == nil {
			if from != nil && d.Before(*from) {
				continue
			}
			if to != nil && d.After(*to) {
				continue
			}
		}
		out = append(out, s)
	}

	return out, nil
}

func (f *fakeStore) GetSession(_ context.Context, id string) (*models.SessionRecord, error) {
	for _, s := range f.sessions {
		if s.SessionID == id {
			rec := s
			return &rec, nil
		}
	}

	return nil, response.ErrNotFound
}

func newTestService(store *fakeStore, now time.Time) *Service {
	return &Service{
		store:   store,
		details: detail.NewRegistry(),
		now:     func() time.Time { return now },
	}
}

func testUsers() map[string]*models.User {
	return map[string]*models.User{
		"m1": {ID: "m1", FullName: "John Smith", Role: models.RoleMember},
		"t1": {ID: "t1", FullName: "Jane Doe", Role: models.RoleTrainer},
	}
}

// TestExportBookingHistoryOnlyPast replays the reference scenario: bookings
// on 2024-01-03 and 2024-01-10, now = 2024-01-08, onlyPast → exactly one
// booking in one week bucket with total_bookings=1.
func TestExportBookingHistoryOnlyPast(t *testing.T) {
	store := &fakeStore{
		users: testUsers(),
		bookings: []models.BookingRecord{
			{BookingID: "b2", SessionID: "s2", MemberID: "m1", SessionDate: "2024-01-10", SessionTime: "10:00", ActivityName: "Boxing", LocationName: "Hall B", TrainerName: "Jane Doe"},
			{BookingID: "b1", SessionID: "s1", MemberID: "m1", SessionDate: "2024-01-03", SessionTime: "10:00", ActivityName: "Yoga", LocationName: "Hall A", TrainerName: "Jane Doe"},
		},
	}
	now := time.Date(2024, 1, 8, 12, 0, 0, 0, time.UTC)
	s := newTestService(store, now)

	caller := authz.Identity{ID: "m1", Role: models.RoleMember}

	file, err := s.ExportBookingHistory(context.Background(), caller, "m1", true)
	if err != nil {
		t.Fatalf("ExportBookingHistory returned error: %v", err)
	}

	body := string(file.Body)

	if !strings.Contains(body, "<total_bookings>1</total_bookings>") {
		t.Fatalf("expected exactly one booking:\n%s", body)
	}
	if !strings.Contains(body, "<booking_id>b1</booking_id>") {
		t.Fatalf("the past booking must be present:\n%s", body)
	}
	if strings.Contains(body, "b2") {
		t.Fatalf("the future booking must be filtered out:\n%s", body)
	}
	if !strings.Contains(body, `<week range="01 Jan - 07 Jan, 2024">`) {
		t.Fatalf("expected the 01-07 Jan bucket:\n%s", body)
	}
	if !strings.Contains(body, "<start>2024-01-01</start>") || !strings.Contains(body, "<end>2024-01-07</end>") {
		t.Fatalf("period must span the single bucket:\n%s", body)
	}
	if file.Filename != "booking-history-John-Smith.xml" {
		t.Fatalf("unexpected filename %q", file.Filename)
	}
}

// TestExportBookingHistorySortsChronologically ensures the flattened item
// sequence is ascending by (date, time) when no temporal filter applies.
func TestExportBookingHistorySortsChronologically(t *testing.T) {
	store := &fakeStore{
		users: testUsers(),
		bookings: []models.BookingRecord{
			{BookingID: "b3", SessionID: "s3", MemberID: "m1", SessionDate: "2024-01-10", SessionTime: "18:00"},
			{BookingID: "b1", SessionID: "s1", MemberID: "m1", SessionDate: "2024-01-03", SessionTime: "10:00"},
			{BookingID: "b2", SessionID: "s2", MemberID: "m1", SessionDate: "2024-01-10", SessionTime: "09:00"},
		},
	}
	s := newTestService(store, time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC))

	caller := authz.Identity{ID: "m1", Role: models.RoleMember}

	file, err := s.ExportBookingHistory(context.Background(), caller, "", false)
	if err != nil {
		t.Fatalf("ExportBookingHistory returned error: %v", err)
	}

	body := string(file.Body)

	if !strings.Contains(body, "<total_bookings>3</total_bookings>") {
		t.Fatalf("no temporal filter expected without onlyPast:\n%s", body)
	}

	i1 := strings.Index(body, "<booking_id>b1</booking_id>")
	i2 := strings.Index(body, "<booking_id>b2</booking_id>")
	i3 := strings.Index(body, "<booking_id>b3</booking_id>")
	if i1 < 0 || i2 < 0 || i3 < 0 || !(i1 < i2 && i2 < i3) {
		t.Fatalf("bookings not in chronological order (%d, %d, %d):\n%s", i1, i2, i3, body)
	}
}

// TestExportBookingHistorySkipsMalformedDates ensures a bad row is excluded
// without failing the export.
func TestExportBookingHistorySkipsMalformedDates(t *testing.T) {
	store := &fakeStore{
		users: testUsers(),
		bookings: []models.BookingRecord{
			{BookingID: "b1", SessionID: "s1", MemberID: "m1", SessionDate: "2024-01-03", SessionTime: "10:00"},
			{BookingID: "bad", SessionID: "sx", MemberID: "m1", SessionDate: "soon", SessionTime: "10:00"},
		},
	}
	s := newTestService(store, time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC))

	file, err := s.ExportBookingHistory(context.Background(), authz.Identity{ID: "m1", Role: models.RoleMember}, "m1", false)
	if err != nil {
		t.Fatalf("ExportBookingHistory returned error: %v", err)
	}

	body := string(file.Body)
	if strings.Contains(body, "bad") {
		t.Fatalf("malformed-date booking must be excluded:\n%s", body)
	}
	if !strings.Contains(body, "<total_bookings>1</total_bookings>") {
		t.Fatalf("only the valid booking should count:\n%s", body)
	}
}

// TestExportBookingHistoryAuthorization covers the ownership rules: another
// member is denied, the owner and an admin succeed.
func TestExportBookingHistoryAuthorization(t *testing.T) {
	store := &fakeStore{users: testUsers()}
	s := newTestService(store, time.Now())

	_, err := s.ExportBookingHistory(context.Background(), authz.Identity{ID: "m2", Role: models.RoleMember}, "m1", false)

	var denied *authz.DeniedError
	if !errors.As(err, &denied) || denied.Reason != authz.ReasonNotOwner {
		t.Fatalf("expected not_owner deny, got %v", err)
	}

	if _, err := s.ExportBookingHistory(context.Background(), authz.Identity{ID: "m1", Role: models.RoleMember}, "m1", false); err != nil {
		t.Fatalf("owner export failed: %v", err)
	}

	if _, err := s.ExportBookingHistory(context.Background(), authz.Identity{ID: "a1", Role: models.RoleAdmin}, "m1", false); err != nil {
		t.Fatalf("admin export failed: %v", err)
	}
}

// TestExportBookingHistorySubjectNotFound ensures a missing member aborts
// composition entirely.
func TestExportBookingHistorySubjectNotFound(t *testing.T) {
	store := &fakeStore{users: testUsers()}
	s := newTestService(store, time.Now())

	_, err := s.ExportBookingHistory(context.Background(), authz.Identity{ID: "a1", Role: models.RoleAdmin}, "ghost", false)
	if !errors.Is(err, response.ErrSubjectNotFound) {
		t.Fatalf("expected ErrSubjectNotFound, got %v", err)
	}
}

// TestExportWeeklySessionsWithExplicitRange replays the reference scenario:
// start 2024-02-01, end 2024-02-14 → only in-range sessions, range in the
// header and filename, no future filter.
func TestExportWeeklySessionsWithExplicitRange(t *testing.T) {
	store := &fakeStore{
		users: testUsers(),
		sessions: []models.SessionRecord{
			{SessionID: "s1", TrainerID: "t1", SessionDate: "2024-01-25", SessionTime: "10:00"},
			{SessionID: "s2", TrainerID: "t1", SessionDate: "2024-02-05", SessionTime: "10:00", ActivityName: "Yoga", LocationName: "Hall A"},
			{SessionID: "s3", TrainerID: "t1", SessionDate: "2024-02-14", SessionTime: "18:00", ActivityName: "Boxing", LocationName: "Hall B"},
			{SessionID: "s4", TrainerID: "t1", SessionDate: "2024-02-20", SessionTime: "10:00"},
		},
	}
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	s := newTestService(store, now)

	from := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 2, 14, 0, 0, 0, 0, time.UTC)

	file, err := s.ExportWeeklySessions(context.Background(), authz.Identity{ID: "t1", Role: models.RoleTrainer}, "t1", &from, &to)
	if err != nil {
		t.Fatalf("ExportWeeklySessions returned error: %v", err)
	}

	body := string(file.Body)

	if !strings.Contains(body, "<total_sessions>2</total_sessions>") {
		t.Fatalf("expected exactly the two in-range sessions:\n%s", body)
	}
	if strings.Contains(body, "s1<") || strings.Contains(body, "<id>s4</id>") {
		t.Fatalf("out-of-range sessions must be excluded:\n%s", body)
	}
	if !strings.Contains(body, "<start>2024-02-01</start>") || !strings.Contains(body, "<end>2024-02-14</end>") {
		t.Fatalf("explicit range must drive the period:\n%s", body)
	}
	if !strings.Contains(body, "<trainer>Jane Doe</trainer>") {
		t.Fatalf("trainer belongs in the header:\n%s", body)
	}
	if strings.Count(body, "<trainer>") != 1 {
		t.Fatalf("trainer must not be repeated per item:\n%s", body)
	}
	if file.Filename != "weekly-sessions-Jane-Doe-2024-02-01-to-2024-02-14.xml" {
		t.Fatalf("unexpected filename %q", file.Filename)
	}
}

// TestExportWeeklySessionsDefaultsToUpcoming ensures that without an explicit
// range only sessions dated today or later survive.
func TestExportWeeklySessionsDefaultsToUpcoming(t *testing.T) {
	store := &fakeStore{
		users: testUsers(),
		sessions: []models.SessionRecord{
			{SessionID: "past", TrainerID: "t1", SessionDate: "2024-01-05", SessionTime: "10:00"},
			{SessionID: "today", TrainerID: "t1", SessionDate: "2024-01-08", SessionTime: "06:00"},
			{SessionID: "future", TrainerID: "t1", SessionDate: "2024-01-15", SessionTime: "10:00"},
		},
	}
	// Late in the day: the 06:00 session earlier today must still count.
	now := time.Date(2024, 1, 8, 22, 0, 0, 0, time.UTC)
	s := newTestService(store, now)

	file, err := s.ExportWeeklySessions(context.Background(), authz.Identity{ID: "t1", Role: models.RoleTrainer}, "", nil, nil)
	if err != nil {
		t.Fatalf("ExportWeeklySessions returned error: %v", err)
	}

	body := string(file.Body)

	if !strings.Contains(body, "<total_sessions>2</total_sessions>") {
		t.Fatalf("expected today's and the future session:\n%s", body)
	}
	if strings.Contains(body, "<id>past</id>") {
		t.Fatalf("past session must be excluded:\n%s", body)
	}
	if file.Filename != "weekly-sessions-Jane-Doe.xml" {
		t.Fatalf("no range suffix expected, got %q", file.Filename)
	}
}

// TestGetBookingDetailOwnership ensures a member sees their own booking and
// is denied on another member's.
func TestGetBookingDetailOwnership(t *testing.T) {
	store := &fakeStore{
		users: testUsers(),
		bookings: []models.BookingRecord{
			{BookingID: "b1", SessionID: "s1", MemberID: "m1", SessionDate: "2024-01-03", SessionTime: "10:00"},
		},
	}
	s := newTestService(store, time.Now())

	got, err := s.GetBookingDetail(context.Background(), authz.Identity{ID: "m1", Role: models.RoleMember}, "b1")
	if err != nil {
		t.Fatalf("GetBookingDetail returned error: %v", err)
	}
	if got.BookingID != "b1" {
		t.Fatalf("unexpected booking %+v", got)
	}

	_, err = s.GetBookingDetail(context.Background(), authz.Identity{ID: "m2", Role: models.RoleMember}, "b1")

	var denied *authz.DeniedError
	if !errors.As(err, &denied) || denied.Reason != authz.ReasonNotOwner {
		t.Fatalf("expected not_owner deny, got %v", err)
	}
}

// TestGetBookingDetailDropsStaleResponse simulates the viewer issuing a newer
// fetch while this one is in flight: the older result must be discarded.
func TestGetBookingDetailDropsStaleResponse(t *testing.T) {
	store := &fakeStore{
		users: testUsers(),
		bookings: []models.BookingRecord{
			{BookingID: "b1", SessionID: "s1", MemberID: "m1", SessionDate: "2024-01-03", SessionTime: "10:00"},
		},
	}
	s := newTestService(store, time.Now())

	caller := authz.Identity{ID: "m1", Role: models.RoleMember}

	superseded := false
	store.onGetBooking = func() {
		if !superseded {
			superseded = true
			s.DismissDetail(caller)
		}
	}

	_, err := s.GetBookingDetail(context.Background(), caller, "b1")
	if !errors.Is(err, response.ErrStale) {
		t.Fatalf("expected ErrStale, got %v", err)
	}

	// The next fetch is current again.
	if _, err := s.GetBookingDetail(context.Background(), caller, "b1"); err != nil {
		t.Fatalf("fresh fetch after dismissal failed: %v", err)
	}
}

// TestCancelBookingSemantics ensures past bookings are erased and future
// ones soft-cancelled.
func TestCancelBookingSemantics(t *testing.T) {
	store := &fakeStore{
		users: testUsers(),
		bookings: []models.BookingRecord{
			{BookingID: "past", SessionID: "s1", MemberID: "m1", SessionDate: "2024-01-03", SessionTime: "10:00"},
			{BookingID: "future", SessionID: "s2", MemberID: "m1", SessionDate: "2024-01-10", SessionTime: "10:00"},
			{BookingID: "odd", SessionID: "s3", MemberID: "m1", SessionDate: "not-a-date", SessionTime: "10:00"},
		},
	}
	now := time.Date(2024, 1, 8, 12, 0, 0, 0, time.UTC)
	s := newTestService(store, now)

	caller := authz.Identity{ID: "m1", Role: models.RoleMember}

	if err := s.CancelBooking(context.Background(), caller, "past"); err != nil {
		t.Fatalf("cancel past booking failed: %v", err)
	}
	if err := s.CancelBooking(context.Background(), caller, "future"); err != nil {
		t.Fatalf("cancel future booking failed: %v", err)
	}
	if err := s.CancelBooking(context.Background(), caller, "odd"); err != nil {
		t.Fatalf("cancel booking with malformed date failed: %v", err)
	}

	if len(store.deleted) != 1 || store.deleted[0] != "past" {
		t.Fatalf("past booking should be hard-deleted, got %v", store.deleted)
	}
	if len(store.cancelled) != 2 || store.cancelled[0] != "future" || store.cancelled[1] != "odd" {
		t.Fatalf("future and malformed-date bookings should be soft-cancelled, got %v", store.cancelled)
	}
}
