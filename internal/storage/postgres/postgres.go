package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gym-service/internal/config"
	"gym-service/internal/models"
	"gym-service/pkg/response"

	"github.com/avast/retry-go"
	_ "github.com/lib/pq"
)

type Storage struct {
	db *sql.DB
}

func New(storagePath string, conn config.StorageConn) (*Storage, error) {
	const op = "storage.postgres.New"

	db, err := sql.Open("postgres", storagePath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	err = retry.Do(
		func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			return db.PingContext(ctx)
		},
		retry.Attempts(conn.PingAttempts),
		retry.Delay(conn.PingDelay),
		retry.MaxDelay(conn.PingMaxDelay),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: ping: %w", op, err)
	}

	return &Storage{db: db}, nil
}

func (s *Storage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}

	return s.db.Close()
}

// #### users ####

func (s *Storage) GetUser(ctx context.Context, id string) (*models.User, error) {
	const op = "storage.postgres.GetUser"

	var user models.User

	err := s.db.QueryRowContext(ctx,
		`SELECT id, full_name, email, role
		FROM users WHERE id=$1 AND deleted=FALSE`, id).
		Scan(
			&user.ID,
			&user.FullName,
			&user.Email,
			&user.Role,
		)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &user, nil
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.postgres.GetUserByEmail"

	var user models.User

	err := s.db.QueryRowContext(ctx,
		`SELECT id, full_name, email, password_hash, role
		FROM users WHERE email=$1 AND deleted=FALSE`, email).
		Scan(
			&user.ID,
			&user.FullName,
			&user.Email,
			&user.PasswordHash,
			&user.Role,
		)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &user, nil
}

// #### bookings ####

// ListBookingsByMember returns the member's live bookings joined with their
// sessions and display fields. Bookings whose session was soft-deleted are
// orphaned and do not appear.
func (s *Storage) ListBookingsByMember(ctx context.Context, memberID string) ([]models.BookingRecord, error) {
	const op = "storage.postgres.ListBookingsByMember"

	rows, err := s.db.QueryContext(ctx,
		`SELECT b.id, b.session_id, b.member_id,
			to_char(s.session_date, 'YYYY-MM-DD'),
			to_char(s.session_time, 'HH24:MI'),
			a.name, l.name, u.full_name
		FROM bookings b
		JOIN sessions s ON s.id = b.session_id AND s.deleted = FALSE
		JOIN activities a ON a.id = s.activity_id
		JOIN locations l ON l.id = s.location_id
		JOIN users u ON u.id = s.trainer_id
		WHERE b.member_id = $1 AND b.deleted = FALSE`, memberID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var records []models.BookingRecord

	for rows.Next() {
		var rec models.BookingRecord

		err := rows.Scan(
			&rec.BookingID,
			&rec.SessionID,
			&rec.MemberID,
			&rec.SessionDate,
			&rec.SessionTime,
			&rec.ActivityName,
			&rec.LocationName,
			&rec.TrainerName,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return records, nil
}

func (s *Storage) GetBooking(ctx context.Context, id string) (*models.BookingRecord, error) {
	const op = "storage.postgres.GetBooking"

	var rec models.BookingRecord

	err := s.db.QueryRowContext(ctx,
		`SELECT b.id, b.session_id, b.member_id,
			to_char(s.session_date, 'YYYY-MM-DD'),
			to_char(s.session_time, 'HH24:MI'),
			a.name, l.name, u.full_name
		FROM bookings b
		JOIN sessions s ON s.id = b.session_id AND s.deleted = FALSE
		JOIN activities a ON a.id = s.activity_id
		JOIN locations l ON l.id = s.location_id
		JOIN users u ON u.id = s.trainer_id
		WHERE b.id = $1 AND b.deleted = FALSE`, id).
		Scan(
			&rec.BookingID,
			&rec.SessionID,
			&rec.MemberID,
			&rec.SessionDate,
			&rec.SessionTime,
			&rec.ActivityName,
			&rec.LocationName,
			&rec.TrainerName,
		)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &rec, nil
}

// CancelBooking soft-deletes a future booking. The row stays behind the
// deleted flag.
func (s *Storage) CancelBooking(ctx context.Context, id string) error {
	const op = "storage.postgres.CancelBooking"

	res, err := s.db.ExecContext(ctx,
		`UPDATE bookings SET deleted=TRUE WHERE id=$1 AND deleted=FALSE`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return nil
}

// DeleteBooking removes a booking row outright. Used when the session is
// already past, where cancelling means erasing the record.
func (s *Storage) DeleteBooking(ctx context.Context, id string) error {
	const op = "storage.postgres.DeleteBooking"

	res, err := s.db.ExecContext(ctx, `DELETE FROM bookings WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return nil
}

// #### sessions ####

// ListSessionsByTrainer returns the trainer's live sessions. When from/to are
// given the inclusive date range is applied here, in SQL; callers then skip
// their in-memory future filter. Row order is whatever the query returns.
func (s *Storage) ListSessionsByTrainer(ctx context.Context, trainerID string, from, to *time.Time) ([]models.SessionRecord, error) {
	const op = "storage.postgres.ListSessionsByTrainer"

	query := `SELECT s.id, s.trainer_id,
			to_char(s.session_date, 'YYYY-MM-DD'),
			to_char(s.session_time, 'HH24:MI'),
			a.name, l.name
		FROM sessions s
		JOIN activities a ON a.id = s.activity_id
		JOIN locations l ON l.id = s.location_id
		WHERE s.trainer_id = $1 AND s.deleted = FALSE`

	args := []any{trainerID}

	if from != nil {
		args = append(args, from.Format("2006-01-02"))
		query += fmt.Sprintf(" AND s.session_date >= $%d", len(args))
	}
	if to != nil {
		args = append(args, to.Format("2006-01-02"))
		query += fmt.Sprintf(" AND s.session_date <= $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var records []models.SessionRecord

	for rows.Next() {
		var rec models.SessionRecord

		err := rows.Scan(
			&rec.SessionID,
			&rec.TrainerID,
			&rec.SessionDate,
			&rec.SessionTime,
			&rec.ActivityName,
			&rec.LocationName,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return records, nil
}

func (s *Storage) GetSession(ctx context.Context, id string) (*models.SessionRecord, error) {
	const op = "storage.postgres.GetSession"

	var rec models.SessionRecord

	err := s.db.QueryRowContext(ctx,
		`SELECT s.id, s.trainer_id,
			to_char(s.session_date, 'YYYY-MM-DD'),
			to_char(s.session_time, 'HH24:MI'),
			a.name, l.name
		FROM sessions s
		JOIN activities a ON a.id = s.activity_id
		JOIN locations l ON l.id = s.location_id
		WHERE s.id = $1 AND s.deleted = FALSE`, id).
		Scan(
			&rec.SessionID,
			&rec.TrainerID,
			&rec.SessionDate,
			&rec.SessionTime,
			&rec.ActivityName,
			&rec.LocationName,
		)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &rec, nil
}
