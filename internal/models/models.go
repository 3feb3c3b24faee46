package models

type Role string

const (
	RoleMember  Role = "member"
	RoleTrainer Role = "trainer"
	RoleAdmin   Role = "admin"
)

type User struct {
	ID           string `db:"id"`
	FullName     string `db:"full_name"`
	Email        string `db:"email"`
	PasswordHash string `db:"password_hash"`
	Role         Role   `db:"role"`
	Deleted      bool   `db:"deleted"`
}

type Activity struct {
	ID      string `db:"id"`
	Name    string `db:"name"`
	Deleted bool   `db:"deleted"`
}

type Location struct {
	ID      string `db:"id"`
	Name    string `db:"name"`
	Deleted bool   `db:"deleted"`
}

type Session struct {
	ID          string `db:"id"`
	ActivityID  string `db:"activity_id"`
	TrainerID   string `db:"trainer_id"`
	LocationID  string `db:"location_id"`
	SessionDate string `db:"session_date"`
	SessionTime string `db:"session_time"`
	Deleted     bool   `db:"deleted"`
}

type Booking struct {
	ID        string `db:"id"`
	MemberID  string `db:"member_id"`
	SessionID string `db:"session_id"`
	Deleted   bool   `db:"deleted"`
}

// BookingRecord is a booking pre-joined with its session and the display
// fields of the referenced activity, location and trainer. One flat row per
// booking; dates stay raw strings so a malformed value can be skipped
// per record instead of failing the whole query.
type BookingRecord struct {
	BookingID    string `db:"booking_id"`
	SessionID    string `db:"session_id"`
	MemberID     string `db:"member_id"`
	SessionDate  string `db:"session_date"`
	SessionTime  string `db:"session_time"`
	ActivityName string `db:"activity_name"`
	LocationName string `db:"location_name"`
	TrainerName  string `db:"trainer_name"`
}

// SessionRecord is a session pre-joined with activity and location display
// fields. The trainer is identified by id only; exports carry the trainer in
// the document header, not per row.
type SessionRecord struct {
	SessionID    string `db:"session_id"`
	TrainerID    string `db:"trainer_id"`
	SessionDate  string `db:"session_date"`
	SessionTime  string `db:"session_time"`
	ActivityName string `db:"activity_name"`
	LocationName string `db:"location_name"`
}
