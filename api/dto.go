package api

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

type BookingDetailResponse struct {
	BookingID   string `json:"booking_id"`
	SessionID   string `json:"session_id"`
	MemberID    string `json:"member_id"`
	SessionDate string `json:"session_date"`
	SessionTime string `json:"session_time"`
	Activity    string `json:"activity"`
	Location    string `json:"location"`
	Trainer     string `json:"trainer"`
}

type SessionDetailResponse struct {
	SessionID   string `json:"session_id"`
	TrainerID   string `json:"trainer_id"`
	SessionDate string `json:"session_date"`
	SessionTime string `json:"session_time"`
	Activity    string `json:"activity"`
	Location    string `json:"location"`
}

// ExportFile is a rendered export document ready to be written to the
// response body with a Content-Disposition attachment header.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}
