package leave

import "time"

const (
	StatusPending  = "Pending"
	StatusGranted  = "Granted"
	StatusRejected = "Rejected"
)

// Request is one persisted leave-request row. It is created Pending, decided
// at most once by a teacher, and never deleted.
type Request struct {
	ID          string    `json:"id"`
	StudentName string    `json:"studentName"`
	Attendance  float64   `json:"attendance"`
	Year        string    `json:"year"`
	StudentID   string    `json:"studentId"`
	Branch      string    `json:"branch"`
	Batch       string    `json:"batch"`
	Email       string    `json:"email"`
	LeaveDays   int       `json:"leaveDays"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
	Reason      string    `json:"reason"`
	Teacher     string    `json:"teacher"`
	Status      string    `json:"status"`
	// QRCodeData is nil until the request is granted and nil again if it
	// is rejected.
	QRCodeData *string `json:"qrCodeData,omitempty"`
}

// Candidate carries a submission as entered on the form. Year and attendance
// arrive as text and are parsed during validation; the leave-type flags are
// checked at submission but not persisted on the record.
type Candidate struct {
	StudentName     string
	StudentID       string
	Year            string
	Attendance      string
	Branch          string
	Batch           string
	Email           string
	Reason          string
	Teacher         string
	AuthorizedLeave bool
	SpecialLeave    bool
	StartDate       time.Time
	EndDate         time.Time
}
