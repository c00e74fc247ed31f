package domain

const (
	MsgInvalidCodeFormat  = "invalid code format"
	MsgInvalidCode        = "invalid code"
	MsgCodeNotActive      = "code not active"
	MsgNotStarted         = "event has not started yet"
	MsgEventEnded         = "event has ended"
	MsgAlreadyAttended    = "already attended"
	MsgAttendanceRecorded = "attendance recorded"
)

// AttendanceResult is the outcome of a code redemption. Rejections are
// ordinary results, not errors.
type AttendanceResult struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	PointsEarned int    `json:"points_earned,omitempty"`
	EventName    string `json:"event_name,omitempty"`
}

func RejectedAttendance(message string) AttendanceResult {
	return AttendanceResult{Message: message}
}

type SweepResult struct {
	CompletedCount int `json:"completed_count"`
	CleanedUpCount int `json:"cleaned_up_count"`
}
