package response

type AttendanceCode struct {
	EventID string `json:"event_id"`
	Code    string `json:"code"`
}

type Attendees struct {
	EventID string   `json:"event_id"`
	UserIDs []string `json:"user_ids"`
}

type PointsAdjusted struct {
	UserID      string `json:"user_id"`
	Points      int    `json:"points"`
	TotalPoints int    `json:"total_points"`
}
