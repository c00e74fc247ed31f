package domain

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Points         int             `json:"points"`
	AttendedEvents []AttendedEvent `json:"attended_events"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// AttendedEvent is a denormalised copy of the event as it was when the
// attendance was recorded.
type AttendedEvent struct {
	EventID      uuid.UUID `json:"event_id"`
	EventName    string    `json:"event_name"`
	EventDate    time.Time `json:"event_date"`
	Location     string    `json:"location"`
	PointsEarned int       `json:"points_earned"`
	AttendedAt   time.Time `json:"attended_at"`
}

const (
	RoleAdmin     = "admin"
	RoleOrganizer = "organizer"
)

// Principal is the authenticated caller as asserted by the identity provider.
type Principal struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Roles []string `json:"roles"`
}

func (p Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (p Principal) IsAdmin() bool { return p.HasRole(RoleAdmin) }

func (p Principal) CanOrganize() bool { return p.IsAdmin() || p.HasRole(RoleOrganizer) }
