package booking

import (
	"time"

	"bookingdesk/pkg/session"
)

// View is a record with everything derived from it for one actor at one instant.
type View struct {
	Record         Record         `json:"record"`
	Classification Classification `json:"classification"`
	Presentation   Presentation   `json:"presentation"`
	Permissions    Permissions    `json:"permissions"`
	When           string         `json:"when"`
}

func BuildView(rec Record, role session.Role, now time.Time) View {
	cls := Classify(rec, role, now)
	return View{
		Record:         rec,
		Classification: cls,
		Presentation:   Present(cls.Stage, role),
		Permissions:    Authorize(rec, cls, role, now),
		When:           rec.When(),
	}
}
