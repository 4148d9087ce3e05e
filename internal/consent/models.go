package consent

import (
	"time"

	"github.com/google/uuid"
)

// Event is an immutable, append-only record of a user granting or revoking
// consent for a research study. Events are ordered by CreatedAt ascending and
// no two events for the same research/user pair share a timestamp.
type Event struct {
	ID         uuid.UUID `json:"id"`
	ResearchID uuid.UUID `json:"research_id"`
	UserID     uuid.UUID `json:"user_id"`
	Consent    bool      `json:"consent"`
	CreatedAt  time.Time `json:"created_at"`
}

// GrantedUser identifies a user who has granted consent at least once before
// a cutoff, ordered by display name.
type GrantedUser struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Window is a derived half-open date interval [From, To) during which a
// user's consent state is constant. Boundaries are midnight UTC.
type Window struct {
	From    time.Time
	To      time.Time
	Consent bool
}
