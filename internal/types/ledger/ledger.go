package ledger

import (
	"time"

	"github.com/google/uuid"
)

type Source string

const (
	SourceActivity        Source = "activity"
	SourceActivityEdit    Source = "activity_edit"
	SourceActivityDelete  Source = "activity_delete"
	SourceStreakMilestone Source = "streak_milestone"
	SourceBadge           Source = "badge"
	SourceChallenge       Source = "challenge"
)

// Entry records one delta applied to a user's total. Requested is what the
// rule asked for; Applied is what survived clamping at zero.
type Entry struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	UserID       uuid.UUID  `json:"user_id" db:"user_id"`
	Source       Source     `json:"source" db:"source"`
	ReferenceID  *uuid.UUID `json:"reference_id,omitempty" db:"reference_id"`
	Requested    int        `json:"requested" db:"requested"`
	Applied      int        `json:"applied" db:"applied"`
	BalanceAfter int        `json:"balance_after" db:"balance_after"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}
