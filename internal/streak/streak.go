// Package streak tracks consecutive active days and the milestone bonuses
// paid when a streak crosses fixed lengths.
package streak

import (
	"time"

	"fitQuestAPI/internal/dates"
)

type Milestone struct {
	Days  int
	Bonus int
}

var Milestones = []Milestone{
	{Days: 7, Bonus: 50},
	{Days: 14, Bonus: 100},
	{Days: 30, Bonus: 200},
	{Days: 60, Bonus: 300},
	{Days: 100, Bonus: 500},
}

type State struct {
	Days         int
	LastActivity *time.Time
}

// Transition is the outcome of applying one activity date to a State.
// Counted is false when the day was already represented in the streak.
type Transition struct {
	Previous       int
	Days           int
	LastActivity   *time.Time
	Counted        bool
	MilestoneBonus int
	Milestones     []int
}

// Advance applies an activity dated at to s. Only the first activity of a
// calendar day moves the streak. An activity dated before the last counted
// day leaves the state untouched.
func Advance(s State, at time.Time, loc *time.Location) Transition {
	t := Transition{Previous: s.Days, Days: s.Days, LastActivity: s.LastActivity}

	if s.LastActivity == nil {
		t.Days = 1
	} else {
		switch gap := dates.DaysBetween(*s.LastActivity, at, loc); {
		case gap <= 0:
			return t
		case gap == 1:
			t.Days = s.Days + 1
		default:
			t.Days = 1
		}
	}

	day := at
	t.LastActivity = &day
	t.Counted = true
	t.MilestoneBonus, t.Milestones = MilestoneBonus(t.Previous, t.Days)
	return t
}

// MilestoneBonus sums the bonus for every milestone m with from < m <= to.
func MilestoneBonus(from, to int) (int, []int) {
	total := 0
	var crossed []int
	for _, m := range Milestones {
		if from < m.Days && m.Days <= to {
			total += m.Bonus
			crossed = append(crossed, m.Days)
		}
	}
	return total, crossed
}
